// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"net"
)

// Listen creates a listener that runs the server side of the transport on
// every accepted stream.
func Listen(network, address string, config *Config) (net.Listener, error) {
	if err := validateConfig(config, false); err != nil {
		return nil, err
	}

	parent, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}

	return &listener{
		config: config,
		parent: parent,
	}, nil
}

// NewListener creates a listener which accepts streams from an inner Listener.
func NewListener(inner net.Listener, config *Config) (net.Listener, error) {
	if err := validateConfig(config, false); err != nil {
		return nil, err
	}

	return &listener{
		config: config,
		parent: inner,
	}, nil
}

type listener struct {
	config *Config
	parent net.Listener
}

// Handshaker performs the first key exchange and returns a connection, on
// success. It is only valid for 1 connection.
type Handshaker interface {
	Handshake() (*Conn, error)
}

type handshaker struct {
	conn   net.Conn
	config *Config
}

// Handshake runs the server side of the first key exchange. The stream is
// closed when it fails.
func (h handshaker) Handshake() (*Conn, error) {
	conn, err := Server(h.conn, h.config)
	if err != nil {
		_ = h.conn.Close()

		return nil, err
	}

	return conn, nil
}

// AcceptHandshake accepts a stream and returns a Handshaker.
// This allows multiple handshakes to be performed in parallel.
func (l *listener) AcceptHandshake() (Handshaker, error) {
	c, err := l.parent.Accept()
	if err != nil {
		return nil, err
	}

	return handshaker{c, l.config}, nil
}

// Accept waits for and returns the next connection to the listener.
// The key exchange runs before Accept returns, so a slow peer holds up
// the streams queued behind it. Use AcceptHandshake to avoid that.
func (l *listener) Accept() (net.Conn, error) {
	hs, err := l.AcceptHandshake()
	if err != nil {
		return nil, err
	}
	conn, err := hs.Handshake()
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// Close closes the listener.
// Any blocked Accept operations will be unblocked and return errors.
// Already Accepted connections are not closed.
func (l *listener) Close() error {
	return l.parent.Close()
}

// Addr returns the listener's network address.
func (l *listener) Addr() net.Addr {
	return l.parent.Addr()
}
