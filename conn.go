// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/deadline"
	"github.com/pion/transport/v3/packetio"
)

const (
	receiveBufferSize = 32 * 1024
	closeWriteTimeout = time.Second
)

// Conn binds an Engine to a connected byte stream. Reads and writes carry
// whole upper layer messages, the first byte being the message number.
type Conn struct {
	lock     sync.Mutex // guards engine and pending
	nextConn net.Conn
	engine   *Engine
	pending  []byte
	log      logging.LeveledLogger

	payloads      *packetio.Buffer
	writeDeadline *deadline.Deadline

	writeSignal        chan struct{}
	handshakeCompleted chan struct{}
	closing            chan struct{}
	readLoopDone       chan struct{}
	writeLoopDone      chan struct{}

	stopOnce     sync.Once
	completeOnce sync.Once
	connErr      atomicError
}

func createConn(ctx context.Context, nextConn net.Conn, config *Config, isClient bool) (*Conn, error) {
	switch {
	case config == nil:
		return nil, errNoConfigProvided
	case nextConn == nil:
		return nil, errNilNextConn
	}

	conn := &Conn{
		nextConn:           nextConn,
		payloads:           packetio.NewBuffer(),
		writeDeadline:      deadline.New(),
		writeSignal:        make(chan struct{}, 1),
		handshakeCompleted: make(chan struct{}),
		closing:            make(chan struct{}),
		readLoopDone:       make(chan struct{}),
		writeLoopDone:      make(chan struct{}),
	}

	cfg := *config
	onHandshakeComplete := config.OnHandshakeComplete
	cfg.OnHandshakeComplete = func(algs Algorithms) {
		conn.signalHandshakeComplete()
		if onHandshakeComplete != nil {
			onHandshakeComplete(algs)
		}
	}

	engine, err := newEngine(&cfg, isClient)
	if err != nil {
		return nil, err
	}
	conn.engine = engine
	conn.log = engine.log

	conn.lock.Lock()
	conn.queueOutbound()
	conn.lock.Unlock()

	go conn.writeLoop()
	go conn.readLoop()

	select {
	case <-conn.handshakeCompleted:
		return conn, nil
	case <-conn.closing:
		err = conn.connErr.load()
	case <-ctx.Done():
		err = ctx.Err()
	}
	_ = conn.Close()

	var handshakeErr *HandshakeError
	if errors.As(err, &handshakeErr) {
		return nil, err
	}

	return nil, &HandshakeError{Err: err}
}

// Client establishes the client side of a connection over an existing
// conn and returns once the first key exchange has completed.
func Client(conn net.Conn, config *Config) (*Conn, error) {
	return ClientWithContext(context.Background(), conn, config)
}

// ClientWithContext is Client with a context bounding the first key exchange.
func ClientWithContext(ctx context.Context, conn net.Conn, config *Config) (*Conn, error) {
	return createConn(ctx, conn, config, true)
}

// ClientWithOptions establishes a client connection with functional options.
func ClientWithOptions(conn net.Conn, opts ...ClientOption) (*Conn, error) {
	config, err := buildClientConfig(opts...)
	if err != nil {
		return nil, err
	}

	return Client(conn, config)
}

// Server establishes the server side of a connection over an existing
// conn and returns once the first key exchange has completed.
func Server(conn net.Conn, config *Config) (*Conn, error) {
	return ServerWithContext(context.Background(), conn, config)
}

// ServerWithContext is Server with a context bounding the first key exchange.
func ServerWithContext(ctx context.Context, conn net.Conn, config *Config) (*Conn, error) {
	return createConn(ctx, conn, config, false)
}

// ServerWithOptions establishes a server connection with functional options.
func ServerWithOptions(conn net.Conn, opts ...ServerOption) (*Conn, error) {
	config, err := buildServerConfig(opts...)
	if err != nil {
		return nil, err
	}

	return Server(conn, config)
}

// ReadPacket reads the next upper layer message. If p is too small the
// message is dropped and an error returned.
func (c *Conn) ReadPacket(p []byte) (int, error) {
	n, err := c.payloads.Read(p)
	var netErr net.Error
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.ErrShortBuffer):
		return 0, errBufferTooSmall
	case errors.As(err, &netErr) && netErr.Timeout():
		return 0, errDeadlineExceeded
	}

	if connErr := c.connErr.load(); connErr != nil {
		return 0, connErr
	}

	return 0, err
}

// Read implements net.Conn, one message per call.
func (c *Conn) Read(p []byte) (int, error) {
	return c.ReadPacket(p)
}

// WritePacket sends an upper layer message. Messages written during a key
// exchange are sent once it completes. The message is queued for the write
// loop, so the write deadline only gates accepting it.
func (c *Conn) WritePacket(p []byte) (int, error) {
	if c.isClosing() {
		return 0, c.closedErr()
	}

	select {
	case <-c.writeDeadline.Done():
		return 0, errDeadlineExceeded
	default:
	}

	c.lock.Lock()
	err := c.engine.Send(p)
	c.queueOutbound()
	c.lock.Unlock()

	if err != nil {
		var tempErr *TemporaryError
		if !errors.As(err, &tempErr) {
			c.stop(err)
		}

		return 0, err
	}

	return len(p), nil
}

// Write implements net.Conn, one message per call.
func (c *Conn) Write(p []byte) (int, error) {
	return c.WritePacket(p)
}

// Rekey starts a new key exchange on an established connection.
func (c *Conn) Rekey() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	err := c.engine.Rekey()
	c.queueOutbound()

	return err
}

// Close sends a disconnect, zeroes every key and closes the underlying conn.
// It is safe to call more than once.
func (c *Conn) Close() error {
	c.lock.Lock()
	_ = c.engine.Close()
	c.queueOutbound()
	c.lock.Unlock()

	c.stop(ErrConnClosed)
	<-c.writeLoopDone
	<-c.readLoopDone

	return nil
}

// Algorithms returns the algorithms of the last completed key exchange.
func (c *Conn) Algorithms() (Algorithms, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.engine.Algorithms()
}

// SessionID returns the session identifier.
func (c *Conn) SessionID() []byte {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.engine.SessionID()
}

// ConnectionState returns a copy of the session state without key material.
func (c *Conn) ConnectionState() State {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.engine.ConnectionState()
}

// queueOutbound moves the engine's output to the write loop. c.lock must be held.
func (c *Conn) queueOutbound() {
	out := c.engine.Outbound()
	if len(out) == 0 {
		return
	}
	c.pending = append(c.pending, out...)

	select {
	case c.writeSignal <- struct{}{}:
	default:
	}
}

func (c *Conn) writePending() error {
	c.lock.Lock()
	out := c.pending
	c.pending = nil
	c.lock.Unlock()

	if len(out) == 0 {
		return nil
	}
	_, err := c.nextConn.Write(out)

	return err
}

func (c *Conn) writeLoop() {
	defer close(c.writeLoopDone)

	for {
		select {
		case <-c.writeSignal:
			if err := c.writePending(); err != nil {
				c.lock.Lock()
				err = c.engine.transportFailed(netError(err))
				c.lock.Unlock()
				c.stop(err)
			}
		case <-c.closing:
			if err := c.writePending(); err != nil {
				c.log.Debugf("failed to flush on close: %v", err)
			}
			if err := c.nextConn.Close(); err != nil {
				c.log.Debugf("failed to close conn: %v", err)
			}
			_ = c.payloads.Close()

			return
		}
	}
}

func (c *Conn) readLoop() {
	defer close(c.readLoopDone)

	b := make([]byte, receiveBufferSize)
	for {
		n, err := c.nextConn.Read(b)
		if err != nil {
			if c.isClosing() {
				return
			}
			c.lock.Lock()
			err = c.engine.transportFailed(netError(err))
			c.lock.Unlock()
			c.stop(err)

			return
		}

		c.lock.Lock()
		err = c.engine.HandleIncoming(b[:n])
		payloads := c.engine.Payloads()
		c.queueOutbound()
		c.lock.Unlock()

		for _, payload := range payloads {
			if _, writeErr := c.payloads.Write(payload); writeErr != nil && err == nil {
				// A stream can not skip a message, so a full buffer ends the connection.
				c.lock.Lock()
				err = c.engine.fatal(&InternalError{Err: fmt.Errorf("receive buffer: %w", writeErr)})
				c.queueOutbound()
				c.lock.Unlock()
			}
		}
		if err != nil {
			c.stop(err)

			return
		}
	}
}

// stop records err and winds the conn down. The write loop flushes what is
// pending, a disconnect usually, then closes the underlying conn.
func (c *Conn) stop(err error) {
	c.connErr.storeFirst(err)
	c.stopOnce.Do(func() {
		if deadlineErr := c.nextConn.SetWriteDeadline(time.Now().Add(closeWriteTimeout)); deadlineErr != nil {
			c.log.Debugf("failed to set write deadline: %v", deadlineErr)
		}
		close(c.closing)
	})
}

func (c *Conn) isClosing() bool {
	select {
	case <-c.closing:
		return true
	default:
		return false
	}
}

func (c *Conn) closedErr() error {
	if err := c.connErr.load(); err != nil {
		return err
	}

	return ErrConnClosed
}

func (c *Conn) signalHandshakeComplete() {
	c.completeOnce.Do(func() { close(c.handshakeCompleted) })
}

// LocalAddr implements net.Conn.LocalAddr.
func (c *Conn) LocalAddr() net.Addr {
	return c.nextConn.LocalAddr()
}

// RemoteAddr implements net.Conn.RemoteAddr.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nextConn.RemoteAddr()
}

// SetDeadline implements net.Conn.SetDeadline.
func (c *Conn) SetDeadline(t time.Time) error {
	if err := c.SetReadDeadline(t); err != nil {
		return err
	}

	return c.SetWriteDeadline(t)
}

// SetReadDeadline implements net.Conn.SetReadDeadline.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.payloads.SetReadDeadline(t)
}

// SetWriteDeadline implements net.Conn.SetWriteDeadline. The underlying
// conn keeps its own deadline, a late flush must not kill the session.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.writeDeadline.Set(t)

	return nil
}
