// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package control implements the transport messages that may appear at any
// point of a connection: ignore, debug and unimplemented.
package control

import (
	"errors"

	"github.com/pion/sshtransport/internal/util"
	"github.com/pion/sshtransport/pkg/protocol"
	"golang.org/x/crypto/cryptobyte"
)

var (
	errBufferTooSmall = &protocol.TemporaryError{Err: errors.New("buffer is too small")}    //nolint:err113
	errInvalidType    = &protocol.FatalError{Err: errors.New("unexpected control message")} //nolint:err113
)

// Ignore carries data the receiver must discard. It is used to pad
// traffic and to probe the peer.
type Ignore struct {
	Data []byte
}

// Type returns the message number.
func (m Ignore) Type() protocol.MessageType {
	return protocol.MessageTypeIgnore
}

// Marshal returns the encoded payload, message number included.
func (m *Ignore) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint8(uint8(m.Type()))
	util.AddString(&b, m.Data)

	return b.Bytes()
}

// Unmarshal populates the message from an encoded payload.
func (m *Ignore) Unmarshal(data []byte) error {
	s := cryptobyte.String(data)
	if err := readType(&s, protocol.MessageTypeIgnore); err != nil {
		return err
	}
	if !util.ReadString(&s, &m.Data) {
		return errBufferTooSmall
	}

	return nil
}

// Debug carries a diagnostic message for the peer.
type Debug struct {
	AlwaysDisplay bool
	Message       string
	Language      string
}

// Type returns the message number.
func (m Debug) Type() protocol.MessageType {
	return protocol.MessageTypeDebug
}

// Marshal returns the encoded payload, message number included.
func (m *Debug) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint8(uint8(m.Type()))
	util.AddBool(&b, m.AlwaysDisplay)
	util.AddString(&b, []byte(m.Message))
	util.AddString(&b, []byte(m.Language))

	return b.Bytes()
}

// Unmarshal populates the message from an encoded payload.
func (m *Debug) Unmarshal(data []byte) error {
	s := cryptobyte.String(data)
	if err := readType(&s, protocol.MessageTypeDebug); err != nil {
		return err
	}

	var message, language []byte
	if !util.ReadBool(&s, &m.AlwaysDisplay) || !util.ReadString(&s, &message) {
		return errBufferTooSmall
	}
	if !s.Empty() && !util.ReadString(&s, &language) {
		return errBufferTooSmall
	}
	m.Message = string(message)
	m.Language = string(language)

	return nil
}

// Unimplemented is the answer to a message number the receiver does not
// know. It names the sequence number of the rejected packet.
type Unimplemented struct {
	Sequence uint32
}

// Type returns the message number.
func (m Unimplemented) Type() protocol.MessageType {
	return protocol.MessageTypeUnimplemented
}

// Marshal returns the encoded payload, message number included.
func (m *Unimplemented) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint8(uint8(m.Type()))
	b.AddUint32(m.Sequence)

	return b.Bytes()
}

// Unmarshal populates the message from an encoded payload.
func (m *Unimplemented) Unmarshal(data []byte) error {
	s := cryptobyte.String(data)
	if err := readType(&s, protocol.MessageTypeUnimplemented); err != nil {
		return err
	}
	if !s.ReadUint32(&m.Sequence) {
		return errBufferTooSmall
	}

	return nil
}

func readType(s *cryptobyte.String, want protocol.MessageType) error {
	var typ uint8
	if !s.ReadUint8(&typ) {
		return errBufferTooSmall
	}
	if protocol.MessageType(typ) != want {
		return errInvalidType
	}

	return nil
}
