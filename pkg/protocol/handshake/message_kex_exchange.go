// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"github.com/pion/sshtransport/internal/util"
	"github.com/pion/sshtransport/pkg/protocol"
	"golang.org/x/crypto/cryptobyte"
)

// MessageKexExchangeInit carries the client's ephemeral public value.
//
// For the Diffie-Hellman groups the value is the mpint body of e, for the
// elliptic curve methods it is the encoded point. Both are written as a
// length-prefixed string.
type MessageKexExchangeInit struct {
	PublicKey []byte
}

// Type returns the message number.
func (m MessageKexExchangeInit) Type() protocol.MessageType {
	return protocol.MessageTypeKexExchangeInit
}

// Marshal encodes the message, message number included.
func (m *MessageKexExchangeInit) Marshal() ([]byte, error) {
	if len(m.PublicKey) == 0 {
		return nil, errEmptyPublicValue
	}

	var b cryptobyte.Builder
	b.AddUint8(uint8(m.Type()))
	util.AddString(&b, m.PublicKey)

	return b.Bytes()
}

// Unmarshal populates the message from an encoded payload.
func (m *MessageKexExchangeInit) Unmarshal(data []byte) error {
	s := cryptobyte.String(data)
	if err := readType(&s, protocol.MessageTypeKexExchangeInit); err != nil {
		return err
	}
	if !util.ReadString(&s, &m.PublicKey) {
		return errBufferTooSmall
	}
	if len(m.PublicKey) == 0 {
		return errEmptyPublicValue
	}
	if !s.Empty() {
		return errTrailingData
	}

	return nil
}

// MessageKexReply is the server's answer: its host key blob, its
// ephemeral public value and the signature over the exchange hash.
type MessageKexReply struct {
	HostKey   []byte
	PublicKey []byte
	Signature []byte
}

// Type returns the message number.
func (m MessageKexReply) Type() protocol.MessageType {
	return protocol.MessageTypeKexReply
}

// Marshal encodes the message, message number included.
func (m *MessageKexReply) Marshal() ([]byte, error) {
	if len(m.PublicKey) == 0 {
		return nil, errEmptyPublicValue
	}

	var b cryptobyte.Builder
	b.AddUint8(uint8(m.Type()))
	util.AddString(&b, m.HostKey)
	util.AddString(&b, m.PublicKey)
	util.AddString(&b, m.Signature)

	return b.Bytes()
}

// Unmarshal populates the message from an encoded payload.
func (m *MessageKexReply) Unmarshal(data []byte) error {
	s := cryptobyte.String(data)
	if err := readType(&s, protocol.MessageTypeKexReply); err != nil {
		return err
	}
	if !util.ReadString(&s, &m.HostKey) ||
		!util.ReadString(&s, &m.PublicKey) ||
		!util.ReadString(&s, &m.Signature) {
		return errBufferTooSmall
	}
	if len(m.PublicKey) == 0 {
		return errEmptyPublicValue
	}
	if !s.Empty() {
		return errTrailingData
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
