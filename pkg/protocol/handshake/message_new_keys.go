// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"github.com/pion/sshtransport/pkg/protocol"
	"golang.org/x/crypto/cryptobyte"
)

// MessageNewKeys ends a key exchange. Every packet a side sends after its
// NewKeys uses the new keys, and every packet it receives after the peer's
// NewKeys is expected under them.
//
// https://tools.ietf.org/html/rfc4253#section-7.3
type MessageNewKeys struct{}

// Type returns the message number.
func (m MessageNewKeys) Type() protocol.MessageType {
	return protocol.MessageTypeNewKeys
}

// Marshal encodes the message, message number included.
func (m *MessageNewKeys) Marshal() ([]byte, error) {
	return []byte{byte(protocol.MessageTypeNewKeys)}, nil
}

// Unmarshal populates the message from an encoded payload.
func (m *MessageNewKeys) Unmarshal(data []byte) error {
	s := cryptobyte.String(data)
	if err := readType(&s, protocol.MessageTypeNewKeys); err != nil {
		return err
	}
	if !s.Empty() {
		return errTrailingData
	}

	return nil
}
