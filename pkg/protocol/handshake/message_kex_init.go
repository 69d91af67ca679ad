// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package handshake implements the key exchange messages of the transport
package handshake

import (
	"github.com/pion/sshtransport/internal/util"
	"github.com/pion/sshtransport/pkg/protocol"
	"golang.org/x/crypto/cryptobyte"
)

// CookieLength is the length of the random cookie in a KexInit.
const CookieLength = 16

/*
MessageKexInit is the algorithm announcement. Each side sends one at the
start of every key exchange, listing for every negotiation category the
algorithms it supports in order of preference.

The encoded message is hashed verbatim into the exchange hash, callers keep
the payload bytes that were actually sent or received.

https://tools.ietf.org/html/rfc4253#section-7.1
*/
type MessageKexInit struct {
	Cookie                   [CookieLength]byte
	KeyExchanges             []string
	HostKeyAlgorithms        []string
	CiphersClientServer      []string
	CiphersServerClient      []string
	MACsClientServer         []string
	MACsServerClient         []string
	CompressionsClientServer []string
	CompressionsServerClient []string
	LanguagesClientServer    []string
	LanguagesServerClient    []string
	FirstKexFollows          bool
	Reserved                 uint32
}

// Type returns the message number.
func (m MessageKexInit) Type() protocol.MessageType {
	return protocol.MessageTypeKexInit
}

func (m *MessageKexInit) lists() []*[]string {
	return []*[]string{
		&m.KeyExchanges,
		&m.HostKeyAlgorithms,
		&m.CiphersClientServer,
		&m.CiphersServerClient,
		&m.MACsClientServer,
		&m.MACsServerClient,
		&m.CompressionsClientServer,
		&m.CompressionsServerClient,
		&m.LanguagesClientServer,
		&m.LanguagesServerClient,
	}
}

// Marshal encodes the message, message number included.
func (m *MessageKexInit) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint8(uint8(m.Type()))
	b.AddBytes(m.Cookie[:])
	for _, l := range m.lists() {
		for _, name := range *l {
			if name == "" {
				return nil, errInvalidNameList
			}
		}
		util.AddNameList(&b, *l)
	}
	util.AddBool(&b, m.FirstKexFollows)
	b.AddUint32(m.Reserved)

	return b.Bytes()
}

// Unmarshal populates the message from an encoded payload.
func (m *MessageKexInit) Unmarshal(data []byte) error {
	s := cryptobyte.String(data)
	if err := readType(&s, protocol.MessageTypeKexInit); err != nil {
		return err
	}
	if !s.CopyBytes(m.Cookie[:]) {
		return errBufferTooSmall
	}
	for _, l := range m.lists() {
		if !util.ReadNameList(&s, l) {
			return errInvalidNameList
		}
	}
	if !util.ReadBool(&s, &m.FirstKexFollows) || !s.ReadUint32(&m.Reserved) {
		return errBufferTooSmall
	}
	if !s.Empty() {
		return errTrailingData
	}

	return nil
}
