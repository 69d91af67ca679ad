// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package mac provides the message authentication codes that can be negotiated
package mac

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
)

var errUnknownMAC = errors.New("unknown mac") //nolint:err113

// MAC names.
const (
	NameHMACSHA256 = "hmac-sha2-256"
	NameHMACSHA512 = "hmac-sha2-512"
	NameHMACSHA1   = "hmac-sha1"
)

// Algorithm describes a MAC by name.
type Algorithm struct {
	name string
	hash func() hash.Hash
	size int
}

// Name returns the negotiated identifier.
func (a *Algorithm) Name() string { return a.name }

// KeyLen returns the integrity key length in bytes.
func (a *Algorithm) KeyLen() int { return a.size }

// Size returns the length of the computed tag.
func (a *Algorithm) Size() int { return a.size }

func (a *Algorithm) String() string { return a.name }

// New returns a MAC for one direction keyed with key.
func (a *Algorithm) New(key []byte) *MAC {
	return &MAC{h: hmac.New(a.hash, key)}
}

// ForName returns the Algorithm registered under name.
func ForName(name string) (*Algorithm, error) {
	switch name {
	case NameHMACSHA256:
		return &Algorithm{name, sha256.New, sha256.Size}, nil
	case NameHMACSHA512:
		return &Algorithm{name, sha512.New, sha512.Size}, nil
	case NameHMACSHA1:
		return &Algorithm{name, sha1.New, sha1.Size}, nil
	}

	return nil, fmt.Errorf("%w: %s", errUnknownMAC, name)
}

// Default returns the MACs offered when none are configured, most preferred first.
func Default() []string {
	return []string{NameHMACSHA256, NameHMACSHA512, NameHMACSHA1}
}

// MAC authenticates the plaintext frames of one direction. The packet
// sequence number is an implicit input and never travels on the wire.
//
// https://tools.ietf.org/html/rfc4253#section-6.4
type MAC struct {
	h hash.Hash
}

// Size returns the length of the computed tag.
func (m *MAC) Size() int { return m.h.Size() }

// Compute returns the tag of frame under seq.
func (m *MAC) Compute(seq uint32, frame []byte) []byte {
	var seqBuf [4]byte
	binary.BigEndian.PutUint32(seqBuf[:], seq)

	m.h.Reset()
	m.h.Write(seqBuf[:])
	m.h.Write(frame)

	return m.h.Sum(nil)
}

// Verify checks tag in constant time.
func (m *MAC) Verify(seq uint32, frame, tag []byte) bool {
	return hmac.Equal(m.Compute(seq, frame), tag)
}

// Zero wipes the keyed hash state. The MAC must not be used afterwards.
func (m *MAC) Zero() {
	if m.h == nil {
		return
	}
	m.h.Reset()
	m.h = nil
}
