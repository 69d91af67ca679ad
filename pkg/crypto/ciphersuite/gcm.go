// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
)

const (
	gcmTagLength = 16
	gcmIVLength  = 12
)

// GCM is AES-GCM as used by OpenSSH. The length field is sent in clear
// and authenticated as additional data, the last eight bytes of the IV are
// an invocation counter incremented after every packet.
//
// https://tools.ietf.org/html/rfc5647
type GCM struct {
	aead cipher.AEAD
	iv   [gcmIVLength]byte
}

func newGCM(key, iv []byte) (Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	g := &GCM{aead: gcm}
	copy(g.iv[:], iv)

	return g, nil
}

// BlockSize implements Cipher.
func (g *GCM) BlockSize() int { return aes.BlockSize }

// FirstBlockSize implements Cipher.
func (g *GCM) FirstBlockSize() int { return lengthFieldLen }

// TagSize implements Cipher.
func (g *GCM) TagSize() int { return gcmTagLength }

// AEAD implements Cipher.
func (g *GCM) AEAD() bool { return true }

// DecryptLength implements Cipher.
func (g *GCM) DecryptLength(_ uint32, first []byte) (uint32, error) {
	if len(first) < lengthFieldLen {
		return 0, errShortFrame
	}

	return binary.BigEndian.Uint32(first), nil
}

// Decrypt verifies the tag and returns the plaintext frame.
func (g *GCM) Decrypt(_ uint32, frame []byte) ([]byte, error) {
	if len(frame) < lengthFieldLen+gcmTagLength {
		return nil, errShortFrame
	}

	plain, err := g.aead.Open(frame[lengthFieldLen:lengthFieldLen], g.iv[:], frame[lengthFieldLen:], frame[:lengthFieldLen])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptPacket, err) //nolint:errorlint
	}
	g.incrementIV()

	return frame[:lengthFieldLen+len(plain)], nil
}

// Encrypt implements Cipher.
func (g *GCM) Encrypt(_ uint32, frame []byte) ([]byte, error) {
	if len(frame) < lengthFieldLen {
		return nil, errShortFrame
	}

	out := make([]byte, lengthFieldLen, len(frame)+gcmTagLength)
	copy(out, frame[:lengthFieldLen])
	out = g.aead.Seal(out, g.iv[:], frame[lengthFieldLen:], frame[:lengthFieldLen])
	g.incrementIV()

	return out, nil
}

// Zero drops the key schedule and clears the invocation counter.
func (g *GCM) Zero() {
	g.aead = nil
	for i := range g.iv {
		g.iv[i] = 0
	}
}

func (g *GCM) incrementIV() {
	counter := binary.BigEndian.Uint64(g.iv[4:])
	binary.BigEndian.PutUint64(g.iv[4:], counter+1)
}
