// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
)

const ctrIVLength = aes.BlockSize

// CTR is AES in counter mode. The key stream runs across packets, so the
// first block decrypted to learn the length is not decrypted again.
//
// https://tools.ietf.org/html/rfc4344#section-4
type CTR struct {
	stream cipher.Stream
}

func newCTR(key, iv []byte) (Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return &CTR{stream: cipher.NewCTR(block, iv)}, nil
}

// BlockSize implements Cipher.
func (c *CTR) BlockSize() int { return aes.BlockSize }

// FirstBlockSize implements Cipher.
func (c *CTR) FirstBlockSize() int { return aes.BlockSize }

// TagSize implements Cipher.
func (c *CTR) TagSize() int { return 0 }

// AEAD implements Cipher.
func (c *CTR) AEAD() bool { return false }

// DecryptLength decrypts the first block in place.
func (c *CTR) DecryptLength(_ uint32, first []byte) (uint32, error) {
	if len(first) < aes.BlockSize {
		return 0, errShortFrame
	}
	c.stream.XORKeyStream(first[:aes.BlockSize], first[:aes.BlockSize])

	return binary.BigEndian.Uint32(first), nil
}

// Decrypt decrypts everything after the first block in place.
func (c *CTR) Decrypt(_ uint32, frame []byte) ([]byte, error) {
	if len(frame) < aes.BlockSize {
		return nil, errShortFrame
	}
	c.stream.XORKeyStream(frame[aes.BlockSize:], frame[aes.BlockSize:])

	return frame, nil
}

// Encrypt implements Cipher.
func (c *CTR) Encrypt(_ uint32, frame []byte) ([]byte, error) {
	out := make([]byte, len(frame))
	c.stream.XORKeyStream(out, frame)

	return out, nil
}

// Zero drops the key stream.
func (c *CTR) Zero() {
	c.stream = nil
}
