// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import "encoding/binary"

const (
	noneBlockSize  = 8
	lengthFieldLen = 4
)

// None is the cipher every connection starts with, frames travel in clear.
type None struct{}

// BlockSize implements Cipher.
func (None) BlockSize() int { return noneBlockSize }

// FirstBlockSize implements Cipher.
func (None) FirstBlockSize() int { return lengthFieldLen }

// TagSize implements Cipher.
func (None) TagSize() int { return 0 }

// AEAD implements Cipher.
func (None) AEAD() bool { return false }

// DecryptLength implements Cipher.
func (None) DecryptLength(_ uint32, first []byte) (uint32, error) {
	if len(first) < lengthFieldLen {
		return 0, errShortFrame
	}

	return binary.BigEndian.Uint32(first), nil
}

// Decrypt implements Cipher.
func (None) Decrypt(_ uint32, frame []byte) ([]byte, error) {
	return frame, nil
}

// Encrypt implements Cipher.
func (None) Encrypt(_ uint32, frame []byte) ([]byte, error) {
	return frame, nil
}

// Zero implements Cipher.
func (None) Zero() {}
