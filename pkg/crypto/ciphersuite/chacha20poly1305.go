// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/subtle"
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/poly1305" //nolint:staticcheck
)

const (
	chachaKeyLength   = 64
	chachaTagLength   = poly1305.TagSize
	chachaNonceLength = chacha20.NonceSize
)

// ChaCha20Poly1305 is the OpenSSH construction: the second half of the key
// encrypts the length field, the first half encrypts the rest of the frame
// and, at block counter zero, yields the one-time Poly1305 key. The nonce
// is the packet sequence number.
//
// https://cvsweb.openbsd.org/src/usr.bin/ssh/PROTOCOL.chacha20poly1305
type ChaCha20Poly1305 struct {
	contentKey [chacha20.KeySize]byte
	lengthKey  [chacha20.KeySize]byte
}

func newChaCha20Poly1305(key, _ []byte) (Cipher, error) {
	c := &ChaCha20Poly1305{}
	copy(c.contentKey[:], key[:chacha20.KeySize])
	copy(c.lengthKey[:], key[chacha20.KeySize:])

	return c, nil
}

// BlockSize implements Cipher.
func (c *ChaCha20Poly1305) BlockSize() int { return noneBlockSize }

// FirstBlockSize implements Cipher.
func (c *ChaCha20Poly1305) FirstBlockSize() int { return lengthFieldLen }

// TagSize implements Cipher.
func (c *ChaCha20Poly1305) TagSize() int { return chachaTagLength }

// AEAD implements Cipher.
func (c *ChaCha20Poly1305) AEAD() bool { return true }

func nonceFor(seq uint32) []byte {
	var nonce [chachaNonceLength]byte
	binary.BigEndian.PutUint32(nonce[8:], seq)

	return nonce[:]
}

// DecryptLength decrypts a copy of the length field, the encrypted bytes
// stay in place for the tag check.
func (c *ChaCha20Poly1305) DecryptLength(seq uint32, first []byte) (uint32, error) {
	if len(first) < lengthFieldLen {
		return 0, errShortFrame
	}

	s, err := chacha20.NewUnauthenticatedCipher(c.lengthKey[:], nonceFor(seq))
	if err != nil {
		return 0, err
	}
	var length [lengthFieldLen]byte
	s.XORKeyStream(length[:], first[:lengthFieldLen])

	return binary.BigEndian.Uint32(length[:]), nil
}

func (c *ChaCha20Poly1305) contentStream(seq uint32) (*chacha20.Cipher, [32]byte, error) {
	var polyKey [32]byte
	s, err := chacha20.NewUnauthenticatedCipher(c.contentKey[:], nonceFor(seq))
	if err != nil {
		return nil, polyKey, err
	}
	s.XORKeyStream(polyKey[:], polyKey[:])
	s.SetCounter(1)

	return s, polyKey, nil
}

// Decrypt verifies the tag and returns the plaintext frame.
func (c *ChaCha20Poly1305) Decrypt(seq uint32, frame []byte) ([]byte, error) {
	if len(frame) < lengthFieldLen+chachaTagLength {
		return nil, errShortFrame
	}

	s, polyKey, err := c.contentStream(seq)
	if err != nil {
		return nil, err
	}

	body := frame[:len(frame)-chachaTagLength]
	var tag [chachaTagLength]byte
	copy(tag[:], frame[len(body):])
	var expected [chachaTagLength]byte
	poly1305.Sum(&expected, body, &polyKey)
	if subtle.ConstantTimeCompare(expected[:], tag[:]) != 1 {
		return nil, ErrDecryptPacket
	}

	length, err := c.DecryptLength(seq, body)
	if err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint32(body, length)
	s.XORKeyStream(body[lengthFieldLen:], body[lengthFieldLen:])

	return body, nil
}

// Zero implements Cipher.
func (c *ChaCha20Poly1305) Zero() {
	for i := range c.contentKey {
		c.contentKey[i] = 0
	}
	for i := range c.lengthKey {
		c.lengthKey[i] = 0
	}
}

// Encrypt implements Cipher.
func (c *ChaCha20Poly1305) Encrypt(seq uint32, frame []byte) ([]byte, error) {
	if len(frame) < lengthFieldLen {
		return nil, errShortFrame
	}

	out := make([]byte, len(frame), len(frame)+chachaTagLength)

	ls, err := chacha20.NewUnauthenticatedCipher(c.lengthKey[:], nonceFor(seq))
	if err != nil {
		return nil, err
	}
	ls.XORKeyStream(out[:lengthFieldLen], frame[:lengthFieldLen])

	s, polyKey, err := c.contentStream(seq)
	if err != nil {
		return nil, err
	}
	s.XORKeyStream(out[lengthFieldLen:], frame[lengthFieldLen:])

	var tag [chachaTagLength]byte
	poly1305.Sum(&tag, out, &polyKey)

	return append(out, tag[:]...), nil
}
