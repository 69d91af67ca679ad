// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"bytes"
	"crypto/sha512"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPair(t *testing.T, name string) (Cipher, Cipher) {
	t.Helper()

	suite, err := ForName(name)
	require.NoError(t, err)

	material := sha512.Sum512([]byte(name))
	key := bytes.Repeat(material[:], 2)[:suite.KeyLen()]
	iv := material[len(material)-suite.IVLen():]

	enc, err := suite.New(key, iv)
	require.NoError(t, err)
	dec, err := suite.New(key, iv)
	require.NoError(t, err)

	return enc, dec
}

func testFrame(body []byte) []byte {
	frame := make([]byte, lengthFieldLen+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body))) //nolint:gosec
	copy(frame[lengthFieldLen:], body)

	return frame
}

func TestCipherRoundTrip(t *testing.T) {
	for _, name := range All() {
		name := name
		t.Run(name, func(t *testing.T) {
			enc, dec := testPair(t, name)

			for seq, size := range []int{12, 28, 60, 4092} {
				frame := testFrame(bytes.Repeat([]byte{byte(size)}, size))
				want := append([]byte{}, frame...)

				sealed, err := enc.Encrypt(uint32(seq), frame) //nolint:gosec
				require.NoError(t, err)
				assert.Equal(t, len(frame)+enc.TagSize(), len(sealed))
				assert.Equal(t, want, frame, "Encrypt must not modify its input")

				length, err := dec.DecryptLength(uint32(seq), sealed[:dec.FirstBlockSize()]) //nolint:gosec
				require.NoError(t, err)
				assert.Equal(t, uint32(size), length) //nolint:gosec

				plain, err := dec.Decrypt(uint32(seq), sealed) //nolint:gosec
				require.NoError(t, err)
				assert.Equal(t, want, plain)
			}
		})
	}
}

func TestCipherTamper(t *testing.T) {
	for _, name := range []string{NameChaCha20Poly1305, NameAES128GCM, NameAES256GCM} {
		name := name
		t.Run(name, func(t *testing.T) {
			enc, dec := testPair(t, name)

			sealed, err := enc.Encrypt(7, testFrame(make([]byte, 28)))
			require.NoError(t, err)
			sealed[len(sealed)-chachaTagLength-1] ^= 0x01

			_, err = dec.DecryptLength(7, sealed[:dec.FirstBlockSize()])
			require.NoError(t, err)
			_, err = dec.Decrypt(7, sealed)
			assert.ErrorIs(t, err, ErrDecryptPacket)
		})
	}
}

func TestChaCha20Poly1305SequenceBinding(t *testing.T) {
	enc, dec := testPair(t, NameChaCha20Poly1305)

	sealed, err := enc.Encrypt(1, testFrame(make([]byte, 12)))
	require.NoError(t, err)

	_, err = dec.Decrypt(2, sealed)
	assert.ErrorIs(t, err, ErrDecryptPacket)
}

func TestGCMInvocationCounter(t *testing.T) {
	enc, _ := testPair(t, NameAES128GCM)
	frame := testFrame(make([]byte, 12))

	first, err := enc.Encrypt(0, frame)
	require.NoError(t, err)
	second, err := enc.Encrypt(0, frame)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCipherZero(t *testing.T) {
	for _, name := range All() {
		name := name
		t.Run(name, func(t *testing.T) {
			c, _ := testPair(t, name)
			_, err := c.Encrypt(0, testFrame(make([]byte, 12)))
			require.NoError(t, err)

			c.Zero()
			switch c := c.(type) {
			case *ChaCha20Poly1305:
				assert.Equal(t, ChaCha20Poly1305{}, *c)
			case *GCM:
				assert.Equal(t, GCM{}, *c)
			case *CTR:
				assert.Equal(t, CTR{}, *c)
			case None:
			default:
				t.Fatalf("unexpected cipher %T", c)
			}
		})
	}
}

func TestForName(t *testing.T) {
	_, err := ForName("blowfish-cbc")
	assert.ErrorIs(t, err, errUnknownCipher)

	suite, err := ForName(NameAES256CTR)
	require.NoError(t, err)
	assert.Equal(t, NameAES256CTR, suite.String())
	assert.False(t, suite.AEAD())

	_, err = suite.New(make([]byte, 16), make([]byte, 16))
	assert.ErrorIs(t, err, errInvalidKeyLength)

	assert.NotContains(t, Default(), NameNone)
	assert.Contains(t, All(), NameNone)
}

func FuzzChaCha20Poly1305RoundTrip(f *testing.F) {
	f.Add([]byte("x"), uint32(0))
	f.Add(make([]byte, 2048), uint32(0xffffffff))

	f.Fuzz(func(t *testing.T, body []byte, seq uint32) {
		if len(body) > 1<<14 {
			body = body[:1<<14]
		}
		enc, dec := testPair(t, NameChaCha20Poly1305)
		frame := testFrame(body)

		sealed, err := enc.Encrypt(seq, frame)
		require.NoError(t, err)
		plain, err := dec.Decrypt(seq, sealed)
		require.NoError(t, err)
		require.Equal(t, frame, plain)
	})
}
