// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package ciphersuite provides the packet ciphers that can be negotiated
package ciphersuite

import (
	"errors"
	"fmt"

	"github.com/pion/sshtransport/pkg/protocol"
)

var (
	//nolint:err113
	errUnknownCipher = errors.New("unknown cipher")
	//nolint:err113
	errInvalidKeyLength = &protocol.InternalError{Err: errors.New("invalid key or iv length")}
	//nolint:err113
	errShortFrame = &protocol.FatalError{Err: errors.New("frame is shorter than the cipher requires")}
)

// ErrDecryptPacket is returned when an authenticated cipher rejects a frame.
var ErrDecryptPacket = &protocol.FatalError{Err: errors.New("failed to decrypt packet")} //nolint:err113

// Cipher names.
const (
	NameChaCha20Poly1305 = "chacha20-poly1305@openssh.com"
	NameAES128GCM        = "aes128-gcm@openssh.com"
	NameAES256GCM        = "aes256-gcm@openssh.com"
	NameAES128CTR        = "aes128-ctr"
	NameAES192CTR        = "aes192-ctr"
	NameAES256CTR        = "aes256-ctr"
	NameNone             = "none"
)

// Cipher protects a single direction of the packet stream. Implementations
// carry per-direction state (stream position, invocation counter) and must
// not be shared between directions.
//
// A frame is the 4-byte packet length followed by the padding length,
// payload and padding. Encrypt returns the frame as sent on the wire,
// authentication tag included for AEAD ciphers.
type Cipher interface {
	// BlockSize is the alignment the padded frame must honor.
	BlockSize() int
	// FirstBlockSize is the number of bytes needed to learn the packet length.
	FirstBlockSize() int
	// TagSize is the length of the authentication tag appended by AEAD ciphers.
	TagSize() int
	// AEAD reports whether the cipher authenticates the packet itself. For
	// AEAD ciphers the length field is not covered by the padding alignment.
	AEAD() bool

	// DecryptLength returns the packet length from the first FirstBlockSize
	// bytes. It is called exactly once per packet.
	DecryptLength(seq uint32, first []byte) (uint32, error)
	Decrypt(seq uint32, frame []byte) ([]byte, error)
	Encrypt(seq uint32, frame []byte) ([]byte, error)

	// Zero wipes the key material held by the cipher. The cipher must not
	// be used afterwards.
	Zero()
}

// Suite describes a cipher by name and builds directional instances of it.
type Suite struct {
	name    string
	keyLen  int
	ivLen   int
	aead    bool
	newFunc func(key, iv []byte) (Cipher, error)
}

// Name returns the negotiated identifier.
func (s *Suite) Name() string { return s.name }

// KeyLen returns the key length in bytes.
func (s *Suite) KeyLen() int { return s.keyLen }

// IVLen returns the initial vector length in bytes.
func (s *Suite) IVLen() int { return s.ivLen }

// AEAD reports whether the cipher provides its own integrity, in which
// case the negotiated MAC is not used.
func (s *Suite) AEAD() bool { return s.aead }

// New returns a cipher for one direction.
func (s *Suite) New(key, iv []byte) (Cipher, error) {
	if len(key) != s.keyLen || len(iv) != s.ivLen {
		return nil, errInvalidKeyLength
	}

	return s.newFunc(key, iv)
}

func (s *Suite) String() string {
	return s.name
}

// ForName returns the Suite registered under name.
func ForName(name string) (*Suite, error) {
	switch name {
	case NameChaCha20Poly1305:
		return &Suite{name, chachaKeyLength, 0, true, newChaCha20Poly1305}, nil
	case NameAES128GCM:
		return &Suite{name, 16, gcmIVLength, true, newGCM}, nil
	case NameAES256GCM:
		return &Suite{name, 32, gcmIVLength, true, newGCM}, nil
	case NameAES128CTR:
		return &Suite{name, 16, ctrIVLength, false, newCTR}, nil
	case NameAES192CTR:
		return &Suite{name, 24, ctrIVLength, false, newCTR}, nil
	case NameAES256CTR:
		return &Suite{name, 32, ctrIVLength, false, newCTR}, nil
	case NameNone:
		return &Suite{name, 0, 0, false, func([]byte, []byte) (Cipher, error) { return None{}, nil }}, nil
	}

	return nil, fmt.Errorf("%w: %s", errUnknownCipher, name)
}

// Default returns the ciphers offered when none are configured, most
// preferred first.
func Default() []string {
	return []string{
		NameChaCha20Poly1305,
		NameAES128GCM,
		NameAES256GCM,
		NameAES128CTR,
		NameAES192CTR,
		NameAES256CTR,
	}
}

// All returns every supported cipher, "none" included.
func All() []string {
	return append(Default(), NameNone)
}
