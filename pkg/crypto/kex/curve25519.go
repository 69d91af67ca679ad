// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package kex

import (
	"crypto"
	_ "crypto/sha256" // register SHA-256
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// https://tools.ietf.org/html/rfc8731
type curve25519Method struct {
	name string
}

func (m *curve25519Method) Name() string { return m.name }

func (m *curve25519Method) Hash() crypto.Hash { return crypto.SHA256 }

func (m *curve25519Method) GenerateKeypair(rand io.Reader) (*Keypair, error) {
	scalar := make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(rand, scalar); err != nil {
		return nil, err
	}

	public, err := curve25519.X25519(scalar, curve25519.Basepoint)
	if err != nil {
		return nil, err
	}

	return &Keypair{PublicKey: public, scalar: scalar}, nil
}

// SharedSecret rejects peer points of small order, X25519 reports them as
// an all zero output.
func (m *curve25519Method) SharedSecret(kp *Keypair, peerPublic []byte) ([]byte, error) {
	if kp == nil || kp.scalar == nil {
		return nil, errKeypairMismatch
	}
	if len(peerPublic) != curve25519.PointSize {
		return nil, errInvalidPublicValue
	}

	secret, err := curve25519.X25519(kp.scalar, peerPublic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidPublicValue, err) //nolint:errorlint
	}

	return secret, nil
}
