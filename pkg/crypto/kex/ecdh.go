// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package kex

import (
	"crypto"
	"crypto/ecdh"
	_ "crypto/sha512" // register SHA-384 and SHA-512
	"fmt"
	"io"
)

// ecdhMethod is ECDH over a NIST curve. Public values are SEC1
// uncompressed points, the shared secret is the x coordinate.
//
// https://tools.ietf.org/html/rfc5656#section-4
type ecdhMethod struct {
	name  string
	curve ecdh.Curve
	hash  crypto.Hash
}

func (m *ecdhMethod) Name() string { return m.name }

func (m *ecdhMethod) Hash() crypto.Hash { return m.hash }

func (m *ecdhMethod) GenerateKeypair(rand io.Reader) (*Keypair, error) {
	sk, err := m.curve.GenerateKey(rand)
	if err != nil {
		return nil, err
	}

	return &Keypair{PublicKey: sk.PublicKey().Bytes(), ecdh: sk}, nil
}

func (m *ecdhMethod) SharedSecret(kp *Keypair, peerPublic []byte) ([]byte, error) {
	if kp == nil || kp.ecdh == nil || kp.ecdh.Curve() != m.curve {
		return nil, errKeypairMismatch
	}

	pk, err := m.curve.NewPublicKey(peerPublic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidPublicValue, err) //nolint:errorlint
	}

	secret, err := kp.ecdh.ECDH(pk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidPublicValue, err) //nolint:errorlint
	}

	return secret, nil
}
