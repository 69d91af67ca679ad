// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package kex provides the key exchange methods that can be negotiated, the
// exchange hash and the session key derivation
package kex

import (
	"crypto"
	"crypto/ecdh"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/pion/sshtransport/pkg/protocol"
)

var (
	//nolint:err113
	errUnknownKeyExchange = errors.New("unknown key exchange method")
	//nolint:err113
	errInvalidPublicValue = &protocol.FatalError{Err: errors.New("invalid key exchange public value")}
	//nolint:err113
	errKeypairMismatch = &protocol.InternalError{Err: errors.New("keypair was generated by another method")}
)

// Method names.
const (
	NameCurve25519SHA256       = "curve25519-sha256"
	NameCurve25519SHA256LibSSH = "curve25519-sha256@libssh.org"
	NameECDHP256               = "ecdh-sha2-nistp256"
	NameECDHP384               = "ecdh-sha2-nistp384"
	NameECDHP521               = "ecdh-sha2-nistp521"
	NameDHGroup16SHA512        = "diffie-hellman-group16-sha512"
	NameDHGroup14SHA256        = "diffie-hellman-group14-sha256"
	NameDHGroup14SHA1          = "diffie-hellman-group14-sha1"
)

// Method is an ephemeral key agreement. The client sends its public value
// in the exchange init message, the server answers with its own in the
// reply. Both sides then compute the same shared secret.
type Method interface {
	Name() string
	// Hash is the function used for the exchange hash and key derivation.
	Hash() crypto.Hash
	GenerateKeypair(rand io.Reader) (*Keypair, error)
	// SharedSecret returns the unsigned big-endian magnitude of K.
	SharedSecret(kp *Keypair, peerPublic []byte) ([]byte, error)
}

// Keypair is one side's ephemeral key material.
type Keypair struct {
	PublicKey []byte

	scalar []byte
	ecdh   *ecdh.PrivateKey
	dh     *big.Int
}

// Zero wipes the private half. The keypair is unusable afterwards.
func (k *Keypair) Zero() {
	if k == nil {
		return
	}
	for i := range k.scalar {
		k.scalar[i] = 0
	}
	k.scalar = nil
	k.ecdh = nil
	if k.dh != nil {
		k.dh.SetInt64(0)
		k.dh = nil
	}
}

// ForName returns the Method registered under name.
func ForName(name string) (Method, error) {
	switch name {
	case NameCurve25519SHA256, NameCurve25519SHA256LibSSH:
		return &curve25519Method{name: name}, nil
	case NameECDHP256:
		return &ecdhMethod{name: name, curve: ecdh.P256(), hash: crypto.SHA256}, nil
	case NameECDHP384:
		return &ecdhMethod{name: name, curve: ecdh.P384(), hash: crypto.SHA384}, nil
	case NameECDHP521:
		return &ecdhMethod{name: name, curve: ecdh.P521(), hash: crypto.SHA512}, nil
	case NameDHGroup16SHA512:
		return &dhMethod{name: name, group: &dhGroup16, hash: crypto.SHA512}, nil
	case NameDHGroup14SHA256:
		return &dhMethod{name: name, group: &dhGroup14, hash: crypto.SHA256}, nil
	case NameDHGroup14SHA1:
		return &dhMethod{name: name, group: &dhGroup14, hash: crypto.SHA1}, nil
	}

	return nil, fmt.Errorf("%w: %s", errUnknownKeyExchange, name)
}

// Default returns the methods offered when none are configured, most
// preferred first.
func Default() []string {
	return []string{
		NameCurve25519SHA256,
		NameCurve25519SHA256LibSSH,
		NameECDHP256,
		NameECDHP384,
		NameECDHP521,
		NameDHGroup16SHA512,
		NameDHGroup14SHA256,
		NameDHGroup14SHA1,
	}
}
