// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package hostkey

import (
	"crypto/dsa" //nolint:staticcheck
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

const rsaBits = 2048

// Generate creates a fresh key usable under format. It backs ephemeral
// servers and tests, long lived servers load their keys instead.
func Generate(format string, rand io.Reader) (Record, error) {
	var (
		key any
		err error
	)
	switch format {
	case FormatED25519:
		_, key, err = ed25519.GenerateKey(rand)
	case FormatECDSA256:
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand)
	case FormatECDSA384:
		key, err = ecdsa.GenerateKey(elliptic.P384(), rand)
	case FormatECDSA521:
		key, err = ecdsa.GenerateKey(elliptic.P521(), rand)
	case FormatRSASHA512, FormatRSASHA256, FormatRSA:
		key, err = rsa.GenerateKey(rand, rsaBits)
	case FormatDSS:
		key, err = generateDSA(rand)
	default:
		return Record{}, fmt.Errorf("%w: %s", errUnknownFormat, format)
	}
	if err != nil {
		return Record{}, err
	}

	signer, err := ssh.NewSignerFromKey(key)
	if err != nil {
		return Record{}, err
	}

	return NewRecord(format, signer)
}

func generateDSA(rand io.Reader) (*dsa.PrivateKey, error) {
	priv := &dsa.PrivateKey{}
	if err := dsa.GenerateParameters(&priv.Parameters, rand, dsa.L1024N160); err != nil {
		return nil, err
	}
	if err := dsa.GenerateKey(priv, rand); err != nil {
		return nil, err
	}

	return priv, nil
}
