// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package commands

import (
	"crypto/rand"
	"os"

	"github.com/pion/sshtransport/pkg/crypto/hostkey"
	"golang.org/x/crypto/ssh"
)

// loadHostKeys reads an OpenSSH or PEM private key from path. Without a
// path a fresh ed25519 key is generated for this run only.
func loadHostKeys(path string) ([]hostkey.Record, error) {
	if path == "" {
		record, err := hostkey.Generate(hostkey.FormatED25519, rand.Reader)
		if err != nil {
			return nil, err
		}

		return []hostkey.Record{record}, nil
	}

	pemBytes, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, err
	}

	return hostkey.RecordsFromSigner(signer), nil
}

// fingerprint formats a host key the way OpenSSH prints it.
func fingerprint(record hostkey.Record) string {
	return ssh.FingerprintSHA256(record.Signer.PublicKey())
}
