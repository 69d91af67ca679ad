// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"fmt"

	"github.com/pion/sshtransport/pkg/crypto/ciphersuite"
	"github.com/pion/sshtransport/pkg/crypto/compression"
	"github.com/pion/sshtransport/pkg/crypto/kex"
	"github.com/pion/sshtransport/pkg/crypto/mac"
	"github.com/pion/sshtransport/pkg/protocol/handshake"
)

// Negotiation categories, used in errors and logs.
const (
	categoryKeyExchange = "key exchange"
	categoryHostKey     = "host key"
	categoryCipher      = "cipher"
	categoryMAC         = "mac"
	categoryCompression = "compression"
)

// DefaultKeyExchanges returns the key exchange methods offered when none
// are configured.
func DefaultKeyExchanges() []string { return kex.Default() }

// DefaultCiphers returns the ciphers offered when none are configured.
func DefaultCiphers() []string { return ciphersuite.Default() }

// DefaultMACs returns the MACs offered when none are configured.
func DefaultMACs() []string { return mac.Default() }

// DefaultCompressions returns the compression methods offered when none
// are configured.
func DefaultCompressions() []string { return compression.Default() }

// Algorithms is the result of a negotiation, one winner per category.
// MACClientServer and MACServerClient are empty when the cipher of that
// direction authenticates packets itself.
type Algorithms struct {
	KeyExchange             string
	HostKey                 string
	CipherClientServer      string
	CipherServerClient      string
	MACClientServer         string
	MACServerClient         string
	CompressionClientServer string
	CompressionServerClient string
}

func (a Algorithms) String() string {
	return fmt.Sprintf("kex=%s hostkey=%s cipher=%s/%s mac=%s/%s compression=%s/%s",
		a.KeyExchange, a.HostKey,
		a.CipherClientServer, a.CipherServerClient,
		a.MACClientServer, a.MACServerClient,
		a.CompressionClientServer, a.CompressionServerClient,
	)
}

// Preferences are the ordered lists one side announces. The same cipher,
// MAC and compression lists are offered for both directions.
type Preferences struct {
	KeyExchanges      []string
	HostKeyAlgorithms []string
	Ciphers           []string
	MACs              []string
	Compressions      []string
}

func (p Preferences) kexInit(cookie [handshake.CookieLength]byte) *handshake.MessageKexInit {
	return &handshake.MessageKexInit{
		Cookie:                   cookie,
		KeyExchanges:             p.KeyExchanges,
		HostKeyAlgorithms:        p.HostKeyAlgorithms,
		CiphersClientServer:      p.Ciphers,
		CiphersServerClient:      p.Ciphers,
		MACsClientServer:         p.MACs,
		MACsServerClient:         p.MACs,
		CompressionsClientServer: p.Compressions,
		CompressionsServerClient: p.Compressions,
	}
}

// selectAlgorithm walks the client's list in order and returns the first
// entry the server also lists.
func selectAlgorithm(category string, client, server []string) (string, error) {
	for _, c := range client {
		for _, s := range server {
			if c == s {
				return c, nil
			}
		}
	}

	return "", fmt.Errorf("%w: no common %s", ErrNegotiationFailed, category)
}

// negotiate resolves every category from the two announcements. Both peers
// call it with the same arguments and reach the same result.
func negotiate(client, server *handshake.MessageKexInit) (Algorithms, error) {
	var (
		algs Algorithms
		err  error
	)

	if algs.KeyExchange, err = selectAlgorithm(categoryKeyExchange, client.KeyExchanges, server.KeyExchanges); err != nil {
		return Algorithms{}, err
	}
	if algs.HostKey, err = selectAlgorithm(categoryHostKey, client.HostKeyAlgorithms, server.HostKeyAlgorithms); err != nil {
		return Algorithms{}, err
	}
	if algs.CipherClientServer, err = selectAlgorithm(
		categoryCipher, client.CiphersClientServer, server.CiphersClientServer,
	); err != nil {
		return Algorithms{}, err
	}
	if algs.CipherServerClient, err = selectAlgorithm(
		categoryCipher, client.CiphersServerClient, server.CiphersServerClient,
	); err != nil {
		return Algorithms{}, err
	}
	if algs.MACClientServer, err = selectMAC(
		algs.CipherClientServer, client.MACsClientServer, server.MACsClientServer,
	); err != nil {
		return Algorithms{}, err
	}
	if algs.MACServerClient, err = selectMAC(
		algs.CipherServerClient, client.MACsServerClient, server.MACsServerClient,
	); err != nil {
		return Algorithms{}, err
	}
	if algs.CompressionClientServer, err = selectAlgorithm(
		categoryCompression, client.CompressionsClientServer, server.CompressionsClientServer,
	); err != nil {
		return Algorithms{}, err
	}
	if algs.CompressionServerClient, err = selectAlgorithm(
		categoryCompression, client.CompressionsServerClient, server.CompressionsServerClient,
	); err != nil {
		return Algorithms{}, err
	}

	return algs, nil
}

// selectMAC skips the MAC lists when the cipher is AEAD.
func selectMAC(cipher string, client, server []string) (string, error) {
	suite, err := ciphersuite.ForName(cipher)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNegotiationFailed, err)
	}
	if suite.AEAD() {
		return "", nil
	}

	return selectAlgorithm(categoryMAC, client, server)
}
