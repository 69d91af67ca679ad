// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package kex

import (
	"crypto"

	"github.com/pion/sshtransport/internal/util"
	"golang.org/x/crypto/cryptobyte"
)

// Key derivation letters.
//
// https://tools.ietf.org/html/rfc4253#section-7.2
const (
	LetterIVClientServer  byte = 'A'
	LetterIVServerClient  byte = 'B'
	LetterKeyClientServer byte = 'C'
	LetterKeyServerClient byte = 'D'
	LetterMACClientServer byte = 'E'
	LetterMACServerClient byte = 'F'
)

// Transcript holds the inputs of the exchange hash. Versions are the
// identification lines without CRLF, KexInits are the full payloads as
// sent, Secret is the unsigned magnitude of K.
type Transcript struct {
	ClientVersion []byte
	ServerVersion []byte
	ClientKexInit []byte
	ServerKexInit []byte
	HostKey       []byte
	ClientPublic  []byte
	ServerPublic  []byte
	Secret        []byte
}

// ExchangeHash computes H = HASH(V_C || V_S || I_C || I_S || K_S || e || f || K).
func ExchangeHash(h crypto.Hash, t *Transcript) []byte {
	var b cryptobyte.Builder
	util.AddString(&b, t.ClientVersion)
	util.AddString(&b, t.ServerVersion)
	util.AddString(&b, t.ClientKexInit)
	util.AddString(&b, t.ServerKexInit)
	util.AddString(&b, t.HostKey)
	util.AddString(&b, t.ClientPublic)
	util.AddString(&b, t.ServerPublic)
	util.AddMPInt(&b, t.Secret)

	hasher := h.New()
	hasher.Write(b.BytesOrPanic())

	return hasher.Sum(nil)
}

// DeriveKey returns length bytes of key material for letter. Output
// longer than one digest is extended with HASH(K || H || K1 || K2 ...).
func DeriveKey(h crypto.Hash, secret, exchangeHash []byte, letter byte, sessionID []byte, length int) []byte {
	var kb cryptobyte.Builder
	util.AddMPInt(&kb, secret)
	k := kb.BytesOrPanic()

	hasher := h.New()
	hasher.Write(k)
	hasher.Write(exchangeHash)
	hasher.Write([]byte{letter})
	hasher.Write(sessionID)
	out := hasher.Sum(nil)

	for len(out) < length {
		hasher.Reset()
		hasher.Write(k)
		hasher.Write(exchangeHash)
		hasher.Write(out)
		out = hasher.Sum(out)
	}

	for i := range k {
		k[i] = 0
	}

	return out[:length]
}
