// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pion/sshtransport/pkg/crypto/ciphersuite"
	"github.com/pion/sshtransport/pkg/crypto/hostkey"
	"github.com/pion/sshtransport/pkg/crypto/kex"
	"github.com/pion/sshtransport/pkg/crypto/mac"
	"github.com/pion/sshtransport/pkg/protocol/handshake"
	"golang.org/x/crypto/ssh"
)

// directionAlgorithms are the negotiated names protecting one direction.
type directionAlgorithms struct {
	cipher      string
	mac         string
	compression string
}

func (a Algorithms) clientServer() directionAlgorithms {
	return directionAlgorithms{a.CipherClientServer, a.MACClientServer, a.CompressionClientServer}
}

func (a Algorithms) serverClient() directionAlgorithms {
	return directionAlgorithms{a.CipherServerClient, a.MACServerClient, a.CompressionServerClient}
}

// keyExchange is a single run of the negotiated method. The client sends
// its public value, the server answers with its own, its host key and a
// signature over the exchange hash.
type keyExchange struct {
	method       kex.Method
	keypair      *kex.Keypair
	transcript   kex.Transcript
	secret       []byte
	exchangeHash []byte
}

func newKeyExchange(name string, transcript kex.Transcript) (*keyExchange, error) {
	method, err := kex.ForName(name)
	if err != nil {
		return nil, &InternalError{Err: err}
	}

	return &keyExchange{method: method, transcript: transcript}, nil
}

// clientInit generates the client's ephemeral keypair.
func (k *keyExchange) clientInit(rand io.Reader) (*handshake.MessageKexExchangeInit, error) {
	kp, err := k.method.GenerateKeypair(rand)
	if err != nil {
		return nil, err
	}
	k.keypair = kp
	k.transcript.ClientPublic = kp.PublicKey

	return &handshake.MessageKexExchangeInit{PublicKey: kp.PublicKey}, nil
}

// serverReply answers the client's public value and signs the exchange
// hash with record.
func (k *keyExchange) serverReply(
	rand io.Reader, record hostkey.Record, msg *handshake.MessageKexExchangeInit,
) (*handshake.MessageKexReply, error) {
	kp, err := k.method.GenerateKeypair(rand)
	if err != nil {
		return nil, err
	}
	k.keypair = kp

	secret, err := k.method.SharedSecret(kp, msg.PublicKey)
	if err != nil {
		return nil, protocolViolation(err)
	}
	k.secret = secret

	k.transcript.HostKey = record.PublicKey()
	k.transcript.ClientPublic = msg.PublicKey
	k.transcript.ServerPublic = kp.PublicKey
	k.transcript.Secret = secret
	k.exchangeHash = kex.ExchangeHash(k.method.Hash(), &k.transcript)

	sig, err := record.Sign(rand, k.exchangeHash)
	if err != nil {
		return nil, &InternalError{Err: err}
	}

	return &handshake.MessageKexReply{
		HostKey:   k.transcript.HostKey,
		PublicKey: kp.PublicKey,
		Signature: sig,
	}, nil
}

// clientFinish computes the shared secret from the server's reply and
// verifies the signature in the negotiated host key format.
func (k *keyExchange) clientFinish(format string, msg *handshake.MessageKexReply) (ssh.PublicKey, error) {
	if k.keypair == nil {
		return nil, errUnexpectedMessage
	}

	secret, err := k.method.SharedSecret(k.keypair, msg.PublicKey)
	if err != nil {
		return nil, protocolViolation(err)
	}
	k.secret = secret

	k.transcript.HostKey = msg.HostKey
	k.transcript.ServerPublic = msg.PublicKey
	k.transcript.Secret = secret
	k.exchangeHash = kex.ExchangeHash(k.method.Hash(), &k.transcript)

	pub, err := hostkey.Verify(format, msg.HostKey, k.exchangeHash, msg.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureVerification, err) //nolint:errorlint
	}

	return pub, nil
}

// deriveKeys computes the key material of both directions.
func (k *keyExchange) deriveKeys(algs Algorithms, sessionID []byte) (clientServer, serverClient *directionKeys, err error) {
	clientServer, err = k.deriveDirection(algs.clientServer(), sessionID,
		kex.LetterIVClientServer, kex.LetterKeyClientServer, kex.LetterMACClientServer)
	if err != nil {
		return nil, nil, err
	}
	serverClient, err = k.deriveDirection(algs.serverClient(), sessionID,
		kex.LetterIVServerClient, kex.LetterKeyServerClient, kex.LetterMACServerClient)
	if err != nil {
		clientServer.zero()

		return nil, nil, err
	}

	if equalMaterial(clientServer.key, serverClient.key) ||
		equalMaterial(clientServer.iv, serverClient.iv) ||
		equalMaterial(clientServer.macKey, serverClient.macKey) {
		clientServer.zero()
		serverClient.zero()

		return nil, nil, errDirectionalKeyReuse
	}

	return clientServer, serverClient, nil
}

func (k *keyExchange) deriveDirection(
	algs directionAlgorithms, sessionID []byte, ivLetter, keyLetter, macLetter byte,
) (*directionKeys, error) {
	suite, err := ciphersuite.ForName(algs.cipher)
	if err != nil {
		return nil, &InternalError{Err: err}
	}

	hash := k.method.Hash()
	keys := &directionKeys{
		iv:  kex.DeriveKey(hash, k.secret, k.exchangeHash, ivLetter, sessionID, suite.IVLen()),
		key: kex.DeriveKey(hash, k.secret, k.exchangeHash, keyLetter, sessionID, suite.KeyLen()),
	}
	if !suite.AEAD() {
		alg, err := mac.ForName(algs.mac)
		if err != nil {
			return nil, &InternalError{Err: err}
		}
		keys.macKey = kex.DeriveKey(hash, k.secret, k.exchangeHash, macLetter, sessionID, alg.KeyLen())
	}

	return keys, nil
}

func equalMaterial(a, b []byte) bool {
	return len(a) > 0 && bytes.Equal(a, b)
}

// zero wipes the ephemeral private key and the shared secret.
func (k *keyExchange) zero() {
	if k == nil {
		return
	}
	k.keypair.Zero()
	for i := range k.secret {
		k.secret[i] = 0
	}
	k.secret = nil
	k.transcript.Secret = nil
}
