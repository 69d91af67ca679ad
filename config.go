// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"crypto/rand"
	"io"

	"github.com/pion/logging"
	"github.com/pion/sshtransport/pkg/crypto/hostkey"
	"github.com/pion/sshtransport/pkg/protocol"
	"github.com/pion/sshtransport/pkg/protocol/disconnect"
	"golang.org/x/crypto/ssh"
)

const (
	defaultSoftwareVersion = "pion"
	// DefaultMaxPacketSize is the decode limit used when MaxPacketSize is zero.
	DefaultMaxPacketSize = 256 * 1024
	// MinMaxPacketSize is the smallest packet every implementation must accept.
	//
	// https://tools.ietf.org/html/rfc4253#section-6.1
	MinMaxPacketSize = 35000

	// Worst case framing overhead: length, padding length, two blocks of
	// padding and the largest tag.
	packetOverhead = 4 + 1 + 2*32 + 64
)

// HostKeyCallback is called by the client once the server's signature over
// the exchange hash has verified. Returning an error aborts the connection.
type HostKeyCallback func(format string, key ssh.PublicKey) error

// Config is used to configure a client or server.
// After a Config is passed to a constructor it must not be modified.
type Config struct {
	// HostKeys are the keys a server signs the exchange hash with. The
	// server offers exactly their formats, in order. Server MUST set this.
	HostKeys []hostkey.Record

	// HostKeyAlgorithms is the ordered list of host key formats a client
	// accepts. When empty every supported format is accepted, see
	// hostkey.DefaultFormats.
	HostKeyAlgorithms []string

	// KeyExchanges, Ciphers, MACs and Compressions are ordered preference
	// lists. Empty lists use the package defaults.
	KeyExchanges []string
	Ciphers      []string
	MACs         []string
	Compressions []string

	// HostKeyCallback lets a client reject a correctly signed host key it
	// does not trust.
	HostKeyCallback HostKeyCallback

	// SoftwareVersion is the software field of the identification line.
	SoftwareVersion string

	// MaxPacketSize bounds the length field of incoming packets.
	MaxPacketSize int

	// RekeyThreshold starts a new key exchange after this many bytes have
	// been written since the last one. Zero disables automatic rekeying.
	RekeyThreshold uint64

	// OnHandshakeComplete is called each time a key exchange completes.
	OnHandshakeComplete func(Algorithms)

	// OnDisconnect is called when the peer sends a disconnect. Disconnects
	// sent by this side are never reported here.
	OnDisconnect func(reason disconnect.Reason, description string)

	// OnFatalError is called at most once, when the connection fails.
	// ErrorKindOf classifies the error.
	OnFatalError func(error)

	LoggerFactory logging.LoggerFactory

	// Rand is the entropy source for cookies, padding and ephemeral keys.
	Rand io.Reader
}

// engineConfig is a validated Config with every default resolved.
type engineConfig struct {
	isClient            bool
	preferences         Preferences
	hostKeys            []hostkey.Record
	hostKeyCallback     HostKeyCallback
	identification      protocol.Identification
	maxPacketSize       int
	rekeyThreshold      uint64
	onHandshakeComplete func(Algorithms)
	onDisconnect        func(disconnect.Reason, string)
	onFatalError        func(error)
	loggerFactory       logging.LoggerFactory
	rand                io.Reader
}

func newEngineConfig(config *Config, isClient bool) (*engineConfig, error) {
	if err := validateConfig(config, isClient); err != nil {
		return nil, err
	}

	cfg := &engineConfig{
		isClient:            isClient,
		hostKeys:            defensiveCopy(config.HostKeys...),
		hostKeyCallback:     config.HostKeyCallback,
		identification:      protocol.Identification{SoftwareVersion: config.SoftwareVersion},
		maxPacketSize:       config.MaxPacketSize,
		rekeyThreshold:      config.RekeyThreshold,
		onHandshakeComplete: config.OnHandshakeComplete,
		onDisconnect:        config.OnDisconnect,
		onFatalError:        config.OnFatalError,
		loggerFactory:       config.LoggerFactory,
		rand:                config.Rand,
	}
	cfg.preferences = Preferences{
		KeyExchanges: orDefault(config.KeyExchanges, DefaultKeyExchanges),
		Ciphers:      orDefault(config.Ciphers, DefaultCiphers),
		MACs:         orDefault(config.MACs, DefaultMACs),
		Compressions: orDefault(config.Compressions, DefaultCompressions),
	}
	if isClient {
		cfg.preferences.HostKeyAlgorithms = orDefault(config.HostKeyAlgorithms, hostkey.DefaultFormats)
	} else {
		cfg.preferences.HostKeyAlgorithms = hostkey.Formats(cfg.hostKeys)
	}

	if cfg.identification.SoftwareVersion == "" {
		cfg.identification.SoftwareVersion = defaultSoftwareVersion
	}
	if cfg.maxPacketSize == 0 {
		cfg.maxPacketSize = DefaultMaxPacketSize
	}
	if cfg.loggerFactory == nil {
		cfg.loggerFactory = logging.NewDefaultLoggerFactory()
	}
	if cfg.rand == nil {
		cfg.rand = rand.Reader
	}

	return cfg, nil
}

func orDefault(list []string, defaults func() []string) []string {
	if len(list) == 0 {
		return defaults()
	}

	return defensiveCopy(list...)
}
