// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"io"

	"github.com/pion/logging"
	"github.com/pion/sshtransport/pkg/crypto/hostkey"
	"github.com/pion/sshtransport/pkg/protocol/disconnect"
)

// ServerOption configures a server.
type ServerOption interface {
	applyServer(*transportConfig) error
}

// ClientOption configures a client.
type ClientOption interface {
	applyClient(*transportConfig) error
}

// Option is an option that can be used with both client and server.
type Option interface {
	ServerOption
	ClientOption
}

// defensiveCopy copies a slice. This prevents the caller from mutating
// the config after construction. Returns empty slice if input is empty.
func defensiveCopy[T any](t ...T) []T {
	return append([]T{}, t...)
}

// transportConfig collects option values before they are turned into a Config.
type transportConfig struct {
	hostKeys            []hostkey.Record
	hostKeyAlgorithms   []string
	keyExchanges        []string
	ciphers             []string
	macs                []string
	compressions        []string
	hostKeyCallback     HostKeyCallback
	softwareVersion     string
	maxPacketSize       int
	rekeyThreshold      uint64
	onHandshakeComplete func(Algorithms)
	onDisconnect        func(disconnect.Reason, string)
	onFatalError        func(error)
	loggerFactory       logging.LoggerFactory
	rand                io.Reader
}

// applyDefaults applies default values to the config.
func (c *transportConfig) applyDefaults() {
	c.softwareVersion = defaultSoftwareVersion
	c.maxPacketSize = DefaultMaxPacketSize
}

// toConfig converts transportConfig to the exported Config struct.
// All slice fields are copied to ensure immutability.
func (c *transportConfig) toConfig() *Config {
	config := &Config{
		HostKeyCallback:     c.hostKeyCallback,
		SoftwareVersion:     c.softwareVersion,
		MaxPacketSize:       c.maxPacketSize,
		RekeyThreshold:      c.rekeyThreshold,
		OnHandshakeComplete: c.onHandshakeComplete,
		OnDisconnect:        c.onDisconnect,
		OnFatalError:        c.onFatalError,
		LoggerFactory:       c.loggerFactory,
		Rand:                c.rand,
	}

	if len(c.hostKeys) > 0 {
		config.HostKeys = append([]hostkey.Record(nil), c.hostKeys...)
	}
	if len(c.hostKeyAlgorithms) > 0 {
		config.HostKeyAlgorithms = append([]string(nil), c.hostKeyAlgorithms...)
	}
	if len(c.keyExchanges) > 0 {
		config.KeyExchanges = append([]string(nil), c.keyExchanges...)
	}
	if len(c.ciphers) > 0 {
		config.Ciphers = append([]string(nil), c.ciphers...)
	}
	if len(c.macs) > 0 {
		config.MACs = append([]string(nil), c.macs...)
	}
	if len(c.compressions) > 0 {
		config.Compressions = append([]string(nil), c.compressions...)
	}

	return config
}

// buildServerConfig builds a Config for server from the provided options.
func buildServerConfig(opts ...ServerOption) (*Config, error) {
	cfg := &transportConfig{}
	cfg.applyDefaults()

	for _, opt := range opts {
		if err := opt.applyServer(cfg); err != nil {
			return nil, err
		}
	}

	return cfg.toConfig(), nil
}

// buildClientConfig builds a Config for client from the provided options.
func buildClientConfig(opts ...ClientOption) (*Config, error) {
	cfg := &transportConfig{}
	cfg.applyDefaults()

	for _, opt := range opts {
		if err := opt.applyClient(cfg); err != nil {
			return nil, err
		}
	}

	return cfg.toConfig(), nil
}

// sharedOption wraps an apply function that works for both client and server.
type sharedOption func(*transportConfig) error

func (o sharedOption) applyServer(c *transportConfig) error { return o(c) }
func (o sharedOption) applyClient(c *transportConfig) error { return o(c) }

// WithKeyExchanges sets the key exchange methods in order of preference.
// For functional options, an explicitly empty slice is not allowed.
func WithKeyExchanges(names ...string) Option {
	return sharedOption(func(c *transportConfig) error {
		if len(names) == 0 {
			return errEmptyAlgorithmList
		}
		c.keyExchanges = defensiveCopy(names...)

		return nil
	})
}

// WithCiphers sets the ciphers in order of preference, for both directions.
// For functional options, an explicitly empty slice is not allowed.
func WithCiphers(names ...string) Option {
	return sharedOption(func(c *transportConfig) error {
		if len(names) == 0 {
			return errEmptyAlgorithmList
		}
		c.ciphers = defensiveCopy(names...)

		return nil
	})
}

// WithMACs sets the MACs in order of preference, for both directions.
// For functional options, an explicitly empty slice is not allowed.
func WithMACs(names ...string) Option {
	return sharedOption(func(c *transportConfig) error {
		if len(names) == 0 {
			return errEmptyAlgorithmList
		}
		c.macs = defensiveCopy(names...)

		return nil
	})
}

// WithCompressions sets the compression methods in order of preference.
// For functional options, an explicitly empty slice is not allowed.
func WithCompressions(names ...string) Option {
	return sharedOption(func(c *transportConfig) error {
		if len(names) == 0 {
			return errEmptyAlgorithmList
		}
		c.compressions = defensiveCopy(names...)

		return nil
	})
}

// WithSoftwareVersion sets the software field of the identification line.
func WithSoftwareVersion(version string) Option {
	return sharedOption(func(c *transportConfig) error {
		c.softwareVersion = version

		return nil
	})
}

// WithMaxPacketSize sets the largest packet length accepted from the peer.
// Returns an error if the size is below MinMaxPacketSize.
func WithMaxPacketSize(size int) Option {
	return sharedOption(func(c *transportConfig) error {
		if size < MinMaxPacketSize {
			return errInvalidMaxPacketSize
		}
		c.maxPacketSize = size

		return nil
	})
}

// WithRekeyThreshold sets the number of bytes written after which a new
// key exchange starts. Zero disables automatic rekeying.
func WithRekeyThreshold(bytes uint64) Option {
	return sharedOption(func(c *transportConfig) error {
		c.rekeyThreshold = bytes

		return nil
	})
}

// WithOnHandshakeComplete sets the handshake completion callback.
func WithOnHandshakeComplete(fn func(Algorithms)) Option {
	return sharedOption(func(c *transportConfig) error {
		c.onHandshakeComplete = fn

		return nil
	})
}

// WithOnDisconnect sets the callback for disconnects sent by the peer.
func WithOnDisconnect(fn func(disconnect.Reason, string)) Option {
	return sharedOption(func(c *transportConfig) error {
		c.onDisconnect = fn

		return nil
	})
}

// WithOnFatalError sets the fatal error callback.
func WithOnFatalError(fn func(error)) Option {
	return sharedOption(func(c *transportConfig) error {
		c.onFatalError = fn

		return nil
	})
}

// WithLoggerFactory sets the logger factory for creating loggers.
// Returns an error if the factory is nil.
func WithLoggerFactory(factory logging.LoggerFactory) Option {
	return sharedOption(func(c *transportConfig) error {
		if factory == nil {
			return errNilLoggerFactory
		}
		c.loggerFactory = factory

		return nil
	})
}

// WithRand sets the entropy source.
// Returns an error if the reader is nil.
func WithRand(rand io.Reader) Option {
	return sharedOption(func(c *transportConfig) error {
		if rand == nil {
			return errNilRand
		}
		c.rand = rand

		return nil
	})
}

// serverOnlyOption wraps an apply function for server-only options.
type serverOnlyOption func(*transportConfig) error

func (o serverOnlyOption) applyServer(c *transportConfig) error { return o(c) }

// WithHostKeys sets the keys the server signs with. Their formats are the
// host key algorithms the server offers, in order.
// This option is only applicable to servers.
func WithHostKeys(records ...hostkey.Record) ServerOption {
	return serverOnlyOption(func(c *transportConfig) error {
		if len(records) == 0 {
			return errNoHostKeys
		}
		c.hostKeys = defensiveCopy(records...)

		return nil
	})
}

// clientOnlyOption wraps an apply function for client-only options.
type clientOnlyOption func(*transportConfig) error

func (o clientOnlyOption) applyClient(c *transportConfig) error { return o(c) }

// WithHostKeyAlgorithms sets the host key formats the client accepts, in
// order of preference.
// This option is only applicable to clients.
func WithHostKeyAlgorithms(formats ...string) ClientOption {
	return clientOnlyOption(func(c *transportConfig) error {
		if len(formats) == 0 {
			return errEmptyAlgorithmList
		}
		c.hostKeyAlgorithms = defensiveCopy(formats...)

		return nil
	})
}

// WithHostKeyCallback sets the callback that decides whether the server's
// host key is trusted. Returns an error if the callback is nil.
// This option is only applicable to clients.
func WithHostKeyCallback(fn HostKeyCallback) ClientOption {
	return clientOnlyOption(func(c *transportConfig) error {
		if fn == nil {
			return errNilHostKeyCallback
		}
		c.hostKeyCallback = fn

		return nil
	})
}
