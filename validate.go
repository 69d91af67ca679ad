// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"fmt"

	"github.com/pion/sshtransport/pkg/crypto/ciphersuite"
	"github.com/pion/sshtransport/pkg/crypto/compression"
	"github.com/pion/sshtransport/pkg/crypto/hostkey"
	"github.com/pion/sshtransport/pkg/crypto/kex"
	"github.com/pion/sshtransport/pkg/crypto/mac"
	"github.com/pion/sshtransport/pkg/protocol"
)

func validateConfig(config *Config, isClient bool) error {
	switch {
	case config == nil:
		return errNoConfigProvided
	case !isClient && len(config.HostKeys) == 0:
		return errNoHostKeys
	case config.MaxPacketSize != 0 && config.MaxPacketSize < MinMaxPacketSize:
		return errInvalidMaxPacketSize
	}

	for _, record := range config.HostKeys {
		if err := record.Validate(); err != nil {
			return &FatalError{Err: err}
		}
	}

	if config.SoftwareVersion != "" {
		id := protocol.Identification{SoftwareVersion: config.SoftwareVersion}
		if _, err := id.Marshal(); err != nil {
			return err
		}
	}

	for _, format := range config.HostKeyAlgorithms {
		if !hostkey.Supported(format) {
			return unknownAlgorithm(categoryHostKey, format)
		}
	}
	for _, name := range config.KeyExchanges {
		if _, err := kex.ForName(name); err != nil {
			return unknownAlgorithm(categoryKeyExchange, name)
		}
	}
	for _, name := range config.Ciphers {
		if name == ciphersuite.NameNone {
			return errNoneCipherNotAllowed
		}
		if _, err := ciphersuite.ForName(name); err != nil {
			return unknownAlgorithm(categoryCipher, name)
		}
	}
	for _, name := range config.MACs {
		if _, err := mac.ForName(name); err != nil {
			return unknownAlgorithm(categoryMAC, name)
		}
	}
	for _, name := range config.Compressions {
		if _, err := compression.ForName(name); err != nil {
			return unknownAlgorithm(categoryCompression, name)
		}
	}

	return nil
}

func unknownAlgorithm(category, name string) error {
	return &FatalError{Err: fmt.Errorf("%w: %s %q", errUnknownAlgorithm, category, name)}
}
