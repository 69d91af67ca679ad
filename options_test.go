// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"testing"

	"github.com/pion/logging"
	"github.com/pion/sshtransport/pkg/crypto/hostkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// TestEmptySliceOptionsReturnError verifies that functional options return errors
// for empty slices (unlike struct-based Config where empty means default).
func TestEmptySliceOptionsReturnError(t *testing.T) {
	for name, opt := range map[string]Option{
		"KeyExchanges": WithKeyExchanges(),
		"Ciphers":      WithCiphers(),
		"MACs":         WithMACs(),
		"Compressions": WithCompressions(),
	} {
		opt := opt
		t.Run(name, func(t *testing.T) {
			_, err := buildClientConfig(opt)
			require.ErrorIs(t, err, errEmptyAlgorithmList)

			_, err = buildServerConfig(opt)
			require.ErrorIs(t, err, errEmptyAlgorithmList)
		})
	}

	t.Run("HostKeys", func(t *testing.T) {
		_, err := buildServerConfig(WithHostKeys())
		require.ErrorIs(t, err, errNoHostKeys)
	})

	t.Run("HostKeyAlgorithms", func(t *testing.T) {
		_, err := buildClientConfig(WithHostKeyAlgorithms())
		require.ErrorIs(t, err, errEmptyAlgorithmList)
	})
}

func TestOptionValidation(t *testing.T) {
	_, err := buildClientConfig(WithMaxPacketSize(MinMaxPacketSize - 1))
	require.ErrorIs(t, err, errInvalidMaxPacketSize)

	_, err = buildClientConfig(WithLoggerFactory(nil))
	require.ErrorIs(t, err, errNilLoggerFactory)

	_, err = buildClientConfig(WithRand(nil))
	require.ErrorIs(t, err, errNilRand)

	_, err = buildClientConfig(WithHostKeyCallback(nil))
	require.ErrorIs(t, err, errNilHostKeyCallback)
}

func TestOptionsDefaults(t *testing.T) {
	cfg, err := buildClientConfig()
	require.NoError(t, err)

	assert.Equal(t, defaultSoftwareVersion, cfg.SoftwareVersion)
	assert.Equal(t, DefaultMaxPacketSize, cfg.MaxPacketSize)
	assert.Nil(t, cfg.Ciphers)
	assert.Nil(t, cfg.HostKeys)
}

func TestOptionsBuildConfig(t *testing.T) {
	record := testHostKey(t, hostkey.FormatED25519)
	callback := func(string, ssh.PublicKey) error { return nil }

	clientCfg, err := buildClientConfig(
		WithHostKeyAlgorithms(hostkey.FormatED25519),
		WithHostKeyCallback(callback),
		WithKeyExchanges("curve25519-sha256"),
		WithCiphers("aes128-gcm@openssh.com"),
		WithMACs("hmac-sha2-256"),
		WithCompressions("zlib"),
		WithSoftwareVersion("test_1.0"),
		WithMaxPacketSize(MinMaxPacketSize),
		WithRekeyThreshold(1<<30),
		WithLoggerFactory(logging.NewDefaultLoggerFactory()),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{hostkey.FormatED25519}, clientCfg.HostKeyAlgorithms)
	assert.Equal(t, []string{"curve25519-sha256"}, clientCfg.KeyExchanges)
	assert.Equal(t, []string{"aes128-gcm@openssh.com"}, clientCfg.Ciphers)
	assert.Equal(t, []string{"hmac-sha2-256"}, clientCfg.MACs)
	assert.Equal(t, []string{"zlib"}, clientCfg.Compressions)
	assert.Equal(t, "test_1.0", clientCfg.SoftwareVersion)
	assert.Equal(t, MinMaxPacketSize, clientCfg.MaxPacketSize)
	assert.Equal(t, uint64(1<<30), clientCfg.RekeyThreshold)
	assert.NotNil(t, clientCfg.HostKeyCallback)
	assert.NotNil(t, clientCfg.LoggerFactory)
	require.NoError(t, validateConfig(clientCfg, true))

	serverCfg, err := buildServerConfig(WithHostKeys(record))
	require.NoError(t, err)
	require.Len(t, serverCfg.HostKeys, 1)
	require.NoError(t, validateConfig(serverCfg, false))
}

func TestOptionsCopySlices(t *testing.T) {
	ciphers := []string{"aes128-ctr", "aes256-ctr"}
	cfg, err := buildClientConfig(WithCiphers(ciphers...))
	require.NoError(t, err)

	ciphers[0] = "none"
	assert.Equal(t, []string{"aes128-ctr", "aes256-ctr"}, cfg.Ciphers)
}
