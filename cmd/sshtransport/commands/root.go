// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package commands holds the command line interface of sshtransport.
package commands

import (
	"fmt"
	"strings"

	"github.com/pion/logging"
	"github.com/pion/sshtransport"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals
var (
	logLevel      string
	keyExchanges  []string
	ciphers       []string
	macs          []string
	compressions  []string
	rekeyBytes    uint64
	loggerFactory *logging.DefaultLoggerFactory
)

//nolint:gochecknoglobals
var logLevels = map[string]logging.LogLevel{
	"disabled": logging.LogLevelDisabled,
	"error":    logging.LogLevelError,
	"warn":     logging.LogLevelWarn,
	"info":     logging.LogLevelInfo,
	"debug":    logging.LogLevelDebug,
	"trace":    logging.LogLevelTrace,
}

// Execute runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:          "sshtransport",
		Short:        "Chat over an encrypted SSH transport connection",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			level, ok := logLevels[strings.ToLower(logLevel)]
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel) //nolint:goerr113
			}
			loggerFactory = logging.NewDefaultLoggerFactory()
			loggerFactory.DefaultLogLevel = level

			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", "error", "log level (disabled, error, warn, info, debug, trace)")
	flags.StringSliceVar(&keyExchanges, "kex", nil, "key exchange methods in order of preference")
	flags.StringSliceVar(&ciphers, "ciphers", nil, "ciphers in order of preference")
	flags.StringSliceVar(&macs, "macs", nil, "MAC algorithms in order of preference")
	flags.StringSliceVar(&compressions, "compression", nil, "compression methods in order of preference")
	flags.Uint64Var(&rekeyBytes, "rekey-bytes", 0, "bytes after which the keys are renewed (0 disables rekeying)")

	root.AddCommand(listenCmd(), dialCmd())

	return root.Execute()
}

// sharedOptions turns the persistent flags into options valid on both sides.
func sharedOptions() []sshtransport.Option {
	opts := []sshtransport.Option{
		sshtransport.WithLoggerFactory(loggerFactory),
		sshtransport.WithSoftwareVersion("pion_sshtransport"),
	}
	if len(keyExchanges) > 0 {
		opts = append(opts, sshtransport.WithKeyExchanges(keyExchanges...))
	}
	if len(ciphers) > 0 {
		opts = append(opts, sshtransport.WithCiphers(ciphers...))
	}
	if len(macs) > 0 {
		opts = append(opts, sshtransport.WithMACs(macs...))
	}
	if len(compressions) > 0 {
		opts = append(opts, sshtransport.WithCompressions(compressions...))
	}
	if rekeyBytes > 0 {
		opts = append(opts, sshtransport.WithRekeyThreshold(rekeyBytes))
	}

	return opts
}

func printAlgorithms(conn *sshtransport.Conn) {
	if algs, ok := conn.Algorithms(); ok {
		fmt.Printf("Negotiated %s\n", algs)
	}
}
