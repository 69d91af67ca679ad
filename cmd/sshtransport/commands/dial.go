// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package commands

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/pion/sshtransport"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"
)

var errFingerprintMismatch = errors.New("host key fingerprint mismatch")

// dial <address>: connect to a listener and chat with it.
func dialCmd() *cobra.Command {
	var (
		expected          string
		hostKeyAlgorithms []string
		timeout           time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dial <address>",
		Short: "Connect to a listener and chat over stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			conn, err := net.DialTimeout("tcp", args[0], timeout)
			if err != nil {
				return err
			}

			opts := []sshtransport.ClientOption{
				sshtransport.WithHostKeyCallback(func(format string, key ssh.PublicKey) error {
					got := ssh.FingerprintSHA256(key)
					fmt.Printf("Server host key %s %s\n", format, got)
					if expected != "" && got != expected {
						return fmt.Errorf("%w: %s", errFingerprintMismatch, got)
					}

					return nil
				}),
			}
			if len(hostKeyAlgorithms) > 0 {
				opts = append(opts, sshtransport.WithHostKeyAlgorithms(hostKeyAlgorithms...))
			}
			for _, opt := range sharedOptions() {
				opts = append(opts, opt)
			}

			// The deadline bounds the first key exchange, it is lifted once
			// the connection is established.
			if err = conn.SetDeadline(time.Now().Add(timeout)); err != nil {
				_ = conn.Close()

				return err
			}
			sshConn, err := sshtransport.ClientWithOptions(conn, opts...)
			if err != nil {
				_ = conn.Close()

				return err
			}
			if err = conn.SetDeadline(time.Time{}); err != nil {
				_ = sshConn.Close()

				return err
			}
			printAlgorithms(sshConn)
			fmt.Println("Connected; type 'exit' to shutdown gracefully")

			return chat(sshConn, os.Stdin, os.Stdout)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&expected, "fingerprint", "", "expected SHA256 fingerprint of the server host key")
	flags.StringSliceVar(&hostKeyAlgorithms, "host-key-algorithms", nil, "accepted host key formats in order of preference")
	flags.DurationVar(&timeout, "timeout", 10*time.Second, "time allowed for connecting and the first key exchange")

	return cmd
}
