// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package main is a small chat program running over the transport.
package main

import (
	"os"

	"github.com/pion/sshtransport/cmd/sshtransport/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
