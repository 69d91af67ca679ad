// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import "errors"

// Typed errors
var (
	errBufferTooSmall   = errors.New("buffer is too small")
	errInvalidType      = errors.New("unexpected message number")
	errTrailingData     = errors.New("trailing data after message")
	errInvalidNameList  = errors.New("invalid name-list")
	errEmptyPublicValue = errors.New("exchange value is empty")
)
