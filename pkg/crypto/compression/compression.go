// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package compression provides the payload compressors that can be negotiated
package compression

import (
	"errors"
	"fmt"

	"github.com/pion/sshtransport/pkg/protocol"
)

var (
	//nolint:err113
	errUnknownCompression = errors.New("unknown compression")
	//nolint:err113
	errCompressionFailed = &protocol.InternalError{Err: errors.New("compression failed")}
	//nolint:err113
	errDecompressionFailed = &protocol.FatalError{Err: errors.New("decompression failed")}
	//nolint:err113
	errDecompressedTooLarge = &protocol.FatalError{Err: errors.New("decompressed payload is too large")}
)

// Compression names.
const (
	NameNone = "none"
	NameZlib = "zlib"
	NameLZ4  = "lz4@pion.ly"
)

// MaxDecompressedSize bounds the payload a single packet may inflate to.
const MaxDecompressedSize = 256 * 1024

// Compressor compresses the outgoing payloads of one direction.
type Compressor interface {
	Compress(payload []byte) ([]byte, error)
}

// Decompressor restores the incoming payloads of one direction.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Algorithm describes a compression method by name.
type Algorithm struct {
	name            string
	newCompressor   func() Compressor
	newDecompressor func() Decompressor
}

// Name returns the negotiated identifier.
func (a *Algorithm) Name() string { return a.name }

func (a *Algorithm) String() string { return a.name }

// NewCompressor returns fresh compression state for the sending direction.
func (a *Algorithm) NewCompressor() Compressor { return a.newCompressor() }

// NewDecompressor returns fresh decompression state for the receiving direction.
func (a *Algorithm) NewDecompressor() Decompressor { return a.newDecompressor() }

// ForName returns the Algorithm registered under name.
func ForName(name string) (*Algorithm, error) {
	switch name {
	case NameNone:
		return &Algorithm{
			name:            name,
			newCompressor:   func() Compressor { return none{} },
			newDecompressor: func() Decompressor { return none{} },
		}, nil
	case NameZlib:
		return &Algorithm{
			name:            name,
			newCompressor:   newZlibCompressor,
			newDecompressor: newZlibDecompressor,
		}, nil
	case NameLZ4:
		return &Algorithm{
			name:            name,
			newCompressor:   newLZ4Compressor,
			newDecompressor: newLZ4Decompressor,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", errUnknownCompression, name)
}

// Default returns the compression methods offered when none are configured,
// most preferred first.
func Default() []string {
	return []string{NameNone, NameZlib, NameLZ4}
}

type none struct{}

func (none) Compress(payload []byte) ([]byte, error) { return payload, nil }

func (none) Decompress(data []byte) ([]byte, error) { return data, nil }
