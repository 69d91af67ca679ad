// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package compression

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

const (
	zlibHeaderLength = 2
	zlibWindowSize   = 32 * 1024
)

// zlibCompressor keeps a single deflate stream for the whole connection
// and ends every packet with a sync flush, so each packet decompresses on
// its own while later packets may reference earlier ones.
//
// https://tools.ietf.org/html/rfc4253#section-6.2
type zlibCompressor struct {
	buf bytes.Buffer
	w   *zlib.Writer
}

func newZlibCompressor() Compressor {
	z := &zlibCompressor{}
	z.w = zlib.NewWriter(&z.buf)

	return z
}

func (z *zlibCompressor) Compress(payload []byte) ([]byte, error) {
	z.buf.Reset()
	if _, err := z.w.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errCompressionFailed, err) //nolint:errorlint
	}
	if err := z.w.Flush(); err != nil {
		return nil, fmt.Errorf("%w: %v", errCompressionFailed, err) //nolint:errorlint
	}

	return append([]byte{}, z.buf.Bytes()...), nil
}

// zlibDecompressor inflates the packets of a sync flushed stream. Every
// packet restarts the inflater on a block boundary with the previous 32 KiB
// of output as dictionary.
type zlibDecompressor struct {
	started bool
	window  []byte
	r       io.ReadCloser
}

func newZlibDecompressor() Decompressor {
	return &zlibDecompressor{}
}

func (z *zlibDecompressor) Decompress(data []byte) ([]byte, error) {
	if !z.started {
		if len(data) < zlibHeaderLength || !validZlibHeader(data[0], data[1]) {
			return nil, errDecompressionFailed
		}
		data = data[zlibHeaderLength:]
		z.started = true
	}

	src := bytes.NewReader(data)
	if z.r == nil {
		z.r = flate.NewReaderDict(src, z.window)
	} else if err := z.r.(flate.Resetter).Reset(src, z.window); err != nil { //nolint:forcetypeassert
		return nil, fmt.Errorf("%w: %v", errDecompressionFailed, err) //nolint:errorlint
	}

	// The stream never ends, running out of input after the flush marker
	// is the normal end of a packet.
	out, err := io.ReadAll(io.LimitReader(z.r, MaxDecompressedSize+1))
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %v", errDecompressionFailed, err) //nolint:errorlint
	}
	if len(out) > MaxDecompressedSize {
		return nil, errDecompressedTooLarge
	}

	z.window = append(z.window, out...)
	if len(z.window) > zlibWindowSize {
		z.window = append([]byte{}, z.window[len(z.window)-zlibWindowSize:]...)
	}

	return out, nil
}

// validZlibHeader checks for deflate with no preset dictionary.
//
// https://tools.ietf.org/html/rfc1950#section-2.2
func validZlibHeader(cmf, flg byte) bool {
	const (
		deflateMethod = 8
		presetDict    = 0x20
	)

	return cmf&0x0f == deflateMethod && flg&presetDict == 0 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
