// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4Compressor writes every payload as a self-contained LZ4 frame.
type lz4Compressor struct {
	buf bytes.Buffer
	w   *lz4.Writer
}

func newLZ4Compressor() Compressor {
	return &lz4Compressor{w: lz4.NewWriter(nil)}
}

func (l *lz4Compressor) Compress(payload []byte) ([]byte, error) {
	l.buf.Reset()
	l.w.Reset(&l.buf)
	_ = l.w.Apply(lz4.CompressionLevelOption(lz4.Fast))

	if _, err := l.w.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errCompressionFailed, err) //nolint:errorlint
	}
	if err := l.w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", errCompressionFailed, err) //nolint:errorlint
	}

	return append([]byte{}, l.buf.Bytes()...), nil
}

type lz4Decompressor struct {
	r *lz4.Reader
}

func newLZ4Decompressor() Decompressor {
	return &lz4Decompressor{r: lz4.NewReader(nil)}
}

func (l *lz4Decompressor) Decompress(data []byte) ([]byte, error) {
	l.r.Reset(bytes.NewReader(data))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(l.r, MaxDecompressedSize+1)); err != nil {
		return nil, fmt.Errorf("%w: %v", errDecompressionFailed, err) //nolint:errorlint
	}
	if buf.Len() > MaxDecompressedSize {
		return nil, errDecompressedTooLarge
	}

	return buf.Bytes(), nil
}
