// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package util contains the wire encoding helpers shared by the message codecs
package util

import (
	"strings"

	"golang.org/x/crypto/cryptobyte"
)

// AddString appends a uint32 length-prefixed byte string.
func AddString(b *cryptobyte.Builder, s []byte) {
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(s)
	})
}

// AddNameList appends a comma separated name-list.
func AddNameList(b *cryptobyte.Builder, names []string) {
	AddString(b, []byte(strings.Join(names, ",")))
}

// AddBool appends a single byte boolean.
func AddBool(b *cryptobyte.Builder, v bool) {
	if v {
		b.AddUint8(1)
		return
	}
	b.AddUint8(0)
}

// AddMPInt appends a non-negative multiple precision integer given
// as an unsigned big-endian magnitude.
func AddMPInt(b *cryptobyte.Builder, magnitude []byte) {
	AddString(b, MPIntBody(magnitude))
}

// MPIntBody returns the two's complement body of a non-negative mpint:
// leading zero bytes are stripped and a single zero byte is prepended
// when the most significant bit is set.
func MPIntBody(magnitude []byte) []byte {
	i := 0
	for i < len(magnitude) && magnitude[i] == 0 {
		i++
	}
	magnitude = magnitude[i:]
	if len(magnitude) == 0 {
		return []byte{}
	}

	if magnitude[0]&0x80 != 0 {
		return append([]byte{0}, magnitude...)
	}

	return append([]byte{}, magnitude...)
}

// ReadString reads a uint32 length-prefixed byte string. The result is a copy.
func ReadString(s *cryptobyte.String, out *[]byte) bool {
	var v []byte
	if !readUint32Prefixed(s, &v) {
		return false
	}
	*out = append([]byte{}, v...)

	return true
}

// ReadNameList reads a comma separated name-list. Empty names are rejected.
func ReadNameList(s *cryptobyte.String, out *[]string) bool {
	var v []byte
	if !readUint32Prefixed(s, &v) {
		return false
	}
	if len(v) == 0 {
		*out = []string{}
		return true
	}

	names := strings.Split(string(v), ",")
	for _, n := range names {
		if n == "" {
			return false
		}
	}
	*out = names

	return true
}

// readUint32Prefixed reads a uint32 length followed by that many bytes.
// out aliases s.
func readUint32Prefixed(s *cryptobyte.String, out *[]byte) bool {
	var length uint32

	return s.ReadUint32(&length) && s.ReadBytes(out, int(length))
}

// ReadBool reads a single byte boolean, any non-zero value is true.
func ReadBool(s *cryptobyte.String, out *bool) bool {
	var v uint8
	if !s.ReadUint8(&v) {
		return false
	}
	*out = v != 0

	return true
}
