// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentificationMarshal(t *testing.T) {
	raw, err := Identification{SoftwareVersion: "pion_1.0", Comments: "test build"}.Marshal()
	assert.NoError(t, err)
	assert.Equal(t, []byte("SSH-2.0-pion_1.0 test build\r\n"), raw)

	_, err = Identification{SoftwareVersion: "with space"}.Marshal()
	assert.ErrorIs(t, err, errInvalidIdentification)

	_, err = Identification{SoftwareVersion: strings.Repeat("a", MaxIdentificationLength)}.Marshal()
	assert.ErrorIs(t, err, errIdentificationTooLong)
}

func TestParseIdentification(t *testing.T) {
	for _, test := range []struct {
		Name    string
		Line    string
		Want    Identification
		WantErr error
	}{
		{
			Name: "Plain",
			Line: "SSH-2.0-OpenSSH_9.6",
			Want: Identification{SoftwareVersion: "OpenSSH_9.6"},
		},
		{
			Name: "Comments",
			Line: "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.6",
			Want: Identification{SoftwareVersion: "OpenSSH_8.9p1", Comments: "Ubuntu-3ubuntu0.6"},
		},
		{
			Name: "Compat",
			Line: "SSH-1.99-legacy",
			Want: Identification{SoftwareVersion: "legacy"},
		},
		{
			Name:    "Version1",
			Line:    "SSH-1.5-old",
			WantErr: errUnsupportedProtocol,
		},
		{
			Name:    "MissingPrefix",
			Line:    "HTTP/1.1 200 OK",
			WantErr: errInvalidIdentification,
		},
		{
			Name:    "MissingSoftware",
			Line:    "SSH-2.0-",
			WantErr: errInvalidIdentification,
		},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			id, err := ParseIdentification([]byte(test.Line))
			assert.ErrorIs(t, err, test.WantErr)
			assert.Equal(t, test.Want, id)
		})
	}
}

func TestIdentificationReader(t *testing.T) {
	r := &IdentificationReader{}

	line, rest, ok, err := r.Push([]byte("welcome\r\nSSH-2.0-pi"))
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, line)
	assert.Nil(t, rest)

	line, rest, ok, err = r.Push([]byte("on\r\n\x00\x00\x00\x0c"))
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("SSH-2.0-pion"), line)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x0c}, rest)
}

func TestIdentificationReaderLimits(t *testing.T) {
	r := &IdentificationReader{}
	_, _, _, err := r.Push([]byte(strings.Repeat("x", MaxIdentificationLength+1)))
	assert.ErrorIs(t, err, errIdentificationTooLong)

	r = &IdentificationReader{}
	_, _, _, err = r.Push([]byte(strings.Repeat("banner\n", maxPreambleLines+1)))
	assert.ErrorIs(t, err, errTooManyPreambleLines)
}
