// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageKexInit(t *testing.T) {
	rawKexInit := []byte{
		0x14,
		0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
		// kex: "a,b"
		0x00, 0x00, 0x00, 0x03, 'a', ',', 'b',
		// host key: "k"
		0x00, 0x00, 0x00, 0x01, 'k',
		// ciphers
		0x00, 0x00, 0x00, 0x01, 'c',
		0x00, 0x00, 0x00, 0x01, 'c',
		// macs
		0x00, 0x00, 0x00, 0x01, 'm',
		0x00, 0x00, 0x00, 0x01, 'm',
		// compressions
		0x00, 0x00, 0x00, 0x04, 'n', 'o', 'n', 'e',
		0x00, 0x00, 0x00, 0x04, 'n', 'o', 'n', 'e',
		// languages
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		// first_kex_packet_follows, reserved
		0x01,
		0x00, 0x00, 0x00, 0x00,
	}
	parsedKexInit := &MessageKexInit{
		Cookie: [CookieLength]byte{
			0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
			0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
		},
		KeyExchanges:             []string{"a", "b"},
		HostKeyAlgorithms:        []string{"k"},
		CiphersClientServer:      []string{"c"},
		CiphersServerClient:      []string{"c"},
		MACsClientServer:         []string{"m"},
		MACsServerClient:         []string{"m"},
		CompressionsClientServer: []string{"none"},
		CompressionsServerClient: []string{"none"},
		LanguagesClientServer:    []string{},
		LanguagesServerClient:    []string{},
		FirstKexFollows:          true,
	}

	msg := &MessageKexInit{}
	assert.NoError(t, msg.Unmarshal(rawKexInit))
	assert.Equal(t, parsedKexInit, msg)

	raw, err := msg.Marshal()
	assert.NoError(t, err)
	assert.Equal(t, rawKexInit, raw)
}

func TestMessageKexInitErrors(t *testing.T) {
	valid, err := (&MessageKexInit{KeyExchanges: []string{"x"}}).Marshal()
	assert.NoError(t, err)

	for name, test := range map[string]struct {
		Data []byte
		Err  error
	}{
		"Empty": {
			Data: []byte{},
			Err:  errBufferTooSmall,
		},
		"WrongType": {
			Data: append([]byte{0x15}, valid[1:]...),
			Err:  errInvalidType,
		},
		"ShortCookie": {
			Data: valid[:10],
			Err:  errBufferTooSmall,
		},
		"Truncated": {
			Data: valid[:len(valid)-2],
			Err:  errBufferTooSmall,
		},
		"Trailing": {
			Data: append(append([]byte{}, valid...), 0x00),
			Err:  errTrailingData,
		},
	} {
		test := test
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, (&MessageKexInit{}).Unmarshal(test.Data), test.Err)
		})
	}
}

func TestMessageKexInitRejectsEmptyName(t *testing.T) {
	_, err := (&MessageKexInit{KeyExchanges: []string{"a", ""}}).Marshal()
	assert.ErrorIs(t, err, errInvalidNameList)

	raw := []byte{0x14}
	raw = append(raw, make([]byte, CookieLength)...)
	raw = append(raw, 0x00, 0x00, 0x00, 0x02, 'a', ',')
	assert.ErrorIs(t, (&MessageKexInit{}).Unmarshal(raw), errInvalidNameList)
}

func FuzzMessageKexInitUnmarshal(f *testing.F) {
	valid, err := (&MessageKexInit{
		KeyExchanges:      []string{"curve25519-sha256"},
		HostKeyAlgorithms: []string{"ssh-ed25519"},
	}).Marshal()
	if err != nil {
		f.Fatal(err)
	}
	f.Add(valid)
	f.Add([]byte{0x14})

	f.Fuzz(func(t *testing.T, data []byte) {
		msg := &MessageKexInit{}
		if msg.Unmarshal(data) != nil {
			return
		}
		_, err := msg.Marshal()
		assert.NoError(t, err)
	})
}
