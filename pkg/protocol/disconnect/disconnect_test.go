// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package disconnect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisconnect(t *testing.T) {
	for _, test := range []struct {
		Name               string
		Data               []byte
		Want               *Disconnect
		WantUnmarshalError error
	}{
		{
			Name: "Valid Disconnect",
			Data: []byte{
				0x01,                   // message number
				0x00, 0x00, 0x00, 0x03, // reason
				0x00, 0x00, 0x00, 0x02, 'n', 'o', // description
				0x00, 0x00, 0x00, 0x00, // language
			},
			Want: &Disconnect{
				Reason:      KeyExchangeFailed,
				Description: "no",
			},
		},
		{
			Name:               "Invalid disconnect length",
			Data:               []byte{0x01, 0x00, 0x00},
			Want:               &Disconnect{},
			WantUnmarshalError: errBufferTooSmall,
		},
		{
			Name:               "Wrong message number",
			Data:               []byte{0x02, 0x00, 0x00, 0x00, 0x03},
			Want:               &Disconnect{},
			WantUnmarshalError: errInvalidType,
		},
	} {
		d := &Disconnect{}
		assert.ErrorIs(t, d.Unmarshal(test.Data), test.WantUnmarshalError, test.Name)
		assert.Equal(t, test.Want, d, test.Name)

		if test.WantUnmarshalError != nil {
			continue
		}

		data, marshalErr := d.Marshal()
		assert.NoError(t, marshalErr)
		assert.Equal(t, test.Data, data)
	}
}

func TestDisconnectWithoutLanguage(t *testing.T) {
	d := &Disconnect{}
	assert.NoError(t, d.Unmarshal([]byte{
		0x01,
		0x00, 0x00, 0x00, 0x0b,
		0x00, 0x00, 0x00, 0x03, 'b', 'y', 'e',
	}))
	assert.Equal(t, ByApplication, d.Reason)
	assert.Equal(t, "bye", d.Description)
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "KeyExchangeFailed", KeyExchangeFailed.String())
	assert.Equal(t, "unknown(99)", Reason(99).String())
}
