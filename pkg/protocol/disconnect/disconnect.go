// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package disconnect implements the disconnect notification
package disconnect

import (
	"errors"
	"fmt"

	"github.com/pion/sshtransport/internal/util"
	"github.com/pion/sshtransport/pkg/protocol"
	"golang.org/x/crypto/cryptobyte"
)

var (
	errBufferTooSmall = &protocol.TemporaryError{Err: errors.New("buffer is too small")}  //nolint:err113
	errInvalidType    = &protocol.FatalError{Err: errors.New("not a disconnect message")} //nolint:err113
)

// Reason is the reason code carried by a disconnect notification
//
// https://tools.ietf.org/html/rfc4253#section-11.1
type Reason uint32

// Reason enums.
const (
	HostNotAllowedToConnect     Reason = 1
	ProtocolError               Reason = 2
	KeyExchangeFailed           Reason = 3
	Reserved                    Reason = 4
	MACError                    Reason = 5
	CompressionError            Reason = 6
	ServiceNotAvailable         Reason = 7
	ProtocolVersionNotSupported Reason = 8
	HostKeyNotVerifiable        Reason = 9
	ConnectionLost              Reason = 10
	ByApplication               Reason = 11
	TooManyConnections          Reason = 12
	AuthCancelledByUser         Reason = 13
	NoMoreAuthMethodsAvailable  Reason = 14
	IllegalUserName             Reason = 15
)

func (r Reason) String() string {
	switch r {
	case HostNotAllowedToConnect:
		return "HostNotAllowedToConnect"
	case ProtocolError:
		return "ProtocolError"
	case KeyExchangeFailed:
		return "KeyExchangeFailed"
	case Reserved:
		return "Reserved"
	case MACError:
		return "MACError"
	case CompressionError:
		return "CompressionError"
	case ServiceNotAvailable:
		return "ServiceNotAvailable"
	case ProtocolVersionNotSupported:
		return "ProtocolVersionNotSupported"
	case HostKeyNotVerifiable:
		return "HostKeyNotVerifiable"
	case ConnectionLost:
		return "ConnectionLost"
	case ByApplication:
		return "ByApplication"
	case TooManyConnections:
		return "TooManyConnections"
	case AuthCancelledByUser:
		return "AuthCancelledByUser"
	case NoMoreAuthMethodsAvailable:
		return "NoMoreAuthMethodsAvailable"
	case IllegalUserName:
		return "IllegalUserName"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(r))
	}
}

// Disconnect tells the peer the connection is being torn down. It is the
// last message a side sends.
type Disconnect struct {
	Reason      Reason
	Description string
	Language    string
}

func (d Disconnect) String() string {
	return fmt.Sprintf("Disconnect %s: %q", d.Reason, d.Description)
}

// Type returns the message number.
func (d Disconnect) Type() protocol.MessageType {
	return protocol.MessageTypeDisconnect
}

// Error lets a received disconnect be returned as an error.
func (d *Disconnect) Error() string {
	return fmt.Sprintf("disconnect: %s: %s", d.Reason, d.Description)
}

// Marshal returns the encoded payload, message number included.
func (d *Disconnect) Marshal() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddUint8(uint8(d.Type()))
	b.AddUint32(uint32(d.Reason))
	util.AddString(&b, []byte(d.Description))
	util.AddString(&b, []byte(d.Language))

	return b.Bytes()
}

// Unmarshal populates the message from an encoded payload.
func (d *Disconnect) Unmarshal(data []byte) error {
	s := cryptobyte.String(data)

	var (
		typ         uint8
		reason      uint32
		description []byte
		language    []byte
	)
	if !s.ReadUint8(&typ) {
		return errBufferTooSmall
	}
	if protocol.MessageType(typ) != protocol.MessageTypeDisconnect {
		return errInvalidType
	}
	if !s.ReadUint32(&reason) || !util.ReadString(&s, &description) {
		return errBufferTooSmall
	}
	// Some implementations omit the language tag.
	if !s.Empty() && !util.ReadString(&s, &language) {
		return errBufferTooSmall
	}

	d.Reason = Reason(reason)
	d.Description = string(description)
	d.Language = string(language)

	return nil
}
