// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package protocol provides the transport layer wire format
package protocol

import "fmt"

// MessageType is the first byte of every packet payload
//
// https://tools.ietf.org/html/rfc4250#section-4.1
type MessageType uint8

// MessageType enums.
const (
	MessageTypeDisconnect      MessageType = 1
	MessageTypeIgnore          MessageType = 2
	MessageTypeUnimplemented   MessageType = 3
	MessageTypeDebug           MessageType = 4
	MessageTypeServiceRequest  MessageType = 5
	MessageTypeServiceAccept   MessageType = 6
	MessageTypeKexInit         MessageType = 20
	MessageTypeNewKeys         MessageType = 21
	MessageTypeKexExchangeInit MessageType = 30
	MessageTypeKexReply        MessageType = 31

	// MessageTypeUpperLayerMin is the first message number that belongs to
	// the layers above the transport (authentication, connection).
	MessageTypeUpperLayerMin MessageType = 50
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeDisconnect:
		return "Disconnect"
	case MessageTypeIgnore:
		return "Ignore"
	case MessageTypeUnimplemented:
		return "Unimplemented"
	case MessageTypeDebug:
		return "Debug"
	case MessageTypeServiceRequest:
		return "ServiceRequest"
	case MessageTypeServiceAccept:
		return "ServiceAccept"
	case MessageTypeKexInit:
		return "KexInit"
	case MessageTypeNewKeys:
		return "NewKeys"
	case MessageTypeKexExchangeInit:
		return "KexExchangeInit"
	case MessageTypeKexReply:
		return "KexReply"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// IsKeyExchangeMethodSpecific returns true for the message numbers
// reserved for the negotiated key exchange method (30 to 49).
func (m MessageType) IsKeyExchangeMethodSpecific() bool {
	return m >= 30 && m <= 49
}

// IsUpperLayer returns true for message numbers owned by the layers above the transport.
func (m MessageType) IsUpperLayer() bool {
	return m >= MessageTypeUpperLayerMin
}

// Message is a transport message that can be carried in a packet payload.
type Message interface {
	Type() MessageType
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error
}
