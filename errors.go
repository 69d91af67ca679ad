// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/pion/sshtransport/pkg/protocol"
	"github.com/pion/sshtransport/pkg/protocol/disconnect"
)

// Error categories. Every error reported by an Engine or Conn that ends the
// connection wraps exactly one of them.
var (
	// ErrNegotiationFailed means some category had no algorithm both peers support.
	ErrNegotiationFailed = errors.New("algorithm negotiation failed") //nolint:err113
	// ErrProtocolViolation covers malformed frames, failed integrity checks,
	// oversized packets and messages that are not valid in the current state.
	ErrProtocolViolation = errors.New("protocol violation") //nolint:err113
	// ErrSignatureVerification means the server's host key signature over the
	// exchange hash did not verify.
	ErrSignatureVerification = errors.New("host key signature verification failed") //nolint:err113
	// ErrTransport means the underlying byte stream failed.
	ErrTransport = errors.New("transport failure") //nolint:err113
)

// Typed errors.
var (
	ErrConnClosed = &FatalError{Err: errors.New("conn is closed")} //nolint:err113

	errDeadlineExceeded = &TimeoutError{Err: fmt.Errorf("read/write timeout: %w", context.DeadlineExceeded)}

	//nolint:err113
	errBufferTooSmall = &TemporaryError{Err: errors.New("buffer is too small")}
	//nolint:err113
	errHandshakeInProgress = &TemporaryError{Err: errors.New("handshake is in progress")}
	//nolint:err113
	errInvalidPayload = &TemporaryError{Err: errors.New("payload is not an upper layer message")}
	//nolint:err113
	errPayloadTooLarge = &TemporaryError{Err: errors.New("payload exceeds the maximum packet size")}

	//nolint:err113
	errNoConfigProvided = &FatalError{Err: errors.New("no config provided")}
	//nolint:err113
	errNilNextConn = &FatalError{Err: errors.New("Conn can not be created with a nil nextConn")}
	//nolint:err113
	errNoHostKeys = &FatalError{Err: errors.New("server requires at least one host key")}
	//nolint:err113
	errEmptyAlgorithmList = &FatalError{Err: errors.New("algorithm list is empty")}
	//nolint:err113
	errNoneCipherNotAllowed = &FatalError{Err: errors.New("cipher none must not be negotiated")}
	//nolint:err113
	errInvalidMaxPacketSize = &FatalError{Err: errors.New("max packet size is below the protocol minimum")}
	//nolint:err113
	errNilHostKeyCallback = &FatalError{Err: errors.New("host key callback is nil")}
	//nolint:err113
	errNilLoggerFactory = &FatalError{Err: errors.New("logger factory is nil")}
	//nolint:err113
	errNilRand = &FatalError{Err: errors.New("rand is nil")}

	//nolint:err113
	errInvalidFSMTransition = &InternalError{Err: errors.New("invalid state machine transition")}
	//nolint:err113
	errDirectionalKeyReuse = &InternalError{Err: errors.New("derived keys are equal in both directions")}
	//nolint:err113
	errNoHostKeyForFormat = &InternalError{Err: errors.New("no host key for negotiated format")}
)

//nolint:err113
var errUnknownAlgorithm = errors.New("unknown algorithm")

// Protocol violations.
var (
	errPacketTooLarge    = fmt.Errorf("%w: packet length exceeds maximum", ErrProtocolViolation)
	errPacketMisaligned  = fmt.Errorf("%w: packet length is not a multiple of the block size", ErrProtocolViolation)
	errInvalidPadding    = fmt.Errorf("%w: invalid padding length", ErrProtocolViolation)
	errMACMismatch       = fmt.Errorf("%w: message authentication code mismatch", ErrProtocolViolation)
	errEmptyPayload      = fmt.Errorf("%w: empty payload", ErrProtocolViolation)
	errUnexpectedMessage = fmt.Errorf("%w: unexpected message", ErrProtocolViolation)
)

// FatalError indicates that the connection is no longer available.
// It is mainly caused by wrong configuration of server or client.
type FatalError = protocol.FatalError

// InternalError indicates and internal error caused by the implementation,
// and the connection is no longer available.
// It is mainly caused by bugs or tried to use unimplemented features.
type InternalError = protocol.InternalError

// TemporaryError indicates that the connection is still available, but the request was failed temporary.
type TemporaryError = protocol.TemporaryError

// TimeoutError indicates that the request was timed out.
type TimeoutError = protocol.TimeoutError

// HandshakeError indicates that the handshake failed.
type HandshakeError = protocol.HandshakeError

// ErrorKind classifies the error carried by a fatal error event.
type ErrorKind int

// ErrorKind enums.
const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindNegotiationFailure
	ErrorKindProtocolViolation
	ErrorKindSignatureVerificationFailure
	ErrorKindTransportFailure
	ErrorKindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNegotiationFailure:
		return "NegotiationFailure"
	case ErrorKindProtocolViolation:
		return "ProtocolViolation"
	case ErrorKindSignatureVerificationFailure:
		return "SignatureVerificationFailure"
	case ErrorKindTransportFailure:
		return "TransportFailure"
	case ErrorKindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// ErrorKindOf returns the category of err.
func ErrorKindOf(err error) ErrorKind {
	var internal *InternalError
	switch {
	case err == nil:
		return ErrorKindUnknown
	case errors.Is(err, ErrNegotiationFailed):
		return ErrorKindNegotiationFailure
	case errors.Is(err, ErrSignatureVerification):
		return ErrorKindSignatureVerificationFailure
	case errors.Is(err, ErrProtocolViolation):
		return ErrorKindProtocolViolation
	case errors.Is(err, ErrTransport):
		return ErrorKindTransportFailure
	case errors.As(err, &internal):
		return ErrorKindInternal
	default:
		return ErrorKindUnknown
	}
}

// disconnectError reports a disconnect sent by the peer. It unwraps to
// io.EOF so readers see an orderly end of stream.
type disconnectError struct {
	*disconnect.Disconnect
}

func (e *disconnectError) Error() string {
	return fmt.Sprintf("peer disconnected: %s", e.Disconnect.String())
}

func (e *disconnectError) Unwrap() error { return io.EOF }

func (e *disconnectError) Is(err error) bool {
	var other *disconnectError
	if errors.As(err, &other) {
		return e.Reason == other.Reason
	}

	return false
}

// protocolViolation tags err as a protocol violation unless it already is one.
func protocolViolation(err error) error {
	if errors.Is(err, ErrProtocolViolation) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrProtocolViolation, err)
}

// netError translates an error from underlying Conn to corresponding net.Error.
func netError(err error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Return io.EOF and context errors as is.
		return err
	}

	var (
		ne      net.Error
		opError *net.OpError
		se      *os.SyscallError
	)

	if errors.As(err, &opError) {
		if errors.As(opError, &se) && se.Timeout() {
			return &TimeoutError{Err: err}
		}
	}

	if errors.As(err, &ne) {
		return err
	}

	return &FatalError{Err: err}
}
