// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"errors"
	"fmt"

	"github.com/pion/logging"
	"github.com/pion/sshtransport/pkg/protocol"
	"github.com/pion/sshtransport/pkg/protocol/control"
	"github.com/pion/sshtransport/pkg/protocol/disconnect"
)

// Engine runs one side of a connection without doing any I/O. Bytes from
// the peer go in through HandleIncoming, bytes for the peer come out of
// Outbound and received upper layer messages come out of Payloads.
//
// An Engine is not safe for concurrent use. Two engines can be wired
// directly to each other by feeding the Outbound of one into the
// HandleIncoming of the other.
type Engine struct {
	cfg   *engineConfig
	log   logging.LeveledLogger
	state *State
	codec *packetCodec
	fsm   *handshakeFSM

	idReader    protocol.IdentificationReader
	gotVersion  bool
	remoteIdent protocol.Identification

	outbound []byte
	payloads [][]byte
	queued   [][]byte

	bytesSinceKex uint64

	// dead is set once the session is torn down, closed once Close was called.
	dead   bool
	closed bool
}

// NewClientEngine creates the client side of a connection. The
// identification line and the first KexInit are ready in Outbound.
func NewClientEngine(config *Config) (*Engine, error) {
	return newEngine(config, true)
}

// NewServerEngine creates the server side of a connection. The
// identification line and the first KexInit are ready in Outbound.
func NewServerEngine(config *Config) (*Engine, error) {
	return newEngine(config, false)
}

func newEngine(config *Config, isClient bool) (*Engine, error) {
	cfg, err := newEngineConfig(config, isClient)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		cfg:   cfg,
		log:   cfg.loggerFactory.NewLogger("sshtransport"),
		state: &State{isClient: isClient},
	}
	engine.codec = newPacketCodec(engine.state, cfg.rand, cfg.maxPacketSize)
	engine.fsm = newHandshakeFSM(engine.state, cfg, engine, engine.log)

	line, err := cfg.identification.Marshal()
	if err != nil {
		return nil, err
	}
	engine.outbound = append(engine.outbound, line...)

	if err := engine.fsm.begin(); err != nil {
		return nil, err
	}

	return engine, nil
}

// HandleIncoming consumes bytes received from the peer. It returns the
// error that ended the connection, if any. A peer disconnect is reported
// as an error that unwraps to io.EOF. Bytes that arrive after the
// connection ended are dropped.
func (e *Engine) HandleIncoming(data []byte) error {
	if e.closed {
		return ErrConnClosed
	}
	if e.dead {
		return nil
	}

	if !e.gotVersion {
		line, rest, ok, err := e.idReader.Push(data)
		if err != nil {
			return e.fatal(protocolViolation(err))
		}
		if !ok {
			return nil
		}
		if e.remoteIdent, err = protocol.ParseIdentification(line); err != nil {
			return e.fatal(protocolViolation(err))
		}
		e.log.Debugf("[%s] peer identifies as %q", srvCliStr(e.cfg.isClient), line)
		e.gotVersion = true
		e.fsm.remoteVersion = line
		data = rest
	}

	e.codec.push(data)
	for !e.dead {
		payload, ok, err := e.codec.decode()
		if err != nil {
			return e.fatal(err)
		}
		if !ok {
			return nil
		}
		if len(payload) == 0 {
			return e.fatal(errEmptyPayload)
		}
		if err := e.dispatch(payload); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) dispatch(payload []byte) error {
	typ := protocol.MessageType(payload[0])
	switch {
	case typ == protocol.MessageTypeDisconnect:
		return e.handleDisconnect(payload)
	case typ == protocol.MessageTypeIgnore:
		return nil
	case typ == protocol.MessageTypeDebug:
		msg := &control.Debug{}
		if err := msg.Unmarshal(payload); err != nil {
			return e.fatal(protocolViolation(err))
		}
		if msg.AlwaysDisplay {
			e.log.Infof("[%s] peer debug: %s", srvCliStr(e.cfg.isClient), msg.Message)
		} else {
			e.log.Debugf("[%s] peer debug: %s", srvCliStr(e.cfg.isClient), msg.Message)
		}

		return nil
	case typ == protocol.MessageTypeUnimplemented:
		msg := &control.Unimplemented{}
		if err := msg.Unmarshal(payload); err != nil {
			return e.fatal(protocolViolation(err))
		}
		e.log.Warnf("[%s] peer did not understand packet %d", srvCliStr(e.cfg.isClient), msg.Sequence)

		return nil
	case typ == protocol.MessageTypeKexInit, typ == protocol.MessageTypeNewKeys, typ.IsKeyExchangeMethodSpecific():
		return e.handleHandshake(payload)
	case typ == protocol.MessageTypeServiceRequest, typ == protocol.MessageTypeServiceAccept, typ.IsUpperLayer():
		if !e.state.established || e.fsm.peerInKex {
			return e.fatal(fmt.Errorf("%w: %s during key exchange", errUnexpectedMessage, typ))
		}
		e.payloads = append(e.payloads, payload)

		return nil
	default:
		_, err := e.writeMessage(&control.Unimplemented{Sequence: e.state.recvSequence - 1})
		if err != nil {
			return e.fatal(err)
		}

		return nil
	}
}

func (e *Engine) handleHandshake(payload []byte) error {
	before := e.fsm.current
	if err := e.fsm.handle(payload); err != nil {
		if errors.Is(err, ErrNegotiationFailed) {
			return e.failNegotiation(err)
		}

		return e.fatal(err)
	}

	if before == HandshakeKeysPending && e.fsm.current == HandshakeEstablished {
		return e.completeHandshake()
	}

	return nil
}

// completeHandshake flushes what was written during the key exchange and
// reports the new algorithms.
func (e *Engine) completeHandshake() error {
	algs := e.state.algorithms
	e.log.Debugf("[handshake:%s] established %s", srvCliStr(e.cfg.isClient), algs)
	e.bytesSinceKex = 0

	queued := e.queued
	e.queued = nil
	for _, payload := range queued {
		if err := e.writePayload(payload); err != nil {
			return e.fatal(err)
		}
	}

	if e.cfg.onHandshakeComplete != nil {
		e.cfg.onHandshakeComplete(algs)
	}

	return nil
}

func (e *Engine) handleDisconnect(payload []byte) error {
	msg := &disconnect.Disconnect{}
	if err := msg.Unmarshal(payload); err != nil {
		return e.fatal(protocolViolation(err))
	}
	e.log.Debugf("[%s] %s", srvCliStr(e.cfg.isClient), msg)

	e.teardown()
	if e.cfg.onDisconnect != nil {
		e.cfg.onDisconnect(msg.Reason, msg.Description)
	}

	return &disconnectError{Disconnect: msg}
}

// failNegotiation ends a connection whose peers share no algorithm in some
// category. Only the peer learns about it, through a disconnect. Neither
// the disconnect nor the fatal error callback fires locally.
func (e *Engine) failNegotiation(err error) error {
	e.log.Warnf("[handshake:%s] %v", srvCliStr(e.cfg.isClient), err)

	e.fsm.fail()
	e.sendDisconnect(disconnect.KeyExchangeFailed, err.Error())
	e.teardown()

	return &HandshakeError{Err: err}
}

// fatal ends the connection because of err and reports it once.
func (e *Engine) fatal(err error) error {
	if e.dead {
		return err
	}
	e.log.Warnf("[%s] connection failed: %v", srvCliStr(e.cfg.isClient), err)

	reason := disconnectReason(err)
	if e.fsm.inProgress() && ErrorKindOf(err) == ErrorKindInternal {
		reason = disconnect.KeyExchangeFailed
	}
	e.fsm.fail()
	e.sendDisconnect(reason, err.Error())
	e.teardown()

	if e.cfg.onFatalError != nil {
		e.cfg.onFatalError(err)
	}

	return err
}

func disconnectReason(err error) disconnect.Reason {
	switch {
	case errors.Is(err, ErrSignatureVerification):
		return disconnect.HostKeyNotVerifiable
	case errors.Is(err, errMACMismatch):
		return disconnect.MACError
	case errors.Is(err, ErrTransport):
		return disconnect.ConnectionLost
	default:
		return disconnect.ProtocolError
	}
}

// transportFailed ends the connection because the byte stream failed.
func (e *Engine) transportFailed(err error) error {
	return e.fatal(fmt.Errorf("%w: %w", ErrTransport, err))
}

// sendDisconnect queues a disconnect with the current outbound keys. It
// is best effort, the connection is going away either way.
func (e *Engine) sendDisconnect(reason disconnect.Reason, description string) {
	if _, err := e.writeMessage(&disconnect.Disconnect{Reason: reason, Description: description}); err != nil {
		e.log.Debugf("[%s] failed to send disconnect: %v", srvCliStr(e.cfg.isClient), err)
	}
}

// teardown invalidates every key. Calling it again does nothing.
func (e *Engine) teardown() {
	if e.dead {
		return
	}
	e.dead = true
	e.fsm.fail()
	e.state.invalidate()
	e.codec.reset()
	e.queued = nil
}

func (e *Engine) writeMessage(msg protocol.Message) ([]byte, error) {
	payload, err := msg.Marshal()
	if err != nil {
		return nil, err
	}

	return payload, e.writePayload(payload)
}

func (e *Engine) writePayload(payload []byte) error {
	pkt, err := e.codec.encode(payload)
	if err != nil {
		return err
	}
	e.outbound = append(e.outbound, pkt...)
	e.bytesSinceKex += uint64(len(pkt))

	return nil
}

func (e *Engine) setOutbound(dir *packetDirection) { e.codec.setOutbound(dir) }

func (e *Engine) setInbound(dir *packetDirection) { e.codec.setInbound(dir) }

// Send writes an upper layer message. Its first byte is the message number,
// which must be 50 or above, or a service request or accept. Messages sent
// while a key exchange runs are held back and sent in order once it
// completes.
func (e *Engine) Send(payload []byte) error {
	if e.closed || e.dead {
		return ErrConnClosed
	}
	if len(payload) == 0 {
		return errInvalidPayload
	}
	typ := protocol.MessageType(payload[0])
	if !typ.IsUpperLayer() && typ != protocol.MessageTypeServiceRequest && typ != protocol.MessageTypeServiceAccept {
		return errInvalidPayload
	}
	if len(payload) > e.codec.maxPayload() {
		return errPayloadTooLarge
	}

	payload = append([]byte{}, payload...)
	if e.fsm.current != HandshakeEstablished {
		e.queued = append(e.queued, payload)

		return nil
	}
	if err := e.writePayload(payload); err != nil {
		return e.fatal(err)
	}

	if e.cfg.rekeyThreshold > 0 && e.bytesSinceKex >= e.cfg.rekeyThreshold {
		e.log.Debugf("[handshake:%s] %d bytes written, rekeying", srvCliStr(e.cfg.isClient), e.bytesSinceKex)

		return e.startRekey()
	}

	return nil
}

// Rekey starts a new key exchange. The session identifier is kept.
func (e *Engine) Rekey() error {
	if e.closed || e.dead {
		return ErrConnClosed
	}
	if e.fsm.current != HandshakeEstablished {
		return errHandshakeInProgress
	}

	return e.startRekey()
}

func (e *Engine) startRekey() error {
	e.bytesSinceKex = 0
	if err := e.fsm.begin(); err != nil {
		return e.fatal(err)
	}

	return nil
}

// Close sends a disconnect if the connection is still healthy and zeroes
// every key. Only the first call has an effect.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if !e.dead {
		e.sendDisconnect(disconnect.ByApplication, "closed")
		e.teardown()
	}

	return nil
}

// Outbound returns and clears the bytes waiting to be sent to the peer.
func (e *Engine) Outbound() []byte {
	out := e.outbound
	e.outbound = nil

	return out
}

// Payloads returns and clears the upper layer messages received so far.
func (e *Engine) Payloads() [][]byte {
	payloads := e.payloads
	e.payloads = nil

	return payloads
}

// Algorithms returns the algorithms of the last completed key exchange.
func (e *Engine) Algorithms() (Algorithms, bool) {
	return e.state.Algorithms()
}

// SessionID returns the session identifier, nil before the first key
// exchange has produced one.
func (e *Engine) SessionID() []byte {
	return e.state.SessionID()
}

// HandshakeState returns the state of the key exchange state machine.
func (e *Engine) HandshakeState() HandshakeState {
	return e.fsm.current
}

// ConnectionState returns a copy of the session state without key material.
func (e *Engine) ConnectionState() State {
	return e.state.snapshot()
}

// RemoteIdentification returns the peer's identification line, once received.
func (e *Engine) RemoteIdentification() (protocol.Identification, bool) {
	return e.remoteIdent, e.gotVersion
}
