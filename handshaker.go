// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"fmt"
	"io"

	"github.com/pion/logging"
	"github.com/pion/sshtransport/pkg/crypto/hostkey"
	"github.com/pion/sshtransport/pkg/crypto/kex"
	"github.com/pion/sshtransport/pkg/protocol"
	"github.com/pion/sshtransport/pkg/protocol/handshake"
)

// [RFC4253 Section-7]
//
//	            +--------+
//	            |  IDLE  |
//	            +--------+
//	                 |  Send KexInit
//	                \|/
//	      +------------------+
//	+---> | ALGORITHMS SENT  |
//	|     +------------------+
//	|            |  Receive KexInit
//	|           \|/
//	|     +----------------------+
//	|     | ALGORITHMS EXCHANGED | ---- no common algorithm ----+
//	|     +----------------------+                              |
//	|            |  Run key exchange method                     |
//	|           \|/                                             |
//	|     +--------------------------+                          |
//	|     | KEY EXCHANGE IN PROGRESS |                          |
//	|     +--------------------------+                          |
//	|            |  Derive keys, send NewKeys                   |
//	|           \|/                                             |
//	|     +--------------+                                      |
//	|     | KEYS PENDING |                                      |
//	|     +--------------+                                      |
//	|            |  Receive NewKeys                             |
//	|           \|/                                            \|/
//	|     +-------------+                                  +--------+
//	+---- | ESTABLISHED |                                  | FAILED |
//	Rekey +-------------+                                  +--------+
//
// Every state but FAILED may move to FAILED.

// HandshakeState is the state of the key exchange state machine.
type HandshakeState uint8

// HandshakeState enums.
const (
	HandshakeIdle HandshakeState = iota
	HandshakeAlgorithmsSent
	HandshakeAlgorithmsExchanged
	HandshakeKeyExchangeInProgress
	HandshakeKeysPending
	HandshakeEstablished
	HandshakeFailed
)

func (s HandshakeState) String() string {
	switch s {
	case HandshakeIdle:
		return "Idle"
	case HandshakeAlgorithmsSent:
		return "AlgorithmsSent"
	case HandshakeAlgorithmsExchanged:
		return "AlgorithmsExchanged"
	case HandshakeKeyExchangeInProgress:
		return "KeyExchangeInProgress"
	case HandshakeKeysPending:
		return "KeysPending"
	case HandshakeEstablished:
		return "Established"
	case HandshakeFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

var handshakeTransitions = map[HandshakeState][]HandshakeState{ //nolint:gochecknoglobals
	HandshakeIdle:                  {HandshakeAlgorithmsSent, HandshakeFailed},
	HandshakeAlgorithmsSent:        {HandshakeAlgorithmsExchanged, HandshakeFailed},
	HandshakeAlgorithmsExchanged:   {HandshakeKeyExchangeInProgress, HandshakeFailed},
	HandshakeKeyExchangeInProgress: {HandshakeKeysPending, HandshakeFailed},
	HandshakeKeysPending:           {HandshakeEstablished, HandshakeFailed},
	HandshakeEstablished:           {HandshakeAlgorithmsSent, HandshakeFailed},
	HandshakeFailed:                {},
}

func (s HandshakeState) canTransition(to HandshakeState) bool {
	for _, next := range handshakeTransitions[s] {
		if next == to {
			return true
		}
	}

	return false
}

func srvCliStr(isClient bool) string {
	if isClient {
		return "client"
	}

	return "server"
}

// handshakeConn is what the state machine needs from the engine.
type handshakeConn interface {
	// writeMessage frames msg with the current outbound keys and returns
	// the payload that was sent.
	writeMessage(msg protocol.Message) ([]byte, error)
	setOutbound(*packetDirection)
	setInbound(*packetDirection)
}

type handshakeFSM struct {
	current HandshakeState
	state   *State
	cfg     *engineConfig
	conn    handshakeConn
	log     logging.LeveledLogger

	localVersion, remoteVersion []byte
	localKexInit, remoteKexInit []byte
	localMsg                    *handshake.MessageKexInit

	// peerInKex is set from the peer's KexInit until its NewKeys. Upper
	// layer messages from the peer are not allowed in between.
	peerInKex bool

	ignoreNextKexPacket bool

	pending        Algorithms
	pendingInbound *packetDirection
	exchange       *keyExchange
}

func newHandshakeFSM(state *State, cfg *engineConfig, conn handshakeConn, log logging.LeveledLogger) *handshakeFSM {
	return &handshakeFSM{
		current:      HandshakeIdle,
		state:        state,
		cfg:          cfg,
		conn:         conn,
		log:          log,
		localVersion: []byte(cfg.identification.String()),
	}
}

func (s *handshakeFSM) transition(to HandshakeState) error {
	from := s.current
	if !from.canTransition(to) {
		s.log.Warnf("[handshake:%s] refusing %s -> %s", srvCliStr(s.cfg.isClient), from, to)

		return errInvalidFSMTransition
	}
	s.log.Tracef("[handshake:%s] %s -> %s", srvCliStr(s.cfg.isClient), from, to)
	s.current = to

	return nil
}

// inProgress reports whether a key exchange is running.
func (s *handshakeFSM) inProgress() bool {
	return s.current != HandshakeEstablished && s.current != HandshakeFailed
}

// begin sends this side's KexInit.
func (s *handshakeFSM) begin() error {
	if err := s.transition(HandshakeAlgorithmsSent); err != nil {
		return err
	}

	var cookie [handshake.CookieLength]byte
	if _, err := io.ReadFull(s.cfg.rand, cookie[:]); err != nil {
		return err
	}
	msg := s.cfg.preferences.kexInit(cookie)
	payload, err := s.conn.writeMessage(msg)
	if err != nil {
		return err
	}
	s.localMsg = msg
	s.localKexInit = payload
	s.remoteKexInit = nil

	return nil
}

// handle processes KexInit, NewKeys and the key exchange method messages.
func (s *handshakeFSM) handle(payload []byte) error {
	switch typ := protocol.MessageType(payload[0]); typ {
	case protocol.MessageTypeKexInit:
		return s.handleKexInit(payload)
	case protocol.MessageTypeNewKeys:
		return s.handleNewKeys(payload)
	default:
		if s.ignoreNextKexPacket {
			s.ignoreNextKexPacket = false
			s.log.Debugf("[handshake:%s] dropping %s after wrong guess", srvCliStr(s.cfg.isClient), typ)

			return nil
		}
		if s.current != HandshakeKeyExchangeInProgress {
			return fmt.Errorf("%w: %s in %s", errUnexpectedMessage, typ, s.current)
		}
		switch {
		case typ == protocol.MessageTypeKexExchangeInit && !s.cfg.isClient:
			return s.handleExchangeInit(payload)
		case typ == protocol.MessageTypeKexReply && s.cfg.isClient:
			return s.handleKexReply(payload)
		}

		return fmt.Errorf("%w: %s in %s", errUnexpectedMessage, typ, s.current)
	}
}

func (s *handshakeFSM) handleKexInit(payload []byte) error {
	switch s.current {
	case HandshakeIdle, HandshakeEstablished:
		if err := s.begin(); err != nil {
			return err
		}
	case HandshakeAlgorithmsSent:
	default:
		return fmt.Errorf("%w: KexInit in %s", errUnexpectedMessage, s.current)
	}

	msg := &handshake.MessageKexInit{}
	if err := msg.Unmarshal(payload); err != nil {
		return protocolViolation(err)
	}
	s.remoteKexInit = append([]byte{}, payload...)
	s.peerInKex = true

	if err := s.transition(HandshakeAlgorithmsExchanged); err != nil {
		return err
	}

	client, server := s.localMsg, msg
	if !s.cfg.isClient {
		client, server = msg, s.localMsg
	}
	algs, err := negotiate(client, server)
	if err != nil {
		return err
	}
	s.pending = algs
	s.log.Debugf("[handshake:%s] negotiated %s", srvCliStr(s.cfg.isClient), algs)

	if msg.FirstKexFollows && !guessedRight(msg, algs) {
		s.ignoreNextKexPacket = true
	}

	if err := s.transition(HandshakeKeyExchangeInProgress); err != nil {
		return err
	}
	if s.exchange, err = newKeyExchange(algs.KeyExchange, s.transcript()); err != nil {
		return err
	}
	if !s.cfg.isClient {
		return nil
	}

	exchangeInit, err := s.exchange.clientInit(s.cfg.rand)
	if err != nil {
		return err
	}
	_, err = s.conn.writeMessage(exchangeInit)

	return err
}

// guessedRight reports whether the peer's preferred methods are the ones
// negotiated, which makes its optimistic exchange packet usable.
func guessedRight(msg *handshake.MessageKexInit, algs Algorithms) bool {
	return len(msg.KeyExchanges) > 0 && msg.KeyExchanges[0] == algs.KeyExchange &&
		len(msg.HostKeyAlgorithms) > 0 && msg.HostKeyAlgorithms[0] == algs.HostKey
}

func (s *handshakeFSM) transcript() kex.Transcript {
	if s.cfg.isClient {
		return kex.Transcript{
			ClientVersion: s.localVersion,
			ServerVersion: s.remoteVersion,
			ClientKexInit: s.localKexInit,
			ServerKexInit: s.remoteKexInit,
		}
	}

	return kex.Transcript{
		ClientVersion: s.remoteVersion,
		ServerVersion: s.localVersion,
		ClientKexInit: s.remoteKexInit,
		ServerKexInit: s.localKexInit,
	}
}

func (s *handshakeFSM) handleExchangeInit(payload []byte) error {
	msg := &handshake.MessageKexExchangeInit{}
	if err := msg.Unmarshal(payload); err != nil {
		return protocolViolation(err)
	}

	record, ok := hostkey.Find(s.cfg.hostKeys, s.pending.HostKey)
	if !ok {
		return errNoHostKeyForFormat
	}
	reply, err := s.exchange.serverReply(s.cfg.rand, record, msg)
	if err != nil {
		return err
	}
	if _, err := s.conn.writeMessage(reply); err != nil {
		return err
	}

	return s.finishExchange()
}

func (s *handshakeFSM) handleKexReply(payload []byte) error {
	msg := &handshake.MessageKexReply{}
	if err := msg.Unmarshal(payload); err != nil {
		return protocolViolation(err)
	}

	pub, err := s.exchange.clientFinish(s.pending.HostKey, msg)
	if err != nil {
		return err
	}
	if s.cfg.hostKeyCallback != nil {
		if err := s.cfg.hostKeyCallback(s.pending.HostKey, pub); err != nil {
			return fmt.Errorf("%w: host key rejected: %w", ErrSignatureVerification, err)
		}
	}

	return s.finishExchange()
}

// finishExchange derives the new keys, sends NewKeys and switches the
// outbound direction.
func (s *handshakeFSM) finishExchange() error {
	if s.state.sessionID == nil {
		s.state.sessionID = append([]byte{}, s.exchange.exchangeHash...)
	}

	clientServer, serverClient, err := s.exchange.deriveKeys(s.pending, s.state.sessionID)
	s.exchange.zero()
	if err != nil {
		return err
	}

	out, in := clientServer, serverClient
	outAlgs, inAlgs := s.pending.clientServer(), s.pending.serverClient()
	if !s.cfg.isClient {
		out, in = in, out
		outAlgs, inAlgs = inAlgs, outAlgs
	}
	s.state.pendingOut, s.state.pendingIn = out, in

	outDir, err := newPacketDirection(outAlgs, out)
	if err != nil {
		return &InternalError{Err: err}
	}
	if s.pendingInbound, err = newPacketDirection(inAlgs, in); err != nil {
		outDir.zero()

		return &InternalError{Err: err}
	}

	if _, err := s.conn.writeMessage(&handshake.MessageNewKeys{}); err != nil {
		outDir.zero()

		return err
	}
	s.state.installOutbound()
	s.conn.setOutbound(outDir)

	return s.transition(HandshakeKeysPending)
}

func (s *handshakeFSM) handleNewKeys(payload []byte) error {
	if s.current != HandshakeKeysPending {
		return fmt.Errorf("%w: NewKeys in %s", errUnexpectedMessage, s.current)
	}
	msg := &handshake.MessageNewKeys{}
	if err := msg.Unmarshal(payload); err != nil {
		return protocolViolation(err)
	}

	s.state.installInbound()
	s.conn.setInbound(s.pendingInbound)
	s.pendingInbound = nil
	s.peerInKex = false

	if err := s.transition(HandshakeEstablished); err != nil {
		return err
	}
	s.state.algorithms = s.pending
	s.state.established = true
	s.exchange = nil

	return nil
}

// fail moves to Failed and forgets everything negotiated so far.
func (s *handshakeFSM) fail() {
	if s.current != HandshakeFailed {
		_ = s.transition(HandshakeFailed)
	}
	s.exchange.zero()
	s.exchange = nil
	s.pending = Algorithms{}
	s.pendingInbound.zero()
	s.pendingInbound = nil
	s.ignoreNextKexPacket = false
	s.state.clearNegotiated()
}
