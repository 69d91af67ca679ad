// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

// State holds the session state of a connection: the negotiated
// algorithms, the session identifier, the packet sequence numbers and the
// derived key material of both directions.
//
// Only the handshaker installs keys and algorithms, only the packet codec
// advances sequence numbers.
type State struct {
	algorithms  Algorithms
	established bool

	sessionID []byte

	sendSequence uint32
	recvSequence uint32

	isClient bool

	// Keys derived by the running key exchange, not yet in use.
	pendingOut, pendingIn *directionKeys
	// Keys protecting each direction.
	activeOut, activeIn *directionKeys
}

// directionKeys is the key material of one direction.
type directionKeys struct {
	iv     []byte
	key    []byte
	macKey []byte
}

func (k *directionKeys) zero() {
	if k == nil {
		return
	}
	for _, b := range [][]byte{k.iv, k.key, k.macKey} {
		for i := range b {
			b[i] = 0
		}
	}
	k.iv, k.key, k.macKey = nil, nil, nil
}

// Algorithms returns the algorithms of the last completed key exchange.
// The second value is false until the first one completes.
func (s State) Algorithms() (Algorithms, bool) {
	return s.algorithms, s.established
}

// SessionID returns the exchange hash of the first key exchange.
func (s State) SessionID() []byte {
	return append([]byte(nil), s.sessionID...)
}

// SendSequence returns the sequence number of the next packet sent.
func (s State) SendSequence() uint32 { return s.sendSequence }

// RecvSequence returns the sequence number of the next packet received.
func (s State) RecvSequence() uint32 { return s.recvSequence }

// IsClient reports the role of this side.
func (s State) IsClient() bool { return s.isClient }

// snapshot returns a copy without key material.
func (s *State) snapshot() State {
	return State{
		algorithms:   s.algorithms,
		established:  s.established,
		sessionID:    s.SessionID(),
		sendSequence: s.sendSequence,
		recvSequence: s.recvSequence,
		isClient:     s.isClient,
	}
}

// clearNegotiated forgets the result of the previous negotiation.
func (s *State) clearNegotiated() {
	s.algorithms = Algorithms{}
	s.established = false
}

// installOutbound moves the pending outbound keys into use.
func (s *State) installOutbound() {
	s.activeOut.zero()
	s.activeOut, s.pendingOut = s.pendingOut, nil
}

// installInbound moves the pending inbound keys into use.
func (s *State) installInbound() {
	s.activeIn.zero()
	s.activeIn, s.pendingIn = s.pendingIn, nil
}

// invalidate zeroes every key and forgets the session. It is safe to call
// more than once.
func (s *State) invalidate() {
	for _, k := range []*directionKeys{s.pendingOut, s.pendingIn, s.activeOut, s.activeIn} {
		k.zero()
	}
	s.pendingOut, s.pendingIn, s.activeOut, s.activeIn = nil, nil, nil, nil

	for i := range s.sessionID {
		s.sessionID[i] = 0
	}
	s.sessionID = nil
	s.clearNegotiated()
}
