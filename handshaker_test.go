// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"testing"

	"github.com/pion/logging"
	"github.com/pion/sshtransport/pkg/crypto/hostkey"
	"github.com/pion/sshtransport/pkg/protocol"
	"github.com/pion/sshtransport/pkg/protocol/handshake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakeStateTransitions(t *testing.T) {
	all := []HandshakeState{
		HandshakeIdle,
		HandshakeAlgorithmsSent,
		HandshakeAlgorithmsExchanged,
		HandshakeKeyExchangeInProgress,
		HandshakeKeysPending,
		HandshakeEstablished,
		HandshakeFailed,
	}
	allowed := map[HandshakeState][]HandshakeState{
		HandshakeIdle:                  {HandshakeAlgorithmsSent, HandshakeFailed},
		HandshakeAlgorithmsSent:        {HandshakeAlgorithmsExchanged, HandshakeFailed},
		HandshakeAlgorithmsExchanged:   {HandshakeKeyExchangeInProgress, HandshakeFailed},
		HandshakeKeyExchangeInProgress: {HandshakeKeysPending, HandshakeFailed},
		HandshakeKeysPending:           {HandshakeEstablished, HandshakeFailed},
		HandshakeEstablished:           {HandshakeAlgorithmsSent, HandshakeFailed},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, next := range allowed[from] {
				want = want || next == to
			}
			assert.Equal(t, want, from.canTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestHandshakeStateString(t *testing.T) {
	assert.Equal(t, "Idle", HandshakeIdle.String())
	assert.Equal(t, "KeysPending", HandshakeKeysPending.String())
	assert.Equal(t, "Failed", HandshakeFailed.String())
	assert.Equal(t, "Unknown", HandshakeState(99).String())
}

// recordingConn collects what the state machine writes.
type recordingConn struct {
	messages []protocol.MessageType
	outbound *packetDirection
	inbound  *packetDirection
}

func (c *recordingConn) writeMessage(msg protocol.Message) ([]byte, error) {
	c.messages = append(c.messages, msg.Type())

	return msg.Marshal()
}

func (c *recordingConn) setOutbound(dir *packetDirection) { c.outbound = dir }

func (c *recordingConn) setInbound(dir *packetDirection) { c.inbound = dir }

func newTestFSM(t *testing.T, config *Config, isClient bool) (*handshakeFSM, *recordingConn) {
	t.Helper()

	cfg, err := newEngineConfig(config, isClient)
	require.NoError(t, err)
	conn := &recordingConn{}
	log := logging.NewDefaultLoggerFactory().NewLogger("sshtransport")

	return newHandshakeFSM(&State{isClient: isClient}, cfg, conn, log), conn
}

func TestHandshakeFSMInvalidTransition(t *testing.T) {
	fsm, _ := newTestFSM(t, &Config{}, true)

	require.ErrorIs(t, fsm.transition(HandshakeEstablished), errInvalidFSMTransition)
	assert.Equal(t, HandshakeIdle, fsm.current)

	require.NoError(t, fsm.begin())
	assert.Equal(t, HandshakeAlgorithmsSent, fsm.current)
	require.ErrorIs(t, fsm.begin(), errInvalidFSMTransition)
}

func TestHandshakeFSMClientSendsExchangeInit(t *testing.T) {
	fsm, conn := newTestFSM(t, &Config{}, true)
	require.NoError(t, fsm.begin())

	peer := testKexInit(Preferences{
		KeyExchanges:      DefaultKeyExchanges(),
		HostKeyAlgorithms: []string{"ssh-ed25519"},
		Ciphers:           DefaultCiphers(),
		MACs:              DefaultMACs(),
		Compressions:      DefaultCompressions(),
	})
	payload, err := peer.Marshal()
	require.NoError(t, err)

	require.NoError(t, fsm.handle(payload))
	assert.Equal(t, HandshakeKeyExchangeInProgress, fsm.current)
	assert.True(t, fsm.peerInKex)
	assert.Equal(t, []protocol.MessageType{
		protocol.MessageTypeKexInit,
		protocol.MessageTypeKexExchangeInit,
	}, conn.messages)

	// A second KexInit in the same exchange is a violation.
	require.ErrorIs(t, fsm.handle(payload), errUnexpectedMessage)
}

func TestHandshakeFSMServerWaits(t *testing.T) {
	fsm, conn := newTestFSM(t, &Config{HostKeys: []hostkey.Record{testHostKey(t, hostkey.FormatED25519)}}, false)

	peer := testKexInit(Preferences{
		KeyExchanges:      DefaultKeyExchanges(),
		HostKeyAlgorithms: hostkey.DefaultFormats(),
		Ciphers:           DefaultCiphers(),
		MACs:              DefaultMACs(),
		Compressions:      DefaultCompressions(),
	})
	payload, err := peer.Marshal()
	require.NoError(t, err)

	// The peer's KexInit arrives before this side sent its own.
	require.NoError(t, fsm.handle(payload))
	assert.Equal(t, HandshakeKeyExchangeInProgress, fsm.current)
	assert.Equal(t, []protocol.MessageType{protocol.MessageTypeKexInit}, conn.messages)
}

func TestHandshakeFSMWrongGuessDropped(t *testing.T) {
	fsm, _ := newTestFSM(t, &Config{
		HostKeys:     []hostkey.Record{testHostKey(t, hostkey.FormatED25519)},
		KeyExchanges: []string{"curve25519-sha256"},
	}, false)
	require.NoError(t, fsm.begin())

	peer := testKexInit(Preferences{
		KeyExchanges:      []string{"ecdh-sha2-nistp521", "curve25519-sha256"},
		HostKeyAlgorithms: []string{"ssh-ed25519"},
		Ciphers:           DefaultCiphers(),
		MACs:              DefaultMACs(),
		Compressions:      DefaultCompressions(),
	})
	peer.FirstKexFollows = true
	payload, err := peer.Marshal()
	require.NoError(t, err)

	require.NoError(t, fsm.handle(payload))
	require.True(t, fsm.ignoreNextKexPacket)

	guess, err := (&handshake.MessageKexExchangeInit{PublicKey: []byte{1, 2, 3}}).Marshal()
	require.NoError(t, err)
	require.NoError(t, fsm.handle(guess))
	assert.False(t, fsm.ignoreNextKexPacket)
	assert.Equal(t, HandshakeKeyExchangeInProgress, fsm.current)
}

func TestHandshakeFSMFailClears(t *testing.T) {
	fsm, _ := newTestFSM(t, &Config{}, true)
	require.NoError(t, fsm.begin())
	fsm.pending = Algorithms{KeyExchange: "curve25519-sha256"}
	fsm.state.algorithms = fsm.pending
	fsm.state.established = true

	fsm.fail()
	assert.Equal(t, HandshakeFailed, fsm.current)
	assert.Equal(t, Algorithms{}, fsm.pending)
	_, ok := fsm.state.Algorithms()
	assert.False(t, ok)

	fsm.fail()
	assert.Equal(t, HandshakeFailed, fsm.current)
}
