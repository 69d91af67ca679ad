// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pion/sshtransport/pkg/crypto/hostkey"
	"github.com/pion/sshtransport/pkg/protocol/disconnect"
	"github.com/pion/transport/v3/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serverConfig(t *testing.T, cfg *Config) *Config {
	t.Helper()

	if cfg.HostKeys == nil {
		cfg.HostKeys = []hostkey.Record{testHostKey(t, hostkey.FormatED25519)}
	}

	return cfg
}

// pipeConn runs both handshakes over an in-memory pipe.
func pipeConn(t *testing.T, clientCfg, serverCfg *Config) (*Conn, *Conn, error, error) {
	t.Helper()

	ca, cb := net.Pipe()
	serverCfg = serverConfig(t, serverCfg)

	type result struct {
		c   *Conn
		err error
	}
	c := make(chan result)

	go func() {
		client, err := Client(ca, clientCfg)
		c <- result{client, err}
	}()

	server, serverErr := Server(cb, serverCfg)
	res := <-c

	return res.c, server, res.err, serverErr
}

func establishedConns(t *testing.T, clientCfg, serverCfg *Config) (*Conn, *Conn) {
	t.Helper()

	client, server, clientErr, serverErr := pipeConn(t, clientCfg, serverCfg)
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)

	return client, server
}

func closeConns(t *testing.T, conns ...*Conn) {
	t.Helper()

	for _, c := range conns {
		require.NoError(t, c.Close())
	}
}

func TestConnDuplex(t *testing.T) {
	// Limit runtime in case of deadlocks
	lim := test.TimeOut(time.Second * 20)
	defer lim.Stop()

	// Check for leaking routines
	report := test.CheckRoutines(t)
	defer report()

	client, server := establishedConns(t, &Config{}, &Config{})
	defer closeConns(t, client, server)

	const msgCount = 100
	messages := make([][]byte, msgCount)
	for i := range messages {
		messages[i] = make([]byte, 1+i*20)
		_, err := rand.Read(messages[i])
		require.NoError(t, err)
		messages[i][0] = 94
	}

	var wg sync.WaitGroup
	for _, pair := range [][2]*Conn{{client, server}, {server, client}} {
		writer, reader := pair[0], pair[1]
		wg.Add(2)
		go func() {
			defer wg.Done()
			for _, msg := range messages {
				_, err := writer.Write(msg)
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			buf := make([]byte, 4096)
			for _, want := range messages {
				n, err := reader.Read(buf)
				if !assert.NoError(t, err) {
					return
				}
				assert.True(t, bytes.Equal(want, buf[:n]))
			}
		}()
	}
	wg.Wait()
}

func TestConnState(t *testing.T) {
	report := test.CheckRoutines(t)
	defer report()

	client, server := establishedConns(t, &Config{}, &Config{})
	defer closeConns(t, client, server)

	clientAlgs, ok := client.Algorithms()
	require.True(t, ok)
	serverAlgs, ok := server.Algorithms()
	require.True(t, ok)
	assert.Equal(t, clientAlgs, serverAlgs)
	assert.Equal(t, client.SessionID(), server.SessionID())

	state := client.ConnectionState()
	assert.True(t, state.IsClient())
	serverState := server.ConnectionState()
	assert.False(t, serverState.IsClient())
	algs, ok := state.Algorithms()
	assert.True(t, ok)
	assert.Equal(t, clientAlgs, algs)
	assert.Nil(t, state.activeOut)
	assert.Nil(t, state.activeIn)
}

func TestConnCloseDeliversEOF(t *testing.T) {
	lim := test.TimeOut(time.Second * 10)
	defer lim.Stop()

	report := test.CheckRoutines(t)
	defer report()

	disconnects := make(chan disconnect.Reason, 1)
	client, server := establishedConns(t, &Config{}, &Config{
		OnDisconnect: func(reason disconnect.Reason, _ string) { disconnects <- reason },
	})

	_, err := client.Write([]byte{60, 'b', 'y', 'e'})
	require.NoError(t, err)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	buf := make([]byte, 64)
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{60, 'b', 'y', 'e'}, buf[:n])

	_, err = server.Read(buf)
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, disconnect.ByApplication, <-disconnects)

	_, err = client.Write([]byte{60})
	require.ErrorIs(t, err, ErrConnClosed)

	require.NoError(t, server.Close())
}

func TestConnNegotiationFailure(t *testing.T) {
	lim := test.TimeOut(time.Second * 10)
	defer lim.Stop()

	report := test.CheckRoutines(t)
	defer report()

	var fatalCalls int
	onFatal := func(error) { fatalCalls++ }

	client, server, clientErr, serverErr := pipeConn(t,
		&Config{HostKeyAlgorithms: []string{hostkey.FormatECDSA256}, OnFatalError: onFatal},
		&Config{OnFatalError: onFatal},
	)
	assert.Nil(t, client)
	assert.Nil(t, server)

	for _, err := range []error{clientErr, serverErr} {
		require.ErrorIs(t, err, ErrNegotiationFailed)
		var handshakeErr *HandshakeError
		require.ErrorAs(t, err, &handshakeErr)
	}
	assert.Zero(t, fatalCalls)
}

func TestConnHandshakeContext(t *testing.T) {
	lim := test.TimeOut(time.Second * 10)
	defer lim.Stop()

	report := test.CheckRoutines(t)
	defer report()

	ca, cb := net.Pipe()
	drained := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, cb)
		_ = cb.Close()
		close(drained)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	conn, err := ClientWithContext(ctx, ca, &Config{})
	assert.Nil(t, conn)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	var handshakeErr *HandshakeError
	require.ErrorAs(t, err, &handshakeErr)
	<-drained
}

func TestConnRekey(t *testing.T) {
	lim := test.TimeOut(time.Second * 20)
	defer lim.Stop()

	report := test.CheckRoutines(t)
	defer report()

	handshakes := make(chan Algorithms, 4)
	client, server := establishedConns(t, &Config{
		OnHandshakeComplete: func(algs Algorithms) { handshakes <- algs },
	}, &Config{})
	defer closeConns(t, client, server)
	<-handshakes

	sessionID := client.SessionID()
	require.NoError(t, client.Rekey())
	_, err := client.Write([]byte{70, 1})
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{70, 1}, buf[:n])

	<-handshakes
	assert.Equal(t, sessionID, client.SessionID())
	assert.Equal(t, sessionID, server.SessionID())

	_, err = server.Write([]byte{71, 2})
	require.NoError(t, err)
	n, err = client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{71, 2}, buf[:n])
}

func TestConnReadErrors(t *testing.T) {
	report := test.CheckRoutines(t)
	defer report()

	client, server := establishedConns(t, &Config{}, &Config{})
	defer closeConns(t, client, server)

	require.NoError(t, client.SetReadDeadline(time.Now()))
	_, err := client.Read(make([]byte, 16))
	require.ErrorIs(t, err, errDeadlineExceeded)
	require.NoError(t, client.SetReadDeadline(time.Time{}))

	_, err = server.Write(bytes.Repeat([]byte{80}, 100))
	require.NoError(t, err)
	_, err = client.Read(make([]byte, 10))
	require.ErrorIs(t, err, errBufferTooSmall)

	_, err = client.Write([]byte{1, 2, 3})
	require.ErrorIs(t, err, errInvalidPayload)

	// The connection is still usable after temporary errors.
	_, err = server.Write([]byte{81})
	require.NoError(t, err)
	n, err := client.Read(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConnWriteDeadline(t *testing.T) {
	report := test.CheckRoutines(t)
	defer report()

	client, server := establishedConns(t, &Config{}, &Config{})
	defer closeConns(t, client, server)

	require.NoError(t, client.SetWriteDeadline(time.Now().Add(-time.Second)))
	n, err := client.Write([]byte{192, 'x'})
	require.ErrorIs(t, err, errDeadlineExceeded)
	assert.Equal(t, 0, n)

	var netErr net.Error
	require.True(t, errors.As(err, &netErr))
	assert.True(t, netErr.Timeout())

	// An expired deadline must not reach the underlying conn.
	time.Sleep(200 * time.Millisecond)
	assert.False(t, client.isClosing())

	require.NoError(t, client.SetWriteDeadline(time.Time{}))
	n, err = client.Write([]byte{192, 'y'})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	buf := make([]byte, 16)
	n, err = server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{192, 'y'}, buf[:n])
}

func TestConnInvalidArguments(t *testing.T) {
	_, err := Client(nil, &Config{})
	require.ErrorIs(t, err, errNilNextConn)

	ca, cb := net.Pipe()
	defer func() {
		_ = ca.Close()
		_ = cb.Close()
	}()

	_, err = Client(ca, nil)
	require.ErrorIs(t, err, errNoConfigProvided)

	_, err = Server(cb, &Config{})
	require.ErrorIs(t, err, errNoHostKeys)
}

func TestConnWithOptions(t *testing.T) {
	lim := test.TimeOut(time.Second * 10)
	defer lim.Stop()

	report := test.CheckRoutines(t)
	defer report()

	ca, cb := net.Pipe()
	record := testHostKey(t, hostkey.FormatECDSA256)

	type result struct {
		c   *Conn
		err error
	}
	c := make(chan result)
	go func() {
		client, err := ClientWithOptions(ca,
			WithHostKeyAlgorithms(hostkey.FormatECDSA256),
			WithCiphers("aes256-ctr"),
			WithMACs("hmac-sha2-512"),
			WithSoftwareVersion("client"),
		)
		c <- result{client, err}
	}()

	server, err := ServerWithOptions(cb, WithHostKeys(record), WithCompressions("zlib", "none"))
	require.NoError(t, err)
	res := <-c
	require.NoError(t, res.err)

	algs, ok := res.c.Algorithms()
	require.True(t, ok)
	assert.Equal(t, hostkey.FormatECDSA256, algs.HostKey)
	assert.Equal(t, "aes256-ctr", algs.CipherClientServer)
	assert.Equal(t, "hmac-sha2-512", algs.MACServerClient)
	assert.Equal(t, "none", algs.CompressionClientServer)

	closeConns(t, res.c, server)
}

func TestConnTransportFailure(t *testing.T) {
	lim := test.TimeOut(time.Second * 10)
	defer lim.Stop()

	report := test.CheckRoutines(t)
	defer report()

	fatal := make(chan error, 1)
	client, server := establishedConns(t, &Config{OnFatalError: func(err error) { fatal <- err }}, &Config{})
	defer closeConns(t, client, server)

	// Pull the stream out from under the client.
	require.NoError(t, server.nextConn.Close())

	err := <-fatal
	assert.Equal(t, ErrorKindTransportFailure, ErrorKindOf(err))

	_, err = client.Read(make([]byte, 16))
	require.True(t, errors.Is(err, ErrTransport))
}
