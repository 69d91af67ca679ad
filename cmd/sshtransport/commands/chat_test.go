// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package commands

import (
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/pion/transport/v3/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	lock      sync.Mutex
	written   [][]byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) Read([]byte) (int, error) {
	<-c.closed

	return 0, io.EOF
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.written = append(c.written, append([]byte{}, p...))

	return len(p), nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })

	return nil
}

func TestDecodeChat(t *testing.T) {
	for name, tc := range map[string]struct {
		payload []byte
		want    string
		wantErr error
	}{
		"Text":      {payload: encodeChat("hi\n"), want: "hi\n"},
		"EmptyText": {payload: []byte{chatMessage}, want: ""},
		"Empty":     {payload: nil, wantErr: errNotChatMessage},
		"OtherType": {payload: []byte{94, 'x'}, wantErr: errNotChatMessage},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			got, err := decodeChat(tc.payload)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestChatSendsLinesUntilExit(t *testing.T) {
	conn := newFakeConn()

	require.NoError(t, chat(conn, strings.NewReader("hello\n exit \nignored\n"), io.Discard))

	conn.lock.Lock()
	defer conn.lock.Unlock()
	assert.Equal(t, [][]byte{encodeChat("hello\n")}, conn.written)
	select {
	case <-conn.closed:
	default:
		t.Fatal("connection was not closed")
	}
}

func TestChatReturnsOnPeerClose(t *testing.T) {
	conn := newFakeConn()
	in, inWriter := io.Pipe()
	defer func() {
		_ = inWriter.Close()
	}()

	require.NoError(t, conn.Close())
	require.NoError(t, chat(conn, in, io.Discard))
}

func TestChatStopsReadingInputAfterReturn(t *testing.T) {
	report := test.CheckRoutines(t)
	defer report()

	conn := newFakeConn()

	// Lines after exit are left unread and must not strand the input reader.
	require.NoError(t, chat(conn, strings.NewReader("exit\nfirst\nsecond\n"), io.Discard))

	conn.lock.Lock()
	defer conn.lock.Unlock()
	assert.Empty(t, conn.written)
}
