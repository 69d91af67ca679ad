// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	bufSize = 8192

	// chatMessage is a message number from the local extension range.
	chatMessage = 192
)

var errNotChatMessage = errors.New("not a chat message")

func encodeChat(text string) []byte {
	return append([]byte{chatMessage}, text...)
}

func decodeChat(payload []byte) (string, error) {
	if len(payload) == 0 || payload[0] != chatMessage {
		return "", errNotChatMessage
	}

	return string(payload[1:]), nil
}

// chat simulates a simple text chat session over the connection. It
// returns once the peer goes away or "exit" is typed.
func chat(conn io.ReadWriteCloser, in io.Reader, out io.Writer) error {
	done := make(chan error, 1)
	go func() {
		b := make([]byte, bufSize)
		for {
			n, err := conn.Read(b)
			if err != nil {
				done <- err

				return
			}
			text, err := decodeChat(b[:n])
			if err != nil {
				fmt.Fprintf(out, "Ignoring message type %d\n", b[0])

				continue
			}
			fmt.Fprintf(out, "Got message: %s", text)
		}
	}()

	lines := make(chan string)
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		reader := bufio.NewReader(in)
		for {
			text, err := reader.ReadString('\n')
			if err != nil {
				close(lines)

				return
			}
			select {
			case lines <- text:
			case <-stopped:
				return
			}
		}
	}()

	for {
		select {
		case err := <-done:
			if errors.Is(err, io.EOF) {
				return nil
			}

			return err
		case text, ok := <-lines:
			if !ok || strings.TrimSpace(text) == "exit" {
				return conn.Close()
			}
			if _, err := conn.Write(encodeChat(text)); err != nil {
				return err
			}
		}
	}
}
