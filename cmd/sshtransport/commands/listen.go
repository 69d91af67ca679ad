// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pion/sshtransport"
	"github.com/pion/sshtransport/pkg/protocol/disconnect"
	"github.com/spf13/cobra"
)

// listen <address>: accept clients and relay chat messages to all of them.
func listenCmd() *cobra.Command {
	var hostKeyPath string

	cmd := &cobra.Command{
		Use:   "listen <address>",
		Short: "Accept connections and broadcast stdin to every client",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			records, err := loadHostKeys(hostKeyPath)
			if err != nil {
				return err
			}
			for _, record := range records {
				fmt.Printf("Host key %s %s\n", record.Format, fingerprint(record))
			}

			config := &sshtransport.Config{
				HostKeys:       records,
				KeyExchanges:   keyExchanges,
				Ciphers:        ciphers,
				MACs:           macs,
				Compressions:   compressions,
				RekeyThreshold: rekeyBytes,
				LoggerFactory:  loggerFactory,
				OnDisconnect: func(reason disconnect.Reason, description string) {
					fmt.Printf("Client disconnected: %s %s\n", reason, description)
				},
			}
			listener, err := sshtransport.Listen("tcp", args[0], config)
			if err != nil {
				return err
			}
			defer func() {
				_ = listener.Close()
			}()
			fmt.Printf("Listening on %s\n", listener.Addr())

			acceptor, ok := listener.(acceptHandshaker)
			if !ok {
				return errNoHandshaker
			}

			h := newHub()
			go h.chat(os.Stdin)

			for {
				hs, err := acceptor.AcceptHandshake()
				if err != nil {
					return err
				}
				go h.handshake(hs)
			}
		},
	}
	cmd.Flags().StringVar(&hostKeyPath, "host-key", "", "private key file (default: generate an ed25519 key)")

	return cmd
}

type acceptHandshaker interface {
	AcceptHandshake() (sshtransport.Handshaker, error)
}

var errNoHandshaker = errors.New("listener does not support parallel handshakes")

// hub is a helper to handle one to many chat.
type hub struct {
	conns map[string]*sshtransport.Conn
	lock  sync.RWMutex
}

func newHub() *hub {
	return &hub{conns: make(map[string]*sshtransport.Conn)}
}

func (h *hub) handshake(hs sshtransport.Handshaker) {
	conn, err := hs.Handshake()
	if err != nil {
		fmt.Printf("Handshake failed: %v\n", err)

		return
	}
	printAlgorithms(conn)
	h.register(conn)
}

func (h *hub) register(conn *sshtransport.Conn) {
	fmt.Printf("Connected to %s\n", conn.RemoteAddr())
	h.lock.Lock()
	defer h.lock.Unlock()

	h.conns[conn.RemoteAddr().String()] = conn

	go h.readLoop(conn)
}

func (h *hub) readLoop(conn *sshtransport.Conn) {
	b := make([]byte, bufSize)
	for {
		n, err := conn.Read(b)
		if err != nil {
			h.unregister(conn)

			return
		}
		if text, err := decodeChat(b[:n]); err == nil {
			fmt.Printf("Got message from %s: %s", conn.RemoteAddr(), text)
		}
	}
}

func (h *hub) unregister(conn *sshtransport.Conn) {
	fmt.Println("Disconnecting", conn.RemoteAddr())
	h.lock.Lock()
	defer h.lock.Unlock()
	delete(h.conns, conn.RemoteAddr().String())
	_ = conn.Close()
}

func (h *hub) broadcast(msg []byte) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for _, conn := range h.conns {
		if _, err := conn.Write(msg); err != nil {
			fmt.Printf("Failed to write message to %s: %v\n", conn.RemoteAddr(), err)
		}
	}
}

func (h *hub) chat(in io.Reader) {
	reader := bufio.NewReader(in)
	for {
		msg, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		h.broadcast(encodeChat(msg))
	}
}
