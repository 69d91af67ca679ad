// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"crypto/rand"
	"fmt"
	"net"
	"testing"

	"github.com/pion/sshtransport/pkg/crypto/ciphersuite"
	"github.com/pion/sshtransport/pkg/crypto/compression"
	"github.com/pion/sshtransport/pkg/crypto/hostkey"
	"github.com/pion/sshtransport/pkg/crypto/mac"
)

func benchmarkConn(b *testing.B, cipher string, n int64) {
	b.Run(fmt.Sprintf("%s/%d", cipher, n), func(b *testing.B) {
		record, err := hostkey.Generate(hostkey.FormatED25519, rand.Reader)
		if err != nil {
			b.Fatal(err)
		}

		ca, cb := net.Pipe()
		server := make(chan *Conn)
		go func() {
			s, sErr := Server(cb, &Config{HostKeys: []hostkey.Record{record}, Ciphers: []string{cipher}})
			if sErr != nil {
				b.Error(sErr)
			}
			server <- s
		}()
		client, err := Client(ca, &Config{Ciphers: []string{cipher}})
		if err != nil {
			b.Fatal(err)
		}
		s := <-server
		if s == nil {
			b.FailNow()
		}
		defer func() {
			_ = client.Close()
			_ = s.Close()
		}()

		hw := make([]byte, n)
		hw[0] = 94
		b.ReportAllocs()
		b.SetBytes(int64(len(hw)))
		b.ResetTimer()
		go func() {
			for i := 0; i < b.N; i++ {
				if _, cErr := client.Write(hw); cErr != nil {
					b.Error(cErr)

					return
				}
			}
		}()
		buf := make([]byte, 4096)
		for i := 0; i < b.N; i++ {
			if _, err = s.Read(buf); err != nil {
				b.Error(err)

				return
			}
		}
	})
}

func BenchmarkConnReadWrite(b *testing.B) {
	for _, cipher := range []string{ciphersuite.NameAES128CTR, ciphersuite.NameAES256GCM, ciphersuite.NameChaCha20Poly1305} {
		for _, n := range []int64{16, 128, 512, 1024, 2048} {
			benchmarkConn(b, cipher, n)
		}
	}
}

func BenchmarkPacketCodec(b *testing.B) {
	algs := directionAlgorithms{cipher: ciphersuite.NameAES128CTR, mac: mac.NameHMACSHA256, compression: compression.NameNone}
	keys := &directionKeys{key: make([]byte, 16), iv: make([]byte, 16), macKey: make([]byte, 32)}
	out, err := newPacketDirection(algs, keys)
	if err != nil {
		b.Fatal(err)
	}
	in, err := newPacketDirection(algs, keys)
	if err != nil {
		b.Fatal(err)
	}
	sender := newPacketCodec(&State{}, rand.Reader, DefaultMaxPacketSize)
	sender.setOutbound(out)
	receiver := newPacketCodec(&State{}, rand.Reader, DefaultMaxPacketSize)
	receiver.setInbound(in)

	payload := make([]byte, 1024)
	payload[0] = 94
	b.ReportAllocs()
	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pkt, err := sender.encode(payload)
		if err != nil {
			b.Fatal(err)
		}
		receiver.push(pkt)
		if _, ok, err := receiver.decode(); err != nil || !ok {
			b.Fatal(ok, err)
		}
	}
}
