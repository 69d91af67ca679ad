// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package sshtransport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pion/sshtransport/pkg/crypto/ciphersuite"
	"github.com/pion/sshtransport/pkg/crypto/compression"
	"github.com/pion/sshtransport/pkg/crypto/mac"
)

const (
	lengthFieldLen   = 4
	paddingFieldLen  = 1
	minPaddingLength = 4
	minBlockSize     = 8
)

// packetDirection is the protection applied to one direction of the
// packet stream.
type packetDirection struct {
	cipher       ciphersuite.Cipher
	mac          *mac.MAC
	compressor   compression.Compressor
	decompressor compression.Decompressor
}

func plainDirection() *packetDirection {
	none, _ := compression.ForName(compression.NameNone) //nolint:errcheck

	return &packetDirection{
		cipher:       ciphersuite.None{},
		compressor:   none.NewCompressor(),
		decompressor: none.NewDecompressor(),
	}
}

// newPacketDirection builds the protection for one direction from the
// negotiated names and its derived keys.
func newPacketDirection(algs directionAlgorithms, keys *directionKeys) (*packetDirection, error) {
	suite, err := ciphersuite.ForName(algs.cipher)
	if err != nil {
		return nil, err
	}
	c, err := suite.New(keys.key, keys.iv)
	if err != nil {
		return nil, err
	}

	dir := &packetDirection{cipher: c}
	if !suite.AEAD() {
		alg, err := mac.ForName(algs.mac)
		if err != nil {
			return nil, err
		}
		dir.mac = alg.New(keys.macKey)
	}

	comp, err := compression.ForName(algs.compression)
	if err != nil {
		return nil, err
	}
	dir.compressor = comp.NewCompressor()
	dir.decompressor = comp.NewDecompressor()

	return dir, nil
}

// zero wipes the keys held by the cipher and the MAC.
func (d *packetDirection) zero() {
	if d == nil {
		return
	}
	d.cipher.Zero()
	if d.mac != nil {
		d.mac.Zero()
	}
}

func (d *packetDirection) blockSize() int {
	return max(d.cipher.BlockSize(), minBlockSize)
}

func (d *packetDirection) macSize() int {
	if d.mac == nil {
		return 0
	}

	return d.mac.Size()
}

// packetCodec frames outgoing payloads and deframes incoming bytes. Each
// direction is switched to new keys on its own.
type packetCodec struct {
	state *State

	out, in *packetDirection

	rand          io.Reader
	maxPacketSize int

	buf           []byte
	pendingLength uint32
	lengthKnown   bool
}

func newPacketCodec(state *State, rand io.Reader, maxPacketSize int) *packetCodec {
	return &packetCodec{
		state:         state,
		out:           plainDirection(),
		in:            plainDirection(),
		rand:          rand,
		maxPacketSize: maxPacketSize,
	}
}

// encode returns the wire form of payload and advances the send sequence.
func (c *packetCodec) encode(payload []byte) ([]byte, error) {
	dir := c.out

	body := payload
	if len(payload) > 0 {
		var err error
		if body, err = dir.compressor.Compress(payload); err != nil {
			return nil, err
		}
	}

	bs := dir.blockSize()
	aligned := lengthFieldLen + paddingFieldLen + len(body)
	if dir.cipher.AEAD() {
		aligned -= lengthFieldLen
	}
	padLen := bs - aligned%bs
	if padLen < minPaddingLength {
		padLen += bs
	}

	length := paddingFieldLen + len(body) + padLen
	frame := make([]byte, lengthFieldLen+length)
	binary.BigEndian.PutUint32(frame, uint32(length)) //nolint:gosec // G115
	frame[lengthFieldLen] = byte(padLen)
	copy(frame[lengthFieldLen+paddingFieldLen:], body)
	if _, plain := dir.cipher.(ciphersuite.None); !plain {
		if _, err := io.ReadFull(c.rand, frame[len(frame)-padLen:]); err != nil {
			return nil, err
		}
	}

	seq := c.state.sendSequence
	var tag []byte
	if dir.mac != nil {
		tag = dir.mac.Compute(seq, frame)
	}
	out, err := dir.cipher.Encrypt(seq, frame)
	if err != nil {
		return nil, err
	}
	c.state.sendSequence++

	return append(out, tag...), nil
}

// push appends received bytes.
func (c *packetCodec) push(data []byte) {
	c.buf = append(c.buf, data...)
}

// decode returns the next complete payload. ok is false when more bytes
// are needed. Any error is a protocol violation and ends the connection.
func (c *packetCodec) decode() (payload []byte, ok bool, err error) {
	dir := c.in
	seq := c.state.recvSequence

	if !c.lengthKnown {
		first := dir.cipher.FirstBlockSize()
		if len(c.buf) < first {
			return nil, false, nil
		}
		length, err := dir.cipher.DecryptLength(seq, c.buf[:first])
		if err != nil {
			return nil, false, protocolViolation(err)
		}
		if err := c.checkLength(dir, length); err != nil {
			return nil, false, err
		}
		c.pendingLength, c.lengthKnown = length, true
	}

	length := int(c.pendingLength)
	frameLen := lengthFieldLen + length + dir.cipher.TagSize()
	total := frameLen + dir.macSize()
	if len(c.buf) < total {
		return nil, false, nil
	}

	frame, err := dir.cipher.Decrypt(seq, c.buf[:frameLen])
	if errors.Is(err, ciphersuite.ErrDecryptPacket) {
		// A failed AEAD tag is a MAC failure.
		return nil, false, fmt.Errorf("%w: %w", errMACMismatch, err)
	}
	if err != nil {
		return nil, false, protocolViolation(err)
	}
	if dir.mac != nil && !dir.mac.Verify(seq, frame[:lengthFieldLen+length], c.buf[frameLen:total]) {
		return nil, false, errMACMismatch
	}

	padLen := int(frame[lengthFieldLen])
	if padLen < minPaddingLength || padLen+paddingFieldLen > length {
		return nil, false, errInvalidPadding
	}
	payload = append([]byte{}, frame[lengthFieldLen+paddingFieldLen:lengthFieldLen+length-padLen]...)

	c.buf = c.buf[total:]
	if len(c.buf) == 0 {
		c.buf = nil
	}
	c.lengthKnown = false
	c.state.recvSequence++

	if len(payload) > 0 {
		if payload, err = dir.decompressor.Decompress(payload); err != nil {
			return nil, false, protocolViolation(err)
		}
	}

	return payload, true, nil
}

func (c *packetCodec) checkLength(dir *packetDirection, length uint32) error {
	switch {
	case int64(length) > int64(c.maxPacketSize):
		return fmt.Errorf("%w: %d > %d", errPacketTooLarge, length, c.maxPacketSize)
	case length < paddingFieldLen+minPaddingLength:
		return errInvalidPadding
	}

	aligned := int64(length)
	if !dir.cipher.AEAD() {
		aligned += lengthFieldLen
	}
	if aligned%int64(dir.blockSize()) != 0 {
		return errPacketMisaligned
	}

	return nil
}

// maxPayload is the largest payload accepted for sending.
func (c *packetCodec) maxPayload() int {
	return c.maxPacketSize - packetOverhead
}

// setOutbound switches the packets sent from now on to dir and wipes the
// previous direction.
func (c *packetCodec) setOutbound(dir *packetDirection) {
	if c.out != dir {
		c.out.zero()
	}
	c.out = dir
}

// setInbound switches the packets received from now on to dir and wipes
// the previous direction.
func (c *packetCodec) setInbound(dir *packetDirection) {
	if c.in != dir {
		c.in.zero()
	}
	c.in = dir
}

// reset wipes the ciphers of both directions and drops buffered bytes.
func (c *packetCodec) reset() {
	c.out.zero()
	c.in.zero()
	c.out = plainDirection()
	c.in = plainDirection()
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.buf = nil
	c.lengthKnown = false
}
