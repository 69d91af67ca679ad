// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package protocol

import (
	"bytes"
	"strings"
)

const (
	// MaxIdentificationLength is the longest identification line, CR LF included.
	//
	// https://tools.ietf.org/html/rfc4253#section-4.2
	MaxIdentificationLength = 255

	maxPreambleLines = 32

	protoVersion2      = "2.0"
	protoVersionCompat = "1.99"
)

// Identification is the protocol version exchange line each peer sends
// before any binary packet.
type Identification struct {
	SoftwareVersion string
	Comments        string
}

// String returns the identification line without the trailing CR LF, which
// is also the form hashed into the exchange hash.
func (i Identification) String() string {
	s := "SSH-" + protoVersion2 + "-" + i.SoftwareVersion
	if i.Comments != "" {
		s += " " + i.Comments
	}

	return s
}

// Marshal encodes the identification line including CR LF.
func (i Identification) Marshal() ([]byte, error) {
	if i.SoftwareVersion == "" || strings.ContainsAny(i.SoftwareVersion, " -\r\n") {
		return nil, errInvalidIdentification
	}
	line := i.String() + "\r\n"
	if len(line) > MaxIdentificationLength {
		return nil, errIdentificationTooLong
	}

	return []byte(line), nil
}

// ParseIdentification parses a single identification line, without CR LF.
func ParseIdentification(line []byte) (Identification, error) {
	if !bytes.HasPrefix(line, []byte("SSH-")) {
		return Identification{}, errInvalidIdentification
	}
	for _, c := range line {
		if c < 0x20 || c > 0x7e {
			return Identification{}, errInvalidIdentification
		}
	}

	rest := string(line[len("SSH-"):])
	proto, software, ok := strings.Cut(rest, "-")
	if !ok {
		return Identification{}, errInvalidIdentification
	}
	if proto != protoVersion2 && proto != protoVersionCompat {
		return Identification{}, errUnsupportedProtocol
	}

	id := Identification{SoftwareVersion: software}
	if sw, comments, found := strings.Cut(software, " "); found {
		id.SoftwareVersion = sw
		id.Comments = comments
	}
	if id.SoftwareVersion == "" {
		return Identification{}, errInvalidIdentification
	}

	return id, nil
}

// IdentificationReader accumulates incoming bytes until a complete
// identification line has been seen. Lines that do not start with "SSH-"
// are skipped, as a server may send them before its identification.
type IdentificationReader struct {
	buf   []byte
	lines int
}

// Push appends data and tries to extract the identification line. On
// success it returns the raw line (without CR LF) and whatever bytes
// followed it in the buffer.
func (r *IdentificationReader) Push(data []byte) (line, rest []byte, ok bool, err error) {
	r.buf = append(r.buf, data...)

	for {
		idx := bytes.IndexByte(r.buf, '\n')
		if idx < 0 {
			if len(r.buf) > MaxIdentificationLength {
				return nil, nil, false, errIdentificationTooLong
			}

			return nil, nil, false, nil
		}
		if idx+1 > MaxIdentificationLength {
			return nil, nil, false, errIdentificationTooLong
		}

		candidate := bytes.TrimSuffix(r.buf[:idx], []byte("\r"))
		remaining := r.buf[idx+1:]
		if bytes.HasPrefix(candidate, []byte("SSH-")) {
			line = append([]byte{}, candidate...)
			rest = append([]byte{}, remaining...)
			r.buf = nil

			return line, rest, true, nil
		}

		r.lines++
		if r.lines > maxPreambleLines {
			return nil, nil, false, errTooManyPreambleLines
		}
		r.buf = remaining
	}
}
