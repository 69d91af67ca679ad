// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package hostkey signs the exchange hash on the server and verifies the
// signature on the client
package hostkey

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

var (
	//nolint:err113
	errUnknownFormat = errors.New("unknown host key format")
	//nolint:err113
	errFormatMismatch = errors.New("host key does not match format")
	//nolint:err113
	errSignatureFormat = errors.New("signature format does not match negotiated host key format")
	//nolint:err113
	errNotAlgorithmSigner = errors.New("signer cannot produce rsa-sha2 signatures")
	//nolint:err113
	errNoSigner = errors.New("host key record has no signer")
)

// Host key formats.
const (
	FormatED25519   = ssh.KeyAlgoED25519
	FormatECDSA256  = ssh.KeyAlgoECDSA256
	FormatECDSA384  = ssh.KeyAlgoECDSA384
	FormatECDSA521  = ssh.KeyAlgoECDSA521
	FormatRSASHA512 = ssh.KeyAlgoRSASHA512
	FormatRSASHA256 = ssh.KeyAlgoRSASHA256
	FormatRSA       = ssh.KeyAlgoRSA
	FormatDSS       = ssh.KeyAlgoDSA
)

// DefaultFormats is the list a client accepts when it configures none.
// It names every supported format so that servers holding only legacy
// keys are still reachable.
func DefaultFormats() []string {
	return []string{
		FormatED25519,
		FormatECDSA256,
		FormatECDSA384,
		FormatECDSA521,
		FormatRSASHA512,
		FormatRSASHA256,
		FormatRSA,
		FormatDSS,
	}
}

// Supported reports whether format is a known host key format.
func Supported(format string) bool {
	for _, f := range DefaultFormats() {
		if f == format {
			return true
		}
	}

	return false
}

// keyType returns the public key type a format signs with.
func keyType(format string) string {
	switch format {
	case FormatRSASHA512, FormatRSASHA256:
		return FormatRSA
	default:
		return format
	}
}

// Record is a server host key offered under one format. An RSA key may be
// offered under several formats by holding one Record per format.
type Record struct {
	Format string
	Signer ssh.Signer
}

// NewRecord checks that signer can produce signatures in format.
func NewRecord(format string, signer ssh.Signer) (Record, error) {
	r := Record{Format: format, Signer: signer}

	return r, r.Validate()
}

// RecordsFromSigner returns the records a signer can serve, RSA keys
// are offered with SHA-2 signatures first.
func RecordsFromSigner(signer ssh.Signer) []Record {
	if signer.PublicKey().Type() != FormatRSA {
		return []Record{{Format: signer.PublicKey().Type(), Signer: signer}}
	}

	records := []Record{}
	if _, ok := signer.(ssh.AlgorithmSigner); ok {
		records = append(records,
			Record{Format: FormatRSASHA512, Signer: signer},
			Record{Format: FormatRSASHA256, Signer: signer},
		)
	}

	return append(records, Record{Format: FormatRSA, Signer: signer})
}

// Validate reports whether the record can sign in its format.
func (r Record) Validate() error {
	switch {
	case r.Signer == nil:
		return errNoSigner
	case !Supported(r.Format):
		return fmt.Errorf("%w: %s", errUnknownFormat, r.Format)
	case keyType(r.Format) != r.Signer.PublicKey().Type():
		return fmt.Errorf("%w: %s key for %s", errFormatMismatch, r.Signer.PublicKey().Type(), r.Format)
	}

	if r.Format != FormatRSA && keyType(r.Format) == FormatRSA {
		if _, ok := r.Signer.(ssh.AlgorithmSigner); !ok {
			return errNotAlgorithmSigner
		}
	}

	return nil
}

// PublicKey returns the public key blob sent to the client.
func (r Record) PublicKey() []byte {
	return r.Signer.PublicKey().Marshal()
}

// Sign returns the encoded signature of data in the record's format.
func (r Record) Sign(rand io.Reader, data []byte) ([]byte, error) {
	var (
		sig *ssh.Signature
		err error
	)
	if as, ok := r.Signer.(ssh.AlgorithmSigner); ok && keyType(r.Format) == FormatRSA {
		sig, err = as.SignWithAlgorithm(rand, data, r.Format)
	} else {
		sig, err = r.Signer.Sign(rand, data)
	}
	if err != nil {
		return nil, err
	}
	if sig.Format != r.Format {
		return nil, fmt.Errorf("%w: got %s, want %s", errSignatureFormat, sig.Format, r.Format)
	}

	return ssh.Marshal(sig), nil
}

// Formats returns the formats of records in order, which is what a server
// offers.
func Formats(records []Record) []string {
	formats := make([]string, 0, len(records))
	for _, r := range records {
		formats = append(formats, r.Format)
	}

	return formats
}

// Find returns the record for format.
func Find(records []Record, format string) (Record, bool) {
	for _, r := range records {
		if r.Format == format {
			return r, true
		}
	}

	return Record{}, false
}

// Verify parses the host key blob, checks that it matches format and that
// sigBlob is a valid signature of data in that format.
func Verify(format string, blob, data, sigBlob []byte) (ssh.PublicKey, error) {
	if !Supported(format) {
		return nil, fmt.Errorf("%w: %s", errUnknownFormat, format)
	}

	pub, err := ssh.ParsePublicKey(blob)
	if err != nil {
		return nil, err
	}
	if pub.Type() != keyType(format) {
		return nil, fmt.Errorf("%w: %s key for %s", errFormatMismatch, pub.Type(), format)
	}

	var sig ssh.Signature
	if err := ssh.Unmarshal(sigBlob, &sig); err != nil {
		return nil, err
	}
	if sig.Format != format {
		return nil, fmt.Errorf("%w: got %s, want %s", errSignatureFormat, sig.Format, format)
	}
	if err := pub.Verify(data, &sig); err != nil {
		return nil, err
	}

	return pub, nil
}
