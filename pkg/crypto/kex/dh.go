// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package kex

import (
	"crypto"
	"crypto/rand"
	_ "crypto/sha1" // register SHA-1
	"io"
	"math/big"

	"github.com/pion/sshtransport/internal/util"
)

var bigOne = big.NewInt(1)

// Oakley groups 14 and 16.
//
// https://tools.ietf.org/html/rfc3526
var (
	dhGroup14 = newDHGroup(
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74" +
			"020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F1437" +
			"4FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
			"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF05" +
			"98DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB" +
			"9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
			"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF695581718" +
			"3995497CEA956AE515D2261898FA051015728E5A8AACAA68FFFFFFFFFFFFFFFF",
	)
	dhGroup16 = newDHGroup(
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74" +
			"020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F1437" +
			"4FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
			"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF05" +
			"98DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB" +
			"9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B" +
			"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF695581718" +
			"3995497CEA956AE515D2261898FA051015728E5A8AAAC42DAD33170D04507A33" +
			"A85521ABDF1CBA64ECFB850458DBEF0A8AEA71575D060C7DB3970F85A6E1E4C7" +
			"ABF5AE8CDB0933D71E8C94E04A25619DCEE3D2261AD2EE6BF12FFA06D98A0864" +
			"D87602733EC86A64521F2B18177B200CBBE117577A615D6C770988C0BAD946E2" +
			"08E24FA074E5AB3143DB5BFCE0FD108E4B82D120A92108011A723C12A787E6D7" +
			"88719A10BDBA5B2699C327186AF4E23C1A946834B6150BDA2583E9CA2AD44CE8" +
			"DBBBC2DB04DE8EF92E8EFC141FBECAA6287C59474E6BC05D99B2964FA090C3A2" +
			"233BA186515BE7ED1F612970CEE2D7AFB81BDD762170481CD0069127D5B05AA9" +
			"93B4EA988D8FDDC186FFB7DC90A6C08F4DF435C934063199FFFFFFFFFFFFFFFF",
	)
)

type dhGroup struct {
	g, p, pMinus1 *big.Int
}

func newDHGroup(prime string) dhGroup {
	p, ok := new(big.Int).SetString(prime, 16)
	if !ok {
		panic("kex: invalid group prime") //nolint:forbidigo
	}

	return dhGroup{
		g:       big.NewInt(2),
		p:       p,
		pMinus1: new(big.Int).Sub(p, bigOne),
	}
}

// dhMethod is finite field Diffie-Hellman. Public values travel as mpints,
// PublicKey holds the mpint body so that it encodes identically as a string.
//
// https://tools.ietf.org/html/rfc4253#section-8
type dhMethod struct {
	name  string
	group *dhGroup
	hash  crypto.Hash
}

func (m *dhMethod) Name() string { return m.name }

func (m *dhMethod) Hash() crypto.Hash { return m.hash }

func (m *dhMethod) GenerateKeypair(random io.Reader) (*Keypair, error) {
	var x *big.Int
	for {
		var err error
		if x, err = rand.Int(random, m.group.pMinus1); err != nil {
			return nil, err
		}
		if x.Sign() > 0 {
			break
		}
	}
	public := new(big.Int).Exp(m.group.g, x, m.group.p)

	return &Keypair{PublicKey: util.MPIntBody(public.Bytes()), dh: x}, nil
}

func (m *dhMethod) SharedSecret(kp *Keypair, peerPublic []byte) ([]byte, error) {
	if kp == nil || kp.dh == nil {
		return nil, errKeypairMismatch
	}
	if len(peerPublic) == 0 || peerPublic[0]&0x80 != 0 {
		return nil, errInvalidPublicValue
	}

	y := new(big.Int).SetBytes(peerPublic)
	if y.Cmp(bigOne) <= 0 || y.Cmp(m.group.pMinus1) >= 0 {
		return nil, errInvalidPublicValue
	}

	return new(big.Int).Exp(y, kp.dh, m.group.p).Bytes(), nil
}
