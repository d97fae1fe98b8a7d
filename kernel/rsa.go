// Package kernel provides concrete implementations of the big-number,
// modular-arithmetic, and block-cipher collaborators the dispatcher treats
// as external to the core: rsa_calculate, ecdsa_sign, ec_derive_key,
// ec_key_gener, rsa_keygen, des_run, and aes_run. The dispatcher (secenv,
// pso, keygen) only ever talks to the narrow interfaces declared here;
// swapping in a hardware-backed kernel means satisfying these interfaces,
// nothing more.
package kernel

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"math/big"
)

// RSAKeyPair is the CRT-form private key plus public material persisted by
// GENERATE KEY.
type RSAKeyPair struct {
	P, Q, DP, DQ, QInv *big.Int
	Modulus            *big.Int
	PublicExponent     *big.Int
}

// RSAKernel is the rsa_calculate/rsa_keygen external collaborator.
type RSAKernel interface {
	// Exponentiate performs the CRT private-key operation c -> c^d mod n,
	// given the key's CRT parameters. c must already be reduced mod n.
	Exponentiate(c *big.Int, key *RSAKeyPair) (*big.Int, error)
	// GenerateKeyPair produces a fresh RSA key of the given modulus size
	// in bits with the given public exponent.
	GenerateKeyPair(bits int, publicExponent uint32) (*RSAKeyPair, error)
}

type crtRSAKernel struct{}

// NewRSAKernel returns the default math/big + crypto/rsa backed kernel.
func NewRSAKernel() RSAKernel {
	return crtRSAKernel{}
}

// Exponentiate implements textbook RSA-CRT: m1 = c^dP mod p, m2 = c^dQ mod
// q, h = qInv*(m1-m2) mod p, m = m2 + h*q.
func (crtRSAKernel) Exponentiate(c *big.Int, key *RSAKeyPair) (*big.Int, error) {
	if key.P == nil || key.Q == nil || key.DP == nil || key.DQ == nil || key.QInv == nil {
		return nil, fmt.Errorf("incomplete CRT key material")
	}
	m1 := new(big.Int).Exp(c, key.DP, key.P)
	m2 := new(big.Int).Exp(c, key.DQ, key.Q)

	h := new(big.Int).Sub(m1, m2)
	h.Mul(h, key.QInv)
	h.Mod(h, key.P)
	if h.Sign() < 0 {
		h.Add(h, key.P)
	}

	m := new(big.Int).Mul(h, key.Q)
	m.Add(m, m2)
	return m, nil
}

// GenerateKeyPair generates an RSA key via crypto/rsa and repackages it in
// CRT form. crypto/rsa's own Precomputed values (Dp, Dq, Qinv) are exactly
// the CRT layout the card's key file stores, so no further derivation is
// needed.
func (crtRSAKernel) GenerateKeyPair(bits int, publicExponent uint32) (*RSAKeyPair, error) {
	if publicExponent != 65537 {
		return nil, fmt.Errorf("unsupported public exponent %d: MyEID key generation only accepts 65537", publicExponent)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("rsa keygen: %w", err)
	}
	priv.Precompute()
	if len(priv.Primes) != 2 {
		return nil, fmt.Errorf("unexpected prime count %d", len(priv.Primes))
	}

	return &RSAKeyPair{
		P:              priv.Primes[0],
		Q:              priv.Primes[1],
		DP:             priv.Precomputed.Dp,
		DQ:             priv.Precomputed.Dq,
		QInv:           priv.Precomputed.Qinv,
		Modulus:        priv.N,
		PublicExponent: big.NewInt(int64(priv.E)),
	}, nil
}
