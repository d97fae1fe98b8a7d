package kernel

import (
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"math/big"

	"myeidcore/curve"
)

// ECKernel is the ecdsa_sign/ec_derive_key/ec_key_gener external
// collaborator.
type ECKernel interface {
	// Sign computes a raw ECDSA signature (r, s) over digest e (already
	// reduced to the field size by the framing layer).
	Sign(param *curve.Param, priv *big.Int, e *big.Int) (r, s *big.Int, err error)
	// DeriveShared computes the scalar multiplication priv*peer used by
	// ECDH key agreement.
	DeriveShared(param *curve.Param, priv *big.Int, peer curve.Point) (curve.Point, error)
	// GenerateKeyPair produces a fresh EC key pair on param's curve.
	GenerateKeyPair(param *curve.Param) (priv *big.Int, pub curve.Point, err error)
}

type ecKernel struct{}

// NewECKernel returns the default crypto/elliptic + btcec backed kernel.
func NewECKernel() ECKernel {
	return ecKernel{}
}

func (ecKernel) Sign(param *curve.Param, priv *big.Int, e *big.Int) (*big.Int, *big.Int, error) {
	if priv == nil {
		return nil, nil, fmt.Errorf("no private key loaded")
	}
	n := param.Order
	for {
		k, _, _, err := elliptic.GenerateKey(param.Curve, rand.Reader)
		if err != nil {
			return nil, nil, fmt.Errorf("ecdsa sign: %w", err)
		}
		kInt := new(big.Int).SetBytes(k)

		rx, _ := param.Curve.ScalarBaseMult(k)
		r := new(big.Int).Mod(rx, n)
		if r.Sign() == 0 {
			continue
		}

		kInv := new(big.Int).ModInverse(kInt, n)
		if kInv == nil {
			continue
		}
		s := new(big.Int).Mul(r, priv)
		s.Add(s, e)
		s.Mul(s, kInv)
		s.Mod(s, n)
		if s.Sign() == 0 {
			continue
		}
		return r, s, nil
	}
}

func (ecKernel) DeriveShared(param *curve.Param, priv *big.Int, peer curve.Point) (curve.Point, error) {
	if priv == nil {
		return curve.Point{}, fmt.Errorf("no private key loaded")
	}
	if !param.Curve.IsOnCurve(peer.X, peer.Y) {
		return curve.Point{}, fmt.Errorf("peer point is not on curve %s", param.ID)
	}
	x, y := param.Curve.ScalarMult(peer.X, peer.Y, priv.Bytes())
	if x.Sign() == 0 && y.Sign() == 0 {
		return curve.Point{}, fmt.Errorf("derived shared point is the point at infinity")
	}
	return curve.Point{X: x, Y: y}, nil
}

func (ecKernel) GenerateKeyPair(param *curve.Param) (*big.Int, curve.Point, error) {
	priv, x, y, err := elliptic.GenerateKey(param.Curve, rand.Reader)
	if err != nil {
		return nil, curve.Point{}, fmt.Errorf("ec keygen: %w", err)
	}
	return new(big.Int).SetBytes(priv), curve.Point{X: x, Y: y}, nil
}
