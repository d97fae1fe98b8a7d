// Package ecdsaframe implements digest normalization and DER signature
// encoding around the raw ECDSA kernel.
package ecdsaframe

import (
	"fmt"
	"math/big"

	"myeidcore/apdu"
	"myeidcore/curve"
	"myeidcore/kernel"
)

// NormalizeDigest reduces digest to exactly mpSize bytes the way the
// original card's internal little-endian buffer convention did: the wire
// digest arrives big-endian, gets reversed into the LE scratch buffer, and
// is then truncated or zero-extended to mpSize bytes before being reversed
// back for the modular arithmetic.
//
// That round trip is NOT a no-op when digest is longer than mpSize:
// truncating the LE buffer keeps its low-order bytes, which are the
// LEAST-significant bytes of the original big-endian digest — the
// opposite end from the standard ECDSA bits2int conversion, which keeps
// the most-significant bits. This function reproduces that exact
// least-significant-bytes-survive behavior directly in big-endian terms,
// without a literal byte-reversal pass:
//   - digest shorter than or equal to mpSize: zero-extend on the left.
//   - digest longer than mpSize: keep its trailing mpSize bytes.
func NormalizeDigest(digest []byte, mpSize int) []byte {
	if len(digest) <= mpSize {
		out := make([]byte, mpSize)
		copy(out[mpSize-len(digest):], digest)
		return out
	}
	out := make([]byte, mpSize)
	copy(out, digest[len(digest)-mpSize:])
	return out
}

// Sign normalizes digest to param's field size, runs the raw ECDSA kernel,
// and returns the signature as a DER SEQUENCE { INTEGER r, INTEGER s }.
func Sign(param *curve.Param, kern kernel.ECKernel, priv *big.Int, digest []byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("no EC private key loaded for curve %s", param.ID)
	}
	e := new(big.Int).SetBytes(NormalizeDigest(digest, param.MPSize))

	r, s, err := kern.Sign(param, priv, e)
	if err != nil {
		return nil, err
	}

	var content []byte
	content = apdu.AppendDERInteger(content, r.Bytes())
	content = apdu.AppendDERInteger(content, s.Bytes())

	out := []byte{0x30}
	out = apdu.AppendLength(out, len(content))
	out = append(out, content...)
	return out, nil
}
