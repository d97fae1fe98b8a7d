// Package ecdhframe implements Dynamic Authentication Template parsing and
// response encoding for ECDH key agreement, driven through GENERAL
// AUTHENTICATE.
package ecdhframe

import (
	"fmt"
	"math/big"

	"myeidcore/apdu"
	"myeidcore/curve"
	"myeidcore/kernel"
)

const (
	tagDynamicAuthTemplate = 0x7C
	tagEphemeralHint       = 0x80
	tagPeerPublicKey       = 0x85
)

// ErrMalformedTemplate is returned when the command data is not a
// well-formed Dynamic Authentication Template.
var ErrMalformedTemplate = fmt.Errorf("malformed dynamic authentication template")

// ParsePeerPoint extracts the peer's uncompressed public point (tag 0x85)
// from a Dynamic Authentication Template (tag 0x7C). An ephemeral hint
// (tag 0x80) is accepted and ignored, matching the original firmware's
// tolerance for that child tag.
func ParsePeerPoint(data []byte, mpSize int) (curve.Point, error) {
	if len(data) < 2 || data[0] != tagDynamicAuthTemplate {
		return curve.Point{}, ErrMalformedTemplate
	}
	outerLen, consumed, ok := apdu.ParseLength(data[1:])
	if !ok {
		return curve.Point{}, ErrMalformedTemplate
	}
	body := data[1+consumed:]
	if len(body) < outerLen {
		return curve.Point{}, ErrMalformedTemplate
	}
	body = body[:outerLen]

	for len(body) > 0 {
		if len(body) < 2 {
			return curve.Point{}, ErrMalformedTemplate
		}
		tag := body[0]
		l, n, ok := apdu.ParseLength(body[1:])
		if !ok || len(body[1+n:]) < l {
			return curve.Point{}, ErrMalformedTemplate
		}
		value := body[1+n : 1+n+l]
		body = body[1+n+l:]

		switch tag {
		case tagEphemeralHint:
			// ignored
		case tagPeerPublicKey:
			return curve.ParseUncompressed(value, mpSize)
		}
	}
	return curve.Point{}, fmt.Errorf("dynamic authentication template has no peer public key (tag 0x85)")
}

// Derive parses the peer point out of data, runs the ECDH kernel, and
// returns the shared secret's X coordinate, mpSize bytes, big-endian. The
// response carries the bare coordinate — no Dynamic Authentication
// Template envelope.
func Derive(param *curve.Param, kern kernel.ECKernel, priv *big.Int, data []byte) ([]byte, error) {
	peer, err := ParsePeerPoint(data, param.MPSize)
	if err != nil {
		return nil, err
	}

	shared, err := kern.DeriveShared(param, priv, peer)
	if err != nil {
		return nil, err
	}

	x := make([]byte, param.MPSize)
	shared.X.FillBytes(x)
	return x, nil
}
