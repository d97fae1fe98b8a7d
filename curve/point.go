package curve

import (
	"fmt"
	"math/big"
)

// Point is an affine elliptic-curve point.
type Point struct {
	X *big.Int
	Y *big.Int
}

// MarshalUncompressed renders the point as 0x04 || X || Y, each coordinate
// padded to size bytes, big-endian.
func (p Point) MarshalUncompressed(size int) []byte {
	out := make([]byte, 1+2*size)
	out[0] = 0x04
	p.X.FillBytes(out[1 : 1+size])
	p.Y.FillBytes(out[1+size : 1+2*size])
	return out
}

// ParseUncompressed parses a 0x04 || X || Y point with each coordinate
// exactly size bytes. It is the inner-TLV payload format for tag 0x85 in
// the Dynamic Authentication Template.
func ParseUncompressed(buf []byte, size int) (Point, error) {
	if len(buf) != 1+2*size {
		return Point{}, fmt.Errorf("uncompressed point length %d, want %d", len(buf), 1+2*size)
	}
	if buf[0] != 0x04 {
		return Point{}, fmt.Errorf("point indicator byte 0x%02X, want 0x04", buf[0])
	}
	x := new(big.Int).SetBytes(buf[1 : 1+size])
	y := new(big.Int).SetBytes(buf[1+size : 1+2*size])
	return Point{X: x, Y: y}, nil
}
