package curve

import (
	"fmt"
	"math/big"

	"myeidcore/keyfile"
)

// PrepareECParam resolves the curve backing file and loads its working
// private-key scalar. If sizeHint is 0, the field-element size is derived
// from the stored EC_PRIVATE part's length; otherwise sizeHint (in bytes)
// is used directly, e.g. when GENERATE KEY needs the parameters before any
// private key has been written.
//
// The key is kept as a math/big.Int (endianness-free); the LE/BE
// convention needed for the card's wire format is handled entirely by the
// framing layers (rsaframe/ecdsaframe/ecdhframe) rather than interleaved
// through this package's arithmetic.
func PrepareECParam(file *keyfile.File, sizeHint int) (*Param, *big.Int, error) {
	mpSize := sizeHint
	if mpSize == 0 {
		n, ok := file.ReadPart(nil, keyfile.TagECPrivate)
		if !ok {
			return nil, nil, fmt.Errorf("EC_PRIVATE not present on file 0x%04X", file.ID)
		}
		mpSize = n
	}

	id, ok := Lookup(file.Type, mpSize)
	if !ok {
		return nil, nil, ErrUnsupportedCurve
	}
	param := paramsFor(id)

	buf := make([]byte, mpSize)
	n, ok := file.ReadPart(buf, keyfile.TagECPrivate)
	if !ok {
		// No private key yet (e.g. preparing parameters ahead of GENERATE
		// KEY): return the parameters with a nil working key.
		return param, nil, nil
	}
	if n != mpSize {
		return nil, nil, fmt.Errorf("EC_PRIVATE length %d, want %d", n, mpSize)
	}
	return param, new(big.Int).SetBytes(buf), nil
}

// ParamsForSize looks up curve parameters directly from (file type, byte
// size) without touching any stored key, used by GET DATA's curve-parameter
// responses and by key generation before a private key exists.
func ParamsForSize(typ keyfile.FileType, mpSize int) (*Param, error) {
	id, ok := Lookup(typ, mpSize)
	if !ok {
		return nil, ErrUnsupportedCurve
	}
	return paramsFor(id), nil
}
