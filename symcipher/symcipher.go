// Package symcipher implements DES/3DES/AES key normalization and
// single-block (optionally CBC-chained) encrypt/decrypt framing around the
// block-cipher kernel.
package symcipher

import (
	"fmt"

	"myeidcore/keyfile"
	"myeidcore/kernel"
)

const (
	desBlockSize = 8
	aesBlockSize = 16
)

// ErrWrongBlockSize is returned when the supplied block does not match the
// cipher's natural block size.
var ErrWrongBlockSize = fmt.Errorf("block length does not match cipher block size")

// ExpandDESKey normalizes a stored DES/3DES key to the 8- or 24-byte form
// crypto/des expects:
//   - 7 bytes: a parity-stripped single-DES key; odd parity bits are
//     reinserted to produce the 8-byte form.
//   - 8 bytes: single DES, used as-is.
//   - 16 bytes: a two-key 3DES key (K1 || K2); expanded to the 24-byte
//     three-key form K1 || K2 || K1, the standard two-key 3DES encoding.
//   - 24 bytes: three-key 3DES, used as-is.
func ExpandDESKey(key []byte) ([]byte, error) {
	switch len(key) {
	case 7:
		return addOddParity(key), nil
	case 8:
		out := make([]byte, 8)
		copy(out, key)
		return out, nil
	case 16:
		out := make([]byte, 24)
		copy(out, key)
		copy(out[16:], key[:8])
		return out, nil
	case 24:
		out := make([]byte, 24)
		copy(out, key)
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported DES key length %d", len(key))
	}
}

// addOddParity expands a 7-byte (56-bit) parity-stripped key into the
// 8-byte (64-bit) form DES expects, inserting an odd-parity bit as the
// low bit of every output byte.
func addOddParity(k7 []byte) []byte {
	var bits [56]byte
	idx := 0
	for _, b := range k7 {
		for i := 7; i >= 0; i-- {
			bits[idx] = (b >> uint(i)) & 1
			idx++
		}
	}
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		var v byte
		ones := 0
		for j := 0; j < 7; j++ {
			bit := bits[i*7+j]
			v = (v << 1) | bit
			if bit == 1 {
				ones++
			}
		}
		parity := byte(1)
		if ones%2 == 1 {
			parity = 0
		}
		out[i] = (v << 1) | parity
	}
	return out
}

// ValidateAESKey checks the stored AES key is one of the three standard
// lengths; AES needs no expansion, unlike DES.
func ValidateAESKey(key []byte) error {
	switch len(key) {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("unsupported AES key length %d", len(key))
	}
}

func xor(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}

// Encrypt runs one block through the symmetric kernel keyed by file's
// stored key material. When iv is non-nil the block is first XORed with
// iv (CBC mode); the returned nextIV chains into the following call. ECB
// (iv == nil) returns a nil nextIV.
func Encrypt(file *keyfile.File, kern kernel.SymKernel, iv, block []byte) (ciphertext, nextIV []byte, err error) {
	key, blockSize, isAES, err := loadKey(file)
	if err != nil {
		return nil, nil, err
	}
	if len(block) != blockSize {
		return nil, nil, ErrWrongBlockSize
	}

	input := block
	if iv != nil {
		if len(iv) != blockSize {
			return nil, nil, ErrWrongBlockSize
		}
		input = make([]byte, blockSize)
		xor(input, block, iv)
	}

	if isAES {
		ciphertext, err = kern.EncryptAES(key, input)
	} else {
		ciphertext, err = kern.EncryptDES(key, input)
	}
	if err != nil {
		return nil, nil, err
	}
	if iv != nil {
		nextIV = ciphertext
	}
	return ciphertext, nextIV, nil
}

// Decrypt is Encrypt's inverse: decrypt first, then XOR with iv (CBC), and
// chain nextIV from the ciphertext block just consumed.
func Decrypt(file *keyfile.File, kern kernel.SymKernel, iv, block []byte) (plaintext, nextIV []byte, err error) {
	key, blockSize, isAES, err := loadKey(file)
	if err != nil {
		return nil, nil, err
	}
	if len(block) != blockSize {
		return nil, nil, ErrWrongBlockSize
	}
	if iv != nil && len(iv) != blockSize {
		return nil, nil, ErrWrongBlockSize
	}

	var raw []byte
	if isAES {
		raw, err = kern.DecryptAES(key, block)
	} else {
		raw, err = kern.DecryptDES(key, block)
	}
	if err != nil {
		return nil, nil, err
	}

	if iv == nil {
		return raw, nil, nil
	}
	plaintext = make([]byte, blockSize)
	xor(plaintext, raw, iv)
	return plaintext, block, nil
}

func loadKey(file *keyfile.File) (key []byte, blockSize int, isAES bool, err error) {
	buf := make([]byte, 32)
	n, ok := file.ReadPart(buf[:cap(buf)], keyfile.TagSym)
	if !ok {
		return nil, 0, false, fmt.Errorf("no symmetric key loaded")
	}
	raw := buf[:n]

	switch file.Type {
	case keyfile.TypeDES:
		expanded, err := ExpandDESKey(raw)
		if err != nil {
			return nil, 0, false, err
		}
		return expanded, desBlockSize, false, nil
	case keyfile.TypeAES:
		if err := ValidateAESKey(raw); err != nil {
			return nil, 0, false, err
		}
		return raw, aesBlockSize, true, nil
	default:
		return nil, 0, false, fmt.Errorf("file type %s has no symmetric key", file.Type)
	}
}
