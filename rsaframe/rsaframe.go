// Package rsaframe implements PKCS#1 v1.5 padding, DigestInfo prefixing,
// and the RSA sign/decipher framing around the CRT kernel.
package rsaframe

import (
	"fmt"
	"math/big"

	"myeidcore/keyfile"
	"myeidcore/kernel"
)

// Mode selects the padding/framing applied around the RSA operation,
// matching the flag parameter of the original rsa_raw entry point.
type Mode int

const (
	// Raw: len(msg) must equal the modulus byte length; no framing.
	Raw Mode = iota
	// Sha1DigestInfo: len(msg) must be 20 (a SHA-1 digest); the 15-byte
	// DigestInfo OID prefix is prepended, then framing falls through to
	// Pkcs1Type1.
	Sha1DigestInfo
	// Pkcs1Type1: PKCS#1 v1.5 type-1 padding (0x00 0x01 FF..FF 0x00 msg).
	Pkcs1Type1
)

// sha1DigestInfoPrefix is the DER encoding of
// SEQUENCE { SEQUENCE { OID sha1, NULL }, OCTET STRING } up to (not
// including) the 20-byte hash itself.
var sha1DigestInfoPrefix = []byte{
	0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x0e, 0x03, 0x02, 0x1a,
	0x05, 0x00, 0x04, 0x14,
}

// ErrPaddingTooShort is returned when the payload does not leave room for
// the minimum 8-byte PKCS#1 padding string. Raw mode also returns it
// (wrapped) when the message is not exactly modulus length.
var ErrPaddingTooShort = fmt.Errorf("message too long for PKCS#1 v1.5 padding")

// loadCRTKey reads the CRT parts off file into a kernel.RSAKeyPair.
func loadCRTKey(file *keyfile.File) (*kernel.RSAKeyPair, error) {
	modLen := file.ModulusBytes()
	half := modLen / 2

	read := func(tag keyfile.Tag, size int) (*big.Int, error) {
		buf := make([]byte, size)
		n, ok := file.ReadPart(buf, tag)
		if !ok || n != size {
			return nil, fmt.Errorf("key part 0x%02X missing or wrong size (got %d, want %d)", tag, n, size)
		}
		return new(big.Int).SetBytes(buf), nil
	}

	p, err := read(keyfile.TagP, half)
	if err != nil {
		return nil, err
	}
	q, err := read(keyfile.TagQ, half)
	if err != nil {
		return nil, err
	}
	dP, err := read(keyfile.TagDP, half)
	if err != nil {
		return nil, err
	}
	dQ, err := read(keyfile.TagDQ, half)
	if err != nil {
		return nil, err
	}
	qInv, err := read(keyfile.TagQInv, half)
	if err != nil {
		return nil, err
	}

	modBuf := make([]byte, modLen)
	if n, ok := file.ReadPart(modBuf, keyfile.TagMod); !ok || n != modLen {
		return nil, fmt.Errorf("modulus missing or wrong size")
	}

	return &kernel.RSAKeyPair{
		P: p, Q: q, DP: dP, DQ: dQ, QInv: qInv,
		Modulus: new(big.Int).SetBytes(modBuf),
	}, nil
}

// pad builds the PKCS#1-framed, modulus-length buffer for msg under mode.
func pad(msg []byte, mode Mode, modLen int) ([]byte, error) {
	switch mode {
	case Raw:
		if len(msg) != modLen {
			return nil, fmt.Errorf("%w: raw message length %d, want %d", ErrPaddingTooShort, len(msg), modLen)
		}
		out := make([]byte, modLen)
		copy(out, msg)
		return out, nil

	case Sha1DigestInfo:
		if len(msg) != 20 {
			return nil, fmt.Errorf("SHA-1 DigestInfo framing requires a 20-byte digest, got %d", len(msg))
		}
		payload := make([]byte, 0, len(sha1DigestInfoPrefix)+20)
		payload = append(payload, sha1DigestInfoPrefix...)
		payload = append(payload, msg...)
		return padType1(payload, modLen)

	case Pkcs1Type1:
		return padType1(msg, modLen)

	default:
		return nil, fmt.Errorf("unknown padding mode %d", mode)
	}
}

func padType1(payload []byte, modLen int) ([]byte, error) {
	if len(payload)+11 > modLen {
		return nil, ErrPaddingTooShort
	}
	out := make([]byte, modLen)
	out[0] = 0x00
	out[1] = 0x01
	padLen := modLen - len(payload) - 3
	for i := 0; i < padLen; i++ {
		out[2+i] = 0xFF
	}
	out[2+padLen] = 0x00
	copy(out[3+padLen:], payload)
	return out, nil
}

// scrub zeroes a sensitive byte buffer in place.
func scrub(bufs ...[]byte) {
	for _, b := range bufs {
		for i := range b {
			b[i] = 0
		}
	}
}

// Sign applies framing per mode, invokes the CRT kernel, and returns the
// modulus-length big-endian signature. On any failure both the padded
// input buffer and any partial output are scrubbed before returning.
func Sign(file *keyfile.File, kern kernel.RSAKernel, digest []byte, mode Mode) ([]byte, error) {
	modLen := file.ModulusBytes()

	padded, err := pad(digest, mode, modLen)
	if err != nil {
		return nil, err
	}

	key, err := loadCRTKey(file)
	if err != nil {
		scrub(padded)
		return nil, err
	}

	c := new(big.Int).SetBytes(padded)
	m, err := kern.Exponentiate(c, key)
	if err != nil {
		scrub(padded)
		return nil, err
	}

	out := make([]byte, modLen)
	m.FillBytes(out)
	scrub(padded)
	return out, nil
}

// Decipher runs the raw CRT operation over ciphertext (which must already
// be exactly modulus-length) and, when removePadding is true, strips and
// validates PKCS#1 v1.5 type-2 padding (0x00 0x02 <>=8 nonzero bytes> 0x00
// <plaintext>). A malformed type-2 structure is reported as
// ErrBadType2Padding so the caller can map it to SW=0x6985 without leaking
// which part of the padding failed.
func Decipher(file *keyfile.File, kern kernel.RSAKernel, ciphertext []byte, removePadding bool) ([]byte, error) {
	modLen := file.ModulusBytes()
	if len(ciphertext) != modLen {
		scrub(ciphertext)
		return nil, fmt.Errorf("ciphertext length %d, want %d", len(ciphertext), modLen)
	}

	key, err := loadCRTKey(file)
	if err != nil {
		scrub(ciphertext)
		return nil, err
	}

	c := new(big.Int).SetBytes(ciphertext)
	m, err := kern.Exponentiate(c, key)
	if err != nil {
		scrub(ciphertext)
		return nil, err
	}

	out := make([]byte, modLen)
	m.FillBytes(out)

	if !removePadding {
		scrub(ciphertext)
		return out, nil
	}

	plain, err := removeType2Padding(out)
	scrub(ciphertext)
	scrub(out)
	if err != nil {
		return nil, err
	}
	return plain, nil
}

// ErrBadType2Padding is returned by Decipher when removePadding is set and
// the recovered block is not well-formed PKCS#1 v1.5 type-2 padding.
var ErrBadType2Padding = fmt.Errorf("invalid PKCS#1 v1.5 type-2 padding")

func removeType2Padding(block []byte) ([]byte, error) {
	if len(block) < 11 || block[0] != 0x00 || block[1] != 0x02 {
		return nil, ErrBadType2Padding
	}
	i := 2
	for i < len(block) && block[i] != 0x00 {
		i++
	}
	if i == len(block) || i-2 < 8 {
		return nil, ErrBadType2Padding
	}
	plain := make([]byte, len(block)-i-1)
	copy(plain, block[i+1:])
	return plain, nil
}
