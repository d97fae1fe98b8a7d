// Package keygen implements GENERATE KEY, PUT DATA, and GET DATA: on-card
// key generation, piecewise key upload, and the key/curve/card-info read
// paths.
package keygen

import (
	"math/big"

	"myeidcore/apdu"
	"myeidcore/curve"
	"myeidcore/keyfile"
	"myeidcore/kernel"
)

// Filesystem is the applet-initialization collaborator PUT DATA P2=0xE0
// drives: erase and recreate the card's
// filesystem with the given total size and the three standard ACLs.
type Filesystem interface {
	EraseCard(sizeBits uint16, acl [3]byte) error
}

// PinStore is the PIN collaborator PUT DATA P2 in [0x01, 0x0E] drives.
type PinStore interface {
	Init(reference byte, value []byte) error
}

// Delegate answers the GET DATA objects this core does not itself model:
// card identifiers/capabilities/access conditions, PIN status, and file
// listings.
type Delegate interface {
	GetData(p2 byte) ([]byte, error)
}

var publicExponent65537 = big.NewInt(65537)

// GenerateKey implements INS 0x46 for the selected file.
func GenerateKey(file *keyfile.File, rsaKern kernel.RSAKernel, ecKern kernel.ECKernel, resp *apdu.Buffer, data []byte) error {
	switch file.Type {
	case keyfile.TypeRSA:
		return generateRSA(file, rsaKern, resp, data)
	case keyfile.TypeNISTEC, keyfile.TypeSecp256k1:
		if len(data) != 0 {
			return apdu.Err(apdu.SWInvalidData)
		}
		return generateEC(file, ecKern, resp)
	default:
		return apdu.Err(apdu.SWFileTypeIncorrect)
	}
}

func generateRSA(file *keyfile.File, rsaKern kernel.RSAKernel, resp *apdu.Buffer, data []byte) error {
	if len(data) > 0 {
		e, err := parsePublicExponent(data)
		if err != nil {
			return err
		}
		if e.Cmp(publicExponent65537) != 0 {
			return apdu.Err(apdu.SWInvalidData)
		}
	}

	modLen := file.ModulusBytes()
	key, err := rsaKern.GenerateKeyPair(modLen*8, 65537)
	if err != nil {
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}

	half := modLen / 2
	writeFixed(file, keyfile.TagP, key.P, half)
	writeFixed(file, keyfile.TagQ, key.Q, half)
	writeFixed(file, keyfile.TagDP, key.DP, half)
	writeFixed(file, keyfile.TagDQ, key.DQ, half)
	writeFixed(file, keyfile.TagQInv, key.QInv, half)

	if modLen == 256 {
		modBuf := make([]byte, modLen)
		key.Modulus.FillBytes(modBuf)
		file.WritePart(keyfile.TagModP1, modBuf[:128])
		file.WritePart(keyfile.TagModP2, modBuf[128:])
	} else {
		writeFixed(file, keyfile.TagMod, key.Modulus, modLen)
	}
	file.WritePart(keyfile.TagExpPub, []byte{0x01, 0x00, 0x01})

	if file.Precompute {
		pInvModQ := new(big.Int).ModInverse(key.P, key.Q)
		qInvModP := new(big.Int).ModInverse(key.Q, key.P)
		writeFixed(file, keyfile.TagPInvModQ, pInvModQ, half)
		writeFixed(file, keyfile.TagQInvModP, qInvModP, half)
	}

	out := resp.Bytes()
	key.Modulus.FillBytes(out[:modLen])
	resp.SetReady(modLen)
	return apdu.Err(apdu.SWOK)
}

// parsePublicExponent decodes SEQUENCE { INTEGER e }. The inner tag is
// accepted as either 0x02 (correct DER) or 0x81, a non-DER quirk the
// original firmware also accepts; this preserves that bug-compatibility
// rather than tightening validation beyond what the field has always
// accepted.
func parsePublicExponent(data []byte) (*big.Int, error) {
	if len(data) < 2 || data[0] != 0x30 {
		return nil, apdu.Err(apdu.SWInvalidData)
	}
	l, n, ok := apdu.ParseLength(data[1:])
	if !ok || len(data[1+n:]) < l {
		return nil, apdu.Err(apdu.SWInvalidData)
	}
	body := data[1+n : 1+n+l]

	if len(body) < 2 || (body[0] != 0x02 && body[0] != 0x81) {
		return nil, apdu.Err(apdu.SWInvalidData)
	}
	il, in, ok := apdu.ParseLength(body[1:])
	if !ok || len(body[1+in:]) < il {
		return nil, apdu.Err(apdu.SWInvalidData)
	}
	return new(big.Int).SetBytes(body[1+in : 1+in+il]), nil
}

func writeFixed(file *keyfile.File, tag keyfile.Tag, v *big.Int, size int) {
	buf := make([]byte, size)
	v.FillBytes(buf)
	file.WritePart(tag, buf)
}

func generateEC(file *keyfile.File, ecKern kernel.ECKernel, resp *apdu.Buffer) error {
	mpSize := ecMPSizeFromBits(file.SizeBits)
	if mpSize == 0 {
		return apdu.Err(apdu.SWFileTypeIncorrect)
	}
	param, err := curve.ParamsForSize(file.Type, mpSize)
	if err != nil {
		return apdu.Err(apdu.SWFileTypeIncorrect)
	}

	priv, pub, err := ecKern.GenerateKeyPair(param)
	if err != nil {
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}

	privBuf := make([]byte, mpSize)
	priv.FillBytes(privBuf)
	file.WritePart(keyfile.TagECPrivate, privBuf)

	pubBuf := pub.MarshalUncompressed(mpSize)
	file.WritePart(keyfile.TagECPublic, pubBuf)

	out := append([]byte{0x86}, apdu.AppendLength(nil, len(pubBuf))...)
	out = append(out, pubBuf...)
	n := copy(resp.Bytes(), out)
	resp.SetReady(n)
	return apdu.Err(apdu.SWOK)
}

// ecMPSizeFromBits maps the stored EC size-in-bits field to the curve's
// field-element byte size, returning 0 for any unsupported size.
func ecMPSizeFromBits(bits uint16) int {
	switch bits {
	case 192:
		return 24
	case 256:
		return 32
	case 384:
		return 48
	case 521:
		return 66
	default:
		return 0
	}
}
