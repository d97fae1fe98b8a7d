package keygen

import (
	"myeidcore/apdu"
	"myeidcore/keyfile"
)

// PutData implements INS 0xDA, P1=0x01.
func PutData(file *keyfile.File, fs Filesystem, pins PinStore, p2 byte, data []byte) error {
	switch {
	case p2 == 0xE0:
		return putInitApplet(fs, data)
	case p2 >= 0x01 && p2 <= 0x0E:
		return putInitPIN(pins, p2, data)
	case (p2 >= 0x80 && p2 <= 0x8B) || (p2 >= 0x8E && p2 <= 0x8F) || p2 == 0xA0:
		return putKeyPart(file, p2, data)
	default:
		return apdu.Err(apdu.SWFunctionNotSupported)
	}
}

func putInitApplet(fs Filesystem, data []byte) error {
	if len(data) < 5 {
		return apdu.Err(apdu.SWWrongLength)
	}
	sizeBits := uint16(data[0])<<8 | uint16(data[1])
	var acl [3]byte
	copy(acl[:], data[2:5])
	if err := fs.EraseCard(sizeBits, acl); err != nil {
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}
	return apdu.Err(apdu.SWOK)
}

func putInitPIN(pins PinStore, p2 byte, data []byte) error {
	if len(data) < 16 || len(data) > 47 {
		return apdu.Err(apdu.SWWrongLength)
	}
	if err := pins.Init(p2, data); err != nil {
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}
	return apdu.Err(apdu.SWOK)
}

func putKeyPart(file *keyfile.File, p2 byte, data []byte) error {
	tag := keyfile.Tag(p2)

	// A stray leading 0x00 byte appears on odd-Lc uploads for every tag
	// except 0x81; strip it before the size check.
	if p2 != 0x81 && len(data)%2 == 1 && len(data) > 0 && data[0] == 0x00 {
		data = data[1:]
	}

	if err := validatePartSize(file, tag, len(data)); err != nil {
		return err
	}
	if err := file.WritePart(tag, data); err != nil {
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}
	return apdu.Err(apdu.SWOK)
}

func validatePartSize(file *keyfile.File, tag keyfile.Tag, n int) error {
	switch file.Type {
	case keyfile.TypeRSA:
		half := file.ModulusBytes() / 2
		switch tag {
		case keyfile.TagP, keyfile.TagQ, keyfile.TagDP, keyfile.TagDQ, keyfile.TagQInv:
			if n != half {
				return apdu.Err(apdu.SWWrongLength)
			}
		case keyfile.TagMod:
			if n != file.ModulusBytes() {
				return apdu.Err(apdu.SWWrongLength)
			}
		case keyfile.TagModP1, keyfile.TagModP2:
			if n != file.ModulusBytes()/2 {
				return apdu.Err(apdu.SWWrongLength)
			}
		case keyfile.TagExp, keyfile.TagExpP1, keyfile.TagExpP2, keyfile.TagExpPub:
			// accepted at any length: EXP/EXP_p1/EXP_p2 are discarded
			// entirely, and EXP_PUB is a variable-length public-exponent
			// encoding.
		default:
			return apdu.Err(apdu.SWFunctionNotSupported)
		}
	case keyfile.TypeNISTEC, keyfile.TypeSecp256k1:
		mpSize := ecMPSizeFromBits(file.SizeBits)
		switch tag {
		case keyfile.TagECPrivate:
			if n != mpSize {
				return apdu.Err(apdu.SWWrongLength)
			}
		case keyfile.TagECPublic:
			if n != 1+2*mpSize {
				return apdu.Err(apdu.SWWrongLength)
			}
		default:
			return apdu.Err(apdu.SWFunctionNotSupported)
		}
	case keyfile.TypeDES, keyfile.TypeAES:
		if tag != keyfile.TagSym {
			return apdu.Err(apdu.SWFunctionNotSupported)
		}
		// DES/AES uploads have no further per-part structure;
		// symcipher validates the specific key length at use time.
	default:
		return apdu.Err(apdu.SWFileTypeIncorrect)
	}
	return nil
}
