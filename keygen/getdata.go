package keygen

import (
	"myeidcore/apdu"
	"myeidcore/curve"
	"myeidcore/keyfile"
)

// GetData implements INS 0xCA, P1=0x01. delegate may be nil; P2 values
// this core does not itself model (card identifiers, PIN status, file
// listings) then fail with SWFunctionNotSupported instead of panicking.
func GetData(file *keyfile.File, resp *apdu.Buffer, p2 byte, delegate Delegate) error {
	switch {
	case p2 == 0x00:
		return getKeyInfo(file, resp)
	case p2 == 0x01:
		return getStoredPart(file, resp, keyfile.TagMod)
	case p2 == 0x02:
		return getStoredPart(file, resp, keyfile.TagExpPub)
	case p2 >= 0x81 && p2 <= 0x85:
		return getCurveParameter(file, resp, p2)
	case p2 == 0x86:
		return getECPublicKey(file, resp)
	case p2 == 0xA0 || p2 == 0xAA || p2 == 0xAC:
		return getDelegated(resp, p2, delegate)
	case p2&0xB0 == 0xB0:
		return getDelegated(resp, p2, delegate)
	case p2 >= 0xA1 && p2 <= 0xA6:
		return getDelegated(resp, p2, delegate)
	default:
		return apdu.Err(apdu.SWFunctionNotSupported)
	}
}

// getKeyInfo emits 0x92 0x00 MM MM EE EE, MyEID's convention of deriving
// the reported modulus/exponent bit lengths from stored part byte lengths
// rather than the file's own size_bits field: modulus bits = len(p) * 16,
// exponent bits = len(EXP_PUB) * 8.
func getKeyInfo(file *keyfile.File, resp *apdu.Buffer) error {
	pLen, ok := file.ReadPart(nil, keyfile.TagP)
	if !ok {
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}
	eLen, ok := file.ReadPart(nil, keyfile.TagExpPub)
	if !ok {
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}
	mm := uint16(pLen * 16)
	ee := uint16(eLen * 8)

	out := resp.Bytes()
	out[0], out[1] = 0x92, 0x00
	out[2], out[3] = byte(mm>>8), byte(mm)
	out[4], out[5] = byte(ee>>8), byte(ee)
	resp.SetReady(6)
	return apdu.Err(apdu.SWOK)
}

func getStoredPart(file *keyfile.File, resp *apdu.Buffer, tag keyfile.Tag) error {
	n, ok := file.ReadPart(resp.Bytes(), tag)
	if !ok {
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}
	resp.SetReady(n)
	return apdu.Err(apdu.SWOK)
}

func getCurveParameter(file *keyfile.File, resp *apdu.Buffer, p2 byte) error {
	mpSize := ecMPSizeFromBits(file.SizeBits)
	if mpSize == 0 {
		return apdu.Err(apdu.SWFileTypeIncorrect)
	}
	param, err := curve.ParamsForSize(file.Type, mpSize)
	if err != nil {
		return apdu.Err(apdu.SWFileTypeIncorrect)
	}

	out := resp.Bytes()
	var n int
	switch p2 {
	case 0x81:
		param.Prime.FillBytes(out[:mpSize])
		n = mpSize
	case 0x82:
		param.A.FillBytes(out[:mpSize])
		n = mpSize
	case 0x83:
		param.B.FillBytes(out[:mpSize])
		n = mpSize
	case 0x84:
		point := curve.Point{X: param.Gx, Y: param.Gy}
		copy(out, point.MarshalUncompressed(mpSize))
		n = 1 + 2*mpSize
	case 0x85:
		param.Order.FillBytes(out[:mpSize])
		n = mpSize
	}
	resp.SetReady(n)
	return apdu.Err(apdu.SWOK)
}

func getECPublicKey(file *keyfile.File, resp *apdu.Buffer) error {
	pub := make([]byte, 256)
	n, ok := file.ReadPart(pub, keyfile.TagECPublic)
	if !ok {
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}
	pub = pub[:n]

	out := append([]byte{0x30}, apdu.AppendLength(nil, len(pub))...)
	out = append(out, pub...)
	written := copy(resp.Bytes(), out)
	resp.SetReady(written)
	return apdu.Err(apdu.SWOK)
}

func getDelegated(resp *apdu.Buffer, p2 byte, delegate Delegate) error {
	if delegate == nil {
		return apdu.Err(apdu.SWFunctionNotSupported)
	}
	out, err := delegate.GetData(p2)
	if err != nil {
		return apdu.Err(apdu.SWFunctionNotSupported)
	}
	n := copy(resp.Bytes(), out)
	resp.SetReady(n)
	return apdu.Err(apdu.SWOK)
}
