// Package pso implements PERFORM SECURITY OPERATION (INS 0x2A) and
// GENERAL AUTHENTICATE (INS 0x86), routing through the framing packages
// under the Security Environment's guard.
package pso

import (
	"errors"

	"myeidcore/apdu"
	"myeidcore/curve"
	"myeidcore/ecdhframe"
	"myeidcore/ecdsaframe"
	"myeidcore/keyfile"
	"myeidcore/kernel"
	"myeidcore/rsaframe"
	"myeidcore/secenv"
	"myeidcore/symcipher"
)

// Kernels bundles the cryptographic collaborators PSO/GENERAL AUTHENTICATE
// dispatch into; callers construct one set and reuse it across APDUs.
type Kernels struct {
	RSA kernel.RSAKernel
	EC  kernel.ECKernel
	Sym kernel.SymKernel
}

func selectedFile(store keyfile.Store) (*keyfile.File, uint16, error) {
	id, ok := store.Selected()
	if !ok {
		return nil, 0, apdu.Err(apdu.SWFileNotFound)
	}
	file, err := store.Lookup(id)
	if err != nil {
		return nil, 0, apdu.Err(apdu.SWFileNotFound)
	}
	return file, id, nil
}

// PerformSecurityOperation dispatches (p1, p2) to sign, decipher, or
// encipher. cla is needed to gate symmetric operations to the vendor
// channel.
func PerformSecurityOperation(se *secenv.SE, store keyfile.Store, k Kernels, resp *apdu.Buffer, cla, p1, p2 byte, data []byte) error {
	switch {
	case p1 == 0x9E && p2 == 0x9A:
		return sign(se, store, k, resp, data)
	case p1 == 0x80 && (p2 == 0x84 || p2 == 0x86):
		return decipher(se, store, k, resp, cla, p2, data)
	case p1 == 0x84 && p2 == 0x80:
		return encipher(se, store, k, resp, cla, p2, data)
	default:
		return apdu.Err(apdu.SWWrongP1P2)
	}
}

func sign(se *secenv.SE, store keyfile.Store, k Kernels, resp *apdu.Buffer, data []byte) error {
	file, id, err := selectedFile(store)
	if err != nil {
		return err
	}
	alg, _, err := se.Validate(secenv.OpSign, id)
	if err != nil {
		return err
	}

	if alg == secenv.EcdsaRaw {
		if len(data) < 1 || len(data)-1 != int(data[0]) {
			return apdu.Err(apdu.SWWrongLength)
		}
		digest := data[1:]

		param, priv, perr := curve.PrepareECParam(file, 0)
		if perr != nil {
			se.Invalidate()
			return apdu.Err(apdu.SWConditionsNotSatisfied)
		}
		sig, serr := ecdsaframe.Sign(param, k.EC, priv, digest)
		if serr != nil {
			se.Invalidate()
			return apdu.Err(apdu.SWConditionsNotSatisfied)
		}
		n := copy(resp.Bytes(), sig)
		resp.SetReady(n)
		return apdu.Err(apdu.SWOK)
	}

	mode, ok := rsaModeFor(alg)
	if !ok {
		return apdu.Err(apdu.SWFunctionNotSupported)
	}
	sig, err := rsaframe.Sign(file, k.RSA, data, mode)
	if err != nil {
		se.Invalidate()
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}
	n := copy(resp.Bytes(), sig)
	resp.SetReady(n)
	return apdu.Err(apdu.SWOK)
}

func rsaModeFor(alg secenv.Algorithm) (rsaframe.Mode, bool) {
	switch alg {
	case secenv.Raw:
		return rsaframe.Raw, true
	case secenv.Sha1DigestInfo:
		return rsaframe.Sha1DigestInfo, true
	case secenv.PaddedRsa:
		return rsaframe.Pkcs1Type1, true
	default:
		return 0, false
	}
}

func decipher(se *secenv.SE, store keyfile.Store, k Kernels, resp *apdu.Buffer, cla, p2 byte, data []byte) error {
	file, id, err := selectedFile(store)
	if err != nil {
		return err
	}
	alg, initVector, err := se.Validate(secenv.OpDecrypt, id)
	if err != nil {
		return err
	}

	if p2 == 0x84 {
		if cla != 0x80 {
			return apdu.Err(apdu.SWFunctionNotSupported)
		}
		if !file.HasSymmetricKey() {
			return apdu.Err(apdu.SWFileTypeIncorrect)
		}
		plain, err := symDecryptBlocks(file, k.Sym, initVector, data)
		if err != nil {
			se.Invalidate()
			return apdu.Err(apdu.SWConditionsNotSatisfied)
		}
		n := copy(resp.Bytes(), plain)
		resp.SetReady(n)
		return apdu.Err(apdu.SWOK)
	}

	// p2 == 0x86
	if len(data) < 1 {
		return apdu.Err(apdu.SWWrongLength)
	}
	indicator := data[0]
	rest := data[1:]

	switch indicator {
	case 0x81:
		if len(rest) > apdu.Capacity {
			return apdu.Err(apdu.SWInvalidData)
		}
		resp.StashTmp(rest)
		return apdu.Err(apdu.SWOK)

	case 0x00, 0x82:
		ciphertext := rest
		if indicator == 0x82 {
			if resp.Flag() != apdu.Tmp {
				return apdu.Err(apdu.SWConditionsNotSatisfied)
			}
			first := resp.TakeTmp()
			ciphertext = append(first, rest...)
		}
		if len(ciphertext) > apdu.Capacity {
			return apdu.Err(apdu.SWInvalidData)
		}

		var plain []byte
		var derr error
		if file.HasSymmetricKey() {
			if cla != 0x80 {
				return apdu.Err(apdu.SWFunctionNotSupported)
			}
			plain, derr = symDecryptBlocks(file, k.Sym, initVector, ciphertext)
		} else {
			plain, derr = rsaframe.Decipher(file, k.RSA, ciphertext, alg == secenv.PaddedRsa)
		}
		if derr != nil {
			se.Invalidate()
			return apdu.Err(apdu.SWConditionsNotSatisfied)
		}
		n := copy(resp.Bytes(), plain)
		resp.SetReady(n)
		return apdu.Err(apdu.SWOK)

	default:
		return apdu.Err(apdu.SWInvalidData)
	}
}

func encipher(se *secenv.SE, store keyfile.Store, k Kernels, resp *apdu.Buffer, cla, p2 byte, data []byte) error {
	file, id, err := selectedFile(store)
	if err != nil {
		return err
	}
	_, initVector, err := se.Validate(secenv.OpEncrypt, id)
	if err != nil {
		return err
	}
	if cla != 0x80 || p2 != 0x80 {
		return apdu.Err(apdu.SWFunctionNotSupported)
	}
	if !file.HasSymmetricKey() {
		return apdu.Err(apdu.SWFileTypeIncorrect)
	}

	ct, err := symEncryptBlocks(file, k.Sym, initVector, data)
	if err != nil {
		se.Invalidate()
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}
	n := copy(resp.Bytes(), ct)
	resp.SetReady(n)
	return apdu.Err(apdu.SWOK)
}

// symEncryptBlocks/symDecryptBlocks chain successive blocks of data under
// CBC with a zero initial vector when initVector is set, or process each
// block independently (ECB) otherwise.
func symEncryptBlocks(file *keyfile.File, kern kernel.SymKernel, initVector bool, data []byte) ([]byte, error) {
	return processBlocks(file, kern, initVector, data, symcipher.Encrypt)
}

func symDecryptBlocks(file *keyfile.File, kern kernel.SymKernel, initVector bool, data []byte) ([]byte, error) {
	return processBlocks(file, kern, initVector, data, symcipher.Decrypt)
}

type blockOp func(*keyfile.File, kernel.SymKernel, []byte, []byte) ([]byte, []byte, error)

func processBlocks(file *keyfile.File, kern kernel.SymKernel, initVector bool, data []byte, op blockOp) ([]byte, error) {
	blockSize := 8
	if file.Type == keyfile.TypeAES {
		blockSize = 16
	}
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errWrongBlockCount
	}

	var iv []byte
	if initVector {
		iv = make([]byte, blockSize)
	}

	out := make([]byte, 0, len(data))
	for off := 0; off < len(data); off += blockSize {
		block := data[off : off+blockSize]
		result, nextIV, err := op(file, kern, iv, block)
		if err != nil {
			return nil, err
		}
		out = append(out, result...)
		iv = nextIV
	}
	return out, nil
}

var errWrongBlockCount = errors.New("data is not a whole number of cipher blocks")

// GeneralAuthenticate implements INS 0x86 (ECDH key agreement).
func GeneralAuthenticate(se *secenv.SE, store keyfile.Store, ec kernel.ECKernel, resp *apdu.Buffer, data []byte) error {
	file, id, err := selectedFile(store)
	if err != nil {
		return err
	}
	if _, _, err := se.Validate(secenv.OpECDH, id); err != nil {
		return err
	}

	param, priv, err := curve.PrepareECParam(file, 0)
	if err != nil {
		se.Invalidate()
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}

	out, err := ecdhframe.Derive(param, ec, priv, data)
	if err != nil {
		if errors.Is(err, ecdhframe.ErrMalformedTemplate) {
			return apdu.Err(apdu.SWInvalidData)
		}
		se.Invalidate()
		return apdu.Err(apdu.SWConditionsNotSatisfied)
	}

	n := copy(resp.Bytes(), out)
	resp.SetReady(n)
	return apdu.Err(apdu.SWOK)
}
