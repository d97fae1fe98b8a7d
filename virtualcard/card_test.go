package virtualcard

import (
	"crypto/elliptic"
	"crypto/rand"
	"math/big"
	"testing"

	"myeidcore/apdu"
	"myeidcore/keyfile"
)

func crdo(tag byte, value []byte) []byte {
	out := append([]byte{tag}, apdu.AppendLength(nil, len(value))...)
	return append(out, value...)
}

func manageSE(t *testing.T, c *Card, p1, p2 byte, algByte byte, fileID uint16) {
	t.Helper()
	data := append(crdo(0x80, []byte{algByte}), crdo(0x81, []byte{byte(fileID >> 8), byte(fileID)})...)
	if _, sw := c.Transmit(0x00, 0x22, p1, p2, data); sw != uint16(apdu.SWOK) {
		t.Fatalf("MANAGE SE failed: SW=%04X", sw)
	}
}

func getResponse(t *testing.T, c *Card, sw uint16) []byte {
	t.Helper()
	if sw&0xFF00 != 0x6100 {
		t.Fatalf("expected response-ready SW, got %04X", sw)
	}
	data, finalSW := c.Transmit(0x00, 0xC0, 0x00, 0x00, nil)
	if finalSW != uint16(apdu.SWOK) {
		t.Fatalf("GET RESPONSE failed: SW=%04X", finalSW)
	}
	return data
}

func TestSignThenVerifyRSARoundTrip(t *testing.T) {
	c := NewCard()
	c.FS.CreateFile(0x4B01, keyfile.TypeRSA, 512)

	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	modulus := getResponse(t, c, sw)
	if len(modulus) != 64 {
		t.Fatalf("modulus length %d, want 64", len(modulus))
	}

	manageSE(t, c, 0x41, 0xB6, 0x00, 0x4B01)

	digest := make([]byte, 64)
	for i := range digest {
		digest[i] = byte(i + 1)
	}
	_, sw = c.Transmit(0x00, 0x2A, 0x9E, 0x9A, digest)
	sig := getResponse(t, c, sw)
	if len(sig) != 64 {
		t.Fatalf("signature length %d, want 64", len(sig))
	}

	n := new(big.Int).SetBytes(modulus)
	e := big.NewInt(65537)
	got := new(big.Int).Exp(new(big.Int).SetBytes(sig), e, n)
	want := new(big.Int).SetBytes(digest)
	if got.Cmp(want) != 0 {
		t.Fatalf("signature does not verify: got %x, want %x", got.Bytes(), want.Bytes())
	}

	_, sw = c.Transmit(0x00, 0xCA, 0x01, 0x01, nil)
	modFromGetData := getResponse(t, c, sw)
	if string(modFromGetData) != string(modulus) {
		t.Fatalf("GET DATA modulus differs from GENERATE KEY response")
	}
}

func TestSignAlgorithmMismatchRejectsWrongLength(t *testing.T) {
	c := NewCard()
	c.FS.CreateFile(0x4B01, keyfile.TypeRSA, 512)
	if _, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil); sw&0xFF00 != 0x6100 {
		t.Fatalf("unexpected GENERATE KEY status: %04X", sw)
	}
	c.Transmit(0x00, 0xC0, 0x00, 0x00, nil)

	manageSE(t, c, 0x41, 0xB6, 0x00, 0x4B01)

	_, sw := c.Transmit(0x00, 0x2A, 0x9E, 0x9A, make([]byte, 20))
	if sw != uint16(apdu.SWConditionsNotSatisfied) {
		t.Fatalf("expected SW=6985 for length mismatch, got %04X", sw)
	}
}

func TestGeneralAuthenticateECDHMatchesHostComputation(t *testing.T) {
	c := NewCard()
	c.FS.CreateFile(0x4B02, keyfile.TypeNISTEC, 256)

	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	genResp := getResponse(t, c, sw)
	if genResp[0] != 0x86 {
		t.Fatalf("unexpected GENERATE KEY EC response tag: %x", genResp[0])
	}

	_, sw = c.Transmit(0x00, 0xCA, 0x01, 0x86, nil)
	pubWrapped := getResponse(t, c, sw)
	if pubWrapped[0] != 0x30 {
		t.Fatalf("unexpected GET DATA EC public key tag: %x", pubWrapped[0])
	}
	point := pubWrapped[2:] // strip 30 LL, keep 04||X||Y
	cardX := new(big.Int).SetBytes(point[1:33])
	cardY := new(big.Int).SetBytes(point[33:65])

	peerPriv, peerX, peerY, err := elliptic.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	manageSE(t, c, 0x41, 0xA4, 0x04, 0x4B02)

	peerPoint := append([]byte{0x04}, make([]byte, 64)...)
	peerX.FillBytes(peerPoint[1:33])
	peerY.FillBytes(peerPoint[33:65])
	template := crdo(0x7C, crdo(0x85, peerPoint))

	_, sw = c.Transmit(0x00, 0x86, 0x00, 0x00, template)
	cardSharedX := getResponse(t, c, sw)
	if len(cardSharedX) != 32 {
		t.Fatalf("shared x-coordinate length %d, want 32", len(cardSharedX))
	}

	hostX, _ := elliptic.P256().ScalarMult(cardX, cardY, peerPriv)
	hostXBuf := make([]byte, 32)
	hostX.FillBytes(hostXBuf)

	if string(hostXBuf) != string(cardSharedX) {
		t.Fatalf("host-computed shared secret does not match card's: host=%x card=%x", hostXBuf, cardSharedX)
	}
}

func TestSplitDecipherMatchesSingleShotOnTheWire(t *testing.T) {
	c := NewCard()
	c.FS.CreateFile(0x4B03, keyfile.TypeRSA, 2048)

	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	modulus := getResponse(t, c, sw)
	if len(modulus) != 256 {
		t.Fatalf("modulus length %d, want 256", len(modulus))
	}
	n := new(big.Int).SetBytes(modulus)
	e := big.NewInt(65537)

	plain := make([]byte, 256)
	plain[254] = 0x12
	plain[255] = 0x34
	m := new(big.Int).SetBytes(plain)
	ct := new(big.Int).Exp(m, e, n)
	ciphertext := make([]byte, 256)
	ct.FillBytes(ciphertext)

	manageSE(t, c, 0x41, 0xB8, 0x00, 0x4B03)
	_, sw = c.Transmit(0x80, 0x2A, 0x80, 0x86, append([]byte{0x00}, ciphertext...))
	singleShot := getResponse(t, c, sw)
	if string(singleShot) != string(plain) {
		t.Fatalf("single-shot decipher mismatch")
	}

	manageSE(t, c, 0x41, 0xB8, 0x00, 0x4B03)
	_, sw = c.Transmit(0x80, 0x2A, 0x80, 0x86, append([]byte{0x81}, ciphertext[:128]...))
	if sw != uint16(apdu.SWOK) {
		t.Fatalf("first half of split decipher should return 9000 with no data, got %04X", sw)
	}
	_, sw = c.Transmit(0x80, 0x2A, 0x80, 0x86, append([]byte{0x82}, ciphertext[128:]...))
	split := getResponse(t, c, sw)
	if string(split) != string(plain) {
		t.Fatalf("split decipher mismatch: got %x, want %x", split, plain)
	}
}

func TestDecipherBadType2PaddingIsRejected(t *testing.T) {
	c := NewCard()
	c.FS.CreateFile(0x4B04, keyfile.TypeRSA, 2048)

	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	modulus := getResponse(t, c, sw)
	n := new(big.Int).SetBytes(modulus)
	e := big.NewInt(65537)

	// A block that decrypts to 00 02 00 ... : zero-length padding string,
	// which removeType2Padding must reject.
	block := make([]byte, 256)
	block[0] = 0x00
	block[1] = 0x02
	block[2] = 0x00
	m := new(big.Int).SetBytes(block)
	ct := new(big.Int).Exp(m, e, n)
	ciphertext := make([]byte, 256)
	ct.FillBytes(ciphertext)

	manageSE(t, c, 0x41, 0xB8, 0x02, 0x4B04)
	_, sw = c.Transmit(0x80, 0x2A, 0x80, 0x86, append([]byte{0x00}, ciphertext...))
	if sw != uint16(apdu.SWConditionsNotSatisfied) {
		t.Fatalf("expected SW=6985 for bad padding, got %04X", sw)
	}
}

func TestGenerateThenGetDataAgreeForECKey(t *testing.T) {
	c := NewCard()
	c.FS.CreateFile(0x4B05, keyfile.TypeNISTEC, 256)

	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	genResp := getResponse(t, c, sw)
	if len(genResp) != 67 || genResp[0] != 0x86 {
		t.Fatalf("unexpected GENERATE KEY response: %x", genResp)
	}

	_, sw = c.Transmit(0x00, 0xCA, 0x01, 0x86, nil)
	getResp := getResponse(t, c, sw)
	if len(getResp) != 67 || getResp[0] != 0x30 {
		t.Fatalf("unexpected GET DATA response: %x", getResp)
	}
	if string(genResp[2:]) != string(getResp[2:]) {
		t.Fatalf("GENERATE KEY and GET DATA disagree on the public key bytes")
	}
}
