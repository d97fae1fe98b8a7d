package keygen

import (
	"bytes"
	"testing"

	"myeidcore/apdu"
	"myeidcore/keyfile"
	"myeidcore/kernel"
)

type fakeFilesystem struct {
	erasedSize uint16
	erasedACL  [3]byte
	called     bool
}

func (f *fakeFilesystem) EraseCard(sizeBits uint16, acl [3]byte) error {
	f.erasedSize = sizeBits
	f.erasedACL = acl
	f.called = true
	return nil
}

type fakePinStore struct {
	lastRef   byte
	lastValue []byte
}

func (p *fakePinStore) Init(reference byte, value []byte) error {
	p.lastRef = reference
	p.lastValue = append([]byte{}, value...)
	return nil
}

func TestGenerateKeyRSAPopulatesCRTPartsAndReturnsModulus(t *testing.T) {
	file := keyfile.NewFile(0x4B01, keyfile.TypeRSA, 512)
	resp := &apdu.Buffer{}
	if err := GenerateKey(file, kernel.NewRSAKernel(), kernel.NewECKernel(), resp, nil); err != nil {
		t.Fatal(err)
	}
	if resp.Len() != 64 {
		t.Fatalf("modulus response length %d, want 64", resp.Len())
	}

	n, ok := file.ReadPart(nil, keyfile.TagP)
	if !ok || n != 32 {
		t.Fatalf("p part missing or wrong size: n=%d ok=%v", n, ok)
	}
	expBuf := make([]byte, 3)
	if n, ok := file.ReadPart(expBuf, keyfile.TagExpPub); !ok || n != 3 || !bytes.Equal(expBuf, []byte{0x01, 0x00, 0x01}) {
		t.Fatalf("unexpected public exponent part: %x ok=%v", expBuf[:n], ok)
	}
	if _, ok := file.ReadPart(nil, keyfile.TagPInvModQ); ok {
		t.Fatalf("precompute parts should not be written without file.Precompute")
	}
}

func TestGenerateKeyRSAWithPrecomputeStoresInverses(t *testing.T) {
	file := keyfile.NewFile(0x4B01, keyfile.TypeRSA, 512)
	file.Precompute = true
	resp := &apdu.Buffer{}
	if err := GenerateKey(file, kernel.NewRSAKernel(), kernel.NewECKernel(), resp, nil); err != nil {
		t.Fatal(err)
	}

	half := 32
	pInv := make([]byte, half)
	if n, ok := file.ReadPart(pInv, keyfile.TagPInvModQ); !ok || n != half {
		t.Fatalf("p^-1 mod q missing or wrong size: n=%d ok=%v", n, ok)
	}
	qInv := make([]byte, half)
	if n, ok := file.ReadPart(qInv, keyfile.TagQInvModP); !ok || n != half {
		t.Fatalf("q^-1 mod p missing or wrong size: n=%d ok=%v", n, ok)
	}
}

func TestGenerateKeyRSARejectsNonStandardExponentField(t *testing.T) {
	file := keyfile.NewFile(0x4B01, keyfile.TypeRSA, 512)
	resp := &apdu.Buffer{}
	// SEQUENCE { INTEGER 3 }
	data := []byte{0x30, 0x03, 0x02, 0x01, 0x03}
	if err := GenerateKey(file, kernel.NewRSAKernel(), kernel.NewECKernel(), resp, data); err == nil {
		t.Fatalf("expected rejection of exponent 3")
	}
}

func TestGenerateKeyRSAAcceptsBugCompatExponentTag0x81(t *testing.T) {
	file := keyfile.NewFile(0x4B01, keyfile.TypeRSA, 512)
	resp := &apdu.Buffer{}
	// SEQUENCE { 0x81-tagged "INTEGER" 65537 } — non-DER but historically accepted.
	data := []byte{0x30, 0x05, 0x81, 0x03, 0x01, 0x00, 0x01}
	if err := GenerateKey(file, kernel.NewRSAKernel(), kernel.NewECKernel(), resp, data); err != nil {
		t.Fatalf("expected bug-compatible acceptance, got %v", err)
	}
}

func TestGenerateKeyECWritesPrivateAndPublicParts(t *testing.T) {
	file := keyfile.NewFile(0x4B02, keyfile.TypeNISTEC, 256)
	resp := &apdu.Buffer{}
	if err := GenerateKey(file, kernel.NewRSAKernel(), kernel.NewECKernel(), resp, nil); err != nil {
		t.Fatal(err)
	}
	if resp.Len() != 67 || resp.Data()[0] != 0x86 {
		t.Fatalf("unexpected generate-key EC response: %x", resp.Data())
	}

	pubBuf := make([]byte, 65)
	n, ok := file.ReadPart(pubBuf, keyfile.TagECPublic)
	if !ok || n != 65 || pubBuf[0] != 0x04 {
		t.Fatalf("EC_PUBLIC part malformed: n=%d ok=%v", n, ok)
	}
}

func TestGenerateKeyECRejectsDataField(t *testing.T) {
	file := keyfile.NewFile(0x4B02, keyfile.TypeNISTEC, 256)
	resp := &apdu.Buffer{}
	if err := GenerateKey(file, kernel.NewRSAKernel(), kernel.NewECKernel(), resp, []byte{0x01}); err == nil {
		t.Fatalf("expected rejection of data field for EC key generation")
	}
}

func TestPutDataInitApplet(t *testing.T) {
	fs := &fakeFilesystem{}
	data := []byte{0x10, 0x00, 0xFF, 0xFF, 0xFF}
	if err := PutData(nil, fs, nil, 0xE0, data); err != nil {
		t.Fatal(err)
	}
	if !fs.called || fs.erasedSize != 0x1000 {
		t.Fatalf("unexpected erase call: called=%v size=%x", fs.called, fs.erasedSize)
	}
}

func TestPutDataInitPIN(t *testing.T) {
	pins := &fakePinStore{}
	data := make([]byte, 16)
	if err := PutData(nil, nil, pins, 0x01, data); err != nil {
		t.Fatal(err)
	}
	if pins.lastRef != 0x01 {
		t.Fatalf("unexpected PIN reference: %x", pins.lastRef)
	}
}

func TestPutDataInitPINRejectsBadLength(t *testing.T) {
	pins := &fakePinStore{}
	if err := PutData(nil, nil, pins, 0x01, make([]byte, 10)); err == nil {
		t.Fatalf("expected rejection of too-short PIN data")
	}
}

func TestPutDataKeyUploadStripsStrayZeroByte(t *testing.T) {
	file := keyfile.NewFile(0x4B01, keyfile.TypeRSA, 512)
	half := make([]byte, 32)
	half[31] = 0x07
	data := append([]byte{0x00}, half...)
	if err := PutData(file, nil, nil, 0x80, data); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 32)
	n, ok := file.ReadPart(got, keyfile.TagP)
	if !ok || n != 32 || !bytes.Equal(got, half) {
		t.Fatalf("stored p part mismatch: %x", got[:n])
	}
}

func TestPutDataKeyUploadRejectsWrongSize(t *testing.T) {
	file := keyfile.NewFile(0x4B01, keyfile.TypeRSA, 512)
	if err := PutData(file, nil, nil, 0x80, make([]byte, 10)); err == nil {
		t.Fatalf("expected wrong-length rejection")
	}
}

func TestPutDataDiscardsPrivateExponentUpload(t *testing.T) {
	file := keyfile.NewFile(0x4B01, keyfile.TypeRSA, 512)
	if err := PutData(file, nil, nil, 0x85, []byte{0x01, 0x02, 0x03}); err != nil {
		t.Fatal(err)
	}
	if _, ok := file.ReadPart(nil, keyfile.TagExp); ok {
		t.Fatalf("private exponent part should not be persisted")
	}
}

func TestPutDataDiscardsSplitPrivateExponentUpload(t *testing.T) {
	file := keyfile.NewFile(0x4B03, keyfile.TypeRSA, 2048)
	if err := PutData(file, nil, nil, 0x8E, make([]byte, 128)); err != nil {
		t.Fatal(err)
	}
	if err := PutData(file, nil, nil, 0x8F, make([]byte, 128)); err != nil {
		t.Fatal(err)
	}
	if _, ok := file.ReadPart(nil, keyfile.TagExpP1); ok {
		t.Fatalf("EXP_p1 part should not be persisted")
	}
	if _, ok := file.ReadPart(nil, keyfile.TagExpP2); ok {
		t.Fatalf("EXP_p2 part should not be persisted")
	}
}

func TestGetDataModulusMatchesGenerated(t *testing.T) {
	file := keyfile.NewFile(0x4B01, keyfile.TypeRSA, 512)
	resp := &apdu.Buffer{}
	if err := GenerateKey(file, kernel.NewRSAKernel(), kernel.NewECKernel(), resp, nil); err != nil {
		t.Fatal(err)
	}
	generated := append([]byte{}, resp.Data()...)

	resp2 := &apdu.Buffer{}
	if err := GetData(file, resp2, 0x01, nil); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(generated, resp2.Data()) {
		t.Fatalf("GET DATA modulus differs from GENERATE KEY response")
	}
}

func TestGetDataKeyInfoUsesOddBitConvention(t *testing.T) {
	file := keyfile.NewFile(0x4B01, keyfile.TypeRSA, 512)
	resp := &apdu.Buffer{}
	if err := GenerateKey(file, kernel.NewRSAKernel(), kernel.NewECKernel(), resp, nil); err != nil {
		t.Fatal(err)
	}

	resp2 := &apdu.Buffer{}
	if err := GetData(file, resp2, 0x00, nil); err != nil {
		t.Fatal(err)
	}
	data := resp2.Data()
	if len(data) != 6 || data[0] != 0x92 || data[1] != 0x00 {
		t.Fatalf("unexpected key info record: %x", data)
	}
	mm := uint16(data[2])<<8 | uint16(data[3])
	if mm != 512 {
		t.Fatalf("modulus bits %d, want 512", mm)
	}
}

func TestGetDataECPublicKeyWrapsInSequenceTag(t *testing.T) {
	file := keyfile.NewFile(0x4B02, keyfile.TypeNISTEC, 256)
	resp := &apdu.Buffer{}
	if err := GenerateKey(file, kernel.NewRSAKernel(), kernel.NewECKernel(), resp, nil); err != nil {
		t.Fatal(err)
	}

	resp2 := &apdu.Buffer{}
	if err := GetData(file, resp2, 0x86, nil); err != nil {
		t.Fatal(err)
	}
	data := resp2.Data()
	if data[0] != 0x30 || data[2] != 0x04 {
		t.Fatalf("unexpected EC public key wrapping: %x", data)
	}
}

func TestGetDataUnmodeledObjectWithoutDelegateFails(t *testing.T) {
	file := keyfile.NewFile(0x4B01, keyfile.TypeRSA, 512)
	resp := &apdu.Buffer{}
	if err := GetData(file, resp, 0xAA, nil); err == nil {
		t.Fatalf("expected rejection without a delegate")
	}
}
