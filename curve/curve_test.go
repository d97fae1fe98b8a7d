package curve

import (
	"testing"

	"myeidcore/keyfile"
)

func TestLookupTable(t *testing.T) {
	cases := []struct {
		typ    keyfile.FileType
		size   int
		want   ID
		wantOK bool
	}{
		{keyfile.TypeNISTEC, 24, P192, true},
		{keyfile.TypeNISTEC, 32, P256, true},
		{keyfile.TypeNISTEC, 48, P384, true},
		{keyfile.TypeNISTEC, 66, P521, true},
		{keyfile.TypeSecp256k1, 32, Secp256k1, true},
		{keyfile.TypeNISTEC, 32, P256, true}, // NIST type at 32 bytes is P-256, never secp256k1
		{keyfile.TypeNISTEC, 20, 0, false},
		{keyfile.TypeRSA, 32, 0, false},
	}
	for _, c := range cases {
		id, ok := Lookup(c.typ, c.size)
		if ok != c.wantOK {
			t.Fatalf("Lookup(%v,%d) ok=%v, want %v", c.typ, c.size, ok, c.wantOK)
		}
		if ok && id != c.want {
			t.Fatalf("Lookup(%v,%d) = %v, want %v", c.typ, c.size, id, c.want)
		}
	}
}

func TestPrepareECParamDerivesSizeFromStoredKey(t *testing.T) {
	f := keyfile.NewFile(0x4B02, keyfile.TypeNISTEC, 256)
	priv := make([]byte, 32)
	priv[31] = 0x07
	f.WritePart(keyfile.TagECPrivate, priv)

	param, key, err := PrepareECParam(f, 0)
	if err != nil {
		t.Fatal(err)
	}
	if param.ID != P256 {
		t.Fatalf("curve = %v, want P-256", param.ID)
	}
	if key.Int64() != 7 {
		t.Fatalf("working key = %v, want 7", key)
	}
}

func TestPrepareECParamUnsupportedSize(t *testing.T) {
	f := keyfile.NewFile(0x4B02, keyfile.TypeNISTEC, 160)
	f.WritePart(keyfile.TagECPrivate, make([]byte, 20))
	if _, _, err := PrepareECParam(f, 0); err == nil {
		t.Fatalf("expected error for unsupported size")
	}
}
