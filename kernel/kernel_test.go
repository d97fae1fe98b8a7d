package kernel

import (
	"crypto/elliptic"
	"math/big"
	"testing"

	"myeidcore/curve"
)

func TestRSACRTRoundTrip(t *testing.T) {
	k := NewRSAKernel()
	key, err := k.GenerateKeyPair(512, 65537)
	if err != nil {
		t.Fatal(err)
	}
	msg := big.NewInt(424242)
	sig, err := k.Exponentiate(msg, key)
	if err != nil {
		t.Fatal(err)
	}
	// public-key verification: sig^e mod n should recover msg.
	check := new(big.Int).Exp(sig, key.PublicExponent, key.Modulus)
	if check.Cmp(msg) != 0 {
		t.Fatalf("CRT roundtrip mismatch: got %v, want %v", check, msg)
	}
}

func TestRSAKeyGenRejectsNonStandardExponent(t *testing.T) {
	k := NewRSAKernel()
	if _, err := k.GenerateKeyPair(512, 3); err == nil {
		t.Fatalf("expected rejection of exponent 3")
	}
}

func TestECDeriveSharedAgrees(t *testing.T) {
	param := &curve.Param{ID: curve.P256, MPSize: 32, Curve: elliptic.P256(), Order: elliptic.P256().Params().N}
	k := NewECKernel()

	privA, pubA, err := k.GenerateKeyPair(param)
	if err != nil {
		t.Fatal(err)
	}
	privB, pubB, err := k.GenerateKeyPair(param)
	if err != nil {
		t.Fatal(err)
	}

	sharedA, err := k.DeriveShared(param, privA, pubB)
	if err != nil {
		t.Fatal(err)
	}
	sharedB, err := k.DeriveShared(param, privB, pubA)
	if err != nil {
		t.Fatal(err)
	}
	if sharedA.X.Cmp(sharedB.X) != 0 {
		t.Fatalf("ECDH mismatch: %v != %v", sharedA.X, sharedB.X)
	}
}

func TestSymKernelDESRoundTrip(t *testing.T) {
	k := NewSymKernel()
	key := make([]byte, 8)
	for i := range key {
		key[i] = byte(i + 1)
	}
	block := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	ct, err := k.EncryptDES(key, block)
	if err != nil {
		t.Fatal(err)
	}
	pt, err := k.DecryptDES(key, ct)
	if err != nil {
		t.Fatal(err)
	}
	for i := range block {
		if pt[i] != block[i] {
			t.Fatalf("DES roundtrip mismatch at %d", i)
		}
	}
}

func TestSymKernelAESRoundTrip(t *testing.T) {
	k := NewSymKernel()
	key := make([]byte, 16)
	block := make([]byte, 16)
	ct, err := k.EncryptAES(key, block)
	if err != nil {
		t.Fatal(err)
	}
	pt, err := k.DecryptAES(key, ct)
	if err != nil {
		t.Fatal(err)
	}
	for i := range block {
		if pt[i] != block[i] {
			t.Fatalf("AES roundtrip mismatch at %d", i)
		}
	}
}
