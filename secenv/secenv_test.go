package secenv

import (
	"errors"
	"testing"

	"myeidcore/apdu"
)

func crdo(algByte byte, keyID uint16) []byte {
	return []byte{
		0x80, 0x01, algByte,
		0x81, 0x02, byte(keyID >> 8), byte(keyID),
	}
}

func TestManageSECommitsSignOperation(t *testing.T) {
	se := &SE{}
	if err := ManageSecurityEnvironment(se, 0x41, 0xB6, crdo(0x02, 0x4B01)); err != nil {
		t.Fatal(err)
	}
	alg, iv, err := se.Validate(OpSign, 0x4B01)
	if err != nil {
		t.Fatal(err)
	}
	if alg != PaddedRsa || iv {
		t.Fatalf("got algorithm %v iv %v", alg, iv)
	}
}

func TestManageSEA4AliasRewritesToECDH(t *testing.T) {
	se := &SE{}
	if err := ManageSecurityEnvironment(se, 0xA4, 0xA4, crdo(0x04, 0x4B02)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := se.Validate(OpECDH, 0x4B02); err != nil {
		t.Fatal(err)
	}
}

func TestManageSEEncipherRequiresP1_81(t *testing.T) {
	se := &SE{}
	if err := ManageSecurityEnvironment(se, 0x81, 0xB8, crdo(0x00, 1)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := se.Validate(OpEncrypt, 1); err != nil {
		t.Fatal(err)
	}
}

func TestManageSEMissingAlgoOrKeyLeavesNone(t *testing.T) {
	se := &SE{}
	err := ManageSecurityEnvironment(se, 0x41, 0xB6, []byte{0x80, 0x01, 0x00})
	if err == nil {
		t.Fatalf("expected error for missing key reference")
	}
	if !se.Invalid() {
		t.Fatalf("SE should be left at NONE")
	}
}

func TestManageSETreats83And84Identically(t *testing.T) {
	for _, tag := range []byte{0x83, 0x84} {
		se := &SE{}
		data := append(crdo(0x00, 1), tag, 0x01, 0x00)
		if err := ManageSecurityEnvironment(se, 0x41, 0xB6, data); err != nil {
			t.Fatalf("tag 0x%02X: unexpected error %v", tag, err)
		}
	}
}

func TestManageSERejectsNonZeroKeyReference(t *testing.T) {
	se := &SE{}
	data := append(crdo(0x00, 1), 0x83, 0x01, 0x01)
	if err := ManageSecurityEnvironment(se, 0x41, 0xB6, data); err == nil {
		t.Fatalf("expected rejection of nonzero key reference byte")
	}
}

func TestManageSEInitVectorFlag(t *testing.T) {
	se := &SE{}
	data := append(crdo(0x00, 1), 0x87, 0x01, 0xAA)
	if err := ManageSecurityEnvironment(se, 0x41, 0xB8, data); err != nil {
		t.Fatal(err)
	}
	_, iv, err := se.Validate(OpDecrypt, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !iv {
		t.Fatalf("expected INIT_VECTOR flag to be set")
	}
}

func TestManageSERestoreRequiresEmptyData(t *testing.T) {
	se := &SE{}
	if err := ManageSecurityEnvironment(se, 0xF3, 0x00, []byte{0x01}); err == nil {
		t.Fatalf("expected rejection of nonempty restore data")
	}
}

func TestValidateRejectsFileMismatch(t *testing.T) {
	se := &SE{}
	if err := ManageSecurityEnvironment(se, 0x41, 0xB6, crdo(0x00, 1)); err != nil {
		t.Fatal(err)
	}
	_, _, err := se.Validate(OpSign, 2)
	if err == nil {
		t.Fatalf("expected mismatch rejection")
	}
	var statusErr *apdu.StatusError
	if !errors.As(err, &statusErr) || statusErr.SW != apdu.SWConditionsNotSatisfied {
		t.Fatalf("expected SWConditionsNotSatisfied, got %v", err)
	}
}

func TestInvalidateResetsEntirely(t *testing.T) {
	se := &SE{}
	ManageSecurityEnvironment(se, 0x41, 0xB6, crdo(0x00, 1))
	se.Invalidate()
	if !se.Invalid() {
		t.Fatalf("expected invalidated SE")
	}
}
