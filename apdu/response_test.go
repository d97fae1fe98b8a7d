package apdu

import "testing"

func TestBufferReadyRoundTrip(t *testing.T) {
	var b Buffer
	copy(b.Bytes(), []byte{1, 2, 3})
	b.SetReady(3)
	if b.Flag() != Ready {
		t.Fatalf("Flag() = %v, want Ready", b.Flag())
	}
	if got := b.Data(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Data() = %v", got)
	}
}

func TestBufferTmpStashAndTake(t *testing.T) {
	var b Buffer
	b.StashTmp([]byte{0xAA, 0xBB})
	if b.Flag() != Tmp {
		t.Fatalf("Flag() = %v, want Tmp", b.Flag())
	}
	out := b.TakeTmp()
	if len(out) != 2 || out[0] != 0xAA || out[1] != 0xBB {
		t.Fatalf("TakeTmp() = %v", out)
	}
	if b.Flag() != Empty {
		t.Fatalf("Flag() after TakeTmp = %v, want Empty", b.Flag())
	}
}

func TestBufferResetZeroes(t *testing.T) {
	var b Buffer
	copy(b.Bytes(), []byte{1, 2, 3, 4})
	b.SetReady(4)
	b.Reset()
	for i, v := range b.Bytes() {
		if v != 0 {
			t.Fatalf("byte %d not zeroed after Reset: %v", i, v)
		}
	}
	if b.Flag() != Empty || b.Len() != 0 {
		t.Fatalf("Reset left Flag=%v Len=%d", b.Flag(), b.Len())
	}
}
