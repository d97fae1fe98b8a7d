package virtualcard

import "fmt"

// pinRecord is one PIN reference's stored value and retry counter.
type pinRecord struct {
	value     []byte
	triesLeft int
	maxTries  int
}

// PinStore is the in-memory PIN collaborator backing PUT DATA's PIN
// initialization side effect and VERIFY PIN-style checks a transport layer
// above the core would perform.
type PinStore struct {
	pins map[byte]*pinRecord
}

// NewPinStore returns an empty PIN store.
func NewPinStore() *PinStore {
	return &PinStore{pins: make(map[byte]*pinRecord)}
}

// Init implements keygen.PinStore: PUT DATA P2 in [0x01, 0x0E] initializes
// PIN reference P2 to value, with a default retry counter of 3.
func (p *PinStore) Init(reference byte, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	p.pins[reference] = &pinRecord{value: stored, triesLeft: 3, maxTries: 3}
	return nil
}

// ErrPinNotFound is returned by Verify/TriesLeft for an uninitialized PIN
// reference.
var ErrPinNotFound = fmt.Errorf("PIN reference not initialized")

// ErrWrongPin is returned by Verify on a value mismatch.
var ErrWrongPin = fmt.Errorf("wrong PIN value")

// ErrPinBlocked is returned by Verify once the retry counter is exhausted.
var ErrPinBlocked = fmt.Errorf("PIN blocked")

// Verify checks value against the stored PIN, decrementing the retry
// counter on mismatch and resetting it on success.
func (p *PinStore) Verify(reference byte, value []byte) error {
	rec, ok := p.pins[reference]
	if !ok {
		return ErrPinNotFound
	}
	if rec.triesLeft == 0 {
		return ErrPinBlocked
	}
	if !bytesEqual(rec.value, value) {
		rec.triesLeft--
		return ErrWrongPin
	}
	rec.triesLeft = rec.maxTries
	return nil
}

// TriesLeft reports the remaining retry count for reference.
func (p *PinStore) TriesLeft(reference byte) (int, error) {
	rec, ok := p.pins[reference]
	if !ok {
		return 0, ErrPinNotFound
	}
	return rec.triesLeft, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
