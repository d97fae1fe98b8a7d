package apdu

// Flag classifies the state of a ResponseBuffer.
type Flag uint8

const (
	// Empty means no response data is staged.
	Empty Flag = iota
	// Ready means the outer command loop must emit SW=61xx and stream Len
	// bytes on GET RESPONSE.
	Ready
	// Tmp means the buffer holds partial ciphertext across the 0x81/0x82
	// split-decipher continuation and is not yet a deliverable response.
	Tmp
	// NoData means the command succeeded but produced no response bytes.
	NoData
)

// Capacity is the response buffer size: exactly one 2048-bit RSA block
// (256 bytes).
const Capacity = 256

// Buffer is the scoped, per-APDU response arena. Callers reuse one Buffer
// across the lifetime of a card/session; it is never shared across
// concurrent operations.
type Buffer struct {
	flag Flag
	len  int
	data [Capacity]byte
}

// Data returns the staged bytes (length Len()); valid for Flag() == Ready.
func (b *Buffer) Data() []byte {
	return b.data[:b.len]
}

// Len returns the number of staged bytes.
func (b *Buffer) Len() int {
	return b.len
}

// Flag returns the buffer's current state.
func (b *Buffer) Flag() Flag {
	return b.flag
}

// Reset clears the buffer to Empty, zeroing any staged bytes so sensitive
// plaintext/ciphertext never lingers past the APDU that produced it.
func (b *Buffer) Reset() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.len = 0
	b.flag = Empty
}

// SetReady stages n bytes (already written into Bytes()) as the response and
// marks the buffer Ready. n must not exceed Capacity.
func (b *Buffer) SetReady(n int) {
	b.len = n
	b.flag = Ready
}

// SetNoData marks the buffer as carrying no response bytes (success with an
// empty body, e.g. MANAGE SE or the first half of a split decipher).
func (b *Buffer) SetNoData() {
	b.len = 0
	b.flag = NoData
}

// Bytes exposes the full backing array so component code can write a
// response directly into it before calling SetReady.
func (b *Buffer) Bytes() []byte {
	return b.data[:]
}

// StashTmp copies buf into the buffer and marks it Tmp, used by the
// 2048-bit decipher continuation (P2=0x86, indicator 0x81) to carry the
// first half of a ciphertext across to the next PSO APDU.
func (b *Buffer) StashTmp(buf []byte) {
	n := copy(b.data[:], buf)
	b.len = n
	b.flag = Tmp
}

// TakeTmp returns the stashed bytes and clears the buffer back to Empty.
// Callers must have already checked Flag() == Tmp.
func (b *Buffer) TakeTmp() []byte {
	out := make([]byte, b.len)
	copy(out, b.data[:b.len])
	b.Reset()
	return out
}
