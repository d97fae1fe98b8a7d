package apdu

// Reverse flips buf in place, converting between the little-endian bignum
// representation used internally by the curve/RSA kernels and the
// big-endian representation used on the wire.
func Reverse(buf []byte) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}

// ReverseCopy copies src into dst in reverse byte order. dst and src must be
// the same length and must not overlap.
func ReverseCopy(dst, src []byte) {
	n := len(src)
	for i := 0; i < n; i++ {
		dst[i] = src[n-1-i]
	}
}

// ParseLength reads a single ISO 7816-4 length field from buf, accepting
// either the short form (one byte, value <= 0x7F) or the long form
// (0x81 followed by one length byte). Any other prefix (0x82, 0x83, ...) is
// rejected: the core never needs lengths beyond 255 bytes. It returns the
// decoded length and the number of bytes the length field itself occupied.
func ParseLength(buf []byte) (length int, consumed int, ok bool) {
	if len(buf) == 0 {
		return 0, 0, false
	}
	if buf[0] <= 0x7F {
		return int(buf[0]), 1, true
	}
	if buf[0] == 0x81 {
		if len(buf) < 2 {
			return 0, 0, false
		}
		return int(buf[1]), 2, true
	}
	return 0, 0, false
}

// AppendLength appends the ISO 7816-4 encoding of n (short form if n <=
// 0x7F, else long form 0x81 LL) to dst.
func AppendLength(dst []byte, n int) []byte {
	if n <= 0x7F {
		return append(dst, byte(n))
	}
	return append(dst, 0x81, byte(n))
}

// AppendDERInteger appends a DER INTEGER (tag 0x02, length, content) built
// from value, a big-endian unsigned magnitude. A leading zero byte is
// inserted whenever the magnitude's most significant bit is set, so the
// encoding is always read back as non-negative (and whenever value itself
// already carries a non-significant leading zero, it is dropped first, so
// the output stays minimal).
func AppendDERInteger(dst []byte, value []byte) []byte {
	v := value
	for len(v) > 1 && v[0] == 0x00 && v[1]&0x80 == 0 {
		v = v[1:]
	}
	needsPad := len(v) == 0 || v[0]&0x80 != 0
	contentLen := len(v)
	if needsPad {
		contentLen++
	}
	dst = append(dst, 0x02)
	dst = AppendLength(dst, contentLen)
	if needsPad {
		dst = append(dst, 0x00)
	}
	return append(dst, v...)
}
