// Package keyfile models the typed key-file records the filesystem
// collaborator persists. The dispatcher only ever touches key material
// through this package's Tag-addressed reads and writes; where the bytes
// actually live on disk is outside this package's scope.
package keyfile

import "fmt"

// FileType identifies the cryptographic kind of a key file.
type FileType uint8

const (
	TypeRSA       FileType = 0x11
	TypeNISTEC    FileType = 0x22
	TypeSecp256k1 FileType = 0x23
	TypeDES       FileType = 0x19
	TypeAES       FileType = 0x29
)

func (t FileType) String() string {
	switch t {
	case TypeRSA:
		return "RSA"
	case TypeNISTEC:
		return "NIST-EC"
	case TypeSecp256k1:
		return "secp256k1"
	case TypeDES:
		return "DES"
	case TypeAES:
		return "AES"
	default:
		return fmt.Sprintf("FileType(0x%02X)", uint8(t))
	}
}

// Tag identifies a key part within a file. Values equal the PUT DATA P2
// byte used to address that part on the wire, which is
// also how the original MyEID applet keys its fs_key_write_part/
// fs_key_read_part calls.
type Tag uint8

const (
	TagP         Tag = 0x80 // RSA prime p
	TagQ         Tag = 0x81 // RSA prime q
	TagDP        Tag = 0x82 // RSA CRT exponent dP
	TagDQ        Tag = 0x83 // RSA CRT exponent dQ
	TagQInv      Tag = 0x84 // RSA CRT coefficient qInv
	TagExp       Tag = 0x85 // RSA private exponent (non-CRT, accepted and discarded)
	TagECPublic  Tag = 0x86 // EC public point, 0x04||X||Y
	TagECPrivate Tag = 0x87 // EC private scalar
	TagModP1     Tag = 0x88 // upper half of a split 2048-bit modulus
	TagModP2     Tag = 0x89 // lower half of a split 2048-bit modulus
	TagMod       Tag = 0x8A // RSA modulus (single-part, <2048 bits)
	TagExpPub    Tag = 0x8B // RSA public exponent
	TagPInvModQ  Tag = 0x8C // inverse of p mod q (Precompute build option)
	TagQInvModP  Tag = 0x8D // inverse of q mod p (Precompute build option)
	TagExpP1     Tag = 0x8E // upper half of a split private exponent (accepted and discarded)
	TagExpP2     Tag = 0x8F // lower half of a split private exponent (accepted and discarded)
	TagSym       Tag = 0xA0 // DES/3DES/AES symmetric key
)

// discardedTags are accepted on upload but never persisted: MyEID only
// stores RSA keys in CRT form, so the plain private exponent (and its
// MOD-style p1/p2 split for 2048-bit keys) has no home.
var discardedTags = map[Tag]bool{TagExp: true, TagExpP1: true, TagExpP2: true}

// IsDiscarded reports whether writes to tag are silently accepted without
// being persisted.
func IsDiscarded(tag Tag) bool {
	return discardedTags[tag]
}

// File is one persisted key-file record.
type File struct {
	ID       uint16
	Type     FileType
	SizeBits uint16
	// Precompute, when set, asks RSA key generation to additionally store
	// TagPInvModQ/TagQInvModP, the inverse-of-each-prime-mod-the-other
	// precomputes from the original's USE_P_Q_INV build option.
	Precompute bool

	parts map[Tag][]byte
}

// NewFile creates an empty key file of the given type and size.
func NewFile(id uint16, typ FileType, sizeBits uint16) *File {
	return &File{ID: id, Type: typ, SizeBits: sizeBits, parts: make(map[Tag][]byte)}
}

// ModulusBytes returns the RSA modulus size in bytes (SizeBits/8).
func (f *File) ModulusBytes() int {
	return int(f.SizeBits) / 8
}

// ReadPart copies the part's content into dst and returns the number of
// bytes written. If dst is nil, it returns only the part's length, copying
// nothing. A missing part returns (0, false).
func (f *File) ReadPart(dst []byte, tag Tag) (int, bool) {
	if tag == TagMod {
		if mod, ok := f.modulus(); ok {
			if dst != nil {
				copy(dst, mod)
			}
			return len(mod), true
		}
		return 0, false
	}
	v, ok := f.parts[tag]
	if !ok {
		return 0, false
	}
	if dst != nil {
		copy(dst, v)
	}
	return len(v), true
}

// modulus reconstructs the big-endian modulus, transparently joining the
// split MOD_p1 (upper)/MOD_p2 (lower) halves used for 2048-bit keys: the
// joined result is MOD_p1 followed by MOD_p2.
func (f *File) modulus() ([]byte, bool) {
	if v, ok := f.parts[TagMod]; ok {
		return v, true
	}
	hi, hiOK := f.parts[TagModP1]
	lo, loOK := f.parts[TagModP2]
	if !hiOK || !loOK {
		return nil, false
	}
	out := make([]byte, 0, len(hi)+len(lo))
	out = append(out, hi...)
	out = append(out, lo...)
	return out, true
}

// WritePart stores value under tag. It builds the new part set in a
// scratch copy and only swaps it in on success, so a failed write never
// leaves a partially updated file visible to subsequent reads.
func (f *File) WritePart(tag Tag, value []byte) error {
	if IsDiscarded(tag) {
		return nil
	}
	staged := make([]byte, len(value))
	copy(staged, value)
	if f.parts == nil {
		f.parts = make(map[Tag][]byte)
	}
	f.parts[tag] = staged
	return nil
}

// HasSymmetricKey reports whether a symmetric key part is present, which
// the PSO dispatcher (C9) uses to decide between the symmetric and RSA
// decipher paths for a given selected file.
func (f *File) HasSymmetricKey() bool {
	_, ok := f.parts[TagSym]
	return ok
}

// Store is the external filesystem collaborator's view as consumed by the
// core: selection of the current file, and type/size/part access for it.
// The filesystem's allocator, ACL enforcement, and on-disk layout are out
// of scope; this interface is the entire contract.
type Store interface {
	// Selected returns the currently selected file's ID, or ok=false if no
	// file is selected.
	Selected() (id uint16, ok bool)
	// Lookup returns the key-file record for id.
	Lookup(id uint16) (*File, error)
}

// ErrFileNotFound is returned by Store.Lookup for an unknown file ID.
var ErrFileNotFound = fmt.Errorf("key file not found")
