// Package virtualcard composes the core components (apdu, keyfile, curve,
// kernel, rsaframe, ecdsaframe, ecdhframe, symcipher, secenv, pso, keygen)
// into a runnable in-process card: a filesystem, a PIN store, and an APDU
// dispatcher loop.
package virtualcard

import (
	"fmt"

	"myeidcore/keyfile"
)

// Filesystem is the in-memory keyfile.Store + keygen.Filesystem
// implementation backing the virtual card. It is deliberately simple: no
// ACL enforcement, no wear-leveling, no on-disk persistence — storage
// personalization is treated as an external concern.
type Filesystem struct {
	files      map[uint16]*keyfile.File
	selectedID uint16
	hasSel     bool

	sizeBits uint16
	acl      [3]byte
}

// NewFilesystem returns an empty filesystem.
func NewFilesystem() *Filesystem {
	return &Filesystem{files: make(map[uint16]*keyfile.File)}
}

// Selected implements keyfile.Store.
func (fs *Filesystem) Selected() (uint16, bool) {
	return fs.selectedID, fs.hasSel
}

// Lookup implements keyfile.Store.
func (fs *Filesystem) Lookup(id uint16) (*keyfile.File, error) {
	f, ok := fs.files[id]
	if !ok {
		return nil, keyfile.ErrFileNotFound
	}
	return f, nil
}

// Select makes id the currently selected file. File selection itself
// (the outer ISO 7816-4 SELECT command) is explicitly out of the core's
// scope; this is the minimal hook the dispatcher and test fixtures need.
func (fs *Filesystem) Select(id uint16) error {
	if _, ok := fs.files[id]; !ok {
		return keyfile.ErrFileNotFound
	}
	fs.selectedID = id
	fs.hasSel = true
	return nil
}

// CreateFile provisions a new key file of the given type and size and
// makes it the selected file, returning it for further setup by tests or
// fixtures.
func (fs *Filesystem) CreateFile(id uint16, typ keyfile.FileType, sizeBits uint16) *keyfile.File {
	f := keyfile.NewFile(id, typ, sizeBits)
	fs.files[id] = f
	fs.selectedID = id
	fs.hasSel = true
	return f
}

// EraseCard implements keygen.Filesystem: it discards every file and
// resets selection, recording the requested capacity and ACL bytes for
// later inspection (the core does not interpret ACL contents itself).
func (fs *Filesystem) EraseCard(sizeBits uint16, acl [3]byte) error {
	fs.files = make(map[uint16]*keyfile.File)
	fs.selectedID = 0
	fs.hasSel = false
	fs.sizeBits = sizeBits
	fs.acl = acl
	return nil
}

// Capacity reports the size most recently passed to EraseCard.
func (fs *Filesystem) Capacity() uint16 {
	return fs.sizeBits
}

// ErrAlreadyProvisioned is a sentinel for a duplicate file ID. CreateFile
// itself replaces an existing file with the same ID instead of returning
// it, and Fixture.Apply does not use it.
var ErrAlreadyProvisioned = fmt.Errorf("file already provisioned")
