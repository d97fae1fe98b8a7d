package virtualcard

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"myeidcore/keyfile"
)

// Fixture describes a card's pre-provisioned state for tests and local
// exploration: its declared capacity, PIN references, and key files with
// their raw part uploads. Uses a YAML-driven layout (files keyed by ID,
// each holding a tag->hex map), which nests more naturally than flat JSON.
type Fixture struct {
	SizeBits uint16        `yaml:"size_bits"`
	ACL      [3]byte       `yaml:"-"`
	ACLHex   string        `yaml:"acl_hex"`
	Pins     []FixturePin  `yaml:"pins"`
	Files    []FixtureFile `yaml:"files"`
}

// FixturePin provisions one PIN reference.
type FixturePin struct {
	Reference byte   `yaml:"reference"`
	ValueHex  string `yaml:"value_hex"`
}

// FixtureFile provisions one key file: its ID, type, nominal size, and a
// set of raw parts keyed by the same tag byte PUT DATA's P2 uses.
type FixtureFile struct {
	ID       uint16            `yaml:"id"`
	Type     string            `yaml:"type"`
	SizeBits uint16            `yaml:"size_bits"`
	Parts    map[string]string `yaml:"parts"`
	Select   bool              `yaml:"select"`
}

// LoadFixture reads and decodes a fixture file, rejecting unknown keys so a
// typo in a fixture fails loudly instead of silently no-opping.
func LoadFixture(path string) (*Fixture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if f.ACLHex != "" {
		acl, err := hex.DecodeString(f.ACLHex)
		if err != nil || len(acl) != 3 {
			return nil, fmt.Errorf("acl_hex must be 3 bytes of hex")
		}
		copy(f.ACL[:], acl)
	}
	return &f, nil
}

var fileTypeByName = map[string]keyfile.FileType{
	"rsa":       keyfile.TypeRSA,
	"ec":        keyfile.TypeNISTEC,
	"secp256k1": keyfile.TypeSecp256k1,
	"des":       keyfile.TypeDES,
	"aes":       keyfile.TypeAES,
}

// Apply provisions a Card's filesystem and PIN store from the fixture,
// bypassing the APDU layer entirely: each part is written straight to the
// key file with File.WritePart, so PUT DATA's per-part size checks and
// stray-0x00 stripping are not applied.
func (f *Fixture) Apply(c *Card) error {
	var acl [3]byte
	if f.SizeBits != 0 || f.ACLHex != "" {
		acl = f.ACL
		if err := c.FS.EraseCard(f.SizeBits, acl); err != nil {
			return fmt.Errorf("erase card: %w", err)
		}
	}

	for _, p := range f.Pins {
		value, err := hex.DecodeString(p.ValueHex)
		if err != nil {
			return fmt.Errorf("pin %#x: decode value_hex: %w", p.Reference, err)
		}
		if err := c.Pins.Init(p.Reference, value); err != nil {
			return fmt.Errorf("pin %#x: %w", p.Reference, err)
		}
	}

	for _, ff := range f.Files {
		typ, ok := fileTypeByName[ff.Type]
		if !ok {
			return fmt.Errorf("file %#x: unknown type %q", ff.ID, ff.Type)
		}
		file := c.FS.CreateFile(ff.ID, typ, ff.SizeBits)
		for tagHex, valueHex := range ff.Parts {
			tagBytes, err := hex.DecodeString(tagHex)
			if err != nil || len(tagBytes) != 1 {
				return fmt.Errorf("file %#x: part tag %q must be one hex byte", ff.ID, tagHex)
			}
			value, err := hex.DecodeString(valueHex)
			if err != nil {
				return fmt.Errorf("file %#x: part %s: decode value: %w", ff.ID, tagHex, err)
			}
			if err := file.WritePart(keyfile.Tag(tagBytes[0]), value); err != nil {
				return fmt.Errorf("file %#x: part %s: %w", ff.ID, tagHex, err)
			}
		}
		if !ff.Select {
			continue
		}
		if err := c.FS.Select(ff.ID); err != nil {
			return fmt.Errorf("file %#x: select: %w", ff.ID, err)
		}
	}
	return nil
}
