package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"myeidcore/apdu"
	"myeidcore/keyfile"
)

var (
	keygenFileID string
	keygenType   string
	keygenSize   uint16
	keygenExpHex string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "GENERATE KEY (INS 46)",
	Long: `Create a key file and generate a keypair into it.

Examples:
  myeidcore keygen --file 4B01 --type rsa --size 1024
  myeidcore keygen --file 4B01 --type rsa --size 2048 --exponent 010001
  myeidcore keygen --file 4B02 --type ec --size 256`,
	Run: runKeygen,
}

func init() {
	keygenCmd.Flags().StringVar(&keygenFileID, "file", "", "Key file ID, hex (e.g. 4B01)")
	keygenCmd.Flags().StringVar(&keygenType, "type", "rsa", "Key file type: rsa, ec, secp256k1")
	keygenCmd.Flags().Uint16Var(&keygenSize, "size", 1024, "Key size in bits (RSA: 512-2048; EC: curve bit size)")
	keygenCmd.Flags().StringVar(&keygenExpHex, "exponent", "", "Optional public exponent, hex (RSA only, must be 010001)")
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) {
	if keygenFileID == "" {
		printError("--file is required")
		return
	}
	fileID, err := parseFileID(keygenFileID)
	if err != nil {
		printError(err.Error())
		return
	}
	if _, ok := fileTypeByName[keygenType]; !ok {
		printError(fmt.Sprintf("unknown type %q", keygenType))
		return
	}

	var data []byte
	if keygenExpHex != "" {
		exp, err := hex.DecodeString(keygenExpHex)
		if err != nil {
			printError(fmt.Sprintf("invalid exponent hex: %v", err))
			return
		}
		data = crdoTag(0x30, crdoTag(0x02, exp))
	}

	t, err := openTarget()
	if err != nil {
		printError(err.Error())
		return
	}
	defer t.Close()

	if err := ensureFile(t, fileID, keygenType, keygenSize); err != nil {
		printError(err.Error())
		return
	}

	resp, sw, err := sendChecked(t, 0x00, 0x46, 0x00, 0x00, data)
	if err != nil {
		printError(err.Error())
		return
	}
	if sw != uint16(apdu.SWOK) {
		reportStatus("GENERATE KEY", sw)
		return
	}
	printSuccess(fmt.Sprintf("public key material: %s", hex.EncodeToString(resp)))
}

// fileTypeByName maps a --type flag value to the keyfile package's type
// enum, mirroring virtualcard.Fixture's file-type table.
var fileTypeByName = map[string]keyfile.FileType{
	"rsa":       keyfile.TypeRSA,
	"ec":        keyfile.TypeNISTEC,
	"secp256k1": keyfile.TypeSecp256k1,
	"des":       keyfile.TypeDES,
	"aes":       keyfile.TypeAES,
}

// ensureFile creates (and selects) fileID when running against the
// in-process virtual card; a live target is expected to already have the
// file provisioned out-of-band (GlobalPlatform personalization, not
// modeled here).
func ensureFile(t target, fileID uint16, typ string, sizeBits uint16) error {
	vt, ok := t.(*virtualTarget)
	if !ok {
		return nil
	}
	ft, ok := fileTypeByName[typ]
	if !ok {
		return fmt.Errorf("unknown file type %q", typ)
	}
	vt.card.FS.CreateFile(fileID, ft, sizeBits)
	return nil
}
