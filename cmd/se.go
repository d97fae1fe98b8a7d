package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"myeidcore/apdu"
)

var (
	seOperation string
	seAlgorithm string
	seFileID    string
	seIV        bool
)

var seCmd = &cobra.Command{
	Use:   "se",
	Short: "Issue MANAGE SECURITY ENVIRONMENT (INS 22)",
	Long: `Set the security environment before a PERFORM SECURITY OPERATION or
GENERAL AUTHENTICATE call.

Examples:
  # Select file 4B01 for an RSA sign with SHA-1 DigestInfo padding
  myeidcore se --op sign --algo sha1digestinfo --file 4B01

  # Select file 4B02 for ECDH key agreement
  myeidcore se --op ecdh --file 4B02

  # Select file 4B03 for symmetric decrypt with CBC chaining
  myeidcore se --op decrypt --algo raw --file 4B03 --iv`,
	Run: runSE,
}

func init() {
	seCmd.Flags().StringVar(&seOperation, "op", "sign",
		"Operation: sign, decrypt, encrypt, ecdh")
	seCmd.Flags().StringVar(&seAlgorithm, "algo", "raw",
		"Algorithm reference: raw, paddedrsa, ecdsaraw, sha1digestinfo")
	seCmd.Flags().StringVar(&seFileID, "file", "",
		"Key file ID, hex (e.g. 4B01)")
	seCmd.Flags().BoolVar(&seIV, "iv", false,
		"Set the INIT_VECTOR CRDO (zero-IV CBC chaining for symmetric ops)")
	rootCmd.AddCommand(seCmd)
}

var algorithmByte = map[string]byte{
	"raw":            0x00,
	"paddedrsa":      0x02,
	"ecdsaraw":       0x04,
	"sha1digestinfo": 0x12,
}

func runSE(cmd *cobra.Command, args []string) {
	if seFileID == "" {
		printError("--file is required")
		return
	}
	fileID, err := parseFileID(seFileID)
	if err != nil {
		printError(err.Error())
		return
	}
	algByte, ok := algorithmByte[seAlgorithm]
	if !ok {
		printError(fmt.Sprintf("unknown algorithm %q", seAlgorithm))
		return
	}

	var p1, p2 byte
	switch seOperation {
	case "sign":
		p1, p2 = 0x41, 0xB6
	case "decrypt":
		p1, p2 = 0x41, 0xB8
	case "encrypt":
		p1, p2 = 0x81, 0xB8
	case "ecdh":
		p1, p2 = 0x41, 0xA4
	default:
		printError(fmt.Sprintf("unknown operation %q", seOperation))
		return
	}

	data := crdoTag(0x80, []byte{algByte})
	data = append(data, crdoTag(0x81, []byte{byte(fileID >> 8), byte(fileID)})...)
	if seIV {
		data = append(data, crdoTag(0x87, nil)...)
	}

	t, err := openTarget()
	if err != nil {
		printError(err.Error())
		return
	}
	defer t.Close()

	_, sw, err := t.Send(0x00, 0x22, p1, p2, data)
	if err != nil {
		printError(err.Error())
		return
	}
	reportStatus("MANAGE SE", sw)
}

func crdoTag(tag byte, value []byte) []byte {
	out := append([]byte{tag}, apdu.AppendLength(nil, len(value))...)
	return append(out, value...)
}

func reportStatus(label string, sw uint16) {
	if sw == uint16(apdu.SWOK) {
		printSuccess(fmt.Sprintf("%s: SW=9000 OK", label))
		return
	}
	printError(fmt.Sprintf("%s: SW=%04X", label, sw))
}
