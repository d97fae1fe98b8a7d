package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"myeidcore/apdu"
)

var psoIndicator string

var signCmd = &cobra.Command{
	Use:   "sign <digest-hex>",
	Short: "PERFORM SECURITY OPERATION: COMPUTE DIGITAL SIGNATURE (P1=9E P2=9A)",
	Long: `Sign a digest or raw message against the currently selected security
environment (see 'myeidcore se --op sign').`,
	Args: cobra.ExactArgs(1),
	Run:  runSign,
}

var decipherCmd = &cobra.Command{
	Use:   "decipher <ciphertext-hex>",
	Short: "PERFORM SECURITY OPERATION: DECIPHER (P1=80 P2=86)",
	Long: `Decipher a symmetric or RSA ciphertext against the currently selected
security environment (see 'myeidcore se --op decrypt').

For an RSA decipher, the 1-byte indicator prefix is required:
  00  single-shot (ciphertext <= one RSA block)
  81  first half of a split ciphertext (stashed, returns 9000 with no data)
  82  second half (returns the recovered plaintext)`,
	Args: cobra.ExactArgs(1),
	Run:  runDecipher,
}

var encipherCmd = &cobra.Command{
	Use:   "encipher <plaintext-hex>",
	Short: "PERFORM SECURITY OPERATION: ENCIPHER, CLA=80 (P1=84 P2=80)",
	Long:  `Encipher a plaintext block with a symmetric key (see 'myeidcore se --op encrypt').`,
	Args:  cobra.ExactArgs(1),
	Run:   runEncipher,
}

var authCmd = &cobra.Command{
	Use:   "auth <peer-point-hex>",
	Short: "GENERAL AUTHENTICATE: ECDH key agreement (INS 86)",
	Long: `Derive a shared secret from the peer's uncompressed EC point (04||X||Y)
against the currently selected security environment (see 'myeidcore se --op ecdh').`,
	Args: cobra.ExactArgs(1),
	Run:  runAuth,
}

func init() {
	decipherCmd.Flags().StringVar(&psoIndicator, "indicator", "00",
		"RSA padding-indicator byte: 00, 81, or 82")
	rootCmd.AddCommand(signCmd, decipherCmd, encipherCmd, authCmd)
}

func runSign(cmd *cobra.Command, args []string) {
	data, err := hex.DecodeString(args[0])
	if err != nil {
		printError(fmt.Sprintf("invalid hex: %v", err))
		return
	}
	t, err := openTarget()
	if err != nil {
		printError(err.Error())
		return
	}
	defer t.Close()

	resp, sw, err := sendChecked(t, 0x00, 0x2A, 0x9E, 0x9A, data)
	if err != nil {
		printError(err.Error())
		return
	}
	if sw != uint16(apdu.SWOK) {
		reportStatus("COMPUTE DIGITAL SIGNATURE", sw)
		return
	}
	printSuccess(fmt.Sprintf("signature: %s", hex.EncodeToString(resp)))
}

func runDecipher(cmd *cobra.Command, args []string) {
	ciphertext, err := hex.DecodeString(args[0])
	if err != nil {
		printError(fmt.Sprintf("invalid hex: %v", err))
		return
	}
	indicator, err := parseByte(psoIndicator)
	if err != nil {
		printError(err.Error())
		return
	}

	payload := append([]byte{indicator}, ciphertext...)
	t, err := openTarget()
	if err != nil {
		printError(err.Error())
		return
	}
	defer t.Close()

	resp, sw, err := sendChecked(t, 0x80, 0x2A, 0x80, 0x86, payload)
	if err != nil {
		printError(err.Error())
		return
	}
	if sw != uint16(apdu.SWOK) {
		reportStatus("DECIPHER", sw)
		return
	}
	if len(resp) == 0 {
		printSuccess("DECIPHER: 9000 OK, no data (first half stashed)")
		return
	}
	printSuccess(fmt.Sprintf("plaintext: %s", hex.EncodeToString(resp)))
}

func runEncipher(cmd *cobra.Command, args []string) {
	plaintext, err := hex.DecodeString(args[0])
	if err != nil {
		printError(fmt.Sprintf("invalid hex: %v", err))
		return
	}
	t, err := openTarget()
	if err != nil {
		printError(err.Error())
		return
	}
	defer t.Close()

	resp, sw, err := sendChecked(t, 0x80, 0x2A, 0x84, 0x80, plaintext)
	if err != nil {
		printError(err.Error())
		return
	}
	if sw != uint16(apdu.SWOK) {
		reportStatus("ENCIPHER", sw)
		return
	}
	printSuccess(fmt.Sprintf("ciphertext: %s", hex.EncodeToString(resp)))
}

func runAuth(cmd *cobra.Command, args []string) {
	peerPoint, err := hex.DecodeString(args[0])
	if err != nil {
		printError(fmt.Sprintf("invalid hex: %v", err))
		return
	}
	template := crdoTag(0x7C, crdoTag(0x85, peerPoint))

	t, err := openTarget()
	if err != nil {
		printError(err.Error())
		return
	}
	defer t.Close()

	resp, sw, err := sendChecked(t, 0x00, 0x86, 0x00, 0x00, template)
	if err != nil {
		printError(err.Error())
		return
	}
	if sw != uint16(apdu.SWOK) {
		reportStatus("GENERAL AUTHENTICATE", sw)
		return
	}
	printSuccess(fmt.Sprintf("shared secret x-coordinate: %s", hex.EncodeToString(resp)))
}
