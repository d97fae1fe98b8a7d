package cmd

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"myeidcore/apdu"
)

var (
	putDataValueHex string
	putDataPrompt   bool
)

var getDataCmd = &cobra.Command{
	Use:   "get-data <p2-hex>",
	Short: "GET DATA (INS CA, P1=01)",
	Long: `Read a key-file attribute from the currently selected file.

P2 values:
  00       key info record (modulus/exponent bit lengths)
  01       RSA modulus
  02       RSA public exponent
  81-85    EC curve parameters
  86       EC public key, wrapped 30 LL 04||X||Y

Examples:
  myeidcore get-data 00
  myeidcore get-data 01`,
	Args: cobra.ExactArgs(1),
	Run:  runGetData,
}

var putDataCmd = &cobra.Command{
	Use:   "put-data <p2-hex>",
	Short: "PUT DATA (INS DA, P1=01)",
	Long: `Upload applet init bytes, a PIN value, or a raw key-file part to the
currently selected file.

P2 values:
  E0       init applet: size_bits(2) || acl(3)
  01-0E    PIN reference, value given with --value
  80-8B,A0 key-file part tag, value given with --value

Examples:
  myeidcore put-data E0 --value 0400000000
  myeidcore put-data 01 --value 3132333435363738
  myeidcore put-data 80 --value 89ABCDEF...  # p-part of an RSA CRT upload`,
	Args: cobra.ExactArgs(1),
	Run:  runPutData,
}

func init() {
	putDataCmd.Flags().StringVar(&putDataValueHex, "value", "", "Data field, hex")
	putDataCmd.Flags().BoolVar(&putDataPrompt, "prompt", false,
		"Prompt for a PIN value at the terminal instead of --value (P2 01-0E only, not echoed)")
	rootCmd.AddCommand(getDataCmd, putDataCmd)
}

func runGetData(cmd *cobra.Command, args []string) {
	p2, err := parseByte(args[0])
	if err != nil {
		printError(err.Error())
		return
	}
	t, err := openTarget()
	if err != nil {
		printError(err.Error())
		return
	}
	defer t.Close()

	resp, sw, err := sendChecked(t, 0x00, 0xCA, 0x01, p2, nil)
	if err != nil {
		printError(err.Error())
		return
	}
	if sw != uint16(apdu.SWOK) {
		reportStatus("GET DATA", sw)
		return
	}
	printSuccess(fmt.Sprintf("data: %s", hex.EncodeToString(resp)))
}

func runPutData(cmd *cobra.Command, args []string) {
	p2, err := parseByte(args[0])
	if err != nil {
		printError(err.Error())
		return
	}
	var data []byte
	switch {
	case putDataPrompt:
		if p2 < 0x01 || p2 > 0x0E {
			printError("--prompt is only valid for PIN references (P2 01-0E)")
			return
		}
		pin, err := promptPIN()
		if err != nil {
			printError(err.Error())
			return
		}
		data = pin
	case putDataValueHex != "":
		data, err = hex.DecodeString(putDataValueHex)
		if err != nil {
			printError(fmt.Sprintf("invalid value hex: %v", err))
			return
		}
	}

	t, err := openTarget()
	if err != nil {
		printError(err.Error())
		return
	}
	defer t.Close()

	_, sw, err := t.Send(0x00, 0xDA, 0x01, p2, data)
	if err != nil {
		printError(err.Error())
		return
	}
	reportStatus("PUT DATA", sw)
}

// promptPIN reads a PIN value from the terminal without echoing it, the
// way a personalization tool handling real PIN material should.
func promptPIN() ([]byte, error) {
	fmt.Print("PIN value: ")
	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("read PIN: %w", err)
	}
	return value, nil
}
