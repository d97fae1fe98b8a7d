package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"myeidcore/cli"
)

var scriptCmd = &cobra.Command{
	Use:   "script <file>",
	Short: "Run a simple APDU script",
	Long: `Run an APDU script in the simple text format:
  - lines starting with # are comments
  - lines starting with "apdu " are followed by a hex command APDU
  - empty lines are ignored
  - a 0x61xx status automatically issues a GET RESPONSE

Example script:
  # generate an RSA keypair in file 4B01
  apdu 00 46 00 00

Examples:
  myeidcore script provision.txt
  myeidcore script --live -r 0 provision.txt`,
	Args: cobra.ExactArgs(1),
	Run:  runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) {
	t, err := openTarget()
	if err != nil {
		printError(err.Error())
		return
	}
	defer t.Close()

	file, err := os.Open(args[0])
	if err != nil {
		printError(fmt.Sprintf("open script: %v", err))
		return
	}
	defer file.Close()

	var traces []cli.APDUTrace
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(line), "apdu ") {
			printWarning(fmt.Sprintf("line %d: expected 'apdu <hex>', skipping", lineNum))
			continue
		}
		traces = append(traces, runScriptLine(t, lineNum, line[5:]))
	}
	if err := scanner.Err(); err != nil {
		printError(fmt.Sprintf("reading script: %v", err))
	}

	cli.PrintTrace(traces)
}

func runScriptLine(t target, lineNum int, apduHex string) cli.APDUTrace {
	apduHex = strings.ReplaceAll(apduHex, " ", "")
	raw, err := hex.DecodeString(apduHex)
	if err != nil {
		return cli.APDUTrace{Command: fmt.Sprintf("line %d", lineNum), OK: false, Response: fmt.Sprintf("invalid hex: %v", err)}
	}
	if len(raw) < 4 {
		return cli.APDUTrace{Command: fmt.Sprintf("line %d", lineNum), OK: false, Response: "APDU too short"}
	}

	var data []byte
	if len(raw) > 5 {
		data = raw[5:]
	}
	resp, sw, err := sendChecked(t, raw[0], raw[1], raw[2], raw[3], data)
	if err != nil {
		return cli.APDUTrace{Command: apduHex, OK: false, Response: err.Error()}
	}
	return cli.APDUTrace{
		Command:  apduHex,
		SW:       sw,
		Response: hex.EncodeToString(resp),
		OK:       sw == 0x9000,
	}
}
