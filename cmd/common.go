package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"myeidcore/cli"
)

// printError prints an error message using the cli package.
func printError(msg string) {
	cli.PrintError(msg)
}

// printSuccess prints a success message using the cli package.
func printSuccess(msg string) {
	cli.PrintSuccess(msg)
}

// printWarning prints a warning message using the cli package.
func printWarning(msg string) {
	cli.PrintWarning(msg)
}

// parseFileID parses a key file ID given as hex ("4B01" or "0x4B01").
func parseFileID(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToUpper(s), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid file ID %q: %w", s, err)
	}
	return uint16(v), nil
}

// parseByte parses a single byte given as hex ("9E" or "0x9E").
func parseByte(s string) (byte, error) {
	s = strings.TrimPrefix(strings.ToUpper(s), "0X")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q: %w", s, err)
	}
	return byte(v), nil
}

