// Package cli renders card state and command results as tables for the
// command-line tools built around the core dispatcher.
package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var (
	colorHeader  = text.Colors{text.FgCyan, text.Bold}
	colorLabel   = text.Colors{text.FgYellow}
	colorValue   = text.Colors{text.FgWhite}
	colorSuccess = text.Colors{text.FgGreen}
	colorError   = text.Colors{text.FgRed}
	colorWarn    = text.Colors{text.FgYellow, text.Bold}
)

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Println(colorError.Sprintf("✗ Error: %s", msg))
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Println(colorSuccess.Sprintf("✓ %s", msg))
}

// PrintWarning prints a warning message.
func PrintWarning(msg string) {
	fmt.Println(colorWarn.Sprintf("⚠ %s", msg))
}

func getTableStyle() table.Style {
	style := table.StyleRounded
	style.Color.Header = colorHeader
	style.Color.Row = text.Colors{text.FgWhite}
	style.Color.RowAlternate = text.Colors{text.FgHiWhite}
	style.Options.SeparateRows = false
	return style
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(getTableStyle())
	t.Style().Options.SeparateRows = false
	return t
}

// KeyInfoRow is one row of a key-file summary: the fields GET DATA P2=0x00
// and P2=0x01/0x02 expose for an RSA file, or the curve identity for an EC
// file.
type KeyInfoRow struct {
	FileID      uint16
	Type        string
	ModulusBits int
	ExponentHex string
	Curve       string
}

// PrintKeyInfo renders a table of provisioned key files, as a `list-keys`
// subcommand would after walking the filesystem collaborator.
func PrintKeyInfo(rows []KeyInfoRow) {
	fmt.Println()
	t := newTable()
	t.SetTitle("KEY FILES")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Colors: colorLabel},
		{Number: 2, Colors: colorValue},
	})
	t.AppendHeader(table.Row{"File ID", "Type", "Modulus bits", "Public exponent", "Curve"})
	for _, row := range rows {
		modBits := ""
		if row.ModulusBits > 0 {
			modBits = fmt.Sprintf("%d", row.ModulusBits)
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("0x%04X", row.FileID),
			row.Type,
			modBits,
			row.ExponentHex,
			row.Curve,
		})
	}
	t.Render()
}

// APDUTrace is one logged command/response pair, as `script` mode or a
// selftest run would accumulate before printing a summary.
type APDUTrace struct {
	Command  string
	SW       uint16
	Response string
	OK       bool
}

// PrintTrace renders a sequence of APDU exchanges with pass/fail coloring.
func PrintTrace(traces []APDUTrace) {
	fmt.Println()
	t := newTable()
	t.SetTitle("APDU TRACE")
	t.AppendHeader(table.Row{"Command", "SW", "Response", "Result"})
	for _, tr := range traces {
		result := text.Colors{text.FgGreen}.Sprint("OK")
		if !tr.OK {
			result = text.Colors{text.FgRed}.Sprint("FAIL")
		}
		t.AppendRow(table.Row{tr.Command, fmt.Sprintf("%04X", tr.SW), tr.Response, result})
	}
	t.Render()
}

// PrintStatusLine prints a single colored success/failure line, the way a
// selftest subcommand reports each scenario as it runs.
func PrintStatusLine(label string, ok bool, detail string) {
	status := colorSuccess.Sprint("PASS")
	if !ok {
		status = colorError.Sprint("FAIL")
	}
	if detail != "" {
		fmt.Printf("  %-40s %s  %s\n", label, status, detail)
		return
	}
	fmt.Printf("  %-40s %s\n", label, status)
}
