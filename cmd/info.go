package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"myeidcore/transport"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "List PC/SC readers, or decode the ATR of a connected card (--live)",
	Long: `With no flags, list the PC/SC readers visible to the system.
With --live, connect to one (see -r/--reader) and decode its ATR.`,
	Run: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	if !useReader {
		readers, err := transport.ListReaders()
		if err != nil {
			printError(err.Error())
			return
		}
		if len(readers) == 0 {
			printWarning("no PC/SC readers found")
			return
		}
		for i, name := range readers {
			fmt.Printf("  [%d] %s\n", i, name)
		}
		return
	}

	reader, err := transport.Connect(readerIndex)
	if err != nil {
		printError(err.Error())
		return
	}
	defer reader.Close()

	atrInfo, err := transport.DecodeATR(reader.ATR())
	if err != nil {
		printError(err.Error())
		return
	}
	fmt.Printf("Reader: %s\n", reader.Name())
	fmt.Print(atrInfo.String())
}
