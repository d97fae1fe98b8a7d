// Package cmd implements the command-line tools built around the core
// dispatcher: working against an in-process virtual card by default, or a
// real PC/SC reader when --live is given.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"myeidcore/transport"
	"myeidcore/virtualcard"
)

const version = "1.0.0"

var (
	readerIndex int
	useReader   bool
	fixturePath string
)

var rootCmd = &cobra.Command{
	Use:   "myeidcore",
	Short: "MyEID-style PKI applet core: exercise, script, and inspect",
	Long: `myeidcore v` + version + `
Drive the MANAGE SECURITY ENVIRONMENT / PERFORM SECURITY OPERATION /
GENERATE KEY / GENERAL AUTHENTICATE / GET DATA / PUT DATA command set
against either an in-process virtual card or a real PC/SC reader.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&readerIndex, "reader", "r", 0,
		"PC/SC reader index to use with --live")
	rootCmd.PersistentFlags().BoolVar(&useReader, "live", false,
		"Talk to a real card over PC/SC instead of the virtual card")
	rootCmd.PersistentFlags().StringVarP(&fixturePath, "fixture", "f", "",
		"YAML fixture to pre-provision the virtual card from")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// target abstracts over a live PC/SC reader and an in-process card so every
// subcommand can send (cla, ins, p1, p2, data) without caring which backend
// is in play.
type target interface {
	Send(cla, ins, p1, p2 byte, data []byte) (respData []byte, sw uint16, err error)
	Close() error
}

type virtualTarget struct {
	card *virtualcard.Card
}

func (v *virtualTarget) Send(cla, ins, p1, p2 byte, data []byte) ([]byte, uint16, error) {
	resp, sw := v.card.Transmit(cla, ins, p1, p2, data)
	return resp, sw, nil
}

func (v *virtualTarget) Close() error { return nil }

type liveTarget struct {
	reader *transport.Reader
}

func (l *liveTarget) Send(cla, ins, p1, p2 byte, data []byte) ([]byte, uint16, error) {
	resp, err := l.reader.SendAPDU(cla, ins, p1, p2, data)
	if err != nil {
		return nil, 0, err
	}
	return resp.Data, resp.SW, nil
}

func (l *liveTarget) Close() error { return l.reader.Close() }

// openTarget connects to whichever backend the persistent flags select,
// applying --fixture to a fresh virtual card when one is given.
func openTarget() (target, error) {
	if useReader {
		reader, err := transport.Connect(readerIndex)
		if err != nil {
			return nil, fmt.Errorf("connect to reader: %w", err)
		}
		return &liveTarget{reader: reader}, nil
	}

	card := virtualcard.NewCard()
	if fixturePath != "" {
		fixture, err := virtualcard.LoadFixture(fixturePath)
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
		if err := fixture.Apply(card); err != nil {
			return nil, fmt.Errorf("apply fixture: %w", err)
		}
	}
	return &virtualTarget{card: card}, nil
}

// sendChecked issues one APDU and, on a 0x61xx status, automatically follows
// up with GET RESPONSE — the convenience every subcommand wants instead of
// reimplementing the continuation dance.
func sendChecked(t target, cla, ins, p1, p2 byte, data []byte) ([]byte, uint16, error) {
	resp, sw, err := t.Send(cla, ins, p1, p2, data)
	if err != nil {
		return nil, 0, err
	}
	if sw&0xFF00 == 0x6100 {
		return t.Send(0x00, 0xC0, 0x00, 0x00, nil)
	}
	return resp, sw, nil
}

