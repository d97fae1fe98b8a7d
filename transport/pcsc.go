// Package transport relays APDUs to a physical MyEID-compatible smart card
// over PC/SC, for exercising the core dispatcher against real hardware
// instead of the in-process virtualcard.Card.
package transport

import (
	"fmt"

	"github.com/ebfe/scard"
)

// Reader is a PC/SC connection to one smart card.
type Reader struct {
	ctx  *scard.Context
	card *scard.Card
	name string
	atr  []byte
}

// ListReaders returns the names of every PC/SC reader the host sees.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish PC/SC context: %w", err)
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("list readers: %w", err)
	}
	return readers, nil
}

// Connect opens a shared connection to the card in the reader at readerIndex.
func Connect(readerIndex int) (*Reader, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establish PC/SC context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("list readers: %w", err)
	}
	if len(readers) == 0 {
		ctx.Release()
		return nil, fmt.Errorf("no smart card readers found")
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		ctx.Release()
		return nil, fmt.Errorf("reader index %d out of range (0-%d)", readerIndex, len(readers)-1)
	}

	name := readers[readerIndex]
	card, err := ctx.Connect(name, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		ctx.Release()
		return nil, fmt.Errorf("connect to card in reader %q: %w", name, err)
	}

	status, err := card.Status()
	if err != nil {
		card.Disconnect(scard.LeaveCard)
		ctx.Release()
		return nil, fmt.Errorf("card status: %w", err)
	}

	return &Reader{ctx: ctx, card: card, name: name, atr: status.Atr}, nil
}

// ConnectFirst connects to the card in the first reader PC/SC reports.
func ConnectFirst() (*Reader, error) {
	return Connect(0)
}

// Close disconnects from the card and releases the PC/SC context.
func (r *Reader) Close() error {
	if r.card != nil {
		r.card.Disconnect(scard.LeaveCard)
	}
	if r.ctx != nil {
		r.ctx.Release()
	}
	return nil
}

// Name returns the PC/SC reader name this connection was opened against.
func (r *Reader) Name() string { return r.name }

// ATR returns the card's Answer To Reset bytes.
func (r *Reader) ATR() []byte { return r.atr }

// Transmit sends a raw APDU and returns the raw response bytes, including
// the trailing SW1/SW2.
func (r *Reader) Transmit(apdu []byte) ([]byte, error) {
	raw, err := r.card.Transmit(apdu)
	if err != nil {
		return nil, fmt.Errorf("transmit: %w", err)
	}
	return raw, nil
}

// Response splits a raw response into its data body and status word.
type Response struct {
	Data []byte
	SW   uint16
}

// HasMoreData reports SW1 == 0x61 (GET RESPONSE continuation pending).
func (r Response) HasMoreData() bool { return byte(r.SW>>8) == 0x61 }

// IsOK reports SW == 0x9000.
func (r Response) IsOK() bool { return r.SW == 0x9000 }

// SendAPDU transmits one command and, if the card replies 0x61xx, follows up
// with GET RESPONSE to retrieve the staged bytes — the ordinary two-step
// ISO 7816-4 short-APDU flow the core's response buffer exists to
// serve.
func (r *Reader) SendAPDU(cla, ins, p1, p2 byte, data []byte) (Response, error) {
	apdu := buildAPDU(cla, ins, p1, p2, data)
	raw, err := r.Transmit(apdu)
	if err != nil {
		return Response{}, err
	}
	resp, err := parseResponse(raw)
	if err != nil {
		return Response{}, err
	}
	if resp.HasMoreData() {
		return r.GetResponse(byte(resp.SW))
	}
	return resp, nil
}

// GetResponse issues INS 0xC0 to retrieve length bytes staged by a prior
// command whose SW was 0x61xx.
func (r *Reader) GetResponse(length byte) (Response, error) {
	raw, err := r.Transmit([]byte{0x00, 0xC0, 0x00, 0x00, length})
	if err != nil {
		return Response{}, err
	}
	return parseResponse(raw)
}

func buildAPDU(cla, ins, p1, p2 byte, data []byte) []byte {
	apdu := make([]byte, 0, 5+len(data))
	apdu = append(apdu, cla, ins, p1, p2)
	if len(data) > 0 {
		apdu = append(apdu, byte(len(data)))
		apdu = append(apdu, data...)
	}
	return apdu
}

func parseResponse(raw []byte) (Response, error) {
	if len(raw) < 2 {
		return Response{}, fmt.Errorf("response too short: %d bytes", len(raw))
	}
	sw := uint16(raw[len(raw)-2])<<8 | uint16(raw[len(raw)-1])
	return Response{Data: raw[:len(raw)-2], SW: sw}, nil
}
