package virtualcard

import (
	"errors"

	"myeidcore/apdu"
	"myeidcore/keyfile"
	"myeidcore/keygen"
	"myeidcore/kernel"
	"myeidcore/pso"
	"myeidcore/secenv"
)

// swInsNotSupported is the instruction-not-supported status word, returned
// for an INS none of the core's entry points recognize.
const swInsNotSupported = 0x6D00

// Card composes the core dispatcher against an in-memory filesystem and
// PIN store into a runnable APDU processor.
type Card struct {
	FS       *Filesystem
	Pins     *PinStore
	Delegate keygen.Delegate

	se      secenv.SE
	kernels pso.Kernels
	resp    apdu.Buffer
}

// NewCard returns a Card with a fresh filesystem, PIN store, and the
// default math/big + crypto/elliptic + crypto/des + crypto/aes kernels.
func NewCard() *Card {
	return &Card{
		FS:   NewFilesystem(),
		Pins: NewPinStore(),
		kernels: pso.Kernels{
			RSA: kernel.NewRSAKernel(),
			EC:  kernel.NewECKernel(),
			Sym: kernel.NewSymKernel(),
		},
	}
}

// Transmit dispatches one APDU (already split into its header bytes and
// command data) and returns the response body plus status word. Transmit
// is not safe for concurrent use: the card is single-threaded, one APDU
// at a time.
func (c *Card) Transmit(cla, ins, p1, p2 byte, data []byte) (respData []byte, sw uint16) {
	switch ins {
	case 0x22:
		err := secenv.ManageSecurityEnvironment(&c.se, p1, p2, data)
		c.resp.SetNoData()
		return nil, statusOf(err)

	case 0x2A:
		err := pso.PerformSecurityOperation(&c.se, c.FS, c.kernels, &c.resp, cla, p1, p2, data)
		return c.finish(err)

	case 0x86:
		err := pso.GeneralAuthenticate(&c.se, c.FS, c.kernels.EC, &c.resp, data)
		return c.finish(err)

	case 0x46:
		file, err := c.selected()
		if err != nil {
			c.resp.SetNoData()
			return nil, statusOf(err)
		}
		err = keygen.GenerateKey(file, c.kernels.RSA, c.kernels.EC, &c.resp, data)
		return c.finish(err)

	case 0xDA:
		if p1 != 0x01 {
			c.resp.SetNoData()
			return nil, statusOf(apdu.Err(apdu.SWWrongP1P2))
		}
		var file *keyfile.File
		if needsSelectedFile(p2) {
			f, err := c.selected()
			if err != nil {
				c.resp.SetNoData()
				return nil, statusOf(err)
			}
			file = f
		}
		err := keygen.PutData(file, c.FS, c.Pins, p2, data)
		c.resp.SetNoData()
		return nil, statusOf(err)

	case 0xCA:
		if p1 != 0x01 {
			c.resp.SetNoData()
			return nil, statusOf(apdu.Err(apdu.SWWrongP1P2))
		}
		file, err := c.selected()
		if err != nil {
			c.resp.SetNoData()
			return nil, statusOf(err)
		}
		err = keygen.GetData(file, &c.resp, p2, c.Delegate)
		return c.finish(err)

	case 0xE6:
		if len(data) != 0 {
			c.resp.SetNoData()
			return nil, statusOf(apdu.Err(apdu.SWWrongLength))
		}
		c.resp.SetNoData()
		return nil, uint16(apdu.SWOK)

	case 0xC0:
		if c.resp.Flag() != apdu.Ready {
			return nil, statusOf(apdu.Err(apdu.SWConditionsNotSatisfied))
		}
		out := append([]byte{}, c.resp.Data()...)
		c.resp.Reset()
		return out, uint16(apdu.SWOK)

	default:
		return nil, swInsNotSupported
	}
}

func (c *Card) selected() (*keyfile.File, error) {
	id, ok := c.FS.Selected()
	if !ok {
		return nil, apdu.Err(apdu.SWFileNotFound)
	}
	f, err := c.FS.Lookup(id)
	if err != nil {
		return nil, apdu.Err(apdu.SWFileNotFound)
	}
	return f, nil
}

func needsSelectedFile(p2 byte) bool {
	return (p2 >= 0x80 && p2 <= 0x8B) || p2 == 0x8E || p2 == 0x8F || p2 == 0xA0
}

func (c *Card) finish(err error) ([]byte, uint16) {
	if err != nil {
		return nil, statusOf(err)
	}
	if c.resp.Flag() == apdu.Ready {
		return nil, uint16(apdu.ResponseReady(c.resp.Len()))
	}
	return nil, uint16(apdu.SWOK)
}

func statusOf(err error) uint16 {
	if err == nil {
		return uint16(apdu.SWOK)
	}
	var se *apdu.StatusError
	if errors.As(err, &se) {
		return uint16(se.SW)
	}
	return uint16(apdu.SWConditionsNotSatisfied)
}
