// Package apdu holds the wire-level primitives shared by every component of
// the dispatcher: status words, the 7816-4 length/TLV helpers, endianness
// reversal, and the scoped response buffer that PSO/GENERATE/PUT DATA write
// into before the outer command loop streams it back on GET RESPONSE.
package apdu

import "fmt"

// StatusWord is a 2-byte ISO 7816-4 status word (SW1||SW2).
type StatusWord uint16

// Status words surfaced by the dispatcher.
const (
	SWOK                     StatusWord = 0x9000
	SWWrongLength            StatusWord = 0x6700
	SWFileTypeIncorrect      StatusWord = 0x6981
	SWFileNotFound           StatusWord = 0x6A82
	SWInvalidData            StatusWord = 0x6984
	SWConditionsNotSatisfied StatusWord = 0x6985
	SWWrongData              StatusWord = 0x6A80
	SWFunctionNotSupported   StatusWord = 0x6A81
	SWWrongP1P2              StatusWord = 0x6A86
	SWLcInconsistent         StatusWord = 0x6A87
	SWRefDataNotFound        StatusWord = 0x6A88
)

// ResponseReady builds the SW=61xx "response ready" status word for the
// given byte count. A count of 256 is encoded as xx=0x00 per 7816-4.
func ResponseReady(n int) StatusWord {
	return 0x6100 | StatusWord(byte(n))
}

// StatusError wraps a non-OK status word as an error value so callers can
// propagate it with normal Go error handling and still recover the SW with
// errors.As.
type StatusError struct {
	SW StatusWord
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("SW=%04X (%s)", uint16(e.SW), e.SW.String())
}

// Err returns nil for SWOK, otherwise a *StatusError.
func Err(sw StatusWord) error {
	if sw == SWOK {
		return nil
	}
	return &StatusError{SW: sw}
}

// String renders a human-readable label for known status words.
func (sw StatusWord) String() string {
	switch sw {
	case SWOK:
		return "success"
	case SWWrongLength:
		return "incorrect length"
	case SWFileTypeIncorrect:
		return "incorrect file type"
	case SWFileNotFound:
		return "file not found"
	case SWInvalidData:
		return "invalid data"
	case SWConditionsNotSatisfied:
		return "conditions not satisfied"
	case SWWrongData:
		return "wrong data in field"
	case SWFunctionNotSupported:
		return "function not supported"
	case SWWrongP1P2:
		return "incorrect P1/P2"
	case SWLcInconsistent:
		return "Lc inconsistent with P1/P2"
	case SWRefDataNotFound:
		return "referenced data not found"
	default:
		if sw&0xFF00 == 0x6100 {
			return fmt.Sprintf("response ready, %d bytes", byte(sw))
		}
		return "unknown status"
	}
}
