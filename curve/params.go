// Package curve selects and loads the elliptic-curve domain parameters
// backing EC key files: NIST P-192/P-256/P-384/P-521 and secp256k1.
package curve

import (
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"myeidcore/keyfile"
)

// ID names a supported curve.
type ID uint8

const (
	P192 ID = iota
	P256
	P384
	P521
	Secp256k1
)

func (id ID) String() string {
	switch id {
	case P192:
		return "P-192"
	case P256:
		return "P-256"
	case P384:
		return "P-384"
	case P521:
		return "P-521"
	case Secp256k1:
		return "secp256k1"
	default:
		return "unknown curve"
	}
}

// Param is the transient per-operation curve-parameter view.
type Param struct {
	ID     ID
	MPSize int // field element size in bytes
	Curve  elliptic.Curve
	Prime  *big.Int
	Order  *big.Int
	A      *big.Int
	B      *big.Int
	Gx     *big.Int
	Gy     *big.Int
}

// p192Params are the NIST SP 800-186 P-192 domain parameters. Go's standard
// library does not ship this curve (it only provides P-224 and up), and
// btcec's secp256k1 implementation below doesn't cover it either, so it is
// built here from the published constants with crypto/elliptic.CurveParams,
// the same generic short-Weierstrass representation the standard library
// itself uses internally.
var p192Params = func() *elliptic.CurveParams {
	p := &elliptic.CurveParams{Name: "P-192", BitSize: 192}
	p.P, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffeffffffffffffffff", 16)
	p.N, _ = new(big.Int).SetString("ffffffffffffffffffffffff99def836146bc9b1b4d22831", 16)
	p.B, _ = new(big.Int).SetString("64210519e59c80e70fa7e9ab72243049feb8deecc146b9b1", 16)
	p.Gx, _ = new(big.Int).SetString("188da80eb03090f67cbf20eb43a18800f4ff0afd82ff1012", 16)
	p.Gy, _ = new(big.Int).SetString("07192b95ffc8da78631011ed6b24cdd573f977a11e794811", 16)
	return p
}()

// nistA is a = p-3 for every NIST short-Weierstrass curve in this table.
func nistA(p *big.Int) *big.Int {
	return new(big.Int).Sub(p, big.NewInt(3))
}

func paramsFor(id ID) *Param {
	switch id {
	case P192:
		cp := p192Params
		return &Param{ID: id, MPSize: 24, Curve: cp, Prime: cp.P, Order: cp.N, A: nistA(cp.P), B: cp.B, Gx: cp.Gx, Gy: cp.Gy}
	case P256:
		c := elliptic.P256()
		cp := c.Params()
		return &Param{ID: id, MPSize: 32, Curve: c, Prime: cp.P, Order: cp.N, A: nistA(cp.P), B: cp.B, Gx: cp.Gx, Gy: cp.Gy}
	case P384:
		c := elliptic.P384()
		cp := c.Params()
		return &Param{ID: id, MPSize: 48, Curve: c, Prime: cp.P, Order: cp.N, A: nistA(cp.P), B: cp.B, Gx: cp.Gx, Gy: cp.Gy}
	case P521:
		c := elliptic.P521()
		cp := c.Params()
		return &Param{ID: id, MPSize: 66, Curve: c, Prime: cp.P, Order: cp.N, A: nistA(cp.P), B: cp.B, Gx: cp.Gx, Gy: cp.Gy}
	case Secp256k1:
		c := btcec.S256()
		cp := c.Params()
		return &Param{ID: id, MPSize: 32, Curve: c, Prime: cp.P, Order: cp.N, A: big.NewInt(0), B: cp.B, Gx: cp.Gx, Gy: cp.Gy}
	default:
		return nil
	}
}

// curveKey identifies a (file type, field-element size) pair in the
// selection table.
type curveKey struct {
	typ    keyfile.FileType
	mpSize int
}

var curveTable = map[curveKey]ID{
	{keyfile.TypeSecp256k1, 32}: Secp256k1,
	{keyfile.TypeNISTEC, 24}:    P192,
	{keyfile.TypeNISTEC, 32}:    P256,
	{keyfile.TypeNISTEC, 48}:    P384,
	{keyfile.TypeNISTEC, 66}:    P521,
}

// Lookup resolves (file type, field-element size in bytes) to a curve ID.
// It returns ok=false for any unsupported combination, mirroring C3's
// "fails (returns 0) on any unsupported combination".
func Lookup(typ keyfile.FileType, mpSize int) (ID, bool) {
	id, ok := curveTable[curveKey{typ, mpSize}]
	return id, ok
}

// ErrUnsupportedCurve is returned when (file type, size) names no curve.
var ErrUnsupportedCurve = fmt.Errorf("unsupported curve/file-type/size combination")
