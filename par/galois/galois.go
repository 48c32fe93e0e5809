// Package galois implements arithmetic over GF(2^8) with the reducing
// polynomial 0x11D (x^8 + x^4 + x^3 + x^2 + 1), the field PAR v1.0 uses
// for its Reed-Solomon parity computation.
//
// Table layout follows the generation scheme vendored by
// klauspost/reedsolomon's leopard8 implementation: log[0..256) and a
// duplicated exp[0..511) table so exp[i+255] == exp[i], letting callers
// add logs without a modulo on every lookup.
package galois

import "github.com/pkg/errors"

// Polynomial is the GF(2^8) reducing polynomial used throughout PAR v1.0.
const Polynomial = 0x11D

var (
	logTable [256]int
	expTable [511]byte
)

func init() {
	bin := 1
	for i := 0; i < 255; i++ {
		logTable[bin] = i
		expTable[i] = byte(bin)
		bin <<= 1
		if bin > 255 {
			bin ^= Polynomial
		}
	}
	for i := 255; i < 511; i++ {
		expTable[i] = expTable[i-255]
	}
}

// ErrDivByZero is returned by Div when the divisor is zero.
var ErrDivByZero = errors.New("galois: division by zero")

// Add returns a XOR b. Addition and subtraction coincide in GF(2^8).
func Add(a, b byte) byte { return a ^ b }

// Sub is an alias for Add.
func Sub(a, b byte) byte { return a ^ b }

// Mul returns a * b in GF(2^8).
func Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[logTable[a]+logTable[b]]
}

// Div returns a / b in GF(2^8). It returns ErrDivByZero if b is zero.
func Div(a, b byte) (byte, error) {
	if b == 0 {
		return 0, ErrDivByZero
	}
	if a == 0 {
		return 0, nil
	}
	diff := logTable[a] - logTable[b]
	if diff < 0 {
		diff += 255
	}
	return expTable[diff], nil
}

// Pow returns a^k in GF(2^8).
func Pow(a byte, k int) byte {
	if a == 0 {
		return 0
	}
	e := (logTable[a] * k) % 255
	if e < 0 {
		e += 255
	}
	return expTable[e]
}

// MulTable returns the 256-entry multiplication-by-m lookup table used
// by the inner XOR loop: tab[x] == Mul(m, x). Callers rebuild this
// whenever m changes and reuse it across an entire chunk.
func MulTable(m byte) [256]byte {
	var tab [256]byte
	if m == 0 {
		return tab
	}
	lm := logTable[m]
	tab[0] = 0
	for x := 1; x < 256; x++ {
		tab[x] = expTable[lm+logTable[x]]
	}
	return tab
}

// XORInto computes dst[i] ^= tab[src[i]] for each byte, where tab is a
// MulTable for some scalar m. It must never block or allocate: it is
// the hot inner loop of the whole engine.
func XORInto(dst []byte, tab *[256]byte, src []byte) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] ^= tab[src[i]]
	}
}
