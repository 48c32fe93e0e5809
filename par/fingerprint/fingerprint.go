// Package fingerprint implements the 128-bit digest used to identify
// PAR data files and parity volumes.
//
// It follows RFC 1321 with two deliberate simplifications inherited
// from the PAR v1.0 wire format: the total bit count is tracked as a
// 64-bit counter internally, but only the low 32 bits are emitted into
// the length pad (inputs longer than 2^32 bits produce a well-defined
// but non-standard digest, per spec.md §9); and the internal state is
// not explicitly cleared after Finish.
package fingerprint

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Size is the length in bytes of a Fingerprint.
const Size = 16

const blockSize = 64

// Fingerprint is an opaque 128-bit digest. It is immutable once produced.
type Fingerprint [Size]byte

// IsZero reports whether f is the all-zero fingerprint.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// ErrAlreadyFinished is returned by Absorb once Finish has been called.
var ErrAlreadyFinished = errors.New("fingerprint: absorb after finish")

// Digest is a streaming MD5 digest.
type Digest struct {
	state    [4]uint32
	buf      [blockSize]byte
	buflen   int
	lengthLo uint64 // total bits absorbed, full precision kept internally
	started  bool
	finished bool
	sum      Fingerprint
}

// New returns a Digest ready to Absorb bytes.
func New() *Digest {
	d := &Digest{}
	d.Start()
	return d
}

// Start (re)initialises the digest to the RFC 1321 initial state.
func (d *Digest) Start() {
	d.state = [4]uint32{0x67452301, 0xefcdab89, 0x98badcfe, 0x10325476}
	d.buflen = 0
	d.lengthLo = 0
	d.started = true
	d.finished = false
}

// Absorb feeds bytes into the digest. It fails if Finish has already
// been called.
func (d *Digest) Absorb(p []byte) error {
	if d.finished {
		return ErrAlreadyFinished
	}
	d.lengthLo += uint64(len(p)) * 8

	if d.buflen == 0 {
		// Byte-aligned input with an empty working buffer is processed
		// directly in 64-byte blocks without copying into buf.
		for len(p) >= blockSize {
			d.processBlock(p[:blockSize])
			p = p[blockSize:]
		}
	}

	for len(p) > 0 {
		n := copy(d.buf[d.buflen:], p)
		d.buflen += n
		p = p[n:]
		if d.buflen == blockSize {
			d.processBlock(d.buf[:])
			d.buflen = 0
		}
	}
	return nil
}

// absorbBits feeds the first bitCount/8 whole bytes of data; a trailing
// partial byte is dropped. PAR v1.0 inputs are always byte-aligned file
// contents, so this is only used by the padded final block during Finish.
func (d *Digest) absorbBits(data []byte, bitCount uint) {
	byteCount := bitCount / 8
	_ = d.Absorb(data[:byteCount])
}

// Finish pads and processes the final block(s) and freezes the digest.
// The length field emitted on the wire is the low 32 bits of the total
// bit count; the upper 32 bits are forced to zero, matching the PAR
// v1.0 wire format's 32-bit assumption.
func (d *Digest) Finish() Fingerprint {
	if d.finished {
		return d.sum
	}

	totalBits := d.lengthLo
	// RFC 1321 padding: a single 1 bit, then zero bits until length ≡ 56 mod 64.
	pad := make([]byte, 0, blockSize*2)
	pad = append(pad, 0x80)
	for (d.buflen+len(pad))%blockSize != 56 {
		pad = append(pad, 0x00)
	}
	var lenField [8]byte
	binary.LittleEndian.PutUint32(lenField[0:4], uint32(totalBits))
	binary.LittleEndian.PutUint32(lenField[4:8], 0) // high 32 bits forced to zero
	pad = append(pad, lenField[:]...)

	// absorbBits recurses into Absorb via the byte-aligned helper; bump
	// lengthLo back down since Absorb would otherwise double-count the
	// padding bits against the emitted length field.
	savedLen := d.lengthLo
	d.absorbBits(pad, uint(len(pad)*8))
	d.lengthLo = savedLen

	var out Fingerprint
	for i, s := range d.state {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], s)
	}
	d.sum = out
	d.finished = true
	return out
}

// Digest returns the finished fingerprint, finishing the stream if
// that has not happened yet.
func (d *Digest) Digest() Fingerprint {
	if !d.finished {
		return d.Finish()
	}
	return d.sum
}

// Sum computes the Fingerprint of p in one call.
func Sum(p []byte) Fingerprint {
	d := New()
	_ = d.Absorb(p)
	return d.Finish()
}

var shiftAmounts = [64]uint32{
	7, 12, 17, 22, 7, 12, 17, 22, 7, 12, 17, 22, 7, 12, 17, 22,
	5, 9, 14, 20, 5, 9, 14, 20, 5, 9, 14, 20, 5, 9, 14, 20,
	4, 11, 16, 23, 4, 11, 16, 23, 4, 11, 16, 23, 4, 11, 16, 23,
	6, 10, 15, 21, 6, 10, 15, 21, 6, 10, 15, 21, 6, 10, 15, 21,
}

var sineTable = [64]uint32{
	0xd76aa478, 0xe8c7b756, 0x242070db, 0xc1bdceee,
	0xf57c0faf, 0x4787c62a, 0xa8304613, 0xfd469501,
	0x698098d8, 0x8b44f7af, 0xffff5bb1, 0x895cd7be,
	0x6b901122, 0xfd987193, 0xa679438e, 0x49b40821,
	0xf61e2562, 0xc040b340, 0x265e5a51, 0xe9b6c7aa,
	0xd62f105d, 0x02441453, 0xd8a1e681, 0xe7d3fbc8,
	0x21e1cde6, 0xc33707d6, 0xf4d50d87, 0x455a14ed,
	0xa9e3e905, 0xfcefa3f8, 0x676f02d9, 0x8d2a4c8a,
	0xfffa3942, 0x8771f681, 0x6d9d6122, 0xfde5380c,
	0xa4beea44, 0x4bdecfa9, 0xf6bb4b60, 0xbebfbc70,
	0x289b7ec6, 0xeaa127fa, 0xd4ef3085, 0x04881d05,
	0xd9d4d039, 0xe6db99e5, 0x1fa27cf8, 0xc4ac5665,
	0xf4292244, 0x432aff97, 0xab9423a7, 0xfc93a039,
	0x655b59c3, 0x8f0ccc92, 0xffeff47d, 0x85845dd1,
	0x6fa87e4f, 0xfe2ce6e0, 0xa3014314, 0x4e0811a1,
	0xf7537e82, 0xbd3af235, 0x2ad7d2bb, 0xeb86d391,
}

func (d *Digest) processBlock(block []byte) {
	var m [16]uint32
	for i := 0; i < 16; i++ {
		m[i] = binary.LittleEndian.Uint32(block[i*4 : i*4+4])
	}

	a, b, c, e := d.state[0], d.state[1], d.state[2], d.state[3]

	for i := uint32(0); i < 64; i++ {
		var f uint32
		var g uint32
		switch {
		case i < 16:
			f = (b & c) | (^b & e)
			g = i
		case i < 32:
			f = (e & b) | (^e & c)
			g = (5*i + 1) % 16
		case i < 48:
			f = b ^ c ^ e
			g = (3*i + 5) % 16
		default:
			f = c ^ (b | ^e)
			g = (7 * i) % 16
		}
		f = f + a + sineTable[i] + m[g]
		a = e
		e = c
		c = b
		b = b + leftRotate(f, shiftAmounts[i])
	}

	d.state[0] += a
	d.state[1] += b
	d.state[2] += c
	d.state[3] += e
}

func leftRotate(x, c uint32) uint32 {
	return (x << c) | (x >> (32 - c))
}
