package galois_test

import (
	"testing"

	"github.com/nettlep/parsync/par/galois"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnownConstants(t *testing.T) {
	assert.Equal(t, byte(0x04), galois.Mul(0x02, 0x02))
	assert.Equal(t, byte(0x1D), galois.Mul(0x80, 0x02))

	div, err := galois.Div(0x1D, 0x02)
	require.NoError(t, err)
	assert.Equal(t, byte(0x80), div)

	assert.Equal(t, byte(0x1D), galois.Pow(2, 8))
}

func TestDivByZero(t *testing.T) {
	_, err := galois.Div(0x01, 0x00)
	assert.ErrorIs(t, err, galois.ErrDivByZero)
}

func TestDivMulRoundTrip(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 1; b < 256; b++ {
			prod := galois.Mul(byte(a), byte(b))
			back, err := galois.Div(prod, byte(b))
			require.NoError(t, err)
			assert.Equal(t, byte(a), back)
		}
	}
}

func TestPowZeroAndOne(t *testing.T) {
	for a := 1; a < 256; a++ {
		assert.Equal(t, byte(1), galois.Pow(byte(a), 0))
		assert.Equal(t, byte(a), galois.Pow(byte(a), 1))
	}
	assert.Equal(t, byte(0), galois.Pow(0, 0))
}

func TestMulTableMatchesMul(t *testing.T) {
	for m := 0; m < 256; m++ {
		tab := galois.MulTable(byte(m))
		for x := 0; x < 256; x++ {
			assert.Equal(t, galois.Mul(byte(m), byte(x)), tab[x])
		}
	}
}

func TestXORInto(t *testing.T) {
	tab := galois.MulTable(0x03)
	dst := []byte{0x01, 0x02, 0x03}
	src := []byte{0x10, 0x20, 0x30}
	want := make([]byte, 3)
	for i := range want {
		want[i] = dst[i] ^ galois.Mul(0x03, src[i])
	}
	galois.XORInto(dst, &tab, src)
	assert.Equal(t, want, dst)
}
