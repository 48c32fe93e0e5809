package fingerprint_test

import (
	"encoding/hex"
	"testing"

	"github.com/nettlep/parsync/par/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexSum(s string) string {
	sum := fingerprint.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestRFC1321Vectors(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "d41d8cd98f00b204e9800998ecf8427e"},
		{"abc", "900150983cd24fb0d6963f7d28e17f72"},
		{"message digest", "f96b697d7cb7938d525a2f31aaf161d0"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, hexSum(c.in), "input %q", c.in)
	}
}

func TestAbsorbAfterFinishFails(t *testing.T) {
	d := fingerprint.New()
	require.NoError(t, d.Absorb([]byte("abc")))
	d.Finish()
	err := d.Absorb([]byte("more"))
	assert.ErrorIs(t, err, fingerprint.ErrAlreadyFinished)
}

func TestChunkedAbsorbMatchesOneShot(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i * 7)
	}
	whole := fingerprint.Sum(data)

	d := fingerprint.New()
	for i := 0; i < len(data); i += 17 {
		end := i + 17
		if end > len(data) {
			end = len(data)
		}
		require.NoError(t, d.Absorb(data[i:end]))
	}
	chunked := d.Finish()
	assert.Equal(t, whole, chunked)
}

func TestDigestIsIdempotentAfterFinish(t *testing.T) {
	d := fingerprint.New()
	require.NoError(t, d.Absorb([]byte("abc")))
	first := d.Finish()
	second := d.Digest()
	assert.Equal(t, first, second)
}

func TestLargeBlockAlignedInput(t *testing.T) {
	// 64-byte multiple, exercises the no-copy direct-block path.
	data := make([]byte, 64*10)
	for i := range data {
		data[i] = byte(i)
	}
	sum := fingerprint.Sum(data)
	assert.False(t, sum.IsZero())
}
