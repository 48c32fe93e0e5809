package parfile_test

import (
	"testing"

	"github.com/nettlep/parsync/par/fingerprint"
	"github.com/nettlep/parsync/par/parfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeader() parfile.Header {
	return parfile.Header{
		FormatVersion:  parfile.FormatVersion1_0,
		Generator:      parfile.GeneratorThisImplementation << 24,
		VolumeNumber:   0,
		FileCount:      3,
		FileListOffset: parfile.HeaderSize,
		FileListSize:   0,
		DataOffset:     0,
		DataSize:       0,
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := sampleHeader()
	h.BodyHash = fingerprint.Sum([]byte("body"))
	h.SetHash = fingerprint.Sum([]byte("set"))

	buf := h.Encode()
	require.Len(t, buf, parfile.HeaderSize)
	assert.Equal(t, []byte("PAR\x00\x00\x00\x00\x00"), buf[0x00:0x08])

	got, err := parfile.DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, *got)
}

func TestHeaderRejectsBadIdentifier(t *testing.T) {
	h := sampleHeader()
	buf := h.Encode()
	buf[0] = 'X'
	_, err := parfile.DecodeHeader(buf)
	assert.Error(t, err)
}

func TestHeaderRejectsBadFileListOffset(t *testing.T) {
	h := sampleHeader()
	h.FileListOffset = 0x70
	buf := h.Encode()
	_, err := parfile.DecodeHeader(buf)
	assert.Error(t, err)
}

func TestEntryRoundTrip(t *testing.T) {
	e := parfile.Entry{
		Recoverable: true,
		FileSize:    12345,
		FullHash:    fingerprint.Sum([]byte("full")),
		PrefixHash:  fingerprint.Sum([]byte("prefix")),
		NameOEM:     []uint16{'a', 'b', 'c'},
	}
	buf := e.Encode()
	got, n, masked, err := parfile.DecodeEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.False(t, masked)
	assert.Equal(t, e, *got)
}

func TestEntryMasksUnknownStatusBits(t *testing.T) {
	e := parfile.Entry{Recoverable: true, NameOEM: []uint16{'x'}}
	buf := e.Encode()
	// Set an unused high bit in the status bitfield (bit 1).
	buf[0x08] |= 0x02
	got, _, masked, err := parfile.DecodeEntry(buf)
	require.NoError(t, err)
	assert.True(t, masked)
	assert.True(t, got.Recoverable)
}

func TestSetHashConcatenatesFullHashesInOrder(t *testing.T) {
	h1 := fingerprint.Sum([]byte("one"))
	h2 := fingerprint.Sum([]byte("two"))

	forward := parfile.SetHash([]fingerprint.Fingerprint{h1, h2})
	reversed := parfile.SetHash([]fingerprint.Fingerprint{h2, h1})
	assert.NotEqual(t, forward, reversed, "set hash must be order-sensitive")

	again := parfile.SetHash([]fingerprint.Fingerprint{h1, h2})
	assert.Equal(t, forward, again)
}

func TestProbeSetHashReadsOnlyFirst0x30Bytes(t *testing.T) {
	h := sampleHeader()
	h.SetHash = fingerprint.Sum([]byte("set"))
	buf := h.Encode()

	sh, ok := parfile.ProbeSetHash(buf[:0x30])
	require.True(t, ok)
	assert.Equal(t, h.SetHash, fingerprint.Fingerprint(sh))
}

func TestGeneratorVendorAcceptsHistoricalCreators(t *testing.T) {
	for _, hi := range []byte{0x00, 0x01, 0x02, 0x03, 0xFE, 0xFF} {
		tag := uint32(hi) << 24
		assert.NotEmpty(t, parfile.GeneratorVendor(tag))
	}
}
