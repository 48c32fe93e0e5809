package parfile

import (
	"encoding/binary"

	perrors "github.com/nettlep/parsync/par/errors"
	"github.com/pkg/errors"
)

// EntryFixedSize is the size in bytes of a file-list entry excluding
// its variable-length name.
const EntryFixedSize = 0x38

// RecoverableBit is bit 0 of a file-list entry's status bitfield.
const RecoverableBit = 1 << 0

// Entry is one decoded file-list record (spec.md §4.F).
type Entry struct {
	Recoverable bool
	FileSize    uint32
	FullHash    [16]byte
	PrefixHash  [16]byte
	NameOEM     []uint16
}

// EncodedSize returns the on-disk size of e including its name.
func (e *Entry) EncodedSize() int {
	return EntryFixedSize + len(e.NameOEM)*2
}

// Encode serialises e into its file-list wire form.
func (e *Entry) Encode() []byte {
	buf := make([]byte, e.EncodedSize())
	binary.LittleEndian.PutUint32(buf[0x00:0x04], uint32(e.EncodedSize()))
	binary.LittleEndian.PutUint32(buf[0x04:0x08], 0)
	var status uint32
	if e.Recoverable {
		status |= RecoverableBit
	}
	binary.LittleEndian.PutUint32(buf[0x08:0x0C], status)
	binary.LittleEndian.PutUint32(buf[0x0C:0x10], 0)
	binary.LittleEndian.PutUint32(buf[0x10:0x14], e.FileSize)
	binary.LittleEndian.PutUint32(buf[0x14:0x18], 0)
	copy(buf[0x18:0x28], e.FullHash[:])
	copy(buf[0x28:0x38], e.PrefixHash[:])
	for i, u := range e.NameOEM {
		binary.LittleEndian.PutUint16(buf[0x38+i*2:0x38+i*2+2], u)
	}
	return buf
}

// DecodeEntry decodes one file-list entry starting at the beginning
// of buf, returning the entry and the number of bytes consumed.
// Unknown high bits in the status bitfield are masked and warned about
// by the caller (par/parset), not rejected here, per spec.md §9.
func DecodeEntry(buf []byte) (*Entry, int, bool /*maskedUnknownBits*/, error) {
	if len(buf) < EntryFixedSize {
		return nil, 0, false, perrors.New(perrors.InputError, errors.New("parfile: truncated file-list entry"))
	}
	entrySizeHigh := binary.LittleEndian.Uint32(buf[0x04:0x08])
	if entrySizeHigh != 0 {
		return nil, 0, false, perrors.New(perrors.InputError, errors.New("parfile: entry size high 32 bits must be zero"))
	}
	entrySize := binary.LittleEndian.Uint32(buf[0x00:0x04])
	if int(entrySize) < EntryFixedSize || int(entrySize) > len(buf) {
		return nil, 0, false, perrors.New(perrors.InputError, errors.New("parfile: entry size out of range"))
	}

	statusHigh := binary.LittleEndian.Uint32(buf[0x0C:0x10])
	if statusHigh != 0 {
		return nil, 0, false, perrors.New(perrors.InputError, errors.New("parfile: status high 32 bits must be zero"))
	}
	status := binary.LittleEndian.Uint32(buf[0x08:0x0C])
	masked := status&^uint32(RecoverableBit) != 0

	fileSizeHigh := binary.LittleEndian.Uint32(buf[0x14:0x18])
	if fileSizeHigh != 0 {
		return nil, 0, false, perrors.New(perrors.InputError, errors.New("parfile: file size high 32 bits must be zero"))
	}

	e := &Entry{
		Recoverable: status&RecoverableBit != 0,
		FileSize:    binary.LittleEndian.Uint32(buf[0x10:0x14]),
	}
	copy(e.FullHash[:], buf[0x18:0x28])
	copy(e.PrefixHash[:], buf[0x28:0x38])

	nameBytes := int(entrySize) - EntryFixedSize
	if nameBytes%2 != 0 {
		return nil, 0, false, perrors.New(perrors.InputError, errors.New("parfile: odd name length"))
	}
	units := nameBytes / 2
	e.NameOEM = make([]uint16, units)
	for i := 0; i < units; i++ {
		e.NameOEM[i] = binary.LittleEndian.Uint16(buf[EntryFixedSize+i*2 : EntryFixedSize+i*2+2])
	}

	return e, int(entrySize), masked, nil
}
