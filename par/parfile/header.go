// Package parfile implements the PAR v1.0 on-disk binary layout:
// the 96-byte fixed header, the variable-length file-list, and the
// set-hash/body-hash validation rules of spec.md §4.F.
//
// Grounded on original_source/source/ParityFile.cpp/.h for the exact
// field layout, and on the PAR2 packet parser in
// other_examples/…desertwitch-par2cron…parse.go for the Go idiom of a
// fixed-size magic-prefixed header followed by a variable body.
package parfile

import (
	"encoding/binary"

	perrors "github.com/nettlep/parsync/par/errors"
	"github.com/pkg/errors"
)

// HeaderSize is the fixed size in bytes of the PAR v1.0 file header.
const HeaderSize = 0x60

// Identifier is the 8-byte magic prefix of every PAR v1.0 file.
var Identifier = [8]byte{'P', 'A', 'R', 0, 0, 0, 0, 0}

// FormatVersion1_0 is the on-disk file-format version for PAR v1.0.
const FormatVersion1_0 = 0x0001_0000

// Generator tag vendor bytes. 0xFF identifies this implementation;
// 0x00-0x03 and 0xFE are historical creators accepted read-only.
const (
	GeneratorThisImplementation = 0xFF
)

// GeneratorVendor returns a cosmetic "created by" string for a
// generator tag's high byte, per spec.md §6 and
// original_source/source/ParityInfo.cpp's creatorString handling.
// Unknown high bytes other than the historical/this-implementation set
// still produce a string; they are never rejected on read.
func GeneratorVendor(tag uint32) string {
	switch byte(tag >> 24) {
	case 0x00:
		return "PAR v1.0 reference client"
	case 0x01:
		return "QuickPar"
	case 0x02:
		return "PeerGuardian" // historical, accepted cosmetically only
	case 0x03:
		return "SmartPar"
	case 0xFE:
		return "unknown historical creator"
	case GeneratorThisImplementation:
		return "this implementation"
	default:
		return "unrecognised creator"
	}
}

// Header is the decoded form of the fixed 96-byte PAR v1.0 header.
type Header struct {
	FormatVersion  uint32
	Generator      uint32
	BodyHash       [16]byte
	SetHash        [16]byte
	VolumeNumber   uint32
	FileCount      uint32
	FileListOffset uint64
	FileListSize   uint64
	DataOffset     uint64
	DataSize       uint64
}

// Encode writes h into a HeaderSize-byte little-endian buffer.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0x00:0x08], Identifier[:])
	binary.LittleEndian.PutUint32(buf[0x08:0x0C], h.FormatVersion)
	binary.LittleEndian.PutUint32(buf[0x0C:0x10], h.Generator)
	copy(buf[0x10:0x20], h.BodyHash[:])
	copy(buf[0x20:0x30], h.SetHash[:])
	binary.LittleEndian.PutUint32(buf[0x30:0x34], h.VolumeNumber)
	binary.LittleEndian.PutUint32(buf[0x34:0x38], 0)
	binary.LittleEndian.PutUint32(buf[0x38:0x3C], h.FileCount)
	binary.LittleEndian.PutUint32(buf[0x3C:0x40], 0)
	binary.LittleEndian.PutUint64(buf[0x40:0x48], h.FileListOffset)
	binary.LittleEndian.PutUint64(buf[0x48:0x50], h.FileListSize)
	binary.LittleEndian.PutUint64(buf[0x50:0x58], h.DataOffset)
	binary.LittleEndian.PutUint64(buf[0x58:0x60], h.DataSize)
	return buf
}

// DecodeHeader parses a HeaderSize-byte buffer into a Header. It
// returns an InputError if the buffer is short, the identifier doesn't
// match, or a high 32-bit half is non-zero, and a FormatError if the
// file-list offset is inconsistent with the fixed header size.
func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, perrors.New(perrors.InputError, errors.New("parfile: header buffer too short"))
	}
	if string(buf[0x00:0x03]) != "PAR" {
		return nil, perrors.New(perrors.InputError, errors.New("parfile: bad identifier"))
	}

	h := &Header{
		FormatVersion:  binary.LittleEndian.Uint32(buf[0x08:0x0C]),
		Generator:      binary.LittleEndian.Uint32(buf[0x0C:0x10]),
		VolumeNumber:   binary.LittleEndian.Uint32(buf[0x30:0x34]),
		FileCount:      binary.LittleEndian.Uint32(buf[0x38:0x3C]),
		FileListOffset: binary.LittleEndian.Uint64(buf[0x40:0x48]),
		FileListSize:   binary.LittleEndian.Uint64(buf[0x48:0x50]),
		DataOffset:     binary.LittleEndian.Uint64(buf[0x50:0x58]),
		DataSize:       binary.LittleEndian.Uint64(buf[0x58:0x60]),
	}
	copy(h.BodyHash[:], buf[0x10:0x20])
	copy(h.SetHash[:], buf[0x20:0x30])

	if binary.LittleEndian.Uint32(buf[0x34:0x38]) != 0 {
		return nil, perrors.New(perrors.InputError, errors.New("parfile: volume number high 32 bits must be zero"))
	}
	if binary.LittleEndian.Uint32(buf[0x3C:0x40]) != 0 {
		return nil, perrors.New(perrors.InputError, errors.New("parfile: file count high 32 bits must be zero"))
	}
	if h.FileListOffset != HeaderSize {
		return nil, perrors.New(perrors.FormatError, errors.New("parfile: file-list offset is not 0x60"))
	}
	return h, nil
}

// ProbeSetHash reads only the first 0x30 bytes of a candidate sibling
// file, the cheap "is from set" probe of spec.md §4.F: verifies the
// identifier and returns the set_hash without touching the rest of the
// file.
func ProbeSetHash(buf []byte) (setHash [16]byte, ok bool) {
	if len(buf) < 0x30 {
		return setHash, false
	}
	if string(buf[0x00:0x03]) != "PAR" {
		return setHash, false
	}
	copy(setHash[:], buf[0x20:0x30])
	return setHash, true
}
