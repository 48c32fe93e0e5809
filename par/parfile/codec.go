package parfile

import (
	"io"
	"os"

	"github.com/nettlep/parsync/par/fingerprint"
	"github.com/pkg/errors"
)

// File is a fully decoded PAR v1.0 file: its header and file-list.
type File struct {
	Header  Header
	Entries []Entry
}

// ReadFile reads and decodes a complete PAR v1.0 file from path.
// Unknown high status bits across entries are masked and reported via
// maskedAny so the caller can log a single warning.
func ReadFile(path string) (*File, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false, errors.Wrap(err, "parfile: read")
	}
	return ParseFile(raw)
}

// ParseFile decodes a complete PAR v1.0 file already read into memory.
func ParseFile(raw []byte) (*File, bool, error) {
	if len(raw) < HeaderSize {
		return nil, false, errors.New("parfile: file shorter than header")
	}
	h, err := DecodeHeader(raw[:HeaderSize])
	if err != nil {
		return nil, false, err
	}
	if uint64(len(raw)) < h.FileListOffset+h.FileListSize {
		return nil, false, errors.New("parfile: file shorter than declared file-list")
	}

	listBuf := raw[h.FileListOffset : h.FileListOffset+h.FileListSize]
	entries := make([]Entry, 0, h.FileCount)
	maskedAny := false
	for off := 0; off < len(listBuf); {
		e, n, masked, err := DecodeEntry(listBuf[off:])
		if err != nil {
			return nil, false, err
		}
		if masked {
			maskedAny = true
		}
		entries = append(entries, *e)
		off += n
	}
	if uint32(len(entries)) != h.FileCount {
		return nil, false, errors.New("parfile: file count does not match file-list")
	}

	return &File{Header: *h, Entries: entries}, maskedAny, nil
}

// BodyHash computes the Fingerprint of raw[0x20:], the "body hash"
// spec.md §4.F defines: header-except-identifier-prefix plus body.
func BodyHash(raw []byte) fingerprint.Fingerprint {
	return fingerprint.Sum(raw[0x20:])
}

// ComputeBodyHash streams path's bytes from 0x20 to EOF and returns
// their MD5, the body_hash spec.md §4.F defines.
func ComputeBodyHash(path string) (fingerprint.Fingerprint, error) {
	var zero fingerprint.Fingerprint
	f, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrap(err, "parfile: open for body-hash computation")
	}
	defer f.Close()
	if _, err := f.Seek(0x20, io.SeekStart); err != nil {
		return zero, errors.Wrap(err, "parfile: seek")
	}
	d := fingerprint.New()
	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			_ = d.Absorb(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return zero, errors.Wrap(err, "parfile: read")
		}
	}
	return d.Finish(), nil
}

// ValidateBodyHash re-hashes path's bytes from 0x20 to EOF and compares
// against the header's recorded BodyHash. It streams the file rather
// than loading it whole.
func ValidateBodyHash(path string, want fingerprint.Fingerprint) (bool, error) {
	got, err := ComputeBodyHash(path)
	if err != nil {
		return false, err
	}
	return got == want, nil
}

// SetHash computes the Fingerprint binding a set together: the MD5 of
// the concatenation of the recoverable data files' FullHash values, in
// serialisation order.
func SetHash(recoverableFullHashes []fingerprint.Fingerprint) fingerprint.Fingerprint {
	d := fingerprint.New()
	for _, h := range recoverableFullHashes {
		_ = d.Absorb(h[:])
	}
	return d.Finish()
}

// ProbeFileSetHash performs the cheap "is from set" probe against a
// file on disk: reads only the first 0x30 bytes.
func ProbeFileSetHash(path string) (setHash [16]byte, ok bool, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return setHash, false, nil //nolint:nilerr // missing/unreadable sibling is simply not a match
	}
	defer f.Close()
	buf := make([]byte, 0x30)
	n, readErr := io.ReadFull(f, buf)
	if readErr != nil || n < 0x30 {
		return setHash, false, nil
	}
	sh, probeOK := ProbeSetHash(buf)
	return sh, probeOK, nil
}
