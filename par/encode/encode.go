// Package encode implements the parity volume creation pass (spec.md
// §4.H): streaming recoverable data files through the GF(2^8) kernel
// to produce M parity volumes alongside the main index volume,
// grounded on original_source/source/ParityInfo.cpp's
// CreateParityVolumes and the two-pass header write it performs
// (placeholder, then set_hash, then body_hash).
package encode

import (
	"fmt"
	"os"
	"path/filepath"

	perrors "github.com/nettlep/parsync/par/errors"
	"github.com/nettlep/parsync/lib/encoder"
	"github.com/nettlep/parsync/par/chunk"
	"github.com/nettlep/parsync/par/fingerprint"
	"github.com/nettlep/parsync/par/galois"
	"github.com/nettlep/parsync/par/host"
	"github.com/nettlep/parsync/par/matrix"
	"github.com/nettlep/parsync/par/parfile"
)

const prefixHashLen = 16 * 1024

// FileInput is one data file to catalogue, in serialisation order.
type FileInput struct {
	Path        string
	Recoverable bool
}

// Result is the outcome of a completed encode pass.
type Result struct {
	Entries []parfile.Entry
	SetHash fingerprint.Fingerprint
	// Volumes holds every written file's path, volume 0 (the main
	// index volume) first, then parity volumes 1..M in order.
	Volumes []string
}

// Run builds the main index volume plus m parity volumes for inputs
// into outDir, named baseName+".par" and baseName+".pNN". It fails
// with an InputError if m exceeds the recoverable file count or if
// the total column count would exceed the 255 columns a single byte
// of GF(2^8) coefficients can index.
func Run(inputs []FileInput, m int, outDir, baseName string, svc *host.Services) (*Result, error) {
	n := 0
	for _, in := range inputs {
		if in.Recoverable {
			n++
		}
	}
	if m < 0 || m > n || n+m > 255 {
		return nil, perrors.New(perrors.InputError, fmt.Errorf("encode: invalid volume count m=%d for n=%d recoverable files", m, n))
	}

	sizes := make([]uint32, len(inputs))
	var largest uint32  // largest recoverable file: bounds the parity data section
	var largestAny uint32 // largest of any file: bounds how far every file's digest must stream
	for i, in := range inputs {
		fi, err := os.Stat(in.Path)
		if err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: stat input")
		}
		sizes[i] = uint32(fi.Size())
		if in.Recoverable && sizes[i] == 0 {
			return nil, perrors.New(perrors.InputError, fmt.Errorf("encode: recoverable file %q is empty", in.Path))
		}
		if in.Recoverable && sizes[i] > largest {
			largest = sizes[i]
		}
		if sizes[i] > largestAny {
			largestAny = sizes[i]
		}
	}

	v := matrix.Encode(n, m) // m rows (parity 1..m) x n cols (recoverable index)

	entries := make([]parfile.Entry, len(inputs))
	recovIdx := make([]int, len(inputs))
	ridx := 0
	for i, in := range inputs {
		entries[i] = parfile.Entry{
			Recoverable: in.Recoverable,
			FileSize:    sizes[i],
			NameOEM:     encoder.ToOEM(filepath.Base(in.Path)),
		}
		if in.Recoverable {
			recovIdx[i] = ridx
			ridx++
		} else {
			recovIdx[i] = -1
		}
	}

	var placeholderList []byte
	for _, e := range entries {
		placeholderList = append(placeholderList, e.Encode()...)
	}
	fileListSize := uint64(len(placeholderList))
	dataOffset := uint64(parfile.HeaderSize) + fileListSize

	type volume struct {
		num    uint32
		path   string
		w      *chunk.Writer
		header parfile.Header
	}

	vols := make([]*volume, m+1)
	for j := 0; j <= m; j++ {
		name := baseName + ".par"
		if j > 0 {
			name = fmt.Sprintf("%s.p%02d", baseName, j)
		}
		path := filepath.Join(outDir, name)
		w, err := chunk.Create(path)
		if err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: create volume")
		}
		h := parfile.Header{
			FormatVersion:  parfile.FormatVersion1_0,
			Generator:      parfile.GeneratorThisImplementation << 24,
			VolumeNumber:   uint32(j),
			FileCount:      uint32(len(entries)),
			FileListOffset: parfile.HeaderSize,
			FileListSize:   fileListSize,
			DataOffset:     dataOffset,
		}
		if j > 0 {
			h.DataSize = uint64(largest)
		}
		if _, err := w.Write(h.Encode()); err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: write placeholder header")
		}
		if _, err := w.Write(placeholderList); err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: write placeholder file list")
		}
		vols[j] = &volume{num: uint32(j), path: path, w: w, header: h}
	}

	readers := make([]*chunk.Reader, len(inputs))
	fulls := make([]*fingerprint.Digest, len(inputs))
	prefixes := make([]*fingerprint.Digest, len(inputs))
	prefixDone := make([]int, len(inputs))
	for i, in := range inputs {
		r, err := chunk.Open(in.Path, 0, 0, overlapped(svc))
		if err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: open input")
		}
		readers[i] = r
		fulls[i] = fingerprint.New()
		prefixes[i] = fingerprint.New()
	}
	defer func() {
		for _, r := range readers {
			_ = r.Close()
		}
	}()

	muls := make([][][256]byte, n)
	for r := 0; r < n; r++ {
		muls[r] = make([][256]byte, m)
		for j := 0; j < m; j++ {
			muls[r][j] = galois.MulTable(v[j][r])
		}
	}

	c := svc.ChunkSize(uint64(largestAny), m+1)
	outBufs := make([][]byte, m)
	for j := range outBufs {
		outBufs[j] = make([]byte, c)
	}

	for o := uint64(0); o < uint64(largestAny); o += c {
		for j := range outBufs {
			for i := range outBufs[j] {
				outBufs[j][i] = 0
			}
		}

		for i := range inputs {
			if uint64(sizes[i]) <= o {
				continue
			}
			var read uint64
			for read < c {
				buf, n, err := readers[i].FinishRead()
				if err != nil {
					return nil, perrors.Wrap(perrors.IOError, err, "encode: read input chunk")
				}
				if n > 0 {
					_ = fulls[i].Absorb(buf[:n])
					if prefixDone[i] < prefixHashLen {
						take := n
						if prefixDone[i]+take > prefixHashLen {
							take = prefixHashLen - prefixDone[i]
						}
						_ = prefixes[i].Absorb(buf[:take])
						prefixDone[i] += take
					}
				}
				if ri := recovIdx[i]; ri >= 0 {
					for j := 0; j < m; j++ {
						tab := &muls[ri][j]
						galois.XORInto(outBufs[j][read:read+uint64(len(buf))], tab, buf)
					}
				}
				read += uint64(len(buf))
			}
		}

		if o < uint64(largest) {
			body := uint64(largest) - o
			if body > c {
				body = c
			}
			for j := range outBufs {
				for off := uint64(0); off < body; off += chunk.Size {
					end := off + chunk.Size
					if end > body {
						end = body
					}
					if _, err := vols[j+1].w.Write(outBufs[j][off:end]); err != nil {
						return nil, perrors.Wrap(perrors.IOError, err, "encode: write parity chunk")
					}
				}
			}
		}

		if !svc.Report("encode", percentOf(o+c, uint64(largestAny))) {
			for _, vol := range vols {
				vol.w.Abandon()
			}
			return nil, perrors.New(perrors.Cancelled, nil)
		}
	}

	var recovFulls []fingerprint.Fingerprint
	for i, in := range inputs {
		entries[i].FullHash = fulls[i].Finish()
		entries[i].PrefixHash = prefixes[i].Finish()
		if in.Recoverable {
			recovFulls = append(recovFulls, entries[i].FullHash)
		}
	}
	setHash := parfile.SetHash(recovFulls)

	var finalList []byte
	for _, e := range entries {
		finalList = append(finalList, e.Encode()...)
	}

	paths := make([]string, m+1)
	for j, vol := range vols {
		vol.header.SetHash = setHash
		if err := vol.w.WriteAt(vol.header.Encode(), 0); err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: rewrite header with set_hash")
		}
		if err := vol.w.WriteAt(finalList, int64(parfile.HeaderSize)); err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: rewrite file list with hashes")
		}
		if err := vol.w.Close(); err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: close volume")
		}
		paths[j] = vol.path
	}

	for _, vol := range vols {
		bodyHash, err := parfile.ComputeBodyHash(vol.path)
		if err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: compute body hash")
		}
		vol.header.BodyHash = bodyHash
		f, err := os.OpenFile(vol.path, os.O_WRONLY, 0o644)
		if err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: reopen volume for body hash")
		}
		if _, err := f.WriteAt(vol.header.Encode()[:0x20], 0); err != nil {
			f.Close()
			return nil, perrors.Wrap(perrors.IOError, err, "encode: write body hash")
		}
		if err := f.Close(); err != nil {
			return nil, perrors.Wrap(perrors.IOError, err, "encode: close volume after body hash")
		}
	}

	return &Result{Entries: entries, SetHash: setHash, Volumes: paths}, nil
}

func overlapped(svc *host.Services) bool {
	return svc != nil && svc.OverlappedIO
}

func percentOf(done, total uint64) int {
	if total == 0 {
		return 100
	}
	if done > total {
		done = total
	}
	return int(done * 100 / total)
}
