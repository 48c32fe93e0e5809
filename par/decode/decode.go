// Package decode implements the reconstruction pass (spec.md §4.I):
// rebuilding missing recoverable data files from the surviving data
// columns and a selected set of parity volumes, driven by the
// recovery matrix par/parset's exhaustive search produces.
//
// Grounded on original_source/source/ParityInfo.cpp's RebuildFiles.
package decode

import (
	"fmt"

	"github.com/nettlep/parsync/par/chunk"
	perrors "github.com/nettlep/parsync/par/errors"
	"github.com/nettlep/parsync/par/galois"
	"github.com/nettlep/parsync/par/host"
	"github.com/nettlep/parsync/par/parset"
)

// Run reconstructs the missing recoverable files described by plan.
// When onlyIndex is >= 0, only the data file at that index (into
// s.DataFiles) is written to disk; every other missing row is still
// computed into memory, since it participates in the recovery
// equations, but discarded (spec.md §4.I's single-file repair mode).
// onlyIndex < 0 reconstructs and writes every missing file.
func Run(s *parset.Set, plan *parset.RecoveryPlan, svc *host.Services, onlyIndex int) error {
	k := len(plan.MissingIndices)
	if k == 0 {
		return nil
	}

	var survivorCols []int
	for x, ok := range plan.Valid {
		if ok {
			survivorCols = append(survivorCols, x)
		}
	}

	recov := s.RecoverableIndices()

	var largest uint32
	for _, idx := range plan.MissingIndices {
		if sz := s.DataFiles[idx].Size; sz > largest {
			largest = sz
		}
	}

	c := svc.ChunkSize(uint64(largest), k)

	survReaders := make([]*chunk.Reader, len(survivorCols))
	survSizes := make([]uint32, len(survivorCols))
	for i, x := range survivorCols {
		r := &s.DataFiles[recov[x]]
		survSizes[i] = r.Size
		rd, err := chunk.Open(r.Path, 0, 0, overlapped(svc))
		if err != nil {
			return perrors.Wrap(perrors.IOError, err, "decode: open survivor")
		}
		survReaders[i] = rd
	}
	defer closeAll(survReaders)

	parityReaders := make([]*chunk.Reader, len(plan.ParityIDs))
	for i, id := range plan.ParityIDs {
		p := findParity(s, id)
		if p == nil {
			return perrors.New(perrors.FormatError, fmt.Errorf("decode: parity volume %d not in set", id))
		}
		rd, err := chunk.Open(p.Path, int64(p.DataOffset), int64(p.DataSize), overlapped(svc))
		if err != nil {
			return perrors.Wrap(perrors.IOError, err, "decode: open parity volume")
		}
		parityReaders[i] = rd
	}
	defer closeAll(parityReaders)

	survTabs := make([][][256]byte, len(survivorCols))
	for i := range survivorCols {
		survTabs[i] = make([][256]byte, k)
		for y := 0; y < k; y++ {
			survTabs[i][y] = galois.MulTable(plan.Matrix[y][i])
		}
	}
	parityTabs := make([][][256]byte, len(plan.ParityIDs))
	for pi := range plan.ParityIDs {
		parityTabs[pi] = make([][256]byte, k)
		for y := 0; y < k; y++ {
			parityTabs[pi][y] = galois.MulTable(plan.Matrix[y][len(survivorCols)+pi])
		}
	}

	writers := make([]*chunk.Writer, k)
	for y, idx := range plan.MissingIndices {
		if onlyIndex >= 0 && idx != onlyIndex {
			continue
		}
		w, err := chunk.Create(s.DataFiles[idx].Path)
		if err != nil {
			return perrors.Wrap(perrors.IOError, err, "decode: create output file")
		}
		writers[y] = w
	}

	outBufs := make([][]byte, k)
	for y := range outBufs {
		outBufs[y] = make([]byte, c)
	}

	for o := uint64(0); o < uint64(largest); o += c {
		for y := range outBufs {
			buf := outBufs[y]
			for i := range buf {
				buf[i] = 0
			}
		}

		for i := range survivorCols {
			if uint64(survSizes[i]) <= o {
				continue
			}
			var read uint64
			for read < c {
				buf, _, err := survReaders[i].FinishRead()
				if err != nil {
					return perrors.Wrap(perrors.IOError, err, "decode: read survivor chunk")
				}
				for y := 0; y < k; y++ {
					if plan.Matrix[y][i] == 0 {
						continue
					}
					tab := &survTabs[i][y]
					galois.XORInto(outBufs[y][read:read+uint64(len(buf))], tab, buf)
				}
				read += uint64(len(buf))
			}
		}

		for pi := range plan.ParityIDs {
			var read uint64
			for read < c {
				buf, _, err := parityReaders[pi].FinishRead()
				if err != nil {
					return perrors.Wrap(perrors.IOError, err, "decode: read parity chunk")
				}
				col := len(survivorCols) + pi
				for y := 0; y < k; y++ {
					if plan.Matrix[y][col] == 0 {
						continue
					}
					tab := &parityTabs[pi][y]
					galois.XORInto(outBufs[y][read:read+uint64(len(buf))], tab, buf)
				}
				read += uint64(len(buf))
			}
		}

		for y, idx := range plan.MissingIndices {
			if writers[y] == nil {
				continue
			}
			size := uint64(s.DataFiles[idx].Size)
			if size <= o {
				continue
			}
			take := uint64(len(outBufs[y]))
			if o+take > size {
				take = size - o
			}
			if _, err := writers[y].Write(outBufs[y][:take]); err != nil {
				return perrors.Wrap(perrors.IOError, err, "decode: write output chunk")
			}
		}

		if !svc.Report("decode", percentOf(o+c, uint64(largest))) {
			for _, w := range writers {
				if w != nil {
					w.Abandon()
				}
			}
			return perrors.New(perrors.Cancelled, nil)
		}
	}

	for y, idx := range plan.MissingIndices {
		if writers[y] == nil {
			continue
		}
		if err := writers[y].Close(); err != nil {
			return perrors.Wrap(perrors.IOError, err, "decode: close output file")
		}
		s.DataFiles[idx].Status = parset.Unknown
	}

	return nil
}

func findParity(s *parset.Set, volNum int) *parset.ParityVolumeRecord {
	for i := range s.Parity {
		if int(s.Parity[i].VolumeNumber) == volNum {
			return &s.Parity[i]
		}
	}
	return nil
}

func closeAll(readers []*chunk.Reader) {
	for _, r := range readers {
		if r != nil {
			_ = r.Close()
		}
	}
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
