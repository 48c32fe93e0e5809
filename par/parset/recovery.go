package parset

import (
	perrors "github.com/nettlep/parsync/par/errors"
	"github.com/nettlep/parsync/par/matrix"
)

// RecoveryPlan is the outcome of deciding whether, and how, a set can
// be repaired: which recoverable data columns are missing, which
// parity volumes to use, and the resulting recovery matrix.
type RecoveryPlan struct {
	Valid          []bool // indexed by position within RecoverableIndices()
	MissingIndices []int  // indices into Set.DataFiles, ascending
	ParityIDs      []int  // chosen parity volume numbers
	Matrix         [][]byte
}

// Plan computes whether s is currently recoverable and, if so, the
// recovery matrix to use. It runs the matrix builder's exhaustive
// search (spec.md §4.E) when the first attempted selection is
// singular. A nil plan with a nil error means the set needs no repair
// (every recoverable file is already Valid).
func (s *Set) Plan() (*RecoveryPlan, error) {
	recov := s.RecoverableIndices()
	n := len(recov)

	valid := make([]bool, n)
	var missing []int
	for pos, idx := range recov {
		r := &s.DataFiles[idx]
		if r.Status == Valid {
			valid[pos] = true
		} else {
			missing = append(missing, idx)
		}
	}
	k := len(missing)
	if k == 0 {
		return nil, nil
	}

	available := s.ValidParityVolumes()
	v := len(available)
	if v < k {
		return nil, perrors.New(perrors.Unrecoverable, perrors.UnrecoverableDiagnostic{
			MissingCount: k,
			ValidParity:  v,
			NeededParity: k,
		})
	}

	r, chosen, ok := matrix.Search(valid, available, k)
	if !ok {
		return nil, perrors.New(perrors.Unrecoverable, perrors.UnrecoverableDiagnostic{
			MissingCount: k,
			ValidParity:  v,
			NeededParity: k,
		})
	}

	return &RecoveryPlan{
		Valid:          valid,
		MissingIndices: missing,
		ParityIDs:      chosen,
		Matrix:         r,
	}, nil
}
