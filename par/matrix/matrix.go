// Package matrix builds the Vandermonde encoding matrix and the
// Gauss-eliminated recovery matrix used by the PAR v1.0 Reed-Solomon
// code, including the exhaustive search for a non-singular recovery
// submatrix described in spec.md §4.E.
package matrix

import "github.com/nettlep/parsync/par/galois"

// ErrSingular indicates that a specific choice of parity volumes does
// not yield an invertible recovery system. Callers retry with another
// combination via Search; it never needs to escape past this package.
type ErrSingular struct{}

func (ErrSingular) Error() string { return "matrix: singular recovery system for this parity selection" }

// Encode builds the M x N Vandermonde encoding matrix: V[m][n] = pow(n+1, m).
// Rows are parity volumes 1..M (row index m = volume number - 1); columns
// are recoverable data files in serialisation order.
func Encode(n, m int) [][]byte {
	v := make([][]byte, m)
	for row := 0; row < m; row++ {
		v[row] = make([]byte, n)
		for col := 0; col < n; col++ {
			v[row][col] = galois.Pow(byte(col+1), row)
		}
	}
	return v
}

func div(a, b byte) byte {
	r, err := galois.Div(a, b)
	if err != nil {
		// b == 0 only happens here if a pivot normalised against a zero
		// entry, which the caller's nonzero check rules out beforehand.
		panic(err)
	}
	return r
}

// Build constructs the K x N recovery matrix R for the missing
// recoverable data columns selected by valid (false entries are the K
// missing columns) and the K parity volume numbers in parityIDs (each
// >= 1, one row of R per parityIDs entry in the given order, but the
// returned R is reindexed so row j corresponds to the j-th missing
// column in ascending column order — see spec.md §4.E).
//
// It returns ErrSingular if this particular selection of parity
// volumes does not form an invertible system; the caller (par/parset)
// is responsible for the exhaustive search over other selections.
func Build(valid []bool, parityIDs []int) ([][]byte, error) {
	n := len(valid)
	var missingCols []int
	var survivorCols []int
	for x, ok := range valid {
		if ok {
			survivorCols = append(survivorCols, x)
		} else {
			missingCols = append(missingCols, x)
		}
	}
	k := len(missingCols)
	if k != len(parityIDs) {
		panic("matrix: parityIDs count must equal number of missing columns")
	}
	if k == 0 {
		return [][]byte{}, nil
	}

	// leftSub[y][j] = pow(missingCols[j]+1, parityIDs[y]-1)
	leftSub := make([][]byte, k)
	// rightSub[y] = [survivor pow values packed left] ++ [K x K identity]
	rightSub := make([][]byte, k)
	for y := 0; y < k; y++ {
		exp := parityIDs[y] - 1
		leftSub[y] = make([]byte, k)
		for j, x := range missingCols {
			leftSub[y][j] = galois.Pow(byte(x+1), exp)
		}
		row := make([]byte, (n-k)+k)
		for s, x := range survivorCols {
			row[s] = galois.Pow(byte(x+1), exp)
		}
		row[(n-k)+y] = 1
		rightSub[y] = row
	}

	pivotColFor := make([]int, k)
	colClaimed := make([]bool, k)

	for i := 0; i < k; i++ {
		c := -1
		for j := 0; j < k; j++ {
			if !colClaimed[j] && leftSub[i][j] != 0 {
				c = j
				break
			}
		}
		if c == -1 {
			return nil, ErrSingular{}
		}
		colClaimed[c] = true
		pivotColFor[i] = c

		inv := leftSub[i][c]
		for cc := 0; cc < k; cc++ {
			leftSub[i][cc] = div(leftSub[i][cc], inv)
		}
		for cc := range rightSub[i] {
			rightSub[i][cc] = div(rightSub[i][cc], inv)
		}

		for y := 0; y < k; y++ {
			if y == i {
				continue
			}
			factor := leftSub[y][c]
			if factor == 0 {
				continue
			}
			for cc := 0; cc < k; cc++ {
				leftSub[y][cc] ^= galois.Mul(factor, leftSub[i][cc])
			}
			for cc := range rightSub[y] {
				rightSub[y][cc] ^= galois.Mul(factor, rightSub[i][cc])
			}
		}
	}

	rowForCol := make([]int, k)
	for i, c := range pivotColFor {
		rowForCol[c] = i
	}

	r := make([][]byte, k)
	for j := 0; j < k; j++ {
		row := rightSub[rowForCol[j]]
		if allZero(row) {
			return nil, ErrSingular{}
		}
		r[j] = row
	}
	return r, nil
}

func allZero(row []byte) bool {
	for _, b := range row {
		if b != 0 {
			return false
		}
	}
	return true
}

// combinations yields every K-length increasing index subset of
// [0, v) in lexicographic order, starting with {0, ..., K-1}.
func combinations(v, k int) func(yield func([]int) bool) {
	return func(yield func([]int) bool) {
		if k == 0 || k > v {
			return
		}
		idx := make([]int, k)
		for i := range idx {
			idx[i] = i
		}
		for {
			cur := make([]int, k)
			copy(cur, idx)
			if !yield(cur) {
				return
			}
			i := k - 1
			for i >= 0 && idx[i] == v-k+i {
				i--
			}
			if i < 0 {
				return
			}
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
		}
	}
}

// Search enumerates every combination of K volume numbers drawn from
// availableParityIDs (in lexicographic order of index, starting with
// the first K) and returns the first non-singular recovery matrix
// along with the parity volume numbers it used. A false ok indicates
// every combination was singular (or that no combination of k could be
// drawn).
func Search(valid []bool, availableParityIDs []int, k int) (r [][]byte, chosen []int, ok bool) {
	var found []int
	success := false
	combinations(len(availableParityIDs), k)(func(idx []int) bool {
		ids := make([]int, k)
		for i, p := range idx {
			ids[i] = availableParityIDs[p]
		}
		built, err := Build(valid, ids)
		if err == nil {
			r = built
			found = ids
			success = true
			return false
		}
		return true
	})
	if !success {
		return nil, nil, false
	}
	return r, found, true
}
