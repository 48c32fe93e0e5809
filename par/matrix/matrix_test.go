package matrix_test

import (
	"testing"

	"github.com/nettlep/parsync/par/galois"
	"github.com/nettlep/parsync/par/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeMatrixShape(t *testing.T) {
	v := matrix.Encode(3, 2)
	require.Len(t, v, 2)
	for _, row := range v {
		require.Len(t, row, 3)
	}
	// row 0 is pow(n+1, 0) == 1 for every column.
	for _, val := range v[0] {
		assert.Equal(t, byte(1), val)
	}
	assert.Equal(t, galois.Pow(2, 1), v[1][1])
}

func TestBuildTwoFileXORParity(t *testing.T) {
	// N=2, M=1: parity volume is file1 XOR file2. Delete file 2 (index 1).
	valid := []bool{true, false}
	r, err := matrix.Build(valid, []int{1})
	require.NoError(t, err)
	require.Len(t, r, 1)
	// Missing column 1's recovery row: [coeff for survivor col0, identity coeff for parity].
	assert.Equal(t, byte(1), r[0][0])
	assert.Equal(t, byte(1), r[0][1])
}

func TestBuildSingularSelectionReturnsErrSingular(t *testing.T) {
	// Two missing columns but identical parity rows (same effective
	// equation twice) cannot be resolved.
	valid := []bool{false, false, true}
	_, err := matrix.Build(valid, []int{1, 1})
	assert.ErrorAs(t, err, &matrix.ErrSingular{})
}

func TestSearchFindsNonSingularCombination(t *testing.T) {
	// N=3, M=2 data columns with two missing (0 and 1); four parity
	// volumes on offer so the search has room to avoid any singular pair.
	valid := []bool{false, false, true}
	r, chosen, ok := matrix.Search(valid, []int{1, 2, 3, 4}, 2)
	require.True(t, ok)
	require.Len(t, chosen, 2)
	require.Len(t, r, 2)
}

func TestSearchWithSingleAvailableVolume(t *testing.T) {
	valid := []bool{false, true}
	// Only one parity volume available for one missing column: trivially solvable.
	r, chosen, ok := matrix.Search(valid, []int{5}, 1)
	require.True(t, ok)
	assert.Equal(t, []int{5}, chosen)
	assert.Len(t, r, 1)
}
