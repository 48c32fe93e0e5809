package encode_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nettlep/parsync/par/encode"
	"github.com/nettlep/parsync/par/host"
	"github.com/nettlep/parsync/par/parset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, content, 0o644))
	return p
}

func TestRunProducesASetThatClassifiesValid(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "alpha.txt", []byte("the quick brown fox jumps over the lazy dog"))
	b := writeFile(t, dir, "beta.txt", []byte("pack my box with five dozen liquor jugs"))

	inputs := []encode.FileInput{
		{Path: a, Recoverable: true},
		{Path: b, Recoverable: true},
	}

	res, err := encode.Run(inputs, 1, dir, "archive", &host.Services{})
	require.NoError(t, err)
	require.Len(t, res.Volumes, 2)

	s, err := parset.Load(res.Volumes[0])
	require.NoError(t, err)
	require.Len(t, s.Parity, 2)

	require.NoError(t, s.Classify(&host.Services{}))
	for _, r := range s.DataFiles {
		assert.Equal(t, parset.Valid, r.Status)
	}
	for _, p := range s.Parity {
		assert.Equal(t, parset.Valid, p.Status)
	}

	plan, err := s.Plan()
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestRunRejectsTooManyParityVolumes(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "only.txt", []byte("solo"))

	_, err := encode.Run([]encode.FileInput{{Path: a, Recoverable: true}}, 2, dir, "archive", &host.Services{})
	assert.Error(t, err)
}

func TestRunSetIsRecoverableAfterOneDataFileIsDeleted(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "alpha.txt", []byte("alpha file content goes here, long enough"))
	b := writeFile(t, dir, "beta.txt", []byte("beta file content also long enough to matter"))
	c := writeFile(t, dir, "gamma.txt", []byte("gamma file content rounds out the set nicely"))

	inputs := []encode.FileInput{
		{Path: a, Recoverable: true},
		{Path: b, Recoverable: true},
		{Path: c, Recoverable: true},
	}
	res, err := encode.Run(inputs, 2, dir, "archive", &host.Services{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(b))

	s, err := parset.Load(res.Volumes[0])
	require.NoError(t, err)
	require.NoError(t, s.Classify(&host.Services{}))

	assert.Equal(t, parset.Missing, s.DataFiles[1].Status)

	plan, err := s.Plan()
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, []int{1}, plan.MissingIndices)
	assert.Len(t, plan.ParityIDs, 1)
}
