package decode_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nettlep/parsync/par/decode"
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

func TestRunReconstructsOneMissingFile(t *testing.T) {
	dir := t.TempDir()
	contentA := []byte("alpha file content goes here, long enough to span a block")
	contentB := []byte("beta file content also long enough to matter for this test")
	contentC := []byte("gamma file content rounds out the recoverable set nicely!!")

	a := writeFile(t, dir, "alpha.txt", contentA)
	b := writeFile(t, dir, "beta.txt", contentB)
	c := writeFile(t, dir, "gamma.txt", contentC)

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
	require.Equal(t, parset.Missing, s.DataFiles[1].Status)

	plan, err := s.Plan()
	require.NoError(t, err)
	require.NotNil(t, plan)

	require.NoError(t, decode.Run(s, plan, &host.Services{}, -1))

	got, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, contentB, got)

	require.NoError(t, s.Classify(&host.Services{}))
	assert.Equal(t, parset.Valid, s.DataFiles[1].Status)
}

func TestRunSingleFileRepairWritesOnlyTheRequestedFile(t *testing.T) {
	dir := t.TempDir()
	contentA := []byte("alpha file content goes here, long enough to span a block")
	contentB := []byte("beta file content also long enough to matter for this test")
	contentC := []byte("gamma file content rounds out the recoverable set nicely!!")

	a := writeFile(t, dir, "alpha.txt", contentA)
	b := writeFile(t, dir, "beta.txt", contentB)
	c := writeFile(t, dir, "gamma.txt", contentC)

	inputs := []encode.FileInput{
		{Path: a, Recoverable: true},
		{Path: b, Recoverable: true},
		{Path: c, Recoverable: true},
	}
	res, err := encode.Run(inputs, 2, dir, "archive", &host.Services{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(a))
	require.NoError(t, os.Remove(c))

	s, err := parset.Load(res.Volumes[0])
	require.NoError(t, err)
	require.NoError(t, s.Classify(&host.Services{}))

	plan, err := s.Plan()
	require.NoError(t, err)
	require.NotNil(t, plan)
	require.Len(t, plan.MissingIndices, 2)

	require.NoError(t, decode.Run(s, plan, &host.Services{}, 0))

	got, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, contentA, got)

	_, err = os.Stat(c)
	assert.True(t, os.IsNotExist(err), "single-file repair must not write the other missing file")
}
