package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, content, 0o644))
	return p
}

func TestRunCreateThenVerifySucceeds(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "alpha.txt", []byte("the quick brown fox jumps over the lazy dog"))
	b := writeFile(t, dir, "beta.txt", []byte("pack my box with five dozen liquor jugs now"))

	base := filepath.Join(dir, "archive")
	err := runCreate(base, 100, 25, []string{a, b}, nil)
	require.NoError(t, err)

	err = runVerify(base + ".par")
	assert.NoError(t, err)
}

func TestRunCreateRejectsEmptyInputLists(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "archive")
	err := runCreate(base, 10, 25, nil, nil)
	require.Error(t, err)
	ee, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, 1, ee.Code)
}

func TestRunVerifyReportsExitCodeOneAfterFileLoss(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "alpha.txt", []byte("alpha file content goes here, long enough"))
	b := writeFile(t, dir, "beta.txt", []byte("beta file content also long enough to matter"))
	c := writeFile(t, dir, "gamma.txt", []byte("gamma file content rounds out the set nicely"))

	base := filepath.Join(dir, "archive")
	require.NoError(t, runCreate(base, 67, 25, []string{a, b, c}, nil))

	require.NoError(t, os.Remove(b))

	err := runVerify(base + ".par")
	require.Error(t, err)
	ee, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, 1, ee.Code)
}

func TestRunRepairRestoresMissingFileAndVerifyThenSucceeds(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "alpha.txt", []byte("alpha file content goes here, long enough"))
	b := writeFile(t, dir, "beta.txt", []byte("beta file content also long enough to matter"))
	c := writeFile(t, dir, "gamma.txt", []byte("gamma file content rounds out the set nicely"))

	base := filepath.Join(dir, "archive")
	require.NoError(t, runCreate(base, 67, 25, []string{a, b, c}, nil))

	require.NoError(t, os.Remove(b))

	require.NoError(t, runRepair(base+".par"))

	restored, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, "beta file content also long enough to matter", string(restored))

	assert.NoError(t, runVerify(base+".par"))
}

func TestRunRepairReportsExitCodeTwoWhenUnrecoverable(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "alpha.txt", []byte("alpha file content goes here, long enough"))
	b := writeFile(t, dir, "beta.txt", []byte("beta file content also long enough to matter"))
	c := writeFile(t, dir, "gamma.txt", []byte("gamma file content rounds out the set nicely"))

	base := filepath.Join(dir, "archive")
	require.NoError(t, runCreate(base, 10, 25, []string{a, b, c}, nil))

	require.NoError(t, os.Remove(a))
	require.NoError(t, os.Remove(b))

	err := runRepair(base + ".par")
	require.Error(t, err)
	ee, ok := err.(*ExitError)
	require.True(t, ok)
	assert.Equal(t, 2, ee.Code)
}
