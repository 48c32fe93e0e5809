package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/nettlep/parsync/par/encode"
	"github.com/nettlep/parsync/par/host"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	createRatio      int
	createMemory     int
	recoverableFiles []string
	storedFiles      []string
)

func init() {
	createCmd.Flags().IntVar(&createRatio, "ratio", 10,
		"parity volume count as a percentage of the recoverable file count, rounded up, minimum 1")
	createCmd.Flags().IntVar(&createMemory, "memory", 25,
		"working-memory budget, shared by one buffer per volume, as a percentage of the assumed available memory")
	createCmd.Flags().StringArrayVarP(&recoverableFiles, "recover", "r", nil,
		"a recoverable data file (repeatable)")
	createCmd.Flags().StringArrayVarP(&storedFiles, "stored", "n", nil,
		"a non-recoverable stored file, catalogued but not protected (repeatable)")
}

var createCmd = &cobra.Command{
	Use:   "create <base-path>",
	Short: "Build a PAR v1.0 set from a list of recoverable and stored files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreate(args[0], createRatio, createMemory, recoverableFiles, storedFiles)
	},
}

// assumedAvailableMemory stands in for the Win32 GlobalMemoryStatus
// figure original_source/source/CreateParityDialog.cpp reads; this
// module takes an injected figure instead (spec.md §9's
// module-level-state redesign flag), so --memory scales this
// constant rather than an OS query.
const assumedAvailableMemory = 256 * 1024 * 1024

// runCreate implements spec.md §6's create verb: 0 on success,
// non-zero on error. ratio and memoryPercent follow
// original_source/source/CreateParityDialog.cpp's percentage-based
// parameters (spec.md §5.L).
func runCreate(basePath string, ratio, memoryPercent int, recoverable, stored []string) error {
	if len(recoverable)+len(stored) == 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("create: no input files given (-r/-n)")}
	}

	m := (len(recoverable)*ratio + 99) / 100
	if m < 1 {
		m = 1
	}
	if m > len(recoverable) {
		m = len(recoverable)
	}

	var mem uint64
	if memoryPercent > 0 {
		mem = uint64(memoryPercent) * assumedAvailableMemory / 100
	}

	inputs := make([]encode.FileInput, 0, len(recoverable)+len(stored))
	for _, p := range recoverable {
		inputs = append(inputs, encode.FileInput{Path: p, Recoverable: true})
	}
	for _, p := range stored {
		inputs = append(inputs, encode.FileInput{Path: p, Recoverable: false})
	}

	outDir := filepath.Dir(basePath)
	baseName := filepath.Base(basePath)
	svc := &host.Services{Log: logrus.StandardLogger(), WorkingMemoryBytes: mem}

	res, err := encode.Run(inputs, m, outDir, baseName, svc)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	logrus.Infof("create: wrote %d volume(s) for set_hash %x", len(res.Volumes), res.SetHash[:4])
	return nil
}
