// Package cmd wires the parsync CLI: a cobra root command with verify,
// repair, and create subcommands, each returning the exit code
// spec.md §6 mandates.
//
// Grounded on the corpus's per-verb cmd/<verb> package layout
// (cmd/touch, cmd/copyurl), collapsed here into one package since the
// engine has only three verbs, each wired under a shared root command
// the way cmd.Root aggregates subcommands elsewhere in the corpus.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ExitError carries the normative process exit code spec.md §6
// assigns to a CLI verb's outcome, distinct from whether Go considers
// the call an error: a Cancelled or "recoverable but unrepaired"
// outcome is a non-zero exit with no underlying failure to log.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "parsync: non-zero exit"
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Root is the parsync root command.
var Root = &cobra.Command{
	Use:           "parsync",
	Short:         "PAR v1.0 parity archive engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	Root.AddCommand(verifyCmd, repairCmd, createCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := Root.Execute(); err != nil {
		if ee, ok := err.(*ExitError); ok {
			if ee.Err != nil {
				logrus.Error(ee.Err)
			}
			return ee.Code
		}
		logrus.Error(err)
		return 3
	}
	return 0
}
