// Command parsync is the PAR v1.0 parity archive engine's CLI
// (spec.md §6): create, verify, and repair subcommands over cobra.
package main

import (
	"os"

	"github.com/nettlep/parsync/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
