// Command stager is the CLI for the stager version ledger.
package main

import (
	"os"

	"github.com/mesh-intelligence/stager/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
