// oparlsync is the CLI surface for the sync engine (§6.4): register
// sources, run syncs, check status, and serve the operator dashboard.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
