// main is the entry point for the driftwatch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/driftwatch/driftwatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
