// Command squeeze compresses and decompresses files with block-level
// progress reporting.
package main

import (
	"os"

	"github.com/meigma/squeeze/cmd/squeeze/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
