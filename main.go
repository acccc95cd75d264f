package main

import (
	"os"

	"github.com/bgdnvk/spendwise/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
