package main

import (
	"os"

	"github.com/quantfold/confluence/cmd/trader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
