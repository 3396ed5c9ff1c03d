// Package main provides the finsight CLI.
package main

import (
	"os"

	"github.com/finstack-labs/finsight/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
