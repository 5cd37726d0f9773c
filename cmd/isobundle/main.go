package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/isobundle/internal/cli"
	"github.com/arthur-debert/isobundle/pkg/errors"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		// coded errors were already rendered by the command
		if _, ok := errors.As(err); !ok {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
