// Command lutgen generates power-of-two stepped lookup tables as C code.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/lutgen/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// ExitErrors have already been reported by the command.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
