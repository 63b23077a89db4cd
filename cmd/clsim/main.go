// Command clsim runs discrete-event logistics simulation models.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/clsim/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "clsim:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
