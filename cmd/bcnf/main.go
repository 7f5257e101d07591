// Command bcnf decomposes relational schemas into Boyce-Codd Normal Form.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/bcnf/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
