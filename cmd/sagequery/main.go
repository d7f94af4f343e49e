// Command sagequery runs SPARQL queries against SaGe servers and pages through
// the results.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rshade/sagequery/internal/cli"
	"github.com/rshade/sagequery/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	err := root.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return extractExitCode(err)
}

// extractExitCode maps a command error to the process exit code.
func extractExitCode(err error) int {
	return cli.ExitCode(err)
}
