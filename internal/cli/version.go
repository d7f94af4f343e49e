package cli

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"github.com/rshade/sagequery/pkg/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version.GetVersion())
				return
			}
			fmt.Fprintf(out, "sagequery %s\n", version.GetVersion())
			fmt.Fprintf(out, "  commit:  %s\n", version.GetGitCommit())
			fmt.Fprintf(out, "  built:   %s\n", version.GetBuildDate())
			fmt.Fprintf(out, "  go:      %s %s/%s\n", goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	return cmd
}
