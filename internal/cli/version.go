package cli

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/bumpkit/internal/build"
)

// SourceURL is the project source URL
const SourceURL = "https://github.com/ariel-frischer/bumpkit"

func newVersionCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Display version information (v)",
		Long:    "Display version, commit, build date, and Go version information for bumpkit",
		Example: `  # Show version info
  bumpkit version

  # Plain output (for scripts)
  bumpkit version --plain`,
		Args:    noArgs,
		GroupID: GroupConfiguration,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if plain {
				fmt.Fprintln(out, build.Info())
				return
			}

			label := color.New(color.FgCyan).SprintFunc()
			bold := color.New(color.Bold).SprintFunc()
			fmt.Fprintf(out, "%s %s\n", bold("bumpkit"), build.Version)
			if build.IsDevBuild() {
				fmt.Fprintf(out, "  %s\n", color.New(color.FgYellow).Sprint("development build"))
			}
			fmt.Fprintf(out, "  %s  %s\n", label("commit:  "), build.Commit)
			fmt.Fprintf(out, "  %s  %s\n", label("built:   "), build.BuildDate)
			fmt.Fprintf(out, "  %s  %s\n", label("go:      "), runtime.Version())
			fmt.Fprintf(out, "  %s  %s/%s\n", label("platform:"), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "  %s  %s\n", label("source:  "), SourceURL)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Plain output without formatting")
	return cmd
}
