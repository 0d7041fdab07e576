package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/bumpkit/internal/bump"
)

func newRecommendCmd(g *globalOptions) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Show the bump recommended by the commits since the last release",
		Long: `Show the bump level recommended by the commits since the latest version tag.

Breaking changes call for a major bump, features for a minor one and
anything else for a patch. Below 1.0.0 the recommendation drops one level.`,
		Example: `  # Show the recommendation and the next version
  bumpkit recommend

  # Print only the level, for scripts
  bumpkit recommend --plain`,
		Args:    noArgs,
		GroupID: GroupRelease,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := setup(cmd, g, nil)
			if err != nil {
				return err
			}
			r, err := s.releaser(cmd)
			if err != nil {
				return err
			}

			h, err := r.History()
			if err != nil {
				return toCLIError(err)
			}
			current, err := r.CurrentVersion(h)
			if err != nil {
				return toCLIError(err)
			}
			rec := r.Recommend(h, current)

			out := cmd.OutOrStdout()
			if plain {
				fmt.Fprintln(out, rec.ReleaseType)
				return nil
			}

			next, err := bump.Resolve(bump.Hint{}, current, func() (*bump.Recommendation, error) {
				return rec, nil
			})
			if err != nil {
				return toCLIError(err)
			}
			bold := color.New(color.Bold).SprintFunc()
			fmt.Fprintf(out, "Recommended bump: %s\n", bold(rec.ReleaseType))
			fmt.Fprintf(out, "Reason:           %s\n", rec.Reason)
			fmt.Fprintf(out, "Next version:     %s -> %s\n", current, bold(next))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print only the bump level")
	return cmd
}
