package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/bumpkit/internal/bump"
	"github.com/ariel-frischer/bumpkit/internal/changelog"
)

func newChangelogCmd(g *globalOptions) *cobra.Command {
	var (
		markdown bool
		plain    bool
		o        releaseOptions
	)

	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Preview the release notes for the next release",
		Long: `Preview the release notes built from the commits since the latest version tag.

Nothing is written. The version in the heading is the one a release would
use; pass --release-as or --prerelease to preview a different one.`,
		Example: `  # Colored preview
  bumpkit changelog

  # The markdown that would be prepended to CHANGELOG.md
  bumpkit changelog --markdown

  # Plain output (no colors/icons)
  bumpkit changelog --plain`,
		Args:    noArgs,
		GroupID: GroupRelease,
		RunE: func(cmd *cobra.Command, args []string) error {
			hint := o.hint(cmd)
			if err := hint.Validate(); err != nil {
				return runReleaseError(err, o.releaseAs)
			}

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
			next, err := bump.Resolve(hint, current, func() (*bump.Recommendation, error) {
				return r.Recommend(h, current), nil
			})
			if err != nil {
				return runReleaseError(err, o.releaseAs)
			}

			ctx, err := r.Context(h, next)
			if err != nil {
				return toCLIError(err)
			}

			if markdown {
				return changelog.Render(ctx, cmd.OutOrStdout())
			}
			if err := changelog.FormatTerminal(ctx, cmd.OutOrStdout(), changelog.FormatOptions{Plain: plain}); err != nil {
				return fmt.Errorf("formatting changelog: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print the markdown release notes")
	cmd.Flags().BoolVar(&plain, "plain", false, "Plain text output (no colors/icons)")
	cmd.Flags().StringVarP(&o.releaseAs, "release-as", "r", "", "Preview as major, minor, patch or an exact version")
	cmd.Flags().StringVarP(&o.prerelease, "prerelease", "p", "", "Preview a prerelease with this identifier")
	return cmd
}
