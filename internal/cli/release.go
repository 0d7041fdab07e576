package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/bumpkit/internal/bump"
	clierrors "github.com/ariel-frischer/bumpkit/internal/errors"
	"github.com/ariel-frischer/bumpkit/internal/lifecycle"
	"github.com/ariel-frischer/bumpkit/internal/release"
	"github.com/ariel-frischer/bumpkit/internal/updater"
)

// releaseOptions holds the flags shared by the root and release commands.
type releaseOptions struct {
	releaseAs     string
	prerelease    string
	firstRelease  bool
	skipBump      bool
	skipChangelog bool
	skipCommit    bool
	skipTag       bool
	tagPrefix     string
	infile        string
	commitAll     bool
}

func addReleaseFlags(cmd *cobra.Command, o *releaseOptions) {
	f := cmd.Flags()
	f.StringVarP(&o.releaseAs, "release-as", "r", "", "Release as major, minor, patch or an exact version")
	f.StringVarP(&o.prerelease, "prerelease", "p", "", `Make a prerelease with this identifier (use "" for none)`)
	f.BoolVarP(&o.firstRelease, "first-release", "f", false, "Release the current version without bumping it")
	f.BoolVar(&o.skipBump, "skip-bump", false, "Do not bump the version")
	f.BoolVar(&o.skipChangelog, "skip-changelog", false, "Do not write the changelog")
	f.BoolVar(&o.skipCommit, "skip-commit", false, "Do not commit")
	f.BoolVar(&o.skipTag, "skip-tag", false, "Do not tag")
	f.StringVarP(&o.tagPrefix, "tag-prefix", "t", "", "Prefix of version tags (default: v)")
	f.StringVarP(&o.infile, "infile", "i", "", "Changelog file (default: CHANGELOG.md)")
	f.BoolVarP(&o.commitAll, "commit-all", "a", false, "Commit all staged and tracked changes, not just bumped files")
}

// hint builds the release hint. The prerelease identifier is only set when
// the flag was given, so --prerelease "" starts an unnamed series.
func (o *releaseOptions) hint(cmd *cobra.Command) bump.Hint {
	h := bump.Hint{ReleaseAs: o.releaseAs}
	if cmd.Flags().Changed("prerelease") {
		id := o.prerelease
		h.Prerelease = &id
	}
	return h
}

// overrides maps the flags that were given onto config keys.
func (o *releaseOptions) overrides(cmd *cobra.Command) map[string]interface{} {
	out := make(map[string]interface{})
	flags := cmd.Flags()
	if flags.Changed("tag-prefix") {
		out["tag_prefix"] = o.tagPrefix
	}
	if flags.Changed("infile") {
		out["infile"] = o.infile
	}
	if o.commitAll {
		out["commit_all"] = true
	}
	for key, skip := range map[string]bool{
		"skip.bump":      o.skipBump,
		"skip.changelog": o.skipChangelog,
		"skip.commit":    o.skipCommit,
		"skip.tag":       o.skipTag,
	} {
		if skip {
			out[key] = true
		}
	}
	return out
}

func (o *releaseOptions) validate(cmd *cobra.Command) error {
	if o.firstRelease && o.releaseAs != "" {
		return clierrors.InvalidFlagCombination("--first-release with --release-as",
			"A first release keeps the version found in the bump files")
	}
	if err := o.hint(cmd).Validate(); err != nil {
		return clierrors.InvalidReleaseAs(err, o.releaseAs)
	}
	return nil
}

func newReleaseCmd(g *globalOptions) *cobra.Command {
	o := &releaseOptions{}
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Bump, write the changelog, commit and tag (default command)",
		Long: `Cut a release.

Steps, each with optional lifecycle scripts around it:
  1. bump       write the new version into the bump files
  2. changelog  prepend the release notes to the changelog
  3. commit     commit the changelog and bumped files
  4. tag        create an annotated tag for the new version

Scripts are configured under "scripts" in .bumpkit.yml, keyed by hook:
prerelease, prebump, postbump, prechangelog, postchangelog, precommit,
postcommit, pretag and posttag. A prebump script that prints a version
overrides --release-as.`,
		Example: `  # Release with the recommended bump
  bumpkit release

  # Force a major release
  bumpkit release --release-as major

  # Continue a release candidate series
  bumpkit release --prerelease rc

  # Tag the current version as the first release
  bumpkit release --first-release`,
		Args:    noArgs,
		GroupID: GroupRelease,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, g, o)
		},
	}
	addReleaseFlags(cmd, o)
	return cmd
}

func runRelease(cmd *cobra.Command, g *globalOptions, o *releaseOptions) error {
	if err := o.validate(cmd); err != nil {
		return err
	}

	s, err := setup(cmd, g, o.overrides(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = s.log.Sync() }()

	r, err := s.releaser(cmd)
	if err != nil {
		return err
	}

	_, err = r.Run(cmd.Context(), release.Options{
		Hint:         o.hint(cmd),
		FirstRelease: o.firstRelease,
	})
	if errors.Is(err, release.ErrNoCurrentVersion) {
		return clierrors.NoCurrentVersion(targetNames(s.cfg.PackageFiles))
	}
	return runReleaseError(err, o.releaseAs)
}

// runReleaseError is toCLIError with the --release-as value for messages.
func runReleaseError(err error, releaseAs string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bump.ErrInvalidReleaseHint) {
		return clierrors.InvalidReleaseAs(err, releaseAs)
	}
	return toCLIError(err)
}

// releaser builds a Releaser for the current directory.
func (s *session) releaser(cmd *cobra.Command) (*release.Releaser, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, clierrors.Wrap(err, clierrors.Runtime)
	}
	return &release.Releaser{
		Config: s.cfg,
		Repo:   s.repo,
		Dir:    dir,
		Logger: s.log,
		Out:    cmd.OutOrStdout(),
	}, nil
}

// toCLIError attaches a category and remediation to err.
func toCLIError(err error) *clierrors.CLIError {
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		return cliErr
	}

	var (
		scriptErr *lifecycle.ScriptError
		gitErr    *release.GitError
	)
	switch {
	case errors.Is(err, bump.ErrConflictingPrerelease):
		return clierrors.ConflictingPrerelease(err)
	case errors.Is(err, bump.ErrNoRecommendation):
		return clierrors.NoRecommendation(err)
	case errors.As(err, &scriptErr):
		return clierrors.LifecycleScriptFailed(err)
	case errors.As(err, &gitErr):
		return clierrors.GitOperationFailed(gitErr.Op, gitErr.Err)
	}
	return clierrors.Wrap(err, clierrors.Runtime)
}

func targetNames(targets []updater.Target) []string {
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.Filename
	}
	return names
}

// noArgs rejects positional arguments as an argument error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return clierrors.NewArgumentError(err.Error())
	}
	return nil
}
