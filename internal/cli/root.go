// Package cli implements the bumpkit command line.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ariel-frischer/bumpkit/internal/build"
	"github.com/ariel-frischer/bumpkit/internal/config"
	clierrors "github.com/ariel-frischer/bumpkit/internal/errors"
	"github.com/ariel-frischer/bumpkit/internal/git"
	"github.com/ariel-frischer/bumpkit/internal/logging"
)

// Command groups shown in help output.
const (
	GroupRelease       = "release"
	GroupConfiguration = "configuration"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	logLevel   string
	dryRun     bool
}

// NewRootCmd builds the command tree. Running it without a subcommand
// performs a release.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}
	ro := &releaseOptions{}

	cmd := &cobra.Command{
		Use:   "bumpkit",
		Short: "Bump versions, write changelogs and tag releases from conventional commits",
		Long: `bumpkit cuts a release from the commit history of a git repository.

It reads the commits since the latest version tag, decides the next version
from their conventional commit types, writes that version into the project's
bump files, prepends the release notes to the changelog, then commits and tags.

Configuration is loaded with the following priority (highest to lowest):
  1. Command line flags
  2. Environment variables (BUMPKIT_*)
  3. Project config (.bumpkit.yml, or a legacy .versionrc.json)
  4. User config (~/.config/bumpkit/config.yml)
  5. Built-in defaults`,
		Example: `  # Release the version recommended by the commit history
  bumpkit

  # Preview the release without touching any file
  bumpkit --dry-run

  # Start a beta series for the next minor version
  bumpkit --release-as minor --prerelease beta`,
		Version:       build.Version,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd, g, ro)
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to a config file (default: .bumpkit.yml)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error or none")
	cmd.PersistentFlags().BoolVar(&g.dryRun, "dry-run", false, "Show what would happen without changing anything")
	addReleaseFlags(cmd, ro)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierrors.NewArgumentError(err.Error(), "Run 'bumpkit --help' to see valid flags")
	})

	cmd.AddGroup(
		&cobra.Group{ID: GroupRelease, Title: "Release Commands:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration Commands:"},
	)
	cmd.AddCommand(
		newReleaseCmd(g),
		newRecommendCmd(g),
		newChangelogCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := NewRootCmd()
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		clierrors.FprintError(cmd.ErrOrStderr(), toCLIError(err))
	}
	return ExitCode(toCLIError(err))
}

// session is what every command needs after flag parsing.
type session struct {
	cfg  *config.Configuration
	repo *git.Repo
	log  *zap.Logger
}

// setup loads configuration with the flag overrides, builds the logger and
// opens the repository.
func setup(cmd *cobra.Command, g *globalOptions, overrides map[string]interface{}) (*session, error) {
	if overrides == nil {
		overrides = make(map[string]interface{})
	}
	if g.logLevel != "" {
		overrides["log_level"] = g.logLevel
	}
	if g.dryRun {
		overrides["dry_run"] = true
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigPath:    g.configPath,
		Overrides:     overrides,
		WarningWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			return nil, clierrors.InvalidConfig(err)
		}
		return nil, clierrors.ConfigParseError(configLabel(g.configPath), err)
	}

	log, err := logging.GetLogger(cfg.LogLevel)
	if err != nil {
		return nil, clierrors.InvalidConfig(err)
	}
	git.SetDebugLogger(log.Sugar().Debugf)

	repo, err := git.Open("")
	if err != nil {
		return nil, clierrors.GitNotRepository(err)
	}

	return &session{cfg: cfg, repo: repo, log: log}, nil
}

func configLabel(path string) string {
	if path == "" {
		return config.ProjectConfigName
	}
	return path
}
