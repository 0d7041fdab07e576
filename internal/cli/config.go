package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/bumpkit/internal/config"
	clierrors "github.com/ariel-frischer/bumpkit/internal/errors"
)

var (
	cGreen  = color.New(color.FgGreen).SprintFunc()
	cYellow = color.New(color.FgYellow).SprintFunc()
	cDim    = color.New(color.Faint).SprintFunc()
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bumpkit configuration",
		Long: `Manage bumpkit configuration files.

Configuration is loaded with the following priority (highest to lowest):
  1. Command line flags
  2. Environment variables (BUMPKIT_*, "__" separates nested keys)
  3. Project config (.bumpkit.yml)
  4. User config (~/.config/bumpkit/config.yml)
  5. Built-in defaults`,
		GroupID: GroupConfiguration,
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigMigrateCmd(g))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var user, force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented config file with the defaults",
		Example: `  # Create .bumpkit.yml in the current directory
  bumpkit config init

  # Create the user-level config instead
  bumpkit config init --user`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ProjectConfigPath("")
			if user {
				p, err := config.UserConfigPath()
				if err != nil {
					return clierrors.Wrap(err, clierrors.Runtime)
				}
				path = p
			}

			out := cmd.OutOrStdout()
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Fprintf(out, "%s %s already exists (use --force to overwrite)\n", cYellow("!"), path)
				return nil
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return clierrors.Wrap(fmt.Errorf("creating config directory: %w", err), clierrors.Runtime)
			}
			if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
				return clierrors.Wrap(fmt.Errorf("writing config: %w", err), clierrors.Runtime)
			}
			fmt.Fprintf(out, "%s Created %s\n", cGreen("✓"), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "Write the user-level config")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigMigrateCmd(g *globalOptions) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Convert a legacy .versionrc.json into .bumpkit.yml",
		Long: `Convert a legacy .versionrc.json into .bumpkit.yml.

camelCase options are renamed, "silent" becomes log_level: none and plain
file names in packageFiles/bumpFiles become file entries. Options bumpkit
does not support are reported and left out.`,
		Example: `  # Show what would be written
  bumpkit config migrate --dry-run

  # Migrate and keep the old file only as a backup
  bumpkit config migrate --remove`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := config.MigrateProjectConfig("", g.dryRun)
			if err != nil {
				return clierrors.ConfigParseError(config.LegacyProjectConfigName, err)
			}

			out := cmd.OutOrStdout()
			if !result.Success {
				fmt.Fprintf(out, "%s %s\n", cYellow("!"), result.Message)
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", cGreen("✓"), result.Message)
			for _, key := range result.Ignored {
				fmt.Fprintf(out, "  %s %s is not supported and was left out\n", cDim("-"), key)
			}

			if remove {
				if err := config.RemoveLegacyConfig(result.SourcePath, g.dryRun); err != nil {
					return clierrors.Wrap(err, clierrors.Runtime)
				}
				fmt.Fprintf(out, "%s Moved %s to %s.bak\n", cGreen("✓"), result.SourcePath, result.SourcePath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "Rename .versionrc.json to .versionrc.json.bak after migrating")
	return cmd
}
