// Package config provides hierarchical configuration management for bumpkit
// using koanf. Values are layered with priority: CLI overrides > environment
// (BUMPKIT_*) > project config (.bumpkit.yml, or a legacy .versionrc.json) >
// user config (~/.config/bumpkit/config.yml) > defaults.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ariel-frischer/bumpkit/internal/changelog"
	"github.com/ariel-frischer/bumpkit/internal/lifecycle"
	"github.com/ariel-frischer/bumpkit/internal/updater"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: BUMPKIT_SKIP__TAG=true sets skip.tag.
const EnvPrefix = "BUMPKIT_"

// Skip turns release steps off.
type Skip struct {
	Bump      bool `koanf:"bump" yaml:"bump"`
	Changelog bool `koanf:"changelog" yaml:"changelog"`
	Commit    bool `koanf:"commit" yaml:"commit"`
	Tag       bool `koanf:"tag" yaml:"tag"`
}

// Configuration represents the bumpkit configuration.
type Configuration struct {
	TagPrefix string `koanf:"tag_prefix" validate:"nowhitespace"`
	Remote    string `koanf:"remote" validate:"required"`
	Infile    string `koanf:"infile" validate:"required"`
	Header    string `koanf:"header"`
	// ReleaseCommitMessageFormat is the release commit message;
	// {{currentTag}} is replaced with the new version.
	ReleaseCommitMessageFormat string `koanf:"release_commit_message_format" validate:"required"`
	CommitAll                  bool   `koanf:"commit_all"`
	// GitTagFallback reads the current version from the latest tag when
	// no package file carries one.
	GitTagFallback bool   `koanf:"git_tag_fallback"`
	DryRun         bool   `koanf:"dry_run"`
	LogLevel       string `koanf:"log_level" validate:"oneof=debug info warn error none"`
	Concurrency    int    `koanf:"concurrency" validate:"min=1,max=64"`

	PackageFiles []updater.Target              `koanf:"package_files" validate:"dive"`
	BumpFiles    []updater.Target              `koanf:"bump_files" validate:"dive"`
	Updaters     map[string]updater.Definition `koanf:"updaters" validate:"dive"`
	Scripts      map[string]string             `koanf:"scripts"`

	Skip      Skip             `koanf:"skip"`
	Changelog changelog.Config `koanf:"changelog"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectDir holds the project config; empty means the current directory.
	ProjectDir string
	// ConfigPath replaces the project config lookup with an explicit file,
	// parsed as JSON when it ends in .json and as YAML otherwise.
	ConfigPath string
	// SkipUserConfig ignores the user-level file.
	SkipUserConfig bool
	// Overrides are applied last, typically from CLI flags.
	Overrides map[string]interface{}
	// WarningWriter receives deprecation warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses deprecation warnings
	SkipWarnings bool
}

// Load loads configuration for the project in dir.
func Load(dir string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectDir: dir})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warn := getWarningWriter(opts.WarningWriter, opts.SkipWarnings)

	loadDefaults(k)

	if !opts.SkipUserConfig {
		if err := loadUserConfig(k); err != nil {
			return nil, err
		}
	}

	if err := loadProjectConfig(k, opts, warn); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	for key, value := range opts.Overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("applying override %s: %w", key, err)
		}
	}

	return finalizeConfig(k)
}

func getWarningWriter(w io.Writer, skip bool) io.Writer {
	if skip {
		return io.Discard
	}
	if w == nil {
		return os.Stderr
	}
	return w
}

func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		_ = k.Set(key, value)
	}
}

func loadUserConfig(k *koanf.Koanf) error {
	path, err := UserConfigPath()
	if err != nil || !fileExists(path) {
		return nil
	}
	if err := loadYAMLConfig(k, path, "user"); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the explicit config file, or .bumpkit.yml, or the
// legacy .versionrc.json, whichever is found first.
func loadProjectConfig(k *koanf.Koanf, opts LoadOptions, warn io.Writer) error {
	if opts.ConfigPath != "" {
		if !fileExists(opts.ConfigPath) {
			return fmt.Errorf("config file not found: %s", opts.ConfigPath)
		}
		if strings.EqualFold(filepath.Ext(opts.ConfigPath), ".json") {
			return loadLegacyJSONConfig(k, opts.ConfigPath, warn)
		}
		return loadYAMLConfig(k, opts.ConfigPath, "project")
	}

	yamlPath := ProjectConfigPath(opts.ProjectDir)
	legacyPath := LegacyProjectConfigPath(opts.ProjectDir)

	switch {
	case fileExists(yamlPath):
		if err := loadYAMLConfig(k, yamlPath, "project"); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		if fileExists(legacyPath) {
			fmt.Fprintf(warn, "Warning: %s found alongside %s (ignored)\n", legacyPath, yamlPath)
		}
	case fileExists(legacyPath):
		if err := loadLegacyJSONConfig(k, legacyPath, warn); err != nil {
			return fmt.Errorf("loading legacy project config: %w", err)
		}
		fmt.Fprintf(warn, "Warning: using legacy config %s\n", legacyPath)
		fmt.Fprintf(warn, "  Run 'bumpkit config migrate' to convert it to %s.\n\n", ProjectConfigName)
	}
	return nil
}

// loadYAMLConfig validates and loads a YAML config file
func loadYAMLConfig(k *koanf.Koanf, path, configType string) error {
	if err := validateYAMLFile(path); err != nil {
		return fmt.Errorf("validating YAML syntax for %s config: %w", configType, err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", configType, path, err)
	}
	return nil
}

// loadLegacyJSONConfig reads a .versionrc.json file and maps its camelCase
// keys onto the current layout.
func loadLegacyJSONConfig(k *koanf.Koanf, path string, warn io.Writer) error {
	legacy := koanf.New("\x00")
	if err := legacy.Load(file.Provider(path), json.Parser()); err != nil {
		return fmt.Errorf("failed to load legacy config %s: %w", path, err)
	}

	translated, ignored := translateLegacy(legacy.Raw())
	for _, key := range ignored {
		fmt.Fprintf(warn, "Warning: %s: option %q is not supported and was ignored\n", path, key)
	}
	for key, value := range translated {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("applying %s from %s: %w", key, path, err)
		}
	}
	return nil
}

func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// envTransform converts environment variable names to config keys.
// Example: BUMPKIT_SKIP__CHANGELOG -> skip.changelog
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Hooks returns the lifecycle scripts keyed by hook.
func (c *Configuration) Hooks() (map[lifecycle.Hook]string, error) {
	return lifecycle.ParseScripts(c.Scripts)
}

// RegisterUpdaters adds the configured custom updaters to reg.
func (c *Configuration) RegisterUpdaters(reg *updater.Registry) {
	for name, def := range c.Updaters {
		reg.Register(name, func() (updater.Updater, error) {
			return def.Build(name)
		})
	}
}

// ReleaseCommitMessage renders the release commit message for a version.
func (c *Configuration) ReleaseCommitMessage(version string) string {
	return changelog.ExpandTemplate(c.ReleaseCommitMessageFormat, map[string]string{
		"currentTag": version,
	})
}
