package errors

import "fmt"

// Common error messages for bumpkit. Each one names the failing input and
// tells the user how to get past it.

// InvalidReleaseAs is returned for a --release-as value that is not a level
// or a version.
func InvalidReleaseAs(err error, value string) *CLIError {
	e := WrapWithMessage(err, Argument,
		fmt.Sprintf("invalid --release-as value %q", value),
		"Use one of: major, minor, patch",
		"Or give an exact version, e.g. --release-as 2.0.0",
	)
	e.Usage = "bumpkit --release-as <major|minor|patch|version>"
	return e
}

// ConflictingPrerelease is returned when --release-as names a prerelease
// series other than --prerelease.
func ConflictingPrerelease(err error) *CLIError {
	return WrapWithMessage(err, Argument,
		"--release-as and --prerelease disagree",
		"Drop the prerelease part from --release-as, e.g. --release-as 2.0.0 --prerelease beta",
		"Or pass the same identifier to both flags",
	)
}

// NoRecommendation is returned when no bump level could be derived.
func NoRecommendation(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"could not decide the next version",
		"Pass --release-as major|minor|patch",
		"Check that commits since the last tag follow the conventional commits format",
	)
}

// NoCurrentVersion is returned when --first-release was not given and no
// bump file or tag holds a version.
func NoCurrentVersion(files []string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("no current version found in %v or in git tags", files),
		"Add a version to one of the bump files",
		"Or run with --first-release to release the current version as is",
	)
}

// LifecycleScriptFailed is returned when a user script exits with an error.
func LifecycleScriptFailed(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"lifecycle script failed",
		"Run the script by hand to see its full output",
		"Or remove it from the scripts section of .bumpkit.yml",
	)
}

// ConfigParseError creates an error for a configuration file that cannot be
// read.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the file for YAML or JSON syntax errors",
		"Run with --config to point at a different file",
	)
}

// InvalidConfig creates an error for a configuration that parsed but failed
// validation.
func InvalidConfig(err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		"invalid configuration",
		"Fix the fields named above in .bumpkit.yml",
		"Environment overrides use the BUMPKIT_ prefix, e.g. BUMPKIT_TAG_PREFIX",
	)
}

// InvalidFlagCombination creates an error for incompatible flag combinations.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
		"Use 'bumpkit --help' to see valid options",
	)
}

// GitNotRepository creates an error when not in a git repository.
func GitNotRepository(err error) *CLIError {
	return WrapWithMessage(err, Prerequisite,
		"not a git repository",
		"Initialize with: git init",
		"Or run bumpkit from inside an existing repository",
	)
}

// GitOperationFailed creates an error for a failed commit or tag.
func GitOperationFailed(op string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("git %s failed", op),
		"Check that user.name and user.email are set: git config user.email",
		"Use --skip-commit or --skip-tag to leave this step to another tool",
	)
}
