package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/bumpkit/internal/bump"
	clierrors "github.com/ariel-frischer/bumpkit/internal/errors"
	"github.com/ariel-frischer/bumpkit/internal/lifecycle"
	"github.com/ariel-frischer/bumpkit/internal/release"
)

// execute runs the command tree with args and captures its output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Structure(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "bumpkit", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotEmpty(t, cmd.Example)
	assert.True(t, cmd.SilenceUsage)
	assert.Len(t, cmd.Groups(), 2)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Subset(t, names, []string{"release", "recommend", "changelog", "config", "version"})
}

func TestRootCmd_Flags(t *testing.T) {
	tests := map[string]struct {
		flagName   string
		persistent bool
	}{
		"config":         {flagName: "config", persistent: true},
		"log-level":      {flagName: "log-level", persistent: true},
		"dry-run":        {flagName: "dry-run", persistent: true},
		"release-as":     {flagName: "release-as"},
		"prerelease":     {flagName: "prerelease"},
		"first-release":  {flagName: "first-release"},
		"skip-bump":      {flagName: "skip-bump"},
		"skip-changelog": {flagName: "skip-changelog"},
		"skip-commit":    {flagName: "skip-commit"},
		"skip-tag":       {flagName: "skip-tag"},
		"tag-prefix":     {flagName: "tag-prefix"},
		"infile":         {flagName: "infile"},
		"commit-all":     {flagName: "commit-all"},
	}

	root := NewRootCmd()
	releaseCmd, _, err := root.Find([]string{"release"})
	require.NoError(t, err)

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if tt.persistent {
				assert.NotNil(t, root.PersistentFlags().Lookup(tt.flagName))
				return
			}
			assert.NotNil(t, root.Flags().Lookup(tt.flagName), "root command")
			assert.NotNil(t, releaseCmd.Flags().Lookup(tt.flagName), "release command")
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"nil":                {want: ExitSuccess},
		"exit error":         {err: NewExitError(7), want: 7},
		"argument error":     {err: clierrors.NewArgumentError("bad flag"), want: ExitInvalidArguments},
		"configuration":      {err: clierrors.NewConfigError("bad config"), want: ExitConfigError},
		"prerequisite":       {err: clierrors.NewPrerequisiteError("no repo"), want: ExitConfigError},
		"runtime":            {err: clierrors.NewRuntimeError("failed"), want: ExitRuntimeError},
		"plain error":        {err: errors.New("boom"), want: ExitRuntimeError},
		"wrapped cli error":  {err: fmt.Errorf("context: %w", clierrors.NewArgumentError("x")), want: ExitInvalidArguments},
		"wrapped exit error": {err: fmt.Errorf("context: %w", NewExitError(5)), want: 5},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestToCLIError(t *testing.T) {
	boom := errors.New("boom")
	tests := map[string]struct {
		err          error
		wantCategory clierrors.ErrorCategory
		wantMessage  string
		// wantCause defaults to err
		wantCause    error
	}{
		"conflicting prerelease": {
			err:          bump.ErrConflictingPrerelease,
			wantCategory: clierrors.Argument,
			wantMessage:  "--release-as and --prerelease disagree: " + bump.ErrConflictingPrerelease.Error(),
		},
		"no recommendation": {
			err:          bump.ErrNoRecommendation,
			wantCategory: clierrors.Runtime,
			wantMessage:  "could not decide the next version: no recommendation found",
		},
		"script failure": {
			err:          &lifecycle.ScriptError{Hook: lifecycle.PreBump, Err: boom},
			wantCategory: clierrors.Runtime,
			wantMessage:  "lifecycle script failed: prebump script: boom",
		},
		"git failure": {
			err:          &release.GitError{Op: "tag", Err: boom},
			wantCategory: clierrors.Runtime,
			wantMessage:  "git tag failed: boom",
			wantCause:    boom,
		},
		"already categorized": {
			err:          clierrors.NewConfigError("bad"),
			wantCategory: clierrors.Configuration,
			wantMessage:  "bad",
		},
		"anything else": {
			err:          boom,
			wantCategory: clierrors.Runtime,
			wantMessage:  "boom",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := toCLIError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantMessage, got.Message)
			cause := tt.wantCause
			if cause == nil {
				cause = tt.err
			}
			assert.ErrorIs(t, got, cause)
		})
	}
}

func TestRelease_FlagErrors(t *testing.T) {
	tests := map[string]struct {
		args        []string
		wantMessage string
	}{
		"invalid release-as": {
			args:        []string{"--release-as", "huge"},
			wantMessage: `invalid --release-as value "huge"`,
		},
		"first release with release-as": {
			args:        []string{"release", "--first-release", "--release-as", "2.0.0"},
			wantMessage: "invalid flag combination",
		},
		"unknown flag": {
			args:        []string{"--bogus"},
			wantMessage: "unknown flag: --bogus",
		},
		"positional argument": {
			args:        []string{"release", "extra"},
			wantMessage: "unknown command",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitInvalidArguments, ExitCode(err))
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute(t, "version", "--plain")
	require.NoError(t, err)
	assert.Contains(t, stdout, "bumpkit dev")

	stdout, _, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, SourceURL)
}
