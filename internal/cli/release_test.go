package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/bumpkit/internal/git"
	"github.com/ariel-frischer/bumpkit/internal/testutil"
)

// newProject creates a repository at 1.0.0 with a feature since, and moves
// into it.
func newProject(t *testing.T) string {
	t.Helper()
	r := testutil.NewGitRepo(t)
	r.SetUser("Release Bot", "bot@example.com")
	r.Remote("origin", "https://github.com/acme/widget.git")

	r.Write("package.json", "{\n  \"version\": \"1.0.0\"\n}\n")
	r.Tag("v1.0.0", r.Commit("chore: initial commit", "package.json"))
	r.Commit("feat(api): add pagination")

	testutil.Isolate(t, r.Dir)
	return r.Dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRelease(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := execute(t, "--log-level", "none")
	require.NoError(t, err)

	assert.Contains(t, stdout, "bumping version in package.json from 1.0.0 to 1.1.0")
	assert.Contains(t, stdout, "tagging release v1.1.0")
	assert.Contains(t, readFile(t, filepath.Join(dir, "package.json")), `"version": "1.1.0"`)
	assert.Contains(t, readFile(t, filepath.Join(dir, "CHANGELOG.md")), "**api:** add pagination")

	repo, err := git.Open(dir)
	require.NoError(t, err)
	tags, err := repo.SemverTags("v")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.1.0", "v1.0.0"}, git.TagNames(tags))
}

func TestRelease_DryRun(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := execute(t, "release", "--dry-run", "--log-level", "none", "--release-as", "minor", "--prerelease", "rc")
	require.NoError(t, err)

	assert.Contains(t, stdout, "tagging release v1.1.0-rc.0")
	assert.Contains(t, stdout, "### Features")
	assert.Contains(t, readFile(t, filepath.Join(dir, "package.json")), `"version": "1.0.0"`)
	assert.NoFileExists(t, filepath.Join(dir, "CHANGELOG.md"))
}

func TestRelease_FlagOverrides(t *testing.T) {
	dir := newProject(t)

	_, _, err := execute(t, "--log-level", "none", "--infile", "docs/HISTORY.md", "--skip-tag", "--skip-commit")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "docs", "HISTORY.md"))
	assert.NoFileExists(t, filepath.Join(dir, "CHANGELOG.md"))

	repo, err := git.Open(dir)
	require.NoError(t, err)
	tags, err := repo.SemverTags("v")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.0.0"}, git.TagNames(tags))
}

func TestRelease_NotARepository(t *testing.T) {
	testutil.Isolate(t, t.TempDir())

	_, _, err := execute(t, "--dry-run", "--log-level", "none")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
	assert.Contains(t, err.Error(), "not a git repository")
}

func TestRelease_InvalidConfig(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".bumpkit.yml"), []byte("concurrency: 0\n"), 0o644))

	_, _, err := execute(t, "--dry-run")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
	assert.Contains(t, err.Error(), "concurrency")
}

func TestRecommendCmd(t *testing.T) {
	newProject(t)

	stdout, _, err := execute(t, "recommend", "--plain", "--log-level", "none")
	require.NoError(t, err)
	assert.Equal(t, "minor\n", stdout)

	stdout, _, err = execute(t, "recommend", "--log-level", "none")
	require.NoError(t, err)
	assert.Contains(t, stdout, "There are 0 BREAKING CHANGES and 1 features")
	assert.Contains(t, stdout, "1.1.0")
}

func TestChangelogCmd(t *testing.T) {
	tests := map[string]struct {
		args []string
		want []string
	}{
		"markdown": {
			args: []string{"--markdown"},
			want: []string{"[1.1.0](https://github.com/acme/widget/compare/v1.0.0...v1.1.0)", "### Features"},
		},
		"terminal": {
			args: []string{"--plain"},
			want: []string{"1.1.0", "add pagination"},
		},
		"explicit version": {
			args: []string{"--markdown", "--release-as", "3.0.0"},
			want: []string{"compare/v1.0.0...v3.0.0"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := newProject(t)
			stdout, _, err := execute(t, append([]string{"changelog", "--log-level", "none"}, tt.args...)...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, stdout, w)
			}
			assert.NoFileExists(t, filepath.Join(dir, "CHANGELOG.md"))
		})
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	testutil.Isolate(t, dir)

	stdout, _, err := execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created")
	assert.Contains(t, readFile(t, filepath.Join(dir, ".bumpkit.yml")), "tag_prefix: v")

	stdout, _, err = execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "already exists")
}

func TestConfigMigrate(t *testing.T) {
	dir := t.TempDir()
	testutil.Isolate(t, dir)
	legacy := filepath.Join(dir, ".versionrc.json")
	require.NoError(t, os.WriteFile(legacy, []byte(`{"tagPrefix": "rel-", "silent": true, "preset": "x"}`), 0o644))

	stdout, _, err := execute(t, "config", "migrate", "--remove")
	require.NoError(t, err)

	assert.Contains(t, stdout, "preset is not supported")
	content := readFile(t, filepath.Join(dir, ".bumpkit.yml"))
	assert.Contains(t, content, "tag_prefix: rel-")
	assert.Contains(t, content, "log_level: none")
	assert.NoFileExists(t, legacy)
	assert.FileExists(t, legacy+".bak")
}
