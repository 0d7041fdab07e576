// Package testutil provides test helpers for bumpkit: throwaway git
// repositories and an isolated environment for commands that read user
// configuration.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Epoch is the commit time of the first fixture commit. Each further commit
// is one minute later.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// GitRepo is a repository in a temporary directory.
type GitRepo struct {
	t    *testing.T
	Dir  string
	Repo *gogit.Repository
	n    int
}

// NewGitRepo initializes an empty repository.
func NewGitRepo(t *testing.T) *GitRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("initializing repository: %v", err)
	}
	return &GitRepo{t: t, Dir: dir, Repo: repo}
}

// Signature returns the signature of the next commit.
func (r *GitRepo) Signature() *object.Signature {
	return &object.Signature{
		Name:  "Dev",
		Email: "dev@example.com",
		When:  Epoch.Add(time.Duration(r.n) * time.Minute),
	}
}

// Path joins name onto the repository directory.
func (r *GitRepo) Path(name string) string {
	return filepath.Join(r.Dir, filepath.FromSlash(name))
}

// Write creates or replaces a file, creating parent directories.
func (r *GitRepo) Write(name, content string) {
	r.t.Helper()
	path := r.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("creating directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("writing %s: %v", name, err)
	}
}

// Read returns a file's content.
func (r *GitRepo) Read(name string) string {
	r.t.Helper()
	data, err := os.ReadFile(r.Path(name))
	if err != nil {
		r.t.Fatalf("reading %s: %v", name, err)
	}
	return string(data)
}

// Commit stages files and commits. With no files the commit is empty.
func (r *GitRepo) Commit(message string, files ...string) plumbing.Hash {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	if err != nil {
		r.t.Fatalf("getting worktree: %v", err)
	}
	for _, f := range files {
		if _, err := wt.Add(f); err != nil {
			r.t.Fatalf("staging %s: %v", f, err)
		}
	}
	hash, err := wt.Commit(message, &gogit.CommitOptions{Author: r.Signature(), AllowEmptyCommits: true})
	if err != nil {
		r.t.Fatalf("committing %q: %v", message, err)
	}
	r.n++
	return hash
}

// Tag creates an annotated tag.
func (r *GitRepo) Tag(name string, hash plumbing.Hash) {
	r.t.Helper()
	if _, err := r.Repo.CreateTag(name, hash, &gogit.CreateTagOptions{Message: name, Tagger: r.Signature()}); err != nil {
		r.t.Fatalf("creating tag %s: %v", name, err)
	}
}

// LightweightTag creates a tag without a tag object.
func (r *GitRepo) LightweightTag(name string, hash plumbing.Hash) {
	r.t.Helper()
	if _, err := r.Repo.CreateTag(name, hash, nil); err != nil {
		r.t.Fatalf("creating tag %s: %v", name, err)
	}
}

// Remote adds a remote.
func (r *GitRepo) Remote(name, url string) {
	r.t.Helper()
	if _, err := r.Repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{url}}); err != nil {
		r.t.Fatalf("creating remote %s: %v", name, err)
	}
}

// SetUser writes user.name and user.email to the repository config, for
// code that signs commits from git config.
func (r *GitRepo) SetUser(name, email string) {
	r.t.Helper()
	cfg, err := r.Repo.Config()
	if err != nil {
		r.t.Fatalf("reading config: %v", err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	if err := r.Repo.SetConfig(cfg); err != nil {
		r.t.Fatalf("writing config: %v", err)
	}
}

// HeadMessage returns the message of the HEAD commit.
func (r *GitRepo) HeadMessage() string {
	r.t.Helper()
	head, err := r.Repo.Head()
	if err != nil {
		r.t.Fatalf("reading HEAD: %v", err)
	}
	c, err := r.Repo.CommitObject(head.Hash())
	if err != nil {
		r.t.Fatalf("reading HEAD commit: %v", err)
	}
	return c.Message
}

// Isolate points HOME and XDG_CONFIG_HOME at an empty directory, clears
// BUMPKIT_* variables and changes into dir for the rest of the test. Tests
// that call it cannot run in parallel.
func Isolate(t *testing.T, dir string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "BUMPKIT_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	t.Chdir(dir)
}
