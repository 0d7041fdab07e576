// Package release runs a complete release: bump, changelog, commit and tag.
// It coordinates the domain packages the same way for the CLI's release,
// recommend and changelog commands; each step honors the configured skip
// flags and dry-run mode.
package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ariel-frischer/bumpkit/internal/bump"
	"github.com/ariel-frischer/bumpkit/internal/bumpfiles"
	"github.com/ariel-frischer/bumpkit/internal/changelog"
	"github.com/ariel-frischer/bumpkit/internal/config"
	"github.com/ariel-frischer/bumpkit/internal/conventional"
	"github.com/ariel-frischer/bumpkit/internal/git"
	"github.com/ariel-frischer/bumpkit/internal/lifecycle"
	"github.com/ariel-frischer/bumpkit/internal/updater"
)

// FallbackVersion is the current version assumed when neither a package
// file nor a tag carries one.
const FallbackVersion = "1.0.0"

// ErrNoCurrentVersion is returned when no package file carries a version
// and the tag fallback is disabled.
var ErrNoCurrentVersion = errors.New("no current version found")

// GitError reports a failed commit or tag.
type GitError struct {
	Op  string
	Err error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s: %v", e.Op, e.Err)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// Releaser holds everything a release needs. Config and Repo are required.
type Releaser struct {
	Config *config.Configuration
	Repo   *git.Repo
	// Dir is the project directory; empty means the repository root.
	Dir string
	// Fs defaults to the OS filesystem.
	Fs     afero.Fs
	Logger *zap.Logger
	// Out receives progress lines and, in dry-run mode, the changelog.
	Out io.Writer
	// Now defaults to time.Now.
	Now func() time.Time
	// Author signs the release commit and tag; nil uses the git config.
	Author *object.Signature
	// Scripts overrides the configured lifecycle scripts.
	Scripts bump.Scripts
}

// Options are the per-run inputs.
type Options struct {
	Hint bump.Hint
	// FirstRelease keeps the current version and only writes the changelog,
	// commit and tag.
	FirstRelease bool
}

// Result reports what a release did.
type Result struct {
	Previous  string
	Version   string
	Tag       string
	Changelog string
	Files     []string
	Commit    string
	Branch    string
}

// History is the part of the repository a release looks at.
type History struct {
	Tags    []git.Tag
	Commits []changelog.Commit
}

// LatestTag returns the highest version tag, if any.
func (h *History) LatestTag() (git.Tag, bool) {
	if len(h.Tags) == 0 {
		return git.Tag{}, false
	}
	return h.Tags[0], true
}

func (r *Releaser) fs() afero.Fs {
	if r.Fs == nil {
		r.Fs = afero.NewOsFs()
	}
	return r.Fs
}

func (r *Releaser) log() *zap.Logger {
	if r.Logger == nil {
		r.Logger = zap.NewNop()
	}
	return r.Logger
}

func (r *Releaser) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

func (r *Releaser) dir() string {
	if r.Dir == "" {
		return r.Repo.Root()
	}
	return r.Dir
}

func (r *Releaser) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Releaser) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.dir(), name)
}

// History reads version tags and the parsed commits since the latest one,
// newest first.
func (r *Releaser) History() (*History, error) {
	tags, err := r.Repo.SemverTags(r.Config.TagPrefix)
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}

	var since plumbing.Hash
	if len(tags) > 0 {
		since = tags[0].Commit
	}
	raw, err := r.Repo.CommitsSince(since)
	if err != nil {
		return nil, fmt.Errorf("reading commits: %w", err)
	}

	parser := conventional.New(conventional.Options{IssuePrefixes: r.Config.Changelog.IssuePrefixes})
	commits := make([]changelog.Commit, 0, len(raw))
	for _, rc := range raw {
		c := parser.Parse(rc.Message)
		c.Hash = rc.Hash
		c.GitTags = rc.Decorations
		commits = append(commits, c)
	}

	r.log().Debug("read history", zap.Int("tags", len(tags)), zap.Int("commits", len(commits)))
	return &History{Tags: tags, Commits: commits}, nil
}

// Registry returns an updater registry with the configured custom updaters.
func (r *Releaser) Registry() *updater.Registry {
	reg := updater.NewRegistry(r.fs())
	r.Config.RegisterUpdaters(reg)
	return reg
}

// CurrentVersion reads the version from the first package file that
// carries one. Without such a file it falls back to the latest tag, then to
// FallbackVersion, when git_tag_fallback is enabled.
func (r *Releaser) CurrentVersion(h *History) (string, error) {
	reg := r.Registry()
	for _, target := range r.Config.PackageFiles {
		resolved, err := reg.Resolve(target)
		if err != nil {
			r.log().Debug("skipping package file", zap.String("file", target.Filename), zap.Error(err))
			continue
		}
		content, err := afero.ReadFile(r.fs(), r.path(target.Filename))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", target.Filename, err)
		}
		version, err := resolved.Updater.ReadVersion(string(content))
		if err != nil {
			r.log().Debug("no version in package file", zap.String("file", target.Filename), zap.Error(err))
			continue
		}
		return version, nil
	}

	if !r.Config.GitTagFallback {
		return "", ErrNoCurrentVersion
	}
	if tag, ok := h.LatestTag(); ok {
		return tag.Version.String(), nil
	}
	return FallbackVersion, nil
}

// Recommend suggests a bump level from the history.
func (r *Releaser) Recommend(h *History, current string) *bump.Recommendation {
	return bump.Recommend(h.Commits, bump.IsPreMajor(current))
}

// Context builds the changelog context for a release of version.
func (r *Releaser) Context(h *History, version string) (*changelog.Context, error) {
	prior := changelog.Context{
		Version:       version,
		Date:          r.now().Format("2006-01-02"),
		NewTag:        r.Config.TagPrefix + version,
		GitSemverTags: git.TagNames(h.Tags),
	}

	if remote, err := r.Repo.Remote(r.Config.Remote); err == nil {
		prior.Host = remote.Host
		prior.Owner = remote.Owner
		prior.Repository = remote.Repository
	} else {
		r.log().Debug("changelog links disabled", zap.String("remote", r.Config.Remote), zap.Error(err))
	}

	return changelog.BuildContext(h.Commits, r.Config.Changelog, prior)
}

func (r *Releaser) scripts() (bump.Scripts, error) {
	if r.Scripts != nil {
		return r.Scripts, nil
	}
	hooks, err := r.Config.Hooks()
	if err != nil {
		return nil, err
	}
	return &lifecycle.Runner{
		Scripts: hooks,
		Dir:     r.dir(),
		Logger:  r.log(),
		DryRun:  r.Config.DryRun,
	}, nil
}

// Run performs the release.
func (r *Releaser) Run(ctx context.Context, opts Options) (*Result, error) {
	scripts, err := r.scripts()
	if err != nil {
		return nil, err
	}

	h, err := r.History()
	if err != nil {
		return nil, err
	}
	current, err := r.CurrentVersion(h)
	if err != nil {
		return nil, err
	}

	ignore, err := r.Repo.IgnoreMatcher()
	if err != nil {
		return nil, fmt.Errorf("reading ignore rules: %w", err)
	}
	files := bumpfiles.New(bumpfiles.Options{
		Fs:          r.fs(),
		Registry:    r.Registry(),
		Ignore:      ignore,
		Logger:      r.log(),
		Dir:         r.dir(),
		DryRun:      r.Config.DryRun,
		Concurrency: r.Config.Concurrency,
	})

	bumper := bump.NewBumper(scripts, files, r.log())
	outcome, err := bumper.Bump(ctx, bump.Request{
		Hint:    opts.Hint,
		Current: current,
		Targets: r.Config.BumpFiles,
		Recommend: func() (*bump.Recommendation, error) {
			return r.Recommend(h, current), nil
		},
		Skip: r.Config.Skip.Bump || opts.FirstRelease,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		Previous: current,
		Version:  outcome.Version,
		Tag:      r.Config.TagPrefix + outcome.Version,
		Files:    outcome.Files.Files(),
	}
	for _, f := range res.Files {
		fmt.Fprintf(r.out(), "✔ bumping version in %s from %s to %s\n", f, current, res.Version)
	}

	if err := r.writeChangelog(ctx, scripts, h, res); err != nil {
		return nil, err
	}
	if err := r.commit(ctx, scripts, res); err != nil {
		return nil, err
	}
	if err := r.tag(ctx, scripts, res); err != nil {
		return nil, err
	}
	return res, nil
}

func runHook(ctx context.Context, scripts bump.Scripts, hook lifecycle.Hook) error {
	if _, err := scripts.Run(ctx, hook); err != nil {
		return &lifecycle.ScriptError{Hook: hook, Err: err}
	}
	return nil
}

func (r *Releaser) writeChangelog(ctx context.Context, scripts bump.Scripts, h *History, res *Result) error {
	if r.Config.Skip.Changelog {
		return nil
	}
	if err := runHook(ctx, scripts, lifecycle.PreChangelog); err != nil {
		return err
	}

	cctx, err := r.Context(h, res.Version)
	if err != nil {
		return fmt.Errorf("building changelog: %w", err)
	}
	release, err := changelog.RenderString(cctx)
	if err != nil {
		return err
	}
	res.Changelog = release

	fmt.Fprintf(r.out(), "✔ outputting changes to %s\n", r.Config.Infile)
	if r.Config.DryRun {
		fmt.Fprintf(r.out(), "\n---\n%s---\n\n", release)
	} else if err := changelog.Prepend(r.fs(), r.path(r.Config.Infile), r.Config.Header, release); err != nil {
		return err
	}

	return runHook(ctx, scripts, lifecycle.PostChangelog)
}

func (r *Releaser) commit(ctx context.Context, scripts bump.Scripts, res *Result) error {
	if r.Config.Skip.Commit {
		return nil
	}
	if err := runHook(ctx, scripts, lifecycle.PreCommit); err != nil {
		return err
	}

	var paths []string
	if !r.Config.Skip.Changelog {
		paths = append(paths, r.path(r.Config.Infile))
	}
	for _, f := range res.Files {
		paths = append(paths, r.path(f))
	}

	msg := r.Config.ReleaseCommitMessage(res.Version)
	fmt.Fprintf(r.out(), "✔ committing %d file(s)\n", len(paths))
	if !r.Config.DryRun {
		if len(paths) == 0 && !r.Config.CommitAll {
			r.log().Info("nothing to commit")
		} else {
			hash, err := r.Repo.Commit(git.CommitOptions{
				Message: msg,
				Files:   paths,
				All:     r.Config.CommitAll,
				Author:  r.Author,
			})
			if err != nil {
				return &GitError{Op: "commit", Err: err}
			}
			res.Commit = hash
		}
	}

	return runHook(ctx, scripts, lifecycle.PostCommit)
}

func (r *Releaser) tag(ctx context.Context, scripts bump.Scripts, res *Result) error {
	if r.Config.Skip.Tag {
		return nil
	}
	if err := runHook(ctx, scripts, lifecycle.PreTag); err != nil {
		return err
	}

	fmt.Fprintf(r.out(), "✔ tagging release %s\n", res.Tag)
	if !r.Config.DryRun {
		if err := r.Repo.CreateTag(res.Tag, r.Config.ReleaseCommitMessage(res.Version), r.Author); err != nil {
			return &GitError{Op: "tag", Err: err}
		}
	}

	branch, err := r.Repo.CurrentBranch()
	if err != nil {
		r.log().Debug("no current branch", zap.Error(err))
	}
	res.Branch = branch

	if err := runHook(ctx, scripts, lifecycle.PostTag); err != nil {
		return err
	}

	if branch != "" {
		fmt.Fprintf(r.out(), "ℹ Run `git push --follow-tags %s %s` to publish\n", r.Config.Remote, branch)
	}
	return nil
}
