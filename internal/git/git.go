// Package git reads release history from a repository and records releases
// in it: semver tags, the commits since the last one, the origin remote, the
// .gitignore rules, and the release commit and tag. Everything goes through
// go-git; the git binary is never invoked.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/ariel-frischer/bumpkit/internal/semver"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// ErrNoRemote is returned when the requested remote is not configured.
var ErrNoRemote = errors.New("remote not configured")

// Repo is an opened repository with a worktree.
type Repo struct {
	repo *git.Repository
	root string
}

// Open opens the repository containing path, walking up to find the .git
// directory. An empty path means the current directory.
func Open(path string) (*Repo, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	root := wt.Filesystem.Root()
	logDebug("[git] repository root: %s", root)
	return &Repo{repo: repo, root: root}, nil
}

// IsRepository reports whether path is inside a git repository.
func IsRepository(path string) bool {
	_, err := Open(path)
	return err == nil
}

// Root returns the absolute path of the worktree.
func (r *Repo) Root() string {
	return r.root
}

// CurrentBranch returns the checked out branch, or "" on a detached HEAD.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		logDebug("[git] CurrentBranch: detached HEAD state")
		return "", nil
	}
	return head.Name().Short(), nil
}

// Tag is a tag whose name, minus the tag prefix, is a semantic version.
type Tag struct {
	Name    string
	Version *semver.Version
	// Commit is the tagged commit, with annotated tags peeled.
	Commit plumbing.Hash
}

// SemverTags returns the tags named prefix+version, highest version first.
func (r *Repo) SemverTags(prefix string) ([]Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	var tags []Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		raw := strings.TrimPrefix(name, prefix)
		if strings.HasPrefix(raw, "=") {
			return nil
		}
		v, err := semver.Parse(raw)
		if err != nil {
			return nil
		}
		commit, err := r.peel(ref)
		if err != nil {
			return err
		}
		tags = append(tags, Tag{Name: name, Version: v, Commit: commit})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}

	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Version.GreaterThan(tags[j].Version)
	})
	logDebug("[git] SemverTags(%q): found %d tags", prefix, len(tags))
	return tags, nil
}

// TagNames returns the names of tags in order.
func TagNames(tags []Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

// peel resolves a tag reference to the commit it points at.
func (r *Repo) peel(ref *plumbing.Reference) (plumbing.Hash, error) {
	obj, err := r.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		c, err := obj.Commit()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("peeling tag %s: %w", ref.Name().Short(), err)
		}
		return c.Hash, nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return ref.Hash(), nil
	default:
		return plumbing.ZeroHash, fmt.Errorf("reading tag %s: %w", ref.Name().Short(), err)
	}
}

// RawCommit is a commit as read from history, before message parsing.
type RawCommit struct {
	Hash    string
	Message string
	// Decorations lists the tags pointing at the commit, formatted like
	// "(tag: v1.0.0, tag: stable)". Empty when untagged.
	Decorations string
}

// CommitsSince returns the commits reachable from HEAD but not from since,
// newest first. A zero since returns the whole history. An unborn HEAD
// yields no commits.
func (r *Repo) CommitsSince(since plumbing.Hash) ([]RawCommit, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		logDebug("[git] CommitsSince: no commits yet")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting HEAD reference: %w", err)
	}

	exclude := make(map[plumbing.Hash]bool)
	if !since.IsZero() {
		if err := r.walk(since, func(c *object.Commit) error {
			exclude[c.Hash] = true
			return nil
		}); err != nil {
			return nil, fmt.Errorf("walking history of %s: %w", since, err)
		}
	}

	decorations, err := r.decorations()
	if err != nil {
		return nil, err
	}

	var commits []RawCommit
	err = r.walk(head.Hash(), func(c *object.Commit) error {
		if exclude[c.Hash] {
			return nil
		}
		commits = append(commits, RawCommit{
			Hash:        c.Hash.String(),
			Message:     c.Message,
			Decorations: decorations[c.Hash],
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking history: %w", err)
	}

	logDebug("[git] CommitsSince(%s): %d commits", since, len(commits))
	return commits, nil
}

func (r *Repo) walk(from plumbing.Hash, fn func(*object.Commit) error) error {
	iter, err := r.repo.Log(&git.LogOptions{From: from, Order: git.LogOrderCommitterTime})
	if err != nil {
		return err
	}
	defer iter.Close()

	err = iter.ForEach(fn)
	if errors.Is(err, storer.ErrStop) {
		return nil
	}
	return err
}

// decorations maps commits to their "(tag: x, tag: y)" text.
func (r *Repo) decorations() (map[plumbing.Hash]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	names := make(map[plumbing.Hash][]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		commit, err := r.peel(ref)
		if err != nil {
			return err
		}
		names[commit] = append(names[commit], "tag: "+ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}

	out := make(map[plumbing.Hash]string, len(names))
	for hash, n := range names {
		sort.Strings(n)
		out[hash] = "(" + strings.Join(n, ", ") + ")"
	}
	return out, nil
}

// Remote identifies a hosted repository.
type Remote struct {
	// Host includes the scheme, e.g. "https://github.com".
	Host       string
	Owner      string
	Repository string
}

// Remote returns the parsed URL of the named remote.
func (r *Repo) Remote(name string) (Remote, error) {
	remote, err := r.repo.Remote(name)
	if errors.Is(err, git.ErrRemoteNotFound) {
		return Remote{}, fmt.Errorf("%s: %w", name, ErrNoRemote)
	}
	if err != nil {
		return Remote{}, fmt.Errorf("reading remote %s: %w", name, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return Remote{}, fmt.Errorf("%s has no URL: %w", name, ErrNoRemote)
	}
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL splits a clone URL into host, owner and repository. SSH
// and scp-style URLs are reported with an https host so the result can be
// used to build web links.
func ParseRemoteURL(url string) (Remote, error) {
	ep, err := transport.NewEndpoint(strings.TrimPrefix(url, "git+"))
	if err != nil {
		return Remote{}, fmt.Errorf("parsing remote URL %q: %w", url, err)
	}
	if ep.Protocol == "file" || ep.Host == "" {
		return Remote{}, fmt.Errorf("remote URL %q is not hosted", url)
	}

	path := strings.TrimSuffix(strings.Trim(ep.Path, "/"), ".git")
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return Remote{}, fmt.Errorf("remote URL %q has no owner/repository path", url)
	}

	scheme := "https"
	if ep.Protocol == "http" {
		scheme = "http"
	}
	host := ep.Host
	if (ep.Protocol == "http" || ep.Protocol == "https") && ep.Port != 0 && ep.Port != 80 && ep.Port != 443 {
		host = fmt.Sprintf("%s:%d", host, ep.Port)
	}

	return Remote{
		Host:       scheme + "://" + host,
		Owner:      path[:idx],
		Repository: path[idx+1:],
	}, nil
}

// CommitOptions configures Commit.
type CommitOptions struct {
	Message string
	// Files are staged before committing, relative to the root or absolute.
	Files []string
	// All stages every tracked modification, like "git commit -a".
	All bool
	// Author defaults to the user configured in git.
	Author *object.Signature
}

// Commit stages the files and records a commit. It returns the new hash.
func (r *Repo) Commit(opts CommitOptions) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	for _, f := range opts.Files {
		rel, err := r.relative(f)
		if err != nil {
			return "", err
		}
		if _, err := wt.Add(rel); err != nil {
			return "", fmt.Errorf("staging %s: %w", rel, err)
		}
	}

	hash, err := wt.Commit(opts.Message, &git.CommitOptions{
		All:    opts.All,
		Author: stamp(opts.Author),
	})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}

	logDebug("[git] Commit: %s", hash)
	return hash.String(), nil
}

// CreateTag creates an annotated tag at HEAD.
func (r *Repo) CreateTag(name, message string, tagger *object.Signature) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD reference: %w", err)
	}

	_, err = r.repo.CreateTag(name, head.Hash(), &git.CreateTagOptions{
		Message: message,
		Tagger:  stamp(tagger),
	})
	if err != nil {
		return fmt.Errorf("creating tag %s: %w", name, err)
	}

	logDebug("[git] CreateTag: %s at %s", name, head.Hash())
	return nil
}

func stamp(sig *object.Signature) *object.Signature {
	if sig == nil || !sig.When.IsZero() {
		return sig
	}
	s := *sig
	s.When = time.Now()
	return &s
}

// relative converts a path to the slash form go-git expects.
func (r *Repo) relative(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), nil
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside the repository", path)
	}
	return filepath.ToSlash(rel), nil
}
