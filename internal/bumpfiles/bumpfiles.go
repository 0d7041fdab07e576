// Package bumpfiles writes a new version into every tracked bump file.
//
// Targets are processed concurrently and independently: a file that cannot be
// resolved, is ignored by git, is missing, or fails to read or write never
// stops the rest of the batch. Each Apply call returns its own Result.
package bumpfiles

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/bumpkit/internal/updater"
)

// DefaultConcurrency bounds the number of files processed at once.
const DefaultConcurrency = 4

// IgnoreMatcher reports whether a path is excluded by the project's ignore
// rules. It receives the target joined onto Dir.
type IgnoreMatcher interface {
	Ignored(path string) bool
}

// Options configures an Updater.
type Options struct {
	Fs       afero.Fs
	Registry *updater.Registry
	Ignore   IgnoreMatcher
	Logger   *zap.Logger
	// Dir is the directory relative target filenames are resolved against.
	Dir         string
	DryRun      bool
	Concurrency int
}

// Updater applies a version to a set of bump targets.
type Updater struct {
	fs          afero.Fs
	registry    *updater.Registry
	ignore      IgnoreMatcher
	log         *zap.Logger
	dir         string
	dryRun      bool
	concurrency int
}

// New returns an Updater. Zero-valued options fall back to the OS
// filesystem, a fresh registry, no ignore rules and a no-op logger.
func New(opts Options) *Updater {
	u := &Updater{
		fs:          opts.Fs,
		registry:    opts.Registry,
		ignore:      opts.Ignore,
		log:         opts.Logger,
		dir:         opts.Dir,
		dryRun:      opts.DryRun,
		concurrency: opts.Concurrency,
	}
	if u.fs == nil {
		u.fs = afero.NewOsFs()
	}
	if u.registry == nil {
		u.registry = updater.NewRegistry(u.fs)
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	if u.concurrency <= 0 {
		u.concurrency = DefaultConcurrency
	}
	return u
}

// Result reports the outcome of one Apply call.
type Result struct {
	// Updated holds the filename of every target whose version was written.
	Updated map[string]bool
	// Err aggregates the recoverable per-target failures. It is informational;
	// the batch always runs to completion.
	Err error
}

// Files returns the updated filenames in sorted order.
func (r Result) Files() []string {
	files := make([]string, 0, len(r.Updated))
	for f := range r.Updated {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Apply writes newVersion into every target and waits for all of them to
// finish. Cancelling ctx stops targets that have not started yet.
func (u *Updater) Apply(ctx context.Context, targets []updater.Target, newVersion string) Result {
	var (
		mu     sync.Mutex
		result = Result{Updated: make(map[string]bool)}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for _, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				result.Err = multierr.Append(result.Err, fmt.Errorf("%s: %w", target.Filename, err))
				mu.Unlock()
				return nil
			}

			updated, err := u.applyOne(target, newVersion)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Err = multierr.Append(result.Err, err)
			}
			if updated {
				result.Updated[target.Filename] = true
			}
			// per-target failures never cancel siblings
			return nil
		})
	}
	_ = g.Wait()

	return result
}

// applyOne processes a single target. A nil error with updated false means
// the target was skipped for an expected reason.
func (u *Updater) applyOne(target updater.Target, newVersion string) (bool, error) {
	log := u.log.With(zap.String("file", target.Filename))

	resolved, err := u.registry.Resolve(target)
	if err != nil {
		var loadErr *updater.LoadError
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Debug("custom updater not found, skipping", zap.Error(err))
			return false, nil
		case errors.As(err, &loadErr):
			log.Warn("unable to obtain updater, skipping", zap.Error(err))
			return false, fmt.Errorf("%s: %w", target.Filename, err)
		default:
			log.Debug("no updater for file, skipping", zap.Error(err))
			return false, nil
		}
	}

	path := u.path(resolved.Filename)
	if u.ignore != nil && u.ignore.Ignored(path) {
		log.Debug("not updating file, as it is ignored in git")
		return false, nil
	}

	info, err := u.lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("file does not exist, skipping")
			return false, nil
		}
		log.Warn("unable to stat file", zap.Error(err))
		return false, fmt.Errorf("%s: %w", resolved.Filename, err)
	}
	if !info.Mode().IsRegular() {
		log.Debug("not updating file, as it is not a regular file")
		return false, nil
	}

	data, err := afero.ReadFile(u.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		log.Warn("unable to read file", zap.Error(err))
		return false, fmt.Errorf("reading %s: %w", resolved.Filename, err)
	}
	contents := string(data)

	previous, err := resolved.Updater.ReadVersion(contents)
	if err != nil {
		log.Warn("unable to read current version", zap.Error(err))
		return false, fmt.Errorf("%s: %w", resolved.Filename, err)
	}

	newContents, err := resolved.Updater.WriteVersion(contents, newVersion)
	if err != nil {
		log.Warn("unable to write version", zap.Error(err))
		return false, fmt.Errorf("%s: %w", resolved.Filename, err)
	}

	written, err := resolved.Updater.ReadVersion(newContents)
	if err != nil {
		log.Warn("unable to confirm written version", zap.Error(err))
		return false, fmt.Errorf("%s: %w", resolved.Filename, err)
	}

	log.Info(fmt.Sprintf("bumping version in %s from %s to %s", resolved.Filename, previous, written),
		zap.Bool("dry_run", u.dryRun))

	if !u.dryRun {
		if err := afero.WriteFile(u.fs, path, []byte(newContents), info.Mode().Perm()); err != nil {
			log.Warn("unable to write file", zap.Error(err))
			return false, fmt.Errorf("writing %s: %w", resolved.Filename, err)
		}
	}
	return true, nil
}

func (u *Updater) path(filename string) string {
	if u.dir == "" || filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(u.dir, filename)
}

// lstat uses Lstat when the filesystem supports it so symlinks are not
// followed.
func (u *Updater) lstat(path string) (fs.FileInfo, error) {
	if lst, ok := u.fs.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(path)
		return info, err
	}
	return u.fs.Stat(path)
}
