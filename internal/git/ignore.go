package git

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreMatcher answers whether a path is excluded by .gitignore rules.
type IgnoreMatcher struct {
	matcher gitignore.Matcher
	root    string
}

// NewIgnoreMatcher reads every .gitignore under the root of fs. root is the
// absolute path fs is rooted at, used to relativize absolute paths.
func NewIgnoreMatcher(fs billy.Filesystem, root string) (*IgnoreMatcher, error) {
	patterns, err := gitignore.ReadPatterns(fs, nil)
	if err != nil {
		return nil, fmt.Errorf("reading gitignore patterns: %w", err)
	}
	logDebug("[git] loaded %d gitignore patterns", len(patterns))
	return &IgnoreMatcher{matcher: gitignore.NewMatcher(patterns), root: root}, nil
}

// IgnoreMatcher returns a matcher for the worktree.
func (r *Repo) IgnoreMatcher() (*IgnoreMatcher, error) {
	return NewIgnoreMatcher(osfs.New(r.root), r.root)
}

// Ignored reports whether path is ignored. Paths outside the root never are.
func (m *IgnoreMatcher) Ignored(path string) bool {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(m.root, path)
		if err != nil {
			return false
		}
		path = rel
	}
	path = filepath.ToSlash(filepath.Clean(path))
	if path == "." || strings.HasPrefix(path, "../") {
		return false
	}
	return m.matcher.Match(strings.Split(path, "/"), false)
}
