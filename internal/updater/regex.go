package updater

import (
	"fmt"
	"regexp"
)

var (
	csproj = mustRegex("csproj", `<Version>([^<]*)</Version>`)
	gradle = mustRegex("build.gradle", `(?m)^version\s*=\s*['"]([^'"]+)['"]`)
)

// Regex is a strategy that finds the version as the single capture group of
// a pattern and rewrites only that group.
type Regex struct {
	name    string
	pattern *regexp.Regexp
}

// NewRegex compiles a regex strategy. The pattern must contain exactly one
// capture group.
func NewRegex(name, pattern string) (*Regex, error) {
	if pattern == "" {
		return nil, fmt.Errorf("updater %s: empty pattern", name)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("updater %s: compiling pattern: %w", name, err)
	}
	if re.NumSubexp() != 1 {
		return nil, fmt.Errorf("updater %s: pattern must have exactly one capture group, has %d", name, re.NumSubexp())
	}
	return &Regex{name: name, pattern: re}, nil
}

func mustRegex(name, pattern string) *Regex {
	r, err := NewRegex(name, pattern)
	if err != nil {
		panic(err)
	}
	return r
}

// ReadVersion returns the first match of the capture group.
func (r *Regex) ReadVersion(content string) (string, error) {
	m := r.pattern.FindStringSubmatch(content)
	if m == nil {
		return "", notFound(r.name)
	}
	return m[1], nil
}

// WriteVersion replaces the first match of the capture group.
func (r *Regex) WriteVersion(content, version string) (string, error) {
	loc := r.pattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", notFound(r.name)
	}
	return content[:loc[2]] + version + content[loc[3]:], nil
}
