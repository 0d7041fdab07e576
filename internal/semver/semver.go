// Package semver implements the version arithmetic bumpkit needs on top of
// Masterminds/semver: strict validity checks, precedence diffs, and increments
// that follow npm's rules for continuing prerelease series.
//
// Masterminds/semver covers parsing and precedence but not prerelease
// counters ("1.2.3-beta.0" -> "1.2.3-beta.1") or the premajor/preminor/prepatch
// increment kinds, so those live here.
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	msemver "github.com/Masterminds/semver/v3"
)

// ReleaseType names an increment kind.
type ReleaseType string

const (
	Major      ReleaseType = "major"
	Minor      ReleaseType = "minor"
	Patch      ReleaseType = "patch"
	PreMajor   ReleaseType = "premajor"
	PreMinor   ReleaseType = "preminor"
	PrePatch   ReleaseType = "prepatch"
	Prerelease ReleaseType = "prerelease"
)

// ErrInvalidVersion is returned when a string is not a valid semantic version.
var ErrInvalidVersion = errors.New("invalid semantic version")

// Version is the parsed representation used throughout bumpkit.
type Version = msemver.Version

// Parse parses a strict semantic version. A single leading "v" or "=" is
// accepted and dropped.
func Parse(s string) (*Version, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "=")
	trimmed = strings.TrimPrefix(trimmed, "v")

	v, err := msemver.StrictNewVersion(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidVersion, s, err)
	}
	return v, nil
}

// Valid reports whether s parses as a semantic version.
func Valid(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := Parse(s)
	return err == nil
}

// Core returns "major.minor.patch[-prerelease]" without build metadata.
func Core(v *Version) string {
	s := fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
	if v.Prerelease() != "" {
		s += "-" + v.Prerelease()
	}
	return s
}

// WithBuild appends build metadata identifiers to a version string, joined
// with ".", after a "+". An empty build list leaves the version untouched.
func WithBuild(version string, build []string) string {
	if len(build) == 0 {
		return version
	}
	return version + "+" + strings.Join(build, ".")
}

// Build returns the build metadata identifiers of v.
func Build(v *Version) []string {
	if v.Metadata() == "" {
		return nil
	}
	return strings.Split(v.Metadata(), ".")
}

// PrereleaseIdentifiers returns the dot-separated prerelease identifiers of v.
func PrereleaseIdentifiers(v *Version) []string {
	if v.Prerelease() == "" {
		return nil
	}
	return strings.Split(v.Prerelease(), ".")
}

// PrereleaseName returns the identifier naming a prerelease series: every
// identifier but a trailing numeric counter. "beta.3" names "beta",
// "rc" names "rc", and "alpha.beta.1" names "alpha.beta".
func PrereleaseName(v *Version) string {
	ids := PrereleaseIdentifiers(v)
	if len(ids) == 0 {
		return ""
	}
	if isNumeric(ids[len(ids)-1]) {
		ids = ids[:len(ids)-1]
	}
	return strings.Join(ids, ".")
}

// IsPrerelease reports whether v carries prerelease identifiers.
func IsPrerelease(v *Version) bool {
	return v.Prerelease() != ""
}

// ActiveComponent returns the component a prerelease was cut for:
// patch when the patch number is set, else minor, else major. A version
// with all three components at zero has no active component.
func ActiveComponent(v *Version) ReleaseType {
	switch {
	case v.Patch() != 0:
		return Patch
	case v.Minor() != 0:
		return Minor
	case v.Major() != 0:
		return Major
	default:
		return ""
	}
}

// Priority ranks the release levels: major 2, minor 1, patch 0. Anything
// else ranks -1.
func Priority(t ReleaseType) int {
	switch t {
	case Major:
		return 2
	case Minor:
		return 1
	case Patch:
		return 0
	default:
		return -1
	}
}

// IsLevel reports whether t is one of major, minor or patch.
func IsLevel(t ReleaseType) bool {
	return Priority(t) >= 0
}

// Diff returns the most significant difference between two versions, using
// npm's naming: "major", "minor", "patch", their "pre" variants, or
// "prerelease". Equal precedence yields "".
func Diff(a, b *Version) string {
	cmp := a.Compare(b)
	if cmp == 0 {
		return ""
	}

	high, low := a, b
	if cmp < 0 {
		high, low = b, a
	}
	highHasPre := IsPrerelease(high)
	lowHasPre := IsPrerelease(low)

	if lowHasPre && !highHasPre {
		if low.Patch() == 0 && low.Minor() == 0 {
			return string(Major)
		}
		if compareMain(low, high) == 0 {
			if low.Minor() != 0 && low.Patch() == 0 {
				return string(Minor)
			}
			return string(Patch)
		}
	}

	prefix := ""
	if highHasPre {
		prefix = "pre"
	}
	switch {
	case a.Major() != b.Major():
		return prefix + string(Major)
	case a.Minor() != b.Minor():
		return prefix + string(Minor)
	case a.Patch() != b.Patch():
		return prefix + string(Patch)
	default:
		return string(Prerelease)
	}
}

func compareMain(a, b *Version) int {
	for _, pair := range [][2]uint64{
		{a.Major(), b.Major()},
		{a.Minor(), b.Minor()},
		{a.Patch(), b.Patch()},
	} {
		if pair[0] < pair[1] {
			return -1
		}
		if pair[0] > pair[1] {
			return 1
		}
	}
	return 0
}

// Inc returns v incremented by release type t. For the prerelease kinds an
// optional identifier names the series ("beta" -> "-beta.0"); nil or an
// empty identifier produces a bare numeric counter. Build metadata is dropped.
func Inc(v *Version, t ReleaseType, identifier *string) (*Version, error) {
	id := ""
	if identifier != nil {
		id = *identifier
	}

	p := newParts(v)
	if err := p.inc(t, id); err != nil {
		return nil, err
	}

	next, err := msemver.StrictNewVersion(p.String())
	if err != nil {
		return nil, fmt.Errorf("incrementing %s by %s: %w", v, t, err)
	}
	return next, nil
}

// parts is the mutable working form of a version during an increment.
type parts struct {
	major, minor, patch uint64
	pre                 []string
}

func newParts(v *Version) *parts {
	return &parts{
		major: v.Major(),
		minor: v.Minor(),
		patch: v.Patch(),
		pre:   PrereleaseIdentifiers(v),
	}
}

func (p *parts) String() string {
	s := fmt.Sprintf("%d.%d.%d", p.major, p.minor, p.patch)
	if len(p.pre) > 0 {
		s += "-" + strings.Join(p.pre, ".")
	}
	return s
}

func (p *parts) inc(t ReleaseType, id string) error {
	switch t {
	case PreMajor:
		p.pre = nil
		p.patch = 0
		p.minor = 0
		p.major++
		p.incPre(id)
	case PreMinor:
		p.pre = nil
		p.patch = 0
		p.minor++
		p.incPre(id)
	case PrePatch:
		p.pre = nil
		p.patch++
		p.incPre(id)
	case Prerelease:
		if len(p.pre) == 0 {
			p.patch++
		}
		p.incPre(id)
	case Major:
		// 1.0.0-rc.1 releases as 1.0.0
		if p.minor != 0 || p.patch != 0 || len(p.pre) == 0 {
			p.major++
		}
		p.minor = 0
		p.patch = 0
		p.pre = nil
	case Minor:
		if p.patch != 0 || len(p.pre) == 0 {
			p.minor++
		}
		p.patch = 0
		p.pre = nil
	case Patch:
		if len(p.pre) == 0 {
			p.patch++
		}
		p.pre = nil
	default:
		return fmt.Errorf("invalid release type %q", t)
	}
	return nil
}

// incPre bumps the rightmost numeric prerelease identifier, appending a
// counter when there is none, then moves the series to id when it differs.
func (p *parts) incPre(id string) {
	if len(p.pre) == 0 {
		p.pre = []string{"0"}
	} else {
		bumped := false
		for i := len(p.pre) - 1; i >= 0; i-- {
			if n, err := strconv.ParseUint(p.pre[i], 10, 64); err == nil && isNumeric(p.pre[i]) {
				p.pre[i] = strconv.FormatUint(n+1, 10)
				bumped = true
				break
			}
		}
		if !bumped {
			p.pre = append(p.pre, "0")
		}
	}

	if id == "" {
		return
	}
	if p.pre[0] == id {
		if len(p.pre) < 2 || !isNumeric(p.pre[1]) {
			p.pre = []string{id, "0"}
		}
		return
	}
	p.pre = []string{id, "0"}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
