// Package bump decides the next version of a project and drives the version
// bump step of a release.
//
// Resolve is the version state machine: an explicit version or bump level
// from the user, or the level recommended from commit history, combined with
// an optional prerelease identifier that either starts or continues a
// prerelease series. Every error it returns happens before any file is
// touched.
package bump

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ariel-frischer/bumpkit/internal/semver"
)

var (
	// ErrInvalidReleaseHint is returned for a release-as value that is
	// neither major, minor, patch nor a valid semantic version.
	ErrInvalidReleaseHint = errors.New("release-as must be one of 'major', 'minor' or 'patch', or a valid semver version")

	// ErrConflictingPrerelease is returned when an explicit prerelease
	// version names a different series than the prerelease identifier.
	ErrConflictingPrerelease = errors.New("release-as and prerelease have conflicting prerelease identifiers")

	// ErrNoRecommendation is returned when no bump level was given and none
	// could be recommended.
	ErrNoRecommendation = errors.New("no recommendation found")
)

// Hint is the user's release input.
type Hint struct {
	// ReleaseAs is "major", "minor", "patch", an explicit version, or empty
	// to follow the recommendation.
	ReleaseAs string
	// Prerelease is the prerelease identifier. nil means no prerelease was
	// requested; a pointer to "" requests a prerelease without identifier.
	Prerelease *string
}

// Level returns the normalized bump level of the hint, or "" when the hint
// is empty or an explicit version.
func (h Hint) Level() semver.ReleaseType {
	t := semver.ReleaseType(strings.ToLower(strings.TrimSpace(h.ReleaseAs)))
	if semver.IsLevel(t) {
		return t
	}
	return ""
}

// Validate checks the release-as value.
func (h Hint) Validate() error {
	if h.ReleaseAs == "" || h.Level() != "" || semver.Valid(h.ReleaseAs) {
		return nil
	}
	return fmt.Errorf("%w: got %q", ErrInvalidReleaseHint, h.ReleaseAs)
}

// RecommendFunc produces a recommendation on demand. It is only called when
// the hint does not fix the bump level.
type RecommendFunc func() (*Recommendation, error)

// Resolve computes the version that follows current.
func Resolve(hint Hint, current string, recommend RecommendFunc) (string, error) {
	if err := hint.Validate(); err != nil {
		return "", err
	}

	cur, err := semver.Parse(current)
	if err != nil {
		return "", fmt.Errorf("current version: %w", err)
	}

	if hint.Level() == "" && hint.ReleaseAs != "" {
		return resolveExplicit(hint, cur)
	}
	return resolveLevel(hint, cur, recommend)
}

// resolveExplicit handles a release-as value that is itself a version.
func resolveExplicit(hint Hint, cur *semver.Version) (string, error) {
	target, err := semver.Parse(hint.ReleaseAs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidReleaseHint, err)
	}

	candidate := semver.Core(target)
	if hint.Prerelease != nil {
		id := *hint.Prerelease
		switch {
		case semver.IsPrerelease(target) && series(target) != id:
			return "", fmt.Errorf("%w: %s is a %q prerelease, not %q",
				ErrConflictingPrerelease, hint.ReleaseAs, series(target), id)
		case semver.IsPrerelease(target):
			// target already names the requested series
		case id == "":
			candidate = fmt.Sprintf("%d.%d.%d-0", target.Major(), target.Minor(), target.Patch())
		default:
			candidate = fmt.Sprintf("%d.%d.%d-%s.0", target.Major(), target.Minor(), target.Patch(), id)
		}

		next, err := semver.Parse(candidate)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidReleaseHint, err)
		}
		diff := semver.Diff(cur, next)
		if (diff == string(semver.Prerelease) || diff == "") && next.Compare(cur) <= 0 {
			inc, err := semver.Inc(cur, semver.Prerelease, hint.Prerelease)
			if err != nil {
				return "", err
			}
			candidate = semver.Core(inc)
		}
	}

	return semver.WithBuild(candidate, semver.Build(target)), nil
}

// series is the prerelease of v without its last identifier, so
// "1.2.3-beta.0" and "1.2.3-rc.beta" belong to "beta" and "rc".
func series(v *semver.Version) string {
	ids := semver.PrereleaseIdentifiers(v)
	if len(ids) == 0 {
		return ""
	}
	return strings.Join(ids[:len(ids)-1], ".")
}

// resolveLevel handles a bump level, given or recommended.
func resolveLevel(hint Hint, cur *semver.Version, recommend RecommendFunc) (string, error) {
	level := hint.Level()
	if level == "" {
		if recommend == nil {
			return "", ErrNoRecommendation
		}
		rec, err := recommend()
		if err != nil {
			return "", fmt.Errorf("recommending bump: %w", err)
		}
		if rec == nil || !semver.IsLevel(rec.ReleaseType) {
			return "", ErrNoRecommendation
		}
		level = rec.ReleaseType
	}

	next, err := semver.Inc(cur, EffectiveReleaseType(hint.Prerelease, level, cur), hint.Prerelease)
	if err != nil {
		return "", err
	}
	return semver.Core(next), nil
}

// EffectiveReleaseType maps a requested level onto the increment to apply.
// Without a prerelease identifier it is the level itself. With one, a
// version already in prerelease continues its series when the active
// component equals or outranks the level; otherwise a new "pre" series is
// started at that level.
func EffectiveReleaseType(prerelease *string, level semver.ReleaseType, current *semver.Version) semver.ReleaseType {
	if prerelease == nil {
		return level
	}
	if semver.IsPrerelease(current) {
		active := semver.ActiveComponent(current)
		if active == level || semver.Priority(active) > semver.Priority(level) {
			return semver.Prerelease
		}
	}
	return "pre" + level
}
