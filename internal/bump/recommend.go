package bump

import (
	"fmt"

	"github.com/ariel-frischer/bumpkit/internal/changelog"
	"github.com/ariel-frischer/bumpkit/internal/semver"
)

// Levels as numbered by Recommendation.Level.
const (
	LevelMajor = 0
	LevelMinor = 1
	LevelPatch = 2
)

var levelTypes = [...]semver.ReleaseType{semver.Major, semver.Minor, semver.Patch}

// Recommendation is the bump level suggested by commit history.
type Recommendation struct {
	Level       int
	ReleaseType semver.ReleaseType
	Reason      string
}

// Recommend inspects commits since the last release. Breaking notes call for
// a major bump, features for a minor one, anything else for a patch. With
// preMajor set (current version below 1.0.0) the result drops one level.
func Recommend(commits []changelog.Commit, preMajor bool) *Recommendation {
	level := LevelPatch
	breakings, features := 0, 0

	for _, c := range commits {
		switch {
		case len(c.Notes) > 0:
			breakings += len(c.Notes)
			level = LevelMajor
		case c.Type == "feat" || c.Type == "feature":
			features++
			if level == LevelPatch {
				level = LevelMinor
			}
		}
	}

	if preMajor && level < LevelPatch {
		level++
	}

	reason := fmt.Sprintf("There are %d BREAKING CHANGES and %d features", breakings, features)
	if breakings == 1 {
		reason = fmt.Sprintf("There is %d BREAKING CHANGE and %d features", breakings, features)
	}

	return &Recommendation{
		Level:       level,
		ReleaseType: levelTypes[level],
		Reason:      reason,
	}
}
