package bump

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/bumpkit/internal/semver"
)

func strPtr(s string) *string { return &s }

func recommendAs(t semver.ReleaseType) RecommendFunc {
	return func() (*Recommendation, error) {
		return &Recommendation{ReleaseType: t}, nil
	}
}

func TestResolve_Levels(t *testing.T) {
	tests := map[string]struct {
		current string
		hint    Hint
		want    string
	}{
		"major":                     {current: "1.2.3", hint: Hint{ReleaseAs: "major"}, want: "2.0.0"},
		"minor":                     {current: "1.2.3", hint: Hint{ReleaseAs: "minor"}, want: "1.3.0"},
		"patch":                     {current: "1.2.3", hint: Hint{ReleaseAs: "patch"}, want: "1.2.4"},
		"major from zero":           {current: "0.1.0", hint: Hint{ReleaseAs: "major"}, want: "1.0.0"},
		"level is case-insensitive": {current: "1.2.3", hint: Hint{ReleaseAs: "MINOR"}, want: "1.3.0"},
		"build metadata dropped":    {current: "1.2.3+exp.sha", hint: Hint{ReleaseAs: "patch"}, want: "1.2.4"},
		"start prerelease": {
			current: "1.2.3",
			hint:    Hint{ReleaseAs: "minor", Prerelease: strPtr("beta")},
			want:    "1.3.0-beta.0",
		},
		"prerelease without identifier": {
			current: "1.2.3",
			hint:    Hint{ReleaseAs: "patch", Prerelease: strPtr("")},
			want:    "1.2.4-0",
		},
		"continue series at same level": {
			current: "1.1.0-alpha.0",
			hint:    Hint{ReleaseAs: "minor", Prerelease: strPtr("alpha")},
			want:    "1.1.0-alpha.1",
		},
		"continue series when active outranks level": {
			current: "1.1.0-alpha.0",
			hint:    Hint{ReleaseAs: "patch", Prerelease: strPtr("alpha")},
			want:    "1.1.0-alpha.1",
		},
		"new series when level outranks active": {
			current: "1.1.0-alpha.0",
			hint:    Hint{ReleaseAs: "major", Prerelease: strPtr("alpha")},
			want:    "2.0.0-alpha.0",
		},
		"switch series identifier": {
			current: "2.0.0-alpha.3",
			hint:    Hint{ReleaseAs: "major", Prerelease: strPtr("rc")},
			want:    "2.0.0-rc.0",
		},
		"graduate prerelease": {
			current: "2.0.0-rc.1",
			hint:    Hint{ReleaseAs: "major"},
			want:    "2.0.0",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Resolve(tt.hint, tt.current, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_StandardIncrementForEveryLevel(t *testing.T) {
	for _, current := range []string{"0.0.0", "0.0.1", "0.3.0", "1.0.0", "4.5.6", "10.20.30"} {
		cur, err := semver.Parse(current)
		require.NoError(t, err)
		maj, minor, patch := cur.Major(), cur.Minor(), cur.Patch()

		want := map[semver.ReleaseType]string{
			semver.Major: fmt.Sprintf("%d.0.0", maj+1),
			semver.Minor: fmt.Sprintf("%d.%d.0", maj, minor+1),
			semver.Patch: fmt.Sprintf("%d.%d.%d", maj, minor, patch+1),
		}
		for level, expected := range want {
			got, err := Resolve(Hint{ReleaseAs: string(level)}, current, nil)
			require.NoError(t, err)
			assert.Equal(t, expected, got, "%s + %s", current, level)
		}
	}
}

func TestResolve_ExplicitVersion(t *testing.T) {
	tests := map[string]struct {
		current string
		hint    Hint
		want    string
	}{
		"plain version": {
			current: "1.4.0",
			hint:    Hint{ReleaseAs: "2.0.0"},
			want:    "2.0.0",
		},
		"going backwards is allowed": {
			current: "3.1.0",
			hint:    Hint{ReleaseAs: "2.0.0"},
			want:    "2.0.0",
		},
		"build metadata kept": {
			current: "1.4.0",
			hint:    Hint{ReleaseAs: "2.0.0+build.5"},
			want:    "2.0.0+build.5",
		},
		"prerelease appended": {
			current: "1.4.0",
			hint:    Hint{ReleaseAs: "2.0.0", Prerelease: strPtr("rc")},
			want:    "2.0.0-rc.0",
		},
		"empty prerelease identifier": {
			current: "1.0.0",
			hint:    Hint{ReleaseAs: "1.2.3", Prerelease: strPtr("")},
			want:    "1.2.3-0",
		},
		"same prerelease advances": {
			current: "1.2.3-beta.0",
			hint:    Hint{ReleaseAs: "1.2.3-beta.0", Prerelease: strPtr("beta")},
			want:    "1.2.3-beta.1",
		},
		"behind current prerelease advances": {
			current: "1.0.0-rc.3",
			hint:    Hint{ReleaseAs: "1.0.0", Prerelease: strPtr("rc")},
			want:    "1.0.0-rc.4",
		},
		"build metadata reattached after advancing": {
			current: "1.0.0-rc.3",
			hint:    Hint{ReleaseAs: "1.0.0+meta", Prerelease: strPtr("rc")},
			want:    "1.0.0-rc.4+meta",
		},
		"ahead of current is kept": {
			current: "1.0.0-rc.3",
			hint:    Hint{ReleaseAs: "1.0.0-rc.7", Prerelease: strPtr("rc")},
			want:    "1.0.0-rc.7",
		},
		"last identifier names the build in a series": {
			current: "1.0.0",
			hint:    Hint{ReleaseAs: "1.2.3-rc.beta", Prerelease: strPtr("rc")},
			want:    "1.2.3-rc.beta",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			called := false
			got, err := Resolve(tt.hint, tt.current, func() (*Recommendation, error) {
				called = true
				return nil, nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.False(t, called, "recommendation must not be consulted")
		})
	}
}

func TestResolve_ExplicitVersionFromAnyCurrent(t *testing.T) {
	for _, current := range []string{"0.0.1", "1.9.9", "2.0.0", "2.0.0-rc.1", "7.0.0"} {
		got, err := Resolve(Hint{ReleaseAs: "2.0.0"}, current, nil)
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", got, current)
	}
}

func TestResolve_Recommendation(t *testing.T) {
	got, err := Resolve(Hint{}, "1.2.3", recommendAs(semver.Minor))
	require.NoError(t, err)
	assert.Equal(t, "1.3.0", got)

	got, err = Resolve(Hint{Prerelease: strPtr("next")}, "1.2.3", recommendAs(semver.Major))
	require.NoError(t, err)
	assert.Equal(t, "2.0.0-next.0", got)
}

func TestResolve_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := map[string]struct {
		current   string
		hint      Hint
		recommend RecommendFunc
		wantErr   error
	}{
		"unknown level": {
			current: "1.0.0",
			hint:    Hint{ReleaseAs: "bigger"},
			wantErr: ErrInvalidReleaseHint,
		},
		"conflicting prerelease": {
			current: "1.0.0",
			hint:    Hint{ReleaseAs: "1.2.3-alpha.1", Prerelease: strPtr("beta")},
			wantErr: ErrConflictingPrerelease,
		},
		"prerelease without a series number": {
			current: "1.0.0",
			hint:    Hint{ReleaseAs: "1.2.3-beta", Prerelease: strPtr("beta")},
			wantErr: ErrConflictingPrerelease,
		},
		"no recommender": {
			current: "1.0.0",
			wantErr: ErrNoRecommendation,
		},
		"nil recommendation": {
			current:   "1.0.0",
			recommend: func() (*Recommendation, error) { return nil, nil },
			wantErr:   ErrNoRecommendation,
		},
		"recommender fails": {
			current:   "1.0.0",
			recommend: func() (*Recommendation, error) { return nil, boom },
			wantErr:   boom,
		},
		"invalid current version": {
			current: "one",
			hint:    Hint{ReleaseAs: "patch"},
			wantErr: semver.ErrInvalidVersion,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Resolve(tt.hint, tt.current, tt.recommend)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEffectiveReleaseType(t *testing.T) {
	tests := map[string]struct {
		current    string
		prerelease *string
		level      semver.ReleaseType
		want       semver.ReleaseType
	}{
		"no prerelease":             {current: "1.1.0-alpha.0", level: semver.Minor, want: semver.Minor},
		"not in prerelease":         {current: "1.1.0", prerelease: strPtr("rc"), level: semver.Patch, want: semver.PrePatch},
		"active major, asked minor": {current: "2.0.0-rc.1", prerelease: strPtr("rc"), level: semver.Minor, want: semver.Prerelease},
		"active major, asked major": {current: "2.0.0-rc.1", prerelease: strPtr("rc"), level: semver.Major, want: semver.Prerelease},
		"active patch, asked minor": {current: "1.0.1-0", prerelease: strPtr(""), level: semver.Minor, want: semver.PreMinor},
		"active minor, asked major": {current: "1.1.0-beta.2", prerelease: strPtr("beta"), level: semver.Major, want: semver.PreMajor},
		"no active component":       {current: "0.0.0-0", prerelease: strPtr(""), level: semver.Patch, want: semver.PrePatch},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cur, err := semver.Parse(tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.want, EffectiveReleaseType(tt.prerelease, tt.level, cur))
		})
	}
}

func TestHint_Level(t *testing.T) {
	assert.Equal(t, semver.Major, Hint{ReleaseAs: " Major "}.Level())
	assert.Empty(t, Hint{ReleaseAs: "1.0.0"}.Level())
	assert.Empty(t, Hint{}.Level())
}
