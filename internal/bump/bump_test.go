package bump

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/bumpkit/internal/bumpfiles"
	"github.com/ariel-frischer/bumpkit/internal/lifecycle"
	"github.com/ariel-frischer/bumpkit/internal/semver"
	"github.com/ariel-frischer/bumpkit/internal/updater"
)

type fakeScripts struct {
	out   map[lifecycle.Hook]string
	fail  map[lifecycle.Hook]error
	calls []lifecycle.Hook
}

func (f *fakeScripts) Run(_ context.Context, hook lifecycle.Hook) (string, error) {
	f.calls = append(f.calls, hook)
	if err := f.fail[hook]; err != nil {
		return "", err
	}
	return f.out[hook], nil
}

type fakeFiles struct {
	applied []string
}

func (f *fakeFiles) Apply(_ context.Context, targets []updater.Target, newVersion string) bumpfiles.Result {
	f.applied = append(f.applied, newVersion)
	updated := make(map[string]bool)
	for _, t := range targets {
		updated[t.Filename] = true
	}
	return bumpfiles.Result{Updated: updated}
}

func TestBumper_Bump(t *testing.T) {
	scripts := &fakeScripts{}
	files := &fakeFiles{}
	b := NewBumper(scripts, files, nil)

	out, err := b.Bump(context.Background(), Request{
		Hint:    Hint{ReleaseAs: "minor"},
		Current: "1.2.3",
		Targets: []updater.Target{{Filename: "package.json"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "1.3.0", out.Version)
	assert.Equal(t, []string{"package.json"}, out.Files.Files())
	assert.Equal(t, []string{"1.3.0"}, files.applied)
	assert.Equal(t, []lifecycle.Hook{lifecycle.PreRelease, lifecycle.PreBump, lifecycle.PostBump}, scripts.calls)
}

func TestBumper_PrebumpOverride(t *testing.T) {
	tests := map[string]struct {
		stdout string
		want   string
	}{
		"quoted version":   {stdout: "\"3.0.0\"\n", want: "3.0.0"},
		"single quoted":    {stdout: "'3.1.0'", want: "3.1.0"},
		"noise is ignored": {stdout: "building...", want: "1.2.4"},
		"empty output":     {stdout: "", want: "1.2.4"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			scripts := &fakeScripts{out: map[lifecycle.Hook]string{lifecycle.PreBump: tt.stdout}}
			b := NewBumper(scripts, &fakeFiles{}, nil)

			out, err := b.Bump(context.Background(), Request{Hint: Hint{ReleaseAs: "patch"}, Current: "1.2.3"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Version)
		})
	}
}

func TestBumper_OverrideIsReportedInHint(t *testing.T) {
	scripts := &fakeScripts{out: map[lifecycle.Hook]string{lifecycle.PreBump: "4.0.0"}}
	out, err := NewBumper(scripts, &fakeFiles{}, nil).Bump(context.Background(), Request{Current: "1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "4.0.0", out.Hint.ReleaseAs)
}

func TestBumper_FailuresStopBeforeFiles(t *testing.T) {
	boom := errors.New("exit status 1")

	tests := map[string]struct {
		fail      map[lifecycle.Hook]error
		req       Request
		wantErr   error
		wantCalls []lifecycle.Hook
	}{
		"prerelease script fails": {
			fail:      map[lifecycle.Hook]error{lifecycle.PreRelease: boom},
			req:       Request{Hint: Hint{ReleaseAs: "patch"}, Current: "1.0.0"},
			wantErr:   boom,
			wantCalls: []lifecycle.Hook{lifecycle.PreRelease},
		},
		"prebump script fails": {
			fail:      map[lifecycle.Hook]error{lifecycle.PreBump: boom},
			req:       Request{Hint: Hint{ReleaseAs: "patch"}, Current: "1.0.0"},
			wantErr:   boom,
			wantCalls: []lifecycle.Hook{lifecycle.PreRelease, lifecycle.PreBump},
		},
		"invalid hint runs nothing": {
			req:     Request{Hint: Hint{ReleaseAs: "huge"}, Current: "1.0.0"},
			wantErr: ErrInvalidReleaseHint,
		},
		"no recommendation": {
			req:       Request{Current: "1.0.0"},
			wantErr:   ErrNoRecommendation,
			wantCalls: []lifecycle.Hook{lifecycle.PreRelease, lifecycle.PreBump},
		},
		"conflicting prerelease": {
			req: Request{
				Hint:    Hint{ReleaseAs: "2.0.0-alpha.0", Prerelease: strPtr("beta")},
				Current: "1.0.0",
			},
			wantErr:   ErrConflictingPrerelease,
			wantCalls: []lifecycle.Hook{lifecycle.PreRelease, lifecycle.PreBump},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			scripts := &fakeScripts{fail: tt.fail}
			files := &fakeFiles{}

			_, err := NewBumper(scripts, files, nil).Bump(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, files.applied)
			assert.Equal(t, tt.wantCalls, scripts.calls)
		})
	}
}

func TestBumper_ScriptErrorNamesHook(t *testing.T) {
	scripts := &fakeScripts{fail: map[lifecycle.Hook]error{lifecycle.PostBump: errors.New("exit status 2")}}
	files := &fakeFiles{}

	_, err := NewBumper(scripts, files, nil).Bump(context.Background(), Request{Hint: Hint{ReleaseAs: "patch"}, Current: "1.0.0"})
	require.Error(t, err)
	assert.Equal(t, "postbump script: exit status 2", err.Error())
	assert.Equal(t, []string{"1.0.1"}, files.applied)
}

func TestBumper_Skip(t *testing.T) {
	scripts := &fakeScripts{}
	files := &fakeFiles{}

	out, err := NewBumper(scripts, files, nil).Bump(context.Background(), Request{Current: "1.0.0", Skip: true})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", out.Version)
	assert.Empty(t, scripts.calls)
	assert.Empty(t, files.applied)
}

func TestBumper_NilScripts(t *testing.T) {
	files := &fakeFiles{}
	out, err := NewBumper(nil, files, nil).Bump(context.Background(), Request{
		Current:   "0.4.0",
		Recommend: recommendAs(semver.Minor),
	})
	require.NoError(t, err)
	assert.Equal(t, "0.5.0", out.Version)
}

func TestIsPreMajor(t *testing.T) {
	tests := map[string]bool{
		"0.9.9":      true,
		"1.0.0-rc.1": true,
		"1.0.0":      false,
		"2.3.4":      false,
		"garbage":    false,
	}
	for version, want := range tests {
		t.Run(version, func(t *testing.T) {
			assert.Equal(t, want, IsPreMajor(version))
		})
	}
}
