package bump

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ariel-frischer/bumpkit/internal/bumpfiles"
	"github.com/ariel-frischer/bumpkit/internal/lifecycle"
	"github.com/ariel-frischer/bumpkit/internal/semver"
	"github.com/ariel-frischer/bumpkit/internal/updater"
)

// Scripts runs lifecycle hooks and returns their standard output.
type Scripts interface {
	Run(ctx context.Context, hook lifecycle.Hook) (string, error)
}

// FileUpdater writes a version into bump targets.
type FileUpdater interface {
	Apply(ctx context.Context, targets []updater.Target, newVersion string) bumpfiles.Result
}

// Request describes one bump step.
type Request struct {
	Hint      Hint
	Current   string
	Targets   []updater.Target
	Recommend RecommendFunc
	// Skip leaves the version and files alone and runs no scripts.
	Skip bool
}

// Outcome reports what the bump step did.
type Outcome struct {
	Version string
	// Hint is the hint actually used, after any prebump override.
	Hint  Hint
	Files bumpfiles.Result
}

// Bumper runs the bump step: prerelease and prebump scripts, version
// resolution, file updates and the postbump script.
type Bumper struct {
	scripts Scripts
	files   FileUpdater
	log     *zap.Logger
}

// NewBumper returns a Bumper. A nil logger is replaced with a no-op one.
func NewBumper(scripts Scripts, files FileUpdater, log *zap.Logger) *Bumper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bumper{scripts: scripts, files: files, log: log}
}

// Bump runs the step. Script failures and resolver errors abort before any
// file is written.
func (b *Bumper) Bump(ctx context.Context, req Request) (*Outcome, error) {
	if req.Skip {
		return &Outcome{Version: req.Current, Hint: req.Hint}, nil
	}
	if err := req.Hint.Validate(); err != nil {
		return nil, err
	}

	hint := req.Hint
	if _, err := b.run(ctx, lifecycle.PreRelease); err != nil {
		return nil, err
	}
	out, err := b.run(ctx, lifecycle.PreBump)
	if err != nil {
		return nil, err
	}
	if override := prebumpVersion(out); override != "" {
		b.log.Info("prebump script set release-as", zap.String("release_as", override))
		hint.ReleaseAs = override
	}

	version, err := Resolve(hint, req.Current, req.Recommend)
	if err != nil {
		return nil, err
	}

	result := b.files.Apply(ctx, req.Targets, version)
	if result.Err != nil {
		b.log.Debug("some bump files were not updated", zap.Error(result.Err))
	}

	if _, err := b.run(ctx, lifecycle.PostBump); err != nil {
		return nil, err
	}
	return &Outcome{Version: version, Hint: hint, Files: result}, nil
}

func (b *Bumper) run(ctx context.Context, hook lifecycle.Hook) (string, error) {
	if b.scripts == nil {
		return "", nil
	}
	out, err := b.scripts.Run(ctx, hook)
	if err != nil {
		return "", &lifecycle.ScriptError{Hook: hook, Err: err}
	}
	return out, nil
}

// prebumpVersion extracts a version printed by the prebump script. Quotes
// are stripped; anything that is not a valid version is ignored.
func prebumpVersion(stdout string) string {
	v := strings.TrimSpace(stdout)
	v = strings.NewReplacer(`"`, "", `'`, "").Replace(v)
	if v == "" || !semver.Valid(v) {
		return ""
	}
	return v
}

// IsPreMajor reports whether version precedes 1.0.0. Prereleases of 1.0.0
// count.
func IsPreMajor(version string) bool {
	v, err := semver.Parse(version)
	if err != nil {
		return false
	}
	one, _ := semver.Parse("1.0.0")
	return v.Compare(one) < 0
}
