package updater

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Built-in strategy type tags.
const (
	TypeJSON      = "json"
	TypePlainText = "plain-text"
	TypeMaven     = "maven"
	TypeGradle    = "gradle"
	TypeCsproj    = "csproj"
	TypeYAML      = "yaml"
	TypeOpenAPI   = "openapi"
	TypePython    = "python"
)

// JSONManifests are the basenames handled by the json strategy without an
// explicit type.
var JSONManifests = []string{
	"package.json",
	"bower.json",
	"manifest.json",
	"package-lock.json",
	"npm-shrinkwrap.json",
	"composer.json",
}

// PlainTextFiles are the filenames handled by the plain-text strategy
// without an explicit type.
var PlainTextFiles = []string{"VERSION", "VERSION.txt", "version.txt"}

var yamlExtPattern = regexp.MustCompile(`\.ya?ml$`)

// Factory builds a named custom updater.
type Factory func() (Updater, error)

// Registry resolves bump targets to strategies. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	fs      afero.Fs
	builtin map[string]Updater
	custom  map[string]Factory
}

// NewRegistry returns a registry with all built-in strategies. Custom
// updater definition files referenced by path are read from fsys.
func NewRegistry(fsys afero.Fs) *Registry {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Registry{
		fs: fsys,
		builtin: map[string]Updater{
			TypeJSON:      JSON{},
			TypePlainText: PlainText{},
			TypeMaven:     Maven{},
			TypeGradle:    gradle,
			TypeCsproj:    csproj,
			TypeYAML:      YAML{},
			TypeOpenAPI:   OpenAPI{},
			TypePython:    Python{},
		},
		custom: make(map[string]Factory),
	}
}

// Register adds a named custom strategy, replacing any previous one with
// the same name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[name] = f
}

// Types returns the built-in type tags in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.builtin))
	for t := range r.builtin {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Resolve determines the strategy for a target. Resolution order is an
// explicit Updater value, then UpdaterRef (registered name, else a path to a
// YAML definition file), then Type, then inference from Filename.
func (r *Registry) Resolve(t Target) (Resolved, error) {
	if t.Updater != nil {
		return Resolved{Filename: t.Filename, Updater: t.Updater}, nil
	}

	var (
		u   Updater
		err error
	)
	switch {
	case t.UpdaterRef != "":
		u, err = r.loadCustom(t.UpdaterRef)
	case t.Type != "":
		u, err = r.ByType(t.Type)
	default:
		u, err = r.ByFilename(t.Filename)
	}
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Filename: t.Filename, Updater: u}, nil
}

// ByType looks up a built-in strategy by type tag.
func (r *Registry) ByType(t string) (Updater, error) {
	u, ok := r.builtin[t]
	if !ok {
		return nil, fmt.Errorf("%w: unknown updater type %q (available: %s)",
			ErrUnresolvedUpdater, t, strings.Join(r.Types(), ", "))
	}
	return u, nil
}

// ByFilename infers the strategy from a filename: known JSON manifest
// basenames first, then plain-text version files, then build-tool manifests
// by path substring, then extensions.
func (r *Registry) ByFilename(filename string) (Updater, error) {
	base := filepath.Base(filename)
	clean := filepath.ToSlash(filepath.Clean(filename))

	switch {
	case contains(JSONManifests, base):
		return r.ByType(TypeJSON)
	case contains(PlainTextFiles, clean):
		return r.ByType(TypePlainText)
	case strings.Contains(clean, "pom.xml"):
		return r.ByType(TypeMaven)
	case strings.Contains(clean, "build.gradle"):
		return r.ByType(TypeGradle)
	case strings.HasSuffix(clean, ".csproj"):
		return r.ByType(TypeCsproj)
	case strings.Contains(clean, "openapi.yaml"), strings.Contains(clean, "openapi.yml"):
		return r.ByType(TypeOpenAPI)
	case yamlExtPattern.MatchString(clean):
		return r.ByType(TypeYAML)
	case strings.Contains(clean, "pyproject.toml"):
		return r.ByType(TypePython)
	}

	return nil, fmt.Errorf("%w: unsupported file %q; specify the updater type or a custom updater",
		ErrUnresolvedUpdater, filename)
}

// Definition is the on-disk form of a custom regex updater.
type Definition struct {
	// Pattern must contain exactly one capture group matching the version.
	Pattern string `koanf:"pattern" yaml:"pattern" validate:"required"`
}

// Build compiles the definition into an updater.
func (d Definition) Build(name string) (Updater, error) {
	return NewRegex(name, d.Pattern)
}

func (r *Registry) loadCustom(ref string) (Updater, error) {
	r.mu.RLock()
	factory, ok := r.custom[ref]
	r.mu.RUnlock()

	if ok {
		u, err := factory()
		if err != nil {
			return nil, &LoadError{Ref: ref, Err: err}
		}
		if u == nil {
			return nil, &LoadError{Ref: ref, Err: errors.New("factory returned no updater")}
		}
		return u, nil
	}

	data, err := afero.ReadFile(r.fs, ref)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Ref: ref, Err: fmt.Errorf("no registered updater or definition file: %w", fs.ErrNotExist)}
		}
		return nil, &LoadError{Ref: ref, Err: err}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &LoadError{Ref: ref, Err: fmt.Errorf("parsing definition: %w", err)}
	}
	u, err := def.Build(filepath.Base(ref))
	if err != nil {
		return nil, &LoadError{Ref: ref, Err: err}
	}
	return u, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
