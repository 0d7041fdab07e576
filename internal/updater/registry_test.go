package updater

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ByFilename(t *testing.T) {
	tests := map[string]struct {
		filename string
		want     Updater
	}{
		"package.json":            {filename: "package.json", want: JSON{}},
		"nested package.json":     {filename: "web/package.json", want: JSON{}},
		"package-lock.json":       {filename: "package-lock.json", want: JSON{}},
		"manifest.json":           {filename: "manifest.json", want: JSON{}},
		"VERSION":                 {filename: "VERSION", want: PlainText{}},
		"version.txt":             {filename: "version.txt", want: PlainText{}},
		"pom.xml":                 {filename: "server/pom.xml", want: Maven{}},
		"build.gradle":            {filename: "build.gradle", want: gradle},
		"build.gradle.kts":        {filename: "app/build.gradle.kts", want: gradle},
		"csproj":                  {filename: "src/Demo.csproj", want: csproj},
		"openapi.yaml":            {filename: "api/openapi.yaml", want: OpenAPI{}},
		"openapi.yml":             {filename: "api/openapi.yml", want: OpenAPI{}},
		"chart yaml":              {filename: "charts/demo/Chart.yaml", want: YAML{}},
		"yml extension":           {filename: "release.yml", want: YAML{}},
		"pyproject.toml":          {filename: "pyproject.toml", want: Python{}},
		"json manifest beats ext": {filename: "config/bower.json", want: JSON{}},
	}

	r := NewRegistry(afero.NewMemMapFs())
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := r.ByFilename(tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_ByFilename_Unsupported(t *testing.T) {
	r := NewRegistry(afero.NewMemMapFs())
	for _, filename := range []string{"Cargo.toml", "setup.py", "data.json", "notes/version.md"} {
		_, err := r.ByFilename(filename)
		assert.ErrorIs(t, err, ErrUnresolvedUpdater, filename)
	}
}

type stubUpdater struct{ version string }

func (s stubUpdater) ReadVersion(string) (string, error) { return s.version, nil }
func (s stubUpdater) WriteVersion(_ string, v string) (string, error) {
	return v, nil
}

func TestRegistry_ResolveOrder(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "updaters/chart.yml", []byte("pattern: 'tag: \"([^\"]+)\"'\n"), 0o644))

	r := NewRegistry(fsys)
	r.Register("stub", func() (Updater, error) { return stubUpdater{version: "9.9.9"}, nil })
	explicit := stubUpdater{version: "1.1.1"}

	tests := map[string]struct {
		target Target
		check  func(t *testing.T, u Updater)
	}{
		"explicit updater wins over everything": {
			target: Target{Filename: "package.json", Type: TypeYAML, UpdaterRef: "stub", Updater: explicit},
			check: func(t *testing.T, u Updater) {
				assert.Equal(t, explicit, u)
			},
		},
		"registered name beats type": {
			target: Target{Filename: "package.json", Type: TypeYAML, UpdaterRef: "stub"},
			check: func(t *testing.T, u Updater) {
				assert.Equal(t, stubUpdater{version: "9.9.9"}, u)
			},
		},
		"definition file by path": {
			target: Target{Filename: "values.txt", UpdaterRef: "updaters/chart.yml"},
			check: func(t *testing.T, u Updater) {
				v, err := u.ReadVersion(`image: {tag: "3.2.1"}`)
				require.NoError(t, err)
				assert.Equal(t, "3.2.1", v)
			},
		},
		"type beats filename": {
			target: Target{Filename: "package.json", Type: TypePlainText},
			check: func(t *testing.T, u Updater) {
				assert.Equal(t, PlainText{}, u)
			},
		},
		"filename inference": {
			target: Target{Filename: "package.json"},
			check: func(t *testing.T, u Updater) {
				assert.Equal(t, JSON{}, u)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			resolved, err := r.Resolve(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.target.Filename, resolved.Filename)
			tt.check(t, resolved.Updater)
		})
	}
}

func TestRegistry_ResolveFailures(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "bad.yml", []byte("pattern: 'no groups'\n"), 0o644))

	r := NewRegistry(fsys)
	r.Register("broken", func() (Updater, error) { return nil, errors.New("boom") })

	tests := map[string]struct {
		target       Target
		unresolved   bool
		missing      bool
		isLoadFailed bool
	}{
		"unknown type":            {target: Target{Filename: "x", Type: "cargo"}, unresolved: true},
		"unsupported filename":    {target: Target{Filename: "Cargo.toml"}, unresolved: true},
		"missing definition file": {target: Target{Filename: "x", UpdaterRef: "nope.yml"}, missing: true, isLoadFailed: true},
		"invalid definition":      {target: Target{Filename: "x", UpdaterRef: "bad.yml"}, isLoadFailed: true},
		"factory error":           {target: Target{Filename: "x", UpdaterRef: "broken"}, isLoadFailed: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(tt.target)
			require.Error(t, err)
			assert.Equal(t, tt.unresolved, errors.Is(err, ErrUnresolvedUpdater))
			assert.Equal(t, tt.missing, errors.Is(err, fs.ErrNotExist))

			var loadErr *LoadError
			assert.Equal(t, tt.isLoadFailed, errors.As(err, &loadErr))
		})
	}
}
