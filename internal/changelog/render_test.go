package changelog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleContext(t *testing.T) *Context {
	t.Helper()
	prior := githubContext()
	prior.Date = "2024-03-01"
	prior.GitSemverTags = []string{"v1.0.0"}

	ctx, err := BuildContext([]Commit{
		{Type: "fix", Scope: "api", Subject: "handle nil body", Hash: "bbbbbbbbbbbb",
			References: []Reference{{Action: "closes", Prefix: "#", Issue: "9"}}},
		{Type: "feat", Scope: "api", Subject: "add pagination", Hash: "aaaaaaaaaaaa",
			Notes: []Note{{Title: "BREAKING CHANGE", Text: "list endpoints return pages"}}},
		{Type: "chore", Subject: "tidy", Hash: "cccccccccccc"},
	}, DefaultConfig(), prior)
	require.NoError(t, err)
	return ctx
}

func TestRenderString(t *testing.T) {
	out, err := RenderString(sampleContext(t))
	require.NoError(t, err)

	want := `## [1.1.0](https://github.com/acme/widgets/compare/v1.0.0...v1.1.0) (2024-03-01)

### ⚠ BREAKING CHANGES

* **api:** list endpoints return pages

### Features

* **api:** add pagination ([aaaaaaa](https://github.com/acme/widgets/commit/aaaaaaaaaaaa))

### Bug Fixes

* **api:** handle nil body ([bbbbbbb](https://github.com/acme/widgets/commit/bbbbbbbbbbbb)), closes [#9](https://github.com/acme/widgets/issues/9)

`
	assert.Equal(t, want, out)
	assert.NotContains(t, out, "tidy")
}

func TestRenderString_Unlinked(t *testing.T) {
	ctx, err := BuildContext([]Commit{
		{Type: "fix", Subject: "patch it", Hash: "dddddddddd",
			References: []Reference{{Prefix: "#", Issue: "3"}, {Owner: "o", Repository: "r", Prefix: "#", Issue: "4"}}},
	}, DefaultConfig(), Context{Version: "0.1.1"})
	require.NoError(t, err)

	out, err := RenderString(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "### 0.1.1\n\n### Bug Fixes\n\n"), out)
	assert.Contains(t, out, "* patch it (ddddddd), closes #3, o/r#4\n")
}

func TestRender_NilContext(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(nil, &buf))
}

func TestPrepend(t *testing.T) {
	const release = "## 1.1.0\n\n* new\n\n"

	tests := map[string]struct {
		existing *string
		want     string
	}{
		"creates missing file": {
			want: "# Changelog\n\n## 1.1.0\n\n* new\n",
		},
		"replaces old header": {
			existing: strPtr("# Old title\n\nold blurb\n\n## [1.0.0](x) (2024-01-01)\n\n* old\n\n\n"),
			want:     "# Changelog\n\n## 1.1.0\n\n* new\n\n## [1.0.0](x) (2024-01-01)\n\n* old\n",
		},
		"patch release headings count": {
			existing: strPtr("# Changelog\n\n### 1.0.1\n\n* fix\n"),
			want:     "# Changelog\n\n## 1.1.0\n\n* new\n\n### 1.0.1\n\n* fix\n",
		},
		"legacy anchors count": {
			existing: strPtr("header\n<a name=\"1.0.0\"></a>\n# 1.0.0\n"),
			want:     "# Changelog\n\n## 1.1.0\n\n* new\n\n<a name=\"1.0.0\"></a>\n# 1.0.0\n",
		},
		"no previous release keeps content": {
			existing: strPtr("notes\n"),
			want:     "# Changelog\n\n## 1.1.0\n\n* new\n\nnotes\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			if tt.existing != nil {
				require.NoError(t, afero.WriteFile(fsys, "docs/CHANGELOG.md", []byte(*tt.existing), 0o644))
			}

			require.NoError(t, Prepend(fsys, "docs/CHANGELOG.md", "# Changelog\n", release))

			got, err := afero.ReadFile(fsys, "docs/CHANGELOG.md")
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestFormatTerminal_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatTerminal(sampleContext(t), &buf, FormatOptions{Plain: true, MaxWidth: 120}))

	want := `## v1.1.0 (2024-03-01)

### BREAKING CHANGES
  - api: list endpoints return pages

### Features
  - api: add pagination (aaaaaaa)

### Bug Fixes
  - api: handle nil body (bbbbbbb)
`
	assert.Equal(t, want, buf.String())
}

func TestFormatTerminal_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatTerminal(&Context{}, &buf, FormatOptions{Plain: true}))
	assert.Contains(t, buf.String(), "## Unreleased")
	assert.Contains(t, buf.String(), "no changelog-worthy commits")
}

func TestStripLinks(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"no links":     {in: "plain text", want: "plain text"},
		"one link":     {in: "fix [#1](http://x/1) now", want: "fix #1 now"},
		"two links":    {in: "[@a](u) and [#2](v)", want: "@a and #2"},
		"bare bracket": {in: "array[0] access", want: "array[0] access"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripLinks(tt.in))
		})
	}
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "short", wrapText("short", 10, "  "))
	assert.Equal(t, "aaa bbb\n  ccc", wrapText("aaa bbb ccc", 8, "  "))
}

func strPtr(s string) *string { return &s }
