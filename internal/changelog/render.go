package changelog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/spf13/afero"
)

// DefaultHeader opens a newly created changelog file.
const DefaultHeader = "# Changelog\n\nAll notable changes to this project will be documented in this file. See [Conventional Commits](https://conventionalcommits.org) for commit guidelines.\n"

// startOfLastRelease finds the first release heading or legacy anchor in an
// existing changelog; everything above it is the old header.
var startOfLastRelease = regexp.MustCompile(`(?m)(^#+ \[?[0-9]+\.[0-9]+\.[0-9]+|<a name=)`)

var trailingNewlines = regexp.MustCompile(`\n+$`)

const releaseTemplate = `{{- if .IsPatch}}###{{else}}##{{end}} {{if .LinkCompare}}[{{.Version}}]({{.CompareURL}}){{else}}{{.Version}}{{end}}
{{- if .Title}} "{{.Title}}"{{end}}{{if .Date}} ({{.Date}}){{end}}
{{range .NoteGroups}}
### ⚠ {{.Title}}

{{range .Notes}}* {{if .Scope}}**{{.Scope}}:** {{end}}{{.Text}}
{{end}}
{{- end}}
{{- range .CommitGroups}}
### {{.Title}}

{{range .Commits}}* {{if .Scope}}**{{.Scope}}:** {{end}}{{if .Subject}}{{.Subject}}{{else}}{{.Header}}{{end}}
{{- if .ShortHash}} ({{if .CommitURL}}[{{.ShortHash}}]({{.CommitURL}}){{else}}{{.ShortHash}}{{end}}){{end}}
{{- range $i, $ref := .References}}{{if eq $i 0}}, closes{{else}},{{end}} {{if $ref.URL}}[{{refLabel $ref}}]({{$ref.URL}}){{else}}{{refLabel $ref}}{{end}}{{end}}
{{end}}
{{- end}}
`

var release = template.Must(template.New("release").Funcs(template.FuncMap{
	"refLabel": referenceLabel,
}).Parse(releaseTemplate))

func referenceLabel(ref Reference) string {
	label := ref.Prefix + ref.Issue
	if ref.Owner != "" && ref.Repository != "" {
		label = ref.Owner + "/" + ref.Repository + label
	}
	return label
}

// Render writes the markdown for one release.
func Render(ctx *Context, w io.Writer) error {
	if ctx == nil {
		return errors.New("rendering changelog: nil context")
	}
	if err := release.Execute(w, ctx); err != nil {
		return fmt.Errorf("rendering changelog: %w", err)
	}
	return nil
}

// RenderString is a convenience function that renders to a string.
func RenderString(ctx *Context) (string, error) {
	var b strings.Builder
	if err := Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Prepend writes release above the previous releases in infile, replacing
// whatever preceded the first release heading with header. The file is
// created when missing. The result ends in exactly one newline.
func Prepend(fsys afero.Fs, infile, header, release string) error {
	old, err := afero.ReadFile(fsys, infile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", infile, err)
	}

	previous := string(old)
	if loc := startOfLastRelease.FindStringIndex(previous); loc != nil {
		previous = previous[loc[0]:]
	}

	if dir := filepath.Dir(infile); dir != "." && dir != "" {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	body := trailingNewlines.ReplaceAllString(release+previous, "\n")
	if err := afero.WriteFile(fsys, infile, []byte(header+"\n"+body), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", infile, err)
	}
	return nil
}
