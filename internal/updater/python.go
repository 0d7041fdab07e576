package updater

import (
	"regexp"
	"strings"

	"github.com/pelletier/go-toml"
)

// pyprojectKeys are the tables a pyproject.toml may declare its version in,
// in lookup order.
var pyprojectKeys = []string{"project.version", "tool.poetry.version"}

var tomlVersionLine = regexp.MustCompile(`(version\s*=\s*["'])([^"']*)(["'])`)

// Python handles pyproject.toml files.
type Python struct{}

func (Python) ReadVersion(content string) (string, error) {
	_, version, err := locatePyprojectVersion(content)
	return version, err
}

// WriteVersion rewrites the version on the line go-toml reports for the key.
func (Python) WriteVersion(content, version string) (string, error) {
	line, _, err := locatePyprojectVersion(content)
	if err != nil {
		return "", err
	}

	lines := strings.SplitAfter(content, "\n")
	loc := tomlVersionLine.FindStringSubmatchIndex(lines[line])
	if loc == nil {
		return "", notFound("pyproject.toml")
	}
	lines[line] = lines[line][:loc[4]] + version + lines[line][loc[5]:]
	return strings.Join(lines, ""), nil
}

// locatePyprojectVersion returns the zero-based line index and value of the
// first version key present.
func locatePyprojectVersion(content string) (int, string, error) {
	tree, err := toml.Load(content)
	if err != nil {
		return 0, "", notFound("pyproject.toml")
	}

	lineCount := strings.Count(content, "\n") + 1
	for _, key := range pyprojectKeys {
		version, ok := tree.Get(key).(string)
		if !ok || version == "" {
			continue
		}
		pos := tree.GetPosition(key)
		if pos.Invalid() || pos.Line < 1 || pos.Line > lineCount {
			continue
		}
		return pos.Line - 1, version, nil
	}
	return 0, "", notFound("pyproject.toml")
}
