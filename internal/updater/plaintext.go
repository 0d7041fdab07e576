package updater

import "strings"

// PlainText treats the whole file as the version string.
type PlainText struct{}

func (PlainText) ReadVersion(content string) (string, error) {
	v := strings.TrimSpace(content)
	if v == "" {
		return "", notFound("version")
	}
	return v, nil
}

// WriteVersion replaces the content, keeping a trailing newline if the file
// had one.
func (PlainText) WriteVersion(content, version string) (string, error) {
	if strings.HasSuffix(content, "\n") {
		return version + "\n", nil
	}
	return version, nil
}
