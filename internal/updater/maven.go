package updater

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Maven handles pom.xml files. Only the project's own <version> element
// (project > version) is considered; parent and dependency versions are
// left alone.
type Maven struct{}

func (Maven) ReadVersion(content string) (string, error) {
	start, end, err := locateProjectVersion([]byte(content))
	if err != nil {
		return "", err
	}
	return content[start:end], nil
}

func (Maven) WriteVersion(content, version string) (string, error) {
	start, end, err := locateProjectVersion([]byte(content))
	if err != nil {
		return "", err
	}
	var escaped strings.Builder
	if err := xml.EscapeText(&escaped, []byte(version)); err != nil {
		return "", err
	}
	return content[:start] + escaped.String() + content[end:], nil
}

// locateProjectVersion returns the byte range of the trimmed text inside
// project > version.
func locateProjectVersion(data []byte) (int, int, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var stack []string

	for {
		tok, err := dec.Token()
		if err != nil {
			// io.EOF included: no project version element
			return 0, 0, notFound("pom")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			if len(stack) != 2 || stack[0] != "project" || stack[1] != "version" {
				continue
			}
			textStart := int(dec.InputOffset())
			next, err := dec.Token()
			if err != nil {
				return 0, 0, notFound("pom")
			}
			text, ok := next.(xml.CharData)
			if !ok {
				return 0, 0, notFound("pom")
			}
			textEnd := int(dec.InputOffset())
			raw := string(data[textStart:textEnd])
			value := strings.TrimSpace(string(text))
			if value == "" {
				return 0, 0, notFound("pom")
			}
			offset := strings.Index(raw, value)
			if offset < 0 {
				// entity-escaped content; fall back to the raw text
				trimmed := strings.TrimSpace(raw)
				offset = strings.Index(raw, trimmed)
				return textStart + offset, textStart + offset + len(trimmed), nil
			}
			return textStart + offset, textStart + offset + len(value), nil
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}
