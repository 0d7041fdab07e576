package updater

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAML handles files with a top-level "version" key.
type YAML struct{}

func (YAML) ReadVersion(content string) (string, error) {
	node, err := yamlScalar(content, "version")
	if err != nil {
		return "", err
	}
	return node.Value, nil
}

func (YAML) WriteVersion(content, version string) (string, error) {
	return spliceYAMLScalar(content, version, "version")
}

// OpenAPI handles OpenAPI documents, whose version lives at info.version.
type OpenAPI struct{}

func (OpenAPI) ReadVersion(content string) (string, error) {
	node, err := yamlScalar(content, "info", "version")
	if err != nil {
		return "", err
	}
	return node.Value, nil
}

func (OpenAPI) WriteVersion(content, version string) (string, error) {
	return spliceYAMLScalar(content, version, "info", "version")
}

// yamlScalar walks mapping keys from the document root to a scalar node.
func yamlScalar(content string, path ...string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing yaml: %v", ErrVersionNotFound, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, notFound("yaml")
	}

	node := doc.Content[0]
	for _, key := range path {
		node = mappingValue(node, key)
		if node == nil {
			return nil, notFound("yaml")
		}
	}
	if node.Kind != yaml.ScalarNode || node.Value == "" {
		return nil, notFound("yaml")
	}
	return node, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// spliceYAMLScalar rewrites the scalar at path in place, keeping its quoting
// style and everything else in the document byte for byte.
func spliceYAMLScalar(content, version string, path ...string) (string, error) {
	node, err := yamlScalar(content, path...)
	if err != nil {
		return "", err
	}

	lines := strings.SplitAfter(content, "\n")
	if node.Line < 1 || node.Line > len(lines) {
		return "", notFound("yaml")
	}
	line := lines[node.Line-1]

	// yaml.v3 columns count characters, not bytes
	runes := []rune(line)
	col := node.Column - 1
	if col < 0 || col > len(runes) {
		return "", notFound("yaml")
	}
	start := len(string(runes[:col]))

	var raw, replacement string
	switch node.Style {
	case yaml.DoubleQuotedStyle:
		raw, replacement = `"`+node.Value+`"`, `"`+version+`"`
	case yaml.SingleQuotedStyle:
		raw, replacement = `'`+node.Value+`'`, `'`+version+`'`
	default:
		raw, replacement = node.Value, version
	}

	if !strings.HasPrefix(line[start:], raw) {
		return "", fmt.Errorf("%w: version scalar at line %d is not a simple value", ErrVersionNotFound, node.Line)
	}
	lines[node.Line-1] = line[:start] + replacement + line[start+len(raw):]
	return strings.Join(lines, ""), nil
}
