package updater

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// lockfileVersionPath is where npm lock files repeat the root package version.
var lockfileVersionPath = []string{"packages", "", "version"}

// JSON handles manifest files with a top-level "version" field. Lock files
// that also carry packages[""].version get both fields rewritten.
//
// Writes splice the new value into the original bytes so indentation, key
// order and trailing newlines are preserved.
type JSON struct{}

func (JSON) ReadVersion(content string) (string, error) {
	v := jsoniter.Get([]byte(content), "version")
	if v.LastError() != nil || v.ValueType() != jsoniter.StringValue {
		return "", notFound("json")
	}
	return v.ToString(), nil
}

func (JSON) WriteVersion(content, version string) (string, error) {
	data := []byte(content)

	data, err := spliceJSONString(data, []string{"version"}, version)
	if err != nil {
		return "", err
	}

	lock := jsoniter.Get(data, "packages", "", "version")
	if lock.LastError() == nil && lock.ValueType() == jsoniter.StringValue {
		if data, err = spliceJSONString(data, lockfileVersionPath, version); err != nil {
			return "", err
		}
	}
	return string(data), nil
}

var errJSONPathMissing = errors.New("json path not found")

// spliceJSONString replaces the string value at path with value.
func spliceJSONString(data []byte, path []string, value string) ([]byte, error) {
	start, end, err := locateJSONString(data, path)
	if err != nil {
		if errors.Is(err, errJSONPathMissing) {
			return nil, notFound("json")
		}
		return nil, fmt.Errorf("scanning json: %w", err)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data)+len(encoded))
	out = append(out, data[:start]...)
	out = append(out, encoded...)
	out = append(out, data[end:]...)
	return out, nil
}

// locateJSONString returns the byte range, quotes included, of the string
// value at path.
func locateJSONString(data []byte, path []string) (int, int, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return 0, 0, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return 0, 0, errJSONPathMissing
	}
	return seekJSONObject(dec, data, path)
}

// seekJSONObject expects the decoder positioned just inside an object.
func seekJSONObject(dec *json.Decoder, data []byte, path []string) (int, int, error) {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return 0, 0, err
		}
		key, _ := tok.(string)
		if key != path[0] {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return 0, 0, err
			}
			continue
		}

		if len(path) == 1 {
			start := int(dec.InputOffset())
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return 0, 0, err
			}
			end := int(dec.InputOffset())
			trimmed := bytes.TrimSpace(raw)
			if len(trimmed) == 0 || trimmed[0] != '"' {
				return 0, 0, errJSONPathMissing
			}
			// raw excludes the separator and whitespace before the value
			start = bytes.Index(data[start:end], trimmed) + start
			return start, start + len(trimmed), nil
		}

		tok, err = dec.Token()
		if err != nil {
			return 0, 0, err
		}
		if d, ok := tok.(json.Delim); ok && d == '{' {
			return seekJSONObject(dec, data, path[1:])
		}
		return 0, 0, errJSONPathMissing
	}
	return 0, 0, errJSONPathMissing
}
