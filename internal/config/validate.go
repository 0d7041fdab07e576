package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidationError describes a config file that cannot be used. Line is set
// for syntax errors, Field for bad values.
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
	}
}

var fieldMessages = map[string]func(validator.FieldError) string{
	"required":     func(validator.FieldError) string { return "is required" },
	"nowhitespace": func(validator.FieldError) string { return "must not contain whitespace" },
	"min":          func(fe validator.FieldError) string { return "must be at least " + fe.Param() },
	"max":          func(fe validator.FieldError) string { return "must be at most " + fe.Param() },
	"oneof":        func(fe validator.FieldError) string { return "must be one of: " + fe.Param() },
}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("nowhitespace", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsSpace) < 0
	})
	return v
}

// validateYAMLFile reports a syntax error in path with its position. A
// missing or blank file is valid.
func validateYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case errors.Is(err, os.ErrPermission):
		return &ValidationError{FilePath: path, Message: "permission denied"}
	case err != nil:
		return &ValidationError{FilePath: path, Message: err.Error()}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var node yaml.Node
	err = yaml.Unmarshal(data, &node)
	if err == nil {
		return nil
	}
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{FilePath: path, Message: strings.Join(typeErr.Errors, "; ")}
	}
	line, column, msg := yamlPosition(err.Error())
	return &ValidationError{FilePath: path, Line: line, Column: column, Message: msg}
}

// yamlPosition splits "yaml: line 5: column 3: msg" into its parts. Column
// defaults to 1 when only the line is known.
func yamlPosition(text string) (line, column int, msg string) {
	rest, ok := strings.CutPrefix(text, "yaml: line ")
	if !ok {
		return 0, 0, text
	}
	num, rest, ok := strings.Cut(rest, ": ")
	if !ok {
		return 0, 0, text
	}
	line, err := strconv.Atoi(num)
	if err != nil {
		return 0, 0, text
	}
	column = 1
	if after, found := strings.CutPrefix(rest, "column "); found {
		if num, tail, ok := strings.Cut(after, ": "); ok {
			if c, err := strconv.Atoi(num); err == nil {
				column, rest = c, tail
			}
		}
	}
	return line, column, rest
}

// validateValues checks struct constraints first, then the parts that need
// more than a tag: custom updater patterns and lifecycle hook names.
func validateValues(cfg *Configuration, path string) error {
	if err := structValidator.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return &ValidationError{FilePath: path, Message: err.Error()}
		}
		fe := fieldErrs[0]
		msg := "failed validation: " + fe.Tag()
		if format, ok := fieldMessages[fe.Tag()]; ok {
			msg = format(fe)
		}
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		return &ValidationError{FilePath: path, Field: field, Message: msg}
	}

	for name, def := range cfg.Updaters {
		if _, err := def.Build(name); err != nil {
			return &ValidationError{FilePath: path, Field: "updaters." + name, Message: err.Error()}
		}
	}
	if _, err := cfg.Hooks(); err != nil {
		return &ValidationError{FilePath: path, Field: "scripts", Message: err.Error()}
	}
	return nil
}
