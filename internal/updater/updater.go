// Package updater reads and rewrites the version string embedded in project
// files. Each supported file format is an Updater strategy; a Registry maps
// bump targets (explicit type, named custom strategy, or bare filename) to the
// strategy that handles them.
package updater

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedUpdater is returned when no strategy can be determined
	// for a target. Callers skip the target and continue the batch.
	ErrUnresolvedUpdater = errors.New("unable to resolve updater")

	// ErrVersionNotFound is returned by ReadVersion when the content does
	// not carry a version in the expected place.
	ErrVersionNotFound = errors.New("version not found")
)

// Updater reads and writes the version embedded in a file's content.
// WriteVersion must be consistent with ReadVersion: reading the written
// content yields the version that was written.
type Updater interface {
	ReadVersion(content string) (string, error)
	WriteVersion(content, version string) (string, error)
}

// Target describes a file whose version should be bumped. At most one of
// Updater, UpdaterRef and Type is consulted, in that order; with none set
// the strategy is inferred from Filename.
type Target struct {
	Filename   string  `koanf:"filename" yaml:"filename" validate:"required"`
	Type       string  `koanf:"type" yaml:"type,omitempty"`
	UpdaterRef string  `koanf:"updater" yaml:"updater,omitempty"`
	Updater    Updater `koanf:"-" yaml:"-"`
}

// String identifies the target in log output.
func (t Target) String() string {
	switch {
	case t.UpdaterRef != "":
		return fmt.Sprintf("%s (updater %s)", t.Filename, t.UpdaterRef)
	case t.Type != "":
		return fmt.Sprintf("%s (type %s)", t.Filename, t.Type)
	default:
		return t.Filename
	}
}

// Resolved pairs a target filename with its strategy.
type Resolved struct {
	Filename string
	Updater  Updater
}

// LoadError reports a custom updater that could not be loaded. It wraps
// fs.ErrNotExist when the definition file is missing.
type LoadError struct {
	Ref string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading custom updater %q: %v", e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// notFound builds the ErrVersionNotFound error for a strategy.
func notFound(format string) error {
	return fmt.Errorf("%w: failed to read the version field in your %s file - is it present?", ErrVersionNotFound, format)
}
