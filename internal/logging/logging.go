// Package logging builds the zap logger used across bumpkit.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

const (
	// LevelDebug logs everything, including skipped files.
	LevelDebug = "debug"
	// LevelInfo logs release progress.
	LevelInfo = "info"
	// LevelNone disables logging.
	LevelNone = "none"
)

// GetLogger returns a console logger writing to stderr at the given level.
// Level names are those of zapcore plus "none".
func GetLogger(logLevel string) (*zap.Logger, error) {
	colored := term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == ""
	return New(logLevel, os.Stderr, colored)
}

// New returns a console logger writing to w.
func New(logLevel string, w io.Writer, colored bool) (*zap.Logger, error) {
	if logLevel == LevelNone {
		return zap.NewNop(), nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""
	enc.NameKey = ""
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	if colored {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zap.New(core), nil
}
