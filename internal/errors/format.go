package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// style wraps text in color when enabled.
type style struct {
	on bool
}

func (s style) paint(c *color.Color, text string) string {
	if !s.on {
		return text
	}
	return c.Sprint(text)
}

var (
	errorLabel  = color.New(color.FgRed, color.Bold)
	errorMsg    = color.New(color.FgRed)
	fixLabel    = color.New(color.FgGreen, color.Bold)
	usageLabel  = color.New(color.FgCyan, color.Bold)
	usageText   = color.New(color.FgCyan)
	bullet      = color.New(color.FgGreen)
	categoryFmt = color.New(color.FgYellow)
)

// FormatError formats a CLIError for the terminal. Colors follow fatih/color
// detection, so they are dropped when stderr is not a terminal.
func FormatError(err *CLIError) string {
	if err == nil {
		return ""
	}
	return formatError(err, style{on: !color.NoColor})
}

// FormatErrorPlain formats a CLIError without colors.
func FormatErrorPlain(err *CLIError) string {
	if err == nil {
		return ""
	}
	return formatError(err, style{})
}

func formatError(err *CLIError, s style) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s [%s]: %s\n",
		s.paint(errorLabel, "Error"),
		s.paint(categoryFmt, err.Category.String()),
		s.paint(errorMsg, err.Message))

	if err.Usage != "" {
		fmt.Fprintf(&sb, "\n%s%s\n", s.paint(usageLabel, "Usage: "), s.paint(usageText, err.Usage))
	}

	if len(err.Remediation) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", s.paint(fixLabel, "To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&sb, "  %s %s\n", s.paint(bullet, "•"), step)
		}
	}

	return sb.String()
}

// FprintError prints a formatted CLIError to the given writer.
func FprintError(w io.Writer, err *CLIError) {
	if err == nil {
		return
	}
	fmt.Fprint(w, FormatError(err))
}
