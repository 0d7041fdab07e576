package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// SectionStyle defines the color and icon for a changelog section.
type SectionStyle struct {
	Color *color.Color
	Icon  string
}

// sectionStyles maps default section titles to their terminal styling.
var sectionStyles = map[string]SectionStyle{
	"Features":                 {Color: color.New(color.FgGreen), Icon: "✓"},
	"Bug Fixes":                {Color: color.New(color.FgYellow), Icon: "⚡"},
	"Performance Improvements": {Color: color.New(color.FgCyan), Icon: "»"},
	"Reverts":                  {Color: color.New(color.FgMagenta), Icon: "↺"},
	breakingTitle:              {Color: color.New(color.FgRed, color.Bold), Icon: "⚠"},
}

var defaultStyle = SectionStyle{Color: color.New(color.FgBlue), Icon: "~"}

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Disable colors and icons
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

// FormatTerminal writes a release preview with color-coded sections.
// Links are shown as their label only.
func FormatTerminal(ctx *Context, w io.Writer, opts FormatOptions) error {
	width := resolveWidth(opts.MaxWidth)

	if err := writeReleaseHeader(ctx, w, opts); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, g := range ctx.NoteGroups {
		lines := make([]string, len(g.Notes))
		for i, n := range g.Notes {
			lines[i] = scoped(n.Scope, n.Text)
		}
		if err := writeSection(g.Title, lines, w, opts, width); err != nil {
			return err
		}
	}

	for _, g := range ctx.CommitGroups {
		lines := make([]string, len(g.Commits))
		for i, e := range g.Commits {
			text := stripLinks(e.Subject)
			if text == "" {
				text = e.Header
			}
			line := scoped(e.Scope, text)
			if e.ShortHash != "" {
				line += " (" + e.ShortHash + ")"
			}
			lines[i] = line
		}
		if err := writeSection(g.Title, lines, w, opts, width); err != nil {
			return err
		}
	}

	if len(ctx.NoteGroups) == 0 && len(ctx.CommitGroups) == 0 {
		_, err := fmt.Fprintln(w, "\n  (no changelog-worthy commits)")
		return err
	}
	return nil
}

func scoped(scope, text string) string {
	if scope == "" {
		return text
	}
	return scope + ": " + text
}

// writeReleaseHeader writes the version header line.
func writeReleaseHeader(ctx *Context, w io.Writer, opts FormatOptions) error {
	header := ctx.Version
	if header == "" {
		header = "Unreleased"
	} else {
		header = "v" + strings.TrimPrefix(header, "v")
	}
	if ctx.Date != "" {
		header = fmt.Sprintf("%s (%s)", header, ctx.Date)
	}

	if opts.Plain {
		_, err := fmt.Fprintf(w, "## %s\n", header)
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	_, err := fmt.Fprintf(w, "## %s\n", bold(header))
	return err
}

// writeSection writes a section header followed by its lines.
func writeSection(title string, lines []string, w io.Writer, opts FormatOptions, width int) error {
	style, ok := sectionStyles[title]
	if !ok {
		style = defaultStyle
	}

	if opts.Plain {
		if _, err := fmt.Fprintf(w, "\n### %s\n", title); err != nil {
			return err
		}
	} else {
		colored := style.Color.SprintFunc()
		if _, err := fmt.Fprintf(w, "\n%s %s\n", colored(style.Icon), colored(title)); err != nil {
			return err
		}
	}

	const prefix = "  - "
	for _, line := range lines {
		if opts.Plain {
			if _, err := fmt.Fprintf(w, "%s%s\n", prefix, line); err != nil {
				return err
			}
			continue
		}
		wrapped := wrapText(line, width-len(prefix), "    ")
		if _, err := fmt.Fprintf(w, "%s%s\n", prefix, style.Color.Sprint(wrapped)); err != nil {
			return err
		}
	}
	return nil
}

// stripLinks reduces markdown links "[label](url)" to their label.
func stripLinks(s string) string {
	var b strings.Builder
	for {
		open := strings.Index(s, "[")
		if open < 0 {
			break
		}
		mid := strings.Index(s[open:], "](")
		if mid < 0 {
			break
		}
		mid += open
		end := strings.Index(s[mid:], ")")
		if end < 0 {
			break
		}
		end += mid
		b.WriteString(s[:open])
		b.WriteString(s[open+1 : mid])
		s = s[end+1:]
	}
	b.WriteString(s)
	return b.String()
}

// resolveWidth determines the terminal width to use.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth {
		return text
	}

	var lines []string
	remaining := text

	for len(remaining) > maxWidth {
		// Find the last space within maxWidth
		breakPoint := maxWidth
		for i := maxWidth - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], " ")
	}

	if len(remaining) > 0 {
		lines = append(lines, remaining)
	}

	return strings.Join(lines, "\n"+indent)
}
