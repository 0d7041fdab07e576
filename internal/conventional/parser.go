// Package conventional extracts the parts of a conventional commit message
// that release tooling needs: the header (type, scope, subject, "!" marker),
// breaking-change notes, issue references, mentions and revert metadata.
//
// Header parsing is delegated to go-conventionalcommits. Body and footer
// handling is loose: footers begin at the first note keyword or
// trailer-style paragraph, and references are found anywhere in the message.
package conventional

import (
	"regexp"
	"strings"

	cc "github.com/leodido/go-conventionalcommits"
	ccparser "github.com/leodido/go-conventionalcommits/parser"

	"github.com/ariel-frischer/bumpkit/internal/changelog"
)

// Options configures a Parser.
type Options struct {
	// IssuePrefixes are the strings that introduce an issue number.
	IssuePrefixes []string
	// NoteKeywords start a breaking-change note in the footer.
	NoteKeywords []string
	// ReferenceActions are verbs recorded as a reference's action.
	ReferenceActions []string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		IssuePrefixes: []string{"#"},
		NoteKeywords:  []string{"BREAKING CHANGE", "BREAKING-CHANGE"},
		ReferenceActions: []string{
			"close", "closes", "closed",
			"fix", "fixes", "fixed",
			"resolve", "resolves", "resolved",
		},
	}
}

var (
	revertPattern  = regexp.MustCompile(`(?i)^(?:Revert|revert:)\s"?([\s\S]+?)"?\s*This reverts commit (\w*)\.`)
	trailerPattern = regexp.MustCompile(`^[\w-]+(?:: | #)`)
	mentionPattern = regexp.MustCompile(`@([\w-]+)`)
	typePattern    = regexp.MustCompile(`^\w+$`)
)

// Parser parses raw commit messages. The header machine keeps state between
// calls, so a Parser must not be used from several goroutines at once.
type Parser struct {
	machine     cc.Machine
	notePattern *regexp.Regexp
	refPattern  *regexp.Regexp
}

// New builds a parser. Zero-valued fields of opts fall back to
// DefaultOptions.
func New(opts Options) *Parser {
	def := DefaultOptions()
	if len(opts.IssuePrefixes) == 0 {
		opts.IssuePrefixes = def.IssuePrefixes
	}
	if len(opts.NoteKeywords) == 0 {
		opts.NoteKeywords = def.NoteKeywords
	}
	if len(opts.ReferenceActions) == 0 {
		opts.ReferenceActions = def.ReferenceActions
	}

	return &Parser{
		machine: ccparser.NewMachine(
			ccparser.WithTypes(cc.TypesFreeForm),
			ccparser.WithBestEffort(),
		),
		notePattern: regexp.MustCompile(`^[\s|*]*(` + alternation(opts.NoteKeywords) + `)[:\s]+(.*)`),
		refPattern: regexp.MustCompile(`(?i)(?:\b(` + alternation(opts.ReferenceActions) + `)\s+)?` +
			`(?:([\w.-]+)/([\w.-]+))?(` + alternation(opts.IssuePrefixes) + `)([a-z0-9]+)`),
	}
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// Parse parses one commit message. Messages without a conventional header
// yield a commit with only Header, Body and Footer set (plus revert data
// when it is a revert).
func (p *Parser) Parse(message string) changelog.Commit {
	message = strings.TrimSpace(strings.ReplaceAll(message, "\r\n", "\n"))
	header, rest, _ := strings.Cut(message, "\n")

	c := changelog.Commit{Header: strings.TrimSpace(header)}

	if m := revertPattern.FindStringSubmatch(message); m != nil {
		c.Revert = &changelog.Revert{Header: m[1], Hash: m[2]}
	}

	var exclamation bool
	if c.Revert == nil {
		exclamation = p.parseHeader(&c)
	}

	bodyLines, footerLines := splitFooter(strings.Split(strings.Trim(rest, "\n"), "\n"), p.notePattern)
	c.Body = strings.TrimSpace(strings.Join(bodyLines, "\n"))
	c.Footer = strings.TrimSpace(strings.Join(footerLines, "\n"))

	var plain []string
	c.Notes, plain = p.extractNotes(footerLines)
	if exclamation && len(c.Notes) == 0 {
		c.Notes = []changelog.Note{{Title: "BREAKING CHANGE", Text: c.Subject}}
	}

	c.References = p.extractReferences(append([]string{c.Header, c.Body}, plain...))
	for _, m := range mentionPattern.FindAllStringSubmatch(message, -1) {
		c.Mentions = append(c.Mentions, m[1])
	}
	return c
}

// parseHeader fills type, scope and subject and reports the "!" marker.
// Headers whose type is not a single word are left unparsed.
func (p *Parser) parseHeader(c *changelog.Commit) bool {
	if c.Header == "" {
		return false
	}
	msg, err := p.machine.Parse([]byte(c.Header))
	if err != nil || msg == nil {
		return false
	}
	commit, ok := msg.(*cc.ConventionalCommit)
	if !ok || !typePattern.MatchString(commit.Type) || commit.Description == "" {
		return false
	}

	c.Type = commit.Type
	if commit.Scope != nil {
		c.Scope = *commit.Scope
	}
	c.Subject = commit.Description
	return commit.Exclamation
}

// splitFooter splits the lines after the header into body and footer. The
// footer starts at the first note keyword line, or at the first paragraph
// opening with a trailer such as "Closes #1" or "Reviewed-by: x".
func splitFooter(lines []string, note *regexp.Regexp) ([]string, []string) {
	for i, line := range lines {
		paragraphStart := i == 0 || strings.TrimSpace(lines[i-1]) == ""
		if note.MatchString(line) || (paragraphStart && trailerPattern.MatchString(line)) {
			return lines[:i], lines[i:]
		}
	}
	return lines, nil
}

// extractNotes collects notes from footer lines. A note runs until the next
// note or trailer line. The remaining lines are returned for reference
// scanning.
func (p *Parser) extractNotes(footer []string) ([]changelog.Note, []string) {
	var (
		notes   []changelog.Note
		plain   []string
		current *changelog.Note
	)
	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(current.Text)
			notes = append(notes, *current)
			current = nil
		}
	}

	for _, line := range footer {
		if m := p.notePattern.FindStringSubmatch(line); m != nil {
			flush()
			current = &changelog.Note{Title: m[1], Text: m[2]}
			continue
		}
		if current != nil && !trailerPattern.MatchString(line) {
			current.Text += "\n" + line
			continue
		}
		flush()
		plain = append(plain, line)
	}
	flush()
	return notes, plain
}

// extractReferences finds issue references, dropping duplicates.
func (p *Parser) extractReferences(texts []string) []changelog.Reference {
	var refs []changelog.Reference
	seen := make(map[string]bool)

	for _, text := range texts {
		for _, m := range p.refPattern.FindAllStringSubmatch(text, -1) {
			ref := changelog.Reference{
				Action:     m[1],
				Owner:      m[2],
				Repository: m[3],
				Prefix:     m[4],
				Issue:      m[5],
				Raw:        strings.TrimSpace(m[0]),
			}
			key := ref.Owner + "/" + ref.Repository + ref.Prefix + ref.Issue
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, ref)
		}
	}
	return refs
}
