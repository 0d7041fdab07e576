package changelog

// Note is a breaking-change annotation attached to a commit.
type Note struct {
	Title string
	Text  string
}

// Reference is an issue reference found in a commit message, such as
// "closes #12" or "owner/repo#7".
type Reference struct {
	Action     string
	Owner      string
	Repository string
	Prefix     string
	Issue      string
	Raw        string
	// URL is filled in by BuildContext when references are linked.
	URL string
}

// Revert identifies the commit a revert commit undoes.
type Revert struct {
	Header string
	Hash   string
}

// Commit is a parsed commit as read from history.
type Commit struct {
	Type       string
	Scope      string
	Subject    string
	Header     string
	Body       string
	Footer     string
	Hash       string
	Notes      []Note
	References []Reference
	Mentions   []string
	// GitTags holds ref decorations in "tag: v1.0.0, tag: latest" form.
	GitTags string
	Revert  *Revert
}

// IsBreaking reports whether the commit carries breaking-change notes.
func (c Commit) IsBreaking() bool {
	return len(c.Notes) > 0
}

// TypeEntry maps a commit type, optionally restricted to one scope, to a
// changelog section.
type TypeEntry struct {
	Type    string `koanf:"type" yaml:"type" validate:"required"`
	Scope   string `koanf:"scope" yaml:"scope,omitempty"`
	Section string `koanf:"section" yaml:"section,omitempty"`
	Hidden  bool   `koanf:"hidden" yaml:"hidden,omitempty"`
}

// Config controls classification and linking.
type Config struct {
	Types            []TypeEntry `koanf:"types" yaml:"types" validate:"dive"`
	IssuePrefixes    []string    `koanf:"issue_prefixes" yaml:"issue_prefixes"`
	IssueURLFormat   string      `koanf:"issue_url_format" yaml:"issue_url_format"`
	CommitURLFormat  string      `koanf:"commit_url_format" yaml:"commit_url_format"`
	CompareURLFormat string      `koanf:"compare_url_format" yaml:"compare_url_format"`
	UserURLFormat    string      `koanf:"user_url_format" yaml:"user_url_format"`
}

// Default URL formats. Placeholders are substituted by ExpandTemplate.
const (
	DefaultIssueURLFormat   = "{{host}}/{{owner}}/{{repository}}/issues/{{id}}"
	DefaultCommitURLFormat  = "{{host}}/{{owner}}/{{repository}}/commit/{{hash}}"
	DefaultCompareURLFormat = "{{host}}/{{owner}}/{{repository}}/compare/{{previousTag}}...{{currentTag}}"
	DefaultUserURLFormat    = "{{host}}/{{user}}"
)

// DefaultTypes returns the built-in commit type taxonomy.
func DefaultTypes() []TypeEntry {
	return []TypeEntry{
		{Type: "feat", Section: "Features"},
		{Type: "feature", Section: "Features"},
		{Type: "fix", Section: "Bug Fixes"},
		{Type: "perf", Section: "Performance Improvements"},
		{Type: "revert", Section: "Reverts"},
		{Type: "docs", Section: "Documentation", Hidden: true},
		{Type: "style", Section: "Styles", Hidden: true},
		{Type: "chore", Section: "Miscellaneous Chores", Hidden: true},
		{Type: "refactor", Section: "Code Refactoring", Hidden: true},
		{Type: "test", Section: "Tests", Hidden: true},
		{Type: "build", Section: "Build System", Hidden: true},
		{Type: "ci", Section: "Continuous Integration", Hidden: true},
	}
}

// DefaultConfig returns the default classification settings.
func DefaultConfig() Config {
	return Config{
		Types:            DefaultTypes(),
		IssuePrefixes:    []string{"#"},
		IssueURLFormat:   DefaultIssueURLFormat,
		CommitURLFormat:  DefaultCommitURLFormat,
		CompareURLFormat: DefaultCompareURLFormat,
		UserURLFormat:    DefaultUserURLFormat,
	}
}

// withDefaults fills empty fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Types == nil {
		c.Types = d.Types
	}
	if len(c.IssuePrefixes) == 0 {
		c.IssuePrefixes = d.IssuePrefixes
	}
	if c.IssueURLFormat == "" {
		c.IssueURLFormat = d.IssueURLFormat
	}
	if c.CommitURLFormat == "" {
		c.CommitURLFormat = d.CommitURLFormat
	}
	if c.CompareURLFormat == "" {
		c.CompareURLFormat = d.CompareURLFormat
	}
	if c.UserURLFormat == "" {
		c.UserURLFormat = d.UserURLFormat
	}
	return c
}

// Entry is a commit classified for the changelog.
type Entry struct {
	// Type is the section label the entry is grouped under.
	Type       string
	Scope      string
	Subject    string
	Header     string
	Hash       string
	ShortHash  string
	CommitURL  string
	Notes      []Note
	References []Reference
}

// CommitGroup is one changelog section.
type CommitGroup struct {
	Title   string
	Commits []Entry
}

// NoteEntry is a note together with the entry it came from.
type NoteEntry struct {
	Note
	Scope     string
	Subject   string
	ShortHash string
}

// NoteGroup collects notes sharing a title.
type NoteGroup struct {
	Title string
	Notes []NoteEntry
}

// Context is everything a renderer needs for one release.
type Context struct {
	Version    string
	Title      string
	Date       string
	Host       string
	Owner      string
	Repository string

	// LinkReferences enables issue, mention and commit links. BuildContext
	// sets it when host, owner and repository are all known.
	LinkReferences bool
	// LinkCompare enables the compare link in the release header.
	LinkCompare bool
	IsPatch     bool

	// NewTag is the tag about to be created for Version.
	NewTag string
	// GitSemverTags lists known version tags, newest first.
	GitSemverTags []string
	CurrentTag    string
	PreviousTag   string
	CompareURL    string

	CommitGroups []CommitGroup
	NoteGroups   []NoteGroup
}
