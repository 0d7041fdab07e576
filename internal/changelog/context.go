package changelog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ariel-frischer/bumpkit/internal/semver"
)

const (
	shortHashLength = 7
	breakingTitle   = "BREAKING CHANGES"
)

var (
	releaseAsPattern  = regexp.MustCompile(`(?i)release-as:\s*\w*@?([0-9]+\.[0-9]+\.[0-9a-z]+(-[0-9a-z.]+)?)\s*`)
	versionTagPattern = regexp.MustCompile(`(?i)tag:\s*([^,\s)]+)`)
	mentionPattern    = regexp.MustCompile(`\B@([a-z0-9](?:-?[a-z0-9/]){0,38})`)
)

// ReleaseAs returns the version pinned by a "Release-As:" directive in the
// commit's footer or body.
func ReleaseAs(c Commit) (string, bool) {
	for _, text := range []string{c.Footer, c.Body} {
		if m := releaseAsPattern.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// FindTypeEntry returns the taxonomy entry for a commit. Reverts are looked
// up as "revert"; an entry that names a scope only matches that scope.
func FindTypeEntry(types []TypeEntry, c Commit) (TypeEntry, bool) {
	key := c.Type
	if c.Revert != nil {
		key = "revert"
	}
	key = strings.ToLower(key)

	for _, t := range types {
		if t.Type != key {
			continue
		}
		if t.Scope != "" && t.Scope != c.Scope {
			continue
		}
		return t, true
	}
	return TypeEntry{}, false
}

// Transform classifies one commit. It returns false when the commit is not
// changelog-worthy: no breaking notes, no visible taxonomy entry and no
// release-as directive.
func Transform(c Commit, cfg Config, ctx *Context) (Entry, bool) {
	keep := false
	if _, ok := ReleaseAs(c); ok {
		keep = true
	}

	notes := make([]Note, 0, len(c.Notes))
	for _, n := range c.Notes {
		keep = true
		notes = append(notes, Note{Title: breakingTitle, Text: n.Text})
	}

	entry, found := FindTypeEntry(cfg.Types, c)
	if !keep && (!found || entry.Hidden) {
		return Entry{}, false
	}

	e := Entry{
		Type:    c.Type,
		Scope:   c.Scope,
		Subject: c.Subject,
		Header:  c.Header,
		Hash:    c.Hash,
		Notes:   notes,
	}
	if found && entry.Section != "" {
		e.Type = entry.Section
	}
	if e.Scope == "*" {
		e.Scope = ""
	}
	e.ShortHash = c.Hash
	if len(e.ShortHash) > shortHashLength {
		e.ShortHash = e.ShortHash[:shortHashLength]
	}

	var linked map[string]bool
	e.Subject, linked = linkIssues(e.Subject, cfg, ctx)
	if ctx.LinkReferences {
		e.Subject = linkMentions(e.Subject, cfg, ctx)
		if e.Hash != "" {
			e.CommitURL = ExpandTemplate(cfg.CommitURLFormat, map[string]string{
				"host":       ctx.Host,
				"owner":      ctx.Owner,
				"repository": ctx.Repository,
				"hash":       e.Hash,
			})
		}
	}

	for _, ref := range c.References {
		if linked[ref.Prefix+ref.Issue] {
			continue
		}
		if ctx.LinkReferences {
			ref.URL = referenceURL(ref, cfg, ctx)
		}
		e.References = append(e.References, ref)
	}
	return e, true
}

// linkIssues reports which prefix+issue pairs a subject names and, when the
// context links references, turns them into markdown links.
func linkIssues(subject string, cfg Config, ctx *Context) (string, map[string]bool) {
	linked := make(map[string]bool)
	if subject == "" || len(cfg.IssuePrefixes) == 0 {
		return subject, linked
	}

	quoted := make([]string, len(cfg.IssuePrefixes))
	for i, p := range cfg.IssuePrefixes {
		quoted[i] = regexp.QuoteMeta(p)
	}
	re, err := regexp.Compile(`(` + strings.Join(quoted, "|") + `)([a-z0-9]+)`)
	if err != nil {
		return subject, linked
	}

	out := re.ReplaceAllStringFunc(subject, func(match string) string {
		m := re.FindStringSubmatch(match)
		prefix, issue := m[1], m[2]
		linked[prefix+issue] = true
		if !ctx.LinkReferences {
			return match
		}
		url := ExpandTemplate(cfg.IssueURLFormat, map[string]string{
			"host":       ctx.Host,
			"owner":      ctx.Owner,
			"repository": ctx.Repository,
			"id":         issue,
			"prefix":     prefix,
		})
		return "[" + prefix + issue + "](" + url + ")"
	})
	return out, linked
}

// linkMentions links @user mentions. Handles containing a slash, such as
// @org/team, are left as plain text.
func linkMentions(subject string, cfg Config, ctx *Context) string {
	return mentionPattern.ReplaceAllStringFunc(subject, func(match string) string {
		user := match[1:]
		if strings.Contains(user, "/") {
			return match
		}
		url := ExpandTemplate(cfg.UserURLFormat, map[string]string{
			"host":       ctx.Host,
			"owner":      ctx.Owner,
			"repository": ctx.Repository,
			"user":       user,
		})
		return "[@" + user + "](" + url + ")"
	})
}

// referenceURL expands the issue URL for a reference. A reference naming its
// own owner and repository points there instead of the release repository.
func referenceURL(ref Reference, cfg Config, ctx *Context) string {
	owner, repository := ctx.Owner, ctx.Repository
	if ref.Owner != "" {
		owner = ref.Owner
	}
	if ref.Repository != "" {
		repository = ref.Repository
	}
	return ExpandTemplate(cfg.IssueURLFormat, map[string]string{
		"host":       ctx.Host,
		"owner":      owner,
		"repository": repository,
		"id":         ref.Issue,
		"prefix":     ref.Prefix,
	})
}

// BuildContext classifies commits (newest first) and assembles the release
// context. prior seeds the repository metadata, version, new tag and known
// tags; it is not modified.
func BuildContext(commits []Commit, cfg Config, prior Context) (*Context, error) {
	cfg = cfg.withDefaults()
	for i, t := range cfg.Types {
		if t.Type == "" {
			return nil, fmt.Errorf("commit type entry %d (section %q) has no type", i, t.Section)
		}
	}

	ctx := prior
	ctx.GitSemverTags = append([]string(nil), prior.GitSemverTags...)
	ctx.CommitGroups = nil
	ctx.NoteGroups = nil
	if ctx.Host != "" && ctx.Owner != "" && ctx.Repository != "" {
		ctx.LinkReferences = true
	}
	if ctx.Version != "" {
		if v, err := semver.Parse(ctx.Version); err == nil {
			ctx.IsPatch = v.Patch() != 0
		}
	}

	entries := make([]Entry, 0, len(commits))
	var key *Commit
	for i := range commits {
		if key == nil && versionTagPattern.MatchString(commits[i].GitTags) {
			key = &commits[i]
		}
		if e, ok := Transform(commits[i], cfg, &ctx); ok {
			entries = append(entries, e)
		}
	}

	ctx.CommitGroups = groupCommits(entries, cfg.Types)
	ctx.NoteGroups = groupNotes(entries)

	FinalizeContext(&ctx, cfg, key)
	return &ctx, nil
}

// FinalizeContext resolves the current and previous tags and the compare URL.
// With a key commit whose decorations carry a tag, that tag is current and
// the next older known tag is previous. Without one, the new tag is current
// and the newest known tag is previous.
func FinalizeContext(ctx *Context, cfg Config, key *Commit) {
	if key != nil {
		if m := versionTagPattern.FindStringSubmatch(key.GitTags); m != nil {
			ctx.CurrentTag = m[1]
			ctx.PreviousTag = ""
			for i, tag := range ctx.GitSemverTags {
				if tag == ctx.CurrentTag && i+1 < len(ctx.GitSemverTags) {
					ctx.PreviousTag = ctx.GitSemverTags[i+1]
					break
				}
			}
		}
	} else {
		ctx.CurrentTag = ctx.NewTag
		ctx.PreviousTag = ""
		if len(ctx.GitSemverTags) > 0 {
			ctx.PreviousTag = ctx.GitSemverTags[0]
		}
	}

	ctx.LinkCompare = ctx.LinkReferences && ctx.CurrentTag != "" && ctx.PreviousTag != ""
	ctx.CompareURL = ""
	if ctx.LinkCompare {
		format := cfg.CompareURLFormat
		if format == "" {
			format = DefaultCompareURLFormat
		}
		ctx.CompareURL = ExpandTemplate(format, map[string]string{
			"host":        ctx.Host,
			"owner":       ctx.Owner,
			"repository":  ctx.Repository,
			"previousTag": ctx.PreviousTag,
			"currentTag":  ctx.CurrentTag,
		})
	}
}

// sectionOrder lists each declared section once, in taxonomy order.
func sectionOrder(types []TypeEntry) map[string]int {
	order := make(map[string]int)
	for _, t := range types {
		if t.Section == "" {
			continue
		}
		if _, ok := order[t.Section]; !ok {
			order[t.Section] = len(order)
		}
	}
	return order
}

// groupCommits groups entries by section. Groups follow taxonomy order with
// unknown sections last in order of first appearance; entries within a group
// are ordered by scope, then subject.
func groupCommits(entries []Entry, types []TypeEntry) []CommitGroup {
	var groups []CommitGroup
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.Type]
		if !ok {
			i = len(groups)
			index[e.Type] = i
			groups = append(groups, CommitGroup{Title: e.Type})
		}
		groups[i].Commits = append(groups[i].Commits, e)
	}

	order := sectionOrder(types)
	rank := func(title string) int {
		if r, ok := order[title]; ok {
			return r
		}
		return len(order)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return rank(groups[i].Title) < rank(groups[j].Title)
	})

	for _, g := range groups {
		sort.SliceStable(g.Commits, func(i, j int) bool {
			a, b := g.Commits[i], g.Commits[j]
			if a.Scope != b.Scope {
				return a.Scope < b.Scope
			}
			return a.Subject < b.Subject
		})
	}
	return groups
}

// groupNotes collects notes by title, titles ascending. Notes within a group
// are ordered by text, then scope, then subject.
func groupNotes(entries []Entry) []NoteGroup {
	var groups []NoteGroup
	index := make(map[string]int)
	for _, e := range entries {
		for _, n := range e.Notes {
			i, ok := index[n.Title]
			if !ok {
				i = len(groups)
				index[n.Title] = i
				groups = append(groups, NoteGroup{Title: n.Title})
			}
			groups[i].Notes = append(groups[i].Notes, NoteEntry{
				Note:      n,
				Scope:     e.Scope,
				Subject:   e.Subject,
				ShortHash: e.ShortHash,
			})
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Title < groups[j].Title
	})
	for _, g := range groups {
		sort.SliceStable(g.Notes, func(i, j int) bool {
			return compareNotes(g.Notes[i], g.Notes[j]) < 0
		})
	}
	return groups
}

func compareNotes(a, b NoteEntry) int {
	for _, pair := range [][2]string{
		{a.Text, b.Text},
		{a.Scope, b.Scope},
		{a.Subject, b.Subject},
	} {
		if c := strings.Compare(pair[0], pair[1]); c != 0 {
			return c
		}
	}
	return 0
}
