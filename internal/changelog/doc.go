// Package changelog turns parsed conventional commits into a release context
// and renders it.
//
// This package implements:
//   - the commit type taxonomy (section labels and visibility)
//   - per-commit classification into changelog entries
//   - issue and @mention linking through URL format strings
//   - grouping and ordering of entries and breaking-change notes
//   - markdown rendering and CHANGELOG.md prepending
//   - a colored terminal preview
//
// BuildContext is pure: it never touches git or the filesystem. Callers feed
// it commits and a seed Context carrying repository metadata and known tags.
package changelog
