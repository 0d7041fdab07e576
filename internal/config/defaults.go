package config

import (
	"github.com/ariel-frischer/bumpkit/internal/changelog"
	"github.com/ariel-frischer/bumpkit/internal/logging"
)

// DefaultReleaseCommitMessageFormat is the message of the release commit.
// {{currentTag}} is replaced with the new version.
const DefaultReleaseCommitMessageFormat = "chore(release): {{currentTag}}"

// DefaultPackageFiles are read for the current version, in order.
var DefaultPackageFiles = []string{"package.json", "bower.json", "manifest.json", "VERSION"}

// DefaultBumpFiles are rewritten with the new version.
var DefaultBumpFiles = []string{
	"package.json", "bower.json", "manifest.json", "VERSION",
	"package-lock.json", "npm-shrinkwrap.json",
}

// GetDefaults returns the default configuration as koanf key/value pairs.
func GetDefaults() map[string]interface{} {
	cl := changelog.DefaultConfig()
	return map[string]interface{}{
		"tag_prefix":                    "v",
		"remote":                        "origin",
		"infile":                        "CHANGELOG.md",
		"header":                        changelog.DefaultHeader,
		"release_commit_message_format": DefaultReleaseCommitMessageFormat,
		"commit_all":                    false,
		"git_tag_fallback":              true,
		"dry_run":                       false,
		"log_level":                     logging.LevelInfo,
		"concurrency":                   4,
		"package_files":                 targetMaps(DefaultPackageFiles),
		"bump_files":                    targetMaps(DefaultBumpFiles),
		"skip.bump":                     false,
		"skip.changelog":                false,
		"skip.commit":                   false,
		"skip.tag":                      false,
		"changelog.types":               typeMaps(cl.Types),
		"changelog.issue_prefixes":      cl.IssuePrefixes,
		"changelog.issue_url_format":    cl.IssueURLFormat,
		"changelog.commit_url_format":   cl.CommitURLFormat,
		"changelog.compare_url_format":  cl.CompareURLFormat,
		"changelog.user_url_format":     cl.UserURLFormat,
	}
}

func targetMaps(files []string) []interface{} {
	out := make([]interface{}, len(files))
	for i, f := range files {
		out[i] = map[string]interface{}{"filename": f}
	}
	return out
}

func typeMaps(types []changelog.TypeEntry) []interface{} {
	out := make([]interface{}, len(types))
	for i, t := range types {
		m := map[string]interface{}{"type": t.Type, "section": t.Section, "hidden": t.Hidden}
		if t.Scope != "" {
			m["scope"] = t.Scope
		}
		out[i] = m
	}
	return out
}

// GetDefaultConfigTemplate returns a commented project config.
func GetDefaultConfigTemplate() string {
	return `# bumpkit configuration
# Environment variables override these values: BUMPKIT_TAG_PREFIX, BUMPKIT_SKIP__TAG, ...

tag_prefix: v                         # Tags are <tag_prefix><version>
remote: origin                        # Remote used to build changelog links
infile: CHANGELOG.md                  # Changelog file, created if missing
release_commit_message_format: "chore(release): {{currentTag}}"
commit_all: false                     # Commit every tracked change, not just bumped files
git_tag_fallback: true                # Use the latest tag when no package file has a version
log_level: info                       # debug | info | warn | error | none

# Files read for the current version (first match wins)
package_files:
  - filename: package.json
  - filename: VERSION

# Files rewritten with the new version
bump_files:
  - filename: package.json
  - filename: package-lock.json
  - filename: VERSION
  # - filename: charts/app/Chart.yaml
  #   type: yaml
  # - filename: deploy/values.yaml
  #   updater: image-tag

# Custom regex updaters, referenced by name from bump_files
updaters: {}
  # image-tag:
  #   pattern: 'tag: "([^"]+)"'

# Lifecycle scripts: prerelease, prebump, postbump, prechangelog,
# postchangelog, precommit, postcommit, pretag, posttag
scripts: {}

skip:
  bump: false
  changelog: false
  commit: false
  tag: false

changelog:
  issue_prefixes: ["#"]
  # types:
  #   - {type: feat, section: Features}
  #   - {type: fix, section: Bug Fixes}
  #   - {type: chore, hidden: true}
`
}
