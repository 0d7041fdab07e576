package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/bumpkit/internal/logging"
)

// legacyKeys maps .versionrc.json options onto config keys.
var legacyKeys = map[string]string{
	"tagPrefix":                  "tag_prefix",
	"infile":                     "infile",
	"header":                     "header",
	"releaseCommitMessageFormat": "release_commit_message_format",
	"commitAll":                  "commit_all",
	"gitTagFallback":             "git_tag_fallback",
	"dryRun":                     "dry_run",
	"packageFiles":               "package_files",
	"bumpFiles":                  "bump_files",
	"scripts":                    "scripts",
	"skip":                       "skip",
	"types":                      "changelog.types",
	"issuePrefixes":              "changelog.issue_prefixes",
	"issueUrlFormat":             "changelog.issue_url_format",
	"commitUrlFormat":            "changelog.commit_url_format",
	"compareUrlFormat":           "changelog.compare_url_format",
	"userUrlFormat":              "changelog.user_url_format",
}

// translateLegacy converts legacy options to config keys. String file
// entries ("bumpFiles": ["a.json"]) become targets, and "silent" becomes a
// log level. Unknown options are returned sorted.
func translateLegacy(raw map[string]interface{}) (map[string]interface{}, []string) {
	out := make(map[string]interface{}, len(raw))
	var ignored []string

	for key, value := range raw {
		switch key {
		case "silent":
			if on, ok := value.(bool); ok && on {
				out["log_level"] = logging.LevelNone
			}
			continue
		case "packageFiles", "bumpFiles":
			value = normalizeTargets(value)
		}

		mapped, ok := legacyKeys[key]
		if !ok {
			ignored = append(ignored, key)
			continue
		}
		out[mapped] = value
	}

	sort.Strings(ignored)
	return out, ignored
}

func normalizeTargets(value interface{}) interface{} {
	list, ok := value.([]interface{})
	if !ok {
		return value
	}
	out := make([]interface{}, len(list))
	for i, item := range list {
		if name, ok := item.(string); ok {
			out[i] = map[string]interface{}{"filename": name}
			continue
		}
		out[i] = item
	}
	return out
}

// MigrationResult describes the outcome of a migration operation
type MigrationResult struct {
	SourcePath string
	TargetPath string
	Success    bool
	DryRun     bool
	Message    string
	// Ignored lists legacy options with no equivalent.
	Ignored []string
}

// MigrateLegacyConfig converts a .versionrc.json file into a .bumpkit.yml.
// An existing YAML file is never overwritten.
func MigrateLegacyConfig(jsonPath, yamlPath string, dryRun bool) (*MigrationResult, error) {
	result := &MigrationResult{
		SourcePath: jsonPath,
		TargetPath: yamlPath,
		DryRun:     dryRun,
	}

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			result.Message = fmt.Sprintf("No legacy config found at %s", jsonPath)
			return result, nil
		}
		return nil, fmt.Errorf("failed to read legacy config: %w", err)
	}

	var raw map[string]interface{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(jsonData, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse legacy config: %w", err)
	}

	if _, err := os.Stat(yamlPath); err == nil {
		result.Message = fmt.Sprintf("%s already exists (skipped)", yamlPath)
		return result, nil
	}

	translated, ignored := translateLegacy(raw)
	result.Ignored = ignored

	if dryRun {
		result.Success = true
		result.Message = fmt.Sprintf("Would migrate %s → %s", jsonPath, yamlPath)
		return result, nil
	}

	nested := koanf.New(".")
	for key, value := range translated {
		if err := nested.Set(key, value); err != nil {
			return nil, fmt.Errorf("converting %s: %w", key, err)
		}
	}

	yamlData, err := yaml.Marshal(nested.Raw())
	if err != nil {
		return nil, fmt.Errorf("failed to convert to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(yamlPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	header := fmt.Sprintf("# bumpkit configuration\n# Migrated from %s\n\n", filepath.Base(jsonPath))
	if err := os.WriteFile(yamlPath, []byte(header+string(yamlData)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write YAML config: %w", err)
	}

	result.Success = true
	result.Message = fmt.Sprintf("Migrated %s → %s", jsonPath, yamlPath)
	return result, nil
}

// MigrateProjectConfig migrates the legacy config of the project in dir.
func MigrateProjectConfig(dir string, dryRun bool) (*MigrationResult, error) {
	return MigrateLegacyConfig(LegacyProjectConfigPath(dir), ProjectConfigPath(dir), dryRun)
}

// RemoveLegacyConfig renames a migrated legacy file to <name>.bak.
func RemoveLegacyConfig(jsonPath string, dryRun bool) error {
	if dryRun {
		return nil
	}
	if _, err := os.Stat(jsonPath); os.IsNotExist(err) {
		return nil
	}
	if err := os.Rename(jsonPath, jsonPath+".bak"); err != nil {
		return fmt.Errorf("failed to backup legacy config: %w", err)
	}
	return nil
}
