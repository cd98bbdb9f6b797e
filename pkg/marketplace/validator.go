package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/freshtechbro/skillstack/pkg/logger"
	"github.com/freshtechbro/skillstack/pkg/plugins"
	"github.com/freshtechbro/skillstack/pkg/skills"
)

// CheckResult is the validation outcome for one plugin
type CheckResult struct {
	Plugin string
	Issues []string
}

// OK reports whether the plugin passed all checks
func (r CheckResult) OK() bool {
	return len(r.Issues) == 0
}

// Report aggregates every finding of a validation run. A single bad plugin
// never aborts the run; all checks are performed and all findings reported,
// so every issue can be fixed in one pass.
type Report struct {
	ManifestPath string
	Results      []CheckResult
	Global       []string // manifest-level findings: drift, duplicates
}

// OK reports whether the whole marketplace validated cleanly
func (r *Report) OK() bool {
	if len(r.Global) > 0 {
		return false
	}
	for _, result := range r.Results {
		if !result.OK() {
			return false
		}
	}
	return true
}

// Validate cross-checks the marketplace manifest against the plugin
// directories on disk. It returns an error only when the manifest itself
// cannot be read; every other finding lands in the report.
func Validate(ctx context.Context, manifestPath, pluginsRoot string) (*Report, error) {
	log := logger.G(ctx).WithField("manifest", manifestPath)

	content, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read marketplace manifest %s", manifestPath)
	}

	var doc Document
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse marketplace manifest %s", manifestPath)
	}

	report := &Report{ManifestPath: manifestPath}

	seenNames := make(map[string]bool)
	listedSources := make(map[string]bool)

	for _, entry := range doc.Plugins {
		result := CheckResult{Plugin: entry.Name}

		if seenNames[entry.Name] {
			report.Global = append(report.Global, fmt.Sprintf("duplicate plugin name %q in manifest", entry.Name))
		}
		seenNames[entry.Name] = true
		listedSources[sourceRelPath(entry.Source)] = true

		pluginDir := filepath.Join(pluginsRoot, filepath.FromSlash(sourceRelPath(entry.Source)))
		if _, err := os.Stat(pluginDir); err != nil {
			result.Issues = append(result.Issues, fmt.Sprintf("entry path %s does not exist", entry.Source))
			report.Results = append(report.Results, result)
			continue
		}

		result.Issues = append(result.Issues, checkPlugin(pluginDir, entry)...)
		report.Results = append(report.Results, result)
	}

	report.Global = append(report.Global, findOrphans(pluginsRoot, listedSources)...)

	if report.OK() {
		log.WithField("plugins", len(report.Results)).Debug("marketplace validated")
	}

	return report, nil
}

// checkPlugin re-validates one plugin directory: manifest well-formed, name
// matching the directory, required layout present, and every contained
// skill passing the skill rules. All checks run; none short-circuits.
func checkPlugin(pluginDir string, entry Entry) []string {
	var issues []string

	manifest, err := plugins.LoadManifest(pluginDir)
	if err != nil {
		issues = append(issues, err.Error())
	} else {
		if manifest.Name != filepath.Base(pluginDir) {
			issues = append(issues, fmt.Sprintf("manifest name %q does not match directory name %q", manifest.Name, filepath.Base(pluginDir)))
		}
		if manifest.Name != entry.Name {
			issues = append(issues, fmt.Sprintf("manifest name %q does not match marketplace entry %q", manifest.Name, entry.Name))
		}
		if manifest.Version == "" {
			issues = append(issues, "manifest is missing a version")
		}
		if manifest.Description == "" {
			issues = append(issues, "manifest is missing a description")
		}
	}

	skillsDir := filepath.Join(pluginDir, plugins.SkillsSubdir)
	skillEntries, err := os.ReadDir(skillsDir)
	if err != nil {
		issues = append(issues, "missing skills/ directory")
		return issues
	}

	skillCount := 0
	for _, skillEntry := range skillEntries {
		if !skillEntry.IsDir() {
			continue
		}
		skillCount++

		skillDir := filepath.Join(skillsDir, skillEntry.Name())
		skill, err := skills.Load(skillDir)
		if err != nil {
			issues = append(issues, fmt.Sprintf("skill %s: %v", skillEntry.Name(), err))
			continue
		}

		for _, violation := range skills.Validate(skill.Metadata(), skillEntry.Name()) {
			issues = append(issues, fmt.Sprintf("skill %s: %s", skillEntry.Name(), violation))
		}
	}

	if skillCount == 0 {
		issues = append(issues, "no skills found in skills/ directory")
	}

	return issues
}

// findOrphans detects on-disk plugin directories absent from the manifest,
// the drift left behind by a stale manifest.
func findOrphans(pluginsRoot string, listedSources map[string]bool) []string {
	var orphans []string

	for _, kind := range []string{plugins.IndividualSubdir, plugins.BundlesSubdir} {
		dirEntries, err := os.ReadDir(filepath.Join(pluginsRoot, kind))
		if err != nil {
			continue
		}

		for _, entry := range dirEntries {
			if !entry.IsDir() {
				continue
			}
			relPath := kind + "/" + entry.Name()
			if !listedSources[relPath] {
				orphans = append(orphans, fmt.Sprintf("plugin directory %s has no manifest entry", relPath))
			}
		}
	}

	sort.Strings(orphans)
	return orphans
}
