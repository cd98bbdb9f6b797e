package plugins

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/freshtechbro/skillstack/pkg/archive"
	"github.com/freshtechbro/skillstack/pkg/catalog"
	"github.com/freshtechbro/skillstack/pkg/logger"
	"github.com/freshtechbro/skillstack/pkg/skills"
)

// Generator materializes plugin directories and their archives from skills.
// All configuration is passed in explicitly; a Generator holds no global
// state and two Generators never interfere.
type Generator struct {
	skillsDir  string
	pluginsDir string
	catalog    *catalog.Catalog
}

// NewGenerator creates a plugin generator. skillsDir is the root containing
// one directory per skill; pluginsDir is the output root that receives
// individual/ and bundles/ subdirectories.
func NewGenerator(skillsDir, pluginsDir string, cat *catalog.Catalog) *Generator {
	return &Generator{
		skillsDir:  skillsDir,
		pluginsDir: pluginsDir,
		catalog:    cat,
	}
}

// Result describes one generated plugin
type Result struct {
	Name     string
	Dir      string
	Archive  string
	Skills   []string
	Commands []string
	Agents   []string
}

// GeneratePlugin builds the individual plugin for one skill: manifest, skill
// copy, command and agent descriptors, and the plugin archive. Re-running on
// unchanged input produces byte-identical output.
func (g *Generator) GeneratePlugin(ctx context.Context, skillName string) (*Result, error) {
	log := logger.G(ctx).WithField("skill", skillName)

	skill, err := g.loadValidated(skillName)
	if err != nil {
		return nil, err
	}

	info := g.catalog.SkillInfoFor(skill.Name)

	commands, err := synthesizeCommands(skill, info, "")
	if err != nil {
		return nil, err
	}
	agents := []AgentDescriptor{synthesizeAgent(skill, info)}

	pluginDir := filepath.Join(g.pluginsDir, IndividualSubdir, skill.Name)
	log.WithField("dir", pluginDir).Debug("materializing plugin directory")

	manifest := &Manifest{
		Name:        skill.Name,
		Version:     manifestVersion,
		Description: skill.Description,
		Author:      Author{Name: g.catalog.Author},
		License:     g.catalog.License,
		Homepage:    g.catalog.Marketplace.Homepage,
		Repository:  g.catalog.Marketplace.Repository,
		Keywords:    info.Tags,
		Category:    info.Category,
	}

	result, err := g.materialize(pluginDir, manifest, []*skills.Skill{skill}, commands, agents)
	if err != nil {
		return nil, err
	}

	log.WithField("archive", result.Archive).Debug("plugin generated")
	return result, nil
}

// GenerateBundle builds a bundle plugin from the catalog's ordered member
// list: all member skills, their commands prefixed with the owning skill id,
// member agents plus an integration agent, and the bundle archive.
func (g *Generator) GenerateBundle(ctx context.Context, bundleName string) (*Result, error) {
	log := logger.G(ctx).WithField("bundle", bundleName)

	bundle, ok := g.catalog.BundleFor(bundleName)
	if !ok {
		return nil, errors.Errorf("bundle '%s' is not defined in the catalog", bundleName)
	}

	var members []*skills.Skill
	var commands []CommandDescriptor
	var agents []AgentDescriptor
	var descriptions []string

	seen := make(map[string]bool)
	for _, skillName := range bundle.Skills {
		skill, err := g.loadValidated(skillName)
		if err != nil {
			return nil, errors.Wrapf(err, "bundle member %s", skillName)
		}
		members = append(members, skill)
		descriptions = append(descriptions, skill.Description)

		info := g.catalog.SkillInfoFor(skill.Name)

		// Prefixing with the owning skill id resolves cross-skill
		// collisions; a collision that survives prefixing means two
		// scripts of the same skill normalized to one name.
		memberCommands, err := synthesizeCommands(skill, info, skill.Name)
		if err != nil {
			return nil, err
		}
		for _, c := range memberCommands {
			if seen[c.Name] {
				return nil, &DuplicateCommandError{Plugin: bundleName, Command: c.Name}
			}
			seen[c.Name] = true
			commands = append(commands, c)
		}

		agents = append(agents, synthesizeAgent(skill, info))
	}

	agents = append(agents, synthesizeIntegrationAgent(bundleName, bundle))

	manifest := &Manifest{
		Name:        bundleName,
		Version:     manifestVersion,
		Description: aggregateDescription(descriptions),
		Author:      Author{Name: g.catalog.Author},
		License:     g.catalog.License,
		Homepage:    g.catalog.Marketplace.Homepage,
		Repository:  g.catalog.Marketplace.Repository,
		Keywords:    bundle.Tags,
		Category:    "bundle",
		Bundle:      true,
		Includes:    bundle.Skills,
	}

	pluginDir := filepath.Join(g.pluginsDir, BundlesSubdir, bundleName)
	log.WithField("dir", pluginDir).Debug("materializing bundle directory")

	result, err := g.materialize(pluginDir, manifest, members, commands, agents)
	if err != nil {
		return nil, err
	}

	log.WithField("archive", result.Archive).Debug("bundle generated")
	return result, nil
}

// loadValidated loads a skill by name and applies the validation rules.
func (g *Generator) loadValidated(skillName string) (*skills.Skill, error) {
	skillDir := filepath.Join(g.skillsDir, skillName)

	skill, err := skills.Load(skillDir)
	if err != nil {
		return nil, err
	}

	violations := skills.Validate(skill.Metadata(), skillName)
	if len(violations) > 0 {
		return nil, &archive.ValidationFailedError{Skill: skillName, Violations: violations}
	}

	return skill, nil
}

// materialize writes the plugin directory from scratch and archives it.
// The directory is fully regenerated: stale descriptor files from a prior
// run never survive.
func (g *Generator) materialize(pluginDir string, manifest *Manifest, members []*skills.Skill, commands []CommandDescriptor, agents []AgentDescriptor) (*Result, error) {
	if err := os.RemoveAll(pluginDir); err != nil {
		return nil, errors.Wrapf(err, "failed to clear plugin directory %s", pluginDir)
	}

	for _, sub := range []string{ManifestDir, SkillsSubdir, CommandsSubdir, AgentsSubdir} {
		if err := os.MkdirAll(filepath.Join(pluginDir, sub), 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create %s", filepath.Join(pluginDir, sub))
		}
	}

	result := &Result{Name: manifest.Name, Dir: pluginDir}

	for _, skill := range members {
		dest := filepath.Join(pluginDir, SkillsSubdir, skill.Name)
		if err := copySkillTree(skill.Directory, dest); err != nil {
			return nil, err
		}
		result.Skills = append(result.Skills, skill.Name)
	}

	for _, c := range commands {
		path := filepath.Join(pluginDir, CommandsSubdir, c.FileName())
		if err := os.WriteFile(path, []byte(commandMarkdown(c)), 0o644); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", path)
		}
		manifest.Commands = append(manifest.Commands, "./"+CommandsSubdir+"/"+c.FileName())
		result.Commands = append(result.Commands, c.Name)
	}

	for _, a := range agents {
		path := filepath.Join(pluginDir, AgentsSubdir, a.FileName())
		if err := os.WriteFile(path, []byte(a.Body), 0o644); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", path)
		}
		manifest.Agents = append(manifest.Agents, "./"+AgentsSubdir+"/"+a.FileName())
		result.Agents = append(result.Agents, a.Name)
	}

	manifest.Skills = "./" + SkillsSubdir + "/"
	sort.Strings(manifest.Commands)
	sort.Strings(manifest.Agents)
	if err := writeManifest(pluginDir, manifest); err != nil {
		return nil, err
	}

	archivePath := filepath.Join(filepath.Dir(pluginDir), manifest.Name+archive.Ext)
	if err := archive.WriteDir(pluginDir, archivePath); err != nil {
		return nil, err
	}

	if err := verifyPluginArchive(archivePath); err != nil {
		os.Remove(archivePath)
		return nil, err
	}
	result.Archive = archivePath

	return result, nil
}

// verifyPluginArchive checks the generalized layout contract for plugin
// archives: the manifest reachable at its root-relative path and zero
// nested archives.
func verifyPluginArchive(archivePath string) error {
	entries, err := archive.List(archivePath)
	if err != nil {
		return err
	}

	manifestEntry := ManifestDir + "/" + ManifestFile
	found := false
	for _, name := range entries {
		if name == manifestEntry {
			found = true
		}
		if strings.HasSuffix(name, archive.Ext) {
			return &archive.StructuralError{Archive: archivePath, Reason: fmt.Sprintf("nested archive %s", name)}
		}
	}
	if !found {
		return &archive.StructuralError{Archive: archivePath, Reason: fmt.Sprintf("%s is not at the archive root", manifestEntry)}
	}

	return nil
}

// copySkillTree copies a skill directory, applying the archive ignore
// patterns so prior build output never lands inside a plugin.
func copySkillTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to walk %s", path)
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Wrapf(err, "failed to relativize %s", path)
		}

		if relPath != "." && archive.Ignored(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		destPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return errors.Wrapf(os.MkdirAll(destPath, info.Mode().Perm()), "failed to create %s", destPath)
		}

		return copyFile(path, destPath)
	})
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return errors.Wrapf(err, "failed to stat %s", src)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return errors.Wrapf(err, "failed to copy %s", src)
}

// aggregateDescription joins member skill descriptions into the bundle
// description, truncated at the description limit with a deterministic
// marker when exceeded.
func aggregateDescription(descriptions []string) string {
	return truncate(strings.Join(descriptions, "; "), skills.MaxDescriptionLength)
}
