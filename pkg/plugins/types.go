// Package plugins turns validated skills into distributable plugin
// directories: a plugin manifest, a copy of the skill content, and
// generated command and agent descriptor files, finished off with a zip
// archive. A plugin wraps one skill; a bundle wraps several.
package plugins

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Plugin directory layout
const (
	ManifestDir    = ".claude-plugin"
	ManifestFile   = "plugin.json"
	SkillsSubdir   = "skills"
	CommandsSubdir = "commands"
	AgentsSubdir   = "agents"

	// IndividualSubdir and BundlesSubdir split the plugins root by kind
	IndividualSubdir = "individual"
	BundlesSubdir    = "bundles"
)

// manifestVersion is fixed; regeneration must be byte-stable.
const manifestVersion = "1.0.0"

// Author identifies the plugin publisher in the manifest
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Manifest is the plugin.json document at the root of every plugin
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Author      Author   `json:"author"`
	License     string   `json:"license"`
	Homepage    string   `json:"homepage,omitempty"`
	Repository  string   `json:"repository,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Category    string   `json:"category,omitempty"`
	Bundle      bool     `json:"bundle,omitempty"`
	Includes    []string `json:"includes,omitempty"`
	Skills      string   `json:"skills"`
	Commands    []string `json:"commands,omitempty"`
	Agents      []string `json:"agents,omitempty"`
}

// CommandDescriptor is a generated slash-command definition. Descriptors are
// derived, never authored: regenerating a plugin recomputes them from the
// owning skill.
type CommandDescriptor struct {
	Name        string // command name within the plugin, e.g. "timeline-builder"
	Description string
	Target      string // invocation target, "<skill>-<script-basename>"
	Skill       string // owning skill id
	SkillTitle  string
	Script      string // script basename, empty for generic commands
}

// FileName returns the descriptor's file name inside commands/
func (c CommandDescriptor) FileName() string {
	return c.Name + ".md"
}

// AgentDescriptor is a generated agent definition, one per skill domain
type AgentDescriptor struct {
	Name        string
	Description string
	Body        string
}

// FileName returns the descriptor's file name inside agents/
func (a AgentDescriptor) FileName() string {
	return a.Name + ".md"
}

// DuplicateCommandError indicates two scripts in the same plugin collide on
// the same command name after normalization.
type DuplicateCommandError struct {
	Plugin  string
	Command string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("plugin %q: duplicate command %q after normalization", e.Plugin, e.Command)
}

// LoadManifest reads and parses the plugin.json of a plugin directory
func LoadManifest(pluginDir string) (*Manifest, error) {
	path := filepath.Join(pluginDir, ManifestDir, ManifestFile)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read plugin manifest %s", path)
	}

	var m Manifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to parse plugin manifest %s", path)
	}

	return &m, nil
}

// writeManifest writes plugin.json with stable formatting so regeneration is
// byte-identical.
func writeManifest(pluginDir string, m *Manifest) error {
	dir := filepath.Join(pluginDir, ManifestDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	content, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal plugin manifest")
	}
	content = append(content, '\n')

	path := filepath.Join(dir, ManifestFile)
	return errors.Wrapf(os.WriteFile(path, content, 0o644), "failed to write %s", path)
}
