// Package marketplace generates and validates the marketplace manifest:
// the single JSON document indexing every installable plugin. Generation is
// best-effort across plugins and atomic on disk; validation re-checks every
// plugin against the manifest and reports all findings in one pass.
package marketplace

import (
	"path"
	"strings"
)

// ManifestFileName is the marketplace manifest document name
const ManifestFileName = "marketplace.json"

// Entry is one plugin record in the marketplace manifest
type Entry struct {
	Name        string   `json:"name"`
	Source      string   `json:"source"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Bundle      bool     `json:"bundle,omitempty"`
	Includes    []string `json:"includes,omitempty"`
	Author      string   `json:"author,omitempty"`
	License     string   `json:"license,omitempty"`
}

// Owner identifies the marketplace publisher
type Owner struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Metadata is the manifest's descriptive block
type Metadata struct {
	Description string `json:"description"`
	Version     string `json:"version"`
	PluginRoot  string `json:"pluginRoot"`
	Homepage    string `json:"homepage,omitempty"`
	Repository  string `json:"repository,omitempty"`
}

// Document is the full marketplace manifest
type Document struct {
	Name     string   `json:"name"`
	Owner    Owner    `json:"owner"`
	Metadata Metadata `json:"metadata"`
	Plugins  []Entry  `json:"plugins"`
}

// entrySource builds the manifest source path for a plugin directory,
// e.g. ("individual", "barba-js") -> "./individual/barba-js".
func entrySource(kind, dirName string) string {
	return "./" + path.Join(kind, dirName)
}

// sourceRelPath strips the leading "./" from a manifest source path
func sourceRelPath(source string) string {
	return strings.TrimPrefix(source, "./")
}
