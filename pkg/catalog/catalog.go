// Package catalog holds the generation configuration for the packaging
// pipeline: per-skill display titles, categories and tags, script command
// descriptions, bundle definitions, and the marketplace identity block.
// The catalog is an explicit value passed into the generators rather than
// process-wide state, so generation is a pure function of its inputs.
package catalog

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// SkillInfo describes the marketplace-facing attributes of one skill
type SkillInfo struct {
	Title    string   `yaml:"title"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
}

// Bundle defines a multi-skill plugin: an ordered member list plus
// marketplace attributes.
type Bundle struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Skills      []string `yaml:"skills"`
	Tags        []string `yaml:"tags"`
}

// Owner identifies the marketplace publisher
type Owner struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Marketplace holds the identity block written into the manifest
type Marketplace struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	Homepage    string `yaml:"homepage"`
	Repository  string `yaml:"repository"`
	Owner       Owner  `yaml:"owner"`
}

// Catalog is the full generation configuration
type Catalog struct {
	Marketplace Marketplace          `yaml:"marketplace"`
	Author      string               `yaml:"author"`
	License     string               `yaml:"license"`
	Skills      map[string]SkillInfo `yaml:"skills"`
	Bundles     map[string]Bundle    `yaml:"bundles"`
}

// Default returns the catalog compiled into the binary
func Default() (*Catalog, error) {
	return parse(defaultCatalog)
}

// Load reads a catalog from a YAML file, falling back to the embedded
// default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog %s", path)
	}
	return parse(content)
}

func parse(content []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(content, &c); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	return &c, nil
}

// SkillInfoFor returns the catalog entry for a skill. Skills absent from the
// catalog get a generic entry so generation never depends on catalog
// completeness.
func (c *Catalog) SkillInfoFor(name string) SkillInfo {
	if info, ok := c.Skills[name]; ok {
		if info.Title == "" {
			info.Title = titleize(name)
		}
		if info.Category == "" {
			info.Category = "general"
		}
		return info
	}
	return SkillInfo{
		Title:    titleize(name),
		Category: "general",
		Tags:     []string{name},
	}
}

// BundleFor returns a bundle definition by name
func (c *Catalog) BundleFor(name string) (Bundle, bool) {
	b, ok := c.Bundles[name]
	return b, ok
}

// titleize converts a hyphen-case skill name into a display title,
// e.g. "locomotive-scroll" -> "Locomotive Scroll".
func titleize(name string) string {
	out := make([]byte, len(name))
	upper := true
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch == '-' {
			out[i] = ' '
			upper = true
			continue
		}
		if upper && ch >= 'a' && ch <= 'z' {
			out[i] = ch - ('a' - 'A')
		} else {
			out[i] = ch
		}
		upper = false
	}
	return string(out)
}
