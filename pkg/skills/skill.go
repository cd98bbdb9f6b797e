// Package skills provides the skill model for the packaging pipeline.
// A skill is a directory containing a SKILL.md document with YAML
// frontmatter, plus optional scripts/, references/, and assets/
// subdirectories. The package loads skills from disk and applies the
// naming and content rules every distributable skill must satisfy.
package skills

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/freshtechbro/skillstack/pkg/metadata"
	"github.com/pkg/errors"
)

// SkillFileName is the metadata document every skill directory must contain.
const SkillFileName = "SKILL.md"

// Subdirectories a skill may carry. Files outside these categories are
// still packaged; the split only matters for descriptor generation.
const (
	ScriptsDir    = "scripts"
	ReferencesDir = "references"
	AssetsDir     = "assets"
)

// Skill represents a loaded skill with its metadata and file inventory
type Skill struct {
	Name        string   // Unique name from frontmatter
	Description string   // Brief description from frontmatter
	Directory   string   // Full path to the skill directory
	Content     string   // SKILL.md body with the frontmatter stripped
	Scripts     []string // Relative paths of automation scripts
	References  []string // Relative paths of long-form reference docs
	Assets      []string // Relative paths of non-loaded asset files
}

// Load reads the skill rooted at dir, parsing SKILL.md and taking
// inventory of its scripts, references, and assets.
func Load(dir string) (*Skill, error) {
	doc, err := metadata.Parse(filepath.Join(dir, SkillFileName))
	if err != nil {
		return nil, err
	}

	skill := &Skill{
		Name:        doc.Meta.Name,
		Description: doc.Meta.Description,
		Directory:   dir,
		Content:     doc.Body,
	}

	skill.Scripts, err = listCategory(dir, ScriptsDir)
	if err != nil {
		return nil, err
	}
	skill.References, err = listCategory(dir, ReferencesDir)
	if err != nil {
		return nil, err
	}
	skill.Assets, err = listCategory(dir, AssetsDir)
	if err != nil {
		return nil, err
	}

	return skill, nil
}

// Metadata returns the skill's parsed frontmatter fields.
func (s *Skill) Metadata() *metadata.Metadata {
	return &metadata.Metadata{
		Name:        s.Name,
		Description: s.Description,
	}
}

// listCategory returns the sorted relative paths of files under a category
// subdirectory. A missing subdirectory is not an error; categories are
// optional.
func listCategory(skillDir, category string) ([]string, error) {
	root := filepath.Join(skillDir, category)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s directory", category)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(category, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
