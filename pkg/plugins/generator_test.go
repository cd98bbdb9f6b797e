package plugins

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtechbro/skillstack/pkg/archive"
	"github.com/freshtechbro/skillstack/pkg/catalog"
	"github.com/freshtechbro/skillstack/pkg/skills"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Marketplace: catalog.Marketplace{
			Name:       "test-market",
			Version:    "1.0.0",
			Homepage:   "https://example.com",
			Repository: "https://example.com/repo",
		},
		Author:  "Test Author",
		License: "MIT",
		Skills: map[string]catalog.SkillInfo{
			"threejs-webgl":      {Title: "Three.js WebGL", Category: "3d-graphics", Tags: []string{"webgl"}},
			"gsap-scrolltrigger": {Title: "GSAP ScrollTrigger", Category: "animation", Tags: []string{"gsap"}},
		},
		Bundles: map[string]catalog.Bundle{
			"core-pair": {
				Title:       "Core Pair",
				Description: "Two core skills",
				Skills:      []string{"threejs-webgl", "gsap-scrolltrigger"},
				Tags:        []string{"bundle"},
			},
		},
	}
}

func writeTestSkill(t *testing.T, skillsDir, name, description string, files map[string]string) {
	t.Helper()

	dir := filepath.Join(skillsDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	content := "---\nname: " + name + "\ndescription: " + description + "\n---\n\n# " + name + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, skills.SkillFileName), []byte(content), 0o644))

	for relPath, fileContent := range files {
		path := filepath.Join(dir, filepath.FromSlash(relPath))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(fileContent), 0o644))
	}
}

func newTestGenerator(t *testing.T) (*Generator, string, string) {
	t.Helper()

	root := t.TempDir()
	skillsDir := filepath.Join(root, "skills")
	pluginsDir := filepath.Join(root, "plugins")
	require.NoError(t, os.MkdirAll(skillsDir, 0o755))

	return NewGenerator(skillsDir, pluginsDir, testCatalog()), skillsDir, pluginsDir
}

func TestGeneratePlugin(t *testing.T) {
	generator, skillsDir, pluginsDir := newTestGenerator(t)
	writeTestSkill(t, skillsDir, "threejs-webgl", "WebGL scenes with three.js", map[string]string{
		"scripts/create_scene.py": "print('scene')",
		"references/api.md":       "# API",
	})

	result, err := generator.GeneratePlugin(context.Background(), "threejs-webgl")
	require.NoError(t, err)

	pluginDir := filepath.Join(pluginsDir, IndividualSubdir, "threejs-webgl")
	assert.Equal(t, pluginDir, result.Dir)
	assert.Equal(t, []string{"threejs-webgl"}, result.Skills)
	assert.Equal(t, []string{"create-scene"}, result.Commands)
	assert.Equal(t, []string{"threejs-webgl-architect"}, result.Agents)

	// Layout on disk.
	assert.FileExists(t, filepath.Join(pluginDir, ManifestDir, ManifestFile))
	assert.FileExists(t, filepath.Join(pluginDir, SkillsSubdir, "threejs-webgl", skills.SkillFileName))
	assert.FileExists(t, filepath.Join(pluginDir, CommandsSubdir, "create-scene.md"))
	assert.FileExists(t, filepath.Join(pluginDir, AgentsSubdir, "threejs-webgl-architect.md"))
	assert.FileExists(t, result.Archive)
	assert.Equal(t, filepath.Join(pluginsDir, IndividualSubdir, "threejs-webgl.zip"), result.Archive)

	manifest, err := LoadManifest(pluginDir)
	require.NoError(t, err)
	assert.Equal(t, "threejs-webgl", manifest.Name)
	assert.Equal(t, "1.0.0", manifest.Version)
	assert.Equal(t, "WebGL scenes with three.js", manifest.Description)
	assert.Equal(t, "Test Author", manifest.Author.Name)
	assert.Equal(t, "MIT", manifest.License)
	assert.Equal(t, "3d-graphics", manifest.Category)
	assert.Equal(t, "./skills/", manifest.Skills)
	assert.Equal(t, []string{"./commands/create-scene.md"}, manifest.Commands)
	assert.Equal(t, []string{"./agents/threejs-webgl-architect.md"}, manifest.Agents)
	assert.False(t, manifest.Bundle)
}

func TestGeneratePluginIdempotent(t *testing.T) {
	generator, skillsDir, pluginsDir := newTestGenerator(t)
	writeTestSkill(t, skillsDir, "threejs-webgl", "WebGL scenes", map[string]string{
		"scripts/create_scene.py": "print('scene')",
	})

	result, err := generator.GeneratePlugin(context.Background(), "threejs-webgl")
	require.NoError(t, err)
	firstArchive, err := os.ReadFile(result.Archive)
	require.NoError(t, err)
	manifestPath := filepath.Join(pluginsDir, IndividualSubdir, "threejs-webgl", ManifestDir, ManifestFile)
	firstManifest, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	result, err = generator.GeneratePlugin(context.Background(), "threejs-webgl")
	require.NoError(t, err)
	secondArchive, err := os.ReadFile(result.Archive)
	require.NoError(t, err)
	secondManifest, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	assert.Equal(t, firstManifest, secondManifest)
	assert.Equal(t, firstArchive, secondArchive)
}

func TestGeneratePluginClearsStaleOutput(t *testing.T) {
	generator, skillsDir, pluginsDir := newTestGenerator(t)
	writeTestSkill(t, skillsDir, "threejs-webgl", "WebGL scenes", nil)

	// A descriptor left by a previous run must not survive regeneration.
	staleDir := filepath.Join(pluginsDir, IndividualSubdir, "threejs-webgl", CommandsSubdir)
	require.NoError(t, os.MkdirAll(staleDir, 0o755))
	stalePath := filepath.Join(staleDir, "removed-command.md")
	require.NoError(t, os.WriteFile(stalePath, []byte("stale"), 0o644))

	_, err := generator.GeneratePlugin(context.Background(), "threejs-webgl")
	require.NoError(t, err)

	_, statErr := os.Stat(stalePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGeneratePluginInvalidSkill(t *testing.T) {
	generator, skillsDir, _ := newTestGenerator(t)
	writeTestSkill(t, skillsDir, "threejs-webgl", "Contains <markup>", nil)

	_, err := generator.GeneratePlugin(context.Background(), "threejs-webgl")
	require.Error(t, err)
	assert.IsType(t, &archive.ValidationFailedError{}, err)
}

func TestGeneratePluginExcludesStaleArchives(t *testing.T) {
	generator, skillsDir, pluginsDir := newTestGenerator(t)
	writeTestSkill(t, skillsDir, "threejs-webgl", "WebGL scenes", map[string]string{
		"old-build.zip": "stale",
	})

	result, err := generator.GeneratePlugin(context.Background(), "threejs-webgl")
	require.NoError(t, err)

	entries, err := archive.List(result.Archive)
	require.NoError(t, err)
	for _, name := range entries {
		assert.False(t, strings.HasSuffix(name, archive.Ext), "nested archive %s", name)
	}

	_, statErr := os.Stat(filepath.Join(pluginsDir, IndividualSubdir, "threejs-webgl", SkillsSubdir, "threejs-webgl", "old-build.zip"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestGenerateBundle(t *testing.T) {
	generator, skillsDir, pluginsDir := newTestGenerator(t)
	writeTestSkill(t, skillsDir, "threejs-webgl", "WebGL scenes", map[string]string{
		"scripts/create_scene.py": "print('scene')",
	})
	writeTestSkill(t, skillsDir, "gsap-scrolltrigger", "Scroll animations", nil)

	result, err := generator.GenerateBundle(context.Background(), "core-pair")
	require.NoError(t, err)

	bundleDir := filepath.Join(pluginsDir, BundlesSubdir, "core-pair")
	assert.Equal(t, bundleDir, result.Dir)
	assert.Equal(t, []string{"threejs-webgl", "gsap-scrolltrigger"}, result.Skills)

	// Member commands are prefixed with the owning skill id.
	assert.Equal(t, []string{
		"threejs-webgl-create-scene",
		"gsap-scrolltrigger-setup",
		"gsap-scrolltrigger-help",
	}, result.Commands)

	// Member agents plus the integration agent.
	assert.Equal(t, []string{
		"threejs-webgl-architect",
		"gsap-scrolltrigger-choreographer",
		"core-pair-integration",
	}, result.Agents)

	manifest, err := LoadManifest(bundleDir)
	require.NoError(t, err)
	assert.Equal(t, "core-pair", manifest.Name)
	assert.True(t, manifest.Bundle)
	assert.Equal(t, "bundle", manifest.Category)
	assert.Equal(t, []string{"threejs-webgl", "gsap-scrolltrigger"}, manifest.Includes)
	assert.Equal(t, "WebGL scenes; Scroll animations", manifest.Description)

	// Manifest descriptor arrays are sorted regardless of member order.
	assert.Equal(t, []string{
		"./commands/gsap-scrolltrigger-help.md",
		"./commands/gsap-scrolltrigger-setup.md",
		"./commands/threejs-webgl-create-scene.md",
	}, manifest.Commands)
	assert.Equal(t, []string{
		"./agents/core-pair-integration.md",
		"./agents/gsap-scrolltrigger-choreographer.md",
		"./agents/threejs-webgl-architect.md",
	}, manifest.Agents)

	assert.FileExists(t, filepath.Join(bundleDir, SkillsSubdir, "threejs-webgl", skills.SkillFileName))
	assert.FileExists(t, filepath.Join(bundleDir, SkillsSubdir, "gsap-scrolltrigger", skills.SkillFileName))
	assert.Equal(t, filepath.Join(pluginsDir, BundlesSubdir, "core-pair.zip"), result.Archive)
}

func TestGenerateBundleUnknown(t *testing.T) {
	generator, _, _ := newTestGenerator(t)

	_, err := generator.GenerateBundle(context.Background(), "no-such-bundle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not defined in the catalog")
}

func TestGenerateBundleInvalidMember(t *testing.T) {
	generator, skillsDir, _ := newTestGenerator(t)
	writeTestSkill(t, skillsDir, "threejs-webgl", "WebGL scenes", nil)
	// gsap-scrolltrigger is missing from disk.

	_, err := generator.GenerateBundle(context.Background(), "core-pair")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gsap-scrolltrigger")
}

func TestGenerateBundleDescriptionTruncated(t *testing.T) {
	generator, skillsDir, _ := newTestGenerator(t)
	long := strings.Repeat("x", 600)
	writeTestSkill(t, skillsDir, "threejs-webgl", long, nil)
	writeTestSkill(t, skillsDir, "gsap-scrolltrigger", long, nil)

	result, err := generator.GenerateBundle(context.Background(), "core-pair")
	require.NoError(t, err)

	manifest, err := LoadManifest(result.Dir)
	require.NoError(t, err)
	assert.Len(t, manifest.Description, skills.MaxDescriptionLength)
	assert.True(t, strings.HasSuffix(manifest.Description, "..."))
}

func TestGenerateBundleDescriptionTruncatedMultiByte(t *testing.T) {
	generator, skillsDir, _ := newTestGenerator(t)
	long := strings.Repeat("é", 600)
	writeTestSkill(t, skillsDir, "threejs-webgl", long, nil)
	writeTestSkill(t, skillsDir, "gsap-scrolltrigger", long, nil)

	result, err := generator.GenerateBundle(context.Background(), "core-pair")
	require.NoError(t, err)

	manifest, err := LoadManifest(result.Dir)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(manifest.Description))
	assert.Equal(t, skills.MaxDescriptionLength, utf8.RuneCountInString(manifest.Description))
	assert.True(t, strings.HasSuffix(manifest.Description, "..."))
}

func TestGenerateBundleIdempotent(t *testing.T) {
	generator, skillsDir, _ := newTestGenerator(t)
	writeTestSkill(t, skillsDir, "threejs-webgl", "WebGL scenes", nil)
	writeTestSkill(t, skillsDir, "gsap-scrolltrigger", "Scroll animations", nil)

	result, err := generator.GenerateBundle(context.Background(), "core-pair")
	require.NoError(t, err)
	first, err := os.ReadFile(result.Archive)
	require.NoError(t, err)

	result, err = generator.GenerateBundle(context.Background(), "core-pair")
	require.NoError(t, err)
	second, err := os.ReadFile(result.Archive)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
