package marketplace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtechbro/skillstack/pkg/catalog"
	"github.com/freshtechbro/skillstack/pkg/plugins"
	"github.com/freshtechbro/skillstack/pkg/skills"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Marketplace: catalog.Marketplace{
			Name:        "test-market",
			Description: "Test marketplace",
			Version:     "1.0.0",
			Homepage:    "https://example.com",
			Repository:  "https://example.com/repo",
			Owner:       catalog.Owner{Name: "Tester", URL: "https://example.com"},
		},
		Author:  "Tester",
		License: "MIT",
		Skills: map[string]catalog.SkillInfo{
			"alpha": {Title: "Alpha", Category: "animation", Tags: []string{"a"}},
			"beta":  {Title: "Beta", Category: "3d-graphics", Tags: []string{"b"}},
		},
		Bundles: map[string]catalog.Bundle{
			"pair": {Title: "Pair", Description: "Both", Skills: []string{"alpha", "beta"}},
		},
	}
}

// buildPlugins generates real plugin directories to index
func buildPlugins(t *testing.T, root string, cat *catalog.Catalog, skillNames []string, bundleNames []string) (string, string) {
	t.Helper()

	skillsDir := filepath.Join(root, "skills")
	pluginsDir := filepath.Join(root, "plugins")

	for _, name := range skillNames {
		dir := filepath.Join(skillsDir, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		content := "---\nname: " + name + "\ndescription: The " + name + " skill\n---\n\nbody\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, skills.SkillFileName), []byte(content), 0o644))
	}

	generator := plugins.NewGenerator(skillsDir, pluginsDir, cat)
	for _, name := range skillNames {
		_, err := generator.GeneratePlugin(context.Background(), name)
		require.NoError(t, err)
	}
	for _, name := range bundleNames {
		_, err := generator.GenerateBundle(context.Background(), name)
		require.NoError(t, err)
	}

	return skillsDir, pluginsDir
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	cat := testCatalog()
	_, pluginsDir := buildPlugins(t, root, cat, []string{"alpha", "beta"}, []string{"pair"})

	outPath := filepath.Join(root, ManifestFileName)
	result, err := Generate(context.Background(), pluginsDir, outPath, cat)
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.NoError(t, result.Err())

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(content, &doc))

	assert.Equal(t, "test-market", doc.Name)
	assert.Equal(t, "Tester", doc.Owner.Name)
	assert.Equal(t, "1.0.0", doc.Metadata.Version)
	assert.Equal(t, "./plugins", doc.Metadata.PluginRoot)

	require.Len(t, doc.Plugins, 3)
	assert.Equal(t, "alpha", doc.Plugins[0].Name)
	assert.Equal(t, "./individual/alpha", doc.Plugins[0].Source)
	assert.Equal(t, "beta", doc.Plugins[1].Name)
	assert.Equal(t, "pair", doc.Plugins[2].Name)
	assert.Equal(t, "./bundles/pair", doc.Plugins[2].Source)
	assert.True(t, doc.Plugins[2].Bundle)
	assert.Equal(t, []string{"alpha", "beta"}, doc.Plugins[2].Includes)
}

func TestGenerateSkipsCorruptPlugin(t *testing.T) {
	root := t.TempDir()
	cat := testCatalog()
	_, pluginsDir := buildPlugins(t, root, cat, []string{"alpha", "beta", "gamma"}, nil)

	// Corrupt one plugin manifest; the other plugins must still be indexed.
	badManifest := filepath.Join(pluginsDir, plugins.IndividualSubdir, "alpha", plugins.ManifestDir, plugins.ManifestFile)
	require.NoError(t, os.WriteFile(badManifest, []byte("{not json"), 0o644))

	outPath := filepath.Join(root, ManifestFileName)
	result, err := Generate(context.Background(), pluginsDir, outPath, cat)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "alpha", result.Errors[0].Plugin)
	require.Error(t, result.Err())

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "beta", result.Entries[0].Name)
	assert.Equal(t, "gamma", result.Entries[1].Name)

	// The manifest is still written with everything that could be indexed.
	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(content, &doc))
	require.Len(t, doc.Plugins, 2)
}

func TestGenerateEmptyPluginsRoot(t *testing.T) {
	root := t.TempDir()
	cat := testCatalog()

	outPath := filepath.Join(root, ManifestFileName)
	result, err := Generate(context.Background(), filepath.Join(root, "plugins"), outPath, cat)
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Empty(t, result.Errors)
	assert.FileExists(t, outPath)
}

func TestGenerateDeterministic(t *testing.T) {
	root := t.TempDir()
	cat := testCatalog()
	_, pluginsDir := buildPlugins(t, root, cat, []string{"alpha", "beta"}, []string{"pair"})

	outPath := filepath.Join(root, ManifestFileName)

	_, err := Generate(context.Background(), pluginsDir, outPath, cat)
	require.NoError(t, err)
	first, err := os.ReadFile(outPath)
	require.NoError(t, err)

	_, err = Generate(context.Background(), pluginsDir, outPath, cat)
	require.NoError(t, err)
	second, err := os.ReadFile(outPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	cat := testCatalog()
	_, pluginsDir := buildPlugins(t, root, cat, []string{"alpha"}, nil)

	outDir := filepath.Join(root, "out")
	outPath := filepath.Join(outDir, ManifestFileName)

	_, err := Generate(context.Background(), pluginsDir, outPath, cat)
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ManifestFileName, entries[0].Name())
}
