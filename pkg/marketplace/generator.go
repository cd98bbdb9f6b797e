package marketplace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/freshtechbro/skillstack/pkg/catalog"
	"github.com/freshtechbro/skillstack/pkg/logger"
	"github.com/freshtechbro/skillstack/pkg/plugins"
)

// ItemError records a plugin that could not be indexed
type ItemError struct {
	Plugin string
	Err    error
}

// GenerateResult reports what a generation run produced
type GenerateResult struct {
	ManifestPath string
	Entries      []Entry
	Errors       []ItemError
}

// Err combines the per-plugin errors into one, or nil when every plugin was
// indexed.
func (r *GenerateResult) Err() error {
	var combined *multierror.Error
	for _, item := range r.Errors {
		combined = multierror.Append(combined, errors.Wrap(item.Err, item.Plugin))
	}
	return combined.ErrorOrNil()
}

// Generate scans the plugins root and writes the marketplace manifest to
// outPath. Plugins whose manifest cannot be parsed are excluded and recorded
// in the result's error list; one bad plugin never blocks the rest. The
// manifest is fully regenerated and written atomically.
func Generate(ctx context.Context, pluginsRoot, outPath string, cat *catalog.Catalog) (*GenerateResult, error) {
	log := logger.G(ctx).WithField("pluginsRoot", pluginsRoot)

	result := &GenerateResult{ManifestPath: outPath}

	for _, kind := range []string{plugins.IndividualSubdir, plugins.BundlesSubdir} {
		entries, itemErrors := collectEntries(pluginsRoot, kind)
		result.Entries = append(result.Entries, entries...)
		result.Errors = append(result.Errors, itemErrors...)
	}

	for _, item := range result.Errors {
		log.WithError(item.Err).WithField("plugin", item.Plugin).Warn("excluding plugin from manifest")
	}

	doc := &Document{
		Name: cat.Marketplace.Name,
		Owner: Owner{
			Name: cat.Marketplace.Owner.Name,
			URL:  cat.Marketplace.Owner.URL,
		},
		Metadata: Metadata{
			Description: cat.Marketplace.Description,
			Version:     cat.Marketplace.Version,
			PluginRoot:  pluginRootPath(outPath, pluginsRoot),
			Homepage:    cat.Marketplace.Homepage,
			Repository:  cat.Marketplace.Repository,
		},
		Plugins: result.Entries,
	}

	if err := writeAtomic(outPath, doc); err != nil {
		return nil, err
	}

	log.WithField("plugins", len(result.Entries)).Info("marketplace manifest written")
	return result, nil
}

// collectEntries indexes all plugin directories of one kind, in sorted order
func collectEntries(pluginsRoot, kind string) ([]Entry, []ItemError) {
	dir := filepath.Join(pluginsRoot, kind)

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		// A missing individual/ or bundles/ directory just means no
		// plugins of that kind exist yet.
		return nil, nil
	}

	names := make([]string, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var entries []Entry
	var itemErrors []ItemError

	for _, name := range names {
		manifest, err := plugins.LoadManifest(filepath.Join(dir, name))
		if err != nil {
			itemErrors = append(itemErrors, ItemError{Plugin: name, Err: err})
			continue
		}

		entries = append(entries, Entry{
			Name:        manifest.Name,
			Source:      entrySource(kind, name),
			Version:     manifest.Version,
			Description: manifest.Description,
			Category:    manifest.Category,
			Tags:        manifest.Keywords,
			Bundle:      manifest.Bundle,
			Includes:    manifest.Includes,
			Author:      manifest.Author.Name,
			License:     manifest.License,
		})
	}

	return entries, itemErrors
}

// pluginRootPath records where the plugins live relative to the manifest
func pluginRootPath(manifestPath, pluginsRoot string) string {
	rel, err := filepath.Rel(filepath.Dir(manifestPath), pluginsRoot)
	if err != nil {
		return pluginsRoot
	}
	return "./" + filepath.ToSlash(rel)
}

// writeAtomic stages the manifest in a temp file next to the destination and
// renames it into place, so a crash mid-write never leaves a corrupt
// manifest.
func writeAtomic(outPath string, doc *Document) error {
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal marketplace manifest")
	}
	content = append(content, '\n')

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", outPath)
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ManifestFileName+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp manifest near %s", outPath)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to write temp manifest %s", tmpPath)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to finalize temp manifest %s", tmpPath)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to move manifest into place at %s", outPath)
	}

	return nil
}
