// Package archive builds the distributable zip archives for skills and
// plugins. Archives have a strict layout: the metadata document sits at the
// archive root (never one level down) and no zip file is ever packaged
// inside another. Output is deterministic, so re-running a build on
// unchanged input produces a byte-identical archive.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/freshtechbro/skillstack/pkg/skills"
)

// Ext is the archive file extension
const Ext = ".zip"

// IgnorePatterns are glob patterns excluded from every archive. Prior build
// output left inside the tree must never contaminate a fresh archive.
var IgnorePatterns = []string{
	"**/*.zip",
	"**/.DS_Store",
	"**/.git/**",
}

// ValidationFailedError is returned when a skill fails validation before
// archiving. The archive is never built from invalid metadata.
type ValidationFailedError struct {
	Skill      string
	Violations []skills.Violation
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("skill %q failed validation: %s", e.Skill, skills.FormatViolations(e.Violations))
}

// StructuralError indicates the builder itself violated the archive layout
// contract. This is a bug in the build tool, not in the input.
type StructuralError struct {
	Archive string
	Reason  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("archive %s violates layout contract: %s", e.Archive, e.Reason)
}

// BuildSkill validates the skill rooted at skillRoot and writes
// <destDir>/<skill-name>.zip. An empty destDir defaults to the parent of
// skillRoot, which keeps previously produced archives out of the tree being
// archived. Returns the path of the written archive.
func BuildSkill(skillRoot, destDir string) (string, error) {
	skill, err := skills.Load(skillRoot)
	if err != nil {
		return "", err
	}

	violations := skills.Validate(skill.Metadata(), filepath.Base(skillRoot))
	if len(violations) > 0 {
		return "", &ValidationFailedError{Skill: skill.Name, Violations: violations}
	}

	if destDir == "" {
		destDir = filepath.Dir(skillRoot)
	}

	archivePath := filepath.Join(destDir, skill.Name+Ext)
	if err := WriteDir(skillRoot, archivePath); err != nil {
		return "", err
	}

	if err := verifyLayout(archivePath, skills.SkillFileName); err != nil {
		os.Remove(archivePath)
		return "", err
	}

	return archivePath, nil
}

// WriteDir archives every file under root into a zip at archivePath,
// preserving paths relative to root. The write is all-or-nothing: the
// archive is staged in a temp file and renamed into place, and partial
// output is removed on failure.
func WriteDir(root, archivePath string) error {
	files, err := collectFiles(root)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(archivePath), filepath.Base(archivePath)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create archive at %s", archivePath)
	}
	tmpPath := tmp.Name()

	if err := writeEntries(tmp, root, files); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to finalize archive at %s", archivePath)
	}

	if err := os.Rename(tmpPath, archivePath); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to move archive into place at %s", archivePath)
	}

	return nil
}

// collectFiles enumerates the relative paths to archive, sorted for
// deterministic output, with ignore patterns applied.
func collectFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "failed to walk %s", path)
		}
		if entry.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Wrapf(err, "failed to relativize %s", path)
		}

		if Ignored(relPath) {
			return nil
		}

		files = append(files, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Ignored reports whether a root-relative path matches an ignore pattern
func Ignored(relPath string) bool {
	slashPath := filepath.ToSlash(relPath)
	for _, pattern := range IgnorePatterns {
		if ok, _ := doublestar.Match(pattern, slashPath); ok {
			return true
		}
	}
	return false
}

func writeEntries(w io.Writer, root string, files []string) error {
	zw := zip.NewWriter(w)

	for _, relPath := range files {
		srcPath := filepath.Join(root, relPath)

		info, err := os.Stat(srcPath)
		if err != nil {
			return errors.Wrapf(err, "failed to stat %s", srcPath)
		}

		// Timestamps are deliberately omitted so identical input yields
		// identical bytes.
		header := &zip.FileHeader{
			Name:   filepath.ToSlash(relPath),
			Method: zip.Deflate,
		}
		header.SetMode(info.Mode().Perm())

		entry, err := zw.CreateHeader(header)
		if err != nil {
			return errors.Wrapf(err, "failed to add archive entry %s", relPath)
		}

		src, err := os.Open(srcPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", srcPath)
		}

		if _, err := io.Copy(entry, src); err != nil {
			src.Close()
			return errors.Wrapf(err, "failed to write archive entry %s", relPath)
		}
		src.Close()
	}

	return errors.Wrap(zw.Close(), "failed to close archive writer")
}

// verifyLayout checks the built archive against the layout contract: the
// metadata document at the root and zero nested archives.
func verifyLayout(archivePath, metadataFile string) error {
	entries, err := List(archivePath)
	if err != nil {
		return err
	}

	foundMetadata := false
	for _, name := range entries {
		if name == metadataFile {
			foundMetadata = true
		}
		if strings.HasSuffix(name, Ext) {
			return &StructuralError{Archive: archivePath, Reason: fmt.Sprintf("nested archive %s", name)}
		}
	}

	if !foundMetadata {
		return &StructuralError{Archive: archivePath, Reason: fmt.Sprintf("%s is not at the archive root", metadataFile)}
	}

	return nil
}

// List returns the entry names of an archive in stored order
func List(archivePath string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open archive %s", archivePath)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// Extract unpacks an archive into destDir, preserving entry paths and modes
func Extract(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrapf(err, "failed to open archive %s", archivePath)
	}
	defer r.Close()

	for _, f := range r.File {
		destPath := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return errors.Errorf("archive entry %q escapes destination directory", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", destPath)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory for %s", destPath)
		}

		src, err := f.Open()
		if err != nil {
			return errors.Wrapf(err, "failed to open archive entry %s", f.Name)
		}

		dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm())
		if err != nil {
			src.Close()
			return errors.Wrapf(err, "failed to create %s", destPath)
		}

		if _, err := io.Copy(dst, src); err != nil {
			src.Close()
			dst.Close()
			return errors.Wrapf(err, "failed to extract %s", f.Name)
		}
		src.Close()
		dst.Close()
	}

	return nil
}
