package plinder

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// unpackArchive extracts a shard bundle into destDir. Extraction is
// idempotent: entries whose target already exists non-empty are left
// alone, and each file is written to a temporary sibling and renamed
// into place so an interrupted unpack never leaves partial files where
// accessors look for them.
func unpackArchive(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: opening archive %s: %v", ErrStorage, archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return fmt.Errorf("%w: archive entry escapes destination: %q", ErrStorage, f.Name)
		}
		target := filepath.Join(destDir, filepath.FromSlash(f.Name))

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("%w: creating %s: %v", ErrStorage, f.Name, err)
			}
			continue
		}

		if materialized(target) {
			continue
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}

	return nil
}

// extractFile writes one archive entry to target atomically.
func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("%w: creating directory for %s: %v", ErrStorage, f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: opening archive entry %s: %v", ErrStorage, f.Name, err)
	}
	defer rc.Close()

	tmp := target + tempInfix + randomSuffix()
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: creating temp file for %s: %v", ErrStorage, f.Name, err)
	}

	_, err = io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: extracting %s: %v", ErrStorage, f.Name, err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: renaming temp file for %s: %v", ErrStorage, f.Name, err)
	}

	return nil
}
