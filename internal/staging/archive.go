package staging

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/scanforge/scanforge/pkg/shared/files"
)

// extractZip extracts the archive at archivePath into destination. Entry
// names are resolved against the destination root; an entry that escapes it
// aborts the extraction.
func extractZip(archivePath, destination string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive %q: %w", archivePath, err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		targetPath, err := files.EnsureWithinRoot(destination, filepath.Join(destination, entry.Name))
		if err != nil {
			return fmt.Errorf("rejecting archive entry %q: %w", entry.Name, err)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, os.ModePerm); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", targetPath, err)
			}
			continue
		}

		if err := extractEntry(entry, targetPath); err != nil {
			return err
		}
	}

	return nil
}

func extractEntry(entry *zip.File, targetPath string) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", targetPath, err)
	}

	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %q: %w", entry.Name, err)
	}
	defer in.Close()

	out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, entry.Mode())
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", targetPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to extract %q: %w", entry.Name, err)
	}
	return nil
}
