package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SummaryFileName is the aggregated summary document inside a scan's results
// directory.
const SummaryFileName = "summary.json"

// resultExtensions are the recognized artifact extensions. Anything else in
// a results directory is ignored by classification and indexing.
var resultExtensions = []string{".json", ".sarif"}

// Artifact is one output file produced by the executor.
type Artifact struct {
	Name string
	Size int64
}

// IsArtifact reports whether name is a recognized result artifact. The
// summary document itself does not count.
func IsArtifact(name string) bool {
	if name == SummaryFileName {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range resultExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// ListArtifacts enumerates recognized artifacts in dir, in directory order.
func ListArtifacts(dir string) ([]Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read results directory %q: %w", dir, err)
	}

	var artifacts []Artifact
	for _, entry := range entries {
		if entry.IsDir() || !IsArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{Name: entry.Name(), Size: info.Size()})
	}
	return artifacts, nil
}

// HasArtifacts reports whether dir contains at least one recognized artifact.
// A missing directory simply means no artifacts.
func HasArtifacts(dir string) bool {
	artifacts, err := ListArtifacts(dir)
	return err == nil && len(artifacts) > 0
}

// ScannerName derives a scanner name from an artifact filename: the text
// preceding the first separator, or "unknown" when there is none.
func ScannerName(filename string) string {
	if idx := strings.Index(filename, "-"); idx > 0 {
		return filename[:idx]
	}
	return "unknown"
}
