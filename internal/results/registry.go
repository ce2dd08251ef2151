package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/scanforge/scanforge/pkg/shared/config"
)

// FileInfo indexes one downloadable artifact.
type FileInfo struct {
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// Record is one known scan, assembled from its results directory.
type Record struct {
	ScanID      string                 `json:"scan_id"`
	Summary     Summary                `json:"summary"`
	ResultFiles map[string]FileInfo    `json:"result_files"`
	ResultCount int                    `json:"result_count"`
	HasSummary  bool                   `json:"has_summary"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Registry enumerates known scans by inspecting the results directory tree.
type Registry struct {
	resultsFolder string
	logger        hclog.Logger
}

func NewRegistry(cfg *config.Config, logger hclog.Logger) *Registry {
	return &Registry{resultsFolder: cfg.Scanforge.ResultsFolder, logger: logger}
}

// ListScans returns one record per results subdirectory. Records carrying a
// summary timestamp sort newest first; the remainder sorts by scan id
// descending, which is stable but carries no temporal meaning.
func (r *Registry) ListScans() ([]Record, error) {
	entries, err := os.ReadDir(r.resultsFolder)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("failed to read results root %q: %w", r.resultsFolder, err)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		records = append(records, r.buildRecord(entry.Name()))
	}

	sort.Slice(records, func(i, j int) bool {
		ti, tj := recordTimestamp(records[i]), recordTimestamp(records[j])
		if ti != tj {
			return ti > tj
		}
		return records[i].ScanID > records[j].ScanID
	})

	return records, nil
}

// GetScan returns the record for one scan id, or os.ErrNotExist when no
// results directory exists for it.
func (r *Registry) GetScan(scanID string) (*Record, error) {
	scanDir := filepath.Join(r.resultsFolder, scanID)
	if info, err := os.Stat(scanDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("scan %q: %w", scanID, os.ErrNotExist)
	}
	record := r.buildRecord(scanID)
	return &record, nil
}

// IndexArtifacts returns the artifact index for one scan, or os.ErrNotExist
// when the results directory is absent.
func (r *Registry) IndexArtifacts(scanID string) (map[string]FileInfo, error) {
	scanDir := filepath.Join(r.resultsFolder, scanID)
	if _, err := os.Stat(scanDir); err != nil {
		return nil, fmt.Errorf("results for %q: %w", scanID, os.ErrNotExist)
	}

	artifacts, err := ListArtifacts(scanDir)
	if err != nil {
		return nil, err
	}

	index := make(map[string]FileInfo, len(artifacts))
	for _, artifact := range artifacts {
		index[artifact.Name] = FileInfo{
			Size: artifact.Size,
			URL:  DownloadURL(scanID, artifact.Name),
		}
	}
	return index, nil
}

// ArtifactPath joins a download request onto the scan's results directory.
// Callers guard the result against root escapes before serving it.
func (r *Registry) ArtifactPath(scanID, filename string) string {
	return filepath.Join(r.resultsFolder, scanID, filename)
}

// DownloadURL derives the download path for an artifact. It is never stored.
func DownloadURL(scanID, filename string) string {
	return fmt.Sprintf("/api/v1/scan/%s/results/%s", scanID, filename)
}

func (r *Registry) buildRecord(scanID string) Record {
	scanDir := filepath.Join(r.resultsFolder, scanID)

	summary := Summary{}
	hasSummary := false
	if data, err := os.ReadFile(filepath.Join(scanDir, SummaryFileName)); err == nil {
		hasSummary = true
		summary = parseSummary(data)
	} else if !os.IsNotExist(err) {
		// I/O errors surface inline on the one record, not as a hard failure.
		summary = Summary{"error": fmt.Sprintf("failed to read summary: %v", err)}
	}

	resultFiles := map[string]FileInfo{}
	if artifacts, err := ListArtifacts(scanDir); err == nil {
		for _, artifact := range artifacts {
			resultFiles[artifact.Name] = FileInfo{
				Size: artifact.Size,
				URL:  DownloadURL(scanID, artifact.Name),
			}
		}
	} else {
		r.logger.Warn("failed to index result files", "scanID", scanID, "error", err)
	}

	record := Record{
		ScanID:      scanID,
		Summary:     summary,
		ResultFiles: resultFiles,
		ResultCount: len(resultFiles),
		HasSummary:  hasSummary,
	}
	if metadata, ok := summary["metadata"].(map[string]interface{}); ok {
		record.Metadata = metadata
	}
	return record
}

func recordTimestamp(record Record) string {
	if record.Metadata == nil {
		return ""
	}
	ts, _ := record.Metadata["timestamp"].(string)
	return ts
}
