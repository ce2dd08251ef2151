package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scanforge/scanforge/pkg/shared/config"
)

// Summary is the free-form aggregated scan document. A summary produced by
// the executor's own summarizer is trusted as-is.
type Summary map[string]interface{}

// Reconciler derives or loads the summary for a scan, tolerating a missing
// or crashed summary generator.
type Reconciler struct {
	resultsFolder string
	logger        hclog.Logger
}

func NewReconciler(cfg *config.Config, logger hclog.Logger) *Reconciler {
	return &Reconciler{resultsFolder: cfg.Scanforge.ResultsFolder, logger: logger}
}

// ScanDir returns the results directory for a scan id.
func (r *Reconciler) ScanDir(scanID string) string {
	return filepath.Join(r.resultsFolder, scanID)
}

// SummaryPath returns the summary document path for a scan id.
func (r *Reconciler) SummaryPath(scanID string) string {
	return filepath.Join(r.ScanDir(scanID), SummaryFileName)
}

// Reconcile returns the scan's summary. When no summary document exists it
// synthesizes a minimal one from the artifact index and persists it. A
// missing summary is never an error; an unreadable results directory is.
func (r *Reconciler) Reconcile(scanID string) (Summary, error) {
	scanDir := r.ScanDir(scanID)
	if _, err := os.Stat(scanDir); err != nil {
		return nil, fmt.Errorf("results directory for %q: %w", scanID, err)
	}

	summaryPath := r.SummaryPath(scanID)
	data, err := os.ReadFile(summaryPath)
	if err == nil {
		return parseSummary(data), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read summary for %q: %w", scanID, err)
	}

	summary, err := r.fallbackSummary(scanID, scanDir)
	if err != nil {
		return nil, err
	}

	// Persist so later reads see the same document. Best-effort only.
	if data, err := json.MarshalIndent(summary, "", "  "); err == nil {
		if err := os.WriteFile(summaryPath, data, 0644); err != nil {
			r.logger.Warn("failed to persist fallback summary", "scanID", scanID, "error", err)
		}
	}

	return summary, nil
}

// fallbackSummary enumerates artifact files grouped by scanner name. Finding
// counts are explicitly zero here: computing them would require parsing
// scanner output, which this service never does.
func (r *Reconciler) fallbackSummary(scanID, scanDir string) (Summary, error) {
	artifacts, err := ListArtifacts(scanDir)
	if err != nil {
		return nil, err
	}

	summary := Summary{
		"metadata": map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"scan_id":   scanID,
			"generator": "fallback",
		},
	}
	for _, artifact := range artifacts {
		summary[ScannerName(artifact.Name)] = map[string]interface{}{
			"file":       artifact.Name,
			"findings":   0,
			"size_bytes": artifact.Size,
		}
	}

	r.logger.Debug("synthesized fallback summary", "scanID", scanID, "artifacts", len(artifacts))
	return summary, nil
}

// parseSummary returns the decoded document, or an inline error marker when
// the document is not valid JSON. A corrupt summary never removes a scan
// from view.
func parseSummary(data []byte) Summary {
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return Summary{"error": fmt.Sprintf("failed to parse summary: %v", err)}
	}
	return summary
}
