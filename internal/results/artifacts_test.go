package results

import (
	"testing"
)

func TestIsArtifact(t *testing.T) {
	var tests = []struct {
		name string
		want bool
	}{
		{"semgrep-findings.json", true},
		{"codeql-results.sarif", true},
		{"trivy-fs.JSON", true},
		{"summary.json", false},
		{"notes.txt", false},
		{"dispatcher.log", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsArtifact(tt.name); got != tt.want {
				t.Errorf("IsArtifact(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestScannerName(t *testing.T) {
	var tests = []struct {
		filename string
		want     string
	}{
		{"semgrep-findings.json", "semgrep"},
		{"osv-scanner-report.json", "osv"},
		{"report.json", "unknown"},
		{"-leading.json", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := ScannerName(tt.filename); got != tt.want {
				t.Errorf("ScannerName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
