package scanconfig

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the configuration file persisted next to staged content.
const FileName = "scan-config.json"

// Ingestion modes as they appear on the wire.
const (
	ModeFile       = "file"
	ModeZip        = "zip"
	ModeRepository = "repository"
)

// Scan scope kinds.
const (
	ScopeFull       = "full"
	ScopeSingleFile = "single_file"
)

type Target struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type Scope struct {
	Type       string   `json:"type"`
	Paths      []string `json:"paths"`
	SingleFile string   `json:"single_file,omitempty"`
}

type Output struct {
	Formats       []string `json:"formats"`
	Storage       string   `json:"storage"`
	RetentionDays int      `json:"retention_days"`
}

// ScannerSettings holds the enabled flag plus scanner-specific options.
type ScannerSettings map[string]interface{}

// Config is the declarative scan configuration handed to the executor.
type Config struct {
	Target     Target                     `json:"target"`
	ScanScope  Scope                      `json:"scan_scope"`
	AutoDetect bool                       `json:"auto_detect"`
	Scanners   map[string]ScannerSettings `json:"scanners"`
	Output     Output                     `json:"output"`
}

// PathFor returns the configuration file path inside a staging directory.
func PathFor(scanDir string) string {
	return filepath.Join(scanDir, FileName)
}

// Exists reports whether a persisted configuration exists for the scan.
func Exists(scanDir string) bool {
	_, err := os.Stat(PathFor(scanDir))
	return err == nil
}

// Write persists rendered configuration bytes into the staging directory.
func Write(scanDir string, data []byte) error {
	if err := os.WriteFile(PathFor(scanDir), data, 0644); err != nil {
		return fmt.Errorf("failed to write scan configuration: %w", err)
	}
	return nil
}
