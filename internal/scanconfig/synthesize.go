package scanconfig

import (
	"encoding/json"

	"github.com/scanforge/scanforge/internal/inspector"
	"github.com/scanforge/scanforge/pkg/shared/config"
	scanerrors "github.com/scanforge/scanforge/pkg/shared/errors"
)

// Synthesizer derives default scan configurations from inspection results.
type Synthesizer struct {
	storageType string
}

func NewSynthesizer(cfg *config.Config) *Synthesizer {
	return &Synthesizer{storageType: cfg.Storage.Type}
}

// Render returns the configuration bytes to persist. A caller-supplied
// override replaces the derived configuration verbatim; it only has to be
// well-formed JSON, scanner names are not validated and nothing is merged.
func (s *Synthesizer) Render(mode, targetPath string, insp *inspector.Result, override []byte) ([]byte, error) {
	if len(override) > 0 {
		if !json.Valid(override) {
			return nil, scanerrors.NewInvalidInputError("invalid JSON config override")
		}
		return override, nil
	}

	cfg := s.Synthesize(mode, targetPath, insp)
	return json.MarshalIndent(cfg, "", "  ")
}

// Synthesize builds the default configuration. Dependency scanning is
// enabled iff a dependency manifest was found, container scanning iff a
// container manifest was found; static analysis and secret scanning are
// always on. Without an inspection the auto-detected toggles default to on.
func (s *Synthesizer) Synthesize(mode, targetPath string, insp *inspector.Result) *Config {
	dependencyScan := true
	containerScan := true
	if insp != nil {
		dependencyScan = insp.HasDependencies
		containerScan = insp.HasDockerfile
	}

	scopeType := ScopeFull
	singleFile := ""
	if mode == ModeFile {
		scopeType = ScopeSingleFile
		singleFile = targetPath
	}

	return &Config{
		Target: Target{
			Type: mode,
			Path: targetPath,
		},
		ScanScope: Scope{
			Type:       scopeType,
			Paths:      []string{targetPath},
			SingleFile: singleFile,
		},
		AutoDetect: true,
		Scanners: map[string]ScannerSettings{
			"semgrep":     {"enabled": true, "config_path": "security/semgrep-rules"},
			"codeql":      {"enabled": true, "languages": []string{"auto"}, "build_mode": "auto"},
			"gitleaks":    {"enabled": true, "config_path": "security/gitleaks-rules/gitleaks.toml"},
			"osv_scanner": {"enabled": dependencyScan},
			"trivy":       {"enabled": containerScan, "scan_type": "fs"},
			"syft":        {"enabled": false, "format": "spdx-json"},
			"noir":        {"enabled": false},
		},
		Output: Output{
			Formats:       []string{"json", "sarif"},
			Storage:       s.storageType,
			RetentionDays: 30,
		},
	}
}
