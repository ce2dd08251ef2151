package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Defaults mirroring the platform's documented environment contract.
const (
	DefaultUploadFolder  = "/tmp/scan-uploads"
	DefaultResultsFolder = "/tmp/scanner-results"
	DefaultStorageFolder = "/tmp/scan-storage"

	DefaultExecutorTimeout = 1 * time.Hour
	DefaultMaxConcurrent   = 4
	DefaultServerAddr      = ":5000"
)

// DefaultAllowedExtensions is the single-file upload allow-list: archives,
// text, and a fixed set of source-code extensions.
var DefaultAllowedExtensions = []string{
	"zip", "json", "txt", "py", "js", "java", "cpp", "c", "go", "cs", "ts", "tsx", "jsx",
}

// Validate normalizes the configuration in place: environment overrides are
// applied, defaults are filled, and directives required at startup are
// checked.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration object is nil")
	}

	applyEnvOverrides(cfg)

	cfg.Server.Addr = SetThen(cfg.Server.Addr, DefaultServerAddr)
	cfg.Server.ReadHeaderTimeout = SetThen(cfg.Server.ReadHeaderTimeout, 10*time.Second)

	cfg.Scanforge.UploadFolder = SetThen(cfg.Scanforge.UploadFolder, DefaultUploadFolder)
	cfg.Scanforge.ResultsFolder = SetThen(cfg.Scanforge.ResultsFolder, DefaultResultsFolder)
	cfg.Scanforge.StorageFolder = SetThen(cfg.Scanforge.StorageFolder, DefaultStorageFolder)
	if len(cfg.Scanforge.AllowedExtensions) == 0 {
		cfg.Scanforge.AllowedExtensions = DefaultAllowedExtensions
	}

	cfg.Executor.Timeout = SetThen(cfg.Executor.Timeout, DefaultExecutorTimeout)
	cfg.Executor.MaxConcurrent = SetThen(cfg.Executor.MaxConcurrent, DefaultMaxConcurrent)

	cfg.GitClient.Depth = SetThen(cfg.GitClient.Depth, 1)
	cfg.GitClient.Timeout = SetThen(cfg.GitClient.Timeout, 10*time.Minute)

	cfg.Storage.Type = SetThen(cfg.Storage.Type, "local")

	if err := validateStorage(&cfg.Storage); err != nil {
		return fmt.Errorf("storage directive is invalid: %w", err)
	}
	return nil
}

// applyEnvOverrides maps the recognized environment options onto the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Scanforge.UploadFolder = v
	}
	if v := os.Getenv("RESULTS_DIR"); v != "" {
		cfg.Scanforge.ResultsFolder = v
	}
	if v := os.Getenv("STORAGE_DIR"); v != "" {
		cfg.Scanforge.StorageFolder = v
	}
	if v := os.Getenv("SCANFORGE_ALLOWED_EXTENSIONS"); v != "" {
		cfg.Scanforge.AllowedExtensions = splitList(v)
	}
	if v := os.Getenv("SCANFORGE_EXECUTOR"); v != "" {
		cfg.Executor.Path = v
	}
	if v := os.Getenv("SCANFORGE_SUMMARIZER"); v != "" {
		cfg.Executor.SummarizerPath = v
	}
	// The fetch credential keeps its historical name as a fallback.
	if v := os.Getenv("VCS_TOKEN"); v != "" {
		cfg.GitClient.Token = v
	} else if v := os.Getenv("GITHUB_TOKEN"); v != "" && cfg.GitClient.Token == "" {
		cfg.GitClient.Token = v
	}
}

// ValidateExecutor requires an injected executor command: the service never
// probes candidate filesystem locations at runtime. Only the server command
// needs an executor, so this runs at server startup rather than for every
// subcommand.
func ValidateExecutor(e *Executor) error {
	if e.Path == "" {
		return fmt.Errorf("executor directive is invalid: path is required (set executor.path or SCANFORGE_EXECUTOR)")
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("executor directive is invalid: timeout must be positive: %s", e.Timeout)
	}
	if e.MaxConcurrent <= 0 {
		return fmt.Errorf("executor directive is invalid: max_concurrent must be positive: %d", e.MaxConcurrent)
	}
	return nil
}

func validateStorage(s *Storage) error {
	switch s.Type {
	case "local":
		return nil
	case "s3":
		if s.S3Bucket == "" {
			return fmt.Errorf("s3_bucket is required when type is s3")
		}
		return nil
	default:
		return fmt.Errorf("unsupported storage type %q", s.Type)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
