package staging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scanforge/scanforge/pkg/shared/config"
	scanerrors "github.com/scanforge/scanforge/pkg/shared/errors"
	"github.com/scanforge/scanforge/pkg/shared/files"
)

// defaultBranch is fetched when the caller leaves the branch unspecified.
const defaultBranch = "main"

// RepositoryFetcher is the fetch collaborator. The production implementation
// is internal/git; tests substitute their own.
type RepositoryFetcher interface {
	CloneRepository(ctx context.Context, cloneURL, branch, targetFolder string) (string, error)
}

// Stager normalizes the three ingestion modes (single file, archive, remote
// repository) into one local tree under the upload folder, keyed by scan id.
type Stager struct {
	uploadFolder string
	allowedExts  map[string]struct{}
	fetcher      RepositoryFetcher
	logger       hclog.Logger
}

func New(cfg *config.Config, fetcher RepositoryFetcher, logger hclog.Logger) *Stager {
	exts := make(map[string]struct{}, len(cfg.Scanforge.AllowedExtensions))
	for _, ext := range cfg.Scanforge.AllowedExtensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	return &Stager{
		uploadFolder: cfg.Scanforge.UploadFolder,
		allowedExts:  exts,
		fetcher:      fetcher,
		logger:       logger,
	}
}

// ScanDir returns the staging directory for a scan id.
func (s *Stager) ScanDir(scanID string) string {
	return filepath.Join(s.uploadFolder, scanID)
}

// StageFile writes a single uploaded file, unmodified, into a fresh per-scan
// directory and returns the staged file path. The filename's extension must
// be on the allow-list.
func (s *Stager) StageFile(scanID, filename string, content io.Reader) (string, error) {
	if !s.allowedFile(filename) {
		return "", scanerrors.NewInvalidInputError("file type not allowed: %q", filename)
	}

	scanDir, err := s.freshScanDir(scanID)
	if err != nil {
		return "", err
	}

	targetPath := filepath.Join(scanDir, files.SanitizeFilename(filename))
	if err := writeStream(targetPath, content); err != nil {
		return "", scanerrors.NewStagingError("failed to store uploaded file", err)
	}

	s.logger.Debug("staged single file", "scanID", scanID, "path", targetPath)
	return targetPath, nil
}

// StageArchive writes the uploaded stream to a temporary archive and extracts
// it fully into a fresh per-scan directory. This is the one ingestion step
// allowed to produce many files.
func (s *Stager) StageArchive(scanID string, content io.Reader) (string, error) {
	scanDir, err := s.freshScanDir(scanID)
	if err != nil {
		return "", err
	}

	archivePath := filepath.Join(s.uploadFolder, scanID+".zip")
	if err := writeStream(archivePath, content); err != nil {
		return "", scanerrors.NewStagingError("failed to store uploaded archive", err)
	}

	if err := extractZip(archivePath, scanDir); err != nil {
		return "", scanerrors.NewStagingError("failed to extract archive", err)
	}

	s.logger.Debug("staged archive", "scanID", scanID, "archive", archivePath, "target", scanDir)
	return scanDir, nil
}

// StageRepository delegates to the fetch collaborator. The branch defaults to
// main when unspecified; a shallow single-branch fetch is sufficient.
func (s *Stager) StageRepository(ctx context.Context, scanID, repoURL, branch string) (string, error) {
	if repoURL == "" {
		return "", scanerrors.NewInvalidInputError("repository_url is required")
	}
	if branch == "" {
		branch = defaultBranch
	}

	scanDir, err := s.freshScanDir(scanID)
	if err != nil {
		return "", err
	}

	if _, err := s.fetcher.CloneRepository(ctx, repoURL, branch, scanDir); err != nil {
		return "", scanerrors.NewStagingError(fmt.Sprintf("failed to fetch repository %q", repoURL), err)
	}

	s.logger.Debug("staged repository", "scanID", scanID, "url", repoURL, "target", scanDir)
	return scanDir, nil
}

func (s *Stager) allowedFile(filename string) bool {
	ext := filepath.Ext(filename)
	if ext == "" {
		return false
	}
	_, ok := s.allowedExts[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ok
}

// freshScanDir creates the per-scan staging directory. A directory that
// already exists means an id collision or a re-upload, both refused.
func (s *Stager) freshScanDir(scanID string) (string, error) {
	scanDir := s.ScanDir(scanID)
	if _, err := os.Stat(scanDir); err == nil {
		return "", scanerrors.NewStagingError(fmt.Sprintf("staging directory already exists for %q", scanID), nil)
	}
	if err := os.MkdirAll(scanDir, os.ModePerm); err != nil {
		return "", scanerrors.NewStagingError("failed to create staging directory", err)
	}
	return scanDir, nil
}

func writeStream(path string, content io.Reader) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, content); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}
