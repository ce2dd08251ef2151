package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/hashicorp/go-hclog"

	"github.com/scanforge/scanforge/internal/results"
	"github.com/scanforge/scanforge/pkg/shared/config"
)

// Uploader mirrors result artifacts to S3 after a scan completes. It is only
// constructed when storage.type is s3; local storage needs no mirroring.
type Uploader struct {
	bucket   string
	uploader *s3manager.Uploader
	logger   hclog.Logger
}

// NewUploader builds an S3 uploader from the storage configuration, or nil
// when object storage is not enabled.
func NewUploader(cfg *config.Config, logger hclog.Logger) (*Uploader, error) {
	if cfg.Storage.Type != "s3" {
		return nil, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Storage.S3Region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &Uploader{
		bucket:   cfg.Storage.S3Bucket,
		uploader: s3manager.NewUploader(sess),
		logger:   logger,
	}, nil
}

// MirrorResults uploads every recognized artifact plus the summary document
// from resultsDir under the scan id prefix. Mirroring is best-effort per
// file; the local results directory stays authoritative.
func (u *Uploader) MirrorResults(scanID, resultsDir string) error {
	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		return fmt.Errorf("failed to read results directory %q: %w", resultsDir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !results.IsArtifact(entry.Name()) && entry.Name() != results.SummaryFileName {
			continue
		}
		if err := u.uploadFile(scanID, filepath.Join(resultsDir, entry.Name()), entry.Name()); err != nil {
			u.logger.Error("failed to mirror artifact", "scanID", scanID, "file", entry.Name(), "error", err)
		}
	}
	return nil
}

func (u *Uploader) uploadFile(scanID, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer file.Close()

	key := filepath.Join(scanID, name)
	if _, err := u.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   file,
	}); err != nil {
		return fmt.Errorf("failed to upload %q: %w", key, err)
	}

	u.logger.Debug("mirrored artifact", "bucket", u.bucket, "key", key)
	return nil
}
