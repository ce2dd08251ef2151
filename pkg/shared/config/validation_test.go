package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWithoutExecutor(t *testing.T) {
	// Commands that never run a scan (version, help) must start without an
	// executor configured.
	cfg := &Config{}
	require.NoError(t, Validate(cfg))

	assert.Equal(t, DefaultUploadFolder, cfg.Scanforge.UploadFolder)
	assert.Equal(t, DefaultResultsFolder, cfg.Scanforge.ResultsFolder)
	assert.Equal(t, DefaultExecutorTimeout, cfg.Executor.Timeout)
	assert.Equal(t, DefaultMaxConcurrent, cfg.Executor.MaxConcurrent)
	assert.Equal(t, "local", cfg.Storage.Type)
}

func TestValidateExecutor(t *testing.T) {
	testCases := []struct {
		name     string
		executor Executor
		wantErr  bool
	}{
		{
			name:     "complete",
			executor: Executor{Path: "/opt/dispatcher.sh", Timeout: time.Hour, MaxConcurrent: 4},
		},
		{
			name:     "missing path",
			executor: Executor{Timeout: time.Hour, MaxConcurrent: 4},
			wantErr:  true,
		},
		{
			name:     "non-positive timeout",
			executor: Executor{Path: "/opt/dispatcher.sh", MaxConcurrent: 4},
			wantErr:  true,
		},
		{
			name:     "non-positive concurrency",
			executor: Executor{Path: "/opt/dispatcher.sh", Timeout: time.Hour},
			wantErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateExecutor(&tc.executor)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStorage(t *testing.T) {
	t.Run("s3 requires a bucket", func(t *testing.T) {
		cfg := &Config{}
		cfg.Storage.Type = "s3"
		require.Error(t, Validate(cfg))

		cfg.Storage.S3Bucket = "scan-artifacts"
		require.NoError(t, Validate(cfg))
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		cfg := &Config{}
		cfg.Storage.Type = "ftp"
		require.Error(t, Validate(cfg))
	})
}
