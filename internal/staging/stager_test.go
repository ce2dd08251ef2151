package staging

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanforge/scanforge/pkg/shared/config"
	scanerrors "github.com/scanforge/scanforge/pkg/shared/errors"
)

type stubFetcher struct {
	cloneURL string
	branch   string
	err      error
}

func (f *stubFetcher) CloneRepository(ctx context.Context, cloneURL, branch, targetFolder string) (string, error) {
	f.cloneURL = cloneURL
	f.branch = branch
	if f.err != nil {
		return "", f.err
	}
	return targetFolder, nil
}

func newTestStager(t *testing.T, fetcher RepositoryFetcher) *Stager {
	t.Helper()
	cfg := &config.Config{}
	cfg.Scanforge.UploadFolder = t.TempDir()
	cfg.Scanforge.AllowedExtensions = config.DefaultAllowedExtensions
	return New(cfg, fetcher, hclog.NewNullLogger())
}

func TestStageFile(t *testing.T) {
	s := newTestStager(t, nil)

	t.Run("allowed extension", func(t *testing.T) {
		path, err := s.StageFile("scan-1", "main.py", strings.NewReader("print('hi')"))
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "print('hi')", string(data))
		assert.Equal(t, filepath.Join(s.ScanDir("scan-1"), "main.py"), path)
	})

	t.Run("disallowed extension", func(t *testing.T) {
		_, err := s.StageFile("scan-2", "payload.exe", strings.NewReader("x"))
		var invalidInput *scanerrors.InvalidInputError
		require.ErrorAs(t, err, &invalidInput)
	})

	t.Run("no extension", func(t *testing.T) {
		_, err := s.StageFile("scan-3", "Makefile", strings.NewReader("x"))
		var invalidInput *scanerrors.InvalidInputError
		require.ErrorAs(t, err, &invalidInput)
	})

	t.Run("traversal filename is sanitized", func(t *testing.T) {
		path, err := s.StageFile("scan-4", "../../../etc/cron.go", strings.NewReader("package x"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(s.ScanDir("scan-4"), "cron.go"), path)
	})

	t.Run("duplicate scan id refused", func(t *testing.T) {
		_, err := s.StageFile("scan-1", "other.py", strings.NewReader("x"))
		var stagingErr *scanerrors.StagingError
		require.ErrorAs(t, err, &stagingErr)
	})
}

func makeZip(t *testing.T, entries map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestStageArchive(t *testing.T) {
	t.Run("extracts all entries", func(t *testing.T) {
		s := newTestStager(t, nil)
		archive := makeZip(t, map[string]string{
			"src/app.go":   "package app",
			"package.json": "{}",
		})

		dir, err := s.StageArchive("scan-zip", archive)
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "src", "app.go"))
		require.NoError(t, err)
		assert.Equal(t, "package app", string(data))
		_, err = os.Stat(filepath.Join(dir, "package.json"))
		require.NoError(t, err)
	})

	t.Run("rejects entries escaping the scan directory", func(t *testing.T) {
		s := newTestStager(t, nil)
		archive := makeZip(t, map[string]string{
			"../outside.txt": "nope",
		})

		_, err := s.StageArchive("scan-slip", archive)
		var stagingErr *scanerrors.StagingError
		require.ErrorAs(t, err, &stagingErr)
	})

	t.Run("garbage stream fails staging", func(t *testing.T) {
		s := newTestStager(t, nil)
		_, err := s.StageArchive("scan-bad", strings.NewReader("not a zip"))
		var stagingErr *scanerrors.StagingError
		require.ErrorAs(t, err, &stagingErr)
	})
}

func TestStageRepository(t *testing.T) {
	t.Run("url required", func(t *testing.T) {
		s := newTestStager(t, &stubFetcher{})
		_, err := s.StageRepository(context.Background(), "scan-r1", "", "main")
		var invalidInput *scanerrors.InvalidInputError
		require.ErrorAs(t, err, &invalidInput)
	})

	t.Run("branch defaults to main", func(t *testing.T) {
		fetcher := &stubFetcher{}
		s := newTestStager(t, fetcher)

		dir, err := s.StageRepository(context.Background(), "scan-r2", "https://example/repo.git", "")
		require.NoError(t, err)
		assert.Equal(t, s.ScanDir("scan-r2"), dir)
		assert.Equal(t, "https://example/repo.git", fetcher.cloneURL)
		assert.Equal(t, "main", fetcher.branch)
	})

	t.Run("fetch failure surfaces as staging error", func(t *testing.T) {
		s := newTestStager(t, &stubFetcher{err: errors.New("connection refused")})
		_, err := s.StageRepository(context.Background(), "scan-r3", "https://example/repo.git", "dev")
		var stagingErr *scanerrors.StagingError
		require.ErrorAs(t, err, &stagingErr)
	})
}
