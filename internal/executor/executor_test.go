package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanforge/scanforge/pkg/shared/config"
	scanerrors "github.com/scanforge/scanforge/pkg/shared/errors"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/bash\n"+body), 0o755))
	return path
}

func newTestAdapter(t *testing.T, executorBody string, timeout time.Duration) *Adapter {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Scanforge.ResultsFolder = t.TempDir()
	cfg.Executor.Path = writeScript(t, dir, "dispatcher.sh", executorBody)
	cfg.Executor.Timeout = timeout
	cfg.Executor.MaxConcurrent = 2

	return New(cfg, hclog.NewNullLogger())
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name             string
		exitCode         int
		resultsGenerated bool
		want             string
	}{
		{name: "clean exit no artifacts", exitCode: 0, resultsGenerated: false, want: StatusCompleted},
		{name: "clean exit with artifacts", exitCode: 0, resultsGenerated: true, want: StatusCompleted},
		{name: "findings exit with artifacts", exitCode: 1, resultsGenerated: true, want: StatusCompleted},
		{name: "failure exit no artifacts", exitCode: 1, resultsGenerated: false, want: StatusFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.exitCode, tc.resultsGenerated); got != tc.want {
				t.Fatalf("classify(%d, %v) = %q, want %q", tc.exitCode, tc.resultsGenerated, got, tc.want)
			}
		})
	}
}

func TestTailBuffer(t *testing.T) {
	buf := newTailBuffer(10)

	_, err := buf.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	assert.Equal(t, "6789abcdef", buf.String())

	_, err = buf.Write([]byte("XY"))
	require.NoError(t, err)
	assert.Equal(t, "89abcdefXY", buf.String())
}

func TestExecuteCleanExit(t *testing.T) {
	a := newTestAdapter(t, `echo "dispatching $1"`, time.Minute)
	workDir := t.TempDir()

	outcome, err := a.Execute(context.Background(), "scan-1", "/tmp/scan-config.json", workDir)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, outcome.Status)
	assert.Equal(t, 0, outcome.ExitCode)
	assert.False(t, outcome.ResultsGenerated)
	assert.Contains(t, outcome.StdoutTail, "dispatching /tmp/scan-config.json")
}

func TestExecuteNonZeroExitWithArtifacts(t *testing.T) {
	// Scanners exit non-zero when they find issues; artifacts reclassify
	// the outcome as completed.
	a := newTestAdapter(t, `echo '{"findings":3}' > "$RESULTS_DIR/semgrep-findings.json"; exit 1`, time.Minute)

	outcome, err := a.Execute(context.Background(), "scan-2", "config.json", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, outcome.Status)
	assert.Equal(t, 1, outcome.ExitCode)
	assert.True(t, outcome.ResultsGenerated)
}

func TestExecuteNonZeroExitNoArtifacts(t *testing.T) {
	a := newTestAdapter(t, `echo "boom" >&2; exit 1`, time.Minute)

	outcome, err := a.Execute(context.Background(), "scan-3", "config.json", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.Equal(t, 1, outcome.ExitCode)
	assert.Contains(t, outcome.StderrTail, "boom")
}

func TestExecuteTimeout(t *testing.T) {
	a := newTestAdapter(t, `sleep 10`, 100*time.Millisecond)

	outcome, err := a.Execute(context.Background(), "scan-4", "config.json", t.TempDir())
	require.Nil(t, outcome, "a timed-out scan must not fabricate an outcome")

	var timeout *scanerrors.TimeoutError
	require.ErrorAs(t, err, &timeout)
}

func TestExecuteEnvironment(t *testing.T) {
	a := newTestAdapter(t, `echo -n "$SCAN_ID" > "$RESULTS_DIR/env-probe.json"`, time.Minute)

	outcome, err := a.Execute(context.Background(), "scan-5", "config.json", t.TempDir())
	require.NoError(t, err)
	assert.True(t, outcome.ResultsGenerated)

	data, err := os.ReadFile(filepath.Join(a.ResultsDir("scan-5"), "env-probe.json"))
	require.NoError(t, err)
	assert.Equal(t, "scan-5", string(data))
}

func TestExecuteRunsSummarizer(t *testing.T) {
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Scanforge.ResultsFolder = t.TempDir()
	cfg.Executor.Path = writeScript(t, dir, "dispatcher.sh", `echo '{}' > "$RESULTS_DIR/semgrep-findings.json"`)
	cfg.Executor.SummarizerPath = writeScript(t, dir, "generate-summary.sh", `echo '{"metadata":{"scan_id":"'"$SCAN_ID"'"}}' > "$2"`)
	cfg.Executor.Timeout = time.Minute
	cfg.Executor.MaxConcurrent = 1

	a := New(cfg, hclog.NewNullLogger())

	_, err := a.Execute(context.Background(), "scan-6", "config.json", t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(a.ResultsDir("scan-6"), "summary.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "scan-6")
}

func TestCommandLine(t *testing.T) {
	assert.Equal(t, []string{"bash", "/opt/dispatcher.sh", "cfg"}, commandLine("/opt/dispatcher.sh", "cfg"))
	assert.Equal(t, []string{"/opt/dispatcher", "cfg"}, commandLine("/opt/dispatcher", "cfg"))
}
