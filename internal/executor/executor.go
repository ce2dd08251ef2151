package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scanforge/scanforge/internal/results"
	"github.com/scanforge/scanforge/pkg/shared/config"
	scanerrors "github.com/scanforge/scanforge/pkg/shared/errors"
)

// Scan statuses. A non-zero exit alone never marks a scan failed: several
// scanners exit non-zero when they find issues, which is a success signal.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// tailLimit bounds captured stdout/stderr to the last N bytes so chatty
// tools cannot grow memory without bound.
const tailLimit = 5000

// summarizerTimeout bounds the optional summary generator, which is far
// cheaper than the scan itself.
const summarizerTimeout = 5 * time.Minute

// Outcome captures one executor invocation. The stream tails are diagnostics
// only and never drive control decisions.
type Outcome struct {
	ScanID           string `json:"scan_id"`
	Status           string `json:"status"`
	ExitCode         int    `json:"exit_code"`
	ResultsGenerated bool   `json:"results_generated"`
	StdoutTail       string `json:"stdout"`
	StderrTail       string `json:"stderr"`
}

// Adapter invokes the external executor toolchain with a bounded wall-clock
// budget. Executor and summarizer commands are injected configuration; the
// adapter never probes candidate locations at runtime.
type Adapter struct {
	executorPath   string
	summarizerPath string
	resultsFolder  string
	timeout        time.Duration
	slots          chan struct{}
	logger         hclog.Logger
}

func New(cfg *config.Config, logger hclog.Logger) *Adapter {
	return &Adapter{
		executorPath:   cfg.Executor.Path,
		summarizerPath: cfg.Executor.SummarizerPath,
		resultsFolder:  cfg.Scanforge.ResultsFolder,
		timeout:        cfg.Executor.Timeout,
		slots:          make(chan struct{}, cfg.Executor.MaxConcurrent),
		logger:         logger,
	}
}

// ResultsDir returns the results directory for a scan id.
func (a *Adapter) ResultsDir(scanID string) string {
	return filepath.Join(a.resultsFolder, scanID)
}

// Execute runs the external executor for one scan. The configuration path is
// the sole positional argument; the working directory is the staged content
// directory; the results directory and scan id travel in the child's
// environment. The call blocks until the process exits or the timeout
// forcibly terminates it.
func (a *Adapter) Execute(ctx context.Context, scanID, configPath, workDir string) (*Outcome, error) {
	select {
	case a.slots <- struct{}{}:
		defer func() { <-a.slots }()
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for an execution slot: %w", ctx.Err())
	}

	resultsDir := a.ResultsDir(scanID)
	if err := os.MkdirAll(resultsDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create results directory %q: %w", resultsDir, err)
	}

	ensureExecutable(a.executorPath, a.logger)

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	parts := commandLine(a.executorPath, configPath)
	cmd := exec.CommandContext(runCtx, parts[0], parts[1:]...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"RESULTS_DIR="+resultsDir,
		"SCAN_ID="+scanID,
	)

	stdout := newTailBuffer(tailLimit)
	stderr := newTailBuffer(tailLimit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	a.logger.Info("executing scan", "scanID", scanID, "config", configPath, "workDir", workDir)
	err := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		a.logger.Error("scan timed out", "scanID", scanID, "timeout", a.timeout)
		return nil, scanerrors.NewTimeoutError(scanID, a.timeout.String())
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to start executor: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	a.runSummarizer(ctx, scanID, resultsDir)

	outcome := &Outcome{
		ScanID:           scanID,
		ExitCode:         exitCode,
		ResultsGenerated: results.HasArtifacts(resultsDir),
		StdoutTail:       stdout.String(),
		StderrTail:       stderr.String(),
	}
	outcome.Status = classify(exitCode, outcome.ResultsGenerated)

	a.logger.Info("scan execution finished", "scanID", scanID, "status", outcome.Status, "exitCode", exitCode, "resultsGenerated", outcome.ResultsGenerated)
	return outcome, nil
}

// runSummarizer invokes the optional summary generator. Failures degrade to
// the reconciler's fallback summary and are never fatal.
func (a *Adapter) runSummarizer(ctx context.Context, scanID, resultsDir string) {
	if a.summarizerPath == "" {
		return
	}

	ensureExecutable(a.summarizerPath, a.logger)

	sumCtx, cancel := context.WithTimeout(ctx, summarizerTimeout)
	defer cancel()

	summaryPath := filepath.Join(resultsDir, results.SummaryFileName)
	parts := commandLine(a.summarizerPath, resultsDir, summaryPath)
	cmd := exec.CommandContext(sumCtx, parts[0], parts[1:]...)
	cmd.Env = append(os.Environ(), "SCAN_ID="+scanID)

	if err := cmd.Run(); err != nil {
		a.logger.Warn("summary generator failed", "scanID", scanID, "error", err)
	}
}

// classify derives the scan status: completed when the exit code is zero or
// at least one recognized artifact exists.
func classify(exitCode int, resultsGenerated bool) string {
	if exitCode == 0 || resultsGenerated {
		return StatusCompleted
	}
	return StatusFailed
}

// commandLine runs shell scripts through bash and anything else directly.
func commandLine(path string, args ...string) []string {
	if strings.HasSuffix(path, ".sh") {
		return append([]string{"bash", path}, args...)
	}
	return append([]string{path}, args...)
}

// ensureExecutable makes a best-effort permission change on script-like
// collaborator artifacts. Read-only storage is tolerated.
func ensureExecutable(path string, logger hclog.Logger) {
	if err := os.Chmod(path, 0755); err != nil {
		logger.Debug("could not mark collaborator executable", "path", path, "error", err)
	}
}
