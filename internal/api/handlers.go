package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scanforge/scanforge/internal/executor"
	"github.com/scanforge/scanforge/internal/inspector"
	"github.com/scanforge/scanforge/internal/notifier"
	"github.com/scanforge/scanforge/internal/results"
	"github.com/scanforge/scanforge/internal/scanconfig"
	scanerrors "github.com/scanforge/scanforge/pkg/shared/errors"
	"github.com/scanforge/scanforge/pkg/shared/files"
)

const maxUploadMemory = 32 << 20

// requestScanID extracts the scan id route segment. The mux matches on the
// escaped path, so an encoded separator survives as one segment and is
// unescaped by PathValue; anything but a single clean path component is
// refused before it can address the filesystem.
func requestScanID(r *http.Request) (string, error) {
	id := r.PathValue("scanID")
	if id == "" || id == "." || id == ".." || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) {
		return "", scanerrors.NewInvalidInputError("invalid scan id %q", id)
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleUpload stages content, inspects it, synthesizes (or accepts) a scan
// configuration, and persists the configuration next to the staged tree. A
// fresh scan id is minted per call; re-upload under an existing id is not
// supported.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "malformed multipart form")
		return
	}

	scanID := uuid.NewString()
	mode := r.FormValue("type")
	if mode == "" {
		mode = scanconfig.ModeFile
	}

	var (
		targetPath string
		insp       *inspector.Result
		err        error
	)

	switch mode {
	case scanconfig.ModeRepository:
		targetPath, err = s.stager.StageRepository(r.Context(), scanID, r.FormValue("repository_url"), r.FormValue("branch"))
	case scanconfig.ModeZip:
		targetPath, err = s.stageUploadedFile(r, scanID, true)
	case scanconfig.ModeFile:
		targetPath, err = s.stageUploadedFile(r, scanID, false)
	default:
		err = scanerrors.NewInvalidInputError("unsupported upload type %q", mode)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Single files are not worth classifying; directories are.
	if mode != scanconfig.ModeFile {
		if insp, err = s.inspector.Inspect(targetPath); err != nil {
			s.writeError(w, err)
			return
		}
	}

	configData, err := s.synthesizer.Render(mode, targetPath, insp, []byte(r.FormValue("config")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := scanconfig.Write(s.stager.ScanDir(scanID), configData); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("scan uploaded", "scanID", scanID, "type", mode, "targetPath", targetPath)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"scan_id":     scanID,
		"status":      "uploaded",
		"target_path": targetPath,
		"config":      json.RawMessage(configData),
		"inspection":  insp,
	})
}

func (s *Server) stageUploadedFile(r *http.Request, scanID string, archive bool) (string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", scanerrors.NewInvalidInputError("no file provided")
	}
	defer file.Close()

	if header.Filename == "" {
		return "", scanerrors.NewInvalidInputError("no file selected")
	}

	if archive {
		return s.stager.StageArchive(scanID, file)
	}
	return s.stager.StageFile(scanID, header.Filename, file)
}

// handleExecute runs the external executor against a previously persisted
// configuration and reconciles the summary. The call blocks until the
// executor exits or times out.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	scanID, err := requestScanID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	scanDir := s.stager.ScanDir(scanID)

	if !scanconfig.Exists(scanDir) {
		s.writeError(w, scanerrors.NewConfigNotFoundError(scanID))
		return
	}

	outcome, err := s.adapter.Execute(r.Context(), scanID, scanconfig.PathFor(scanDir), scanDir)
	if err != nil {
		s.writeError(w, err)
		return
	}

	summary, err := s.reconciler.Reconcile(scanID)
	if err != nil {
		// Summary trouble never fails an executed scan.
		s.logger.Warn("summary reconciliation failed", "scanID", scanID, "error", err)
		summary = results.Summary{}
	}

	s.afterExecution(scanID, outcome)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scan_id":           scanID,
		"status":            outcome.Status,
		"exit_code":         outcome.ExitCode,
		"results_generated": outcome.ResultsGenerated,
		"summary":           summary,
		"stdout":            outcome.StdoutTail,
		"stderr":            outcome.StderrTail,
	})
}

// afterExecution mirrors artifacts and fires the completion webhook, both
// best-effort.
func (s *Server) afterExecution(scanID string, outcome *executor.Outcome) {
	if s.uploader != nil {
		if err := s.uploader.MirrorResults(scanID, s.adapter.ResultsDir(scanID)); err != nil {
			s.logger.Error("artifact mirroring failed", "scanID", scanID, "error", err)
		}
	}

	if s.notifier != nil {
		index, _ := s.registry.IndexArtifacts(scanID)
		go s.notifier.ScanCompleted(notifier.Event{
			ScanID:        scanID,
			Status:        outcome.Status,
			ExitCode:      outcome.ExitCode,
			ArtifactCount: len(index),
		})
	}
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	scanID, err := requestScanID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	record, err := s.registry.GetScan(scanID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	scanID, err := requestScanID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	index, err := s.registry.IndexArtifacts(scanID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scan_id": scanID,
		"results": index,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	scanID, err := requestScanID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	filename := r.PathValue("filename")

	scanDir := filepath.Join(s.cfg.Scanforge.ResultsFolder, scanID)
	path, err := files.EnsureWithinRoot(scanDir, s.registry.ArtifactPath(scanID, filename))
	if err != nil {
		writeErrorMessage(w, http.StatusNotFound, "file not found")
		return
	}
	if err := files.ValidatePath(path); err != nil {
		writeErrorMessage(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	http.ServeFile(w, r, path)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	scanID, err := requestScanID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, err := os.ReadFile(s.reconciler.SummaryPath(scanID))
	if err != nil {
		if os.IsNotExist(err) {
			writeErrorMessage(w, http.StatusNotFound, "summary not found")
			return
		}
		s.writeError(w, err)
		return
	}

	// The summarizer's document is trusted and served verbatim.
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	records, err := s.registry.ListScans()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"scans": records})
}
