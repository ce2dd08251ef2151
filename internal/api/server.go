package api

import (
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/scanforge/scanforge/internal/executor"
	"github.com/scanforge/scanforge/internal/git"
	"github.com/scanforge/scanforge/internal/inspector"
	"github.com/scanforge/scanforge/internal/notifier"
	"github.com/scanforge/scanforge/internal/results"
	"github.com/scanforge/scanforge/internal/scanconfig"
	"github.com/scanforge/scanforge/internal/staging"
	"github.com/scanforge/scanforge/internal/storage"
	"github.com/scanforge/scanforge/pkg/shared/config"
	"github.com/scanforge/scanforge/pkg/shared/files"
)

// Server is the HTTP surface in front of the scan orchestration pipeline.
type Server struct {
	cfg         *config.Config
	stager      *staging.Stager
	inspector   *inspector.Inspector
	synthesizer *scanconfig.Synthesizer
	adapter     *executor.Adapter
	reconciler  *results.Reconciler
	registry    *results.Registry
	uploader    *storage.Uploader
	notifier    *notifier.Notifier
	logger      hclog.Logger
}

// NewServer wires the pipeline components. uploader and notifier may be nil
// when object storage or the webhook are not configured.
func NewServer(cfg *config.Config, logger hclog.Logger) (*Server, error) {
	for _, folder := range []string{cfg.Scanforge.UploadFolder, cfg.Scanforge.ResultsFolder, cfg.Scanforge.StorageFolder} {
		if err := files.CreateFolderIfNotExists(folder); err != nil {
			return nil, err
		}
	}

	uploader, err := storage.NewUploader(cfg, logger.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	return &Server{
		cfg:         cfg,
		stager:      staging.New(cfg, git.NewClient(cfg, logger.Named("git")), logger.Named("stager")),
		inspector:   inspector.New(logger.Named("inspector")),
		synthesizer: scanconfig.NewSynthesizer(cfg),
		adapter:     executor.New(cfg, logger.Named("executor")),
		reconciler:  results.NewReconciler(cfg, logger.Named("reconciler")),
		registry:    results.NewRegistry(cfg, logger.Named("registry")),
		uploader:    uploader,
		notifier:    notifier.New(cfg, logger.Named("notifier")),
		logger:      logger,
	}, nil
}

// Routes builds the route table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/scan/upload", s.handleUpload)
	mux.HandleFunc("GET /api/v1/scan/{scanID}", s.handleGetScan)
	mux.HandleFunc("POST /api/v1/scan/{scanID}/execute", s.handleExecute)
	mux.HandleFunc("GET /api/v1/scan/{scanID}/results", s.handleResults)
	mux.HandleFunc("GET /api/v1/scan/{scanID}/results/{filename}", s.handleDownload)
	mux.HandleFunc("GET /api/v1/scan/{scanID}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/v1/scans", s.handleListScans)
	return mux
}

// ListenAndServe blocks serving the API. Write timeouts stay unset: an
// execute call legitimately blocks for up to the executor timeout.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
	}

	s.logger.Info("scanforge API listening", "addr", s.cfg.Server.Addr)
	return srv.ListenAndServe()
}
