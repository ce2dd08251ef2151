package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	scanerrors "github.com/scanforge/scanforge/pkg/shared/errors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}

// writeError maps the error taxonomy onto HTTP statuses. Every response
// carries a human-readable reason and never a stack trace.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var invalidInput *scanerrors.InvalidInputError
	var notFound *scanerrors.ConfigNotFoundError
	var timeout *scanerrors.TimeoutError
	var stagingErr *scanerrors.StagingError

	switch {
	case errors.As(err, &invalidInput):
		writeErrorMessage(w, http.StatusBadRequest, invalidInput.Reason)
	case errors.As(err, &notFound):
		writeErrorMessage(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &timeout):
		writeErrorMessage(w, http.StatusGatewayTimeout, timeout.Error())
	case errors.Is(err, os.ErrNotExist):
		writeErrorMessage(w, http.StatusNotFound, "not found")
	case errors.As(err, &stagingErr):
		s.logger.Error("staging failed", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, stagingErr.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, err.Error())
	}
}
