package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amaumene/traktcache/internal/controllers"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *logrus.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps controller errors onto HTTP status codes
func writeError(w http.ResponseWriter, logger *logrus.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, controllers.ErrUnavailable):
		status = http.StatusNotFound
	case errors.Is(err, controllers.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, logger, status, ErrorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, logger *logrus.Logger, message string) {
	writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{Error: message})
}
