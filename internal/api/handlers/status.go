package handlers

import (
	"net/http"

	"github.com/amaumene/traktcache/internal/controllers"
	"github.com/sirupsen/logrus"
)

// StatusHandler handles status requests
type StatusHandler struct {
	flags  *controllers.FlagController
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(flags *controllers.FlagController, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		flags:  flags,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalMovies int `json:"total_movies"`
	Resolved    int `json:"resolved"`
	Unresolved  int `json:"unresolved"`
	Watched     int `json:"watched"`
	Collected   int `json:"collected"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.flags.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get movie stats")
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, StatusResponse{
		TotalMovies: stats.Total,
		Resolved:    stats.Resolved,
		Unresolved:  stats.Total - stats.Resolved,
		Watched:     stats.Watched,
		Collected:   stats.Collected,
	})
}
