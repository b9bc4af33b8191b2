package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/amaumene/traktcache/internal/controllers"
	"github.com/amaumene/traktcache/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// MoviesHandler serves the movie documents and flags
type MoviesHandler struct {
	query   *controllers.QueryController
	refresh *controllers.RefreshController
	flags   *controllers.FlagController
	logger  *logrus.Logger
}

// NewMoviesHandler creates a new movies handler
func NewMoviesHandler(query *controllers.QueryController, refresh *controllers.RefreshController, flags *controllers.FlagController, logger *logrus.Logger) *MoviesHandler {
	return &MoviesHandler{
		query:   query,
		refresh: refresh,
		flags:   flags,
		logger:  logger,
	}
}

// MovieListResponse is the body of GET /movies
type MovieListResponse struct {
	Movies []models.Document `json:"movies"`
	Total  int               `json:"total"`
}

// IDListResponse is the body of the admin ID reads
type IDListResponse struct {
	IDs   []int64 `json:"ids"`
	Total int     `json:"total"`
}

// List handles GET /movies?ids=1,2,3
func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		writeBadRequest(w, h.logger, err.Error())
		return
	}

	docs, err := h.query.GetMovieList(r.Context(), ids)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get movie list")
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, MovieListResponse{Movies: docs, Total: len(docs)})
}

// Get handles GET /movies/{id}
func (h *MoviesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.movieID(w, r)
	if !ok {
		return
	}

	opts := controllers.RefreshOptions{FetchMeta: true}
	query := r.URL.Query()
	var err error
	if opts.Watched, err = parseOptionalBool(query.Get("watched")); err != nil {
		writeBadRequest(w, h.logger, "invalid watched value")
		return
	}
	if opts.Collected, err = parseOptionalBool(query.Get("collected")); err != nil {
		writeBadRequest(w, h.logger, "invalid collected value")
		return
	}
	force, err := parseOptionalBool(query.Get("force"))
	if err != nil {
		writeBadRequest(w, h.logger, "invalid force value")
		return
	}
	if force != nil {
		opts.Force = *force
	}
	fetch, err := parseOptionalBool(query.Get("fetch"))
	if err != nil {
		writeBadRequest(w, h.logger, "invalid fetch value")
		return
	}
	if fetch != nil {
		opts.FetchMeta = *fetch
	}

	doc, err := h.refresh.GetMovie(r.Context(), id, opts)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, doc)
}

// SetFlag returns a handler applying mark to the movie in the URL
func (h *MoviesHandler) SetFlag(mark func(*controllers.FlagController, context.Context, int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.movieID(w, r)
		if !ok {
			return
		}

		if err := mark(h.flags, r.Context(), id); err != nil {
			h.logger.WithError(err).WithField("trakt_id", id).Error("Failed to update movie flag")
			writeError(w, h.logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// IDs returns a handler serving one of the admin ID reads
func (h *MoviesHandler) IDs(read func(*controllers.FlagController, context.Context) ([]int64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := read(h.flags, r.Context())
		if err != nil {
			h.logger.WithError(err).Error("Failed to list movie IDs")
			writeError(w, h.logger, err)
			return
		}

		writeJSON(w, h.logger, http.StatusOK, IDListResponse{IDs: ids, Total: len(ids)})
	}
}

func (h *MoviesHandler) movieID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, h.logger, "invalid movie id")
		return 0, false
	}
	return id, true
}

// parseIDList parses a comma-separated list of Trakt IDs
func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid movie id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseOptionalBool(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
