package controllers

import (
	"context"

	"github.com/amaumene/traktcache/internal/models"
	"github.com/sirupsen/logrus"
)

// QueryController answers "give me the documents for these movies"
type QueryController struct {
	guard  *StoreGuard
	sync   *SyncController
	logger *logrus.Logger
}

// NewQueryController creates a new query controller
func NewQueryController(guard *StoreGuard, sync *SyncController, logger *logrus.Logger) *QueryController {
	return &QueryController{
		guard:  guard,
		sync:   sync,
		logger: logger,
	}
}

// GetMovieList returns the resolved documents for ids in request order.
// Duplicate IDs are collapsed. Movies that are missing or unresolved are
// refreshed first; those still without metadata are left out.
func (c *QueryController) GetMovieList(ctx context.Context, ids []int64) ([]models.Document, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []models.Document{}, nil
	}

	movies, err := c.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}

	if !allResolved(ids, movies) {
		c.sync.Sync(ctx, ids)
		if movies, err = c.lookup(ctx, ids); err != nil {
			return nil, err
		}
	}

	return c.project(ids, movies), nil
}

func (c *QueryController) lookup(ctx context.Context, ids []int64) (map[int64]*models.Movie, error) {
	var movies []*models.Movie
	err := c.guard.Do(ctx, func(store models.Store) error {
		var err error
		movies, err = store.GetMoviesByIDs(ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Movie, len(movies))
	for _, movie := range movies {
		byID[movie.TraktID] = movie
	}
	return byID, nil
}

// project builds the output documents, stamping each with its play count
func (c *QueryController) project(ids []int64, movies map[int64]*models.Movie) []models.Document {
	docs := make([]models.Document, 0, len(ids))
	for _, id := range ids {
		movie := movies[id]
		if !movie.Resolved() {
			continue
		}
		if err := movie.Meta.StampPlayCount(movie.Watched); err != nil {
			c.logger.WithError(err).WithField("trakt_id", id).Debug("Returning document without play count")
		}
		docs = append(docs, movie.Meta)
	}
	return docs
}

func allResolved(ids []int64, movies map[int64]*models.Movie) bool {
	for _, id := range ids {
		if !movies[id].Resolved() {
			return false
		}
	}
	return true
}
