package controllers

import (
	"context"
	"fmt"
	"sort"

	"github.com/amaumene/traktcache/internal/models"
	"github.com/sirupsen/logrus"
)

// LibraryStats summarizes the stored movies
type LibraryStats struct {
	Total     int `json:"total"`
	Resolved  int `json:"resolved"`
	Watched   int `json:"watched"`
	Collected int `json:"collected"`
}

// FlagController updates the local flags and serves the admin reads
type FlagController struct {
	guard  *StoreGuard
	logger *logrus.Logger
}

// NewFlagController creates a new flag controller
func NewFlagController(guard *StoreGuard, logger *logrus.Logger) *FlagController {
	return &FlagController{
		guard:  guard,
		logger: logger,
	}
}

// MarkWatched sets the watched flag
func (c *FlagController) MarkWatched(ctx context.Context, traktID int64) error {
	return c.setFlag(ctx, traktID, models.ColumnWatched, true)
}

// MarkUnwatched clears the watched flag
func (c *FlagController) MarkUnwatched(ctx context.Context, traktID int64) error {
	return c.setFlag(ctx, traktID, models.ColumnWatched, false)
}

// MarkCollected sets the collected flag
func (c *FlagController) MarkCollected(ctx context.Context, traktID int64) error {
	return c.setFlag(ctx, traktID, models.ColumnCollected, true)
}

// MarkUncollected clears the collected flag
func (c *FlagController) MarkUncollected(ctx context.Context, traktID int64) error {
	return c.setFlag(ctx, traktID, models.ColumnCollected, false)
}

func (c *FlagController) setFlag(ctx context.Context, traktID int64, column models.Column, value bool) error {
	err := c.guard.Do(ctx, func(store models.Store) error {
		return store.SetMovieFlag(traktID, column, value)
	})
	if err != nil {
		return fmt.Errorf("failed to set %s on movie %d: %w", column, traktID, err)
	}

	c.logger.WithFields(logrus.Fields{
		"trakt_id": traktID,
		"column":   column,
		"value":    value,
	}).Debug("Movie flag updated")
	return nil
}

// AllMovieIDs returns the IDs of every stored movie, resolved or not
func (c *FlagController) AllMovieIDs(ctx context.Context) ([]int64, error) {
	movies, err := c.allMovies(ctx)
	if err != nil {
		return nil, err
	}
	return movieIDs(movies, func(*models.Movie) bool { return true }), nil
}

// WatchedMovieIDs returns the IDs of movies flagged watched
func (c *FlagController) WatchedMovieIDs(ctx context.Context) ([]int64, error) {
	return c.flaggedIDs(ctx, models.ColumnWatched)
}

// CollectedMovieIDs returns the IDs of movies flagged collected
func (c *FlagController) CollectedMovieIDs(ctx context.Context) ([]int64, error) {
	return c.flaggedIDs(ctx, models.ColumnCollected)
}

// UnresolvedMovieIDs returns the IDs of stored movies without metadata
func (c *FlagController) UnresolvedMovieIDs(ctx context.Context) ([]int64, error) {
	movies, err := c.allMovies(ctx)
	if err != nil {
		return nil, err
	}
	return movieIDs(movies, func(m *models.Movie) bool { return !m.Resolved() }), nil
}

// Stats counts the stored movies
func (c *FlagController) Stats(ctx context.Context) (LibraryStats, error) {
	movies, err := c.allMovies(ctx)
	if err != nil {
		return LibraryStats{}, err
	}

	stats := LibraryStats{Total: len(movies)}
	for _, movie := range movies {
		if movie.Resolved() {
			stats.Resolved++
		}
		if movie.Watched {
			stats.Watched++
		}
		if movie.Collected {
			stats.Collected++
		}
	}
	return stats, nil
}

func (c *FlagController) flaggedIDs(ctx context.Context, column models.Column) ([]int64, error) {
	var movies []*models.Movie
	err := c.guard.Do(ctx, func(store models.Store) error {
		var err error
		movies, err = store.FindMoviesByFlag(column, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find %s movies: %w", column, err)
	}
	return movieIDs(movies, func(*models.Movie) bool { return true }), nil
}

func (c *FlagController) allMovies(ctx context.Context) ([]*models.Movie, error) {
	var movies []*models.Movie
	err := c.guard.Do(ctx, func(store models.Store) error {
		var err error
		movies, err = store.GetAllMovies()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

// movieIDs returns the sorted IDs of the movies matching keep
func movieIDs(movies []*models.Movie, keep func(*models.Movie) bool) []int64 {
	ids := make([]int64, 0, len(movies))
	for _, movie := range movies {
		if keep(movie) {
			ids = append(ids, movie.TraktID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
