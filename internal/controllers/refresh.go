package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/amaumene/traktcache/internal/metadata"
	"github.com/amaumene/traktcache/internal/metrics"
	"github.com/amaumene/traktcache/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrUnavailable is returned when no metadata document can be produced for
// a movie, either because resolution failed or because the providers have
// nothing for it.
var ErrUnavailable = errors.New("movie metadata unavailable")

// RefreshOptions controls a single-movie refresh
type RefreshOptions struct {
	// FetchMeta resolves metadata when the record is missing or unresolved.
	// Without it a missing record is inserted unresolved.
	FetchMeta bool
	// Force re-resolves even an already resolved record
	Force bool
	// Watched and Collected request a raise-only flag transition: a stored
	// false becomes true when the requested value is true. Nothing lowers.
	Watched   *bool
	Collected *bool
}

// RefreshController produces up-to-date movie records while preserving the
// local flags
type RefreshController struct {
	guard    *StoreGuard
	resolver metadata.Resolver
	flight   singleflight.Group
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	now      func() time.Time
}

// NewRefreshController creates a new refresh controller
func NewRefreshController(guard *StoreGuard, resolver metadata.Resolver, m *metrics.Metrics, logger *logrus.Logger) *RefreshController {
	if m == nil {
		m = metrics.New(nil)
	}
	return &RefreshController{
		guard:    guard,
		resolver: resolver,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// GetMovie returns the display document for a movie, resolving and
// persisting it as needed. The returned document carries info.playcount.
// ErrUnavailable means there is no document to show; store errors are
// returned as is.
func (c *RefreshController) GetMovie(ctx context.Context, traktID int64, opts RefreshOptions) (models.Document, error) {
	movie, err := c.readMovie(ctx, traktID)
	if err != nil {
		return nil, err
	}

	switch {
	case movie.Resolved() && !opts.Force:
		c.metrics.Refreshes.WithLabelValues(metrics.OutcomeCached).Inc()
		movie, err = c.raiseFlags(ctx, movie, opts)
	case opts.FetchMeta || opts.Force:
		movie, err = c.refresh(ctx, traktID, opts)
	default:
		c.metrics.Refreshes.WithLabelValues(metrics.OutcomeRegistered).Inc()
		movie, err = c.register(ctx, traktID, opts)
	}
	if err != nil {
		return nil, err
	}

	if !movie.Resolved() {
		return nil, ErrUnavailable
	}

	c.stampPlayCount(movie)
	return movie.Meta, nil
}

// readMovie returns the stored record, or nil when there is none
func (c *RefreshController) readMovie(ctx context.Context, traktID int64) (*models.Movie, error) {
	var movie *models.Movie
	err := c.guard.Do(ctx, func(store models.Store) error {
		var err error
		movie, err = store.GetMovie(traktID)
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return err
	})
	return movie, err
}

// refresh resolves metadata and merges it into the stored record
func (c *RefreshController) refresh(ctx context.Context, traktID int64, opts RefreshOptions) (*models.Movie, error) {
	doc, err := c.resolve(ctx, traktID)
	switch {
	case errors.Is(err, metadata.ErrNoMetadata):
		doc = nil
	case err != nil:
		c.metrics.Refreshes.WithLabelValues(metrics.OutcomeFailed).Inc()
		c.logger.WithError(err).WithField("trakt_id", traktID).Warn("Failed to resolve movie metadata")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	movie, err := c.merge(ctx, traktID, doc, opts)
	if err != nil {
		c.metrics.Refreshes.WithLabelValues(metrics.OutcomeFailed).Inc()
		c.logger.WithError(err).WithField("trakt_id", traktID).Error("Failed to store movie")
		return nil, err
	}

	if len(doc) == 0 {
		c.metrics.Refreshes.WithLabelValues(metrics.OutcomeEmpty).Inc()
		c.logger.WithField("trakt_id", traktID).Debug("No metadata available for movie")
	} else {
		c.metrics.Refreshes.WithLabelValues(metrics.OutcomeResolved).Inc()
	}
	return movie, nil
}

// resolve calls the resolver, collapsing concurrent calls for the same ID.
// The shared call ignores caller cancellation; a cancelled caller only stops
// waiting. An empty document with a nil error counts as no metadata.
func (c *RefreshController) resolve(ctx context.Context, traktID int64) (models.Document, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(strconv.FormatInt(traktID, 10), func() (interface{}, error) {
		c.metrics.ResolverCalls.Inc()
		return c.resolver.Resolve(detached, traktID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	doc, _ := res.Val.(models.Document)
	if len(doc) == 0 {
		return nil, metadata.ErrNoMetadata
	}
	// Shared callers each get their own copy to stamp
	return doc.Clone(), nil
}

// merge writes doc for traktID, carrying over the prior record's flags and
// air date. The prior record is re-read under the same guard as the write
// so flag changes made while resolving are kept. A nil doc never replaces
// resolved metadata.
func (c *RefreshController) merge(ctx context.Context, traktID int64, doc models.Document, opts RefreshOptions) (*models.Movie, error) {
	var merged *models.Movie
	err := c.guard.Do(ctx, func(store models.Store) error {
		prior, err := store.GetMovie(traktID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}

		if doc == nil && prior.Resolved() {
			merged = prior
			return raiseStoredFlags(store, merged, opts)
		}

		merged = &models.Movie{
			TraktID:     traktID,
			Meta:        doc,
			LastUpdated: c.now(),
		}
		if prior != nil {
			merged.Watched = prior.Watched
			merged.Collected = prior.Collected
			merged.AirDate = prior.AirDate
		} else if doc != nil {
			merged.AirDate = doc.AirDate()
		}
		applyRaise(merged, opts)

		return store.UpsertMovie(merged)
	})
	return merged, err
}

// register inserts a bare unresolved record when none exists, then applies
// the requested flag raise
func (c *RefreshController) register(ctx context.Context, traktID int64, opts RefreshOptions) (*models.Movie, error) {
	var movie *models.Movie
	err := c.guard.Do(ctx, func(store models.Store) error {
		prior, err := store.GetMovie(traktID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if prior != nil {
			movie = prior
			return raiseStoredFlags(store, movie, opts)
		}

		movie = &models.Movie{TraktID: traktID, LastUpdated: c.now()}
		applyRaise(movie, opts)
		return store.UpsertMovie(movie)
	})
	return movie, err
}

// raiseFlags applies the raise-only rule to an existing record
func (c *RefreshController) raiseFlags(ctx context.Context, movie *models.Movie, opts RefreshOptions) (*models.Movie, error) {
	if !wantsRaise(movie, opts) {
		return movie, nil
	}
	err := c.guard.Do(ctx, func(store models.Store) error {
		return raiseStoredFlags(store, movie, opts)
	})
	return movie, err
}

func (c *RefreshController) stampPlayCount(movie *models.Movie) {
	if err := movie.Meta.StampPlayCount(movie.Watched); err != nil {
		c.logger.WithError(err).WithField("trakt_id", movie.TraktID).Debug("Returning document without play count")
	}
}

func wantsRaise(movie *models.Movie, opts RefreshOptions) bool {
	return (isTrue(opts.Watched) && !movie.Watched) || (isTrue(opts.Collected) && !movie.Collected)
}

// applyRaise raises the in-memory flags before a full upsert
func applyRaise(movie *models.Movie, opts RefreshOptions) {
	if isTrue(opts.Watched) {
		movie.Watched = true
	}
	if isTrue(opts.Collected) {
		movie.Collected = true
	}
}

// raiseStoredFlags raises flags of a stored record column by column
func raiseStoredFlags(store models.Store, movie *models.Movie, opts RefreshOptions) error {
	if isTrue(opts.Collected) && !movie.Collected {
		if err := store.SetMovieFlag(movie.TraktID, models.ColumnCollected, true); err != nil {
			return err
		}
		movie.Collected = true
	}
	if isTrue(opts.Watched) && !movie.Watched {
		if err := store.SetMovieFlag(movie.TraktID, models.ColumnWatched, true); err != nil {
			return err
		}
		movie.Watched = true
	}
	return nil
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
