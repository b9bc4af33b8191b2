package controllers

import (
	"context"
	"time"

	"github.com/amaumene/traktcache/internal/metrics"
	"github.com/amaumene/traktcache/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SyncController refreshes batches of movies concurrently
type SyncController struct {
	guard   *StoreGuard
	refresh *RefreshController
	workers int
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewSyncController creates a new sync controller. workers bounds the
// number of refreshes in flight.
func NewSyncController(guard *StoreGuard, refresh *RefreshController, workers int, m *metrics.Metrics, logger *logrus.Logger) *SyncController {
	if workers < 1 {
		workers = 1
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &SyncController{
		guard:   guard,
		refresh: refresh,
		workers: workers,
		metrics: m,
		logger:  logger,
	}
}

// Sync refreshes every movie in ids that is missing or unresolved and
// returns the documents it produced. It returns only after every dispatched
// refresh has finished. Failed items are left out of the list.
func (c *SyncController) Sync(ctx context.Context, ids []int64) *MovieList {
	list := &MovieList{}

	pending := c.pending(ctx, ids)
	if len(pending) == 0 {
		c.logger.WithField("requested", len(ids)).Debug("All movies already resolved")
		return list
	}

	c.logger.WithFields(logrus.Fields{
		"requested": len(ids),
		"pending":   len(pending),
		"workers":   c.workers,
	}).Info("Refreshing movies")

	start := time.Now()
	c.metrics.BatchSize.Observe(float64(len(pending)))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, id := range pending {
		g.Go(func() error {
			doc, err := c.refresh.GetMovie(ctx, id, RefreshOptions{FetchMeta: true})
			if err != nil {
				c.logger.WithError(err).WithField("trakt_id", id).Debug("Movie left out of batch")
				return nil
			}
			list.Add(doc)
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	c.metrics.BatchDuration.Observe(elapsed.Seconds())
	c.logger.WithFields(logrus.Fields{
		"pending":  len(pending),
		"resolved": list.Len(),
		"duration": elapsed,
	}).Info("Refresh batch completed")

	return list
}

// pending returns the IDs without a resolved record, in request order. A
// store failure makes every ID pending.
func (c *SyncController) pending(ctx context.Context, ids []int64) []int64 {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	var movies []*models.Movie
	err := c.guard.Do(ctx, func(store models.Store) error {
		var err error
		movies, err = store.GetMoviesByIDs(ids)
		return err
	})
	if err != nil {
		c.logger.WithError(err).Warn("Failed to read stored movies, refreshing all")
		return ids
	}

	resolved := make(map[int64]bool, len(movies))
	for _, movie := range movies {
		if movie.Resolved() {
			resolved[movie.TraktID] = true
		}
	}

	var pending []int64
	for _, id := range ids {
		if !resolved[id] {
			pending = append(pending, id)
		}
	}
	return pending
}

// uniqueIDs drops duplicates, keeping first occurrences in order
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
