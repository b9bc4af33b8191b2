package controllers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/amaumene/traktcache/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenBatchStore fails batch lookups but serves everything else
type brokenBatchStore struct {
	models.Store
}

func (s brokenBatchStore) GetMoviesByIDs([]int64) ([]*models.Movie, error) {
	return nil, errors.New("disk I/O error")
}

func titles(t *testing.T, docs []models.Document) []string {
	t.Helper()
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, docTitle(t, doc))
	}
	return out
}

func TestSyncDispatchesOnlyPending(t *testing.T) {
	h := newHarness(t, 4)
	h.seed(t, &models.Movie{TraktID: 10, Meta: movieDoc("Ten", "2001-01-01")})
	h.seed(t, &models.Movie{TraktID: 30})
	for _, id := range []int64{10, 20, 30} {
		h.resolver.docs[id] = movieDoc(fmt.Sprintf("Movie %d", id), "2002-02-02")
	}

	list := h.sync.Sync(context.Background(), []int64{10, 20, 30})

	assert.Equal(t, 0, h.resolver.callsFor(10))
	assert.Equal(t, 1, h.resolver.callsFor(20))
	assert.Equal(t, 1, h.resolver.callsFor(30))
	assert.Equal(t, 2, list.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.ResolverCalls))

	docs, err := h.query.GetMovieList(context.Background(), []int64{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ten", "Movie 20", "Movie 30"}, titles(t, docs))
	assert.Equal(t, 2, h.resolver.totalCalls(), "query after sync hits the cache")
}

func TestSyncNothingPending(t *testing.T) {
	h := newHarness(t, 4)
	h.seed(t, &models.Movie{TraktID: 1, Meta: movieDoc("One", "2001-01-01")})

	list := h.sync.Sync(context.Background(), []int64{1, 1})
	assert.Zero(t, list.Len())
	assert.Zero(t, h.resolver.totalCalls())
}

func TestSyncBoundsConcurrency(t *testing.T) {
	h := newHarness(t, 3)
	h.resolver.delay = 20 * time.Millisecond

	ids := make([]int64, 12)
	for i := range ids {
		ids[i] = int64(i + 1)
		h.resolver.docs[ids[i]] = movieDoc(fmt.Sprintf("Movie %d", i+1), "2002-02-02")
	}

	list := h.sync.Sync(context.Background(), ids)

	assert.Equal(t, 12, list.Len(), "sync returns after every unit finished")
	assert.LessOrEqual(t, h.resolver.maxInFlight, int32(3))
	assert.Greater(t, h.resolver.maxInFlight, int32(0))
}

func TestSyncSkipsFailures(t *testing.T) {
	h := newHarness(t, 2)
	h.resolver.docs[1] = movieDoc("One", "2001-01-01")
	h.resolver.errs[2] = errors.New("timeout")

	list := h.sync.Sync(context.Background(), []int64{1, 2, 3})

	require.Equal(t, 1, list.Len())
	assert.Equal(t, "One", docTitle(t, list.Items()[0]))

	_, err := h.store.GetMovie(2)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, h.stored(t, 3).Resolved())
}

func TestSyncStoreErrorRefreshesAll(t *testing.T) {
	base := newHarness(t, 2)
	base.seed(t, &models.Movie{TraktID: 1, Meta: movieDoc("One", "2001-01-01")})

	h := newHarnessWithStore(brokenBatchStore{Store: base.store}, 2)
	h.resolver.docs[2] = movieDoc("Two", "2002-02-02")

	list := h.sync.Sync(context.Background(), []int64{1, 2})

	assert.Equal(t, 2, list.Len())
	assert.Equal(t, 0, h.resolver.callsFor(1), "resolved record is served from the store")
	assert.Equal(t, 1, h.resolver.callsFor(2))
}

func TestQueryEmptyInput(t *testing.T) {
	h := newHarness(t, 2)

	docs, err := h.query.GetMovieList(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQueryOrderAndDuplicates(t *testing.T) {
	h := newHarness(t, 2)
	h.seed(t, &models.Movie{TraktID: 2, Meta: movieDoc("Two", "2002-02-02")})
	h.seed(t, &models.Movie{TraktID: 1, Meta: movieDoc("One", "2001-01-01")})

	docs, err := h.query.GetMovieList(context.Background(), []int64{2, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Two", "One"}, titles(t, docs))
}

func TestQuerySecondCallUsesCache(t *testing.T) {
	h := newHarness(t, 2)
	h.resolver.docs[1] = movieDoc("One", "2001-01-01")
	h.resolver.docs[2] = movieDoc("Two", "2002-02-02")

	_, err := h.query.GetMovieList(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	calls := h.resolver.totalCalls()

	docs, err := h.query.GetMovieList(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, calls, h.resolver.totalCalls())
}

func TestQueryOmitsEmpty(t *testing.T) {
	h := newHarness(t, 2)

	docs, err := h.query.GetMovieList(context.Background(), []int64{9})
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.False(t, h.stored(t, 9).Resolved(), "empty record is kept")

	docs, err = h.query.GetMovieList(context.Background(), []int64{9})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestQueryFailureCreatesNoRecord(t *testing.T) {
	h := newHarness(t, 2)
	h.resolver.errs[4] = errors.New("bad gateway")

	docs, err := h.query.GetMovieList(context.Background(), []int64{4})
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = h.store.GetMovie(4)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestQueryAfterMarkWatched(t *testing.T) {
	h := newHarness(t, 2)
	h.seed(t, &models.Movie{TraktID: 1, Meta: movieDoc("One", "2001-01-01")})

	require.NoError(t, h.flags.MarkWatched(context.Background(), 1))

	docs, err := h.query.GetMovieList(context.Background(), []int64{1})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	info, err := docs[0].Info()
	require.NoError(t, err)
	assert.Equal(t, 1, info["playcount"])
}

func TestQueryRefreshKeepsWatched(t *testing.T) {
	h := newHarness(t, 2)
	h.seed(t, &models.Movie{TraktID: 1})
	require.NoError(t, h.flags.MarkWatched(context.Background(), 1))
	h.resolver.docs[1] = movieDoc("One", "2001-01-01")

	_, err := h.query.GetMovieList(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.True(t, h.stored(t, 1).Watched)
}
