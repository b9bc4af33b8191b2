package controllers

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amaumene/traktcache/internal/metadata"
	"github.com/amaumene/traktcache/internal/metrics"
	"github.com/amaumene/traktcache/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeResolver serves canned documents and records how it was called
type fakeResolver struct {
	mu    sync.Mutex
	docs  map[int64]models.Document
	errs  map[int64]error
	calls map[int64]int

	delay time.Duration
	gate  chan struct{}

	inFlight    int32
	maxInFlight int32
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		docs:  make(map[int64]models.Document),
		errs:  make(map[int64]error),
		calls: make(map[int64]int),
	}
}

func (r *fakeResolver) Resolve(_ context.Context, traktID int64) (models.Document, error) {
	current := atomic.AddInt32(&r.inFlight, 1)
	defer atomic.AddInt32(&r.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&r.maxInFlight)
		if current <= peak || atomic.CompareAndSwapInt32(&r.maxInFlight, peak, current) {
			break
		}
	}

	r.mu.Lock()
	r.calls[traktID]++
	doc, err := r.docs[traktID], r.errs[traktID]
	r.mu.Unlock()

	if r.gate != nil {
		<-r.gate
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, metadata.ErrNoMetadata
	}
	return doc.Clone(), nil
}

func (r *fakeResolver) callsFor(traktID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[traktID]
}

func (r *fakeResolver) totalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.calls {
		total += n
	}
	return total
}

func movieDoc(title, aired string) models.Document {
	return models.Document{
		"ids": map[string]any{"trakt": 1},
		"info": map[string]any{
			"mediatype": "movie",
			"title":     title,
			"aired":     aired,
		},
	}
}

func docTitle(t *testing.T, doc models.Document) string {
	t.Helper()
	info, err := doc.Info()
	require.NoError(t, err)
	title, _ := info["title"].(string)
	return title
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type harness struct {
	store    models.Store
	guard    *StoreGuard
	resolver *fakeResolver
	metrics  *metrics.Metrics
	refresh  *RefreshController
	sync     *SyncController
	query    *QueryController
	flags    *FlagController
}

func newHarness(t *testing.T, workers int) *harness {
	t.Helper()

	store, err := models.Open(models.DriverBolt, filepath.Join(t.TempDir(), "traktcache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return newHarnessWithStore(store, workers)
}

func newHarnessWithStore(store models.Store, workers int) *harness {
	logger := quietLogger()
	guard := NewStoreGuard(store, time.Second)
	resolver := newFakeResolver()
	m := metrics.New(prometheus.NewRegistry())

	refresh := NewRefreshController(guard, resolver, m, logger)
	refresh.now = func() time.Time { return fixedNow }
	syncCtrl := NewSyncController(guard, refresh, workers, m, logger)

	return &harness{
		store:    store,
		guard:    guard,
		resolver: resolver,
		metrics:  m,
		refresh:  refresh,
		sync:     syncCtrl,
		query:    NewQueryController(guard, syncCtrl, logger),
		flags:    NewFlagController(guard, logger),
	}
}

func (h *harness) seed(t *testing.T, movie *models.Movie) {
	t.Helper()
	require.NoError(t, h.store.UpsertMovie(movie))
}

func (h *harness) stored(t *testing.T, traktID int64) *models.Movie {
	t.Helper()
	movie, err := h.store.GetMovie(traktID)
	require.NoError(t, err)
	return movie
}

func boolPtr(b bool) *bool {
	return &b
}
