package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/traktcache/internal/models"
	"golang.org/x/sync/semaphore"
)

// ErrStoreUnavailable is returned when the store guard cannot be acquired
// within the lock timeout or before the context ends.
var ErrStoreUnavailable = errors.New("movie store unavailable")

// StoreGuard serializes every access sequence on the shared store. It is a
// single process-wide lock: record mutations are short and collisions rare.
type StoreGuard struct {
	store   models.Store
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewStoreGuard wraps store. timeout bounds how long Do waits for the lock.
func NewStoreGuard(store models.Store, timeout time.Duration) *StoreGuard {
	return &StoreGuard{
		store:   store,
		sem:     semaphore.NewWeighted(1),
		timeout: timeout,
	}
}

// Do runs fn while holding the guard. The guard is released on every exit
// path of fn, including panics.
func (g *StoreGuard) Do(ctx context.Context, fn func(store models.Store) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, ctx.Err())
		}
		return fmt.Errorf("%w: lock wait exceeded %s", ErrStoreUnavailable, g.timeout)
	}
	defer g.sem.Release(1)

	return fn(g.store)
}
