package controllers

import (
	"sync"

	"github.com/amaumene/traktcache/internal/models"
)

// MovieList accumulates deep copies of refreshed documents in completion
// order. Ordering for display is up to the caller.
type MovieList struct {
	mu    sync.Mutex
	items []models.Document
}

// Add appends a copy of doc; safe for concurrent use
func (l *MovieList) Add(doc models.Document) {
	if doc == nil {
		return
	}
	clone := doc.Clone()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, clone)
}

// Items returns a snapshot of the accumulated documents
func (l *MovieList) Items() []models.Document {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Document, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of accumulated documents
func (l *MovieList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
