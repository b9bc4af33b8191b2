package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record exists for a Trakt ID
	ErrNotFound = errors.New("record not found")
	// ErrUnknownColumn is returned for a flag column other than watched/collected
	ErrUnknownColumn = errors.New("unknown flag column")
)

// Column names a boolean flag column of the movies table
type Column string

const (
	ColumnWatched   Column = "watched"
	ColumnCollected Column = "collected"
)

// field returns the Go struct field backing the column
func (c Column) field() (string, error) {
	switch c {
	case ColumnWatched:
		return "Watched", nil
	case ColumnCollected:
		return "Collected", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, string(c))
	}
}

// set applies the flag value to the record
func (c Column) set(m *Movie, value bool) error {
	switch c {
	case ColumnWatched:
		m.Watched = value
	case ColumnCollected:
		m.Collected = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownColumn, string(c))
	}
	return nil
}

// Store is the keyed table of cached movie records. Implementations are
// atomic per call; callers serialize multi-step sequences themselves.
type Store interface {
	// UpsertMovie replaces the row with the same Trakt ID or inserts it
	UpsertMovie(movie *Movie) error
	// GetMovie returns the row for id or ErrNotFound
	GetMovie(id int64) (*Movie, error)
	// GetMoviesByIDs returns every row whose ID is in ids, in no particular order
	GetMoviesByIDs(ids []int64) ([]*Movie, error)
	// FindMoviesByFlag returns every row where column equals value
	FindMoviesByFlag(column Column, value bool) ([]*Movie, error)
	// SetMovieFlag updates exactly one flag column; a missing ID is a no-op
	SetMovieFlag(id int64, column Column, value bool) error
	// GetAllMovies returns every row
	GetAllMovies() ([]*Movie, error)
	Close() error
}
