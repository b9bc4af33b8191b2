package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		// JSON keeps the free-form metadata documents decodable without
		// registering every nested type with gob.
		Encoder: json.Marshal,
		Decoder: json.Unmarshal,
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// UpsertMovie replaces or inserts a movie record
func (db *Database) UpsertMovie(movie *Movie) error {
	return db.store.Upsert(movie.TraktID, movie)
}

// GetMovie retrieves a movie by Trakt ID
func (db *Database) GetMovie(id int64) (*Movie, error) {
	var movie Movie
	err := db.store.Get(id, &movie)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetMoviesByIDs retrieves every stored movie among ids in one read transaction
func (db *Database) GetMoviesByIDs(ids []int64) ([]*Movie, error) {
	var movies []*Movie
	err := db.store.Bolt().View(func(tx *bbolt.Tx) error {
		for _, id := range ids {
			var movie Movie
			err := db.store.TxGet(tx, id, &movie)
			if errors.Is(err, bolthold.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			movies = append(movies, &movie)
		}
		return nil
	})
	return movies, err
}

// FindMoviesByFlag retrieves all movies whose flag column equals value
func (db *Database) FindMoviesByFlag(column Column, value bool) ([]*Movie, error) {
	field, err := column.field()
	if err != nil {
		return nil, err
	}

	var movies []*Movie
	err = db.store.Find(&movies, bolthold.Where(field).Eq(value).Index(field))
	return movies, err
}

// SetMovieFlag updates a single flag column of an existing movie
func (db *Database) SetMovieFlag(id int64, column Column, value bool) error {
	if _, err := column.field(); err != nil {
		return err
	}

	return db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		var movie Movie
		err := db.store.TxGet(tx, id, &movie)
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := column.set(&movie, value); err != nil {
			return err
		}
		return db.store.TxUpdate(tx, id, &movie)
	})
}

// GetAllMovies retrieves all movie records
func (db *Database) GetAllMovies() ([]*Movie, error) {
	var movies []*Movie
	err := db.store.Find(&movies, nil)
	return movies, err
}
