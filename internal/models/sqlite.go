package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// movieRow is the SQL table layout of a Movie
type movieRow struct {
	TraktID     int64    `gorm:"primaryKey;autoIncrement:false"`
	Meta        Document `gorm:"serializer:json"`
	Watched     bool     `gorm:"not null;index"`
	Collected   bool     `gorm:"not null;index"`
	LastUpdated time.Time
	AirDate     string
}

func (movieRow) TableName() string {
	return "movies"
}

func (r *movieRow) toMovie() *Movie {
	return &Movie{
		TraktID:     r.TraktID,
		Meta:        r.Meta,
		Watched:     r.Watched,
		Collected:   r.Collected,
		LastUpdated: r.LastUpdated,
		AirDate:     r.AirDate,
	}
}

func rowsToMovies(rows []movieRow) []*Movie {
	movies := make([]*Movie, 0, len(rows))
	for i := range rows {
		movies = append(movies, rows[i].toMovie())
	}
	return movies
}

// SQLDatabase stores movie records in a SQLite file through gorm
type SQLDatabase struct {
	db *gorm.DB
}

// NewSQLDatabase opens (and migrates) a SQLite database
func NewSQLDatabase(path string) (*SQLDatabase, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&movieRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLDatabase{db: db}, nil
}

// Close closes the underlying connection pool
func (s *SQLDatabase) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertMovie replaces or inserts a movie record
func (s *SQLDatabase) UpsertMovie(movie *Movie) error {
	row := movieRow{
		TraktID:     movie.TraktID,
		Meta:        movie.Meta,
		Watched:     movie.Watched,
		Collected:   movie.Collected,
		LastUpdated: movie.LastUpdated,
		AirDate:     movie.AirDate,
	}
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// GetMovie retrieves a movie by Trakt ID
func (s *SQLDatabase) GetMovie(id int64) (*Movie, error) {
	var row movieRow
	err := s.db.Where("trakt_id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toMovie(), nil
}

// GetMoviesByIDs retrieves every stored movie among ids
func (s *SQLDatabase) GetMoviesByIDs(ids []int64) ([]*Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []movieRow
	if err := s.db.Where("trakt_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToMovies(rows), nil
}

// FindMoviesByFlag retrieves all movies whose flag column equals value
func (s *SQLDatabase) FindMoviesByFlag(column Column, value bool) ([]*Movie, error) {
	if _, err := column.field(); err != nil {
		return nil, err
	}
	var rows []movieRow
	if err := s.db.Where(map[string]any{string(column): value}).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToMovies(rows), nil
}

// SetMovieFlag updates a single flag column; missing rows are left alone
func (s *SQLDatabase) SetMovieFlag(id int64, column Column, value bool) error {
	if _, err := column.field(); err != nil {
		return err
	}
	return s.db.Model(&movieRow{}).Where("trakt_id = ?", id).Update(string(column), value).Error
}

// GetAllMovies retrieves all movie records
func (s *SQLDatabase) GetAllMovies() ([]*Movie, error) {
	var rows []movieRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToMovies(rows), nil
}
