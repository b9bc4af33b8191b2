// Package metadata turns a Trakt ID into a display document, trying a
// primary provider and falling back to a secondary one.
package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/traktcache/internal/models"
	"github.com/amaumene/traktcache/internal/services/trakt"
	"github.com/sirupsen/logrus"
)

// ErrNoMetadata means the providers genuinely have nothing for the item.
// Any other error from Resolve is a transient failure.
var ErrNoMetadata = errors.New("no metadata available")

// Resolver resolves a Trakt movie ID into a display document
type Resolver interface {
	Resolve(ctx context.Context, traktID int64) (models.Document, error)
}

// Catalog looks up movie summaries on the remote catalog
type Catalog interface {
	GetMovie(ctx context.Context, traktID int64) (*trakt.Movie, error)
}

// Provider builds a display document from a catalog summary.
// It returns ErrNoMetadata when it has nothing for the movie.
type Provider interface {
	Name() string
	MovieMeta(ctx context.Context, movie *trakt.Movie) (models.Document, error)
}

// Service is the default Resolver: catalog lookup, then primary, then fallback
type Service struct {
	catalog  Catalog
	primary  Provider
	fallback Provider
	logger   *logrus.Logger
}

// NewService creates a resolver. primary may be nil when no primary
// provider is configured.
func NewService(catalog Catalog, primary, fallback Provider, logger *logrus.Logger) *Service {
	return &Service{
		catalog:  catalog,
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Resolve implements Resolver
func (s *Service) Resolve(ctx context.Context, traktID int64) (models.Document, error) {
	movie, err := s.catalog.GetMovie(ctx, traktID)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}

	if s.primary != nil {
		doc, err := s.tryProvider(ctx, s.primary, movie)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, ErrNoMetadata) {
			return nil, err
		}
		s.logger.WithFields(logrus.Fields{
			"trakt_id": traktID,
			"provider": s.primary.Name(),
		}).Debug("Primary provider has no metadata, trying fallback")
	}

	if s.fallback == nil {
		return nil, ErrNoMetadata
	}
	return s.tryProvider(ctx, s.fallback, movie)
}

func (s *Service) tryProvider(ctx context.Context, p Provider, movie *trakt.Movie) (models.Document, error) {
	doc, err := p.MovieMeta(ctx, movie)
	if err != nil {
		if errors.Is(err, ErrNoMetadata) {
			return nil, err
		}
		return nil, fmt.Errorf("%s provider failed: %w", p.Name(), err)
	}
	if len(doc) == 0 {
		return nil, ErrNoMetadata
	}
	return doc, nil
}
