package metadata

import (
	"context"

	"github.com/amaumene/traktcache/internal/models"
	"github.com/amaumene/traktcache/internal/services/trakt"
)

// TraktProvider builds documents from the Trakt summary alone
type TraktProvider struct{}

// Name implements Provider
func (TraktProvider) Name() string {
	return "trakt"
}

// MovieMeta implements Provider
func (TraktProvider) MovieMeta(_ context.Context, movie *trakt.Movie) (models.Document, error) {
	if movie == nil || movie.Title == "" {
		return nil, ErrNoMetadata
	}
	return BuildDocument(movie), nil
}

// BuildDocument maps a Trakt summary onto the display document shape.
// Other providers start from it and overlay their own fields.
func BuildDocument(movie *trakt.Movie) models.Document {
	genres := make([]any, 0, len(movie.Genres))
	for _, g := range movie.Genres {
		genres = append(genres, g)
	}

	return models.Document{
		"ids": map[string]any{
			"trakt": movie.IDs.Trakt,
			"slug":  movie.IDs.Slug,
			"imdb":  movie.IDs.IMDB,
			"tmdb":  movie.IDs.TMDB,
		},
		"info": map[string]any{
			"mediatype":     "movie",
			"title":         movie.Title,
			"originaltitle": movie.Title,
			"year":          movie.Year,
			"plot":          movie.Overview,
			"tagline":       movie.Tagline,
			"genre":         genres,
			"rating":        movie.Rating,
			"votes":         movie.Votes,
			"duration":      movie.Runtime * 60,
			"mpaa":          movie.Certification,
			"country":       movie.Country,
			"premiered":     movie.Released,
			"aired":         movie.Released,
			"trailer":       movie.Trailer,
			"imdbnumber":    movie.IDs.IMDB,
		},
		"art": map[string]any{},
	}
}
