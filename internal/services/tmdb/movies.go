package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/amaumene/traktcache/internal/metadata"
	"github.com/amaumene/traktcache/internal/models"
	"github.com/amaumene/traktcache/internal/services/trakt"
)

// Movie is the subset of the TMDB movie details we display
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	Tagline       string  `json:"tagline"`
	ReleaseDate   string  `json:"release_date"`
	Runtime       int     `json:"runtime"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	Genres        []struct {
		Name string `json:"name"`
	} `json:"genres"`
	ProductionCompanies []struct {
		Name string `json:"name"`
	} `json:"production_companies"`
}

// Name implements metadata.Provider
func (c *Client) Name() string {
	return "tmdb"
}

// GetMovie retrieves movie details in the configured language
func (c *Client) GetMovie(ctx context.Context, tmdbID int64) (*Movie, error) {
	params := url.Values{}
	params.Set("language", c.language)

	var movie Movie
	if err := c.doRequest(ctx, fmt.Sprintf("/movie/%d", tmdbID), params, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// MovieMeta implements metadata.Provider: the Trakt document overlaid with
// TMDB text and artwork.
func (c *Client) MovieMeta(ctx context.Context, movie *trakt.Movie) (models.Document, error) {
	if movie == nil || movie.IDs.TMDB == 0 {
		return nil, metadata.ErrNoMetadata
	}

	details, err := c.GetMovie(ctx, movie.IDs.TMDB)
	if errors.Is(err, errNotFound) {
		return nil, metadata.ErrNoMetadata
	}
	if err != nil {
		return nil, err
	}

	doc := metadata.BuildDocument(movie)
	info, err := doc.Info()
	if err != nil {
		return nil, err
	}

	setIfPresent(info, "title", details.Title)
	setIfPresent(info, "originaltitle", details.OriginalTitle)
	setIfPresent(info, "plot", details.Overview)
	setIfPresent(info, "tagline", details.Tagline)
	if movie.Released == "" {
		setIfPresent(info, "premiered", details.ReleaseDate)
		setIfPresent(info, "aired", details.ReleaseDate)
	}
	if details.Runtime > 0 {
		info["duration"] = details.Runtime * 60
	}
	if len(details.ProductionCompanies) > 0 {
		studios := make([]any, 0, len(details.ProductionCompanies))
		for _, s := range details.ProductionCompanies {
			studios = append(studios, s.Name)
		}
		info["studio"] = studios
	}

	art := map[string]any{}
	base := c.imageBaseURL(ctx)
	if details.PosterPath != "" {
		art["poster"] = base + "w500" + details.PosterPath
		art["thumb"] = base + "w500" + details.PosterPath
	}
	if details.BackdropPath != "" {
		art["fanart"] = base + "original" + details.BackdropPath
	}
	doc["art"] = art

	return doc, nil
}

func setIfPresent(info map[string]any, key, value string) {
	if value != "" {
		info[key] = value
	}
}
