package trakt

import (
	"context"
	"fmt"
)

// IDs holds the cross-service identifiers of a Trakt item
type IDs struct {
	Trakt int64  `json:"trakt"`
	Slug  string `json:"slug"`
	IMDB  string `json:"imdb"` // e.g. "tt1375666"
	TMDB  int64  `json:"tmdb"`
}

// Movie is the extended Trakt movie summary
type Movie struct {
	Title         string   `json:"title"`
	Year          int      `json:"year"`
	IDs           IDs      `json:"ids"`
	Tagline       string   `json:"tagline"`
	Overview      string   `json:"overview"`
	Released      string   `json:"released"` // "2010-07-16"
	Runtime       int      `json:"runtime"`  // minutes
	Country       string   `json:"country"`
	Trailer       string   `json:"trailer"`
	Homepage      string   `json:"homepage"`
	Status        string   `json:"status"`
	Rating        float64  `json:"rating"`
	Votes         int      `json:"votes"`
	Language      string   `json:"language"`
	Genres        []string `json:"genres"`
	Certification string   `json:"certification"`
}

// GetMovie retrieves the extended summary of a movie by Trakt ID.
// Returns ErrNotFound when Trakt does not know the ID.
func (c *Client) GetMovie(ctx context.Context, traktID int64) (*Movie, error) {
	path := fmt.Sprintf("/movies/%d?extended=full", traktID)

	var movie Movie
	if err := c.doRequest(ctx, path, &movie); err != nil {
		return nil, fmt.Errorf("failed to get movie %d: %w", traktID, err)
	}

	return &movie, nil
}
