package metadata

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/amaumene/traktcache/internal/models"
	"github.com/amaumene/traktcache/internal/services/trakt"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	movie *trakt.Movie
	err   error
}

func (c *fakeCatalog) GetMovie(_ context.Context, _ int64) (*trakt.Movie, error) {
	return c.movie, c.err
}

type fakeProvider struct {
	doc   models.Document
	err   error
	calls int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) MovieMeta(_ context.Context, _ *trakt.Movie) (models.Document, error) {
	p.calls++
	return p.doc, p.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var inception = &trakt.Movie{
	Title:    "Inception",
	Year:     2010,
	IDs:      trakt.IDs{Trakt: 16662, IMDB: "tt1375666", TMDB: 27205},
	Released: "2010-07-16",
	Runtime:  148,
	Genres:   []string{"action"},
}

func TestResolvePrimary(t *testing.T) {
	primary := &fakeProvider{doc: models.Document{"info": map[string]any{"title": "primary"}}}
	fallback := &fakeProvider{doc: models.Document{"info": map[string]any{"title": "fallback"}}}
	svc := NewService(&fakeCatalog{movie: inception}, primary, fallback, quietLogger())

	doc, err := svc.Resolve(context.Background(), 16662)
	require.NoError(t, err)
	assert.Equal(t, "primary", doc["info"].(map[string]any)["title"])
	assert.Equal(t, 0, fallback.calls)
}

func TestResolveFallsBackOnEmpty(t *testing.T) {
	tests := []struct {
		name    string
		primary *fakeProvider
	}{
		{"ErrNoMetadata", &fakeProvider{err: ErrNoMetadata}},
		{"empty document", &fakeProvider{doc: models.Document{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := &fakeProvider{doc: models.Document{"info": map[string]any{"title": "fallback"}}}
			svc := NewService(&fakeCatalog{movie: inception}, tt.primary, fallback, quietLogger())

			doc, err := svc.Resolve(context.Background(), 16662)
			require.NoError(t, err)
			assert.Equal(t, "fallback", doc["info"].(map[string]any)["title"])
			assert.Equal(t, 1, fallback.calls)
		})
	}
}

func TestResolveBothEmpty(t *testing.T) {
	svc := NewService(&fakeCatalog{movie: inception}, &fakeProvider{err: ErrNoMetadata}, &fakeProvider{err: ErrNoMetadata}, quietLogger())

	_, err := svc.Resolve(context.Background(), 16662)
	assert.ErrorIs(t, err, ErrNoMetadata)
}

func TestResolvePrimaryFailureDoesNotFallBack(t *testing.T) {
	fallback := &fakeProvider{doc: models.Document{"info": map[string]any{}}}
	svc := NewService(&fakeCatalog{movie: inception}, &fakeProvider{err: errors.New("timeout")}, fallback, quietLogger())

	_, err := svc.Resolve(context.Background(), 16662)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMetadata)
	assert.Equal(t, 0, fallback.calls)
}

func TestResolveCatalogFailure(t *testing.T) {
	primary := &fakeProvider{}
	svc := NewService(&fakeCatalog{err: trakt.ErrNotFound}, primary, TraktProvider{}, quietLogger())

	_, err := svc.Resolve(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMetadata)
	assert.ErrorIs(t, err, trakt.ErrNotFound)
	assert.Equal(t, 0, primary.calls)
}

func TestResolveWithoutPrimary(t *testing.T) {
	svc := NewService(&fakeCatalog{movie: inception}, nil, TraktProvider{}, quietLogger())

	doc, err := svc.Resolve(context.Background(), 16662)
	require.NoError(t, err)
	assert.Equal(t, "2010-07-16", doc.AirDate())
	assert.Equal(t, "Inception", doc["info"].(map[string]any)["title"])
	assert.Equal(t, 148*60, doc["info"].(map[string]any)["duration"])
}

func TestTraktProviderEmptyTitle(t *testing.T) {
	_, err := TraktProvider{}.MovieMeta(context.Background(), &trakt.Movie{})
	assert.ErrorIs(t, err, ErrNoMetadata)
}
