package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amaumene/traktcache/internal/config"
	"github.com/amaumene/traktcache/internal/utils"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	defaultImageBaseURL = "https://image.tmdb.org/t/p/"
	configCacheKey      = "image_base_url"
	configCacheTTL      = 24 * time.Hour
)

var errNotFound = errors.New("tmdb item not found")

// Client wraps the TMDB v3 API
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
	retry      utils.RetryPolicy
	cache      *cache.Cache
	logger     *logrus.Logger
}

// NewClient creates a TMDB client. It returns (nil, nil) when no API key
// is configured, which disables the provider.
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" {
		return nil, nil
	}
	if cfg.TMDBAPIURL == "" {
		return nil, fmt.Errorf("tmdb API URL is required")
	}

	return &Client{
		baseURL:    cfg.TMDBAPIURL,
		apiKey:     cfg.TMDBAPIKey,
		language:   cfg.MetadataLanguage.String(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      utils.DefaultRetryPolicy,
		cache:      cache.New(configCacheTTL, time.Hour),
		logger:     logger,
	}, nil
}

// doRequest performs a GET request against the TMDB API
func (c *Client) doRequest(ctx context.Context, path string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	fullURL := c.baseURL + path + "?" + params.Encode()

	c.logger.WithField("path", path).Debug("Making TMDB API request")

	err := utils.Retry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &utils.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	})

	var statusErr *utils.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	return err
}

// imageBaseURL returns the secure image base URL, cached for a day.
// Failures fall back to the well-known default.
func (c *Client) imageBaseURL(ctx context.Context) string {
	if cached, ok := c.cache.Get(configCacheKey); ok {
		return cached.(string)
	}

	var cfg struct {
		Images struct {
			SecureBaseURL string `json:"secure_base_url"`
		} `json:"images"`
	}
	if err := c.doRequest(ctx, "/configuration", nil, &cfg); err != nil || cfg.Images.SecureBaseURL == "" {
		c.logger.WithError(err).Warn("Failed to load TMDB configuration, using default image URL")
		return defaultImageBaseURL
	}

	c.cache.Set(configCacheKey, cfg.Images.SecureBaseURL, cache.DefaultExpiration)
	return cfg.Images.SecureBaseURL
}
