package trakt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amaumene/traktcache/internal/config"
	"github.com/amaumene/traktcache/internal/utils"
	"github.com/sirupsen/logrus"
)

const apiVersion = "2"

// ErrNotFound is returned when Trakt has no item for the requested ID
var ErrNotFound = errors.New("trakt item not found")

// Client handles communication with Trakt API
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	retry      utils.RetryPolicy
	logger     *logrus.Logger
}

// NewClient creates a new Trakt API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TraktClientID == "" {
		return nil, fmt.Errorf("trakt client ID is required")
	}

	return &Client{
		baseURL:    cfg.TraktAPIURL,
		clientID:   cfg.TraktClientID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      utils.DefaultRetryPolicy,
		logger:     logger,
	}, nil
}

// doRequest performs a GET request to Trakt API, retrying transient failures
func (c *Client) doRequest(ctx context.Context, path string, result interface{}) error {
	fullURL := c.baseURL + path
	c.logger.WithField("url", fullURL).Debug("Making Trakt API request")

	err := utils.Retry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("trakt-api-version", apiVersion)
		req.Header.Set("trakt-api-key", c.clientID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &utils.StatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	})

	var statusErr *utils.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}
