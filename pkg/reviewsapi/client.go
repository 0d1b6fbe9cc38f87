package reviewsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ikkim/restaurant-reviews/pkg/logger"
)

// IdempotencyHeader carries the client correlation id on review creation.
const IdempotencyHeader = "Idempotency-Key"

// Client talks to the restaurant reviews backend
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new backend client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// GetRestaurant fetches GET /restaurants/{id}
func (c *Client) GetRestaurant(ctx context.Context, id uint) (*Restaurant, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/restaurants/%d", id), nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch restaurant %d: %w", id, err)
	}

	var restaurant Restaurant
	if err := json.Unmarshal(body, &restaurant); err != nil {
		return nil, fmt.Errorf("failed to unmarshal restaurant: %w", err)
	}
	return &restaurant, nil
}

// GetReviews fetches GET /reviews/?restaurant_id={id}
func (c *Client) GetReviews(ctx context.Context, restaurantID uint) ([]Review, error) {
	query := url.Values{}
	query.Set("restaurant_id", strconv.FormatUint(uint64(restaurantID), 10))

	body, err := c.doRequest(ctx, http.MethodGet, "/reviews/", query, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews for restaurant %d: %w", restaurantID, err)
	}

	reviews := []Review{}
	if err := json.Unmarshal(body, &reviews); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reviews: %w", err)
	}
	return reviews, nil
}

// CreateReview posts a review. idempotencyKey lets the backend drop replays
// of the same outbox entry.
func (c *Client) CreateReview(ctx context.Context, req CreateReviewRequest, idempotencyKey string) (*Review, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[IdempotencyHeader] = idempotencyKey
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/reviews/", nil, req, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	var review Review
	if err := json.Unmarshal(body, &review); err != nil {
		return nil, fmt.Errorf("failed to unmarshal created review: %w", err)
	}
	return &review, nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	}
	return nil
}

// doRequest performs an HTTP request against the backend and maps failures
// onto the package errors.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload interface{}, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("Reviews API request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrNetwork, err)
	}

	logger.Debug("Reviews API request completed", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
		"latency_ms":  time.Since(start).Milliseconds(),
	})

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	message := string(body)
	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		message = errResp.Message
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, message)
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, message)
	default:
		return nil, fmt.Errorf("%w: status %d: %s", ErrValidation, resp.StatusCode, message)
	}
}
