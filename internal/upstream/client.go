// Package upstream reads the payload and last-updated stamp from a remote tracker.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/lei/status-tracker/internal/matrix"
	"github.com/lei/status-tracker/internal/models"
	"github.com/lei/status-tracker/internal/payload"
	"github.com/lei/status-tracker/pkg/logger"
)

// Client fetches from another tracker's /api and /last_updated endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// StatusError is returned for non-200 responses
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned %d: %s", e.Path, e.Status, e.Body)
}

// NewClient creates a client for the tracker at baseURL
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	log := logger.FromContext(ctx, c.logger)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("upstream: request failed", "path", path, "error", err)
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	log.Debug("upstream: response", "path", path, "status", resp.StatusCode, "bytes", len(body))

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusServiceUnavailable:
		return nil, payload.ErrNoData
	default:
		return nil, &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}

// Payload implements service.Source
func (c *Client) Payload(ctx context.Context) (*models.Payload, error) {
	body, err := c.get(ctx, "/api")
	if err != nil {
		return nil, err
	}

	// a body that does not fit the payload shape is a contract violation
	var p models.Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %w", matrix.ErrContractViolation, err)
	}
	return &p, nil
}

// LastUpdated implements service.Source. The endpoint answers with Unix
// seconds, either bare or as {"last_updated": seconds}.
func (c *Client) LastUpdated(ctx context.Context) (time.Time, error) {
	body, err := c.get(ctx, "/last_updated")
	if err != nil {
		return time.Time{}, err
	}

	value := gjson.ParseBytes(body)
	if value.IsObject() {
		value = value.Get("last_updated")
	}

	if value.Type != gjson.Number && value.Type != gjson.String {
		return time.Time{}, fmt.Errorf("unexpected last_updated value %q", strings.TrimSpace(string(body)))
	}

	secs := value.Float()
	if secs <= 0 {
		return time.Time{}, fmt.Errorf("unexpected last_updated value %q", strings.TrimSpace(string(body)))
	}

	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))), nil
}
