package travis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lei/status-tracker/pkg/logger"
)

// Client handles HTTP communication with the Travis CI v3 API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// Build represents a Travis build
type Build struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
	State  string `json:"state"`
	Commit Commit `json:"commit"`
	Jobs   []Job  `json:"jobs"`
}

// Commit represents the commit a build ran against
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

// Job is the minimal job representation embedded in a build
type Job struct {
	ID int64 `json:"id"`
}

// Repository represents a Travis repository
type Repository struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

type buildsResponse struct {
	Builds []Build `json:"builds"`
}

// NewClient creates a new Travis API client. Requests are paced to rps
// per second; rps <= 0 disables pacing.
func NewClient(baseURL, token string, rps float64, timeout time.Duration, log *logger.Logger) *Client {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     log,
	}
}

// doRequest performs a GET against the API once the limiter admits it
func (c *Client) doRequest(ctx context.Context, path string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	c.logger.Debug("provider: http request", "method", http.MethodGet, "path", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.logger.Error("provider: failed to create request", "error", err)
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Travis-API-Version", "3")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("provider: http request failed", "path", path, "error", err)
		return nil, err
	}

	c.logger.Debug("provider: http response", "path", path, "status", resp.StatusCode)

	return resp, nil
}

// ListBuilds lists the latest push builds of a branch
func (c *Client) ListBuilds(ctx context.Context, repo, branch string, limit int) ([]Build, error) {
	query := url.Values{}
	query.Set("build.event_type", "push")
	query.Set("branch.name", branch)
	query.Set("limit", fmt.Sprintf("%d", limit))
	path := fmt.Sprintf("/repo/%s/builds?%s", url.PathEscape(repo), query.Encode())

	resp, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var body buildsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode builds response: %w", err)
	}

	return body.Builds, nil
}

// GetRepository retrieves a repository by slug
func (c *Client) GetRepository(ctx context.Context, repo string) (*Repository, error) {
	resp, err := c.doRequest(ctx, "/repo/"+url.PathEscape(repo))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseError(resp)
	}

	var r Repository
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode repository: %w", err)
	}

	return &r, nil
}

// JobLog retrieves the plain-text log of a job
func (c *Client) JobLog(ctx context.Context, jobID int64) (string, error) {
	resp, err := c.doRequest(ctx, fmt.Sprintf("/job/%d/log.txt", jobID))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read job log: %w", err)
	}

	return string(data), nil
}
