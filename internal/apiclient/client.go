// Package apiclient is the single HTTP gateway to the remote bank service.
// It attaches the session's bearer token to every request and reports
// failures as typed errors the UI can render directly.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bankfront_api_requests_total",
		Help: "Total remote API requests, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bankfront_api_request_duration_seconds",
		Help:    "Latency distribution of remote API requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

const maxResponseBytes = 4 << 20

// Client is an authenticated JSON client for the bank service. The session
// store is its sole token writer; every other component only issues calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger

	mu          sync.RWMutex
	token       string
	onAuthError func()
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// SetToken attaches a bearer token to all subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken detaches the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the currently attached bearer token, empty when anonymous.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetAuthErrorHook registers a callback invoked whenever the service rejects
// the attached token. The session store uses it to fall back to anonymous.
func (c *Client) SetAuthErrorHook(fn func()) {
	c.mu.Lock()
	c.onAuthError = fn
	c.mu.Unlock()
}

// Do executes one JSON request and decodes the response into out when out is
// non-nil. All failures are reported as *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	endpoint := endpointLabel(path)
	timer := prometheus.NewTimer(apiRequestDuration.WithLabelValues(method, endpoint))
	defer timer.ObserveDuration()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Message: "cannot encode request body: " + err.Error()}
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &Error{Kind: KindValidation, Message: "cannot build request: " + err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiRequestsTotal.WithLabelValues(method, endpoint, "0").Inc()
		c.logger.Warn("remote call failed", "method", method, "endpoint", endpoint, "error", err)
		return &Error{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		apiErr := c.errorFromResponse(resp)
		if apiErr.Kind == KindAuth {
			c.notifyAuthError()
		}
		c.logger.Warn("remote call rejected",
			"method", method, "endpoint", endpoint, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if out == nil {
		_, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return &Error{Kind: KindNetwork, Message: "discard response body: " + err.Error()}
		}
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "read response body: " + err.Error()}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "cannot decode response: " + err.Error()}
	}
	return nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) errorFromResponse(resp *http.Response) *Error {
	kind := KindServer
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		kind = KindAuth
	}

	message := http.StatusText(resp.StatusCode)
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(raw) > 0 {
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
			message = payload.Message
		} else if trimmed := strings.TrimSpace(string(raw)); trimmed != "" {
			message = trimmed
		}
	}

	return &Error{Kind: kind, Status: resp.StatusCode, Message: message}
}

func (c *Client) notifyAuthError() {
	c.mu.RLock()
	fn := c.onAuthError
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// endpointLabel collapses path parameters so metric cardinality stays bounded:
// query strings are stripped and UUID-shaped segments become {id}.
func endpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if looksLikeID(seg) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

func looksLikeID(seg string) bool {
	if len(seg) != 36 {
		return false
	}
	for i, r := range seg {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F') {
				return false
			}
		}
	}
	return true
}
