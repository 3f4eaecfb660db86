package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const maxResponseBytes = 4 << 20

// ErrNotConfigured is returned when no pipeline backend URL is set.
var ErrNotConfigured = errors.New("pipeline: base url is not configured")

// Response is a raw upstream reply relayed to dashboard callers.
type Response struct {
	Status int
	Body   json.RawMessage
}

// HTTPDoer sends a prepared request. httpkit clients and *http.Client both satisfy it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client relays dashboard requests to the batch pipeline backend.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient constructs a Client. An empty baseURL yields a client that reports ErrNotConfigured.
// A nil httpClient uses an httpkit client with the given timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient HTTPDoer) *Client {
	if httpClient == nil {
		httpClient = httpkit.New(timeout)
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// Do issues method path?query upstream and returns the status and JSON body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values) (Response, error) {
	if c == nil || c.baseURL == "" {
		return Response{}, ErrNotConfigured
	}
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if method == http.MethodPost {
		body = bytes.NewReader([]byte("{}"))
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Response{}, fmt.Errorf("pipeline: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("pipeline: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("pipeline: read %s: %w", path, err)
	}
	if !json.Valid(raw) {
		return Response{}, fmt.Errorf("pipeline: %s returned non-JSON body (status %d)", path, resp.StatusCode)
	}
	return Response{Status: resp.StatusCode, Body: raw}, nil
}
