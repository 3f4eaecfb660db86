package leads

import (
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

	"github.com/Teletobimy/landingpage-irunica/internal/domain"
)

const maxResponseBytes = 1 << 20

// HTTPDoer sends a prepared request. httpkit clients and *http.Client both satisfy it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads lead records from the email pipeline backend.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient constructs a Client. A nil httpClient uses an httpkit client with the given timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient HTTPDoer) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("leads: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("leads: invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = httpkit.New(timeout)
	}
	return &Client{baseURL: base, httpClient: httpClient}, nil
}

type landingResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		CompanyName     string `json:"company_name"`
		Email           string `json:"email"`
		Website         string `json:"website"`
		ResearchSummary string `json:"research_summary"`
		Language        string `json:"language"`
		Region          string `json:"region"`
		Keyword         string `json:"keyword"`
	} `json:"data"`
}

// GetLead fetches the lead behind a landing page id. It returns nil, nil when the page is unknown.
func (c *Client) GetLead(ctx context.Context, pageID string) (*domain.Lead, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.landingURL(pageID, ""), nil)
	if err != nil {
		return nil, fmt.Errorf("leads: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("leads: get %s: %w", pageID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("leads: get %s: unexpected status %d", pageID, resp.StatusCode)
	}

	var payload landingResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("leads: decode %s: %w", pageID, err)
	}
	if !payload.Success {
		return nil, nil
	}

	// Leads without an explicit language fall back to the TLD of their e-mail, then website.
	language := strings.TrimSpace(payload.Data.Language)
	if language == "" {
		language = domain.DetectLanguageFromDomain(payload.Data.Email)
	}
	if language == domain.DefaultLanguage && strings.TrimSpace(payload.Data.Language) == "" {
		language = domain.DetectLanguageFromDomain(payload.Data.Website)
	}
	return &domain.Lead{
		PageID:         pageID,
		CompanyName:    strings.TrimSpace(payload.Data.CompanyName),
		Email:          strings.TrimSpace(payload.Data.Email),
		Website:        strings.TrimSpace(payload.Data.Website),
		ResearchReport: payload.Data.ResearchSummary,
		Language:       language,
		Region:         strings.TrimSpace(payload.Data.Region),
		Keyword:        strings.TrimSpace(payload.Data.Keyword),
	}, nil
}

// TrackVisit records a landing page view on the backend.
func (c *Client) TrackVisit(ctx context.Context, pageID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.landingURL(pageID, "/visit"), nil)
	if err != nil {
		return fmt.Errorf("leads: build visit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("leads: track visit %s: %w", pageID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("leads: track visit %s: unexpected status %d", pageID, resp.StatusCode)
	}
	return nil
}

func (c *Client) landingURL(pageID, suffix string) string {
	return c.baseURL + "/api/landing/" + url.PathEscape(pageID) + suffix
}
