package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"licitasearch/searchservice/internal/domain"
)

const extractPath = "/extract"

type Config struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// Client calls the LLM-backed extraction service that turns a free-text
// question into a structured filter set. The service is a black box; only
// the wire shape matters here.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

type extractRequest struct {
	Question string `json:"question"`
}

func NewClient(cfg Config) *Client {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		client:    client,
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		userAgent: strings.TrimSpace(cfg.UserAgent),
	}
}

// Enabled reports whether an extraction endpoint is configured. Free-text
// search is rejected when it is not.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Extract converts a question into filters. Any failure here is fatal to
// the whole search request, unlike per-facet fetch failures.
func (c *Client) Extract(ctx context.Context, question string) (domain.Filters, error) {
	body, err := json.Marshal(extractRequest{Question: question})
	if err != nil {
		return domain.Filters{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+extractPath, bytes.NewReader(body))
	if err != nil {
		return domain.Filters{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Filters{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return domain.Filters{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Filters{}, &domain.UpstreamError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(payload)),
		}
	}

	var filters domain.Filters
	if err := json.Unmarshal(payload, &filters); err != nil {
		return domain.Filters{}, fmt.Errorf("unexpected extractor payload: %w", err)
	}
	return filters, nil
}
