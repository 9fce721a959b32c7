// Package ingest pulls bank data from the FDIC BankFind Suite API into
// Postgres, with optional parquet archival of the raw pages.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxPageLimit = 10000

// Record is one row from the FDIC API. The interesting fields live under
// the "data" envelope keyed by uppercase FDIC field names.
type Record struct {
	Data map[string]any `json:"data"`
}

// Field returns the named FDIC field or nil when absent.
func (r Record) Field(name string) any {
	if r.Data == nil {
		return nil
	}
	value, ok := r.Data[name]
	if !ok {
		return nil
	}
	return value
}

// FieldString returns the named field as a string, or "" when absent.
func (r Record) FieldString(name string) string {
	value, ok := r.Field(name).(string)
	if !ok {
		return ""
	}
	return value
}

type ClientConfig struct {
	BaseURL   string
	APIKey    string
	PageLimit int
	PageDelay time.Duration
}

// Client is a paginated FDIC BankFind API client.
type Client struct {
	baseURL   string
	apiKey    string
	pageLimit int
	pageDelay time.Duration
	http      *http.Client
	logger    *slog.Logger
}

func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("fdic base URL is required")
	}
	limit := cfg.PageLimit
	if limit <= 0 || limit > maxPageLimit {
		limit = maxPageLimit
	}
	return &Client{
		baseURL:   baseURL,
		apiKey:    strings.TrimSpace(cfg.APIKey),
		pageLimit: limit,
		pageDelay: cfg.PageDelay,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}, nil
}

// FetchPage fetches a single page from an endpoint and reports the total
// record count the API knows about for the given filters.
func (c *Client) FetchPage(ctx context.Context, endpoint, filters, fields string, offset int) ([]Record, int, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(c.pageLimit))
	params.Set("offset", strconv.Itoa(offset))
	if filters != "" {
		params.Set("filters", filters)
	}
	if fields != "" {
		params.Set("fields", fields)
	}

	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build fdic request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("fdic %s request failed status=%d", endpoint, resp.StatusCode)
	}

	var parsed struct {
		Data []Record `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return parsed.Data, parsed.Meta.Total, nil
}

// FetchAll walks every page of an endpoint, invoking handle once per page.
// A short delay between pages keeps request rates polite.
func (c *Client) FetchAll(ctx context.Context, endpoint, filters, fields string, handle func(page int, records []Record) error) (int, error) {
	fetched := 0
	offset := 0
	page := 0
	for {
		records, total, err := c.FetchPage(ctx, endpoint, filters, fields, offset)
		if err != nil {
			return fetched, err
		}
		if len(records) == 0 {
			break
		}
		if err := handle(page, records); err != nil {
			return fetched, err
		}
		fetched += len(records)
		c.logger.InfoContext(ctx, "fetched fdic page",
			slog.String("endpoint", endpoint),
			slog.Int("offset", offset),
			slog.Int("records", len(records)),
			slog.Int("total", total),
		)

		if offset+c.pageLimit >= total {
			break
		}
		offset += c.pageLimit
		page++

		if c.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return fetched, ctx.Err()
			case <-time.After(c.pageDelay):
			}
		}
	}
	return fetched, nil
}
