package sheetdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sitestock-backend/internal/config"
)

// Client talks to the spreadsheet-style cloud store over its REST API
// (Airtable-compatible: bases, tables, records with a fields map).
type Client struct {
	apiURL     string
	apiKey     string
	baseID     string
	httpClient *http.Client
}

// Record is one row in a table.
type Record struct {
	ID          string                 `json:"id"`
	Fields      map[string]interface{} `json:"fields"`
	CreatedTime time.Time              `json:"createdTime"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

type recordsPayload struct {
	Records []recordPayload `json:"records"`
}

type recordPayload struct {
	ID     string                 `json:"id,omitempty"`
	Fields map[string]interface{} `json:"fields"`
}

// NewClient creates a store client with a bounded request timeout.
func NewClient(cfg config.SheetDBConfig) *Client {
	return &Client{
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		baseID: cfg.BaseID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.apiURL, c.baseID, url.PathEscape(table))
}

// doJSON performs one request with at most one retry on transient failures
// (network error, 429, 5xx). Non-transient API errors are returned as-is.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("store request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read store response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("store unavailable: status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("store API error: status %d: %s", resp.StatusCode, truncate(respBody, 200))
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("unmarshal store response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

// ListAll fetches every record of a table, following pagination offsets.
func (c *Client) ListAll(ctx context.Context, table string) ([]Record, error) {
	var all []Record
	offset := ""

	for {
		u := c.tableURL(table) + "?pageSize=100"
		if offset != "" {
			u += "&offset=" + url.QueryEscape(offset)
		}

		var page listResponse
		if err := c.doJSON(ctx, http.MethodGet, u, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Records...)

		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

// Create appends one record and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, table string, fields map[string]interface{}) (*Record, error) {
	payload := recordsPayload{Records: []recordPayload{{Fields: fields}}}

	var resp listResponse
	if err := c.doJSON(ctx, http.MethodPost, c.tableURL(table), payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Records) == 0 {
		return nil, fmt.Errorf("store returned no record on create")
	}
	return &resp.Records[0], nil
}

// Update patches fields of an existing record.
func (c *Client) Update(ctx context.Context, table, recordID string, fields map[string]interface{}) (*Record, error) {
	payload := recordsPayload{Records: []recordPayload{{ID: recordID, Fields: fields}}}

	var resp listResponse
	if err := c.doJSON(ctx, http.MethodPatch, c.tableURL(table), payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Records) == 0 {
		return nil, fmt.Errorf("store returned no record on update")
	}
	return &resp.Records[0], nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
