// Package client talks to the moneyflow API and keeps the dashboard's cached
// view of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/moneyflow/internal/analytics"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/jobs"
	"github.com/shopspring/decimal"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is an authenticated HTTP client for one user.
type Client struct {
	baseURL  string
	token    string
	timezone string
	http     *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimezone sends an IANA zone with every request so that "today" and
// date ranges resolve in the caller's local time.
func WithTimezone(name string) Option {
	return func(c *Client) { c.timezone = name }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.timezone != "" {
		req.Header.Set("X-Timezone", c.timezone)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}

// QuickEntryRequest is the body of a quick entry. Type is "cash_in" or "cash_out".
type QuickEntryRequest struct {
	Amount       string   `json:"amount"`
	Type         string   `json:"type"`
	Category     string   `json:"category"`
	SelectedTags []string `json:"selectedTags"`
}

// QuickEntry records an entry on the user's allowance account.
func (c *Client) QuickEntry(ctx context.Context, req QuickEntryRequest) (*domain.Transaction, error) {
	var resp struct {
		Data *domain.Transaction `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/cashflows/quick-entry", req, &resp); err != nil {
		return nil, fmt.Errorf("QuickEntry: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) Today(ctx context.Context) (analytics.Summary, error) {
	var summary analytics.Summary
	if err := c.do(ctx, http.MethodGet, "/api/cashflows/analytics/today", nil, &summary); err != nil {
		return analytics.Summary{}, fmt.Errorf("Today: %w", err)
	}
	return summary, nil
}

func (c *Client) Recent(ctx context.Context) ([]analytics.RecentEntry, error) {
	var entries []analytics.RecentEntry
	if err := c.do(ctx, http.MethodGet, "/api/cashflows/analytics/recent", nil, &entries); err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	return entries, nil
}

func (c *Client) ListAccounts(ctx context.Context) ([]domain.AccountWithBalance, error) {
	var resp struct {
		Data []domain.AccountWithBalance `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/accounts", nil, &resp); err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) AccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var resp struct {
		Data struct {
			Balance decimal.Decimal `json:"balance"`
		} `json:"data"`
	}
	path := "/api/accounts/" + url.PathEscape(accountID) + "/balance"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("AccountBalance: %w", err)
	}
	return resp.Data.Balance, nil
}

// ExportStatus is an export job plus, once completed, where to fetch it.
type ExportStatus struct {
	Job         *jobs.ExportJob `json:"data"`
	DownloadURL string          `json:"download_url,omitempty"`
}

// CreateExport queues an export. Dates are YYYY-MM-DD or RFC 3339; empty
// means unbounded.
func (c *Client) CreateExport(ctx context.Context, format jobs.ExportFormat, startDate, endDate string) (*jobs.ExportJob, error) {
	body := map[string]string{"format": string(format)}
	if startDate != "" {
		body["startDate"] = startDate
	}
	if endDate != "" {
		body["endDate"] = endDate
	}
	var resp struct {
		Data *jobs.ExportJob `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/exports", body, &resp); err != nil {
		return nil, fmt.Errorf("CreateExport: %w", err)
	}
	return resp.Data, nil
}

func (c *Client) GetExport(ctx context.Context, jobID string) (*ExportStatus, error) {
	var status ExportStatus
	if err := c.do(ctx, http.MethodGet, "/api/exports/"+url.PathEscape(jobID), nil, &status); err != nil {
		return nil, fmt.Errorf("GetExport: %w", err)
	}
	return &status, nil
}
