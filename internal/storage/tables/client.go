// Package tables talks to the external tabular store (an APITable-compatible
// datasheet API) that holds the canonical harvested dataset.
package tables

import (
	"bytes"
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

	"golang.org/x/oauth2"

	"content_harvester/internal/settle"
)

const (
	DefaultBaseURL   = "https://tables.mws.ru/fusion/v1/datasheets/"
	DefaultPageSize  = 1000
	DefaultPageDelay = 200 * time.Millisecond

	// Records are addressed by field name rather than field id.
	fieldKey = "name"

	maxResponseBytes = 32 << 20
)

// Table addresses one datasheet view.
type Table struct {
	DatasheetID string
	ViewID      string
}

// Record is a stored row. RecordID is set only for rows that already exist.
type Record struct {
	RecordID string         `json:"recordId,omitempty"`
	Fields   map[string]any `json:"fields"`
}

type Config struct {
	BaseURL   string
	APIKey    string
	PageSize  int
	PageDelay time.Duration
	Timeout   time.Duration
	// HTTPClient supplies the base transport; the bearer credential is
	// layered on top of it.
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	pageSize   int
	pageDelay  time.Duration
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = cfg.Timeout

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/",
		pageSize:   cfg.PageSize,
		pageDelay:  cfg.PageDelay,
		logger:     logger.With("component", "tables"),
	}
}

type listResponse struct {
	Code    int    `json:"code"`
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Total    int      `json:"total"`
		PageNum  int      `json:"pageNum"`
		PageSize int      `json:"pageSize"`
		Records  []Record `json:"records"`
	} `json:"data"`
}

// ListAll reads every record of the view, one page at a time, until a page
// comes back empty. Any failure aborts the scan: deduplication is only
// correct against the complete set.
func (c *Client) ListAll(ctx context.Context, t Table) ([]Record, error) {
	logger := c.logger.With("table", t.DatasheetID)
	var all []Record

	for page := 1; ; page++ {
		if page > 1 {
			if err := sleep(ctx, c.pageDelay); err != nil {
				return nil, err
			}
		}

		records, err := c.listPage(ctx, t, page)
		if err != nil {
			logger.Error("list page failed", "page", page, "error", err)
			return nil, fmt.Errorf("list %s page %d: %w", t.DatasheetID, page, err)
		}
		if len(records) == 0 {
			break
		}
		all = append(all, records...)
	}

	logger.Debug("listed records", "count", len(all))
	return all, nil
}

func (c *Client) listPage(ctx context.Context, t Table, page int) ([]Record, error) {
	q := url.Values{}
	q.Set("viewId", t.ViewID)
	q.Set("fieldKey", fieldKey)
	q.Set("pageNum", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.recordsURL(t.DatasheetID)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, preview(body))
	}

	var lr listResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if lr.Success != nil && !*lr.Success {
		return nil, fmt.Errorf("store error %d: %s", lr.Code, lr.Message)
	}

	return lr.Data.Records, nil
}

// Outcome reports one write request.
type Outcome struct {
	Method  string
	Records int
	Status  int
	Skipped bool
	Err     error
}

type WriteOutcome struct {
	Update Outcome
	Create Outcome
}

// Failed returns how many of the two writes failed.
func (w WriteOutcome) Failed() int {
	n := 0
	if w.Update.Err != nil {
		n++
	}
	if w.Create.Err != nil {
		n++
	}
	return n
}

type writeRequest struct {
	Records  []Record `json:"records"`
	FieldKey string   `json:"fieldKey"`
}

// Write patches the existing records and creates the new ones with two
// independent parallel requests. Neither is rolled back if the other fails.
// An empty set is skipped.
func (c *Client) Write(ctx context.Context, t Table, updates, creates []Record) WriteOutcome {
	ops := []struct {
		method  string
		records []Record
	}{
		{http.MethodPatch, updates},
		{http.MethodPost, creates},
	}

	outcomes := make([]Outcome, len(ops))
	res := settle.All(ctx, len(ops), len(ops), func(ctx context.Context, i int) (struct{}, error) {
		outcomes[i] = c.send(ctx, t, ops[i].method, ops[i].records)
		return struct{}{}, nil
	})
	for _, f := range res.Failures {
		outcomes[f.Index] = Outcome{Method: ops[f.Index].method, Records: len(ops[f.Index].records), Err: f.Err}
	}

	logger := c.logger.With("table", t.DatasheetID)
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			logger.Debug("write skipped", "method", o.Method)
		case o.Err != nil:
			logger.Error("write failed", "method", o.Method, "records", o.Records, "status", o.Status, "error", o.Err)
		default:
			logger.Info("write done", "method", o.Method, "records", o.Records, "status", o.Status)
		}
	}

	return WriteOutcome{Update: outcomes[0], Create: outcomes[1]}
}

func (c *Client) send(ctx context.Context, t Table, method string, records []Record) Outcome {
	out := Outcome{Method: method, Records: len(records)}
	if len(records) == 0 {
		out.Skipped = true
		return out
	}

	body, err := json.Marshal(writeRequest{Records: records, FieldKey: fieldKey})
	if err != nil {
		out.Err = fmt.Errorf("marshal records: %w", err)
		return out
	}

	q := url.Values{}
	q.Set("viewId", t.ViewID)
	q.Set("fieldKey", fieldKey)

	req, err := http.NewRequestWithContext(ctx, method, c.recordsURL(t.DatasheetID)+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		out.Err = fmt.Errorf("create request: %w", err)
		return out
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		out.Err = fmt.Errorf("execute request: %w", err)
		return out
	}
	defer resp.Body.Close()

	out.Status = resp.StatusCode
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out.Err = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, preview(respBody))
		return out
	}

	var ack struct {
		Code    int    `json:"code"`
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &ack); err == nil && ack.Success != nil && !*ack.Success {
		out.Err = fmt.Errorf("store error %d: %s", ack.Code, ack.Message)
	}
	return out
}

func (c *Client) recordsURL(datasheetID string) string {
	return c.baseURL + url.PathEscape(datasheetID) + "/records"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func preview(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}
