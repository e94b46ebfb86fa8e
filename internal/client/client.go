// Package client is a typed HTTP client for the framecount API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/framecount/internal/domain/model"
	"github.com/okian/framecount/internal/domain/pricing"
	"github.com/okian/framecount/internal/domain/types"
)

// ShotList is the GET /shots response.
type ShotList struct {
	Shots   []types.ShotView `json:"shots"`
	Summary types.Summary    `json:"summary"`
}

// ReportQuery selects the report format and presentation fields.
type ReportQuery struct {
	Format   string
	Title    string
	Author   string
	Period   string
	ReportID string
	Notes    string
}

// Client talks to one framecount server.
type Client struct {
	baseURL      string
	http         *http.Client
	pollInterval time.Duration
}

// New creates a client for baseURL, e.g. "http://localhost:9080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: defaultTimeout},
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}

// AddShot creates one shot.
func (c *Client) AddShot(ctx context.Context, name string, frames int, previewRef string) (types.ShotView, error) {
	var out types.ShotView
	body := map[string]any{"name": name, "frames": frames}
	if previewRef != "" {
		body["preview_ref"] = previewRef
	}
	err := c.doJSON(ctx, http.MethodPost, "/shots", body, &out)
	return out, err
}

// AddBatch submits candidates in one request.
func (c *Client) AddBatch(ctx context.Context, candidates []model.Candidate) (types.BatchResult, error) {
	var out types.BatchResult
	err := c.doJSON(ctx, http.MethodPost, "/shots/batch", map[string]any{"candidates": candidates}, &out)
	return out, err
}

// Shots lists every shot with totals.
func (c *Client) Shots(ctx context.Context) (ShotList, error) {
	var out ShotList
	err := c.doJSON(ctx, http.MethodGet, "/shots", nil, &out)
	return out, err
}

// UpdateShot edits a shot. Nil fields are left unchanged.
func (c *Client) UpdateShot(ctx context.Context, id string, name *string, frames *int) (types.ShotView, error) {
	var out types.ShotView
	body := map[string]any{}
	if name != nil {
		body["name"] = *name
	}
	if frames != nil {
		body["frames"] = *frames
	}
	err := c.doJSON(ctx, http.MethodPatch, "/shots/"+url.PathEscape(id), body, &out)
	return out, err
}

// RemoveShot deletes a shot.
func (c *Client) RemoveShot(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/shots/"+url.PathEscape(id), nil, nil)
}

// Tiers lists the pricing table.
func (c *Client) Tiers(ctx context.Context) ([]types.TierView, error) {
	var out []types.TierView
	err := c.doJSON(ctx, http.MethodGet, "/tiers", nil, &out)
	return out, err
}

// ReplaceTiers swaps the pricing table.
func (c *Client) ReplaceTiers(ctx context.Context, tiers []pricing.Tier) ([]types.TierView, error) {
	if tiers == nil {
		tiers = []pricing.Tier{}
	}
	var out []types.TierView
	err := c.doJSON(ctx, http.MethodPut, "/tiers", map[string]any{"tiers": tiers}, &out)
	return out, err
}

// RemoveTier deletes the tier at index.
func (c *Client) RemoveTier(ctx context.Context, index int) ([]types.TierView, error) {
	var out []types.TierView
	err := c.doJSON(ctx, http.MethodDelete, "/tiers/"+strconv.Itoa(index), nil, &out)
	return out, err
}

// SubmitImport uploads an image. An empty mimeType lets the server sniff it.
func (c *Client) SubmitImport(ctx context.Context, data []byte, mimeType string) (types.ImportStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/imports", bytes.NewReader(data))
	if err != nil {
		return types.ImportStatus{}, fmt.Errorf("failed to create request: %w", err)
	}
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	} else {
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	var out types.ImportStatus
	err = c.do(req, &out)
	return out, err
}

// Import polls one import job.
func (c *Client) Import(ctx context.Context, id string) (types.ImportStatus, error) {
	var out types.ImportStatus
	err := c.doJSON(ctx, http.MethodGet, "/imports/"+url.PathEscape(id), nil, &out)
	return out, err
}

// WaitImport polls until the job finishes or ctx is done. A failed job is
// returned together with ErrImportFailed.
func (c *Client) WaitImport(ctx context.Context, id string) (types.ImportStatus, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.Import(ctx, id)
		if err != nil {
			return status, err
		}
		switch status.State {
		case "completed":
			return status, nil
		case "failed":
			return status, fmt.Errorf("%w: %s", ErrImportFailed, status.Error)
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Report fetches a rendered report and its content type.
func (c *Client) Report(ctx context.Context, q ReportQuery) ([]byte, string, error) {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("format", q.Format)
	set("title", q.Title)
	set("author", q.Author)
	set("period", q.Period)
	set("report_id", q.ReportID)
	set("notes", q.Notes)

	target := c.baseURL + "/report"
	if enc := v.Encode(); enc != "" {
		target += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, "", decodeAPIError(resp.StatusCode, body)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	}
	return apiErr
}
