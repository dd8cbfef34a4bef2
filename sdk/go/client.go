package workboardsdk

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
)

// Client is a minimal Workboard HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	ActorID     string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// WorkItem represents the API item model.
type WorkItem struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	Unit        string   `json:"unit"`
	CreatorID   string   `json:"creator_id"`
	CreatorName string   `json:"creator_name,omitempty"`
	CreatedAt   string   `json:"created_at"`
	StartedAt   *string  `json:"started_at,omitempty"`
	ClosedAt    *string  `json:"closed_at,omitempty"`
	StartAt     *string  `json:"start_at,omitempty"`
	DueAt       string   `json:"due_at"`
	Assignees   []string `json:"assignees"`
	Tags        []string `json:"tags,omitempty"`
}

// CreateItemRequest is the payload for CreateItem.
type CreateItemRequest struct {
	Kind        string   `json:"kind,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Unit        string   `json:"unit"`
	CreatorID   string   `json:"creator_id"`
	CreatorName string   `json:"creator_name,omitempty"`
	StartAt     string   `json:"start_at,omitempty"`
	DueAt       string   `json:"due_at"`
	AssigneeIDs []string `json:"assignee_ids"`
	Tags        []string `json:"tags,omitempty"`
	Visibility  bool     `json:"visibility,omitempty"`
}

// Report mirrors the summary report response.
type Report struct {
	From string `json:"from"`
	To   string `json:"to"`
	KPIs struct {
		Total             int      `json:"total"`
		Active            int      `json:"active"`
		OverdueOpen       int      `json:"overdue_open"`
		Done              int      `json:"done"`
		OnTimeDone        int      `json:"on_time_done"`
		LateDone          int      `json:"late_done"`
		OnTimeRate        *float64 `json:"on_time_rate"`
		AvgResolutionDays *float64 `json:"avg_resolution_days"`
		DoneButNoClosed   int      `json:"done_but_no_closed"`
	} `json:"kpis"`
	Series []struct {
		Day        string `json:"day"`
		Opened     int    `json:"opened"`
		Closed     int    `json:"closed"`
		LateClosed int    `json:"late_closed"`
	} `json:"series"`
	Distribution []struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	} `json:"distribution"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateItem creates a work item and returns its id.
func (c *Client) CreateItem(ctx context.Context, req CreateItemRequest) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "v0/items", req, &resp)
	return resp.ID, err
}

// GetItem fetches a work item by id.
func (c *Client) GetItem(ctx context.Context, id string) (WorkItem, error) {
	var resp WorkItem
	err := c.do(ctx, http.MethodGet, "v0/items/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ListItems returns items, optionally filtered by assignee.
func (c *Client) ListItems(ctx context.Context, ownerID string) ([]WorkItem, error) {
	endpoint := "v0/items"
	if ownerID != "" {
		endpoint += "?owner_id=" + url.QueryEscape(ownerID)
	}
	var resp []WorkItem
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// UnitItems returns items filed against a unit.
func (c *Client) UnitItems(ctx context.Context, unit string) ([]WorkItem, error) {
	var resp []WorkItem
	err := c.do(ctx, http.MethodGet, "v0/units/"+url.PathEscape(unit)+"/items", nil, &resp)
	return resp, err
}

// ApplyStatus applies a status label to an item. The label is free text;
// the server normalizes it.
func (c *Client) ApplyStatus(ctx context.Context, id, status string) (WorkItem, error) {
	var resp WorkItem
	endpoint := "v0/items/" + url.PathEscape(id) + "/status"
	err := c.do(ctx, http.MethodPatch, endpoint, map[string]any{"status": status}, &resp)
	return resp, err
}

// ReportSummary fetches KPIs and the daily series for a window.
func (c *Client) ReportSummary(ctx context.Context, from, to string) (Report, error) {
	var resp Report
	endpoint := fmt.Sprintf("v0/reports/summary?from=%s&to=%s", url.QueryEscape(from), url.QueryEscape(to))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.ActorID != "":
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
