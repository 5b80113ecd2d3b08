// Package client talks to the process-mining backend. Every call is a
// plain request/response exchange; errors carry the backend's `detail`
// message when one is present and the transport error otherwise.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"procmap/internal/model"
)

// Client is a thin HTTP client for one backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the given base URL (e.g. http://localhost:8000).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// ProgressFunc receives coarse transfer milestones (percent, 0-100).
type ProgressFunc func(percent int)

// PreviewUpload sends the raw file and returns its column/row preview.
// progress, when non-nil, is called at roughly every 20 percentage points
// of body transfer plus completion.
func (c *Client) PreviewUpload(ctx context.Context, filename string, file io.Reader, progress ProgressFunc) (model.PendingUpload, error) {
	var pending model.PendingUpload

	body, contentType, err := multipartFile(filename, file)
	if err != nil {
		return pending, err
	}

	var reader io.Reader = bytes.NewReader(body)
	if progress != nil {
		reader = &progressReader{r: reader, total: int64(len(body)), report: progress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/preview", reader)
	if err != nil {
		return pending, err
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(body))

	err = c.do(req, &pending)
	return pending, err
}

// ConfirmMapping confirms the column mapping for a previewed upload and
// creates the analysis session.
func (c *Client) ConfirmMapping(ctx context.Context, tempID string, m model.ColumnMapping) (model.Session, error) {
	var session model.Session

	q := url.Values{}
	q.Set("temp_id", tempID)
	q.Set("case_id_column", m.CaseID)
	q.Set("activity_column", m.Activity)
	q.Set("timestamp_column", m.Timestamp)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/confirm?"+q.Encode(), nil)
	if err != nil {
		return session, err
	}

	err = c.do(req, &session)
	return session, err
}

// Upload sends a file whose columns already use the canonical names
// (case_id, activity, timestamp), skipping the mapping step.
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (model.Session, error) {
	var session model.Session

	body, contentType, err := multipartFile(filename, file)
	if err != nil {
		return session, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(body))
	if err != nil {
		return session, err
	}
	req.Header.Set("Content-Type", contentType)

	err = c.do(req, &session)
	return session, err
}

// DiscoverGraph fetches the directly-follows graph for a session under the
// given filters.
func (c *Client) DiscoverGraph(ctx context.Context, sessionID string, filters model.FilterCriteria) (model.ProcessGraph, error) {
	var graph model.ProcessGraph

	q := url.Values{}
	if filters.DateStart != "" {
		q.Set("date_start", filters.DateStart)
	}
	if filters.DateEnd != "" {
		q.Set("date_end", filters.DateEnd)
	}
	for _, a := range filters.ExcludedActivities {
		q.Add("excluded_activities", a)
	}
	for _, a := range filters.Activities {
		q.Add("activities", a)
	}

	target := c.baseURL + "/discover/" + url.PathEscape(sessionID)
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return graph, err
	}

	err = c.do(req, &graph)
	return graph, err
}

// Metrics fetches the aggregate statistics for a session.
func (c *Client) Metrics(ctx context.Context, sessionID string) (model.Metrics, error) {
	var metrics model.Metrics
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metrics/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return metrics, err
	}
	err = c.do(req, &metrics)
	return metrics, err
}

// Bottlenecks fetches the ranked transition timings for a session.
func (c *Client) Bottlenecks(ctx context.Context, sessionID string) (model.BottleneckReport, error) {
	var report model.BottleneckReport
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/bottlenecks/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return report, err
	}
	err = c.do(req, &report)
	return report, err
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// apiError extracts the backend's human-readable detail message, falling
// back to the HTTP status.
func apiError(resp *http.Response) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
		return fmt.Errorf("%s", payload.Detail)
	}
	return fmt.Errorf("backend returned %s", resp.Status)
}

func multipartFile(filename string, file io.Reader) (body []byte, contentType string, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// progressReader reports transfer progress at 20-point milestones so large
// files do not flood the activity log.
type progressReader struct {
	r        io.Reader
	total    int64
	sent     int64
	lastStep int
	report   ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.sent += int64(n)
	if p.total > 0 {
		pct := int(p.sent * 100 / p.total)
		step := pct / 20 * 20
		if step > p.lastStep || (pct == 100 && p.lastStep != 100) {
			if pct == 100 {
				step = 100
			}
			p.lastStep = step
			p.report(step)
		}
	}
	return n, err
}
