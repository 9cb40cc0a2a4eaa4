// Package platformapi is the HTTP client for the social platform's search
// and reply endpoints. It implements platform.Searcher and platform.Poster
// and maps HTTP failures onto the resilience error taxonomy.
package platformapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/reachpoint/replybot/internal/platform"
	"github.com/reachpoint/replybot/internal/resilience"
)

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client talks to the platform API with bearer auth.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

var (
	_ platform.Searcher = (*Client)(nil)
	_ platform.Poster   = (*Client)(nil)
)

// NewClient creates a platform API client.
func NewClient(token, baseURL string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Items []platform.Item `json:"items"`
}

// Search runs a recent-post search.
func (c *Client) Search(ctx context.Context, q platform.Query) ([]platform.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search", nil)
	if err != nil {
		return nil, eris.Wrap(err, "platformapi: create search request")
	}

	query := req.URL.Query()
	query.Set("q", q.Text)
	for _, kw := range q.Keywords {
		query.Add("keyword", kw)
	}
	if q.MaxResults > 0 {
		query.Set("max_results", strconv.Itoa(q.MaxResults))
	}
	if q.Language != "" {
		query.Set("lang", q.Language)
	}
	req.URL.RawQuery = query.Encode()

	body, err := c.do(req, "search")
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrapf(resilience.ErrMalformedResponse, "platformapi: decode search: %v", err)
	}
	return resp.Items, nil
}

type postReplyRequest struct {
	TargetID string `json:"target_id"`
	Text     string `json:"text"`
}

type postReplyResponse struct {
	ID string `json:"id"`
}

// PostReply posts text as a reply to targetID and returns the new reply's ID.
func (c *Client) PostReply(ctx context.Context, targetID, text string) (string, error) {
	payload, err := json.Marshal(postReplyRequest{TargetID: targetID, Text: text})
	if err != nil {
		return "", eris.Wrap(err, "platformapi: marshal reply")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/replies", bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "platformapi: create reply request")
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, "post reply")
	if err != nil {
		return "", err
	}

	var resp postReplyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", eris.Wrapf(resilience.ErrMalformedResponse, "platformapi: decode reply: %v", err)
	}
	if resp.ID == "" {
		return "", eris.Wrap(resilience.ErrMalformedResponse, "platformapi: reply response missing id")
	}
	return resp.ID, nil
}

// do sends the request and returns the body for 2xx responses. Non-2xx
// statuses come back as taxonomy errors so retry and breaker policy apply.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "platformapi: %s", op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "platformapi: %s: read body", op)
	}

	if mapped := resilience.ErrorFromStatus("platformapi: "+op, resp.StatusCode); mapped != nil {
		return nil, mapped
	}
	return body, nil
}
