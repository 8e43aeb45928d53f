package renderclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/chess-puzzle-render/pkg/renderdto"
)

// Client talks to a puzzlerender server.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// Rendering a long solution takes a while; the default timeout is generous.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 5 * time.Minute, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 8},
		defaultTimeout: 5 * time.Minute,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render submits a puzzle document (YAML or JSON). Busy servers are retried.
func (c *Client) Render(ctx context.Context, doc []byte) (*renderdto.RenderResponse, error) {
	var out renderdto.RenderResponse
	if err := c.do(ctx, fasthttp.MethodPost, "/v1/render", doc, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Run(ctx context.Context, runID string) (*renderdto.RunStatus, error) {
	var out renderdto.RunStatus
	if err := c.do(ctx, fasthttp.MethodGet, "/v1/runs/"+url.PathEscape(runID), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*renderdto.Health, error) {
	var out renderdto.Health
	if err := c.do(ctx, fasthttp.MethodGet, "/healthz", nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if body != nil {
		req.Header.SetContentType("application/x-yaml")
		req.SetBody(body)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			apiErr := decodeError(status, resp.Body())
			if !apiErr.Retryable && !shouldRetryStatus(status) {
				return apiErr
			}
			lastErr = apiErr
		} else {
			if out != nil {
				if err := json.Unmarshal(resp.Body(), out); err != nil {
					return fmt.Errorf("decode response: %w", err)
				}
			}
			return nil
		}

		if attempt == attempts {
			break
		}
		if err := sleepWithContext(ctx, backoffDuration(attempt)); err != nil {
			return lastErr
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

// APIError carries a non-2xx reply.
type APIError struct {
	Status int
	renderdto.ErrorResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("render api error: status=%d code=%s: %s", e.Status, e.Code, e.ErrorResponse.Error())
}

func decodeError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if err := json.Unmarshal(body, &e.ErrorResponse); err != nil || e.Code == "" {
		e.Code = renderdto.CodeInternal
		e.Message = truncate(string(body), 512)
	}
	return e
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 200 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case fasthttp.StatusBadGateway, fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
