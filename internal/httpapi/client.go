package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/ascn-convert/pkg/convdto"
	"github.com/valyala/fasthttp"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 30 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, fasthttp.MethodGet, pathHealth, nil, true)
	return err
}

// ConvertPGN posts PGN text and returns the ASCN bytes.
func (c *Client) ConvertPGN(ctx context.Context, pgnText []byte) (*convdto.ConvertResponse, error) {
	return c.do(ctx, fasthttp.MethodPost, pathConvertPGN, pgnText, true)
}

// ConvertASCN posts ASCN bytes and returns the PGN text.
func (c *Client) ConvertASCN(ctx context.Context, data []byte) (*convdto.ConvertResponse, error) {
	return c.do(ctx, fasthttp.MethodPost, pathConvertASCN, data, true)
}

func (c *Client) Diagram(ctx context.Context, ascnInput bool, data []byte) ([]byte, error) {
	path := pathDiagramPGN
	if ascnInput {
		path = pathDiagramASCN
	}
	resp, err := c.do(ctx, fasthttp.MethodPost, path, data, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// History lists earlier conversions of the input with the given digest.
func (c *Client) History(ctx context.Context, digest string, limit int) (*convdto.HistoryResponse, error) {
	path := pathHistory + "?sha256=" + url.QueryEscape(digest)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	resp, err := c.do(ctx, fasthttp.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	var out convdto.HistoryResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, retry bool) (*convdto.ConvertResponse, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if body != nil {
		req.Header.SetContentType("application/octet-stream")
		req.SetBody(body)
	}
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		if err := c.http.DoDeadline(req, resp, deadline); err != nil {
			if attempt == attempts || !retry {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			err := decodeError(status, resp.Body())
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return nil, err
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		out := &convdto.ConvertResponse{Body: append([]byte(nil), resp.Body()...)}
		out.Summary.RequestID = string(resp.Header.Peek(convdto.HeaderRequestID))
		out.Summary.Result = string(resp.Header.Peek(convdto.HeaderResult))
		if n, err := strconv.Atoi(string(resp.Header.Peek(convdto.HeaderPlies))); err == nil {
			out.Summary.Plies = n
		}
		out.Summary.Cached, _ = strconv.ParseBool(string(resp.Header.Peek(convdto.HeaderCached)))
		return out, nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, lastErr
}

// decodeError turns an error body into convdto.Error, falling back to the
// raw text when it is not JSON.
func decodeError(status int, body []byte) error {
	var e convdto.Error
	if err := json.Unmarshal(body, &e); err == nil && e.Code != "" {
		return e
	}
	return fmt.Errorf("ascnd error: status=%d body=%s", status, truncate(string(body), 512))
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
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
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
