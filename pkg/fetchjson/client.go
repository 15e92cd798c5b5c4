// Package fetchjson performs HTTP requests and decodes JSON responses, turning
// non-2xx responses and transport failures into a typed *Error that carries
// the server-provided detail.
package fetchjson

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request describes one call. When JSON is set it is encoded as the body and
// Content-Type defaults to application/json; otherwise Body is sent as-is.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   io.Reader
	JSON   any
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds every request issued by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		c.header.Set(key, value)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client issues JSON requests.
type Client struct {
	http    *http.Client
	timeout time.Duration
	header  http.Header
	logger  *zap.Logger
}

// New constructs a Client using http.DefaultClient unless overridden.
func New(options ...Option) *Client {
	c := &Client{
		http:   http.DefaultClient,
		header: make(http.Header),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Get issues a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, url string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: url}, out)
}

// Do performs req and decodes a JSON response into out. out may be nil when
// the caller does not need the body.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	if strings.TrimSpace(req.URL) == "" {
		return errors.New("fetchjson: url is required")
	}

	body := req.Body
	if req.JSON != nil {
		payload, err := json.Marshal(req.JSON)
		if err != nil {
			return fmt.Errorf("fetchjson: encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return fmt.Errorf("fetchjson: build request: %w", err)
	}
	for key, values := range c.header {
		httpReq.Header[key] = append([]string(nil), values...)
	}
	for key, values := range req.Header {
		httpReq.Header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	if req.JSON != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("fetchjson request failed",
			zap.String("method", method),
			zap.String("url", req.URL),
			zap.Error(err))
		return &Error{Method: method, URL: req.URL, Message: transportMessage(err), Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Method: method, URL: req.URL, Status: resp.StatusCode, Message: transportMessage(err), Err: err}
	}

	c.logger.Debug("fetchjson request",
		zap.String("method", method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			Method:  method,
			URL:     req.URL,
			Status:  resp.StatusCode,
			Message: serverMessage(resp.StatusCode, data),
			Body:    data,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{
			Method:  method,
			URL:     req.URL,
			Status:  resp.StatusCode,
			Message: "invalid JSON response",
			Body:    data,
			Err:     err,
		}
	}
	return nil
}

func transportMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	return err.Error()
}
