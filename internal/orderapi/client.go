// Package orderapi submits view orders to the external fulfilment endpoint.
package orderapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m3rciful/viewsbot/core/logger"
)

// DefaultTimeout bounds a whole submission, connect to last body byte.
const DefaultTimeout = 30 * time.Second

// ErrTransport wraps failures that produced no HTTP response.
var ErrTransport = errors.New("orderapi: transport error")

// StatusError reports a non-2xx response from the endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("orderapi: unexpected status %d", e.Code)
}

// Client issues one GET per order. Requests are never retried, since the
// endpoint offers no idempotency key and a retry could double-fulfil.
type Client struct {
	endpoint string
	http     *http.Client
}

// New builds a client for endpoint. A non-positive timeout selects DefaultTimeout.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout, Transport: transport},
	}
}

// Endpoint returns the configured base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Submit requests qty views for link. It returns nil for any 2xx response,
// *StatusError for other statuses and an error wrapping ErrTransport otherwise.
func (c *Client) Submit(ctx context.Context, link string, qty int64) error {
	target, err := c.buildURL(link, qty)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("orderapi: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	took := time.Since(start)
	if err != nil {
		logger.Orders.Warn("order api unreachable",
			slog.String("event", "orderapi.submit"),
			slog.Int64("qty", qty),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	attrs := []any{
		slog.String("event", "orderapi.submit"),
		slog.Int64("qty", qty),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", took),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Orders.Warn("order api rejected", attrs...)
		return &StatusError{Code: resp.StatusCode}
	}
	logger.Orders.Info("order api accepted", attrs...)
	return nil
}

// buildURL keeps any query already present on the endpoint and adds video and qty.
func (c *Client) buildURL(link string, qty int64) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("orderapi: parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("video", link)
	q.Set("qty", strconv.FormatInt(qty, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
