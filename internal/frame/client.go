package frame

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxDocumentSize = 1 << 20 // 1MB

// connection pooling limits; a page rarely embeds more than a handful of frames
const (
	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 4
	defaultMaxConnsPerHost     = 4
	defaultIdleConnTimeout     = 60 * time.Second
)

// StatusError reports a dashboard document served with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dashboard responded with status %d", e.StatusCode)
}

// Client loads dashboard targets over HTTP, standing in for a browser frame.
//
// Client applies no timeout of its own: the widget's loading timeout cancels
// the request context. The document body is read (up to 1MB) so that a load
// only succeeds once the document has actually arrived.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a frame [Client] with connection pooling configured for
// repeated loads of the same dashboard host.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		userAgent: "floradex-widget",
	}
}

// Load fetches target and reports whether the frame loaded.
//
// A transport failure, a cancelled context or a non-2xx response is an error;
// a 2xx response whose body was read completes the load.
func (c *Client) Load(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentSize)); err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times and on a nil client. After Close, the client
// remains usable but new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
