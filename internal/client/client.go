// Package client fetches the upstream status page.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/PalMeany/l7-dstat/internal/ingest"
	"github.com/PalMeany/l7-dstat/model"
)

// FetchTimeout bounds a single status request.
const FetchTimeout = 5 * time.Second

const maxBodySize = 64 << 10

// StatusClient polls a stub_status page, or another instance's status proxy.
type StatusClient struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
}

// NewStatusClient creates a client for url. A non-positive timeout means FetchTimeout.
func NewStatusClient(url string, timeout time.Duration) *StatusClient {
	if timeout <= 0 {
		timeout = FetchTimeout
	}
	return NewStatusClientWithHTTP(url, timeout, NewHTTPClient(timeout))
}

// DI: ready http.Client
func NewStatusClientWithHTTP(url string, timeout time.Duration, hc *http.Client) *StatusClient {
	return &StatusClient{url: url, timeout: timeout, httpClient: hc}
}

// fabric http-client
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout, Transport: http.DefaultTransport}
}

// URL returns the polled address.
func (c *StatusClient) URL() string { return c.url }

// Fetch performs one status request. Transport problems and non-2xx codes are
// returned as errors; a JSON body is decoded as a structured failure.
func (c *StatusClient) Fetch(ctx context.Context) (ingest.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return ingest.Response{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ingest.Response{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return ingest.Response{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ingest.Response{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		var failure model.StatusFailure
		if err := json.Unmarshal(body, &failure); err != nil {
			return ingest.Response{}, fmt.Errorf("decode failure payload: %w", err)
		}
		if failure.Error != "" {
			return ingest.Response{Failure: &failure}, nil
		}
		return ingest.Response{Text: failure.FallbackData}, nil
	}

	return ingest.Response{Text: string(body)}, nil
}

// Proxy fetches the status and never fails: any error is replaced with a
// structured failure carrying the zero-counter fallback text.
func (c *StatusClient) Proxy(ctx context.Context) ingest.Response {
	resp, err := c.Fetch(ctx)
	if err != nil {
		return ingest.Response{Failure: NewFailure(err)}
	}
	return resp
}

// NewFailure builds the structured failure payload for err.
func NewFailure(err error) *model.StatusFailure {
	msg := "Failed to fetch Nginx status"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &model.StatusFailure{
		Error:            msg,
		ConnectionStatus: model.Offline,
		FallbackData:     model.FallbackStatus,
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}
