// Package httpjson is the JSON-over-HTTP transport shared by the REST
// inference gateways. It maps transport failures onto the domain's
// external call errors.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

// maxErrorBody bounds how much of a failed response ends up in an error message.
const maxErrorBody = 512

// Client posts and fetches JSON documents for one provider.
type Client struct {
	// HTTP performs the requests. Its Timeout bounds each call.
	HTTP *http.Client

	// Provider prefixes error messages ("openai", "ollama").
	Provider string

	// Header is added to every request.
	Header http.Header
}

// New returns a client with the given per-request timeout.
func New(provider string, timeout time.Duration, header http.Header) *Client {
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		HTTP:     &http.Client{Timeout: timeout},
		Provider: provider,
		Header:   header,
	}
}

// Post sends in as JSON and decodes a 200 reply into out.
func (c *Client) Post(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.Provider, err)
	}
	return c.do(ctx, http.MethodPost, url, bytes.NewReader(body), out)
}

// Get fetches url and decodes a 200 reply into out. A nil out discards the body.
func (c *Client) Get(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, http.NoBody, out)
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.Provider, err)
	}
	for key, values := range c.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return CallError(c.Provider, "send request", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return CallError(c.Provider, "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: status %d: %s", domain.ErrUnavailable, c.Provider, resp.StatusCode, snippet(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", domain.ErrUnavailable, c.Provider, err)
	}
	return nil
}

// CallError classifies a failed call as ErrTimeout or ErrUnavailable.
func CallError(provider, op string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s %s: %w", domain.ErrTimeout, provider, op, err)
	}
	return fmt.Errorf("%w: %s %s: %w", domain.ErrUnavailable, provider, op, err)
}

func snippet(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) > maxErrorBody {
		return string(data[:maxErrorBody]) + "..."
	}
	return string(data)
}
