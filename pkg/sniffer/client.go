package sniffer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xlttj/sniffctl/pkg/config"
	"github.com/xlttj/sniffctl/pkg/logging"
)

// Backend is the Sniffer Control Service as seen by the controller.
type Backend interface {
	List(ctx context.Context) ([]config.Sniffer, error)
	Create(ctx context.Context, cfg config.SnifferConfig) error
	Update(ctx context.Context, cfg config.SnifferConfig) error
	Delete(ctx context.Context, port int) error
	Start(ctx context.Context, port int) error
	Stop(ctx context.Context, port int) error
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

// Client talks to the control service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Backend = (*Client)(nil)

// NewClient returns a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) List(ctx context.Context) ([]config.Sniffer, error) {
	var sniffers []config.Sniffer
	if err := c.do(ctx, "list", http.MethodGet, "/sniffers", nil, &sniffers); err != nil {
		return nil, err
	}
	return sniffers, nil
}

func (c *Client) Create(ctx context.Context, cfg config.SnifferConfig) error {
	return c.do(ctx, "create", http.MethodPost, "/sniffers", cfg, nil)
}

func (c *Client) Update(ctx context.Context, cfg config.SnifferConfig) error {
	return c.do(ctx, "update", http.MethodPut, "/sniffers", cfg, nil)
}

func (c *Client) Delete(ctx context.Context, port int) error {
	return c.do(ctx, "delete", http.MethodDelete, "/sniffers/"+strconv.Itoa(port), nil, nil)
}

func (c *Client) Start(ctx context.Context, port int) error {
	return c.do(ctx, "start", http.MethodPost, "/sniffers/"+strconv.Itoa(port)+"/start", nil, nil)
}

func (c *Client) Stop(ctx context.Context, port int) error {
	return c.do(ctx, "stop", http.MethodPost, "/sniffers/"+strconv.Itoa(port)+"/stop", nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logging.LogError("%s %s returned %d", method, path, resp.StatusCode)
		return &APIError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
