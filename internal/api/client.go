// Package api talks to the items backend over HTTP.
//
// The client is stateless: callers pass the bearer token on every authenticated call.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dkjgA893274/fastapi-freamarket/internal/model"

	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"

	// DefaultTimeout bounds a single request when the caller does not configure one.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 4 << 20
)

type Client struct {
	base string
	http *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (tests pass httptest clients here).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// New returns a client for the backend at base (e.g. "http://localhost:8000").
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(strings.TrimSpace(base), "/"),
		http: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login posts form-encoded credentials to /auth/login.
func (c *Client) Login(ctx context.Context, username, password string) (model.Token, error) {
	const op = "login"
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var tok model.Token
	err := c.do(ctx, op, http.MethodPost, "/auth/login", "", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), &tok)
	if err != nil {
		return model.Token{}, err
	}
	if strings.TrimSpace(tok.AccessToken) == "" {
		return model.Token{}, &DecodeError{Op: op, Err: fmt.Errorf("missing access_token")}
	}
	return tok, nil
}

// Signup posts JSON credentials to /auth/signup. The response body is ignored.
func (c *Client) Signup(ctx context.Context, username, password string) error {
	return c.doJSON(ctx, "signup", http.MethodPost, "/auth/signup", "",
		model.Credentials{Username: username, Password: password}, nil)
}

func (c *Client) ListItems(ctx context.Context, token string) ([]model.Item, error) {
	var items []model.Item
	if err := c.do(ctx, "list items", http.MethodGet, "/items", token, "", nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// SearchItems calls GET /items/?name=<name> (partial match on the backend).
func (c *Client) SearchItems(ctx context.Context, token, name string) ([]model.Item, error) {
	q := url.Values{}
	q.Set("name", name)
	var items []model.Item
	if err := c.do(ctx, "search items", http.MethodGet, "/items/?"+q.Encode(), token, "", nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (c *Client) GetItem(ctx context.Context, token string, id int) (model.Item, error) {
	var it model.Item
	if err := c.do(ctx, "get item", http.MethodGet, itemPath(id), token, "", nil, &it); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

func (c *Client) CreateItem(ctx context.Context, token string, in model.NewItem) (model.Item, error) {
	var it model.Item
	if err := c.doJSON(ctx, "create item", http.MethodPost, "/items", token, in, &it); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

func (c *Client) UpdateItem(ctx context.Context, token string, id int, in model.ItemUpdate) (model.Item, error) {
	var it model.Item
	if err := c.doJSON(ctx, "update item", http.MethodPut, itemPath(id), token, in, &it); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

// DeleteItem calls DELETE /items/{id}. Any 2xx counts as success; the body is ignored.
func (c *Client) DeleteItem(ctx context.Context, token string, id int) error {
	return c.do(ctx, "delete item", http.MethodDelete, itemPath(id), token, "", nil, nil)
}

func itemPath(id int) string {
	return "/items/" + strconv.Itoa(id)
}

func (c *Client) doJSON(ctx context.Context, op, method, path, token string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, op, method, path, token, "application/json", bytes.NewReader(b), out)
}

// do sends one request. out == nil means the success body is not read.
func (c *Client) do(ctx context.Context, op, method, path, token, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(op, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
