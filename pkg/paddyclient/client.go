// Package paddyclient is a Go client for the Paddy Gate HTTP API and its
// real-time price relay.
package paddyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Register creates an account. The returned token is kept for later calls.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, in, &s); err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s, nil
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &s); err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/auth/user", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Mills lists verified mills, optionally narrowed by district and specialization.
func (c *Client) Mills(ctx context.Context, district, specialization string) ([]Mill, error) {
	q := url.Values{}
	setIf(q, "district", district)
	setIf(q, "specialization", specialization)
	var mills []Mill
	if err := c.do(ctx, http.MethodGet, "/api/mills", q, nil, &mills); err != nil {
		return nil, err
	}
	return mills, nil
}

func (c *Client) MyMills(ctx context.Context) ([]Mill, error) {
	var mills []Mill
	if err := c.do(ctx, http.MethodGet, "/api/mills/miller", nil, nil, &mills); err != nil {
		return nil, err
	}
	return mills, nil
}

func (c *Client) CreateMill(ctx context.Context, in MillInput) (*Mill, error) {
	var m Mill
	if err := c.do(ctx, http.MethodPost, "/api/mills", nil, in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) UpdateMill(ctx context.Context, id string, in MillInput) (*Mill, error) {
	var m Mill
	if err := c.do(ctx, http.MethodPut, "/api/mills/"+url.PathEscape(id), nil, in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Prices lists current prices with their mill summaries populated.
func (c *Client) Prices(ctx context.Context, district, variety string) ([]Price, error) {
	q := url.Values{}
	setIf(q, "district", district)
	setIf(q, "riceVariety", variety)
	var prices []Price
	if err := c.do(ctx, http.MethodGet, "/api/prices", q, nil, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}

func (c *Client) PostPrice(ctx context.Context, in PriceInput) (*Price, error) {
	var p Price
	if err := c.do(ctx, http.MethodPost, "/api/prices", nil, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PriceHistory returns past prices oldest first, ending with the current one.
func (c *Client) PriceHistory(ctx context.Context, millID, variety string) ([]PricePoint, error) {
	path := "/api/prices/history/" + url.PathEscape(millID) + "/" + url.PathEscape(variety)
	var points []PricePoint
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (c *Client) AdminUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) SetUserStatus(ctx context.Context, id, status string) (*User, error) {
	body := map[string]string{"accountStatus": status}
	var u User
	if err := c.do(ctx, http.MethodPut, "/api/admin/users/"+url.PathEscape(id)+"/status", nil, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) AdminMills(ctx context.Context) ([]Mill, error) {
	var mills []Mill
	if err := c.do(ctx, http.MethodGet, "/api/admin/mills", nil, nil, &mills); err != nil {
		return nil, err
	}
	return mills, nil
}

func (c *Client) VerifyMill(ctx context.Context, id, status string) (*Mill, error) {
	body := map[string]string{"verificationStatus": status}
	var m Mill
	if err := c.do(ctx, http.MethodPut, "/api/admin/mills/"+url.PathEscape(id)+"/verify", nil, body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(resp.StatusCode)
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
