// Package backend is the console's REST client. Each Client owns a cookie
// jar, which carries the ambient session credential for one browser.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"go-admin-console/internal/session"
)

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL *url.URL
	timeout time.Duration

	mu   sync.Mutex
	http *http.Client
}

// New builds a client for the API rooted at baseURL (for example
// http://localhost:8080/api). Every request is bounded by timeout.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend url must be absolute: %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{baseURL: parsed, timeout: timeout}
	if err := c.resetJar(); err != nil {
		return nil, err
	}
	return c, nil
}

// ClearCredentials drops every cookie held for the backend.
func (c *Client) ClearCredentials() {
	_ = c.resetJar()
}

func (c *Client) resetJar() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}

	c.mu.Lock()
	c.http = &http.Client{Jar: jar}
	c.mu.Unlock()
	return nil
}

func (c *Client) client() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.http
}

func (c *Client) CurrentUser(ctx context.Context) (session.Identity, error) {
	var identity session.Identity
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &identity)
	return identity, err
}

func (c *Client) AuthorizationEntries(ctx context.Context, userID int64) ([]session.MenuNode, error) {
	var entries []session.MenuNode
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/acceso/%d", userID), nil, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []session.MenuNode{}
	}
	return entries, nil
}

func (c *Client) Login(ctx context.Context, username string, password string) error {
	return c.do(ctx, http.MethodPost, "/users/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/users/logout", nil, nil)
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, username string, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/users/password-reset/confirm", map[string]string{
		"username":    username,
		"newPassword": newPassword,
	}, nil)
}

func (c *Client) LogAccess(ctx context.Context, userID int64, optionID int64) error {
	return c.do(ctx, http.MethodPost, "/log-acceso", map[string]int64{
		"userId":   userID,
		"optionId": optionID,
	}, nil)
}

func (c *Client) List(ctx context.Context, endpoint string) ([]map[string]any, error) {
	var rows []map[string]any
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) Create(ctx context.Context, endpoint string, payload map[string]any) error {
	return c.do(ctx, http.MethodPost, endpoint, payload, nil)
}

func (c *Client) Update(ctx context.Context, endpoint string, id int64, payload map[string]any) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", endpoint, id), payload, nil)
}

func (c *Client) Delete(ctx context.Context, endpoint string, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", endpoint, id), nil, nil)
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	target := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: extractMessage(data, resp.StatusCode),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := decodePayload(data, out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "unexpected response from server", Err: err}
	}
	return nil
}

// decodePayload unwraps the {"success":true,"data":...} envelope when
// present and decodes the payload with json.Number for numbers.
func decodePayload(data []byte, out any) error {
	var envelope struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Success != nil {
		if !*envelope.Success {
			return errors.New("envelope reports failure")
		}
		data = envelope.Data
		if len(data) == 0 {
			return nil
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}

// extractMessage looks for message, msg, error (string) or error.message.
func extractMessage(data []byte, status int) string {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err == nil {
		for _, key := range []string{"message", "msg"} {
			if s, ok := body[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
		switch e := body["error"].(type) {
		case string:
			if strings.TrimSpace(e) != "" {
				return e
			}
		case map[string]any:
			if s, ok := e["message"].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}

	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}
