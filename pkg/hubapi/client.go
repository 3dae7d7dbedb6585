// Package hubapi is a thin client for the hub's management API. It mutates
// live hub state (users, groups, admin flags) that would otherwise require a
// config rewrite and restart.
package hubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/classroom-sre/hub-manager/internal/errdef"
)

// TokenSource supplies the admin bearer token. It is read fresh on every call
// so a token rotated in the config file takes effect without restarting the
// tool.
type TokenSource interface {
	AdminToken() (string, error)
}

// Client calls the hub management API. All operations are synchronous
// request/response with no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient returns a client for the API rooted at baseURL, e.g.
// "http://127.0.0.1:8081/hub/api".
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
	}
}

// ServiceDescriptor is the hub's view of a registered service.
type ServiceDescriptor struct {
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Prefix  string   `json:"prefix"`
	Command []string `json:"command"`
}

// GetService looks up the service registered for a course. A 404 from the hub
// means the course does not exist and is reported as a not found domain error.
func (c *Client) GetService(ctx context.Context, name string) (*ServiceDescriptor, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("services/%s", name), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errdef.NewNotFound("course %q does not exist", name)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var descriptor ServiceDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&descriptor); err != nil {
		return nil, fmt.Errorf("decoding service %q: %w", name, err)
	}
	return &descriptor, nil
}

// UserOutcome reports whether CreateUser created the user or found it already
// present. Both are normal outcomes.
type UserOutcome int

const (
	UserCreated UserOutcome = iota
	UserAlreadyExists
)

// CreateUser creates a hub user. A 409 means the user already exists and is
// reported as UserAlreadyExists, not as an error.
func (c *Client) CreateUser(ctx context.Context, name string) (UserOutcome, error) {
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("users/%s", name), nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return UserAlreadyExists, nil
	}
	if err := checkStatus(resp); err != nil {
		return 0, err
	}
	return UserCreated, nil
}

// AddUserToGroup adds a hub user to a hub group.
func (c *Client) AddUserToGroup(ctx context.Context, group string, user string) error {
	body := map[string][]string{"users": {user}}
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("groups/%s/users", group), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// SetAdmin grants hub admin rights to a user.
func (c *Client) SetAdmin(ctx context.Context, user string) error {
	body := map[string]bool{"admin": true}
	resp, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("users/%s", user), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (c *Client) do(ctx context.Context, method string, path string, body any) (*http.Response, error) {
	token, err := c.tokens.AdminToken()
	if err != nil {
		return nil, fmt.Errorf("reading admin token: %w", err)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s/%s", c.baseURL, path), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{err: err}
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		body = nil
	}
	return &APIError{Status: resp.StatusCode, Body: string(body)}
}
