// Package client is a Go SDK for the taskdeck API. Client makes the raw
// HTTP calls; Store layers a reconciling state cache on top of it for
// interactive frontends.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/taskdeck/taskdeck-go/pkg/model"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client calls the taskdeck REST API. It is not safe for concurrent use;
// Store serializes access for callers that need it.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

// New creates a Client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer token sent on subsequent requests. An empty
// token clears it.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Filters mirrors the list endpoint's query parameters. Zero values are
// omitted from the request.
type Filters struct {
	Query       string
	IsCompleted *bool
	Priority    model.Priority
	SortBy      string
	SortOrder   string
	Limit       int
	Offset      int
}

func (f Filters) values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set("query", f.Query)
	}
	if f.IsCompleted != nil {
		v.Set("is_completed", strconv.FormatBool(*f.IsCompleted))
	}
	if f.Priority != "" {
		v.Set("priority", string(f.Priority))
	}
	if f.SortBy != "" {
		v.Set("sort_by", f.SortBy)
	}
	if f.SortOrder != "" {
		v.Set("sort_order", f.SortOrder)
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		v.Set("offset", strconv.Itoa(f.Offset))
	}
	return v
}

// Signup creates an account and returns the issued token and user.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", req, &resp)
	return resp, err
}

// Login authenticates and returns the issued token and user.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", req, &resp)
	return resp, err
}

// CurrentUser resolves the identity behind the current token.
func (c *Client) CurrentUser(ctx context.Context) (model.UserResponse, error) {
	var resp struct {
		Data model.UserResponse `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/api/auth/user", "", nil, &resp)
	return resp.Data, err
}

// ListTasks fetches the task page matching f plus the total match count.
func (c *Client) ListTasks(ctx context.Context, f Filters) (model.TaskListResponse, error) {
	var resp model.TaskListResponse
	err := c.do(ctx, http.MethodGet, "/api/tasks", f.values().Encode(), nil, &resp)
	return resp, err
}

// CreateTask creates a task and returns the stored record.
func (c *Client) CreateTask(ctx context.Context, req model.CreateTaskRequest) (model.Task, error) {
	var resp model.TaskResponse
	err := c.do(ctx, http.MethodPost, "/api/tasks", "", req, &resp)
	return resp.Data, err
}

// GetTask fetches a single task by id.
func (c *Client) GetTask(ctx context.Context, id string) (model.Task, error) {
	var resp model.TaskResponse
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), "", nil, &resp)
	return resp.Data, err
}

// UpdateTask applies a sparse patch and returns the updated record.
func (c *Client) UpdateTask(ctx context.Context, id string, req model.UpdateTaskRequest) (model.Task, error) {
	var resp model.TaskResponse
	err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), "", req, &resp)
	return resp.Data, err
}

// DeleteTask deletes a task by id.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), "", nil, nil)
}

// ReorderTasks submits a batch of manual_order assignments and returns the
// server's canonical full list.
func (c *Client) ReorderTasks(ctx context.Context, items []model.ReorderItem) (model.TaskListResponse, error) {
	var resp model.TaskListResponse
	err := c.do(ctx, http.MethodPatch, "/api/tasks/reorder", "", model.ReorderRequest{Tasks: items}, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path, query string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	u := c.baseURL + path
	if query != "" {
		u += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
