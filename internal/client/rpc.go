// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/modelview/internal/models"
)

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("modelview: %d %s: %s", e.Status, e.Code, e.Message)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. http://localhost:3001.
	BaseURL string
	// Timeout bounds each HTTP request. Default 15s. Ignored when HTTPClient is set.
	Timeout    time.Duration
	HTTPClient *http.Client
	Breaker    BreakerConfig
}

// Client calls the Modelview HTTP RPC surface.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[interface{}]
}

// New creates a Client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/api/v1",
		http:    httpClient,
		cb:      newBreaker(cfg.Breaker),
	}
}

// BreakerState reports the breaker state for diagnostics.
func (c *Client) BreakerState() string {
	return stateToString(c.cb.State())
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

// call performs one request and decodes the data field into out.
func (c *Client) call(ctx context.Context, method, path, userID string, body interface{}, out interface{}) error {
	var rdr io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case []byte:
		rdr = bytes.NewReader(b)
		contentType = "application/octet-stream"
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &Error{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: resp.Status}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		e := &Error{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: resp.Status}
		if env.Error != nil {
			e.Code, e.Message = env.Error.Code, env.Error.Message
		}
		return e
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}

func projectPath(projectID string, parts ...string) string {
	p := "/projects/" + url.PathEscape(projectID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// mutation runs a call whose answer is a MutationResult.
func (c *Client) mutation(ctx context.Context, method, path, userID string, body interface{}) (bool, error) {
	res, err := castResult[models.MutationResult](c.execute(func() (interface{}, error) {
		var out models.MutationResult
		if err := c.call(ctx, method, path, userID, body, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}))
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

// List returns summaries of every project.
func (c *Client) List(ctx context.Context) ([]models.ProjectSummary, error) {
	res, err := castResult[[]models.ProjectSummary](c.execute(func() (interface{}, error) {
		var out []models.ProjectSummary
		if err := c.call(ctx, http.MethodGet, "/projects", "", nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}))
	if err != nil {
		return nil, err
	}
	return *res, nil
}

// Get fetches a project. A missing project yields (nil, nil).
func (c *Client) Get(ctx context.Context, projectID string) (*models.Project, error) {
	return castResult[models.Project](c.execute(func() (interface{}, error) {
		var out models.Project
		err := c.call(ctx, http.MethodGet, projectPath(projectID), "", nil, &out)
		if isNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &out, nil
	}))
}

// Create makes a project and returns its id.
func (c *Client) Create(ctx context.Context, title string) (string, error) {
	res, err := castResult[models.CreateProjectResult](c.execute(func() (interface{}, error) {
		var out models.CreateProjectResult
		if err := c.call(ctx, http.MethodPost, "/projects", "", map[string]string{"title": title}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}))
	if err != nil {
		return "", err
	}
	return res.ProjectID, nil
}

func (c *Client) UpdateTitle(ctx context.Context, projectID, userID, title string) (bool, error) {
	return c.mutation(ctx, http.MethodPut, projectPath(projectID, "title"), userID, map[string]string{"title": title})
}

// UploadModel sends raw STL bytes.
func (c *Client) UploadModel(ctx context.Context, projectID, userID string, stl []byte) (bool, error) {
	return c.mutation(ctx, http.MethodPut, projectPath(projectID, "model"), userID, stl)
}

func (c *Client) AppendChat(ctx context.Context, projectID, userID, message string) (bool, error) {
	return c.mutation(ctx, http.MethodPost, projectPath(projectID, "chat"), userID, map[string]string{"message": message})
}

// AddAnnotation returns the annotation as stored by the server.
func (c *Client) AddAnnotation(ctx context.Context, projectID, userID, text string, vertex models.Vector3) (*models.Annotation, error) {
	return castResult[models.Annotation](c.execute(func() (interface{}, error) {
		var out models.Annotation
		body := map[string]interface{}{"text": text, "vertex": vertex}
		if err := c.call(ctx, http.MethodPost, projectPath(projectID, "annotations"), userID, body, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}))
}

func (c *Client) EditAnnotation(ctx context.Context, projectID, userID, annotationID, text string) (bool, error) {
	return c.mutation(ctx, http.MethodPut, projectPath(projectID, "annotations", annotationID), userID, map[string]string{"text": text})
}

func (c *Client) DeleteAnnotation(ctx context.Context, projectID, userID, annotationID string) (bool, error) {
	return c.mutation(ctx, http.MethodDelete, projectPath(projectID, "annotations", annotationID), userID, nil)
}

func (c *Client) UpdateCamera(ctx context.Context, projectID, userID string, cam models.Camera) (bool, error) {
	return c.mutation(ctx, http.MethodPut, projectPath(projectID, "camera"), userID, map[string]interface{}{"camera": cam})
}

// UpdateModelTransform writes only the fields set in patch.
func (c *Client) UpdateModelTransform(ctx context.Context, projectID, userID string, patch models.TransformPatch) (bool, error) {
	return c.mutation(ctx, http.MethodPatch, projectPath(projectID, "transform"), userID, map[string]interface{}{"modelTransform": patch})
}

// CreateUser registers a display name and returns the new user.
func (c *Client) CreateUser(ctx context.Context, name string) (*models.User, error) {
	return castResult[models.User](c.execute(func() (interface{}, error) {
		var out models.User
		if err := c.call(ctx, http.MethodPost, "/users", "", map[string]string{"name": name}, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}))
}

// GetUser returns (nil, nil) for an unknown user.
func (c *Client) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return castResult[models.User](c.execute(func() (interface{}, error) {
		var out models.User
		err := c.call(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), "", nil, &out)
		if isNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &out, nil
	}))
}
