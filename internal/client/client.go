package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"bridge/internal/config"
	"bridge/internal/types"
)

type Client struct {
	baseURL   string
	tokenPath string
	token     string
	http      *http.Client
}

func New() (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	tokenPath, err := config.TokenPath()
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   cfg.APIBaseURL(),
		tokenPath: tokenPath,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	_ = c.loadToken()
	return c, nil
}

func NewWithBaseURL(baseURL, token string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokenPath: "",
		token:     token,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetThread(ctx context.Context, threadID string) (*types.Thread, error) {
	var thread types.Thread
	if err := c.doJSON(ctx, http.MethodGet, "/v1/threads/"+strings.TrimSpace(threadID), nil, true, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *Client) GetProject(ctx context.Context, projectID string) (*types.Project, error) {
	var project types.Project
	if err := c.doJSON(ctx, http.MethodGet, "/v1/projects/"+strings.TrimSpace(projectID), nil, true, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) ListThreadRuns(ctx context.Context, threadID string) ([]types.AgentRun, error) {
	var resp RunsResponse
	path := fmt.Sprintf("/v1/threads/%s/runs", strings.TrimSpace(threadID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (*types.AgentRun, error) {
	var run types.AgentRun
	if err := c.doJSON(ctx, http.MethodGet, "/v1/runs/"+strings.TrimSpace(runID), nil, true, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) ListActiveRuns(ctx context.Context) ([]types.AgentRun, error) {
	var resp RunsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/runs/active", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

func (c *Client) StartRun(ctx context.Context, threadID string, req StartRunRequest) (*types.AgentRun, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, errors.New("thread id is required")
	}
	path := "/v1/threads/" + strings.TrimSpace(threadID) + "/runs"
	var run types.AgentRun
	if err := c.doJSON(ctx, http.MethodPost, path, req, true, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) StopRun(ctx context.Context, runID string) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("run id is required")
	}
	return c.doJSON(ctx, http.MethodPost, "/v1/runs/"+strings.TrimSpace(runID)+"/stop", nil, true, nil)
}

func (c *Client) ListAgents(ctx context.Context) ([]types.Agent, error) {
	var resp AgentsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/agents", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, requireAuth bool, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requireAuth {
		if err := c.ensureToken(); err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpClient := c.http
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) ensureToken() error {
	if strings.TrimSpace(c.token) == "" {
		if err := c.loadToken(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.token) == "" {
		return errors.New("token not found; run bridge config token first")
	}
	return nil
}

func (c *Client) loadToken() error {
	if strings.TrimSpace(c.tokenPath) == "" {
		return nil
	}
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.token = ""
			return nil
		}
		return err
	}
	c.token = strings.TrimSpace(string(data))
	return nil
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error string `json:"error"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// AsAPIError unwraps err to an APIError when one is present.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
