package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bridge/internal/types"
)

func newTestClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		token:   "token",
		http: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

func TestClientListThreadRunsPath(t *testing.T) {
	var seenPath string
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.RequestURI()
		seenAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"runs":[{"id":"run-1","thread_id":"th-1","status":"running"}]}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	runs, err := c.ListThreadRuns(context.Background(), "th-1")
	if err != nil {
		t.Fatalf("ListThreadRuns error: %v", err)
	}
	if seenPath != "/v1/threads/th-1/runs" {
		t.Fatalf("unexpected request path: %s", seenPath)
	}
	if seenAuth != "Bearer token" {
		t.Fatalf("unexpected authorization header: %s", seenAuth)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" || runs[0].Status != types.RunStatusRunning {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestClientStartRunSendsBody(t *testing.T) {
	var seenPath string
	var seenMethod string
	var seenBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.RequestURI()
		seenMethod = r.Method
		body, _ := io.ReadAll(r.Body)
		seenBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"run-9","thread_id":"th-1","status":"pending"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	run, err := c.StartRun(context.Background(), "th-1", StartRunRequest{ModelName: "haiku", AgentID: "ag-2"})
	if err != nil {
		t.Fatalf("StartRun error: %v", err)
	}
	if seenMethod != http.MethodPost || seenPath != "/v1/threads/th-1/runs" {
		t.Fatalf("unexpected request: %s %s", seenMethod, seenPath)
	}
	if seenBody != `{"model_name":"haiku","agent_id":"ag-2"}` {
		t.Fatalf("unexpected body: %s", seenBody)
	}
	if run.ID != "run-9" || run.Status != types.RunStatusPending {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestClientStartRunRequiresThreadID(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0")
	if _, err := c.StartRun(context.Background(), "  ", StartRunRequest{}); err == nil {
		t.Fatal("expected error for empty thread id")
	}
}

func TestClientStopRunPath(t *testing.T) {
	var seenPath string
	var seenMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.RequestURI()
		seenMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if err := c.StopRun(context.Background(), "run-3"); err != nil {
		t.Fatalf("StopRun error: %v", err)
	}
	if seenMethod != http.MethodPost || seenPath != "/v1/runs/run-3/stop" {
		t.Fatalf("unexpected request: %s %s", seenMethod, seenPath)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"too many concurrent runs"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.StartRun(context.Background(), "th-1", StartRunRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr := AsAPIError(err)
	if apiErr == nil {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status code: %d", apiErr.StatusCode)
	}
	if apiErr.Message != "too many concurrent runs" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
}

func TestClientAPIErrorWithoutBodyUsesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.GetRun(context.Background(), "run-1")
	apiErr := AsAPIError(err)
	if apiErr == nil {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status code: %d", apiErr.StatusCode)
	}
	if apiErr.Message == "" {
		t.Fatal("expected fallback message")
	}
}

func TestClientHealthSkipsAuth(t *testing.T) {
	var seenAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"version":"0.3.0"}`))
	}))
	defer server.Close()

	c := &Client{
		baseURL: server.URL,
		http: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health error: %v", err)
	}
	if seenAuth != "" {
		t.Fatalf("expected no authorization header, got %q", seenAuth)
	}
	if !resp.OK || resp.Version != "0.3.0" {
		t.Fatalf("unexpected health response: %+v", resp)
	}
}
