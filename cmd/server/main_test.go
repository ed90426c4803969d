package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/fxamacker/cbor/v2"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/greeting-service/internal/http/health"
	"github.com/janisto/greeting-service/internal/http/v1/greeting"
	"github.com/janisto/greeting-service/internal/platform/config"
)

func testConfig() config.Config {
	return config.Config{Port: "0", AppName: "Greeting Test API"}
}

func testServer() http.Handler {
	router := newRouter(testConfig())
	router.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	return router
}

func get(t *testing.T, srv http.Handler, path, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "test-"+strings.Trim(path, "/")+"-req")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp := httptest.NewRecorder()
	srv.ServeHTTP(resp, req)
	return resp
}

func TestGreeting(t *testing.T) {
	resp := get(t, testServer(), "/greeting", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Hello World!") {
		t.Fatalf("expected body to contain 'Hello World!', got %s", resp.Body.String())
	}
	var g greeting.Greeting
	if err := json.Unmarshal(resp.Body.Bytes(), &g); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if g.Message != "Hello World!" {
		t.Fatalf("expected message 'Hello World!', got %s", g.Message)
	}
	if resp.Header().Get(chimiddleware.RequestIDHeader) != "test-greeting-req" {
		t.Fatalf("expected request ID to be echoed, got %q", resp.Header().Get(chimiddleware.RequestIDHeader))
	}
	if resp.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers on API responses")
	}
}

func TestGreetingBodyShape(t *testing.T) {
	resp := get(t, testServer(), "/greeting", "")

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("expected message and $schema only, got %v", body)
	}
	if body["message"] != "Hello World!" {
		t.Fatalf("expected message 'Hello World!', got %v", body["message"])
	}
	schema, _ := body["$schema"].(string)
	if !strings.HasSuffix(schema, "/schemas/Greeting.json") {
		t.Fatalf("expected $schema link to the Greeting schema, got %q", schema)
	}
	if link := resp.Header().Get("Link"); !strings.Contains(link, "/schemas/Greeting.json") {
		t.Fatalf("expected Link header to describe the schema, got %q", link)
	}
}

func TestGreetingHead(t *testing.T) {
	req := httptest.NewRequest(http.MethodHead, "/greeting", nil)
	resp := httptest.NewRecorder()
	testServer().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
}

func TestGreetingAcceptNegotiation(t *testing.T) {
	srv := testServer()
	tests := []struct {
		name   string
		accept string
		wantCT string
	}{
		{"no accept header", "", "application/json"},
		{"wildcard all", "*/*", "application/json"},
		{"application wildcard", "application/*", "application/json"},
		{"unsupported type falls back to JSON", "text/plain", "application/json"},
		{"explicit JSON", "application/json", "application/json"},
		{"CBOR", "application/cbor", "application/cbor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, srv, "/greeting", tt.accept)

			if resp.Code != http.StatusOK {
				t.Fatalf("expected 200 OK, got %d", resp.Code)
			}
			if ct := resp.Header().Get("Content-Type"); ct != tt.wantCT {
				t.Fatalf("expected %s, got %q", tt.wantCT, ct)
			}

			var g greeting.Greeting
			var err error
			if tt.wantCT == "application/cbor" {
				err = cbor.Unmarshal(resp.Body.Bytes(), &g)
			} else {
				err = json.Unmarshal(resp.Body.Bytes(), &g)
			}
			if err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if g.Message != "Hello World!" {
				t.Fatalf("expected 'Hello World!', got %q", g.Message)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	resp := get(t, testServer(), "/health", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", resp.Code)
	}
	var h health.Response
	if err := json.Unmarshal(resp.Body.Bytes(), &h); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if h.Status != "healthy" || h.Version != Version {
		t.Fatalf("unexpected health response: %+v", h)
	}
}

func TestNotFoundReturnsProblemDetails(t *testing.T) {
	resp := get(t, testServer(), "/missing", "")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected application/problem+json content type, got %q", ct)
	}
	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal 404 response: %v", err)
	}
	if problem.Status != http.StatusNotFound || problem.Detail != "resource not found" {
		t.Fatalf("unexpected problem: %+v", problem)
	}
}

func TestMethodNotAllowedReturnsProblemDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/greeting", nil)
	resp := httptest.NewRecorder()
	testServer().ServeHTTP(resp, req)

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", resp.Code)
	}
	if allow := resp.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Fatalf("expected Allow 'GET, HEAD', got %q", allow)
	}
	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal 405 response: %v", err)
	}
	if !strings.Contains(problem.Detail, http.MethodDelete) {
		t.Fatalf("expected detail to mention DELETE, got %s", problem.Detail)
	}
}

func TestRecovererReturnsProblemDetails(t *testing.T) {
	resp := get(t, testServer(), "/panic", "")

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	var problem huma.ErrorModel
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to unmarshal 500 response: %v", err)
	}
	if problem.Title != "Internal Server Error" {
		t.Fatalf("unexpected title: %s", problem.Title)
	}
}

func TestOpenAPIDocument(t *testing.T) {
	resp := get(t, testServer(), "/openapi.json", "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &doc); err != nil {
		t.Fatalf("failed to unmarshal OpenAPI document: %v", err)
	}
	if doc.Info.Title != "Greeting Test API" || doc.Info.Version != Version {
		t.Fatalf("unexpected info: %+v", doc.Info)
	}
	if _, ok := doc.Paths["/greeting"]; !ok {
		t.Fatal("expected /greeting in OpenAPI paths")
	}
	if _, ok := doc.Paths["/health"]; ok {
		t.Fatal("did not expect /health in OpenAPI paths")
	}
}

func TestDocsSkipSecurityHeaders(t *testing.T) {
	resp := get(t, testServer(), docsPath, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("Content-Security-Policy") != "" {
		t.Fatal("expected docs page to be served without security headers")
	}
}

func TestNewServerConfiguration(t *testing.T) {
	srv := newServer(config.Config{Port: "8080"}, http.NotFoundHandler())

	if srv.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %q", srv.Addr)
	}
	if srv.ReadTimeout != 5*time.Second {
		t.Errorf("expected ReadTimeout 5s, got %v", srv.ReadTimeout)
	}
	if srv.ReadHeaderTimeout != 2*time.Second {
		t.Errorf("expected ReadHeaderTimeout 2s, got %v", srv.ReadHeaderTimeout)
	}
	if srv.WriteTimeout != 10*time.Second {
		t.Errorf("expected WriteTimeout 10s, got %v", srv.WriteTimeout)
	}
	if srv.IdleTimeout != 60*time.Second {
		t.Errorf("expected IdleTimeout 60s, got %v", srv.IdleTimeout)
	}
	if srv.MaxHeaderBytes != 64<<10 {
		t.Errorf("expected MaxHeaderBytes 64KB, got %d", srv.MaxHeaderBytes)
	}
}

func TestServeGreetingUntilCanceled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := newServer(testConfig(), newRouter(testConfig()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/greeting")
	if err != nil {
		cancel()
		t.Fatalf("GET /greeting: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		cancel()
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"Hello World!"`) {
		t.Errorf("expected body to contain \"Hello World!\", got %s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(shutdownTimeout):
		t.Fatal("timeout waiting for shutdown")
	}
}

func TestServeReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_ = ln.Close()
	srv := newServer(testConfig(), http.NotFoundHandler())

	select {
	case err := <-serveAsync(srv, ln):
		if err == nil {
			t.Fatal("expected error from closed listener")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for serve to fail")
	}
}

func TestRunExitsOnStartupFailure(t *testing.T) {
	held, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = held.Close() }()
	takenPort := strconv.Itoa(held.Addr().(*net.TCPAddr).Port)

	tests := []struct {
		name     string
		port     string
		logLevel string
	}{
		{"port already bound", takenPort, ""},
		{"invalid port", "not-a-port", ""},
		{"invalid log level", "0", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", tt.port)
			t.Setenv("LOG_LEVEL", tt.logLevel)

			if code := run(); code != 1 {
				t.Fatalf("expected exit code 1, got %d", code)
			}
		})
	}
}

func TestVersionDefault(t *testing.T) {
	if Version != "dev" {
		t.Errorf("expected default Version 'dev', got %q", Version)
	}
}

func serveAsync(srv *http.Server, ln net.Listener) <-chan error {
	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), srv, ln) }()
	return done
}
