package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nplusone/internal/config"
	"nplusone/internal/jsonrpc"
	"nplusone/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               0,
		CorsAllowedOrigins: []string{"*"},
		RequestTimeout:     5000,
	}
}

func TestServer_Routes(t *testing.T) {
	s := New(testConfig(), store.NewSeeded(zerolog.Nop()), zerolog.Nop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d", resp.StatusCode)
	}

	for _, path := range []string{"/", "/rpc"} {
		body := `{"jsonrpc":"2.0","method":"linkedList_get","id":1}`
		resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}

		rpcResp, err := jsonrpc.ParseResponse(data)
		if err != nil {
			t.Fatalf("ParseResponse(%s): %v", path, err)
		}
		if rpcResp.HasError() {
			t.Errorf("%s: %s", path, rpcResp.Error.Message)
		}
	}
}

func TestServer_CORS(t *testing.T) {
	cfg := testConfig()
	cfg.CorsAllowedOrigins = []string{"https://app.example"}
	s := New(cfg, store.NewSeeded(zerolog.Nop()), zerolog.Nop())

	req := httptest.NewRequest(http.MethodOptions, "/rpc", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/rpc", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin = %q", got)
	}
}

func TestServer_StartStop(t *testing.T) {
	s := New(testConfig(), store.NewSeeded(zerolog.Nop()), zerolog.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/health", s.Addr()))
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if _, err := http.Get(fmt.Sprintf("http://%s/health", s.Addr())); err == nil {
		t.Error("expected request after Stop to fail")
	}
}
