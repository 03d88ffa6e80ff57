package rpc

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"nplusone/internal/config"
	"nplusone/internal/jsonrpc"
	"nplusone/internal/resolver"
	"nplusone/internal/store"
)

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *store.Store) {
	t.Helper()
	st := store.NewSeeded(zerolog.Nop())
	executor := resolver.NewExecutor(st, cfg.Loader, zerolog.Nop())
	srv := httptest.NewServer(NewHandler(executor, cfg, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, st
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return resp, data
}

func TestHandler_Single(t *testing.T) {
	srv, _ := newTestServer(t, &config.Config{})

	resp, data := post(t, srv.URL, `{"jsonrpc":"2.0","method":"user_get","params":[10],"id":1}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %s", ct)
	}

	rpcResp, err := jsonrpc.ParseResponse(data)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	var user resolver.UserView
	if err := rpcResp.GetResultAs(&user); err != nil {
		t.Fatalf("GetResultAs: %v", err)
	}
	if user.FullName != "John Doe" {
		t.Errorf("user = %+v", user)
	}
}

func TestHandler_BatchIsOneOperation(t *testing.T) {
	srv, st := newTestServer(t, &config.Config{})

	_, data := post(t, srv.URL, `[
		{"jsonrpc":"2.0","method":"tweet_get","params":[1],"id":1},
		{"jsonrpc":"2.0","method":"tweet_get","params":[2],"id":2},
		{"jsonrpc":"2.0","method":"tweets_list","id":3}
	]`)

	responses, isBatch, err := jsonrpc.ParseBatchResponse(data)
	if err != nil {
		t.Fatalf("ParseBatchResponse: %v", err)
	}
	if !isBatch || len(responses) != 3 {
		t.Fatalf("isBatch = %v, len = %d", isBatch, len(responses))
	}
	for _, r := range responses {
		if r.HasError() {
			t.Errorf("response %v: %s", r.ID.Value(), r.Error.Message)
		}
	}
	if st.UserLookups() != 1 {
		t.Errorf("UserLookups = %d, want 1", st.UserLookups())
	}
}

func TestHandler_Errors(t *testing.T) {
	srv, _ := newTestServer(t, &config.Config{MaxBodySize: 64})

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"parse error", `{"jsonrpc":`, jsonrpc.CodeParseError},
		{"invalid request", `{"jsonrpc":"1.0","method":"user_get","id":1}`, jsonrpc.CodeInvalidRequest},
		{"too large", `{"jsonrpc":"2.0","method":"user_get","params":[10],"id":1,"pad":"xxxxxxxxxxxxxxxxxxxx"}`, jsonrpc.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, data := post(t, srv.URL, tt.body)
			resp, err := jsonrpc.ParseResponse(data)
			if err != nil {
				t.Fatalf("ParseResponse: %v", err)
			}
			if !resp.HasError() || resp.Error.Code != tt.wantCode {
				t.Errorf("response = %s, want code %d", data, tt.wantCode)
			}
		})
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &config.Config{})

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestHandler_NullBatchElement(t *testing.T) {
	srv, _ := newTestServer(t, &config.Config{})

	resp, data := post(t, srv.URL, `[null, {"jsonrpc":"2.0","method":"user_get","params":[10],"id":1}]`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	responses, isBatch, err := jsonrpc.ParseBatchResponse(data)
	if err != nil || !isBatch || len(responses) != 2 {
		t.Fatalf("ParseBatchResponse = %d, %v, %v", len(responses), isBatch, err)
	}
	if !responses[0].HasError() || responses[0].Error.Code != jsonrpc.CodeInvalidRequest {
		t.Errorf("null element response = %s", data)
	}
	if responses[1].HasError() {
		t.Errorf("valid element failed: %s", responses[1].Error.Message)
	}
}
