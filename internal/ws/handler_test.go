package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nplusone/internal/config"
	"nplusone/internal/jsonrpc"
	"nplusone/internal/resolver"
	"nplusone/internal/store"
)

func dial(t *testing.T) (*websocket.Conn, *Handler, *store.Store) {
	t.Helper()
	st := store.NewSeeded(zerolog.Nop())
	cfg := &config.Config{RequestTimeout: 5000}
	h := NewHandler(resolver.NewExecutor(st, cfg.Loader, zerolog.Nop()), cfg, zerolog.Nop())

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, h, st
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) []byte {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return data
}

func TestClient_Single(t *testing.T) {
	conn, _, _ := dial(t)

	data := roundTrip(t, conn, `{"jsonrpc":"2.0","method":"tweet_get","params":[2],"id":7}`)
	resp, err := jsonrpc.ParseResponse(data)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}

	var tweet resolver.TweetView
	if err := resp.GetResultAs(&tweet); err != nil {
		t.Fatalf("GetResultAs: %v", err)
	}
	if tweet.Body != "Sic dolor amet" || tweet.Author == nil || tweet.Author.Username != "janedoe" {
		t.Errorf("tweet = %+v", tweet)
	}
}

func TestClient_EachMessageIsOneOperation(t *testing.T) {
	conn, _, st := dial(t)

	batch := `[{"jsonrpc":"2.0","method":"user_get","params":[10],"id":1},{"jsonrpc":"2.0","method":"user_get","params":[11],"id":2}]`
	data := roundTrip(t, conn, batch)
	responses, isBatch, err := jsonrpc.ParseBatchResponse(data)
	if err != nil || !isBatch || len(responses) != 2 {
		t.Fatalf("ParseBatchResponse = %d, %v, %v", len(responses), isBatch, err)
	}
	if st.UserLookups() != 1 {
		t.Errorf("UserLookups after first message = %d, want 1", st.UserLookups())
	}

	// a second message starts a fresh operation with an empty cache
	roundTrip(t, conn, `{"jsonrpc":"2.0","method":"user_get","params":[10],"id":3}`)
	if st.UserLookups() != 2 {
		t.Errorf("UserLookups after second message = %d, want 2", st.UserLookups())
	}
}

func TestClient_ParseError(t *testing.T) {
	conn, _, _ := dial(t)

	resp, err := jsonrpc.ParseResponse(roundTrip(t, conn, `not json`))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if !resp.HasError() || resp.Error.Code != jsonrpc.CodeParseError {
		t.Errorf("response = %+v, want parse error", resp)
	}
}

func TestHandler_CloseAll(t *testing.T) {
	conn, h, _ := dial(t)

	// the server registers the client before reading its first message
	roundTrip(t, conn, `{"jsonrpc":"2.0","method":"linkedList_get","id":1}`)
	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", h.ClientCount())
	}

	h.CloseAll()
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount after CloseAll = %d, want 0", h.ClientCount())
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read error after server closed the connection")
	}
}

func TestClient_NullBatchElementKeepsConnection(t *testing.T) {
	conn, _, _ := dial(t)

	responses, _, err := jsonrpc.ParseBatchResponse(roundTrip(t, conn, `[null]`))
	if err != nil || len(responses) != 1 {
		t.Fatalf("ParseBatchResponse = %d, %v", len(responses), err)
	}
	if !responses[0].HasError() || responses[0].Error.Code != jsonrpc.CodeInvalidRequest {
		t.Errorf("response = %+v, want invalid request", responses[0])
	}

	// the connection still serves later messages
	resp, err := jsonrpc.ParseResponse(roundTrip(t, conn, `{"jsonrpc":"2.0","method":"linkedList_get","id":2}`))
	if err != nil || resp.HasError() {
		t.Errorf("follow-up response = %+v, %v", resp, err)
	}
}
