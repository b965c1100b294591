package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"whatevereat/internal/bot"
	"whatevereat/internal/config"
	"whatevereat/internal/engine"
	"whatevereat/internal/history"
	"whatevereat/internal/line"
	"whatevereat/internal/observability"
	"whatevereat/internal/places"
	"whatevereat/internal/session"
)

var testNamespace atomic.Int64

func newTestServer(t *testing.T, cfg config.Config) (*Server, *recordingReplier) {
	t.Helper()

	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%d", testNamespace.Add(1)))
	sessions := session.NewInMemoryStore(30 * time.Minute)
	hist := history.NewInMemoryStore(history.DefaultWindow)
	eng := engine.New(sessions, hist, places.NewMockResolver(), metrics, engine.Config{}, nil)
	dispatcher := bot.NewDispatcher(eng, metrics, nil)
	replier := &recordingReplier{}
	return New(cfg, dispatcher, sessions, replier, metrics, nil), replier
}

type recordingReplier struct {
	tokens []string
	texts  []string
}

func (r *recordingReplier) Reply(_ context.Context, replyToken string, texts ...string) error {
	r.tokens = append(r.tokens, replyToken)
	r.texts = append(r.texts, texts...)
	return nil
}

func TestHealthAndConfigEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{ResolverMode: "mock", SessionTTL: 30 * time.Minute, HistoryWindow: 5, SearchRadius: 500})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	cfgRes, err := http.Get(ts.URL + "/config")
	if err != nil {
		t.Fatalf("GET /config error = %v", err)
	}
	defer cfgRes.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(cfgRes.Body).Decode(&payload); err != nil {
		t.Fatalf("decode config response: %v", err)
	}
	if payload["line_enabled"] != false {
		t.Fatalf("line_enabled = %v, want false", payload["line_enabled"])
	}
	if payload["resolver_mode"] != "mock" {
		t.Fatalf("resolver_mode = %v, want mock", payload["resolver_mode"])
	}
}

func TestCallbackWithoutLineCredentials(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	res, err := http.Post(ts.URL+"/callback", "application/json", strings.NewReader(`{"events":[]}`))
	if err != nil {
		t.Fatalf("POST /callback error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestCallbackRejectsBadSignature(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{
		LineChannelSecret:      "secret",
		LineChannelAccessToken: "token",
	})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body := []byte(`{"events":[]}`)
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/callback", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", "not-a-signature")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /callback error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestCallbackDispatchesAndReplies(t *testing.T) {
	const secret = "webhook-secret"
	srv, replier := newTestServer(t, config.Config{
		LineChannelSecret:      secret,
		LineChannelAccessToken: "token",
	})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body := []byte(`{"events":[{"type":"message","replyToken":"rt-1","source":{"type":"user","userId":"user-1"},"message":{"id":"m1","type":"text","text":"help"}}]}`)
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/callback", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", line.Sign(secret, body))
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /callback error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(res.Body)
		t.Fatalf("status = %d, want %d (body %s)", res.StatusCode, http.StatusOK, raw)
	}

	if len(replier.tokens) != 1 || replier.tokens[0] != "rt-1" {
		t.Fatalf("reply tokens = %v, want [rt-1]", replier.tokens)
	}
	if len(replier.texts) != 1 || !strings.Contains(replier.texts[0], "抽餐廳") {
		t.Fatalf("reply text = %v, want help text", replier.texts)
	}
}

func TestConsoleWebsocketFlow(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{AllowAnyOrigin: true})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/console/ws?user_id=console-user"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial console websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(consoleLocationMessage{Type: typeConsoleLocation, Latitude: 25.0330, Longitude: 121.5654, Title: "台北101"}); err != nil {
		t.Fatalf("write location: %v", err)
	}

	// Location triggers a confirm plus an immediate recommendation.
	var reply consoleReply
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if reply.Type != typeConsoleReply || reply.Text == "" {
		t.Fatalf("reply = %+v, want non-empty console reply", reply)
	}
	if !strings.Contains(reply.Text, "台北101") {
		t.Fatalf("reply text %q does not mention the location title", reply.Text)
	}

	if err := conn.WriteJSON(consoleTextMessage{Type: typeConsoleText, Text: "status"}); err != nil {
		t.Fatalf("write text: %v", err)
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read status reply: %v", err)
	}
	if reply.Text == "" {
		t.Fatalf("status reply is empty")
	}
}

func TestConsoleWebsocketRejectsBadFrames(t *testing.T) {
	srv, _ := newTestServer(t, config.Config{AllowAnyOrigin: true})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/console/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial console websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`)); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	var errMsg consoleError
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&errMsg); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if errMsg.Type != typeConsoleError || errMsg.Code != "invalid_message" {
		t.Fatalf("error frame = %+v, want invalid_message", errMsg)
	}
}
