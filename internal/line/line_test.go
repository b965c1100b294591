package line

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"whatevereat/internal/bot"
)

func TestValidateSignature(t *testing.T) {
	secret := "channel-secret"
	body := []byte(`{"events":[]}`)

	if err := ValidateSignature(secret, body, Sign(secret, body)); err != nil {
		t.Fatalf("ValidateSignature() with valid signature error = %v", err)
	}

	if err := ValidateSignature(secret, body, "bogus"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("ValidateSignature() with bad signature error = %v", err)
	}
	if err := ValidateSignature(secret, []byte(`tampered`), Sign(secret, body)); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("ValidateSignature() with tampered body error = %v", err)
	}
	if err := ValidateSignature("other-secret", body, Sign(secret, body)); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("ValidateSignature() with wrong secret error = %v", err)
	}
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{
		"destination": "xxx",
		"events": [
			{"type":"message","replyToken":"rt1","source":{"type":"user","userId":"u1"},
			 "message":{"type":"text","id":"m1","text":"抽餐廳"}},
			{"type":"message","replyToken":"rt2","source":{"type":"user","userId":"u1"},
			 "message":{"type":"location","id":"m2","title":"台北101","address":"信義路五段7號",
			            "latitude":25.0330,"longitude":121.5654}},
			{"type":"follow","replyToken":"rt3","source":{"type":"user","userId":"u1"}},
			{"type":"message","replyToken":"rt4","source":{"type":"user","userId":"u1"},
			 "message":{"type":"sticker","id":"m3"}}
		]
	}`)

	events, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}

	if events[0].Type != bot.EventText || events[0].Text != "抽餐廳" || events[0].ReplyToken != "rt1" {
		t.Fatalf("text event = %+v", events[0])
	}
	loc := events[1]
	if loc.Type != bot.EventLocation || loc.Title != "台北101" {
		t.Fatalf("location event = %+v", loc)
	}
	if loc.Coordinate.Latitude != 25.0330 || loc.Coordinate.Longitude != 121.5654 {
		t.Fatalf("location coordinate = %+v", loc.Coordinate)
	}
}

func TestParseWebhookRejectsGarbage(t *testing.T) {
	if _, err := ParseWebhook([]byte(`not json`)); err == nil {
		t.Fatalf("ParseWebhook() expected error for invalid JSON")
	}
}

func TestClientReply(t *testing.T) {
	var gotAuth string
	var gotBody replyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/reply" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode reply body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("access-token")
	c.SetBaseURL(srv.URL)

	if err := c.Reply(context.Background(), "rt1", "hello"); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if gotAuth != "Bearer access-token" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotBody.ReplyToken != "rt1" || len(gotBody.Messages) != 1 || gotBody.Messages[0].Text != "hello" {
		t.Fatalf("reply body = %+v", gotBody)
	}
}

func TestClientReplyHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Invalid reply token"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("access-token")
	c.SetBaseURL(srv.URL)

	if err := c.Reply(context.Background(), "stale", "hello"); err == nil {
		t.Fatalf("Reply() expected error on HTTP 400")
	}
}

func TestClientReplyMessageCount(t *testing.T) {
	c := NewClient("access-token")
	if err := c.Reply(context.Background(), "rt1"); err == nil {
		t.Fatalf("Reply() with no messages should fail")
	}
	if err := c.Reply(context.Background(), "rt1", "1", "2", "3", "4", "5", "6"); err == nil {
		t.Fatalf("Reply() with six messages should fail")
	}
}
