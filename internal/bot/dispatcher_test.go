package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"whatevereat/internal/engine"
	"whatevereat/internal/geo"
	"whatevereat/internal/history"
	"whatevereat/internal/places"
	"whatevereat/internal/session"
)

var taipei = geo.Coordinate{Latitude: 25.0330, Longitude: 121.5654}

type stubResolver struct {
	venues []places.Venue
	err    error
}

func (r *stubResolver) Nearby(context.Context, geo.Coordinate, int) ([]places.Venue, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.venues, nil
}

func newTestDispatcher(t *testing.T, resolver places.Resolver) *Dispatcher {
	t.Helper()
	sessions := session.NewInMemoryStore(30 * time.Minute)
	hist := history.NewInMemoryStore(5)
	eng := engine.New(sessions, hist, resolver, nil, engine.Config{ResolverTimeout: time.Second}, nil)
	return NewDispatcher(eng, nil, nil)
}

func fixture() []places.Venue {
	return []places.Venue{
		{ID: "v1", Name: "阿姨牛肉麵", Rating: 4.5, Address: "信義路五段12號", PriceTier: 1,
			Categories: []string{"restaurant"}, Open: places.OpenStateOpen,
			Hours: []string{"星期一: 11:00 – 21:00"}, MapsURL: "https://maps.google.com/?cid=1"},
	}
}

func TestHandleLocationConfirmsAndRecommends(t *testing.T) {
	d := newTestDispatcher(t, &stubResolver{venues: fixture()})

	reply := d.Handle(context.Background(), Event{
		Type:       EventLocation,
		UserID:     "u1",
		Coordinate: taipei,
		Title:      "台北101",
		Address:    "信義路五段7號",
	})

	for _, want := range []string{"位置已更新", "台北101", "阿姨牛肉麵", "第 1 次推薦", "目前營業中", "評分：4.5"} {
		if !strings.Contains(reply.Text, want) {
			t.Fatalf("reply missing %q:\n%s", want, reply.Text)
		}
	}
}

func TestHandleLocationInvalidCoordinate(t *testing.T) {
	d := newTestDispatcher(t, &stubResolver{venues: fixture()})

	reply := d.Handle(context.Background(), Event{
		Type:       EventLocation,
		UserID:     "u1",
		Coordinate: geo.Coordinate{Latitude: 123, Longitude: 456},
	})
	if reply.Text != msgInvalidLocation {
		t.Fatalf("reply = %q, want invalid-location message", reply.Text)
	}
}

func TestHandleRecommendWithoutSession(t *testing.T) {
	d := newTestDispatcher(t, &stubResolver{venues: fixture()})

	reply := d.Handle(context.Background(), Event{Type: EventText, UserID: "u1", Text: "抽餐廳"})
	if reply.Text != msgNoSession {
		t.Fatalf("reply = %q, want no-session prompt", reply.Text)
	}
}

func TestHandleRecommendFailureMessages(t *testing.T) {
	cases := []struct {
		name     string
		resolver places.Resolver
		want     string
	}{
		{"empty result", &stubResolver{}, msgNoCandidates},
		{"provider error", &stubResolver{err: errors.New("quota exhausted")}, msgResolverTrouble},
	}
	for _, tc := range cases {
		d := newTestDispatcher(t, tc.resolver)
		ctx := context.Background()
		d.Handle(ctx, Event{Type: EventLocation, UserID: "u1", Coordinate: taipei})

		reply := d.Handle(ctx, Event{Type: EventText, UserID: "u1", Text: "recommend"})
		if reply.Text != tc.want {
			t.Fatalf("%s: reply = %q, want %q", tc.name, reply.Text, tc.want)
		}
	}
}

func TestHandleStatusAndClear(t *testing.T) {
	d := newTestDispatcher(t, &stubResolver{venues: fixture()})
	ctx := context.Background()

	reply := d.Handle(ctx, Event{Type: EventText, UserID: "u1", Text: "status"})
	if !strings.Contains(reply.Text, "沒有記錄您的位置") {
		t.Fatalf("empty status reply = %q", reply.Text)
	}

	d.Handle(ctx, Event{Type: EventLocation, UserID: "u1", Coordinate: taipei, Title: "台北101"})

	reply = d.Handle(ctx, Event{Type: EventText, UserID: "u1", Text: "狀態"})
	for _, want := range []string{"台北101", "推薦過 1 次", "還會記住"} {
		if !strings.Contains(reply.Text, want) {
			t.Fatalf("status reply missing %q:\n%s", want, reply.Text)
		}
	}

	reply = d.Handle(ctx, Event{Type: EventText, UserID: "u1", Text: "清除"})
	if reply.Text != msgCleared {
		t.Fatalf("clear reply = %q", reply.Text)
	}

	reply = d.Handle(ctx, Event{Type: EventText, UserID: "u1", Text: "status"})
	if !strings.Contains(reply.Text, "沒有記錄您的位置") {
		t.Fatalf("status after clear = %q", reply.Text)
	}
}

func TestHandleHelpAndUnknown(t *testing.T) {
	d := newTestDispatcher(t, &stubResolver{venues: fixture()})
	ctx := context.Background()

	reply := d.Handle(ctx, Event{Type: EventText, UserID: "u1", Text: "help"})
	if !strings.Contains(reply.Text, "指令說明") {
		t.Fatalf("help reply = %q", reply.Text)
	}

	reply = d.Handle(ctx, Event{Type: EventText, UserID: "u1", Text: "今天天氣如何"})
	if reply.Text != msgUnknown {
		t.Fatalf("unknown reply = %q", reply.Text)
	}
}

func TestFormatRecommendationRotationNotice(t *testing.T) {
	rec := &engine.Recommendation{
		Venue:         places.Venue{ID: "v1", Name: "somewhere", Open: places.OpenStateUnknown},
		Number:        1,
		RotationReset: true,
	}
	text := formatRecommendation(rec)
	if !strings.Contains(text, "重新洗牌") {
		t.Fatalf("rotation notice missing:\n%s", text)
	}
	if !strings.Contains(text, "營業時間資訊不可用") {
		t.Fatalf("unknown-hours fallback missing:\n%s", text)
	}
}
