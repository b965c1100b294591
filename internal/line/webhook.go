package line

import (
	"encoding/json"
	"fmt"

	"whatevereat/internal/bot"
	"whatevereat/internal/geo"
)

// webhookRequest mirrors the LINE Messaging API webhook payload, limited
// to the fields this bot consumes.
type webhookRequest struct {
	Destination string         `json:"destination"`
	Events      []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string         `json:"type"`
	ReplyToken string         `json:"replyToken"`
	Source     webhookSource  `json:"source"`
	Message    webhookMessage `json:"message"`
}

type webhookSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type webhookMessage struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	Title     string  `json:"title"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ParseWebhook extracts the text and location message events from a
// webhook body. Other event types (follow, unfollow, stickers, ...) are
// skipped; LINE expects a 200 for them regardless.
func ParseWebhook(body []byte) ([]bot.Event, error) {
	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}

	var events []bot.Event
	for _, ev := range req.Events {
		if ev.Type != "message" || ev.Source.UserID == "" {
			continue
		}
		switch ev.Message.Type {
		case "text":
			events = append(events, bot.Event{
				Type:       bot.EventText,
				UserID:     ev.Source.UserID,
				ReplyToken: ev.ReplyToken,
				Text:       ev.Message.Text,
			})
		case "location":
			events = append(events, bot.Event{
				Type:       bot.EventLocation,
				UserID:     ev.Source.UserID,
				ReplyToken: ev.ReplyToken,
				Coordinate: geo.Coordinate{Latitude: ev.Message.Latitude, Longitude: ev.Message.Longitude},
				Title:      ev.Message.Title,
				Address:    ev.Message.Address,
			})
		}
	}
	return events, nil
}
