package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"

	"whatevereat/internal/bot"
	"whatevereat/internal/geo"
)

// Console message types. The dev console speaks a small JSON envelope so
// the full command flow can be exercised without LINE credentials.
type consoleMessageType string

const (
	typeConsoleText     consoleMessageType = "text"
	typeConsoleLocation consoleMessageType = "location"
	typeConsoleReply    consoleMessageType = "reply"
	typeConsoleError    consoleMessageType = "error"
)

var errUnsupportedConsoleType = errors.New("unsupported console message type")

type consoleEnvelope struct {
	Type consoleMessageType `json:"type"`
}

type consoleTextMessage struct {
	Type consoleMessageType `json:"type"`
	Text string             `json:"text"`
}

type consoleLocationMessage struct {
	Type      consoleMessageType `json:"type"`
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Title     string             `json:"title,omitempty"`
	Address   string             `json:"address,omitempty"`
}

type consoleReply struct {
	Type consoleMessageType `json:"type"`
	Text string             `json:"text"`
}

type consoleError struct {
	Type   consoleMessageType `json:"type"`
	Code   string             `json:"code"`
	Detail string             `json:"detail,omitempty"`
}

// parseConsoleMessage turns a raw console frame into a dispatcher event
// for the given user.
func parseConsoleMessage(raw []byte, userID string) (bot.Event, error) {
	var env consoleEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return bot.Event{}, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case typeConsoleText:
		var msg consoleTextMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return bot.Event{}, err
		}
		if msg.Text == "" {
			return bot.Event{}, errors.New("invalid text message")
		}
		return bot.Event{Type: bot.EventText, UserID: userID, Text: msg.Text}, nil
	case typeConsoleLocation:
		var msg consoleLocationMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return bot.Event{}, err
		}
		return bot.Event{
			Type:       bot.EventLocation,
			UserID:     userID,
			Coordinate: geo.Coordinate{Latitude: msg.Latitude, Longitude: msg.Longitude},
			Title:      msg.Title,
			Address:    msg.Address,
		}, nil
	default:
		return bot.Event{}, errUnsupportedConsoleType
	}
}
