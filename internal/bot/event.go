package bot

import "whatevereat/internal/geo"

// EventType identifies channel-neutral inbound events.
type EventType string

const (
	EventText     EventType = "text"
	EventLocation EventType = "location"
)

// Event is an inbound message normalized away from any specific channel.
// LINE webhooks and the dev console both produce these.
type Event struct {
	Type       EventType
	UserID     string
	ReplyToken string

	// Text is set for EventText.
	Text string

	// Location fields are set for EventLocation.
	Coordinate geo.Coordinate
	Title      string
	Address    string
}

// Reply is the outbound text for an event.
type Reply struct {
	Text string
}
