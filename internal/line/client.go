package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBaseURL = "https://api.line.me"

// Client sends replies through the LINE Messaging API.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewClient(channelAccessToken string) *Client {
	return &Client{
		token:   strings.TrimSpace(channelAccessToken),
		baseURL: defaultAPIBaseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetBaseURL points the client at a different endpoint. Tests use this
// with httptest servers.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

type replyRequest struct {
	ReplyToken string         `json:"replyToken"`
	Messages   []replyMessage `json:"messages"`
}

type replyMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Reply sends text messages for a reply token. LINE allows at most five
// messages per reply.
func (c *Client) Reply(ctx context.Context, replyToken string, texts ...string) error {
	if len(texts) == 0 || len(texts) > 5 {
		return fmt.Errorf("reply needs 1-5 messages, got %d", len(texts))
	}
	messages := make([]replyMessage, 0, len(texts))
	for _, text := range texts {
		messages = append(messages, replyMessage{Type: "text", Text: text})
	}

	payload, err := json.Marshal(replyRequest{ReplyToken: replyToken, Messages: messages})
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/bot/message/reply", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("line reply status %d: %s", res.StatusCode, string(body))
	}
	return nil
}
