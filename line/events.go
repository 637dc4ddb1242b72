// Package line speaks the LINE Messaging API: webhook envelope parsing,
// signature verification, reply/push delivery and reply composition.
package line

import "encoding/json"

// WebhookBody is the envelope LINE posts to /callback.
type WebhookBody struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is one entry of the webhook envelope. Only message events with
// text content feed the ingestion pipeline; everything else is ignored.
type Event struct {
	Type       string   `json:"type"`
	ReplyToken string   `json:"replyToken"`
	Source     Source   `json:"source"`
	Timestamp  int64    `json:"timestamp"`
	Message    *Message `json:"message,omitempty"`
}

// Source identifies the sender of an event.
type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

// Message is the message payload of a message event.
type Message struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// ParseWebhookBody decodes a raw webhook body.
func ParseWebhookBody(raw []byte) (*WebhookBody, error) {
	var body WebhookBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// IsTextMessage reports whether the event should enter the pipeline.
func (e *Event) IsTextMessage() bool {
	return e.Type == "message" && e.Message != nil && e.Message.Type == "text"
}
