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

	"github.com/kri-ruj/linksaver/config"
	"github.com/kri-ruj/linksaver/models"
)

// TextMessage is an outbound text message.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTextMessage builds a text message, applying the transport's hard
// length limit defensively.
func NewTextMessage(text string) TextMessage {
	return TextMessage{Type: "text", Text: Truncate(text, MaxMessageLength)}
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []TextMessage `json:"messages"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []TextMessage `json:"messages"`
}

// Client calls the LINE Messaging API with bearer-token auth.
type Client struct {
	cfg        config.LineConfig
	httpClient *http.Client
}

// NewClient creates a Client. httpClient may be nil (a 10s-timeout default
// is applied); it is injectable for tests.
func NewClient(cfg config.LineConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// Reply sends messages against a reply token. Reply tokens are single-use
// and expire quickly, so failures are returned for logging but the caller
// has no retry path.
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...TextMessage) error {
	return c.post(ctx, "/v2/bot/message/reply", replyRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
}

// Push sends messages directly to a user, independent of any reply token.
func (c *Client) Push(ctx context.Context, userID string, messages ...TextMessage) error {
	return c.post(ctx, "/v2/bot/message/push", pushRequest{
		To:       userID,
		Messages: messages,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("line: marshal payload: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.APIBaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("line: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ChannelToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.NewPipelineError(models.ErrCodeReplyFailure, "LINE API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.NewPipelineError(models.ErrCodeReplyFailure,
			fmt.Sprintf("LINE API returned %d: %s", resp.StatusCode, string(detail)), nil)
	}
	return nil
}
