package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kri-ruj/linksaver/line"
	"github.com/kri-ruj/linksaver/models"
)

// MessageHandler processes one inbound chat message end to end.
// Satisfied by *pipeline.Pipeline.
type MessageHandler interface {
	HandleMessage(ctx context.Context, ownerID, replyToken, text string)
}

// pipelineTimeout bounds one webhook delivery's background processing.
// Reply tokens expire after roughly a minute, so there is no point
// working longer than that.
const pipelineTimeout = 55 * time.Second

// maxWebhookBody caps how much of a delivery we read. LINE text events
// are small; anything larger is not a legitimate delivery.
const maxWebhookBody = 1 << 20

// Webhook returns the handler for POST /callback, the LINE Messaging API
// webhook endpoint.
//
// Signature verification is mandatory and fails closed: with no channel
// secret configured every delivery is rejected. Verified deliveries are
// acknowledged with 200 immediately and processed on a background
// goroutine, keeping the platform's delivery timeout out of the pipeline.
func Webhook(channelSecret string, h MessageHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "unreadable request body",
				},
			})
			return
		}

		signature := c.GetHeader("X-Line-Signature")
		if !line.ValidSignature(channelSecret, body, signature) {
			slog.Warn("webhook signature rejected", "remote", c.ClientIP())
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeBadSignature,
					Message: "invalid webhook signature",
				},
			})
			return
		}

		webhook, err := line.ParseWebhookBody(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "malformed webhook body",
				},
			})
			return
		}

		for _, event := range webhook.Events {
			if !event.IsTextMessage() {
				continue
			}
			ev := event
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
				defer cancel()
				h.HandleMessage(ctx, ev.Source.UserID, ev.ReplyToken, ev.Message.Text)
			}()
		}

		// The platform only needs the acknowledgement; outcomes are
		// reported to the user via the reply API.
		c.Status(http.StatusOK)
	}
}
