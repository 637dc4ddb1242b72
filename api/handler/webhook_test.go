package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kri-ruj/linksaver/line"
)

type recordedMessage struct {
	ownerID    string
	replyToken string
	text       string
}

type recordingHandler struct {
	mu       sync.Mutex
	messages []recordedMessage
	done     chan struct{}
}

func (h *recordingHandler) HandleMessage(ctx context.Context, ownerID, replyToken, text string) {
	h.mu.Lock()
	h.messages = append(h.messages, recordedMessage{ownerID, replyToken, text})
	h.mu.Unlock()
	if h.done != nil {
		h.done <- struct{}{}
	}
}

func webhookRouter(secret string, h MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/callback", Webhook(secret, h))
	return r
}

func postWebhook(t *testing.T, r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Line-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func textEventBody(t *testing.T, userID, replyToken, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"events": []map[string]any{{
			"type":       "message",
			"replyToken": replyToken,
			"source":     map[string]any{"type": "user", "userId": userID},
			"message":    map[string]any{"type": "text", "id": "1", "text": text},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestWebhook_ValidSignatureDispatches(t *testing.T) {
	const secret = "channel-secret"
	h := &recordingHandler{done: make(chan struct{}, 1)}
	r := webhookRouter(secret, h)

	body := textEventBody(t, "U123", "rt-1", "https://example.com/a")
	w := postWebhook(t, r, body, line.Sign(secret, body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never invoked")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) != 1 {
		t.Fatalf("messages = %d", len(h.messages))
	}
	got := h.messages[0]
	if got.ownerID != "U123" || got.replyToken != "rt-1" || got.text != "https://example.com/a" {
		t.Errorf("dispatched %+v", got)
	}
}

func TestWebhook_BadSignatureRejected(t *testing.T) {
	h := &recordingHandler{}
	r := webhookRouter("channel-secret", h)

	body := textEventBody(t, "U123", "rt-1", "hello")
	w := postWebhook(t, r, body, line.Sign("wrong-secret", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) != 0 {
		t.Error("handler must not run for a bad signature")
	}
}

func TestWebhook_MissingSignatureRejected(t *testing.T) {
	h := &recordingHandler{}
	r := webhookRouter("channel-secret", h)

	body := textEventBody(t, "U123", "rt-1", "hello")
	if w := postWebhook(t, r, body, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestWebhook_EmptySecretFailsClosed(t *testing.T) {
	h := &recordingHandler{}
	r := webhookRouter("", h)

	body := textEventBody(t, "U123", "rt-1", "hello")
	w := postWebhook(t, r, body, line.Sign("", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 with no secret configured", w.Code)
	}
}

func TestWebhook_NonTextEventsIgnored(t *testing.T) {
	const secret = "channel-secret"
	h := &recordingHandler{}
	r := webhookRouter(secret, h)

	body, _ := json.Marshal(map[string]any{
		"events": []map[string]any{
			{"type": "follow", "source": map[string]any{"type": "user", "userId": "U123"}},
			{
				"type":       "message",
				"replyToken": "rt-1",
				"source":     map[string]any{"type": "user", "userId": "U123"},
				"message":    map[string]any{"type": "sticker", "id": "2"},
			},
		},
	})
	w := postWebhook(t, r, body, line.Sign(secret, body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	// Dispatch is asynchronous; give a wrongly spawned goroutine a
	// moment to show itself before asserting nothing ran.
	time.Sleep(50 * time.Millisecond)
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) != 0 {
		t.Errorf("non-text events were dispatched: %+v", h.messages)
	}
}

func TestWebhook_MalformedBodyRejected(t *testing.T) {
	const secret = "channel-secret"
	h := &recordingHandler{}
	r := webhookRouter(secret, h)

	body := []byte("{not json")
	w := postWebhook(t, r, body, line.Sign(secret, body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
