package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kri-ruj/linksaver/config"
	"github.com/kri-ruj/linksaver/models"
)

// llmClient is a lightweight OpenAI-compatible API client for structured
// article analysis. It uses net/http directly — no third-party SDK needed.
type llmClient struct {
	cfg        config.LLMConfig
	httpClient *http.Client
}

func newLLMClient(cfg config.LLMConfig, httpClient *http.Client) *llmClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &llmClient{cfg: cfg, httpClient: httpClient}
}

// chatRequest is the OpenAI chat completion request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the minimal OpenAI chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatErrorResponse captures an API error from the LLM provider.
type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

const analysisSystemPrompt = `You are an article analysis assistant. Analyze the article the user provides and return ONLY a JSON object with exactly these fields:

{
  "summary": "2-3 sentence summary",
  "category": "one of: Programming, AI/ML, Business, Science, Design, Health, Finance, News, General",
  "subcategory": "free-form refinement of category, or null",
  "topics": ["up to 5 topic strings"],
  "tags": ["up to 7 short lowercase tags"],
  "people": ["person names mentioned"],
  "organizations": ["organization names mentioned"],
  "locations": ["place names mentioned"],
  "technologies": ["technology, product or tool names mentioned"],
  "sentiment": {"label": "positive|negative|neutral", "score": -1.0 to 1.0},
  "complexity_level": "beginner|intermediate|advanced",
  "key_points": ["up to 5 key takeaways"],
  "action_items": ["up to 3 suggested follow-ups, or empty"]
}

Rules:
- Return ONLY valid JSON, no markdown fences or explanation.
- Use null or an empty list for anything the article does not support.
- sentiment.score must be between -1.0 and 1.0.`

// analyze sends title + body to the chat-completions endpoint and decodes
// the structured response.
func (c *llmClient) analyze(ctx context.Context, title, bodyText, url string) (*llmAnalysis, error) {
	userContent := fmt.Sprintf("Title: %s\nURL: %s\n\n%s", title, url, bodyText)

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeLLMFailure, "failed to read LLM response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyLLMError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeLLMFailure, "failed to parse LLM response", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, models.NewPipelineError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}

	return decodeAnalysis(chatResp.Choices[0].Message.Content)
}

// classifyLLMError maps HTTP status codes to appropriate error codes.
func classifyLLMError(statusCode int, body []byte) *models.PipelineError {
	var errResp chatErrorResponse
	msg := "LLM API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewPipelineError(models.ErrCodeLLMAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewPipelineError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewPipelineError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", statusCode, msg), nil)
	}
}
