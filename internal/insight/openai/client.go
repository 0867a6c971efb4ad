package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"docsight-backend/internal/insight"
	"docsight-backend/internal/shared/telemetry"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// Client implements insight.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	apiURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float32       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// analysisPayload is the JSON shape the prompt demands from the model.
type analysisPayload struct {
	Summary  string   `json:"summary"`
	Insights []string `json:"insights"`
	Metadata struct {
		Title       string `json:"title"`
		Authors     string `json:"authors"`
		PublishedAt string `json:"publishedAt"`
	} `json:"metadata"`
}

// Analyze sends the document text plus hints and parses the structured reply.
func (c *Client) Analyze(ctx context.Context, input insight.Input) (insight.Result, error) {
	messages := BuildPrompt(insight.TruncateText(input.Text), map[string]string{
		"title":       input.Hints.Title,
		"authors":     input.Hints.Authors,
		"publishedAt": input.Hints.PublishedAt,
	})

	raw, err := c.completeOnce(ctx, messages)
	if err != nil {
		return insight.Result{}, err
	}

	if !json.Valid(raw) {
		// One repair round before giving up on the shape.
		raw, err = c.completeOnce(ctx, buildFixPrompt(raw))
		if err != nil {
			return insight.Result{}, err
		}
		if !json.Valid(raw) {
			return insight.Result{}, insight.ErrInvalidResponse
		}
	}

	var payload analysisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return insight.Result{}, insight.ErrInvalidResponse
	}
	return resultFromPayload(payload)
}

func resultFromPayload(payload analysisPayload) (insight.Result, error) {
	insights := make([]string, 0, len(payload.Insights))
	for _, item := range payload.Insights {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			insights = append(insights, trimmed)
		}
	}
	if len(insights) == 0 {
		return insight.Result{}, insight.ErrInvalidResponse
	}

	summary := strings.TrimSpace(payload.Summary)
	if summary == "" {
		summary = insight.SummaryPlaceholder
	}

	return insight.Result{
		Summary:  summary,
		Insights: insights,
		Refined: insight.Hints{
			Title:       strings.TrimSpace(payload.Metadata.Title),
			Authors:     strings.TrimSpace(payload.Metadata.Authors),
			PublishedAt: strings.TrimSpace(payload.Metadata.PublishedAt),
		},
	}, nil
}

func (c *Client) completeOnce(ctx context.Context, messages []Message) (json.RawMessage, error) {
	temp := float32(0)
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:          c.model,
		Messages:       reqMessages,
		Temperature:    &temp,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", insight.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", insight.ErrServiceUnavailable, err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %d", insight.ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", insight.ErrInvalidResponse, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, insight.ErrInvalidResponse
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", insight.ErrInvalidResponse, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, insight.ErrInvalidResponse
	}

	logUsage(c.model, &parsed)
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	return json.RawMessage(content), nil
}

func logUsage(model string, parsed *chatResponse) {
	if parsed.Usage == nil {
		return
	}
	telemetry.Info("openai.usage", map[string]any{
		"model":             model,
		"prompt_tokens":     parsed.Usage.PromptTokens,
		"completion_tokens": parsed.Usage.CompletionTokens,
		"total_tokens":      parsed.Usage.TotalTokens,
	})
}

var _ insight.Client = (*Client)(nil)
