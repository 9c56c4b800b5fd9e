package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ironsheep/fra-claim-ocr/internal/metrics"
)

// maxInputRunes bounds the text sent to the model per request.
const maxInputRunes = 4000

const systemPrompt = `You label named entities in OCR text from Indian Forest Rights Act claim forms.
Return a JSON object {"entities":[{"text":"...","label":"..."}]}.
Use label PERSON for people, GPE for villages, towns, districts and states, LOC for other places and ORG for organisations.
Copy each entity text exactly as it appears. Return an empty list when there are none.`

// OpenAIConfig holds the chat model settings.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// OpenAIRecognizer asks an OpenAI-compatible chat model to label entities.
type OpenAIRecognizer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIRecognizer creates a recognizer. It does not contact the API.
func NewOpenAIRecognizer(cfg OpenAIConfig) *OpenAIRecognizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIRecognizer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (r *OpenAIRecognizer) Name() string    { return "openai" }
func (r *OpenAIRecognizer) Available() bool { return true }

// Entities implements Recognizer.
func (r *OpenAIRecognizer) Entities(ctx context.Context, text string) ([]Entity, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if runes := []rune(text); len(runes) > maxInputRunes {
		text = string(runes[:maxInputRunes])
	}

	req := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(r.Name(), r.model, "error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.ModelRequestsTotal.WithLabelValues(r.Name(), r.model, "empty_response").Inc()
		return nil, errors.New("empty chat completion response")
	}

	entities, err := parseEntities([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(r.Name(), r.model, "invalid_answer").Inc()
		return nil, err
	}

	metrics.ModelRequestsTotal.WithLabelValues(r.Name(), r.model, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(r.Name(), r.model).Observe(time.Since(start).Seconds())

	r.logger.Debug("ner entities",
		zap.Int("count", len(entities)),
		zap.Duration("latency", time.Since(start)),
	)
	return entities, nil
}

// HealthCheck verifies API availability via ListModels.
func (r *OpenAIRecognizer) HealthCheck(ctx context.Context) error {
	if _, err := r.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", parseAPIError(err))
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("ner API error %d: %s", reqErr.HTTPStatusCode, detail)
		}
		return fmt.Errorf("ner API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("ner API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("ner request failed: %w", err)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
