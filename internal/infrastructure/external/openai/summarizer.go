package openai

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/garyjia/billwatch/internal/application/port"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config configures the OpenAI summarizer
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Prompts *PromptConfig
}

// Summarizer implements port.Summarizer with the chat completions API
type Summarizer struct {
	client  *openai.Client
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewSummarizer creates a new OpenAI summarizer
func NewSummarizer(cfg Config, logger *zap.Logger) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Prompts == nil {
		cfg.Prompts = DefaultPrompts()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Summarizer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		prompts: cfg.Prompts,
		logger:  logger,
	}, nil
}

// Summarize asks the model for a summary of text in the requested mode
func (s *Summarizer) Summarize(ctx context.Context, text string, mode port.SummaryMode) (string, error) {
	prompt := s.prompts.Paragraph
	if mode == port.SummaryBullets {
		prompt = s.prompts.Bullets
	}

	user, err := renderTemplate(prompt.UserTemplate, struct{ Text string }{Text: text})
	if err != nil {
		return "", err
	}

	temperature := prompt.Temperature
	if temperature == 0 {
		// a zero temperature is dropped from the request by omitempty
		temperature = math.SmallestNonzeroFloat32
	}

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: temperature,
		MaxTokens:   prompt.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		s.logger.Error("OpenAI API call failed", zap.Error(err))
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("empty summary from OpenAI")
	}

	s.logger.Info("Bill summary generated",
		zap.String("mode", string(mode)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return summary, nil
}
