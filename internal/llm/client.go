package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecoshelf-extractor/internal/types"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// DefaultModel is the completion model used to trim titles
const DefaultModel = "gpt-4.1-nano"

const systemPrompt = "You are a helpful assistant that trims product titles to be concise and relevant for immediate user understanding."

const userPromptFormat = `Please trim the following product title to be concise and relevant for immediate user understanding. Keep it to around 5 words or less. It should just broadly define the product without too much detail: "%s"`

var (
	// ErrEmptyCompletion is returned when the model answers without any text
	ErrEmptyCompletion = errors.New("model returned an empty completion")

	// ErrRateLimited is returned when the local request budget is exhausted
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Options configures a Client
type Options struct {
	APIKey  string
	BaseURL string
	Model   string

	// RequestsPerMinute caps outgoing completions; zero disables the cap
	RequestsPerMinute int
}

// Client trims product titles with a chat completion model
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
	logger  types.Logger
}

// NewClient creates a new language-model client
func NewClient(opts Options, logger types.Logger) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60)
		burst = opts.RequestsPerMinute
	}

	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// TrimTitle asks the model for a short generic description of title.
// It makes exactly one attempt.
func (c *Client) TrimTitle(ctx context.Context, title string) (string, error) {
	if !c.limiter.Allow() {
		return "", ErrRateLimited
	}

	c.logger.Debugf("Calling model %s with title: %.50s...", c.model, title)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(userPromptFormat, title)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	trimmed := strings.TrimSpace(resp.Choices[0].Message.Content)
	if trimmed == "" {
		return "", ErrEmptyCompletion
	}

	c.logger.Debugf("Model response: %s", trimmed)
	return trimmed, nil
}
