package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrEmptyCompletion is returned when the service answers without content.
var ErrEmptyCompletion = errors.New("generation returned no content")

// Request is a single-turn generation request.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Generator produces text from a system prompt and a user message.
type Generator interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures the OpenAI-compatible endpoint (Groq by default).
type Config struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
}

// Client talks to an OpenAI-compatible chat completions and embeddings API.
type Client struct {
	client openai.Client
	cfg    Config
}

// NewClient creates a new generation client.
func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// Complete sends one system + user exchange and returns the trimmed reply.
// A timeout is reported like any other failure.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// Embed returns the embedding of text using the configured embedding model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: c.cfg.EmbeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response has no data")
	}

	src := resp.Data[0].Embedding
	out := make([]float32, len(src))
	for i, v := range src {
		out[i] = float32(v)
	}
	return out, nil
}
