// ABOUTME: Client for the hosted completion provider over its OpenAI-compatible API
// ABOUTME: Turns an assembled transcript into a single reply text, or ErrUnavailable

package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrUnavailable is returned for any completion failure: transport errors,
// non-success responses, and empty or malformed replies. The caller must not
// synthesize a reply on this error.
var ErrUnavailable = errors.New("completion unavailable")

// DefaultTimeout bounds a single completion call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Config holds the provider connection settings. SystemPrompt is an opaque,
// constant instruction; it carries no per-user state.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
}

// Client calls the completion provider. Constructed once at process start and
// shared; it holds no per-conversation state.
type Client struct {
	api          openai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
	logger       *slog.Logger
}

// New creates a completion client from config.
func New(cfg Config) *Client {
	// The SDK retries on 5xx by default; this component is contractually
	// single-attempt, so retries are disabled here.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		api:          openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		timeout:      timeout,
		logger:       slog.Default().With("component", "completion"),
	}
}

// Complete sends the transcript as the user turn and returns the single best
// reply text. One attempt per call; retry policy belongs to the caller.
func (c *Client) Complete(ctx context.Context, transcript string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(c.systemPrompt))
	}
	messages = append(messages, openai.UserMessage(transcript))

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrUnavailable)
	}
	reply := resp.Choices[0].Message.Content
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: empty reply", ErrUnavailable)
	}

	c.logger.Debug("completion received", "model", c.model, "reply_len", len(reply))
	return reply, nil
}
