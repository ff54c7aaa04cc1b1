// Package claude wraps the Anthropic SDK for narrative generation: the
// pipeline uses it to turn numeric assessment results into a short
// recruiter-facing summary.
package claude

import (
	"context"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client defines the Anthropic operations used by the pipeline.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest is a single-turn message request.
type MessageRequest struct {
	Model       string
	MaxTokens   int64
	System      string
	UserPrompt  string
	Temperature *float64
}

// MessageResponse holds the reply text and token accounting.
type MessageResponse struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      TokenUsage
}

// TokenUsage tracks token consumption for one call.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Log emits structured token accounting for cost attribution.
func (u TokenUsage) Log(model, phase string) {
	zap.L().Info("token usage",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
	)
}

type sdkClient struct {
	client  sdk.Client
	timeout time.Duration
}

// Option configures the client.
type Option func(*sdkClient)

// WithTimeout bounds each CreateMessage call. Non-positive values disable
// the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *sdkClient) { c.timeout = d }
}

// NewClient creates a Claude client backed by the official SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "claude: create message")
	}

	var text strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}

	return &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Text:       strings.TrimSpace(text.String()),
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}
