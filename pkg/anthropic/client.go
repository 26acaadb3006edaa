// Package anthropic wraps the official SDK behind a small client
// interface so the scan strategies can be tested against a fake.
package anthropic

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client is the one Anthropic operation the deep-scan strategies need.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// APIError carries the HTTP status of a failed API call so callers can
// decide retryability.
type APIError struct {
	StatusCode int
	Err        error
}

func (e *APIError) Error() string { return e.Err.Error() }
func (e *APIError) Unwrap() error { return e.Err }

// MessageRequest carries a single scan prompt.
type MessageRequest struct {
	Model     string
	MaxTokens int64
	System    []SystemBlock
	Messages  []Message
}

// SystemBlock is one system prompt block, optionally cache-marked.
type SystemBlock struct {
	Text         string
	CacheControl *CacheControl
}

// CacheControl marks a block as a prompt-cache breakpoint.
type CacheControl struct {
	TTL string // "5m" or "1h"
}

// Message is one conversational turn.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// MessageResponse is the subset of the API reply the pipeline consumes.
type MessageResponse struct {
	Content    []ContentBlock
	StopReason string
	Usage      TokenUsage
}

// ContentBlock is one reply block.
type ContentBlock struct {
	Type string
	Text string
}

// FirstText returns the first text block of the reply, or "" when the
// model produced none.
func (r *MessageResponse) FirstText() string {
	for _, b := range r.Content {
		if b.Type == "text" {
			return b.Text
		}
	}
	return ""
}

// TokenUsage tracks token consumption for one call.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

type pricing struct {
	inPerMTok  float64
	outPerMTok float64
}

var modelPricing = map[string]pricing{
	"claude-haiku-4-5-20251001":  {inPerMTok: 1.00, outPerMTok: 5.00},
	"claude-sonnet-4-5-20250929": {inPerMTok: 3.00, outPerMTok: 15.00},
}

// EstimateCost returns the dollar cost of this usage for a model, or 0
// for models missing from the pricing table.
func (u TokenUsage) EstimateCost(model string) float64 {
	p, ok := modelPricing[model]
	if !ok {
		return 0
	}
	return float64(u.InputTokens)/1e6*p.inPerMTok + float64(u.OutputTokens)/1e6*p.outPerMTok
}

// LogCost records estimated token spend for one scan call.
func (u TokenUsage) LogCost(model, scan string) {
	zap.L().Debug("anthropic usage",
		zap.String("model", model),
		zap.String("scan", scan),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadInputTokens),
		zap.Float64("est_cost_usd", u.EstimateCost(model)),
	)
}

type sdkClient struct {
	client sdk.Client
}

// NewClient builds a Client backed by the official SDK.
func NewClient(apiKey string) Client {
	return &sdkClient{client: sdk.NewClient(option.WithAPIKey(apiKey))}
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
	}

	params.Messages = make([]sdk.MessageParam, len(req.Messages))
	for i, m := range req.Messages {
		block := sdk.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			params.Messages[i] = sdk.NewAssistantMessage(block)
		} else {
			params.Messages[i] = sdk.NewUserMessage(block)
		}
	}

	if len(req.System) > 0 {
		params.System = make([]sdk.TextBlockParam, len(req.System))
		for i, b := range req.System {
			params.System[i] = sdk.TextBlockParam{Text: b.Text}
			if b.CacheControl != nil {
				cc := sdk.NewCacheControlEphemeralParam()
				if b.CacheControl.TTL != "" {
					cc.TTL = sdk.CacheControlEphemeralTTL(b.CacheControl.TTL)
				}
				params.System[i].CacheControl = cc
			}
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		wrapped := eris.Wrap(err, "anthropic: create message")
		var sdkErr *sdk.Error
		if errors.As(err, &sdkErr) {
			return nil, &APIError{StatusCode: sdkErr.StatusCode, Err: wrapped}
		}
		return nil, wrapped
	}

	resp := &MessageResponse{
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:              msg.Usage.InputTokens,
			OutputTokens:             msg.Usage.OutputTokens,
			CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
		},
	}
	for _, b := range msg.Content {
		resp.Content = append(resp.Content, ContentBlock{Type: b.Type, Text: b.Text})
	}
	return resp, nil
}
