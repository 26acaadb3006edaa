package anthropic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("system prompt text")
	require.Len(t, blocks, 1)
	assert.Equal(t, "system prompt text", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestAPIError_UnwrapsToCause(t *testing.T) {
	cause := errors.New("overloaded_error")
	apiErr := &APIError{StatusCode: 529, Err: cause}

	assert.Equal(t, "overloaded_error", apiErr.Error())
	assert.ErrorIs(t, apiErr, cause)

	var target *APIError
	require.ErrorAs(t, fmt.Errorf("call: %w", apiErr), &target)
	assert.Equal(t, 529, target.StatusCode)
}

func TestFirstText(t *testing.T) {
	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "thinking", Text: "hmm"},
		{Type: "text", Text: "the answer"},
	}}
	assert.Equal(t, "the answer", resp.FirstText())

	empty := &MessageResponse{}
	assert.Empty(t, empty.FirstText())
}

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 200_000}

	assert.InDelta(t, 2.00, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
	assert.InDelta(t, 6.00, usage.EstimateCost("claude-sonnet-4-5-20250929"), 1e-9)
	assert.Zero(t, usage.EstimateCost("some-unknown-model"))
}

func TestEstimateCost_ZeroUsage(t *testing.T) {
	assert.Zero(t, TokenUsage{}.EstimateCost("claude-haiku-4-5-20251001"))
}
