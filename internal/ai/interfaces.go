package ai

import (
	"context"

	"resumeflow/internal/types"
)

// AIProvider interface for different AI implementations
// All methods return token usage information - callers can ignore it if not needed
type AIProvider interface {
	ScoreResume(ctx context.Context, input types.ScoreInput) (*types.ScoreReport, *TokenUsage, error)
	EnhanceText(ctx context.Context, input types.EnhanceInput) (string, *TokenUsage, error)
	ChatRespond(ctx context.Context, input types.ChatInput) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
