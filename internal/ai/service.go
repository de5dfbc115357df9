package ai

import (
	"context"
	"fmt"

	"resumeflow/internal/config"
	"resumeflow/internal/errors"
	"resumeflow/internal/types"
)

// Service handles one AI operation (score, enhance, or chat) with its own
// provider, configuration, and circuit breakers.
type Service struct {
	Provider AIProvider // Exported for access from server package
	config   *config.OperationAIConfig
	logger   *errors.Logger
}

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*Service, error) {
	var provider AIProvider
	var err error

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, errors.NewCollaboratorError(errors.ErrCodeCollaboratorFailed,
			"Failed to create AI provider", err)
	}

	return &Service{
		Provider: provider,
		config:   cfg,
		logger:   logger,
	}, nil
}

// Score runs a scoring call and discards token accounting for callers that
// only need the report.
func (s *Service) Score(ctx context.Context, input types.ScoreInput) (*types.ScoreReport, error) {
	report, usage, err := s.Provider.ScoreResume(ctx, input)
	s.logTokenUsage("score", usage)
	return report, err
}

// Enhance runs an enhancement call and returns the rewritten text.
func (s *Service) Enhance(ctx context.Context, input types.EnhanceInput) (string, error) {
	text, usage, err := s.Provider.EnhanceText(ctx, input)
	s.logTokenUsage("enhance", usage)
	return text, err
}

// Chat runs a chat call and returns the assistant reply.
func (s *Service) Chat(ctx context.Context, input types.ChatInput) (string, error) {
	reply, usage, err := s.Provider.ChatRespond(ctx, input)
	s.logTokenUsage("chat", usage)
	return reply, err
}

func (s *Service) logTokenUsage(operation string, usage *TokenUsage) {
	if usage == nil {
		return
	}
	s.logger.Debug("AI token usage",
		"operation", operation,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"total_tokens", usage.TotalTokens)
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) any {
	return s.Provider.GetModelInfo(ctx)
}

// Close releases provider resources
func (s *Service) Close() error {
	return s.Provider.Close()
}
