package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"resumeflow/internal/config"
	flowErrors "resumeflow/internal/errors"
	"resumeflow/internal/types"
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	operationType  string
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *flowErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *flowErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, flowErrors.NewCollaboratorError(flowErrors.ErrCodeCollaboratorFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		operationType:  operationType,
		circuitBreaker: NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operationType, cfg, logger),
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Network errors (timeouts, connection issues) are retryable
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Google API errors with transient HTTP status codes
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// startOperationSpan begins the trace span for one AI call and applies the
// shared provider attributes.
func (g *GeminiProvider) startOperationSpan(ctx context.Context, operationName string, spanAttributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("resumeflow.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	return ctx, span
}

// generateContent runs one breaker-protected, retried content call.
func (g *GeminiProvider) generateContent(
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	return g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
}

// executeAIOperation runs a structured-output AI operation and parses the JSON response.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	ctx, span := g.startOperationSpan(ctx, operationName, spanAttributes...)
	defer span.End()

	result, err := g.generateContent(ctx, operationName, userPrompt, systemPrompt, genaiConfig)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, flowErrors.NewCollaboratorError(flowErrors.ErrCodeCollaboratorFailed,
			"Failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, flowErrors.NewCollaboratorError("AI_RESPONSE_PARSE_FAILED",
			"Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := recordTokenUsage(result, span)
	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// executeTextOperation runs a plain-text AI operation and returns the trimmed response text.
func (g *GeminiProvider) executeTextOperation(
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	spanAttributes ...attribute.KeyValue,
) (string, *TokenUsage, error) {
	ctx, span := g.startOperationSpan(ctx, operationName, spanAttributes...)
	defer span.End()

	genaiConfig := &genai.GenerateContentConfig{}
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}

	result, err := g.generateContent(ctx, operationName, userPrompt, systemPrompt, genaiConfig)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, flowErrors.NewCollaboratorError(flowErrors.ErrCodeCollaboratorFailed,
			"Failed to generate content for "+operationName, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		err := fmt.Errorf("empty response text")
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, flowErrors.NewCollaboratorError("AI_RESPONSE_PARSE_FAILED",
			"Empty AI response for "+operationName, err)
	}

	tokenUsage := recordTokenUsage(result, span)
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.length", len(text)),
	)
	return text, tokenUsage, nil
}

func recordTokenUsage(result *genai.GenerateContentResponse, span trace.Span) *TokenUsage {
	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}
	return tokenUsage
}

// ScoreResume implements AIProvider interface for resume scoring
func (g *GeminiProvider) ScoreResume(ctx context.Context, input types.ScoreInput) (*types.ScoreReport, *TokenUsage, error) {
	systemPrompt := g.getSystemPrompt()
	userPrompt := fmt.Sprintf(g.getUserPrompt(), input.ResumeText, input.JobDescription)

	report, tokenUsage, err := executeAIOperation[types.ScoreReport](
		g,
		ctx,
		"score_resume",
		userPrompt,
		systemPrompt,
		g.buildScoreSchema(),
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.Int("input.job_length", len(input.JobDescription)),
	)

	if err != nil {
		return nil, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("score", report.Score),
			attribute.Int("feedback_count", len(report.Feedback)),
		)
	}

	return &report, tokenUsage, nil
}

// EnhanceText implements AIProvider interface for text enhancement
func (g *GeminiProvider) EnhanceText(ctx context.Context, input types.EnhanceInput) (string, *TokenUsage, error) {
	systemPrompt := g.getSystemPrompt()
	userPrompt := fmt.Sprintf(g.getUserPrompt(),
		EnhancementInstruction(input.Kind), input.Text, input.JobDescription)

	return g.executeTextOperation(
		ctx,
		"enhance_text",
		userPrompt,
		systemPrompt,
		attribute.String("enhancement.kind", string(input.Kind)),
		attribute.Int("input.text_length", len(input.Text)),
	)
}

// ChatRespond implements AIProvider interface for the chat assistant
func (g *GeminiProvider) ChatRespond(ctx context.Context, input types.ChatInput) (string, *TokenUsage, error) {
	systemPrompt := g.getSystemPrompt()
	userPrompt := fmt.Sprintf(g.getUserPrompt(), input.Context, input.Message)

	return g.executeTextOperation(
		ctx,
		"chat_respond",
		userPrompt,
		systemPrompt,
		attribute.Int("input.message_length", len(input.Message)),
	)
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
	}

	// Overall health - both breakers must be healthy
	stats["overall_healthy"] = g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy()

	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// buildScoreSchema creates the structured-output schema for score requests
func (g *GeminiProvider) buildScoreSchema() *genai.GenerateContentConfig {
	stringArray := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score":    {Type: genai.TypeInteger},
				"summary":  {Type: genai.TypeString},
				"feedback": stringArray,
				"sectionScores": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"summary":    {Type: genai.TypeInteger},
						"skills":     {Type: genai.TypeInteger},
						"experience": {Type: genai.TypeInteger},
						"education":  {Type: genai.TypeInteger},
						"projects":   {Type: genai.TypeInteger},
					},
				},
				"compliance": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"parsingValid": {Type: genai.TypeBoolean},
						"contactInfo": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"email":         {Type: genai.TypeBoolean},
								"emailFeedback": {Type: genai.TypeString},
								"phone":         {Type: genai.TypeBoolean},
								"phoneFeedback": {Type: genai.TypeString},
							},
							Required: []string{"email", "phone"},
						},
						"bulletPointsDetected": {Type: genai.TypeBoolean},
						"estimatedPages":       {Type: genai.TypeInteger},
						"appropriateLength":    {Type: genai.TypeBoolean},
						"dateFormatConsistent": {Type: genai.TypeBoolean},
						"dominantDateFormat":   {Type: genai.TypeString},
						"tablesDetected":       {Type: genai.TypeBoolean},
						"specialCharsDetected": {Type: genai.TypeBoolean},
					},
					Required: []string{"parsingValid", "contactInfo", "bulletPointsDetected",
						"estimatedPages", "appropriateLength", "dateFormatConsistent"},
				},
				"keywords": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"hardSkills":         stringArray,
						"softSkills":         stringArray,
						"criticalMissing":    stringArray,
						"recommendedMissing": stringArray,
						"stuffingDetected":   stringArray,
						"acronymWarnings":    stringArray,
					},
					Required: []string{"hardSkills", "softSkills", "criticalMissing", "recommendedMissing"},
				},
				"contentAnalysis": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"reverseChronological": {Type: genai.TypeString},
						"actionVerbs":          {Type: genai.TypeString},
						"spellingErrors":       stringArray,
						"educationFeedback":    stringArray,
					},
				},
			},
			Required: []string{"score", "summary", "feedback", "sectionScores", "compliance", "keywords"},
		},
	}

	// Apply temperature configuration if set
	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// getSystemPrompt returns the system prompt for this provider's operation
func (g *GeminiProvider) getSystemPrompt() string {
	loadedPrompts := config.GetPromptsForOperation(g.operationType)
	configPrompts := g.config.CustomPrompts.SystemPrompts

	switch g.operationType {
	case "score":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ScoreResume,
			configPrompts.ScoreResume,
			DefaultSystemPrompts.ScoreResume,
		)
	case "enhance":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.EnhanceText,
			configPrompts.EnhanceText,
			DefaultSystemPrompts.EnhanceText,
		)
	case "chat":
		return resolvePrompt(
			loadedPrompts.SystemPrompts.ChatAssist,
			configPrompts.ChatAssist,
			DefaultSystemPrompts.ChatAssist,
		)
	default:
		return ""
	}
}

// getUserPrompt returns the user prompt template for this provider's operation
func (g *GeminiProvider) getUserPrompt() string {
	loadedPrompts := config.GetPromptsForOperation(g.operationType)
	configPrompts := g.config.CustomPrompts.UserPrompts

	switch g.operationType {
	case "score":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ScoreResume,
			configPrompts.ScoreResume,
			DefaultUserPrompts.ScoreResume,
		)
	case "enhance":
		return resolvePrompt(
			loadedPrompts.UserPrompts.EnhanceText,
			configPrompts.EnhanceText,
			DefaultUserPrompts.EnhanceText,
		)
	case "chat":
		return resolvePrompt(
			loadedPrompts.UserPrompts.ChatAssist,
			configPrompts.ChatAssist,
			DefaultUserPrompts.ChatAssist,
		)
	default:
		return ""
	}
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// resolvePrompt selects the correct prompt string based on priority:
// 1. A prompt loaded from a file.
// 2. A prompt defined directly in the configuration.
// 3. A hardcoded default prompt.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
