// Package server exposes the resume optimization workflow over a
// session-scoped REST API.
package server

import (
	"time"

	"resumeflow/internal/ai"
	"resumeflow/internal/collab"
	"resumeflow/internal/config"
	resumeflowErrors "resumeflow/internal/errors"
	"resumeflow/internal/geo"
	"resumeflow/internal/workflow"
)

// TargetRequest sets the job targeting context of a session
type TargetRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

// EnhanceRequest runs one enhancement cycle. Kind drives whole-resume
// enhancement; Field addresses a single sub-field instead when present.
type EnhanceRequest struct {
	Kind  string             `json:"kind"`
	Field *workflow.FieldRef `json:"field,omitempty"`
}

// ChatRequest is one user turn of the session's chat thread
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant's reply
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ExportRequest renders the resume into a downloadable document
type ExportRequest struct {
	Format   string `json:"format"`
	Template string `json:"template"`
}

// ResetRequest moves the session backward in the workflow
type ResetRequest struct {
	To string `json:"to"` // "intake" or "job_targeting"
}

// SessionResponse is the standard session envelope
type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Stage     string `json:"stage"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Server holds configuration and runtime dependencies for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *resumeflowErrors.Logger

	// Runtime dependencies, wired in Start
	sessions      *workflow.Manager
	parser        *collab.ParserClient
	geocoder      *geo.Client
	promptWatcher *config.PromptWatcher

	aiScore   *ai.Service
	aiEnhance *ai.Service
	aiChat    *ai.Service
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *resumeflowErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}

// initCollaborators builds the AI services, collaborator clients and the
// session manager the handlers depend on
func (s *Server) initCollaborators() error {
	scoreConfig := s.AppConfig.GetScoreConfig()
	scoreService, err := ai.NewService(&scoreConfig, "score", s.Logger)
	if err != nil {
		return err
	}

	enhanceConfig := s.AppConfig.GetEnhanceConfig()
	enhanceService, err := ai.NewService(&enhanceConfig, "enhance", s.Logger)
	if err != nil {
		return err
	}

	chatConfig := s.AppConfig.GetChatConfig()
	chatService, err := ai.NewService(&chatConfig, "chat", s.Logger)
	if err != nil {
		return err
	}

	s.aiScore = scoreService
	s.aiEnhance = enhanceService
	s.aiChat = chatService

	s.parser = collab.NewParserClient(s.AppConfig.Collab, s.Logger)
	s.geocoder = geo.NewClient(s.AppConfig.Geo, s.Logger)

	s.sessions = workflow.NewManager(workflow.Collaborators{
		Scorer:    scoreService,
		Enhancer:  enhanceService,
		Chat:      chatService,
		Generator: collab.NewGeneratorClient(s.AppConfig.Collab, s.Logger),
	}, s.AppConfig.Workflow.SessionTTL, s.Logger)

	return nil
}
