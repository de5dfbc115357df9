package server

import (
	"net/http"
	"strings"

	"resumeflow/internal/observability"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimitHandler := s.createRateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()

	// guard composes the middleware stack shared by the session endpoints
	guard := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.authMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /sessions", guard(s.createSessionHandler(om)))
	mux.HandleFunc("GET /sessions/{id}", guard(s.sessionStateHandler(om)))
	mux.HandleFunc("DELETE /sessions/{id}", guard(s.deleteSessionHandler(om)))

	mux.HandleFunc("POST /sessions/{id}/upload", guard(s.uploadHandler(om)))
	mux.HandleFunc("POST /sessions/{id}/manual", guard(s.manualEntryHandler(om)))
	mux.HandleFunc("POST /sessions/{id}/target", guard(s.targetHandler(om)))
	mux.HandleFunc("POST /sessions/{id}/score", guard(s.scoreHandler(om)))
	mux.HandleFunc("POST /sessions/{id}/enhance", guard(s.enhanceHandler(om)))
	mux.HandleFunc("POST /sessions/{id}/chat", guard(s.chatHandler(om)))
	mux.HandleFunc("GET /sessions/{id}/chat", guard(s.chatLogHandler(om)))
	mux.HandleFunc("POST /sessions/{id}/export", guard(s.exportHandler(om)))
	mux.HandleFunc("GET /sessions/{id}/history", guard(s.historyHandler(om)))
	mux.HandleFunc("POST /sessions/{id}/reset", guard(s.resetHandler(om)))

	mux.HandleFunc("GET /locations", rateLimitHandler(s.authMiddleware(s.locationsHandler(om))))

	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		// Check for API key in X-API-Key header
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			// Check for Bearer token in Authorization header as fallback
			authHeader := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
				apiKey = after
			}
		}

		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
