package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	// AI Configuration - Score operation defaults
	v.SetDefault("ai.score.provider", "gemini")
	v.SetDefault("ai.score.model", "")
	v.SetDefault("ai.score.timeout", 90*time.Second) // Structured report generation is the slowest call
	v.SetDefault("ai.score.apiKey", "")
	v.SetDefault("ai.score.maxRetries", 2)
	v.SetDefault("ai.score.temperature", 0.1) // Near-deterministic so scores are comparable run to run
	v.SetDefault("ai.score.useSystemPrompts", true)

	// AI Configuration - Enhance operation defaults
	v.SetDefault("ai.enhance.provider", "gemini")
	v.SetDefault("ai.enhance.model", "")
	v.SetDefault("ai.enhance.timeout", 60*time.Second)
	v.SetDefault("ai.enhance.apiKey", "")
	v.SetDefault("ai.enhance.maxRetries", 2)
	v.SetDefault("ai.enhance.temperature", 0.4) // Some creative latitude for rewriting
	v.SetDefault("ai.enhance.useSystemPrompts", true)

	// AI Configuration - Chat operation defaults
	v.SetDefault("ai.chat.provider", "gemini")
	v.SetDefault("ai.chat.model", "")
	v.SetDefault("ai.chat.timeout", 45*time.Second)
	v.SetDefault("ai.chat.apiKey", "")
	v.SetDefault("ai.chat.maxRetries", 1) // Chat degrades gracefully, don't stack retries
	v.SetDefault("ai.chat.temperature", 0.7)
	v.SetDefault("ai.chat.useSystemPrompts", true)

	// Circuit Breaker Configuration defaults for all operations
	v.SetDefault("ai.score.circuitBreaker.enabled", true)
	v.SetDefault("ai.score.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.score.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.score.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.score.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.score.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("ai.enhance.circuitBreaker.enabled", true)
	v.SetDefault("ai.enhance.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.enhance.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.enhance.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.enhance.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.enhance.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("ai.chat.circuitBreaker.enabled", true)
	v.SetDefault("ai.chat.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.chat.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.chat.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.chat.circuitBreaker.minRequests", 5) // Chat is tolerant to failure, trip later
	v.SetDefault("ai.chat.circuitBreaker.failureThreshold", 0.8)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	// TLS Configuration defaults
	v.SetDefault("server.tls.mode", "disabled") // disabled, server, mutual
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require") // require, request, verify
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024) // 10MB upload ceiling, matches parser-side limit

	// Collaborator Configuration
	v.SetDefault("collab.parserURL", "http://localhost:8000")
	v.SetDefault("collab.generatorURL", "http://localhost:8000")
	v.SetDefault("collab.timeout", 30*time.Second)

	// Geocoder Configuration
	v.SetDefault("geo.baseURL", "https://nominatim.openstreetmap.org")
	v.SetDefault("geo.resultLimit", 5)
	v.SetDefault("geo.timeout", 10*time.Second)
	v.SetDefault("geo.debounceDelay", 300*time.Millisecond)

	// Workflow Configuration
	v.SetDefault("workflow.sessionTTL", time.Hour)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumeflow")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	// Tracing Configuration
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)

	// Metrics Configuration
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Console Configuration
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})

	// Health Check Configuration
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
