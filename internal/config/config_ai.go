package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetScoreConfig returns the AI configuration for scoring operations with fallback to global config
func (c *Config) GetScoreConfig() OperationAIConfig {
	config := c.AI.Score

	c.applyOperationDefaults(&config)

	// Apply score-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.ScoreResume == "" {
		config.CustomPrompts.SystemPrompts.ScoreResume = c.AI.CustomPrompts.SystemPrompts.ScoreResume
	}
	if config.CustomPrompts.UserPrompts.ScoreResume == "" {
		config.CustomPrompts.UserPrompts.ScoreResume = c.AI.CustomPrompts.UserPrompts.ScoreResume
	}
	// Also copy file paths for potential later loading
	if config.CustomPrompts.SystemPrompts.ScoreResumeFile == "" {
		config.CustomPrompts.SystemPrompts.ScoreResumeFile = c.AI.CustomPrompts.SystemPrompts.ScoreResumeFile
	}
	if config.CustomPrompts.UserPrompts.ScoreResumeFile == "" {
		config.CustomPrompts.UserPrompts.ScoreResumeFile = c.AI.CustomPrompts.UserPrompts.ScoreResumeFile
	}

	return config
}

// GetEnhanceConfig returns the AI configuration for enhancement operations with fallback to global config
func (c *Config) GetEnhanceConfig() OperationAIConfig {
	config := c.AI.Enhance

	c.applyOperationDefaults(&config)

	// Apply enhance-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.EnhanceText == "" {
		config.CustomPrompts.SystemPrompts.EnhanceText = c.AI.CustomPrompts.SystemPrompts.EnhanceText
	}
	if config.CustomPrompts.UserPrompts.EnhanceText == "" {
		config.CustomPrompts.UserPrompts.EnhanceText = c.AI.CustomPrompts.UserPrompts.EnhanceText
	}
	if config.CustomPrompts.SystemPrompts.EnhanceTextFile == "" {
		config.CustomPrompts.SystemPrompts.EnhanceTextFile = c.AI.CustomPrompts.SystemPrompts.EnhanceTextFile
	}
	if config.CustomPrompts.UserPrompts.EnhanceTextFile == "" {
		config.CustomPrompts.UserPrompts.EnhanceTextFile = c.AI.CustomPrompts.UserPrompts.EnhanceTextFile
	}

	return config
}

// GetChatConfig returns the AI configuration for chat operations with fallback to global config
func (c *Config) GetChatConfig() OperationAIConfig {
	config := c.AI.Chat

	c.applyOperationDefaults(&config)

	// Apply chat-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.ChatAssist == "" {
		config.CustomPrompts.SystemPrompts.ChatAssist = c.AI.CustomPrompts.SystemPrompts.ChatAssist
	}
	if config.CustomPrompts.UserPrompts.ChatAssist == "" {
		config.CustomPrompts.UserPrompts.ChatAssist = c.AI.CustomPrompts.UserPrompts.ChatAssist
	}
	if config.CustomPrompts.SystemPrompts.ChatAssistFile == "" {
		config.CustomPrompts.SystemPrompts.ChatAssistFile = c.AI.CustomPrompts.SystemPrompts.ChatAssistFile
	}
	if config.CustomPrompts.UserPrompts.ChatAssistFile == "" {
		config.CustomPrompts.UserPrompts.ChatAssistFile = c.AI.CustomPrompts.UserPrompts.ChatAssistFile
	}

	return config
}
