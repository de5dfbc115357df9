package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// GetLoadedPrompts returns a snapshot of the loaded prompt content
func GetLoadedPrompts() AllLoadedPrompts {
	loadedPromptsMu.RLock()
	defer loadedPromptsMu.RUnlock()
	return loadedPrompts
}

// loadPromptsFromFiles loads custom prompts from external files if file paths
// are specified. The result is swapped in atomically so concurrent readers
// never observe a half-loaded set.
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	var fresh AllLoadedPrompts

	// Load global prompts
	if err := c.loadSystemPromptsFromFiles(&c.AI.CustomPrompts.SystemPrompts, &fresh.Global.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load global system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.CustomPrompts.UserPrompts, &fresh.Global.UserPrompts); err != nil {
		return fmt.Errorf("failed to load global user prompts: %w", err)
	}

	// Load operation-specific prompts
	if err := c.loadSystemPromptsFromFiles(&c.AI.Score.CustomPrompts.SystemPrompts, &fresh.Score.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load score system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Score.CustomPrompts.UserPrompts, &fresh.Score.UserPrompts); err != nil {
		return fmt.Errorf("failed to load score user prompts: %w", err)
	}

	if err := c.loadSystemPromptsFromFiles(&c.AI.Enhance.CustomPrompts.SystemPrompts, &fresh.Enhance.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load enhance system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Enhance.CustomPrompts.UserPrompts, &fresh.Enhance.UserPrompts); err != nil {
		return fmt.Errorf("failed to load enhance user prompts: %w", err)
	}

	if err := c.loadSystemPromptsFromFiles(&c.AI.Chat.CustomPrompts.SystemPrompts, &fresh.Chat.SystemPrompts); err != nil {
		return fmt.Errorf("failed to load chat system prompts: %w", err)
	}
	if err := c.loadUserPromptsFromFiles(&c.AI.Chat.CustomPrompts.UserPrompts, &fresh.Chat.UserPrompts); err != nil {
		return fmt.Errorf("failed to load chat user prompts: %w", err)
	}

	loadedPromptsMu.Lock()
	loadedPrompts = fresh
	loadedPromptsMu.Unlock()

	c.logPromptLoadingSummary(&fresh)

	return nil
}

// ReloadPrompts re-reads all configured prompt files. Used by the prompt file
// watcher when a file on disk changes.
func (c *Config) ReloadPrompts() error {
	if err := c.validatePromptFiles(); err != nil {
		return err
	}
	return c.loadPromptsFromFiles()
}

// PromptFilePaths returns every prompt file path configured anywhere in the
// AI configuration. The prompt watcher uses this to know what to watch.
func (c *Config) PromptFilePaths() []string {
	candidates := []string{
		c.AI.CustomPrompts.SystemPrompts.ScoreResumeFile,
		c.AI.CustomPrompts.SystemPrompts.EnhanceTextFile,
		c.AI.CustomPrompts.SystemPrompts.ChatAssistFile,
		c.AI.CustomPrompts.UserPrompts.ScoreResumeFile,
		c.AI.CustomPrompts.UserPrompts.EnhanceTextFile,
		c.AI.CustomPrompts.UserPrompts.ChatAssistFile,
		c.AI.Score.CustomPrompts.SystemPrompts.ScoreResumeFile,
		c.AI.Score.CustomPrompts.UserPrompts.ScoreResumeFile,
		c.AI.Enhance.CustomPrompts.SystemPrompts.EnhanceTextFile,
		c.AI.Enhance.CustomPrompts.UserPrompts.EnhanceTextFile,
		c.AI.Chat.CustomPrompts.SystemPrompts.ChatAssistFile,
		c.AI.Chat.CustomPrompts.UserPrompts.ChatAssistFile,
	}

	var paths []string
	seen := make(map[string]bool)
	for _, p := range candidates {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

// loadSystemPromptsFromFiles loads system prompts from files if file paths are specified
func (c *Config) loadSystemPromptsFromFiles(prompts *SystemPrompts, target *LoadedSystemPrompts) error {
	if prompts.ScoreResumeFile != "" {
		content, err := c.loadPromptFromFile(prompts.ScoreResumeFile, "system", "scoreResume")
		if err != nil {
			return err
		}
		target.ScoreResume = content
	}

	if prompts.EnhanceTextFile != "" {
		content, err := c.loadPromptFromFile(prompts.EnhanceTextFile, "system", "enhanceText")
		if err != nil {
			return err
		}
		target.EnhanceText = content
	}

	if prompts.ChatAssistFile != "" {
		content, err := c.loadPromptFromFile(prompts.ChatAssistFile, "system", "chatAssist")
		if err != nil {
			return err
		}
		target.ChatAssist = content
	}

	return nil
}

// loadUserPromptsFromFiles loads user prompts from files if file paths are specified
func (c *Config) loadUserPromptsFromFiles(prompts *UserPrompts, target *LoadedUserPrompts) error {
	if prompts.ScoreResumeFile != "" {
		content, err := c.loadPromptFromFile(prompts.ScoreResumeFile, "user", "scoreResume")
		if err != nil {
			return err
		}
		target.ScoreResume = content
	}

	if prompts.EnhanceTextFile != "" {
		content, err := c.loadPromptFromFile(prompts.EnhanceTextFile, "user", "enhanceText")
		if err != nil {
			return err
		}
		target.EnhanceText = content
	}

	if prompts.ChatAssistFile != "" {
		content, err := c.loadPromptFromFile(prompts.ChatAssistFile, "user", "chatAssist")
		if err != nil {
			return err
		}
		target.ChatAssist = content
	}

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func (c *Config) loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return // No file specified, skip validation
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	// Validate global prompt files
	validateFile(c.AI.CustomPrompts.SystemPrompts.ScoreResumeFile, "system", "scoreResume")
	validateFile(c.AI.CustomPrompts.SystemPrompts.EnhanceTextFile, "system", "enhanceText")
	validateFile(c.AI.CustomPrompts.SystemPrompts.ChatAssistFile, "system", "chatAssist")
	validateFile(c.AI.CustomPrompts.UserPrompts.ScoreResumeFile, "user", "scoreResume")
	validateFile(c.AI.CustomPrompts.UserPrompts.EnhanceTextFile, "user", "enhanceText")
	validateFile(c.AI.CustomPrompts.UserPrompts.ChatAssistFile, "user", "chatAssist")

	// Validate operation-specific prompt files
	validateFile(c.AI.Score.CustomPrompts.SystemPrompts.ScoreResumeFile, "score system", "scoreResume")
	validateFile(c.AI.Score.CustomPrompts.UserPrompts.ScoreResumeFile, "score user", "scoreResume")
	validateFile(c.AI.Enhance.CustomPrompts.SystemPrompts.EnhanceTextFile, "enhance system", "enhanceText")
	validateFile(c.AI.Enhance.CustomPrompts.UserPrompts.EnhanceTextFile, "enhance user", "enhanceText")
	validateFile(c.AI.Chat.CustomPrompts.SystemPrompts.ChatAssistFile, "chat system", "chatAssist")
	validateFile(c.AI.Chat.CustomPrompts.UserPrompts.ChatAssistFile, "chat user", "chatAssist")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary(all *AllLoadedPrompts) {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	promptChecks := []struct {
		content string
		message string
	}{
		{all.Global.SystemPrompts.ScoreResume, "[CONFIG] Global system score prompt: loaded from config/file"},
		{all.Global.SystemPrompts.EnhanceText, "[CONFIG] Global system enhance prompt: loaded from config/file"},
		{all.Global.SystemPrompts.ChatAssist, "[CONFIG] Global system chat prompt: loaded from config/file"},
		{all.Global.UserPrompts.ScoreResume, "[CONFIG] Global user score prompt: loaded from config/file"},
		{all.Global.UserPrompts.EnhanceText, "[CONFIG] Global user enhance prompt: loaded from config/file"},
		{all.Global.UserPrompts.ChatAssist, "[CONFIG] Global user chat prompt: loaded from config/file"},
		{all.Score.SystemPrompts.ScoreResume, "[CONFIG] Score-specific system prompt: loaded from config/file"},
		{all.Score.UserPrompts.ScoreResume, "[CONFIG] Score-specific user prompt: loaded from config/file"},
		{all.Enhance.SystemPrompts.EnhanceText, "[CONFIG] Enhance-specific system prompt: loaded from config/file"},
		{all.Enhance.UserPrompts.EnhanceText, "[CONFIG] Enhance-specific user prompt: loaded from config/file"},
		{all.Chat.SystemPrompts.ChatAssist, "[CONFIG] Chat-specific system prompt: loaded from config/file"},
		{all.Chat.UserPrompts.ChatAssist, "[CONFIG] Chat-specific user prompt: loaded from config/file"},
	}

	promptCount := 0
	for _, check := range promptChecks {
		if check.content != "" {
			log.Println(check.message)
			promptCount++
		}
	}

	if promptCount == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", promptCount)
	}

	log.Println("[CONFIG] ==========================================")
}
