package ai

import (
	"strings"
	"testing"

	"resumeflow/internal/types"
)

func TestEnhancementInstructionPerKind(t *testing.T) {
	kinds := []types.EnhancementKind{
		types.EnhanceGrammar,
		types.EnhanceKeywords,
		types.EnhanceGeneral,
		types.EnhanceSummary,
		types.EnhanceBulletPoints,
	}

	seen := make(map[string]types.EnhancementKind)
	for _, kind := range kinds {
		instr := EnhancementInstruction(kind)
		if instr == "" {
			t.Errorf("Expected instruction for kind %q, got empty string", kind)
			continue
		}
		if prev, dup := seen[instr]; dup {
			t.Errorf("Kinds %q and %q share the same instruction", prev, kind)
		}
		seen[instr] = kind
	}
}

func TestEnhancementInstructionUnknownKindFallsBack(t *testing.T) {
	got := EnhancementInstruction(types.EnhancementKind("made-up"))
	if got != enhancementInstructions[types.EnhanceGeneral] {
		t.Errorf("Expected general instruction fallback, got %q", got)
	}
}

func TestResolvePromptPriority(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		config   string
		fallback string
		want     string
	}{
		{"file wins", "from-file", "from-config", "default", "from-file"},
		{"config wins without file", "", "from-config", "default", "from-config"},
		{"default when nothing set", "", "", "default", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolvePrompt(tt.file, tt.config, tt.fallback); got != tt.want {
				t.Errorf("resolvePrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultUserPromptsHavePlaceholders(t *testing.T) {
	if strings.Count(DefaultUserPrompts.ScoreResume, "%s") != 2 {
		t.Error("Score user prompt should have placeholders for resume and job description")
	}
	if strings.Count(DefaultUserPrompts.EnhanceText, "%s") != 3 {
		t.Error("Enhance user prompt should have placeholders for instruction, text, and job description")
	}
	if strings.Count(DefaultUserPrompts.ChatAssist, "%s") != 2 {
		t.Error("Chat user prompt should have placeholders for context and question")
	}
}
