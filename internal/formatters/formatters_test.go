package formatters

import (
	"strings"
	"testing"

	"resumeflow/internal/types"
)

func sampleReport() *types.ScoreReport {
	return &types.ScoreReport{
		Score:    74,
		Summary:  "Solid resume with keyword gaps.",
		Feedback: []string{"Add cloud platform keywords", "Quantify achievements"},
		SectionScores: map[string]int{
			"summary":    80,
			"skills":     60,
			"experience": 78,
		},
		Keywords: &types.KeywordReport{
			HardSkills:      []string{"Go", "PostgreSQL"},
			CriticalMissing: []string{"Kubernetes"},
		},
		Compliance: &types.ComplianceReport{
			ParsingValid:   true,
			ContactInfo:    types.ContactCheck{Email: true, Phone: false},
			EstimatedPages: 2,
			TablesDetected: true,
		},
	}
}

func TestScoreTextFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleReport(), "text")
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}

	for _, want := range []string{
		"Score: 74/100",
		"Add cloud platform keywords",
		"Kubernetes",
		"tables detected",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Text output missing %q", want)
		}
	}
}

func TestScoreMarkdownFormatter(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(sampleReport(), "markdown")
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}

	if !strings.Contains(output, "# ATS Score") {
		t.Error("Markdown output missing title")
	}
	if !strings.Contains(output, "| skills | 60/100 |") {
		t.Error("Markdown output missing section score row")
	}
}

func TestJSONFallbackForUnknownType(t *testing.T) {
	registry := NewFormatterRegistry()

	output, err := registry.Format(map[string]string{"key": "value"}, "json")
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	if !strings.Contains(output, `"key": "value"`) {
		t.Errorf("Unexpected JSON output: %s", output)
	}
}

func TestHistoryFormatters(t *testing.T) {
	history := []types.ScoreHistoryEntry{
		{Score: 60, Timestamp: "2025-05-01T10:00:00Z", Action: "score"},
		{Score: 72, Timestamp: "2025-05-01T10:05:00Z", Action: "enhance:keywords"},
	}

	registry := NewFormatterRegistry()

	text, err := registry.Format(history, "text")
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	if !strings.Contains(text, "Net change: +12") {
		t.Errorf("Expected net change in text output, got:\n%s", text)
	}

	md, err := registry.Format(history, "markdown")
	if err != nil {
		t.Fatalf("Format() error: %v", err)
	}
	if !strings.Contains(md, "| 2 | 72/100 | enhance:keywords |") {
		t.Errorf("Expected ledger row in markdown output, got:\n%s", md)
	}
}

func TestEnhancedTextFormatters(t *testing.T) {
	et := EnhancedText{Kind: "keywords", Text: "Jane Doe\nGo, Kubernetes, PostgreSQL"}

	out, err := GlobalRegistry.Format(et, "text")
	if err != nil {
		t.Fatalf("text format: %v", err)
	}
	if out != et.Text {
		t.Errorf("text output = %q, want the raw enhanced text", out)
	}

	out, err = GlobalRegistry.Format(et, "markdown")
	if err != nil {
		t.Fatalf("markdown format: %v", err)
	}
	if !strings.Contains(out, "# Enhanced Resume (keywords)") {
		t.Errorf("markdown output missing heading:\n%s", out)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	registry := NewFormatterRegistry()

	if _, err := registry.Format(sampleReport(), "yaml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
