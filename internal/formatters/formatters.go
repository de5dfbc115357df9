// Package formatters renders workflow results for terminal and file output.
package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumeflow/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ScoreReport", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreReport", &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", "ScoreHistory", &HistoryTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreHistory", &HistoryMarkdownFormatter{})
	registry.RegisterFormatter("text", "EnhancedText", &EnhancedTextFormatter{})
	registry.RegisterFormatter("markdown", "EnhancedText", &EnhancedMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScoreReport, *types.ScoreReport:
		return "ScoreReport"
	case []types.ScoreHistoryEntry:
		return "ScoreHistory"
	case EnhancedText, *EnhancedText:
		return "EnhancedText"
	default:
		return "any"
	}
}

func asScoreReport(data any) (*types.ScoreReport, error) {
	switch v := data.(type) {
	case types.ScoreReport:
		return &v, nil
	case *types.ScoreReport:
		return v, nil
	default:
		return nil, fmt.Errorf("expected ScoreReport, got %T", data)
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ScoreTextFormatter handles text formatting for score reports
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	report, err := asScoreReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== ATS SCORE ===\n\n")
	output.WriteString(fmt.Sprintf("Score: %d/100\n", report.Score))
	if report.Summary != "" {
		output.WriteString("\n")
		output.WriteString(report.Summary)
		output.WriteString("\n")
	}

	if len(report.SectionScores) > 0 {
		output.WriteString("\n=== SECTION SCORES ===\n")
		for _, section := range sectionOrder {
			if score, ok := report.SectionScores[section]; ok {
				output.WriteString(fmt.Sprintf("%-12s %d/100\n", section, score))
			}
		}
	}

	if len(report.Feedback) > 0 {
		output.WriteString("\n=== FEEDBACK ===\n")
		for i, item := range report.Feedback {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, item))
		}
	}

	if report.Keywords != nil {
		kw := report.Keywords
		output.WriteString("\n=== KEYWORDS ===\n")
		writeTermList(&output, "Hard skills matched", kw.HardSkills)
		writeTermList(&output, "Soft skills matched", kw.SoftSkills)
		writeTermList(&output, "Critical missing", kw.CriticalMissing)
		writeTermList(&output, "Recommended missing", kw.RecommendedMissing)
		writeTermList(&output, "Possible keyword stuffing", kw.StuffingDetected)
		writeTermList(&output, "Acronym warnings", kw.AcronymWarnings)
	}

	if report.Compliance != nil {
		c := report.Compliance
		output.WriteString("\n=== COMPLIANCE ===\n")
		output.WriteString(fmt.Sprintf("Parsing valid:         %s\n", yesNo(c.ParsingValid)))
		output.WriteString(fmt.Sprintf("Email found:           %s\n", yesNo(c.ContactInfo.Email)))
		output.WriteString(fmt.Sprintf("Phone found:           %s\n", yesNo(c.ContactInfo.Phone)))
		output.WriteString(fmt.Sprintf("Bullet points:         %s\n", yesNo(c.BulletPointsDetected)))
		output.WriteString(fmt.Sprintf("Estimated pages:       %d\n", c.EstimatedPages))
		output.WriteString(fmt.Sprintf("Appropriate length:    %s\n", yesNo(c.AppropriateLength)))
		output.WriteString(fmt.Sprintf("Date format consistent: %s\n", yesNo(c.DateFormatConsistent)))
		if c.TablesDetected {
			output.WriteString("Warning: tables detected, many ATS parsers cannot read them\n")
		}
		if c.SpecialCharsDetected {
			output.WriteString("Warning: special characters detected\n")
		}
	}

	if report.ContentAnalysis != nil {
		ca := report.ContentAnalysis
		output.WriteString("\n=== CONTENT ANALYSIS ===\n")
		if ca.ReverseChronological != "" {
			output.WriteString("Ordering: " + ca.ReverseChronological + "\n")
		}
		if ca.ActionVerbs != "" {
			output.WriteString("Action verbs: " + ca.ActionVerbs + "\n")
		}
		writeTermList(&output, "Spelling errors", ca.SpellingErrors)
		writeTermList(&output, "Education feedback", ca.EducationFeedback)
	}

	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ScoreReport"
}

// ScoreMarkdownFormatter handles markdown formatting for score reports
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	report, err := asScoreReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# ATS Score\n\n")
	output.WriteString(fmt.Sprintf("**Score:** %d/100\n\n", report.Score))
	if report.Summary != "" {
		output.WriteString(report.Summary)
		output.WriteString("\n\n")
	}

	if len(report.SectionScores) > 0 {
		output.WriteString("## Section Scores\n\n")
		output.WriteString("| Section | Score |\n|---|---|\n")
		for _, section := range sectionOrder {
			if score, ok := report.SectionScores[section]; ok {
				output.WriteString(fmt.Sprintf("| %s | %d/100 |\n", section, score))
			}
		}
		output.WriteString("\n")
	}

	if len(report.Feedback) > 0 {
		output.WriteString("## Feedback\n\n")
		for i, item := range report.Feedback {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, item))
		}
		output.WriteString("\n")
	}

	if report.Keywords != nil {
		kw := report.Keywords
		output.WriteString("## Keywords\n\n")
		writeMarkdownTermList(&output, "Hard skills matched", kw.HardSkills)
		writeMarkdownTermList(&output, "Soft skills matched", kw.SoftSkills)
		writeMarkdownTermList(&output, "Critical missing", kw.CriticalMissing)
		writeMarkdownTermList(&output, "Recommended missing", kw.RecommendedMissing)
		writeMarkdownTermList(&output, "Possible keyword stuffing", kw.StuffingDetected)
		writeMarkdownTermList(&output, "Acronym warnings", kw.AcronymWarnings)
	}

	if report.Compliance != nil {
		c := report.Compliance
		output.WriteString("## Compliance\n\n")
		output.WriteString(fmt.Sprintf("- Parsing valid: %s\n", yesNo(c.ParsingValid)))
		output.WriteString(fmt.Sprintf("- Email found: %s\n", yesNo(c.ContactInfo.Email)))
		output.WriteString(fmt.Sprintf("- Phone found: %s\n", yesNo(c.ContactInfo.Phone)))
		output.WriteString(fmt.Sprintf("- Bullet points: %s\n", yesNo(c.BulletPointsDetected)))
		output.WriteString(fmt.Sprintf("- Estimated pages: %d\n", c.EstimatedPages))
		output.WriteString(fmt.Sprintf("- Appropriate length: %s\n", yesNo(c.AppropriateLength)))
		output.WriteString(fmt.Sprintf("- Date format consistent: %s\n", yesNo(c.DateFormatConsistent)))
		if c.TablesDetected {
			output.WriteString("- **Warning:** tables detected, many ATS parsers cannot read them\n")
		}
		if c.SpecialCharsDetected {
			output.WriteString("- **Warning:** special characters detected\n")
		}
		output.WriteString("\n")
	}

	if report.ContentAnalysis != nil {
		ca := report.ContentAnalysis
		output.WriteString("## Content Analysis\n\n")
		if ca.ReverseChronological != "" {
			output.WriteString("**Ordering:** " + ca.ReverseChronological + "\n\n")
		}
		if ca.ActionVerbs != "" {
			output.WriteString("**Action verbs:** " + ca.ActionVerbs + "\n\n")
		}
		writeMarkdownTermList(&output, "Spelling errors", ca.SpellingErrors)
		writeMarkdownTermList(&output, "Education feedback", ca.EducationFeedback)
	}

	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ScoreReport"
}

// HistoryTextFormatter handles text formatting for the score ledger
type HistoryTextFormatter struct{}

func (htf *HistoryTextFormatter) Format(data any) (string, error) {
	history, ok := data.([]types.ScoreHistoryEntry)
	if !ok {
		return "", fmt.Errorf("expected score history, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== SCORE HISTORY ===\n\n")
	if len(history) == 0 {
		output.WriteString("No scores recorded yet.\n")
		return output.String(), nil
	}

	for i, entry := range history {
		output.WriteString(fmt.Sprintf("%d. %d/100  %s  (%s)\n", i+1, entry.Score, entry.Action, entry.Timestamp))
	}

	first, last := history[0].Score, history[len(history)-1].Score
	output.WriteString(fmt.Sprintf("\nNet change: %+d\n", last-first))

	return output.String(), nil
}

func (htf *HistoryTextFormatter) SupportedType() string {
	return "ScoreHistory"
}

// HistoryMarkdownFormatter handles markdown formatting for the score ledger
type HistoryMarkdownFormatter struct{}

func (hmf *HistoryMarkdownFormatter) Format(data any) (string, error) {
	history, ok := data.([]types.ScoreHistoryEntry)
	if !ok {
		return "", fmt.Errorf("expected score history, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Score History\n\n")
	if len(history) == 0 {
		output.WriteString("No scores recorded yet.\n")
		return output.String(), nil
	}

	output.WriteString("| # | Score | Action | Timestamp |\n|---|---|---|---|\n")
	for i, entry := range history {
		output.WriteString(fmt.Sprintf("| %d | %d/100 | %s | %s |\n", i+1, entry.Score, entry.Action, entry.Timestamp))
	}

	first, last := history[0].Score, history[len(history)-1].Score
	output.WriteString(fmt.Sprintf("\n**Net change:** %+d\n", last-first))

	return output.String(), nil
}

func (hmf *HistoryMarkdownFormatter) SupportedType() string {
	return "ScoreHistory"
}

// EnhancedText is the payload of a single enhancement pass
type EnhancedText struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func asEnhancedText(data any) (EnhancedText, error) {
	switch v := data.(type) {
	case EnhancedText:
		return v, nil
	case *EnhancedText:
		return *v, nil
	default:
		return EnhancedText{}, fmt.Errorf("expected EnhancedText, got %T", data)
	}
}

// EnhancedTextFormatter writes the enhanced resume text as-is
type EnhancedTextFormatter struct{}

func (etf *EnhancedTextFormatter) Format(data any) (string, error) {
	et, err := asEnhancedText(data)
	if err != nil {
		return "", err
	}
	return et.Text, nil
}

func (etf *EnhancedTextFormatter) SupportedType() string {
	return "EnhancedText"
}

// EnhancedMarkdownFormatter wraps the enhanced text with a heading
type EnhancedMarkdownFormatter struct{}

func (emf *EnhancedMarkdownFormatter) Format(data any) (string, error) {
	et, err := asEnhancedText(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("# Enhanced Resume (%s)\n\n", et.Kind))
	output.WriteString(et.Text)
	if !strings.HasSuffix(et.Text, "\n") {
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (emf *EnhancedMarkdownFormatter) SupportedType() string {
	return "EnhancedText"
}

// sectionOrder keeps section score output stable across runs
var sectionOrder = []string{"summary", "skills", "experience", "education", "projects"}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func writeTermList(output *strings.Builder, label string, terms []string) {
	if len(terms) == 0 {
		return
	}
	output.WriteString(label + ":\n")
	for _, term := range terms {
		output.WriteString(fmt.Sprintf("- %s\n", term))
	}
}

func writeMarkdownTermList(output *strings.Builder, label string, terms []string) {
	if len(terms) == 0 {
		return
	}
	output.WriteString("**" + label + ":**\n\n")
	for _, term := range terms {
		output.WriteString(fmt.Sprintf("- %s\n", term))
	}
	output.WriteString("\n")
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
