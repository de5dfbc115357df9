package types

// EnhancementKind identifies the style of AI rewrite applied to resume text
type EnhancementKind string

const (
	EnhanceGrammar      EnhancementKind = "grammar"
	EnhanceKeywords     EnhancementKind = "keywords"
	EnhanceGeneral      EnhancementKind = "general"
	EnhanceSummary      EnhancementKind = "summary"
	EnhanceBulletPoints EnhancementKind = "bullet_points"
)

// Valid reports whether k is one of the supported enhancement kinds
func (k EnhancementKind) Valid() bool {
	switch k {
	case EnhanceGrammar, EnhanceKeywords, EnhanceGeneral, EnhanceSummary, EnhanceBulletPoints:
		return true
	}
	return false
}

// JobContext holds the targeting metadata captured at the job-targeting stage
type JobContext struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

// SkillSet groups skills by category; at least one category must be non-empty
// for a manual entry to validate
type SkillSet struct {
	Technical []string `json:"technical"`
	Tools     []string `json:"tools"`
	Soft      []string `json:"soft"`
}

// Empty reports whether no category contains any skill
func (s SkillSet) Empty() bool {
	return len(s.Technical) == 0 && len(s.Tools) == 0 && len(s.Soft) == 0
}

// DateState is the mutually-exclusive end-date state shared by education and
// experience entries: exactly one of an explicit end date, currently ongoing,
// or expected-on-date holds at a time
type DateState struct {
	EndDate    string `json:"endDate"`
	IsCurrent  bool   `json:"isCurrent"`
	IsExpected bool   `json:"isExpected"`
}

// SetEndDate records an explicit end date and clears the ongoing/expected flags
func (d *DateState) SetEndDate(date string) {
	d.EndDate = date
	d.IsCurrent = false
	d.IsExpected = false
}

// SetCurrent marks the entry as currently ongoing, clearing the other states
func (d *DateState) SetCurrent() {
	d.IsCurrent = true
	d.IsExpected = false
	d.EndDate = ""
}

// SetExpected marks the entry as expected to complete on the given date,
// clearing the other states
func (d *DateState) SetExpected(date string) {
	d.IsExpected = true
	d.IsCurrent = false
	d.EndDate = date
}

// EducationEntry is one education block of a structured resume
type EducationEntry struct {
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty"`
	Major        string `json:"major,omitempty"`
	Location     string `json:"location,omitempty"`
	StartDate    string `json:"startDate"`
	DateState

	// Score line is rendered only when ShowScore is set
	Score     string `json:"score,omitempty"`
	ShowScore bool   `json:"showScore,omitempty"`

	Coursework string `json:"coursework,omitempty"`
	Honors     string `json:"honors,omitempty"`
	Thesis     string `json:"thesis,omitempty"`
}

// ExperienceEntry is one work-experience block of a structured resume
type ExperienceEntry struct {
	Company   string `json:"company"`
	Role      string `json:"role"`
	Location  string `json:"location,omitempty"`
	StartDate string `json:"startDate"`
	DateState

	Details string `json:"details"`
}

// ProjectEntry is one project block of a structured resume
type ProjectEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

// StructuredResume is the normalized multi-section form produced by manual
// entry. Upload-path records carry no structured data because the parser
// collaborator returns flat text only.
type StructuredResume struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	CountryCode string `json:"countryCode,omitempty"`
	Phone       string `json:"phone" validate:"required"`
	Location    string `json:"location" validate:"required"`
	LinkedIn    string `json:"linkedin,omitempty"`
	GitHub      string `json:"github,omitempty"`
	Portfolio   string `json:"portfolio,omitempty"`

	TargetRole     string `json:"targetRole,omitempty"`
	JobDescription string `json:"jobDescription,omitempty"`
	Summary        string `json:"summary" validate:"required"`

	Skills     SkillSet          `json:"skills"`
	Education  []EducationEntry  `json:"education"`
	Experience []ExperienceEntry `json:"experience"`
	Projects   []ProjectEntry    `json:"projects,omitempty"`
}

// ContactCheck reports whether contact details were detected in the text
type ContactCheck struct {
	Email         bool   `json:"email"`
	EmailFeedback string `json:"emailFeedback,omitempty"`
	Phone         bool   `json:"phone"`
	PhoneFeedback string `json:"phoneFeedback,omitempty"`
}

// ComplianceReport holds the mechanical ATS compliance checks of a score
type ComplianceReport struct {
	ParsingValid         bool         `json:"parsingValid"`
	ContactInfo          ContactCheck `json:"contactInfo"`
	BulletPointsDetected bool         `json:"bulletPointsDetected"`
	EstimatedPages       int          `json:"estimatedPages"`
	AppropriateLength    bool         `json:"appropriateLength"`
	DateFormatConsistent bool         `json:"dateFormatConsistent"`
	DominantDateFormat   string       `json:"dominantDateFormat,omitempty"`
	TablesDetected       bool         `json:"tablesDetected"`
	SpecialCharsDetected bool         `json:"specialCharsDetected"`
	FileSizeMB           float64      `json:"fileSizeMB,omitempty"`
	FileSizeValid        bool         `json:"fileSizeValid"`
}

// KeywordReport holds the keyword and semantic-match analysis of a score
type KeywordReport struct {
	HardSkills         []string `json:"hardSkills"`
	SoftSkills         []string `json:"softSkills"`
	CriticalMissing    []string `json:"criticalMissing"`
	RecommendedMissing []string `json:"recommendedMissing"`
	StuffingDetected   []string `json:"stuffingDetected,omitempty"`
	AcronymWarnings    []string `json:"acronymWarnings,omitempty"`
}

// ContentAnalysis holds the deep content insight portion of a score
type ContentAnalysis struct {
	ReverseChronological string              `json:"reverseChronological,omitempty"`
	ActionVerbs          string              `json:"actionVerbs,omitempty"`
	SpellingErrors       []string            `json:"spellingErrors,omitempty"`
	SkillProficiency     map[string][]string `json:"skillProficiency,omitempty"`
	EducationFeedback    []string            `json:"educationFeedback,omitempty"`
}

// ScoreReport is the complete result of a single scoring call. The canonical
// record replaces its report wholesale so sub-fields can never mix results
// from different calls.
type ScoreReport struct {
	Score           int               `json:"score"`
	Summary         string            `json:"summary,omitempty"`
	Feedback        []string          `json:"feedback"`
	SectionScores   map[string]int    `json:"sectionScores,omitempty"`
	Compliance      *ComplianceReport `json:"compliance,omitempty"`
	Keywords        *KeywordReport    `json:"keywords,omitempty"`
	ContentAnalysis *ContentAnalysis  `json:"contentAnalysis,omitempty"`
}

// CanonicalResumeRecord is the single source of truth for one in-progress
// resume. Text is never empty once the record leaves intake; OriginalText
// preserves the intake-time content for comparison and backward resets.
type CanonicalResumeRecord struct {
	Text         string            `json:"text"`
	OriginalText string            `json:"originalText"`
	Structured   *StructuredResume `json:"structuredData,omitempty"`
	Report       *ScoreReport      `json:"report,omitempty"`
	Job          *JobContext       `json:"jobContext,omitempty"`
	Metadata     map[string]any    `json:"metadata,omitempty"`
}

// ScoreHistoryEntry is one row of the append-only score ledger
type ScoreHistoryEntry struct {
	Score     int    `json:"score"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
}

// Chat message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the append-only chat ledger
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ScoreInput is the request shape of the scoring collaborator
type ScoreInput struct {
	ResumeText     string         `json:"resumeText"`
	JobDescription string         `json:"jobDescription"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// EnhanceInput is the request shape of the enhancement collaborator
type EnhanceInput struct {
	Text           string          `json:"text"`
	Kind           EnhancementKind `json:"kind"`
	JobDescription string          `json:"jobDescription"`
}

// ChatInput is the request shape of the chat collaborator
type ChatInput struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

// ParseOutput is what the external document parser returns for an upload
type ParseOutput struct {
	Filename string         `json:"filename"`
	Text     string         `json:"text"`
	Email    string         `json:"email,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Export formats accepted by the generation collaborator
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
)

var (
	// ExportFormats lists the document formats the generator accepts
	ExportFormats = []string{FormatPDF, FormatDOCX}
	// ExportTemplates lists the layout templates the generator accepts
	ExportTemplates = []string{"classic", "modern", "minimal"}
)

// GenerateInput is the request shape of the document-generation collaborator
type GenerateInput struct {
	Data     StructuredResume `json:"data"`
	Format   string           `json:"format"`
	Template string           `json:"template"`
}

// GenerateOutput locates the rendered artifact
type GenerateOutput struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Place is one geocoder result used for location autocomplete
type Place struct {
	DisplayName string    `json:"displayName"`
	BoundingBox [4]string `json:"boundingBox"`
	Lat         string    `json:"lat"`
	Lon         string    `json:"lon"`
}
