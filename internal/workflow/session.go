package workflow

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"resumeflow/internal/errors"
	"resumeflow/internal/intake"
	"resumeflow/internal/types"
)

// Stage identifies where a session sits in the optimization workflow
type Stage string

const (
	StageIntake       Stage = "intake"
	StageJobTargeting Stage = "job_targeting"
	StageScored       Stage = "scored"
	StageEnhancing    Stage = "enhancing"
	StageExported     Stage = "exported"
)

// Operation names the session operations that carry busy flags. Distinct
// operations may run concurrently; re-entry of the same operation is rejected
// while it is in flight.
type Operation string

const (
	OpScore   Operation = "score"
	OpEnhance Operation = "enhance"
	OpChat    Operation = "chat"
	OpExport  Operation = "export"
)

// ActionInitialScore labels the seed entry of every score ledger
const ActionInitialScore = "Initial Score"

// minFieldLength is the minimum character count a sub-field must have before
// per-field enhancement is attempted
const minFieldLength = 10

// Scorer evaluates resume text against a job description
type Scorer interface {
	Score(ctx context.Context, in types.ScoreInput) (*types.ScoreReport, error)
}

// Enhancer rewrites resume text according to an enhancement kind
type Enhancer interface {
	Enhance(ctx context.Context, in types.EnhanceInput) (string, error)
}

// ChatProvider answers a user message given an assembled resume context
type ChatProvider interface {
	Chat(ctx context.Context, in types.ChatInput) (string, error)
}

// Generator renders a structured resume into a downloadable document
type Generator interface {
	Generate(ctx context.Context, in types.GenerateInput) (*types.GenerateOutput, error)
}

// Collaborators bundles the external services a session depends on
type Collaborators struct {
	Scorer    Scorer
	Enhancer  Enhancer
	Chat      ChatProvider
	Generator Generator
}

// EnhanceResult is the committed outcome of one enhancement cycle
type EnhanceResult struct {
	Text   string                  `json:"text"`
	Report *types.ScoreReport      `json:"report"`
	Entry  types.ScoreHistoryEntry `json:"entry"`
}

// FieldRef addresses one enhanceable sub-field of a structured resume
type FieldRef struct {
	Section string `json:"section"` // "summary", "experience" or "projects"
	Index   int    `json:"index"`
}

// Session holds all mutable state for one resume optimization workflow. Every
// public method is safe for concurrent use; collaborator calls happen outside
// the lock and their results are committed only if the session epoch has not
// advanced in the meantime.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	lastUsed  time.Time

	stage   Stage
	record  *types.CanonicalResumeRecord
	history []types.ScoreHistoryEntry
	chat    []types.ChatMessage

	// epoch increases on every reset; in-flight collaborator responses
	// captured under an older epoch are discarded on commit
	epoch uint64

	busy       map[Operation]bool
	busyFields map[FieldRef]bool

	collab Collaborators
	logger *errors.Logger
	now    func() time.Time
}

// NewSession creates a session at the intake stage
func NewSession(collab Collaborators, logger *errors.Logger) *Session {
	now := time.Now()
	return &Session{
		id:         uuid.NewString(),
		createdAt:  now,
		lastUsed:   now,
		stage:      StageIntake,
		busy:       make(map[Operation]bool),
		busyFields: make(map[FieldRef]bool),
		collab:     collab,
		logger:     logger,
		now:        time.Now,
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Stage returns the current workflow stage
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Record returns a copy of the canonical record, or nil before intake
// completes
func (s *Session) Record() *types.CanonicalResumeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRecord(s.record)
}

// History returns a copy of the score ledger in append order
func (s *Session) History() []types.ScoreHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// ChatLog returns a copy of the chat ledger in append order
func (s *Session) ChatLog() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.chat)
}

// Busy reports whether the given operation is currently in flight
func (s *Session) Busy(op Operation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[op]
}

// BeginUpload completes intake from parser output. Allowed only at the
// intake stage; success moves the session to job targeting.
func (s *Session) BeginUpload(parsed *types.ParseOutput) (*types.CanonicalResumeRecord, error) {
	rec, err := intake.NormalizeUpload(parsed)
	if err != nil {
		return nil, err
	}
	return s.commitIntake(rec)
}

// BeginManualEntry completes intake from a manual-entry form. Validation
// failures leave the session untouched at the intake stage.
func (s *Session) BeginManualEntry(form *types.StructuredResume) (*types.CanonicalResumeRecord, error) {
	rec, err := intake.NormalizeManualEntry(form)
	if err != nil {
		return nil, err
	}
	return s.commitIntake(rec)
}

func (s *Session) commitIntake(rec *types.CanonicalResumeRecord) (*types.CanonicalResumeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageIntake {
		return nil, s.invalidStage("intake", StageIntake)
	}

	s.record = rec
	s.stage = StageJobTargeting
	s.touch()
	return copyRecord(rec), nil
}

// SetJobTarget records the targeting metadata. All fields are optional; an
// empty context is a deliberate "score without targeting" choice. The context
// stays editable after scoring so the description can change between
// enhancement cycles; report and ledger are never touched here.
func (s *Session) SetJobTarget(job types.JobContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage == StageIntake {
		return s.invalidStage("set job target", StageJobTargeting)
	}

	s.record.Job = &job
	s.touch()
	return nil
}

// ScoreInitial runs the first scoring pass. Success replaces the record's
// report wholesale and seeds the score ledger with its "Initial Score" entry.
// Failure leaves the session at job targeting with nothing written.
func (s *Session) ScoreInitial(ctx context.Context) (*types.ScoreReport, error) {
	s.mu.Lock()
	if s.stage != StageJobTargeting {
		defer s.mu.Unlock()
		return nil, s.invalidStage("score", StageJobTargeting)
	}
	if s.busy[OpScore] {
		s.mu.Unlock()
		return nil, inFlight(OpScore)
	}
	s.busy[OpScore] = true
	epoch := s.epoch
	in := types.ScoreInput{
		ResumeText:     s.record.Text,
		JobDescription: s.jobDescriptionLocked(),
		Metadata:       s.record.Metadata,
	}
	s.mu.Unlock()

	report, err := s.collab.Scorer.Score(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy[OpScore] = false

	if err != nil {
		return nil, collaboratorFailure("scorer", err)
	}
	if epoch != s.epoch {
		return nil, staleResponse("score")
	}

	s.record.Report = report
	s.history = []types.ScoreHistoryEntry{{
		Score:     report.Score,
		Timestamp: s.timestamp(),
		Action:    ActionInitialScore,
	}}
	s.stage = StageScored
	s.touch()
	return report, nil
}

// Enhance runs one whole-resume enhancement cycle: rewrite the text, then
// re-score the rewritten text. The cycle is atomic: text, report and ledger
// entry commit together or not at all. Cycles are serialized; a second call
// while one is in flight is rejected.
func (s *Session) Enhance(ctx context.Context, kind types.EnhancementKind) (*EnhanceResult, error) {
	s.mu.Lock()
	if err := s.checkEnhanceableLocked(kind); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.busy[OpEnhance] = true
	prevStage := s.stage
	s.stage = StageEnhancing
	epoch := s.epoch
	text := s.record.Text
	jd := s.jobDescriptionLocked()
	s.mu.Unlock()

	result, err := s.runEnhanceCycle(ctx, kind, text, jd, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy[OpEnhance] = false
	if s.stage == StageEnhancing {
		s.stage = prevStage
	}

	if err != nil {
		return nil, err
	}
	if epoch != s.epoch {
		return nil, staleResponse("enhance")
	}

	s.record.Text = result.text
	s.record.Report = result.report
	entry := types.ScoreHistoryEntry{
		Score:     result.report.Score,
		Timestamp: s.timestamp(),
		Action:    enhancedAction(kind),
	}
	s.history = append(s.history, entry)
	s.stage = StageScored
	s.touch()

	return &EnhanceResult{Text: result.text, Report: result.report, Entry: entry}, nil
}

// EnhanceField enhances a single sub-field of a manual-entry resume, then
// re-serializes and re-scores the whole record under the same atomic commit
// rules as Enhance. The summary field uses the summary kind; experience and
// project text uses the bullet-point kind.
func (s *Session) EnhanceField(ctx context.Context, ref FieldRef) (*EnhanceResult, error) {
	kind, err := ref.kind()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.checkEnhanceableLocked(kind); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.record.Structured == nil {
		s.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"per-field enhancement requires a manual-entry resume", nil)
	}
	source, err := fieldValue(s.record.Structured, ref)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if len(strings.TrimSpace(source)) < minFieldLength {
		s.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeTextTooShort,
			"field text must be at least 10 characters before enhancement", nil).
			WithContext("section", ref.Section)
	}
	if s.busyFields[ref] {
		s.mu.Unlock()
		return nil, inFlight(OpEnhance)
	}

	s.busy[OpEnhance] = true
	s.busyFields[ref] = true
	prevStage := s.stage
	s.stage = StageEnhancing
	epoch := s.epoch
	structured := *s.record.Structured
	jd := s.jobDescriptionLocked()
	s.mu.Unlock()

	result, err := s.runEnhanceCycle(ctx, kind, source, jd, func(enhanced string) (string, *types.StructuredResume, error) {
		updated := structured
		if err := setFieldValue(&updated, ref, enhanced); err != nil {
			return "", nil, err
		}
		return intake.Serialize(&updated), &updated, nil
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy[OpEnhance] = false
	delete(s.busyFields, ref)
	if s.stage == StageEnhancing {
		s.stage = prevStage
	}

	if err != nil {
		return nil, err
	}
	if epoch != s.epoch {
		return nil, staleResponse("enhance")
	}

	s.record.Structured = result.structured
	s.record.Text = result.text
	s.record.Report = result.report
	entry := types.ScoreHistoryEntry{
		Score:     result.report.Score,
		Timestamp: s.timestamp(),
		Action:    enhancedAction(kind),
	}
	s.history = append(s.history, entry)
	s.stage = StageScored
	s.touch()

	return &EnhanceResult{Text: result.text, Report: result.report, Entry: entry}, nil
}

// cycleResult is the uncommitted outcome of the two collaborator phases
type cycleResult struct {
	text       string
	report     *types.ScoreReport
	structured *types.StructuredResume
}

// runEnhanceCycle executes both phases without touching session state. remap
// converts the enhanced fragment into the full record text for per-field
// cycles; nil means the fragment is the whole text.
func (s *Session) runEnhanceCycle(ctx context.Context, kind types.EnhancementKind, source, jd string,
	remap func(enhanced string) (string, *types.StructuredResume, error)) (*cycleResult, error) {

	enhanced, err := s.collab.Enhancer.Enhance(ctx, types.EnhanceInput{
		Text:           source,
		Kind:           kind,
		JobDescription: jd,
	})
	if err != nil {
		return nil, collaboratorFailure("enhancer", err)
	}

	res := &cycleResult{text: enhanced}
	if remap != nil {
		text, structured, err := remap(enhanced)
		if err != nil {
			return nil, err
		}
		res.text = text
		res.structured = structured
	}

	report, err := s.collab.Scorer.Score(ctx, types.ScoreInput{
		ResumeText:     res.text,
		JobDescription: jd,
	})
	if err != nil {
		return nil, collaboratorFailure("scorer", err)
	}
	res.report = report
	return res, nil
}

// checkEnhanceableLocked validates stage, kind and the keywords guard.
// Callers hold s.mu.
func (s *Session) checkEnhanceableLocked(kind types.EnhancementKind) error {
	// In-flight wins over stage: a running cycle parks the stage at Enhancing,
	// and a concurrent call must see that as contention, not a stage error
	if s.busy[OpEnhance] {
		return inFlight(OpEnhance)
	}
	if s.stage != StageScored && s.stage != StageExported {
		return s.invalidStage("enhance", StageScored)
	}
	if !kind.Valid() {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"unknown enhancement kind", nil).WithContext("kind", string(kind))
	}
	// Keyword optimization is meaningless without a job description; reject
	// before any collaborator call so nothing is spent on a doomed cycle
	if kind == types.EnhanceKeywords && strings.TrimSpace(s.jobDescriptionLocked()) == "" {
		return errors.NewValidationError(errors.ErrCodeMissingJobContext,
			"keyword enhancement requires a job description", nil)
	}
	return nil
}

// SendChat appends the user message, asks the chat collaborator and appends
// its reply. A collaborator failure degrades in-band: a fallback assistant
// message is appended and no error is returned, so the conversation keeps a
// coherent turn order.
func (s *Session) SendChat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"chat message must not be empty", nil)
	}

	s.mu.Lock()
	if s.record == nil || s.record.Report == nil {
		s.mu.Unlock()
		return "", s.invalidStage("chat", StageScored)
	}
	if s.busy[OpChat] {
		s.mu.Unlock()
		return "", inFlight(OpChat)
	}
	s.busy[OpChat] = true
	epoch := s.epoch
	s.chat = append(s.chat, types.ChatMessage{Role: types.RoleUser, Content: message})
	contextBlock := BuildContext(s.record)
	s.mu.Unlock()

	reply, err := s.collab.Chat.Chat(ctx, types.ChatInput{Message: message, Context: contextBlock})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy[OpChat] = false

	if epoch != s.epoch {
		// Session was reset mid-flight; the ledger this turn belonged to is
		// gone, so the reply is dropped
		return "", staleResponse("chat")
	}

	if err != nil {
		if s.logger != nil {
			s.logger.LogError(err, "Chat collaborator failed, appending fallback reply", "session_id", s.id)
		}
		reply = chatFallbackReply
	}
	s.chat = append(s.chat, types.ChatMessage{Role: types.RoleAssistant, Content: reply})
	s.touch()
	return reply, nil
}

// Export renders the resume through the generation collaborator. Sessions
// without structured data (upload path) are rejected: documents are never
// fabricated from placeholder values. Exported is not terminal; the session
// can keep enhancing and export again.
func (s *Session) Export(ctx context.Context, format, template string) (*types.GenerateOutput, error) {
	if !slices.Contains(types.ExportFormats, format) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"unsupported export format", nil).WithContext("format", format)
	}
	if !slices.Contains(types.ExportTemplates, template) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"unsupported export template", nil).WithContext("template", template)
	}

	s.mu.Lock()
	if s.stage != StageScored && s.stage != StageExported {
		defer s.mu.Unlock()
		return nil, s.invalidStage("export", StageScored)
	}
	if s.record.Structured == nil {
		s.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeIncompleteResume,
			"export requires structured resume data; upload-path sessions must re-enter the resume manually", nil)
	}
	if s.busy[OpExport] {
		s.mu.Unlock()
		return nil, inFlight(OpExport)
	}
	s.busy[OpExport] = true
	epoch := s.epoch
	in := types.GenerateInput{Data: *s.record.Structured, Format: format, Template: template}
	s.mu.Unlock()

	out, err := s.collab.Generator.Generate(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy[OpExport] = false

	if err != nil {
		return nil, collaboratorFailure("generator", err)
	}
	if epoch != s.epoch {
		return nil, staleResponse("export")
	}

	s.stage = StageExported
	s.touch()
	return out, nil
}

// ResetToJobTargeting discards everything downstream of intake: score report,
// both ledgers and any enhanced text. The record reverts to its intake-time
// content. In-flight collaborator responses from before the reset are
// discarded when they land.
func (s *Session) ResetToJobTargeting() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageScored && s.stage != StageExported {
		return s.invalidStage("reset to job targeting", StageScored)
	}

	s.epoch++
	s.record.Text = s.record.OriginalText
	s.record.Report = nil
	s.history = nil
	s.chat = nil
	s.stage = StageJobTargeting
	s.touch()
	return nil
}

// ResetToIntake discards the record and both ledgers entirely
func (s *Session) ResetToIntake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage == StageIntake {
		return nil
	}

	s.epoch++
	s.record = nil
	s.history = nil
	s.chat = nil
	s.stage = StageIntake
	s.touch()
	return nil
}

func (s *Session) jobDescriptionLocked() string {
	if s.record != nil && s.record.Job != nil {
		return s.record.Job.Description
	}
	return ""
}

func (s *Session) invalidStage(op string, want Stage) error {
	return errors.NewValidationError(errors.ErrCodeInvalidStage,
		"operation not allowed at current workflow stage", nil).
		WithContext("operation", op).
		WithContext("stage", string(s.stage)).
		WithContext("required_stage", string(want))
}

func (s *Session) timestamp() string {
	return s.now().Format("Jan 2, 2006 3:04:05 PM")
}

func (s *Session) touch() {
	s.lastUsed = s.now()
}

func inFlight(op Operation) error {
	return errors.NewValidationError(errors.ErrCodeOperationInFlight,
		"operation already in progress for this session", nil).
		WithContext("operation", string(op))
}

func staleResponse(op string) error {
	return errors.NewInternalError(errors.ErrCodeStaleRequest,
		"response discarded: session was reset while the request was in flight", nil).
		WithContext("operation", op)
}

func collaboratorFailure(name string, err error) error {
	if appErr, ok := err.(*errors.AppError); ok &&
		(appErr.Type == errors.ErrorTypeCollaborator || appErr.Type == errors.ErrorTypeNetwork) {
		return appErr
	}
	return errors.NewCollaboratorError(errors.ErrCodeCollaboratorFailed,
		name+" request failed", err).WithContext("collaborator", name)
}

func enhancedAction(kind types.EnhancementKind) string {
	return "Enhanced (" + string(kind) + ")"
}

func copyRecord(rec *types.CanonicalResumeRecord) *types.CanonicalResumeRecord {
	if rec == nil {
		return nil
	}
	cp := *rec
	if rec.Structured != nil {
		st := *rec.Structured
		cp.Structured = &st
	}
	if rec.Report != nil {
		rp := *rec.Report
		cp.Report = &rp
	}
	if rec.Job != nil {
		jb := *rec.Job
		cp.Job = &jb
	}
	return &cp
}

// fieldValue reads the sub-field addressed by ref
func fieldValue(form *types.StructuredResume, ref FieldRef) (string, error) {
	switch ref.Section {
	case "summary":
		return form.Summary, nil
	case "experience":
		if ref.Index < 0 || ref.Index >= len(form.Experience) {
			return "", badFieldRef(ref)
		}
		return form.Experience[ref.Index].Details, nil
	case "projects":
		if ref.Index < 0 || ref.Index >= len(form.Projects) {
			return "", badFieldRef(ref)
		}
		return form.Projects[ref.Index].Description, nil
	default:
		return "", badFieldRef(ref)
	}
}

// setFieldValue writes the sub-field addressed by ref
func setFieldValue(form *types.StructuredResume, ref FieldRef, value string) error {
	switch ref.Section {
	case "summary":
		form.Summary = value
	case "experience":
		if ref.Index < 0 || ref.Index >= len(form.Experience) {
			return badFieldRef(ref)
		}
		form.Experience = slices.Clone(form.Experience)
		form.Experience[ref.Index].Details = value
	case "projects":
		if ref.Index < 0 || ref.Index >= len(form.Projects) {
			return badFieldRef(ref)
		}
		form.Projects = slices.Clone(form.Projects)
		form.Projects[ref.Index].Description = value
	default:
		return badFieldRef(ref)
	}
	return nil
}

// kind maps a field reference onto its enhancement kind
func (r FieldRef) kind() (types.EnhancementKind, error) {
	switch r.Section {
	case "summary":
		return types.EnhanceSummary, nil
	case "experience", "projects":
		return types.EnhanceBulletPoints, nil
	default:
		return "", badFieldRef(r)
	}
}

func badFieldRef(ref FieldRef) error {
	return errors.NewValidationError(errors.ErrCodeInvalidRequest,
		"field reference does not address an enhanceable field", nil).
		WithContext("section", ref.Section).
		WithContext("index", ref.Index)
}
