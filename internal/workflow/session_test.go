package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"resumeflow/internal/errors"
	"resumeflow/internal/types"
)

type scorerFunc func(ctx context.Context, in types.ScoreInput) (*types.ScoreReport, error)

func (f scorerFunc) Score(ctx context.Context, in types.ScoreInput) (*types.ScoreReport, error) {
	return f(ctx, in)
}

type enhancerFunc func(ctx context.Context, in types.EnhanceInput) (string, error)

func (f enhancerFunc) Enhance(ctx context.Context, in types.EnhanceInput) (string, error) {
	return f(ctx, in)
}

type chatFunc func(ctx context.Context, in types.ChatInput) (string, error)

func (f chatFunc) Chat(ctx context.Context, in types.ChatInput) (string, error) {
	return f(ctx, in)
}

type generatorFunc func(ctx context.Context, in types.GenerateInput) (*types.GenerateOutput, error)

func (f generatorFunc) Generate(ctx context.Context, in types.GenerateInput) (*types.GenerateOutput, error) {
	return f(ctx, in)
}

// fixedScorer returns the given scores in call order, repeating the last one
func fixedScorer(scores ...int) Scorer {
	var mu sync.Mutex
	call := 0
	return scorerFunc(func(_ context.Context, _ types.ScoreInput) (*types.ScoreReport, error) {
		mu.Lock()
		defer mu.Unlock()
		score := scores[min(call, len(scores)-1)]
		call++
		return &types.ScoreReport{Score: score, Feedback: []string{"ok"}}, nil
	})
}

func echoEnhancer() Enhancer {
	return enhancerFunc(func(_ context.Context, in types.EnhanceInput) (string, error) {
		return "improved: " + in.Text, nil
	})
}

func failingScorer(msg string) Scorer {
	return scorerFunc(func(_ context.Context, _ types.ScoreInput) (*types.ScoreReport, error) {
		return nil, fmt.Errorf("%s", msg)
	})
}

func testForm() *types.StructuredResume {
	return &types.StructuredResume{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "512-555-0147",
		Location: "Austin, TX",
		Summary:  "Engineer with a decade of distributed systems work.",
		Skills:   types.SkillSet{Technical: []string{"Go"}},
		Education: []types.EducationEntry{
			{School: "State University", Degree: "BSc", StartDate: "2010-08",
				DateState: types.DateState{EndDate: "2014-05"}},
		},
		Experience: []types.ExperienceEntry{
			{Company: "Acme", Role: "Engineer", StartDate: "2014-06",
				DateState: types.DateState{IsCurrent: true},
				Details:   "Responsible for various backend services."},
		},
	}
}

func newTestSession(collab Collaborators) *Session {
	return NewSession(collab, nil)
}

// scoredSession builds a session that has completed intake, targeting and the
// initial scoring pass
func scoredSession(t *testing.T, collab Collaborators) *Session {
	t.Helper()
	s := newTestSession(collab)
	if _, err := s.BeginManualEntry(testForm()); err != nil {
		t.Fatalf("intake: %v", err)
	}
	err := s.SetJobTarget(types.JobContext{
		Title:       "Senior Backend Engineer",
		Company:     "Initech",
		Description: "Go, Kubernetes, PostgreSQL",
	})
	if err != nil {
		t.Fatalf("set job target: %v", err)
	}
	if _, err := s.ScoreInitial(context.Background()); err != nil {
		t.Fatalf("initial score: %v", err)
	}
	return s
}

func TestEndToEndOptimizationScenario(t *testing.T) {
	ctx := context.Background()
	collab := Collaborators{
		Scorer:   fixedScorer(62, 75),
		Enhancer: echoEnhancer(),
		Chat: chatFunc(func(_ context.Context, in types.ChatInput) (string, error) {
			if !strings.Contains(in.Context, "Senior Backend Engineer") {
				t.Errorf("chat context missing job title:\n%s", in.Context)
			}
			return "Focus your summary on Kubernetes.", nil
		}),
		Generator: generatorFunc(func(_ context.Context, in types.GenerateInput) (*types.GenerateOutput, error) {
			if in.Format != "pdf" || in.Template != "classic" {
				t.Errorf("unexpected generate input: %+v", in)
			}
			return &types.GenerateOutput{Filename: "resume.pdf", URL: "/files/resume.pdf"}, nil
		}),
	}

	s := scoredSession(t, collab)

	rec := s.Record()
	if rec.Report.Score != 62 {
		t.Fatalf("initial score = %d, want 62", rec.Report.Score)
	}
	history := s.History()
	if len(history) != 1 || history[0].Action != ActionInitialScore || history[0].Score != 62 {
		t.Fatalf("ledger after initial score = %+v", history)
	}

	res, err := s.Enhance(ctx, types.EnhanceKeywords)
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if res.Report.Score != 75 {
		t.Errorf("post-enhancement score = %d, want 75", res.Report.Score)
	}
	if !strings.HasPrefix(res.Text, "improved: ") {
		t.Errorf("enhanced text not committed: %q", res.Text)
	}

	history = s.History()
	if len(history) != 2 {
		t.Fatalf("ledger length = %d, want 2", len(history))
	}
	if history[0].Score != 62 || history[1].Score != 75 {
		t.Errorf("ledger scores = [%d %d], want [62 75]", history[0].Score, history[1].Score)
	}
	if history[1].Action != "Enhanced (keywords)" {
		t.Errorf("ledger action = %q, want %q", history[1].Action, "Enhanced (keywords)")
	}

	if reply, err := s.SendChat(ctx, "What should I improve next?"); err != nil || reply == "" {
		t.Fatalf("chat: reply=%q err=%v", reply, err)
	}

	out, err := s.Export(ctx, "pdf", "classic")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if out.URL == "" {
		t.Error("export returned no artifact URL")
	}
	if s.Stage() != StageExported {
		t.Errorf("stage = %s, want %s", s.Stage(), StageExported)
	}

	// Export is not terminal: further enhancement cycles remain available
	if _, err := s.Enhance(ctx, types.EnhanceGrammar); err != nil {
		t.Errorf("enhance after export: %v", err)
	}
}

func TestEnhanceAtomicOnScoreFailure(t *testing.T) {
	callCount := 0
	collab := Collaborators{
		Scorer: scorerFunc(func(_ context.Context, in types.ScoreInput) (*types.ScoreReport, error) {
			callCount++
			if callCount > 1 {
				return nil, fmt.Errorf("scorer unavailable")
			}
			return &types.ScoreReport{Score: 60, Feedback: []string{"ok"}}, nil
		}),
		Enhancer: echoEnhancer(),
	}

	s := scoredSession(t, collab)
	before := s.Record()

	_, err := s.Enhance(context.Background(), types.EnhanceGrammar)
	if err == nil {
		t.Fatal("expected error when re-scoring fails")
	}
	if !errors.IsCollaborator(err) {
		t.Errorf("expected collaborator error, got %v", err)
	}

	// Phase two failed, so phase one's rewrite must not be visible anywhere
	after := s.Record()
	if after.Text != before.Text {
		t.Errorf("record text mutated despite failed cycle:\n%q\n%q", before.Text, after.Text)
	}
	if after.Report.Score != before.Report.Score {
		t.Error("score mutated despite failed cycle")
	}
	if got := len(s.History()); got != 1 {
		t.Errorf("ledger grew to %d entries despite failed cycle", got)
	}
	if s.Stage() != StageScored {
		t.Errorf("stage = %s, want %s after failed cycle", s.Stage(), StageScored)
	}
}

func TestEnhanceAtomicOnEnhancerFailure(t *testing.T) {
	collab := Collaborators{
		Scorer: fixedScorer(60),
		Enhancer: enhancerFunc(func(_ context.Context, _ types.EnhanceInput) (string, error) {
			return "", fmt.Errorf("model overloaded")
		}),
	}

	s := scoredSession(t, collab)
	before := s.Record()

	if _, err := s.Enhance(context.Background(), types.EnhanceGeneral); err == nil {
		t.Fatal("expected error when enhancer fails")
	}
	if s.Record().Text != before.Text || len(s.History()) != 1 {
		t.Error("failed enhancement must not mutate record or ledger")
	}
}

func TestKeywordsGuardRejectsWithoutJobDescription(t *testing.T) {
	enhancerCalled := false
	collab := Collaborators{
		Scorer: fixedScorer(60),
		Enhancer: enhancerFunc(func(_ context.Context, _ types.EnhanceInput) (string, error) {
			enhancerCalled = true
			return "x", nil
		}),
	}

	s := newTestSession(collab)
	if _, err := s.BeginManualEntry(testForm()); err != nil {
		t.Fatal(err)
	}
	if err := s.SetJobTarget(types.JobContext{Title: "Engineer"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ScoreInitial(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := s.Enhance(context.Background(), types.EnhanceKeywords)
	if err == nil {
		t.Fatal("expected keywords enhancement to be rejected without a job description")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeMissingJobContext {
		t.Errorf("unexpected error: %v", err)
	}
	if enhancerCalled {
		t.Error("enhancer must not be called when the guard rejects")
	}

	// Other kinds remain available without a job description
	if _, err := s.Enhance(context.Background(), types.EnhanceGrammar); err != nil {
		t.Errorf("grammar enhancement should work without a job description: %v", err)
	}
}

func TestStageGating(t *testing.T) {
	ctx := context.Background()
	collab := Collaborators{Scorer: fixedScorer(60), Enhancer: echoEnhancer()}

	s := newTestSession(collab)

	if _, err := s.ScoreInitial(ctx); err == nil {
		t.Error("scoring before intake must be rejected")
	}
	if _, err := s.Enhance(ctx, types.EnhanceGrammar); err == nil {
		t.Error("enhancement before scoring must be rejected")
	}
	if err := s.SetJobTarget(types.JobContext{}); err == nil {
		t.Error("job targeting before intake must be rejected")
	}

	if _, err := s.BeginManualEntry(testForm()); err != nil {
		t.Fatal(err)
	}
	if s.Stage() != StageJobTargeting {
		t.Fatalf("stage after intake = %s", s.Stage())
	}

	// Second intake without a reset is rejected
	if _, err := s.BeginManualEntry(testForm()); err == nil {
		t.Error("re-running intake without a reset must be rejected")
	}

	if _, err := s.Enhance(ctx, types.EnhanceGrammar); err == nil {
		t.Error("enhancement at job-targeting stage must be rejected")
	}
}

func TestJobTargetEditableAfterScoring(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var seenJD string
	collab := Collaborators{
		Scorer: fixedScorer(62, 75),
		Enhancer: enhancerFunc(func(_ context.Context, in types.EnhanceInput) (string, error) {
			mu.Lock()
			seenJD = in.JobDescription
			mu.Unlock()
			return "improved: " + in.Text, nil
		}),
	}

	s := scoredSession(t, collab)

	err := s.SetJobTarget(types.JobContext{
		Title:       "Platform Engineer",
		Company:     "Initech",
		Description: "Terraform, AWS, Go",
	})
	if err != nil {
		t.Fatalf("editing job target after scoring: %v", err)
	}

	// Editing the target must not disturb the report or the ledger
	if got := s.Record().Report.Score; got != 62 {
		t.Errorf("report score after target edit = %d, want 62", got)
	}
	if got := len(s.History()); got != 1 {
		t.Errorf("ledger length after target edit = %d, want 1", got)
	}
	if s.Stage() != StageScored {
		t.Errorf("stage after target edit = %s, want %s", s.Stage(), StageScored)
	}

	// The next enhancement cycle must see the edited description
	if _, err := s.Enhance(ctx, types.EnhanceKeywords); err != nil {
		t.Fatalf("enhancement after target edit: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if seenJD != "Terraform, AWS, Go" {
		t.Errorf("enhancer saw job description %q, want the edited one", seenJD)
	}
}

func TestResetToJobTargetingDiscardsDownstreamState(t *testing.T) {
	ctx := context.Background()
	collab := Collaborators{
		Scorer:   fixedScorer(62, 75),
		Enhancer: echoEnhancer(),
		Chat:     chatFunc(func(_ context.Context, _ types.ChatInput) (string, error) { return "hi", nil }),
	}

	s := scoredSession(t, collab)
	original := s.Record().OriginalText

	if _, err := s.Enhance(ctx, types.EnhanceGeneral); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendChat(ctx, "hello"); err != nil {
		t.Fatal(err)
	}

	if err := s.ResetToJobTargeting(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if s.Stage() != StageJobTargeting {
		t.Errorf("stage = %s, want %s", s.Stage(), StageJobTargeting)
	}
	rec := s.Record()
	if rec.Report != nil {
		t.Error("score report survived reset")
	}
	if rec.Text != original {
		t.Error("enhanced text survived reset")
	}
	if len(s.History()) != 0 || len(s.ChatLog()) != 0 {
		t.Error("ledgers survived reset")
	}
}

func TestResetToIntakeDiscardsEverything(t *testing.T) {
	s := scoredSession(t, Collaborators{Scorer: fixedScorer(62)})

	if err := s.ResetToIntake(); err != nil {
		t.Fatal(err)
	}
	if s.Stage() != StageIntake || s.Record() != nil {
		t.Error("intake reset must discard the record entirely")
	}

	// A fresh intake is accepted afterwards
	if _, err := s.BeginManualEntry(testForm()); err != nil {
		t.Errorf("intake after reset: %v", err)
	}
}

func TestConcurrentEnhanceRejected(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	collab := Collaborators{
		Scorer: fixedScorer(60, 70),
		Enhancer: enhancerFunc(func(_ context.Context, in types.EnhanceInput) (string, error) {
			close(started)
			<-release
			return "done", nil
		}),
	}

	s := scoredSession(t, collab)

	done := make(chan error, 1)
	go func() {
		_, err := s.Enhance(context.Background(), types.EnhanceGrammar)
		done <- err
	}()

	<-started
	_, err := s.Enhance(context.Background(), types.EnhanceGeneral)
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeOperationInFlight {
		t.Errorf("concurrent enhancement should be rejected as in-flight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first enhancement failed: %v", err)
	}
	if got := len(s.History()); got != 2 {
		t.Errorf("ledger length = %d, want 2 (exactly one cycle committed)", got)
	}
}

func TestChatFailureDegradesInBand(t *testing.T) {
	collab := Collaborators{
		Scorer: fixedScorer(60),
		Chat: chatFunc(func(_ context.Context, _ types.ChatInput) (string, error) {
			return "", fmt.Errorf("upstream 503")
		}),
	}

	s := scoredSession(t, collab)

	reply, err := s.SendChat(context.Background(), "any advice?")
	if err != nil {
		t.Fatalf("chat failure must degrade, not error: %v", err)
	}
	if reply != "Sorry, I couldn't get a response." {
		t.Errorf("reply = %q, want fallback message", reply)
	}

	log := s.ChatLog()
	if len(log) != 2 {
		t.Fatalf("chat ledger length = %d, want 2", len(log))
	}
	if log[0].Role != types.RoleUser || log[1].Role != types.RoleAssistant {
		t.Errorf("turn order broken: %+v", log)
	}
	if log[1].Content != "Sorry, I couldn't get a response." {
		t.Errorf("assistant entry = %q", log[1].Content)
	}
}

func TestStaleChatReplyDiscardedAfterReset(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	collab := Collaborators{
		Scorer: fixedScorer(60),
		Chat: chatFunc(func(_ context.Context, _ types.ChatInput) (string, error) {
			close(started)
			<-release
			return "late reply", nil
		}),
	}

	s := scoredSession(t, collab)

	done := make(chan error, 1)
	go func() {
		_, err := s.SendChat(context.Background(), "hello")
		done <- err
	}()

	<-started
	if err := s.ResetToJobTargeting(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	close(release)

	err := <-done
	if err == nil {
		t.Fatal("expected the in-flight reply to be discarded as stale")
	}
	if len(s.ChatLog()) != 0 {
		t.Errorf("stale reply leaked into the chat ledger: %+v", s.ChatLog())
	}
}

func TestEnhanceField(t *testing.T) {
	var lastEnhance types.EnhanceInput
	collab := Collaborators{
		Scorer: fixedScorer(60, 68),
		Enhancer: enhancerFunc(func(_ context.Context, in types.EnhanceInput) (string, error) {
			lastEnhance = in
			return "Led design and delivery of backend services.", nil
		}),
	}

	s := scoredSession(t, collab)

	res, err := s.EnhanceField(context.Background(), FieldRef{Section: "experience", Index: 0})
	if err != nil {
		t.Fatalf("enhance field: %v", err)
	}
	if lastEnhance.Kind != types.EnhanceBulletPoints {
		t.Errorf("experience field should use bullet-point kind, got %s", lastEnhance.Kind)
	}

	rec := s.Record()
	if rec.Structured.Experience[0].Details != "Led design and delivery of backend services." {
		t.Error("structured field not updated")
	}
	if !strings.Contains(rec.Text, "Led design and delivery") {
		t.Error("canonical text not re-serialized from updated structure")
	}
	if res.Entry.Action != "Enhanced (bullet_points)" {
		t.Errorf("ledger action = %q", res.Entry.Action)
	}
	if got := len(s.History()); got != 2 {
		t.Errorf("ledger length = %d, want 2", got)
	}
}

func TestEnhanceFieldMinimumLength(t *testing.T) {
	enhancerCalled := false
	collab := Collaborators{
		Scorer: fixedScorer(60),
		Enhancer: enhancerFunc(func(_ context.Context, _ types.EnhanceInput) (string, error) {
			enhancerCalled = true
			return "x", nil
		}),
	}

	form := testForm()
	form.Experience[0].Details = "short"

	s := newTestSession(collab)
	if _, err := s.BeginManualEntry(form); err != nil {
		t.Fatal(err)
	}
	if err := s.SetJobTarget(types.JobContext{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ScoreInitial(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := s.EnhanceField(context.Background(), FieldRef{Section: "experience", Index: 0})
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeTextTooShort {
		t.Errorf("expected TEXT_TOO_SHORT, got %v", err)
	}
	if enhancerCalled {
		t.Error("enhancer must not be called below the length threshold")
	}
}

func TestExportRequiresStructuredData(t *testing.T) {
	collab := Collaborators{
		Scorer: fixedScorer(60),
		Generator: generatorFunc(func(_ context.Context, _ types.GenerateInput) (*types.GenerateOutput, error) {
			t.Error("generator must not be called for upload-path sessions")
			return nil, nil
		}),
	}

	s := newTestSession(collab)
	if _, err := s.BeginUpload(&types.ParseOutput{Text: "JANE DOE\nEngineer"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetJobTarget(types.JobContext{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ScoreInitial(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := s.Export(context.Background(), "pdf", "classic")
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != errors.ErrCodeIncompleteResume {
		t.Errorf("expected INCOMPLETE_RESUME, got %v", err)
	}
}

func TestExportValidatesFormatAndTemplate(t *testing.T) {
	s := scoredSession(t, Collaborators{Scorer: fixedScorer(60)})

	if _, err := s.Export(context.Background(), "xlsx", "classic"); err == nil {
		t.Error("unknown format must be rejected")
	}
	if _, err := s.Export(context.Background(), "pdf", "fancy"); err == nil {
		t.Error("unknown template must be rejected")
	}
}

func TestScoreFailureLeavesJobTargeting(t *testing.T) {
	s := newTestSession(Collaborators{Scorer: failingScorer("boom")})
	if _, err := s.BeginManualEntry(testForm()); err != nil {
		t.Fatal(err)
	}
	if err := s.SetJobTarget(types.JobContext{}); err != nil {
		t.Fatal(err)
	}

	_, err := s.ScoreInitial(context.Background())
	if err == nil {
		t.Fatal("expected scorer failure")
	}
	if !errors.IsCollaborator(err) {
		t.Errorf("expected collaborator error, got %v", err)
	}
	if s.Stage() != StageJobTargeting {
		t.Errorf("stage = %s, want %s", s.Stage(), StageJobTargeting)
	}
	if len(s.History()) != 0 {
		t.Error("failed initial score must not seed the ledger")
	}
}

func TestBuildContextSentinels(t *testing.T) {
	tests := []struct {
		name string
		rec  *types.CanonicalResumeRecord
		want []string
	}{
		{
			name: "full job context",
			rec: &types.CanonicalResumeRecord{
				Text: "resume body",
				Job:  &types.JobContext{Title: "SRE", Company: "Initech", Description: "JD text"},
			},
			want: []string{"Resume Text:\nresume body", "Target Job Title: SRE", "Target Company: Initech", "Job Description:\nJD text"},
		},
		{
			name: "absent fields render sentinel",
			rec:  &types.CanonicalResumeRecord{Text: "resume body"},
			want: []string{"Target Job Title: Not specified", "Target Company: Not specified"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildContext(tt.rec)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("context missing %q:\n%s", w, got)
				}
			}
			if again := BuildContext(tt.rec); again != got {
				t.Error("BuildContext is not deterministic for identical input")
			}
		})
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(Collaborators{Scorer: fixedScorer(60)}, time.Hour, nil)
	defer m.Stop()

	s := m.Create()
	if s.Stage() != StageIntake {
		t.Errorf("new session stage = %s", s.Stage())
	}

	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get returned %v, %v", got, err)
	}

	if _, err := m.Get("no-such-id"); err == nil {
		t.Error("unknown session ID must error")
	}

	m.Delete(s.ID())
	if m.Count() != 0 {
		t.Errorf("count after delete = %d", m.Count())
	}
}
