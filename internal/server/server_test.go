package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"resumeflow/internal/config"
	"resumeflow/internal/errors"
	"resumeflow/internal/geo"
	"resumeflow/internal/observability"
	"resumeflow/internal/types"
	"resumeflow/internal/workflow"
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
func fixedScorer(scores ...int) workflow.Scorer {
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

func testCollaborators() workflow.Collaborators {
	return workflow.Collaborators{
		Scorer: fixedScorer(62, 75),
		Enhancer: enhancerFunc(func(_ context.Context, in types.EnhanceInput) (string, error) {
			return "improved: " + in.Text, nil
		}),
		Chat: chatFunc(func(_ context.Context, in types.ChatInput) (string, error) {
			return "Focus your summary on Kubernetes.", nil
		}),
		Generator: generatorFunc(func(_ context.Context, in types.GenerateInput) (*types.GenerateOutput, error) {
			return &types.GenerateOutput{
				Filename: fmt.Sprintf("resume.%s", in.Format),
				URL:      fmt.Sprintf("/files/resume.%s", in.Format),
			}, nil
		}),
	}
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

// newTestMux builds a Server with fake collaborators and returns the routed
// handler, bypassing Start so no observability or TLS setup is involved
func newTestMux(t *testing.T, apiKeys []string) (*Server, http.Handler) {
	t.Helper()

	logger := errors.NewLogger(slog.LevelError)

	apiKeyMap := make(map[string]bool)
	for _, key := range apiKeys {
		apiKeyMap[key] = true
	}

	s := &Server{
		Host:           "127.0.0.1",
		Port:           "0",
		Version:        "test",
		AppConfig:      &config.Config{},
		APIKeys:        apiKeyMap,
		MaxRequestSize: 1 << 20,
		Logger:         logger,
	}
	s.sessions = workflow.NewManager(testCollaborators(), time.Minute, nil)
	t.Cleanup(s.sessions.Stop)

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("observability manager: %v", err)
	}

	return s, s.setupRoutes(om)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[SessionResponse](t, rec)
	if resp.SessionID == "" || resp.Stage != "intake" {
		t.Fatalf("unexpected create response: %+v", resp)
	}
	return resp.SessionID
}

func TestSessionLifecycle(t *testing.T) {
	_, h := newTestMux(t, nil)
	id := createSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/sessions/"+id+"/manual", testForm())
	if rec.Code != http.StatusOK {
		t.Fatalf("manual entry status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+id+"/target", TargetRequest{
		Title:       "Senior Backend Engineer",
		Company:     "Initech",
		Description: "Go, Kubernetes, PostgreSQL",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("target status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+id+"/score", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("score status = %d, body %s", rec.Code, rec.Body.String())
	}
	report := decodeBody[types.ScoreReport](t, rec)
	if report.Score != 62 {
		t.Fatalf("initial score = %d, want 62", report.Score)
	}

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+id+"/enhance", EnhanceRequest{Kind: "keywords"})
	if rec.Code != http.StatusOK {
		t.Fatalf("enhance status = %d, body %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[workflow.EnhanceResult](t, rec)
	if result.Report.Score != 75 {
		t.Fatalf("score after enhancement = %d, want 75", result.Report.Score)
	}

	rec = doJSON(t, h, http.MethodGet, "/sessions/"+id+"/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	history := decodeBody[map[string][]types.ScoreHistoryEntry](t, rec)
	if len(history["history"]) != 2 {
		t.Fatalf("history entries = %d, want 2", len(history["history"]))
	}

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+id+"/chat", ChatRequest{Message: "How can I improve?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body %s", rec.Code, rec.Body.String())
	}
	chatResp := decodeBody[ChatResponse](t, rec)
	if chatResp.Reply == "" {
		t.Fatal("expected a chat reply")
	}

	rec = doJSON(t, h, http.MethodGet, "/sessions/"+id+"/chat", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("chat log status = %d", rec.Code)
	}
	chatLog := decodeBody[map[string][]types.ChatMessage](t, rec)
	if len(chatLog["messages"]) != 2 {
		t.Fatalf("chat log entries = %d, want 2 (user + assistant)", len(chatLog["messages"]))
	}

	rec = doJSON(t, h, http.MethodPost, "/sessions/"+id+"/export", ExportRequest{Format: "pdf", Template: "classic"})
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", rec.Code, rec.Body.String())
	}
	out := decodeBody[types.GenerateOutput](t, rec)
	if out.Filename != "resume.pdf" {
		t.Fatalf("export filename = %q", out.Filename)
	}

	rec = doJSON(t, h, http.MethodDelete, "/sessions/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/sessions/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status after delete = %d, want 404", rec.Code)
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	_, h := newTestMux(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/sessions/no-such-id/score", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestScoreBeforeIntakeIsConflict(t *testing.T) {
	_, h := newTestMux(t, nil)
	id := createSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/sessions/"+id+"/score", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Error != errors.ErrCodeInvalidStage {
		t.Fatalf("error code = %q, want %q", resp.Error, errors.ErrCodeInvalidStage)
	}
}

func TestManualEntryValidationReportsFields(t *testing.T) {
	_, h := newTestMux(t, nil)
	id := createSession(t, h)

	form := testForm()
	form.Email = "not-an-email"
	form.Skills = types.SkillSet{}

	rec := doJSON(t, h, http.MethodPost, "/sessions/"+id+"/manual", form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Error != errors.ErrCodeFieldValidation {
		t.Fatalf("error code = %q, want %q", resp.Error, errors.ErrCodeFieldValidation)
	}
	if _, ok := resp.Fields["email"]; !ok {
		t.Errorf("missing email field error: %+v", resp.Fields)
	}
	if _, ok := resp.Fields["skills"]; !ok {
		t.Errorf("missing skills field error: %+v", resp.Fields)
	}
}

func TestResetRejectsUnknownTarget(t *testing.T) {
	_, h := newTestMux(t, nil)
	id := createSession(t, h)

	rec := doJSON(t, h, http.MethodPost, "/sessions/"+id+"/reset", ResetRequest{To: "scored"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, h := newTestMux(t, []string{"secret-key-12345"})

	rec := doJSON(t, h, http.MethodPost, "/sessions", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.Header.Set("X-API-Key", "secret-key-12345")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status with key = %d, want 201; body %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/sessions", nil)
	req.Header.Set("Authorization", "Bearer secret-key-12345")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status with bearer token = %d, want 201", rr.Code)
	}

	// Health stays open so load balancers can probe without credentials
	rec = doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code == http.StatusUnauthorized {
		t.Fatal("health endpoint should not require authentication")
	}
}

func TestLocationsSearch(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"display_name":"Austin, Travis County, Texas","boundingbox":["30.0","30.5","-98.0","-97.5"],"lat":"30.27","lon":"-97.74"}]`)
	}))
	defer nominatim.Close()

	s, h := newTestMux(t, nil)
	s.geocoder = geo.NewClient(config.GeoConfig{
		BaseURL:     nominatim.URL,
		ResultLimit: 5,
		Timeout:     2 * time.Second,
	}, s.Logger)

	rec := doJSON(t, h, http.MethodGet, "/locations?q=Austin", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[map[string][]types.Place](t, rec)
	if len(resp["places"]) != 1 || resp["places"][0].DisplayName != "Austin, Travis County, Texas" {
		t.Fatalf("unexpected places: %+v", resp["places"])
	}
}
