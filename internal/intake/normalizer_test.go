package intake

import (
	"strings"
	"testing"

	"resumeflow/internal/errors"
	"resumeflow/internal/types"
)

func validForm() *types.StructuredResume {
	return &types.StructuredResume{
		Name:        "Jane Doe",
		Email:       "jane@example.com",
		CountryCode: "+1",
		Phone:       "555-123-4567",
		Location:    "Austin, TX",
		TargetRole:  "Backend Engineer",
		Summary:     "Backend engineer with six years of Go experience.",
		Skills: types.SkillSet{
			Technical: []string{"Go", "PostgreSQL"},
			Tools:     []string{"Docker"},
		},
		Education: []types.EducationEntry{
			{
				School:    "State University",
				Degree:    "BSc",
				Location:  "Austin, TX",
				StartDate: "2014-08",
				DateState: types.DateState{EndDate: "2018-05"},
			},
		},
		Experience: []types.ExperienceEntry{
			{
				Company:   "Acme Corp",
				Role:      "Software Engineer",
				StartDate: "2018-06",
				DateState: types.DateState{IsCurrent: true},
				Details:   "Built payment reconciliation pipelines in Go.",
			},
		},
		JobDescription: "We need a Go engineer with PostgreSQL experience.",
	}
}

func TestValidateManualEntry(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(f *types.StructuredResume)
		wantFields []string
	}{
		{
			name:       "valid form has no field errors",
			mutate:     func(f *types.StructuredResume) {},
			wantFields: nil,
		},
		{
			name:       "missing name",
			mutate:     func(f *types.StructuredResume) { f.Name = "" },
			wantFields: []string{"name"},
		},
		{
			name:       "malformed email",
			mutate:     func(f *types.StructuredResume) { f.Email = "not-an-email" },
			wantFields: []string{"email"},
		},
		{
			name:       "phone with fewer than ten digits",
			mutate:     func(f *types.StructuredResume) { f.Phone = "555-1234" },
			wantFields: []string{"phone"},
		},
		{
			name:       "no skills in any category",
			mutate:     func(f *types.StructuredResume) { f.Skills = types.SkillSet{} },
			wantFields: []string{"skills"},
		},
		{
			name:       "no education entries",
			mutate:     func(f *types.StructuredResume) { f.Education = nil },
			wantFields: []string{"education"},
		},
		{
			name: "multiple failures reported together",
			mutate: func(f *types.StructuredResume) {
				f.Name = ""
				f.Location = ""
				f.Summary = ""
			},
			wantFields: []string{"name", "location", "summary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(form)

			fields := ValidateManualEntry(form)

			if len(tt.wantFields) == 0 {
				if len(fields) != 0 {
					t.Fatalf("expected no field errors, got %v", fields)
				}
				return
			}
			for _, want := range tt.wantFields {
				if _, ok := fields[want]; !ok {
					t.Errorf("expected field error for %q, got %v", want, fields)
				}
			}
		})
	}
}

func TestNormalizeManualEntryRejectsInvalidForm(t *testing.T) {
	form := validForm()
	form.Phone = "12345"

	rec, err := NormalizeManualEntry(form)
	if rec != nil {
		t.Fatal("expected no record for invalid form")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeValidation {
		t.Errorf("error type = %s, want validation", appErr.Type)
	}
	if _, ok := appErr.Fields["phone"]; !ok {
		t.Errorf("expected phone field error, got %v", appErr.Fields)
	}
}

func TestNormalizeManualEntryBuildsRecord(t *testing.T) {
	rec, err := NormalizeManualEntry(validForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Text == "" || rec.Text != rec.OriginalText {
		t.Error("record text should be set and match original text")
	}
	if rec.Structured == nil {
		t.Fatal("manual-entry record should carry structured data")
	}
	if rec.Job == nil || rec.Job.Title != "Backend Engineer" {
		t.Errorf("job context not carried from form: %+v", rec.Job)
	}
}

func TestSerializeDeterministic(t *testing.T) {
	form := validForm()
	first := Serialize(form)
	for range 5 {
		if got := Serialize(form); got != first {
			t.Fatal("serialization of identical input differs between calls")
		}
	}
}

func TestSerializeContent(t *testing.T) {
	text := Serialize(validForm())

	for _, want := range []string{
		"Target Role: Backend Engineer",
		"Jane Doe",
		"jane@example.com | +1 555-123-4567 | Austin, TX",
		"Technical: Go, PostgreSQL",
		"State University, Austin, TX",
		"2014-08 - 2018-05",
		"Acme Corp Software Engineer    2018-06 - Present",
		"Job Description Context: We need a Go engineer with PostgreSQL experience.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("serialized text missing %q\n%s", want, text)
		}
	}
}

func TestSerializeExpectedDate(t *testing.T) {
	form := validForm()
	form.Education[0].SetExpected("2026-05")

	text := Serialize(form)
	if !strings.Contains(text, "2014-08 - Expected 2026-05") {
		t.Errorf("expected-date rendering missing:\n%s", text)
	}
}

func TestSerializeScoreLineGatedByShowScore(t *testing.T) {
	form := validForm()
	form.Education[0].Score = "3.9"
	form.Education[0].ShowScore = false
	if strings.Contains(Serialize(form), "CGPA") {
		t.Error("score line rendered although ShowScore is false")
	}

	form.Education[0].ShowScore = true
	if !strings.Contains(Serialize(form), "CGPA: 3.9") {
		t.Error("score line missing although ShowScore is true")
	}
}

func TestNormalizeUpload(t *testing.T) {
	tests := []struct {
		name      string
		parsed    *types.ParseOutput
		expectErr bool
	}{
		{
			name:   "parsed text carried verbatim",
			parsed: &types.ParseOutput{Text: "JANE DOE\nEngineer", Metadata: map[string]any{"file_size": 1024}},
		},
		{
			name:      "empty text rejected",
			parsed:    &types.ParseOutput{Text: "  \n "},
			expectErr: true,
		},
		{
			name:      "nil parse output rejected",
			parsed:    nil,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NormalizeUpload(tt.parsed)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Text != tt.parsed.Text {
				t.Errorf("text altered during normalization: %q", rec.Text)
			}
			if rec.Structured != nil {
				t.Error("upload-path record should not carry structured data")
			}
		})
	}
}
