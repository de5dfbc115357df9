package intake

import (
	"fmt"
	"strings"

	"resumeflow/internal/errors"
	"resumeflow/internal/types"
)

// NormalizeUpload wraps parser output into a canonical record. The parsed
// text is carried verbatim; upload-path records have no structured form.
func NormalizeUpload(parsed *types.ParseOutput) (*types.CanonicalResumeRecord, error) {
	if parsed == nil || strings.TrimSpace(parsed.Text) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"parsed document contains no text", nil)
	}

	return &types.CanonicalResumeRecord{
		Text:         parsed.Text,
		OriginalText: parsed.Text,
		Metadata:     parsed.Metadata,
	}, nil
}

// NormalizeManualEntry validates a manual-entry form and, when valid,
// serializes it into the canonical flat-text representation. Validation
// failures return a field-level validation error and no record.
func NormalizeManualEntry(form *types.StructuredResume) (*types.CanonicalResumeRecord, error) {
	if form == nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"manual entry form is required", nil)
	}

	if fields := ValidateManualEntry(form); len(fields) > 0 {
		return nil, errors.NewFieldValidationError(fields)
	}

	text := Serialize(form)

	rec := &types.CanonicalResumeRecord{
		Text:         text,
		OriginalText: text,
		Structured:   cloneForm(form),
	}
	if form.TargetRole != "" || form.JobDescription != "" {
		rec.Job = &types.JobContext{
			Title:       form.TargetRole,
			Description: form.JobDescription,
		}
	}
	return rec, nil
}

// Serialize renders a structured resume into flat text. The output is
// deterministic: identical input always yields byte-identical text, so
// repeated normalization cannot perturb downstream scores.
func Serialize(form *types.StructuredResume) string {
	var sections []string

	if form.TargetRole != "" {
		sections = append(sections, "Target Role: "+form.TargetRole)
	}

	identity := []string{form.Name, contactLine(form)}
	if form.Portfolio != "" {
		identity = append(identity, "Portfolio: "+form.Portfolio)
	}
	if form.LinkedIn != "" {
		identity = append(identity, "LinkedIn: "+form.LinkedIn)
	}
	if form.GitHub != "" {
		identity = append(identity, "GitHub: "+form.GitHub)
	}
	sections = append(sections, strings.Join(identity, "\n"))

	if form.Summary != "" {
		sections = append(sections, form.Summary)
	}

	if !form.Skills.Empty() {
		sections = append(sections, skillsBlock(form.Skills))
	}

	if len(form.Education) > 0 {
		blocks := make([]string, 0, len(form.Education))
		for _, edu := range form.Education {
			blocks = append(blocks, educationBlock(edu))
		}
		sections = append(sections, "Education:\n"+strings.Join(blocks, "\n\n"))
	}

	if len(form.Experience) > 0 {
		blocks := make([]string, 0, len(form.Experience))
		for _, exp := range form.Experience {
			blocks = append(blocks, experienceBlock(exp))
		}
		sections = append(sections, "Experience:\n"+strings.Join(blocks, "\n\n"))
	}

	if len(form.Projects) > 0 {
		blocks := make([]string, 0, len(form.Projects))
		for _, p := range form.Projects {
			blocks = append(blocks, projectBlock(p))
		}
		sections = append(sections, "Projects:\n"+strings.Join(blocks, "\n\n"))
	}

	// The target job description rides along verbatim so scoring sees the
	// same context the user entered
	if form.JobDescription != "" {
		sections = append(sections, "Job Description Context: "+form.JobDescription)
	}

	return strings.Join(sections, "\n\n")
}

func contactLine(form *types.StructuredResume) string {
	phone := form.Phone
	if form.CountryCode != "" {
		phone = form.CountryCode + " " + form.Phone
	}
	return fmt.Sprintf("%s | %s | %s", form.Email, phone, form.Location)
}

func skillsBlock(s types.SkillSet) string {
	lines := []string{"Skills:"}
	if len(s.Technical) > 0 {
		lines = append(lines, "Technical: "+strings.Join(s.Technical, ", "))
	}
	if len(s.Tools) > 0 {
		lines = append(lines, "Tools: "+strings.Join(s.Tools, ", "))
	}
	if len(s.Soft) > 0 {
		lines = append(lines, "Soft: "+strings.Join(s.Soft, ", "))
	}
	return strings.Join(lines, "\n")
}

// renderEndDate resolves the tri-state end date into its display form
func renderEndDate(d types.DateState) string {
	switch {
	case d.IsCurrent:
		return "Present"
	case d.IsExpected:
		return "Expected " + d.EndDate
	default:
		return d.EndDate
	}
}

func educationBlock(edu types.EducationEntry) string {
	var lines []string

	heading := edu.School
	if edu.Location != "" {
		heading += ", " + edu.Location
	}
	lines = append(lines, heading)

	degree := edu.Degree
	if edu.FieldOfStudy != "" {
		degree += " in " + edu.FieldOfStudy
	}
	if edu.Major != "" {
		degree += " | " + edu.Major
	}
	if dates := dateRange(edu.StartDate, edu.DateState); dates != "" {
		degree += "    " + dates
	}
	lines = append(lines, degree)

	if edu.ShowScore && edu.Score != "" {
		lines = append(lines, "CGPA: "+edu.Score)
	}
	if edu.Coursework != "" {
		lines = append(lines, "Relevant Coursework: "+edu.Coursework)
	}
	if edu.Honors != "" {
		lines = append(lines, "Honors: "+edu.Honors)
	}
	if edu.Thesis != "" {
		lines = append(lines, "Thesis: "+edu.Thesis)
	}

	return strings.Join(nonEmpty(lines), "\n")
}

func experienceBlock(exp types.ExperienceEntry) string {
	heading := strings.TrimSpace(exp.Company + " " + exp.Role)
	if dates := dateRange(exp.StartDate, exp.DateState); dates != "" {
		heading += "    " + dates
	}
	lines := []string{heading}
	if exp.Location != "" {
		lines = append(lines, exp.Location)
	}
	if exp.Details != "" {
		lines = append(lines, exp.Details)
	}
	return strings.Join(lines, "\n")
}

func projectBlock(p types.ProjectEntry) string {
	lines := []string{p.Name}
	if p.Description != "" {
		lines = append(lines, p.Description)
	}
	if p.Link != "" {
		lines = append(lines, "Link: "+p.Link)
	}
	return strings.Join(nonEmpty(lines), "\n")
}

func dateRange(start string, d types.DateState) string {
	end := renderEndDate(d)
	switch {
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start
	default:
		return end
	}
}

func nonEmpty(lines []string) []string {
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// cloneForm deep-copies the form so later session mutations cannot alias the
// caller's slices
func cloneForm(form *types.StructuredResume) *types.StructuredResume {
	cp := *form
	cp.Skills.Technical = append([]string(nil), form.Skills.Technical...)
	cp.Skills.Tools = append([]string(nil), form.Skills.Tools...)
	cp.Skills.Soft = append([]string(nil), form.Skills.Soft...)
	cp.Education = append([]types.EducationEntry(nil), form.Education...)
	cp.Experience = append([]types.ExperienceEntry(nil), form.Experience...)
	cp.Projects = append([]types.ProjectEntry(nil), form.Projects...)
	return &cp
}
