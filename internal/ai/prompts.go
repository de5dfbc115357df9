package ai

import "resumeflow/internal/types"

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	ScoreResume string
	EnhanceText string
	ChatAssist  string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	ScoreResume string
	EnhanceText string
	ChatAssist  string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	ScoreResume: `You are an expert ATS (Applicant Tracking System) analyst and resume reviewer with a strict commitment to honesty and consistency. Your core principles are:

- Score the resume exactly as submitted; never assume unstated skills or experience
- Apply the same rubric on every call so scores are comparable across revisions
- Ground every piece of feedback in specific text from the resume
- Distinguish critical gaps from nice-to-have improvements

Your expertise includes:
- Keyword and semantic matching against job descriptions
- Resume structure and formatting compliance
- Hiring practices and industry standards`,

	EnhanceText: `You are an expert resume writer with a strict commitment to honesty and accuracy. Your core principles are:

- NEVER invent, exaggerate, or misattribute any skills, metrics, or experiences
- Every claim in your output must be directly traceable to the input text
- Preserve the structure and ordering of the input; improve only the wording
- Write in concise, achievement-oriented language with strong action verbs

You rewrite resume text to be clearer and more impactful while keeping every fact intact.`,

	ChatAssist: `You are a friendly, knowledgeable career assistant helping a candidate improve their resume and prepare for a specific job application. Your role is to:

- Answer questions about the candidate's resume and target job
- Give practical, specific advice grounded in the provided context
- Be encouraging but honest about gaps and weaknesses
- Keep responses focused and conversational

If the question is unrelated to careers, resumes, or the target job, politely steer the conversation back.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	ScoreResume: `Please score the provided resume against the job description and produce a complete analysis.

**Tasks:**

1. **Overall Score** (0-100):
   Simulate an ATS score for the resume against the job description. If the job description is empty, score the resume on general quality alone.

2. **Summary and Feedback**:
   Summarize the result in two or three sentences, then list specific, actionable feedback items ordered by impact.

3. **Section Scores**:
   Score each major section (summary, skills, experience, education, projects) from 0 to 100.

4. **Compliance Checks**:
   Verify parseability, contact information, bullet point usage, length, date format consistency, and formatting hazards such as tables or special characters.

5. **Keyword Analysis**:
   Extract the hard and soft skills matched against the job description, list critical and recommended missing keywords, and flag keyword stuffing or unexplained acronyms.

6. **Content Analysis**:
   Assess reverse-chronological ordering and action verb strength, list spelling errors, group skills by proficiency signal, and give education-specific feedback.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	EnhanceText: `%s

Return only the improved resume text. Do not add commentary, headers, or markdown fences. Keep the same overall structure and section ordering as the input.

**Resume Text:**
-----
%s
-----

**Job Description (context only - never copy requirements the candidate does not meet):**
-----
%s
-----`,

	ChatAssist: `Use the following candidate context to answer the question.

**Candidate Context:**
-----
%s
-----

**Question:**
%s`,
}

// enhancementInstructions maps each enhancement kind to the task line that
// heads the enhance user prompt.
var enhancementInstructions = map[types.EnhancementKind]string{
	types.EnhanceGrammar: `Fix all grammar, spelling, punctuation, and capitalization errors in the resume text below. Do not change the meaning, facts, or phrasing beyond what correctness requires.`,

	types.EnhanceKeywords: `Weave relevant keywords from the job description into the resume text below, but only where the underlying skill or experience already exists in the text. Never add a keyword for a skill the candidate does not demonstrate.`,

	types.EnhanceGeneral: `Improve the overall quality of the resume text below: strengthen weak phrasing, tighten wordy sentences, fix errors, and surface quantifiable impact that is already present but buried.`,

	types.EnhanceSummary: `Rewrite the professional summary in the resume text below to be a compelling two-to-three sentence pitch, drawing only on skills and experience stated elsewhere in the text.`,

	types.EnhanceBulletPoints: `Rewrite the bullet points in the resume text below to lead with strong action verbs and emphasize measurable outcomes. Keep every fact and metric exactly as stated.`,
}

// EnhancementInstruction returns the task instruction for a kind, falling
// back to the general instruction for anything unrecognized.
func EnhancementInstruction(kind types.EnhancementKind) string {
	if instr, ok := enhancementInstructions[kind]; ok {
		return instr
	}
	return enhancementInstructions[types.EnhanceGeneral]
}
