package workflow

import (
	"fmt"

	"resumeflow/internal/types"
)

// notSpecified is the sentinel rendered for absent job-context fields so the
// chat collaborator never sees empty placeholders
const notSpecified = "Not specified"

// chatFallbackReply is appended to the chat ledger in place of a reply when
// the chat collaborator fails
const chatFallbackReply = "Sorry, I couldn't get a response."

// BuildContext renders the chat context block from a canonical record. It is
// a pure function of its input: no session state is read or written, so the
// same record always produces the same context.
func BuildContext(rec *types.CanonicalResumeRecord) string {
	if rec == nil {
		return ""
	}

	title := notSpecified
	company := notSpecified
	description := ""
	if rec.Job != nil {
		if rec.Job.Title != "" {
			title = rec.Job.Title
		}
		if rec.Job.Company != "" {
			company = rec.Job.Company
		}
		description = rec.Job.Description
	}

	return fmt.Sprintf(
		"Resume Text:\n%s\n\nTarget Job Title: %s\nTarget Company: %s\n\nJob Description:\n%s",
		rec.Text, title, company, description)
}
