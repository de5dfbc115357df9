package intake

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"resumeflow/internal/types"
)

// minPhoneDigits is the minimum digit count a phone number must contain
// after stripping every non-digit character
const minPhoneDigits = 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// countDigits returns the number of decimal digits in s
func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// ValidateManualEntry checks a manual-entry form against the intake rules and
// returns a field→message map. An empty map means the form is valid. Every
// failing field is reported in the same pass so the caller can surface all
// problems at once.
func ValidateManualEntry(form *types.StructuredResume) map[string]string {
	fields := make(map[string]string)

	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				name, msg := translateFieldError(fe)
				if _, seen := fields[name]; !seen {
					fields[name] = msg
				}
			}
		}
	}

	if form.Phone != "" && countDigits(form.Phone) < minPhoneDigits {
		fields["phone"] = "Phone number must contain at least 10 digits"
	}

	if form.Skills.Empty() {
		fields["skills"] = "Add at least one skill in any category"
	}

	if len(form.Education) == 0 {
		fields["education"] = "Add at least one education entry"
	}
	for _, edu := range form.Education {
		if strings.TrimSpace(edu.School) == "" {
			fields["education"] = "Each education entry needs a school name"
			break
		}
	}

	return fields
}

// translateFieldError maps a validator error onto the form field name and a
// user-facing message
func translateFieldError(fe validator.FieldError) (string, string) {
	switch fe.Field() {
	case "Name":
		return "name", "Name is required"
	case "Email":
		if fe.Tag() == "email" {
			return "email", "Enter a valid email address"
		}
		return "email", "Email is required"
	case "Phone":
		return "phone", "Phone number is required"
	case "Location":
		return "location", "Location is required"
	case "Summary":
		return "summary", "Professional summary is required"
	default:
		return strings.ToLower(fe.Field()), "Invalid value"
	}
}
