package errors

import "strings"

// UserError wraps an error with a user-friendly message and an
// actionable suggestion.
type UserError struct {
	// Err is the underlying error.
	Err error

	// Message is a plain description of what went wrong.
	Message string

	// Suggestion is an actionable hint for the user.
	Suggestion string

	// Details provides additional context (optional).
	Details string
}

func (e *UserError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

func (e *UserError) Unwrap() error {
	return e.Err
}
