package validation

import (
	"fmt"
	"strings"
)

// ErrInvalidForm is returned when the submission gate rejects the form. It
// carries the settled state so callers can surface per-field findings.
type ErrInvalidForm struct {
	error
	State State
}

func NewErrInvalidForm(state State) *ErrInvalidForm {
	var parts []string
	for name, field := range state.Fields {
		for _, msg := range field.Errors {
			parts = append(parts, fmt.Sprintf("%s: %s", name, msg.Message))
		}
	}
	return &ErrInvalidForm{
		error: fmt.Errorf("form validation failed: %s", strings.Join(parts, "; ")),
		State: state,
	}
}
