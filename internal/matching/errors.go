package matching

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError identifies a malformed input field. CandidateID is empty
// when the offending field belongs to the profile or a call argument.
type ValidationError struct {
	CandidateID string
	Field       string
	Reason      string
}

func (e *ValidationError) Error() string {
	if e.CandidateID != "" {
		return fmt.Sprintf("candidate %q: %s: %s", e.CandidateID, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(candidateID, field, reason string) error {
	return &ValidationError{CandidateID: candidateID, Field: field, Reason: reason}
}
