package domain

import "errors"

var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrDuplicateBooking     = errors.New("duplicate booking number")
	ErrBusinessRule         = errors.New("business rule violation")
	ErrInvalidDate          = errors.New("invalid date, expected YYYY-MM-DD")
	ErrRetrievalUnavailable = errors.New("policy retrieval unavailable")
	ErrCompletionFailed     = errors.New("completion engine failed")
	ErrToolRoundsExceeded   = errors.New("too many tool call rounds")
)

// RuleViolation is returned when a mutation is attempted inside a
// disallowed window. Its message is shown to the customer as is.
type RuleViolation struct {
	Reason string
}

func (e *RuleViolation) Error() string {
	return e.Reason
}

// Is makes errors.Is(err, ErrBusinessRule) hold for every violation
func (e *RuleViolation) Is(target error) bool {
	return target == ErrBusinessRule
}
