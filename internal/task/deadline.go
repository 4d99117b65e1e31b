package task

import (
	"time"
)

const (
	// DisplayDateLayout is the strict DD/MM/YYYY form users type.
	DisplayDateLayout = "02/01/2006"
	// StorageDateLayout is the canonical YYYY-MM-DD storage form.
	StorageDateLayout = "2006-01-02"
)

type ValidationError struct {
	Reason string
}

const (
	ReasonInvalidFormat = "invalid-format"
	ReasonPastDate      = "past-date"
)

func (e *ValidationError) Error() string {
	return "deadline validation failed: " + e.Reason
}

// ParseDeadline accepts either the storage or the display form.
// time.Parse rejects impossible dates (31/02 and friends) on its own.
func ParseDeadline(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse(StorageDateLayout, s); err == nil {
		return d, true
	}
	if d, err := time.Parse(DisplayDateLayout, s); err == nil {
		return d, true
	}
	return time.Time{}, false
}

// CanonicalDeadline converts a parseable deadline to storage form and
// leaves everything else untouched. Creation does not reject malformed
// deadlines; an unparseable value simply never earns an urgency bonus.
func CanonicalDeadline(s string) string {
	if d, ok := ParseDeadline(s); ok {
		return d.Format(StorageDateLayout)
	}
	return s
}

// DisplayDeadline renders a canonical deadline as DD/MM/YYYY.
func DisplayDeadline(s string) string {
	if d, ok := ParseDeadline(s); ok {
		return d.Format(DisplayDateLayout)
	}
	return s
}

// ValidateEditDeadline enforces the edit-time rules: strict DD/MM/YYYY,
// a real calendar date, and not strictly before today (date only).
func ValidateEditDeadline(s string, now time.Time) error {
	d, err := time.Parse(DisplayDateLayout, s)
	if err != nil {
		return &ValidationError{Reason: ReasonInvalidFormat}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		return &ValidationError{Reason: ReasonPastDate}
	}
	return nil
}
