package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultDateLayout is used for due-date labels unless configured otherwise.
const DefaultDateLayout = "Jan 2, 2006"

// ParseDue parses user input for a due date. Empty input means no due date.
// Accepts YYYY-MM-DD (midnight UTC) or RFC 3339.
func ParseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("parse due date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return &t, nil
}

// FormatDueInput renders a due date back into the form ParseDue accepts.
func FormatDueInput(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// DueLabel is the localized label shown next to a todo, or "" when undated.
func DueLabel(t Todo, layout string) string {
	if !t.HasDue() {
		return ""
	}
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.DueDate.Local().Format(layout)
}
