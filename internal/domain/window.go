package domain

import (
	"errors"
	"time"
)

// ErrInvalidWindow is returned when a reporting window ends before it starts.
var ErrInvalidWindow = errors.New("reporting window end must be after start")

// ReportWindow is the half-open interval [Start, End) of ticket creation times.
type ReportWindow struct {
	Start time.Time
	End   time.Time
}

// WeeklyWindow returns the seven days ending at midnight UTC of the day containing now.
func WeeklyWindow(now time.Time) ReportWindow {
	end := now.UTC().Truncate(24 * time.Hour)
	return ReportWindow{Start: end.AddDate(0, 0, -7), End: end}
}

// Validate checks the window bounds.
func (w ReportWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() || !w.End.After(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (w ReportWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
