package model

import (
	"fmt"
	"time"
)

// Urgency tuning constants. These were tuned by hand against real usage;
// treat them as data, not something to derive.
const (
	overduePressure = 100.0
	pressureK       = 7.0
	undatedPenalty  = 0.8
	minHoursLeft    = 1.0 / 60.0
)

// PriorityWeight maps a priority to its numeric urgency weight. The spacing
// is intentionally uneven.
func PriorityWeight(p Priority) float64 {
	switch p {
	case PriorityVeryLow:
		return 1
	case PriorityLow:
		return 3
	case PriorityMedium:
		return 4
	case PriorityHigh:
		return 5
	case PriorityVeryHigh:
		return 7
	default:
		return 0
	}
}

// StatusWeight maps a task status to its urgency multiplier. Started work is
// rewarded over untouched work so it gets finished.
func StatusWeight(s TaskStatus) float64 {
	switch s {
	case StatusIncomplete:
		return 1.0
	case StatusInProgress:
		return 1.5
	case StatusHabit:
		return 0.8
	case StatusComplete:
		return 0.0
	default:
		return 0.0
	}
}

// DeadlinePressure converts time-to-due into a multiplier. Overdue items get
// a flat maximum rather than an unbounded curve; items due within the next
// minute are floored so pressure stays finite.
func DeadlinePressure(now time.Time, dueDate int64) float64 {
	hoursLeft := float64(dueDate-now.Unix()) / 3600.0
	if hoursLeft <= 0 {
		return overduePressure
	}
	if hoursLeft < minHoursLeft {
		hoursLeft = minHoursLeft
	}
	return pressureK / hoursLeft
}

// Urgency scores the task against the current time.
func (t *Task) Urgency() float64 {
	return t.UrgencyAt(time.Now())
}

// UrgencyAt scores the task against now: priority weight scaled by deadline
// pressure and status weight. Unprioritized tasks and habits already done
// today score exactly zero.
func (t *Task) UrgencyAt(now time.Time) float64 {
	if t.Priority == PriorityNone {
		return 0
	}
	if t.DoneToday() {
		return 0
	}

	w := PriorityWeight(t.Priority) * StatusWeight(t.Status)
	if t.DueDate == 0 {
		return w * undatedPenalty
	}
	return w * DeadlinePressure(now, t.DueDate)
}

// PriorityString renders a priority for display.
func (t *Task) PriorityString() string {
	switch t.Priority {
	case PriorityNone:
		return "None"
	case PriorityVeryLow:
		return "Very Low"
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityVeryHigh:
		return "Very High"
	default:
		return "Unknown"
	}
}

// PriorityChar renders a priority as a single character for narrow columns.
func (t *Task) PriorityChar() byte {
	switch t.Priority {
	case PriorityNone:
		return '-'
	case PriorityVeryLow:
		return 'v'
	case PriorityLow:
		return 'l'
	case PriorityMedium:
		return 'm'
	case PriorityHigh:
		return 'h'
	case PriorityVeryHigh:
		return 'H'
	default:
		return '?'
	}
}

// DueDateString renders the due date with context-sensitive precision: just
// the time when due within 24 hours, weekday and time within 7 days,
// otherwise the date. Undated renders as "N/A".
func (t *Task) DueDateString() string {
	return t.dueDateStringAt(time.Now())
}

func (t *Task) dueDateStringAt(now time.Time) string {
	if t.DueDate == 0 {
		return "N/A"
	}

	due := time.Unix(t.DueDate, 0)
	left := due.Sub(now)
	switch {
	case left < 24*time.Hour:
		return due.Format("3:04 PM")
	case left < 7*24*time.Hour:
		return due.Format("Mon 3:04 PM")
	default:
		return due.Format("2006-01-02")
	}
}

// DueDateFullString renders the due date with full date and time.
func (t *Task) DueDateFullString() string {
	if t.DueDate == 0 {
		return "N/A"
	}
	return time.Unix(t.DueDate, 0).Format("2006-01-02 3:04:05 PM")
}

// String implements fmt.Stringer for log output.
func (t *Task) String() string {
	return fmt.Sprintf("%s [%s]", t.Name, t.UUID)
}
