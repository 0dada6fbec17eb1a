package model

import "time"

// TaskStatus is the completion state of a task. The same values describe the
// per-day slots of a habit's rolling completion cache, where InProgress means
// "due that day, not yet done".
type TaskStatus int

const (
	StatusIncomplete TaskStatus = iota
	StatusInProgress
	StatusComplete
	StatusHabit
)

func (s TaskStatus) IsValid() bool {
	return s >= StatusIncomplete && s <= StatusHabit
}

// Priority is an ordinal task priority.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityVeryLow
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityVeryHigh
)

func (p Priority) IsValid() bool {
	return p >= PriorityNone && p <= PriorityVeryHigh
}

// CompletedDaysLen is the size of a habit's rolling completion window.
const CompletedDaysLen = 10

// Task is an actionable item: a one-off task driven by its due date, or a
// habit driven by its recurrence goal. Status == StatusHabit iff Goal is meaningful.
type Task struct {
	UUID          string
	TimeblockUUID string
	// PrereqUUID is a non-owning hint to another task. Not persisted.
	PrereqUUID string

	Name     string
	Desc     string
	Priority Priority
	// DueDate is epoch seconds; 0 means undated.
	DueDate int64
	Status  TaskStatus
	Goal    GoalSpec

	// CompletedDays caches the last 10 days of habit completion, most recent
	// first (index 0 = today). Only meaningful for habits; refreshed from
	// storage by the repository.
	CompletedDays [CompletedDaysLen]TaskStatus
}

// IsHabit reports whether this task is recurrence-driven.
func (t *Task) IsHabit() bool {
	return t.Status == StatusHabit
}

// DoneToday reports whether a habit has already been completed today.
func (t *Task) DoneToday() bool {
	return t.IsHabit() && t.CompletedDays[0] == StatusComplete
}

// Midnight truncates a time to 00:00:00 local.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// UpdateDueDate recomputes a habit's due date against the current time.
// No-op for non-habits.
func (t *Task) UpdateDueDate() {
	t.UpdateDueDateAt(time.Now())
}

// UpdateDueDateAt recomputes a habit's due date against now. A habit that is
// already done today owes nothing, so its due date clears. Otherwise a
// day-frequency habit is due at today's midnight when today is a target day,
// and a frequency habit is due today while this week's completion count is
// below its target.
func (t *Task) UpdateDueDateAt(now time.Time) {
	if !t.IsHabit() {
		return
	}

	if t.CompletedDays[0] == StatusComplete {
		t.DueDate = 0
		return
	}

	midnight := Midnight(now).Unix()

	if t.Goal.Mode() == ModeDayFrequency {
		if t.Goal.HasWeekday(int(now.Weekday())) {
			t.DueDate = midnight
		} else {
			t.DueDate = 0
		}
		return
	}

	// Frequency mode: count completions since the most recent Sunday. Slot i
	// represents i days ago, so anything past today's weekday index predates
	// the week.
	daysIntoWeek := int(now.Weekday()) // Sunday = 0
	completed := 0
	for i := 0; i < CompletedDaysLen && i <= daysIntoWeek; i++ {
		if t.CompletedDays[i] == StatusComplete {
			completed++
		}
	}

	if completed < t.Goal.TimesPerWeek() {
		t.DueDate = midnight
	} else {
		t.DueDate = 0
	}
}
