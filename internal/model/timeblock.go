package model

import "time"

// TimeblockStatus is the lifecycle state of a timeblock.
type TimeblockStatus int

const (
	// TimeblockOngoing is a timeblock in normal use.
	TimeblockOngoing TimeblockStatus = iota
	// TimeblockStopped was manually stopped before completion. It stays in
	// the list but ranks near the bottom.
	TimeblockStopped
	// TimeblockDone completed as scheduled.
	TimeblockDone
	// TimeblockPinned always sorts to the top of the list.
	TimeblockPinned
)

func (s TimeblockStatus) IsValid() bool {
	return s >= TimeblockOngoing && s <= TimeblockPinned
}

// Timeblock is a named, time-bounded container of tasks: either a single
// event (DayFrequency empty, Start set) or a weekly-recurring slot
// (DayFrequency non-empty, DayStart set).
type Timeblock struct {
	UUID string
	Name string
	Desc string

	// DayFrequency holds the weekdays this block recurs on; empty means a
	// single event.
	DayFrequency GoalSpec
	// Duration is the block length in seconds.
	Duration int64
	// Start is epoch seconds; single events only.
	Start int64
	// DayStart is seconds since midnight; weekly blocks only.
	DayStart int64

	Status TimeblockStatus

	// Tasks is the active list, kept sorted by descending urgency.
	Tasks []Task
	// ArchivedTasks holds completed tasks, most recently completed first.
	ArchivedTasks []Task
}

// TimeblockStatusWeight scales a block's top-task urgency when ranking
// blocks. Stopped is near zero but nonzero so stopped blocks stay visible as
// a last resort once everything else is done. Pinned is 1.0 here; the
// repository sort layers its bonus on top.
func TimeblockStatusWeight(s TimeblockStatus) float64 {
	switch s {
	case TimeblockOngoing, TimeblockPinned:
		return 1.0
	case TimeblockStopped:
		return 0.1
	case TimeblockDone:
		return 0.0
	default:
		return 0.0
	}
}

// IsActiveAt reports whether the block covers the given instant: inside
// [Start, Start+Duration] for single events, or on a matching weekday with
// the time of day inside [DayStart, DayStart+Duration] for weekly blocks.
func (tb *Timeblock) IsActiveAt(now int64) bool {
	if tb.DayFrequency.IsEmpty() {
		return now >= tb.Start && now <= tb.Start+tb.Duration
	}

	t := time.Unix(now, 0)
	if !tb.DayFrequency.HasWeekday(int(t.Weekday())) {
		return false
	}
	secondsToday := int64(t.Hour())*3600 + int64(t.Minute())*60 + int64(t.Second())
	return secondsToday >= tb.DayStart && secondsToday <= tb.DayStart+tb.Duration
}

// Append adds a task to the active list, stamping its owner.
func (tb *Timeblock) Append(t Task) {
	t.TimeblockUUID = tb.UUID
	tb.Tasks = append(tb.Tasks, t)
}

// AppendArchived adds a task to the archive, stamping its owner.
func (tb *Timeblock) AppendArchived(t Task) {
	t.TimeblockUUID = tb.UUID
	tb.ArchivedTasks = append(tb.ArchivedTasks, t)
}
