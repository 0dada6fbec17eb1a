package repo

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// AddHabitEntry records a habit completion for a date (YYYY-MM-DD, local),
// then reloads the task's completion preview and re-ranks it. Adding the same
// date twice is a no-op at the storage layer.
func (r *Repository) AddHabitEntry(taskUUID, dateISO string) error {
	if err := r.store.AddHabitEntry(taskUUID, dateISO); err != nil {
		r.log.Error("failed to persist habit entry", "task", taskUUID, "date", dateISO, "error", err)
		return fmt.Errorf("add habit entry: %w", err)
	}
	return r.refreshHabitTask(taskUUID)
}

// AddHabitEntryAt is AddHabitEntry with the date taken from a time value.
func (r *Repository) AddHabitEntryAt(taskUUID string, date time.Time) error {
	return r.AddHabitEntry(taskUUID, date.Format(dateLayout))
}

// RemoveHabitEntry deletes a habit completion for a date, then reloads the
// task's completion preview and re-ranks it.
func (r *Repository) RemoveHabitEntry(taskUUID, dateISO string) error {
	if err := r.store.RemoveHabitEntry(taskUUID, dateISO); err != nil {
		r.log.Error("failed to remove habit entry", "task", taskUUID, "date", dateISO, "error", err)
		return fmt.Errorf("remove habit entry: %w", err)
	}
	return r.refreshHabitTask(taskUUID)
}

// RemoveHabitEntryAt is RemoveHabitEntry with the date taken from a time value.
func (r *Repository) RemoveHabitEntryAt(taskUUID string, date time.Time) error {
	return r.RemoveHabitEntry(taskUUID, date.Format(dateLayout))
}

// HabitEntryExists is a read-through to storage.
func (r *Repository) HabitEntryExists(taskUUID, dateISO string) (bool, error) {
	return r.store.HabitEntryExists(taskUUID, dateISO)
}

// refreshHabitTask reloads a habit's completion cache from storage and moves
// the task to its new urgency-ranked position.
func (r *Repository) refreshHabitTask(taskUUID string) error {
	tb, activeIdx, _ := r.findTask(taskUUID)
	if tb == nil || activeIdx < 0 {
		r.log.Error("habit task not found", "task", taskUUID)
		return ErrNotFound
	}

	if err := r.HabitCompletionPreview(&tb.Tasks[activeIdx]); err != nil {
		return err
	}
	r.repositionTask(tb, activeIdx)

	r.notify()
	return nil
}
