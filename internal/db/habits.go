package db

import (
	"fmt"

	"github.com/baiirun/tempo/internal/model"
)

// AddHabitEntry records a completion for a task on a date (YYYY-MM-DD).
// Idempotent: inserting an existing date is a no-op.
func (db *DB) AddHabitEntry(taskUUID, dateISO string) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO habit_entries (task_uuid, date) VALUES (?, ?)`,
		taskUUID, dateISO)
	if err != nil {
		return fmt.Errorf("failed to add habit entry: %w", err)
	}
	return nil
}

// RemoveHabitEntry deletes a completion record. Removing a missing entry is
// not an error.
func (db *DB) RemoveHabitEntry(taskUUID, dateISO string) error {
	_, err := db.Exec(`
		DELETE FROM habit_entries WHERE task_uuid = ? AND date = ?`,
		taskUUID, dateISO)
	if err != nil {
		return fmt.Errorf("failed to remove habit entry: %w", err)
	}
	return nil
}

// HabitEntryExists reports whether a completion exists for a task on a date.
func (db *DB) HabitEntryExists(taskUUID, dateISO string) (bool, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM habit_entries WHERE task_uuid = ? AND date = ?`,
		taskUUID, dateISO).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check habit entry: %w", err)
	}
	return n > 0, nil
}

// LoadHabitCompletionPreview overlays the last 10 calendar days of completion
// data onto the task's rolling cache, most recent first (index 0 = the given
// date). A recorded completion always wins; a slot the caller pre-marked
// InProgress survives when storage reports no completion, so "due but not
// done today" stays distinct from "not due".
func (db *DB) LoadHabitCompletionPreview(task *model.Task, currentDateISO string) error {
	rows, err := db.Query(`
		WITH RECURSIVE days(n, d) AS (
			SELECT 0, date(?)
			UNION ALL
			SELECT n+1, date(d, '-1 day') FROM days WHERE n+1 < ?
		)
		SELECT n, CASE WHEN he.date IS NOT NULL THEN 1 ELSE 0 END AS done
		FROM days
		LEFT JOIN habit_entries he
			ON he.task_uuid = ? AND he.date = d
		ORDER BY n`,
		currentDateISO, model.CompletedDaysLen, task.UUID)
	if err != nil {
		return fmt.Errorf("failed to load habit preview: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var n, done int
		if err := rows.Scan(&n, &done); err != nil {
			return fmt.Errorf("failed to scan habit preview: %w", err)
		}
		if n < 0 || n >= model.CompletedDaysLen {
			continue
		}
		if done != 0 {
			task.CompletedDays[n] = model.StatusComplete
		} else if task.CompletedDays[n] != model.StatusInProgress {
			task.CompletedDays[n] = model.StatusIncomplete
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate habit preview: %w", err)
	}
	return nil
}
