package db

import (
	"database/sql"
	"fmt"

	"github.com/baiirun/tempo/internal/model"
)

// InsertTask persists a new task.
func (db *DB) InsertTask(task *model.Task) error {
	if !task.Status.IsValid() {
		return fmt.Errorf("invalid task status: %d", task.Status)
	}
	if !task.Priority.IsValid() {
		return fmt.Errorf("invalid task priority: %d", task.Priority)
	}

	_, err := db.Exec(`
		INSERT INTO tasks (uuid, timeblock_uuid, name, description, due_date, priority, status, goal_spec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.UUID, task.TimeblockUUID, task.Name, task.Desc,
		task.DueDate, task.Priority, task.Status, task.Goal.Byte(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// LoadTasks retrieves every task owned by a timeblock, in storage order. The
// caller splits them into active and archived lists by status.
func (db *DB) LoadTasks(timeblockUUID string) ([]model.Task, error) {
	rows, err := db.Query(`
		SELECT uuid, timeblock_uuid, name, description, due_date, priority, status, goal_spec
		FROM tasks WHERE timeblock_uuid = ?`, timeblockUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var desc sql.NullString
		var goal int
		err := rows.Scan(&t.UUID, &t.TimeblockUUID, &t.Name, &desc,
			&t.DueDate, &t.Priority, &t.Status, &goal)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.Desc = desc.String
		t.Goal = model.GoalSpecFromByte(byte(goal))
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask overwrites a stored task.
func (db *DB) UpdateTask(task *model.Task) error {
	if !task.Status.IsValid() {
		return fmt.Errorf("invalid task status: %d", task.Status)
	}
	if !task.Priority.IsValid() {
		return fmt.Errorf("invalid task priority: %d", task.Priority)
	}

	result, err := db.Exec(`
		UPDATE tasks
		SET timeblock_uuid = ?, name = ?, description = ?, due_date = ?, priority = ?, status = ?, goal_spec = ?
		WHERE uuid = ?`,
		task.TimeblockUUID, task.Name, task.Desc, task.DueDate,
		task.Priority, task.Status, task.Goal.Byte(), task.UUID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %s", task.UUID)
	}
	return nil
}

// DeleteTask removes a task. Its habit entries cascade.
func (db *DB) DeleteTask(uuid string) error {
	result, err := db.Exec(`DELETE FROM tasks WHERE uuid = ?`, uuid)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %s", uuid)
	}
	return nil
}
