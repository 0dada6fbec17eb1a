package repo

import (
	"fmt"

	"github.com/baiirun/tempo/internal/model"
)

// AddTask persists a task and inserts it into the indexed timeblock's active
// list at its urgency-ranked position. Assigns a uuid when the task has none.
func (r *Repository) AddTask(task model.Task, timeblockIndex int) error {
	if timeblockIndex < 0 || timeblockIndex >= len(r.timeblocks) {
		r.log.Error("invalid timeblock index", "index", timeblockIndex)
		return ErrInvalidIndex
	}
	tb := &r.timeblocks[timeblockIndex]

	if task.UUID == "" {
		task.UUID = r.newID()
	}
	task.TimeblockUUID = tb.UUID

	if err := r.store.InsertTask(&task); err != nil {
		r.log.Error("failed to persist task", "task", task.UUID, "error", err)
		return fmt.Errorf("add task: %w", err)
	}

	now := r.now()
	idx := insertIndex(tb.Tasks, task.UrgencyAt(now), now)
	tb.Tasks = append(tb.Tasks, model.Task{})
	copy(tb.Tasks[idx+1:], tb.Tasks[idx:])
	tb.Tasks[idx] = task

	r.log.Debug("added task", "task", task.UUID, "timeblock", tb.UUID, "position", idx)
	r.notify()
	return nil
}

// RemoveTask deletes a task by uuid. Storage is updated first; memory only
// changes once the delete is confirmed.
func (r *Repository) RemoveTask(uuid string) error {
	for i := range r.timeblocks {
		tb := &r.timeblocks[i]
		for j := range tb.Tasks {
			if tb.Tasks[j].UUID != uuid {
				continue
			}
			if err := r.store.DeleteTask(uuid); err != nil {
				r.log.Error("failed to delete task", "task", uuid, "error", err)
				return fmt.Errorf("remove task: %w", err)
			}
			tb.Tasks = append(tb.Tasks[:j], tb.Tasks[j+1:]...)
			r.notify()
			return nil
		}
	}

	r.log.Error("task not found", "task", uuid)
	return ErrNotFound
}

// UpdateTask overwrites a task located by uuid and re-ranks it. Completing a
// task moves it from the active list to the front of the archive; reviving an
// archived task re-inserts it into the active list by urgency; any other
// change repositions it in place.
func (r *Repository) UpdateTask(task model.Task) error {
	tb, activeIdx, archivedIdx := r.findTask(task.UUID)
	if tb == nil {
		r.log.Error("task not found", "task", task.UUID)
		return ErrNotFound
	}
	task.TimeblockUUID = tb.UUID

	if err := r.store.UpdateTask(&task); err != nil {
		r.log.Error("failed to update task", "task", task.UUID, "error", err)
		return fmt.Errorf("update task: %w", err)
	}

	now := r.now()
	switch {
	case task.Status == model.StatusComplete && archivedIdx < 0:
		// Newly completed: archive at the front, most recent first.
		tb.Tasks = append(tb.Tasks[:activeIdx], tb.Tasks[activeIdx+1:]...)
		tb.ArchivedTasks = append([]model.Task{task}, tb.ArchivedTasks...)

	case archivedIdx >= 0 && task.Status != model.StatusComplete:
		// Revived: back into the active ranking.
		tb.ArchivedTasks = append(tb.ArchivedTasks[:archivedIdx], tb.ArchivedTasks[archivedIdx+1:]...)
		idx := reinsertIndex(tb.Tasks, task.UrgencyAt(now), now)
		tb.Tasks = append(tb.Tasks, model.Task{})
		copy(tb.Tasks[idx+1:], tb.Tasks[idx:])
		tb.Tasks[idx] = task

	case archivedIdx >= 0:
		// Still complete: overwrite in the archive.
		tb.ArchivedTasks[archivedIdx] = task

	default:
		tb.Tasks[activeIdx] = task
		r.repositionTask(tb, activeIdx)
	}

	r.notify()
	return nil
}

// repositionTask moves the task at idx to its urgency-ranked position,
// skipping the move when it is already correctly placed.
func (r *Repository) repositionTask(tb *model.Timeblock, idx int) {
	if len(tb.Tasks) <= 1 {
		return
	}

	now := r.now()
	task := tb.Tasks[idx]
	u := task.UrgencyAt(now)

	target := len(tb.Tasks)
	for i := range tb.Tasks {
		if i == idx {
			continue
		}
		existing := tb.Tasks[i].UrgencyAt(now)
		if u > existing || existing <= nearZero {
			target = i
			break
		}
	}
	if target == idx {
		return
	}

	tb.Tasks = append(tb.Tasks[:idx], tb.Tasks[idx+1:]...)
	if target > idx {
		target--
	}
	tb.Tasks = append(tb.Tasks, model.Task{})
	copy(tb.Tasks[target+1:], tb.Tasks[target:])
	tb.Tasks[target] = task
}

// MoveTask reassigns a task to another timeblock. The destination insert
// happens before the source removal so a task is never lost partway.
func (r *Repository) MoveTask(uuid, destTimeblockUUID string) error {
	srcTb, srcIdx, _ := r.findTask(uuid)
	if srcTb == nil || srcIdx < 0 {
		r.log.Error("task not found", "task", uuid)
		return ErrNotFound
	}

	var destTb *model.Timeblock
	for i := range r.timeblocks {
		if r.timeblocks[i].UUID == destTimeblockUUID {
			destTb = &r.timeblocks[i]
			break
		}
	}
	if destTb == nil {
		r.log.Error("destination timeblock not found", "timeblock", destTimeblockUUID)
		return ErrNotFound
	}

	task := srcTb.Tasks[srcIdx]
	task.TimeblockUUID = destTb.UUID

	if err := r.store.UpdateTask(&task); err != nil {
		r.log.Error("failed to move task", "task", uuid, "error", err)
		return fmt.Errorf("move task: %w", err)
	}

	now := r.now()
	idx := insertIndex(destTb.Tasks, task.UrgencyAt(now), now)
	destTb.Tasks = append(destTb.Tasks, model.Task{})
	copy(destTb.Tasks[idx+1:], destTb.Tasks[idx:])
	destTb.Tasks[idx] = task

	if destTb == srcTb && idx <= srcIdx {
		srcIdx++
	}
	srcTb.Tasks = append(srcTb.Tasks[:srcIdx], srcTb.Tasks[srcIdx+1:]...)

	r.notify()
	return nil
}

// findTask locates a task by uuid across every timeblock. Returns the owning
// block plus the task's index in the active list or the archive; the unused
// index is -1.
func (r *Repository) findTask(uuid string) (tb *model.Timeblock, activeIdx, archivedIdx int) {
	for i := range r.timeblocks {
		b := &r.timeblocks[i]
		for j := range b.Tasks {
			if b.Tasks[j].UUID == uuid {
				return b, j, -1
			}
		}
		for j := range b.ArchivedTasks {
			if b.ArchivedTasks[j].UUID == uuid {
				return b, -1, j
			}
		}
	}
	return nil, -1, -1
}
