package repo

import (
	"fmt"

	"github.com/baiirun/tempo/internal/model"
)

// AddTimeblock persists a timeblock and appends it to the model. Assigns a
// uuid when the block has none.
func (r *Repository) AddTimeblock(tb model.Timeblock) error {
	if tb.UUID == "" {
		tb.UUID = r.newID()
	}

	if err := r.store.InsertTimeblock(&tb); err != nil {
		r.log.Error("failed to persist timeblock", "timeblock", tb.UUID, "error", err)
		return fmt.Errorf("add timeblock: %w", err)
	}

	r.timeblocks = append(r.timeblocks, tb)
	r.log.Debug("added timeblock", "timeblock", tb.UUID, "name", tb.Name)
	r.notify()
	return nil
}

// RemoveTimeblock deletes a timeblock by uuid. Its nested tasks leave the
// model with it; storage cascades the owned rows.
func (r *Repository) RemoveTimeblock(uuid string) error {
	for i := range r.timeblocks {
		if r.timeblocks[i].UUID != uuid {
			continue
		}
		if err := r.store.DeleteTimeblock(uuid); err != nil {
			r.log.Error("failed to delete timeblock", "timeblock", uuid, "error", err)
			return fmt.Errorf("remove timeblock: %w", err)
		}
		r.timeblocks = append(r.timeblocks[:i], r.timeblocks[i+1:]...)
		r.notify()
		return nil
	}

	r.log.Error("timeblock not found", "timeblock", uuid)
	return ErrNotFound
}

// UpdateTimeblock overwrites a timeblock's attributes, located by uuid. The
// block's task lists are repository state and survive the overwrite.
func (r *Repository) UpdateTimeblock(tb model.Timeblock) error {
	var existing *model.Timeblock
	for i := range r.timeblocks {
		if r.timeblocks[i].UUID == tb.UUID {
			existing = &r.timeblocks[i]
			break
		}
	}
	if existing == nil {
		r.log.Error("timeblock not found", "timeblock", tb.UUID)
		return ErrNotFound
	}

	if err := r.store.UpdateTimeblock(&tb); err != nil {
		r.log.Error("failed to update timeblock", "timeblock", tb.UUID, "error", err)
		return fmt.Errorf("update timeblock: %w", err)
	}

	tb.Tasks = existing.Tasks
	tb.ArchivedTasks = existing.ArchivedTasks
	*existing = tb

	r.notify()
	return nil
}
