// Package repo owns the canonical in-memory scheduling model: every
// timeblock with its ranked active tasks and completed archive. All mutation
// flows through the Repository, which persists first, touches memory only on
// success, keeps the urgency ordering intact, and emits a single change
// notification per successful mutation.
package repo

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/baiirun/tempo/internal/model"
)

var (
	// ErrNotFound means the referenced uuid is absent from the in-memory model.
	ErrNotFound = errors.New("not found")
	// ErrInvalidIndex means a timeblock index was out of bounds.
	ErrInvalidIndex = errors.New("invalid timeblock index")
)

// Store is the persistence contract the repository mediates every mutation
// through. *db.DB satisfies it; tests substitute an in-memory fake.
type Store interface {
	InsertTimeblock(tb *model.Timeblock) error
	LoadTimeblocks() ([]model.Timeblock, error)
	UpdateTimeblock(tb *model.Timeblock) error
	DeleteTimeblock(uuid string) error

	InsertTask(task *model.Task) error
	LoadTasks(timeblockUUID string) ([]model.Task, error)
	UpdateTask(task *model.Task) error
	DeleteTask(uuid string) error

	AddHabitEntry(taskUUID, dateISO string) error
	RemoveHabitEntry(taskUUID, dateISO string) error
	HabitEntryExists(taskUUID, dateISO string) (bool, error)
	LoadHabitCompletionPreview(task *model.Task, currentDateISO string) error
}

// Repository mediates between the UI, the in-memory model, and the store.
// It is single-writer: callers invoke its methods sequentially and receive
// copies, never aliases into the model.
type Repository struct {
	store Store
	log   *slog.Logger

	// newID and now are injected so tests can run deterministically.
	newID func() string
	now   func() time.Time

	timeblocks  []model.Timeblock
	subscribers []func()
}

// Option configures a Repository.
type Option func(*Repository)

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) { r.newID = fn }
}

// WithClock overrides the time source used for urgency ordering.
func WithClock(fn func() time.Time) Option {
	return func(r *Repository) { r.now = fn }
}

// New builds a Repository over a store. Call LoadAll to populate it.
func New(store Store, log *slog.Logger, opts ...Option) *Repository {
	r := &Repository{
		store: store,
		log:   log,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers a change listener. Listeners receive no payload and
// must re-read Timeblocks().
func (r *Repository) Subscribe(fn func()) {
	r.subscribers = append(r.subscribers, fn)
}

func (r *Repository) notify() {
	for _, fn := range r.subscribers {
		fn()
	}
}

// Timeblocks returns a snapshot of the model. Task slices are copied so the
// caller cannot alias into repository state.
func (r *Repository) Timeblocks() []model.Timeblock {
	out := make([]model.Timeblock, len(r.timeblocks))
	for i, tb := range r.timeblocks {
		out[i] = tb
		out[i].Tasks = append([]model.Task(nil), tb.Tasks...)
		out[i].ArchivedTasks = append([]model.Task(nil), tb.ArchivedTasks...)
	}
	return out
}

// LoadAll rebuilds the model from storage: timeblocks, then each block's
// tasks split into active and archived, ranked by urgency, with habit
// previews refreshed.
func (r *Repository) LoadAll() error {
	blocks, err := r.store.LoadTimeblocks()
	if err != nil {
		return err
	}

	now := r.now()
	for i := range blocks {
		tasks, err := r.store.LoadTasks(blocks[i].UUID)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.Status == model.StatusComplete {
				blocks[i].ArchivedTasks = append(blocks[i].ArchivedTasks, t)
			} else {
				blocks[i].Tasks = append(blocks[i].Tasks, t)
			}
		}
	}

	r.timeblocks = blocks
	for i := range r.timeblocks {
		tb := &r.timeblocks[i]
		for j := range tb.Tasks {
			if tb.Tasks[j].IsHabit() {
				if err := r.HabitCompletionPreview(&tb.Tasks[j]); err != nil {
					return err
				}
			}
		}
		sortTasksByUrgency(tb.Tasks, now)
	}
	r.sortTimeblocksAt(now)

	r.notify()
	return nil
}

// HabitCompletionPreview refreshes a habit's rolling 10-day completion cache.
// Day-frequency habits get a baseline first: each slot is InProgress on a
// target weekday and Incomplete otherwise, so an unmet target day reads
// differently from an off day. Actual completions from storage then override.
// No-op for non-habits.
func (r *Repository) HabitCompletionPreview(task *model.Task) error {
	if !task.IsHabit() {
		return nil
	}

	now := r.now()
	if task.Goal.Mode() == model.ModeDayFrequency {
		for i := 0; i < model.CompletedDaysLen; i++ {
			day := now.AddDate(0, 0, -i)
			if task.Goal.HasWeekday(int(day.Weekday())) {
				task.CompletedDays[i] = model.StatusInProgress
			} else {
				task.CompletedDays[i] = model.StatusIncomplete
			}
		}
	} else {
		for i := 0; i < model.CompletedDaysLen; i++ {
			task.CompletedDays[i] = model.StatusIncomplete
		}
	}

	if err := r.store.LoadHabitCompletionPreview(task, now.Format("2006-01-02")); err != nil {
		r.log.Error("failed to load habit preview", "task", task.UUID, "error", err)
		return err
	}

	// Due date depends on the overlaid completion data, so recompute last.
	task.UpdateDueDateAt(now)
	return nil
}
