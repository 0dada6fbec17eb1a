package repo

import (
	"sort"
	"time"

	"github.com/baiirun/tempo/internal/model"
)

// nearZero is the threshold below which an urgency counts as "effectively
// done" when choosing a re-insert position.
const nearZero = 1e-9

// pinnedBonus lifts pinned timeblocks above every unpinned block while
// keeping their relative order driven by their own scores.
const pinnedBonus = 1000.0

// insertIndex returns the first position whose task has strictly lower
// urgency than u, so ties land after existing equal-urgency tasks. Appends
// at the end when no such position exists.
func insertIndex(tasks []model.Task, u float64, now time.Time) int {
	for i := range tasks {
		if tasks[i].UrgencyAt(now) < u {
			return i
		}
	}
	return len(tasks)
}

// reinsertIndex is insertIndex with one extra rule: a slot whose existing
// urgency is effectively zero also accepts the task, so revived tasks slot in
// ahead of the dead weight at the tail.
func reinsertIndex(tasks []model.Task, u float64, now time.Time) int {
	for i := range tasks {
		existing := tasks[i].UrgencyAt(now)
		if u > existing || existing <= nearZero {
			return i
		}
	}
	return len(tasks)
}

// sortTasksByUrgency ranks a task list descending by urgency. Stable, so any
// incremental repositioning converges to the same order for fixed scores.
func sortTasksByUrgency(tasks []model.Task, now time.Time) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].UrgencyAt(now) > tasks[j].UrgencyAt(now)
	})
}

// topTaskUrgency scores a timeblock by its most urgent task scaled by the
// block's status weight.
func topTaskUrgency(tb *model.Timeblock, now time.Time) float64 {
	if len(tb.Tasks) == 0 {
		return 0
	}
	score := tb.Tasks[0].UrgencyAt(now) * model.TimeblockStatusWeight(tb.Status)
	if tb.Status == model.TimeblockPinned {
		score += pinnedBonus
	}
	return score
}

// SortTimeblocks re-ranks the top-level list by descending top-task urgency.
func (r *Repository) SortTimeblocks() {
	r.sortTimeblocksAt(r.now())
}

func (r *Repository) sortTimeblocksAt(now time.Time) {
	sort.SliceStable(r.timeblocks, func(i, j int) bool {
		return topTaskUrgency(&r.timeblocks[i], now) > topTaskUrgency(&r.timeblocks[j], now)
	})
}

// SortTasks re-ranks every timeblock's active list by descending urgency.
// Bulk counterpart of the incremental repositioning done per mutation.
func (r *Repository) SortTasks() {
	now := r.now()
	for i := range r.timeblocks {
		sortTasksByUrgency(r.timeblocks[i].Tasks, now)
	}
}
