package repo

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/baiirun/tempo/internal/model"
)

var testNow = time.Date(2025, time.June, 9, 12, 0, 0, 0, time.Local) // a Monday, noon

var errStorage = errors.New("storage rejected write")

// fakeStore is an in-memory Store with per-operation failure injection.
type fakeStore struct {
	timeblocks []model.Timeblock
	tasks      []model.Task
	entries    map[string]map[string]bool

	insertTimeblockErr error
	updateTimeblockErr error
	deleteTimeblockErr error
	insertTaskErr      error
	updateTaskErr      error
	deleteTaskErr      error
	habitErr           error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]map[string]bool{}}
}

func (s *fakeStore) InsertTimeblock(tb *model.Timeblock) error {
	if s.insertTimeblockErr != nil {
		return s.insertTimeblockErr
	}
	s.timeblocks = append(s.timeblocks, *tb)
	return nil
}

func (s *fakeStore) LoadTimeblocks() ([]model.Timeblock, error) {
	out := make([]model.Timeblock, len(s.timeblocks))
	for i, tb := range s.timeblocks {
		out[i] = tb
		out[i].Tasks = nil
		out[i].ArchivedTasks = nil
	}
	return out, nil
}

func (s *fakeStore) UpdateTimeblock(tb *model.Timeblock) error {
	if s.updateTimeblockErr != nil {
		return s.updateTimeblockErr
	}
	for i := range s.timeblocks {
		if s.timeblocks[i].UUID == tb.UUID {
			s.timeblocks[i] = *tb
			return nil
		}
	}
	return fmt.Errorf("timeblock not found: %s", tb.UUID)
}

func (s *fakeStore) DeleteTimeblock(uuid string) error {
	if s.deleteTimeblockErr != nil {
		return s.deleteTimeblockErr
	}
	for i := range s.timeblocks {
		if s.timeblocks[i].UUID == uuid {
			s.timeblocks = append(s.timeblocks[:i], s.timeblocks[i+1:]...)
			// Cascade owned tasks
			kept := s.tasks[:0]
			for _, t := range s.tasks {
				if t.TimeblockUUID != uuid {
					kept = append(kept, t)
				}
			}
			s.tasks = kept
			return nil
		}
	}
	return fmt.Errorf("timeblock not found: %s", uuid)
}

func (s *fakeStore) InsertTask(task *model.Task) error {
	if s.insertTaskErr != nil {
		return s.insertTaskErr
	}
	s.tasks = append(s.tasks, *task)
	return nil
}

func (s *fakeStore) LoadTasks(timeblockUUID string) ([]model.Task, error) {
	var out []model.Task
	for _, t := range s.tasks {
		if t.TimeblockUUID == timeblockUUID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateTask(task *model.Task) error {
	if s.updateTaskErr != nil {
		return s.updateTaskErr
	}
	for i := range s.tasks {
		if s.tasks[i].UUID == task.UUID {
			s.tasks[i] = *task
			return nil
		}
	}
	return fmt.Errorf("task not found: %s", task.UUID)
}

func (s *fakeStore) DeleteTask(uuid string) error {
	if s.deleteTaskErr != nil {
		return s.deleteTaskErr
	}
	for i := range s.tasks {
		if s.tasks[i].UUID == uuid {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			delete(s.entries, uuid)
			return nil
		}
	}
	return fmt.Errorf("task not found: %s", uuid)
}

func (s *fakeStore) AddHabitEntry(taskUUID, dateISO string) error {
	if s.habitErr != nil {
		return s.habitErr
	}
	if s.entries[taskUUID] == nil {
		s.entries[taskUUID] = map[string]bool{}
	}
	s.entries[taskUUID][dateISO] = true
	return nil
}

func (s *fakeStore) RemoveHabitEntry(taskUUID, dateISO string) error {
	if s.habitErr != nil {
		return s.habitErr
	}
	delete(s.entries[taskUUID], dateISO)
	return nil
}

func (s *fakeStore) HabitEntryExists(taskUUID, dateISO string) (bool, error) {
	return s.entries[taskUUID][dateISO], nil
}

func (s *fakeStore) LoadHabitCompletionPreview(task *model.Task, currentDateISO string) error {
	day, err := time.ParseInLocation("2006-01-02", currentDateISO, time.Local)
	if err != nil {
		return err
	}
	for i := 0; i < model.CompletedDaysLen; i++ {
		date := day.AddDate(0, 0, -i).Format("2006-01-02")
		if s.entries[task.UUID][date] {
			task.CompletedDays[i] = model.StatusComplete
		} else if task.CompletedDays[i] != model.StatusInProgress {
			task.CompletedDays[i] = model.StatusIncomplete
		}
	}
	return nil
}

// newTestRepo builds a repository over a fake store with a fixed clock and
// deterministic ids (id-1, id-2, ...).
func newTestRepo(t *testing.T) (*Repository, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	n := 0
	r := New(store, logger,
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return r, store
}

// addBlock creates an ongoing timeblock and returns its uuid.
func addBlock(t *testing.T, r *Repository, name string) string {
	t.Helper()
	if err := r.AddTimeblock(model.Timeblock{Name: name}); err != nil {
		t.Fatalf("failed to add timeblock: %v", err)
	}
	blocks := r.Timeblocks()
	return blocks[len(blocks)-1].UUID
}

func TestAddTaskAssignsIDAndOwner(t *testing.T) {
	r, store := newTestRepo(t)
	tbUUID := addBlock(t, r, "Work")

	task := model.Task{Name: "write report", Priority: model.PriorityHigh}
	if err := r.AddTask(task, 0); err != nil {
		t.Fatalf("failed to add task: %v", err)
	}

	got := r.Timeblocks()[0].Tasks
	if len(got) != 1 {
		t.Fatalf("active tasks = %d, want 1", len(got))
	}
	if got[0].UUID == "" {
		t.Error("expected uuid assigned")
	}
	if got[0].TimeblockUUID != tbUUID {
		t.Errorf("timeblock uuid = %q, want %q", got[0].TimeblockUUID, tbUUID)
	}
	if len(store.tasks) != 1 {
		t.Errorf("persisted tasks = %d, want 1", len(store.tasks))
	}
}

func TestAddTaskInvalidIndex(t *testing.T) {
	r, _ := newTestRepo(t)

	if err := r.AddTask(model.Task{Name: "x"}, 0); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("err = %v, want ErrInvalidIndex", err)
	}
	if err := r.AddTask(model.Task{Name: "x"}, -1); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("err = %v, want ErrInvalidIndex", err)
	}
}

func TestAddTaskSortedByUrgency(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")

	due := testNow.Add(2 * time.Hour).Unix()
	mustAdd := func(name string, p model.Priority, due int64) {
		t.Helper()
		if err := r.AddTask(model.Task{Name: name, Priority: p, DueDate: due}, 0); err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
	}

	mustAdd("medium undated", model.PriorityMedium, 0)
	mustAdd("high due soon", model.PriorityHigh, due)
	mustAdd("low undated", model.PriorityLow, 0)

	tasks := r.Timeblocks()[0].Tasks
	wantOrder := []string{"high due soon", "medium undated", "low undated"}
	for i, want := range wantOrder {
		if tasks[i].Name != want {
			t.Errorf("tasks[%d] = %q, want %q", i, tasks[i].Name, want)
		}
	}

	// Descending-urgency invariant
	for i := 1; i < len(tasks); i++ {
		if tasks[i].UrgencyAt(testNow) > tasks[i-1].UrgencyAt(testNow) {
			t.Errorf("tasks[%d] more urgent than tasks[%d]", i, i-1)
		}
	}
}

func TestAddTaskTiesGoAfterExisting(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")

	_ = r.AddTask(model.Task{Name: "first", Priority: model.PriorityMedium}, 0)
	_ = r.AddTask(model.Task{Name: "second", Priority: model.PriorityMedium}, 0)

	tasks := r.Timeblocks()[0].Tasks
	if tasks[0].Name != "first" || tasks[1].Name != "second" {
		t.Errorf("tie order = [%q, %q], want [first, second]", tasks[0].Name, tasks[1].Name)
	}
}

func TestAddTaskPersistFailure(t *testing.T) {
	r, store := newTestRepo(t)
	addBlock(t, r, "Work")

	store.insertTaskErr = errStorage
	err := r.AddTask(model.Task{Name: "x", Priority: model.PriorityHigh}, 0)
	if !errors.Is(err, errStorage) {
		t.Errorf("err = %v, want wrapped errStorage", err)
	}
	if len(r.Timeblocks()[0].Tasks) != 0 {
		t.Error("memory mutated despite persistence failure")
	}
}

func TestRemoveTask(t *testing.T) {
	r, store := newTestRepo(t)
	addBlock(t, r, "Work")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "x", Priority: model.PriorityLow}, 0)

	if err := r.RemoveTask("t-1"); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if len(r.Timeblocks()[0].Tasks) != 0 {
		t.Error("task still in memory")
	}
	if len(store.tasks) != 0 {
		t.Error("task still in storage")
	}
}

func TestRemoveTaskNotFound(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")

	if err := r.RemoveTask("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemoveTaskPersistFailureKeepsMemory(t *testing.T) {
	r, store := newTestRepo(t)
	addBlock(t, r, "Work")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "x", Priority: model.PriorityLow}, 0)

	store.deleteTaskErr = errStorage
	if err := r.RemoveTask("t-1"); !errors.Is(err, errStorage) {
		t.Errorf("err = %v, want wrapped errStorage", err)
	}
	if len(r.Timeblocks()[0].Tasks) != 1 {
		t.Error("memory mutated despite delete failure")
	}
}

func TestUpdateTaskCompleteArchives(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityHigh}, 0)
	_ = r.AddTask(model.Task{UUID: "t-2", Name: "b", Priority: model.PriorityLow}, 0)

	task := r.Timeblocks()[0].Tasks[0] // t-1
	task.Status = model.StatusComplete
	if err := r.UpdateTask(task); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	tb := r.Timeblocks()[0]
	for _, at := range tb.Tasks {
		if at.UUID == "t-1" {
			t.Error("completed task still in active list")
		}
	}
	if len(tb.ArchivedTasks) != 1 || tb.ArchivedTasks[0].UUID != "t-1" {
		t.Fatalf("archived = %v, want [t-1]", tb.ArchivedTasks)
	}
}

func TestUpdateTaskArchiveIsMostRecentFirst(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityLow}, 0)
	_ = r.AddTask(model.Task{UUID: "t-2", Name: "b", Priority: model.PriorityLow}, 0)

	complete := func(uuid string) {
		t.Helper()
		tb := r.Timeblocks()[0]
		for _, task := range tb.Tasks {
			if task.UUID == uuid {
				task.Status = model.StatusComplete
				if err := r.UpdateTask(task); err != nil {
					t.Fatalf("failed to complete %s: %v", uuid, err)
				}
				return
			}
		}
		t.Fatalf("task %s not active", uuid)
	}

	complete("t-1")
	complete("t-2")

	archived := r.Timeblocks()[0].ArchivedTasks
	if archived[0].UUID != "t-2" || archived[1].UUID != "t-1" {
		t.Errorf("archive order = [%s, %s], want [t-2, t-1]", archived[0].UUID, archived[1].UUID)
	}
}

func TestUpdateTaskReviveFromArchive(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityVeryHigh}, 0)
	_ = r.AddTask(model.Task{UUID: "t-2", Name: "b", Priority: model.PriorityVeryLow}, 0)
	_ = r.AddTask(model.Task{UUID: "t-3", Name: "c", Priority: model.PriorityMedium}, 0)

	// Complete t-3, then revive it
	task := r.Timeblocks()[0].Tasks[1] // medium
	task.Status = model.StatusComplete
	if err := r.UpdateTask(task); err != nil {
		t.Fatalf("failed to complete: %v", err)
	}

	task.Status = model.StatusIncomplete
	if err := r.UpdateTask(task); err != nil {
		t.Fatalf("failed to revive: %v", err)
	}

	tb := r.Timeblocks()[0]
	if len(tb.ArchivedTasks) != 0 {
		t.Error("revived task still archived")
	}
	names := []string{tb.Tasks[0].UUID, tb.Tasks[1].UUID, tb.Tasks[2].UUID}
	want := []string{"t-1", "t-3", "t-2"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("tasks[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestUpdateTaskRepositions(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityVeryHigh}, 0)
	_ = r.AddTask(model.Task{UUID: "t-2", Name: "b", Priority: model.PriorityVeryLow}, 0)

	// Raise b above a
	task := r.Timeblocks()[0].Tasks[1]
	task.DueDate = testNow.Add(30 * time.Minute).Unix()
	task.Priority = model.PriorityVeryHigh
	if err := r.UpdateTask(task); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	tasks := r.Timeblocks()[0].Tasks
	if tasks[0].UUID != "t-2" {
		t.Errorf("tasks[0] = %s, want t-2 after urgency bump", tasks[0].UUID)
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")

	err := r.UpdateTask(model.Task{UUID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateTaskPersistFailure(t *testing.T) {
	r, store := newTestRepo(t)
	addBlock(t, r, "Work")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityLow}, 0)

	store.updateTaskErr = errStorage
	task := r.Timeblocks()[0].Tasks[0]
	task.Status = model.StatusComplete
	if err := r.UpdateTask(task); !errors.Is(err, errStorage) {
		t.Errorf("err = %v, want wrapped errStorage", err)
	}

	tb := r.Timeblocks()[0]
	if len(tb.Tasks) != 1 || len(tb.ArchivedTasks) != 0 {
		t.Error("memory mutated despite update failure")
	}
}

func TestMoveTask(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")
	destUUID := addBlock(t, r, "Home")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityLow}, 0)

	if err := r.MoveTask("t-1", destUUID); err != nil {
		t.Fatalf("failed to move: %v", err)
	}

	blocks := r.Timeblocks()
	var src, dest *model.Timeblock
	for i := range blocks {
		switch blocks[i].Name {
		case "Work":
			src = &blocks[i]
		case "Home":
			dest = &blocks[i]
		}
	}
	if len(src.Tasks) != 0 {
		t.Error("task still in source block")
	}
	if len(dest.Tasks) != 1 || dest.Tasks[0].TimeblockUUID != destUUID {
		t.Error("task missing from destination block")
	}
}

func TestMoveTaskDestinationMissing(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityLow}, 0)

	if err := r.MoveTask("t-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if len(r.Timeblocks()[0].Tasks) != 1 {
		t.Error("source block mutated despite missing destination")
	}
}

func TestRemoveTimeblockCascades(t *testing.T) {
	r, store := newTestRepo(t)
	tbUUID := addBlock(t, r, "Work")
	for i := 0; i < 3; i++ {
		_ = r.AddTask(model.Task{UUID: fmt.Sprintf("t-%d", i), Name: "x", Priority: model.PriorityLow}, 0)
	}

	if err := r.RemoveTimeblock(tbUUID); err != nil {
		t.Fatalf("failed to remove timeblock: %v", err)
	}
	if len(r.Timeblocks()) != 0 {
		t.Error("timeblock still in memory")
	}
	if len(store.tasks) != 0 {
		t.Errorf("storage kept %d tasks, want 0 after cascade", len(store.tasks))
	}
}

func TestAddTimeblockPersistFailure(t *testing.T) {
	r, store := newTestRepo(t)

	store.insertTimeblockErr = errStorage
	if err := r.AddTimeblock(model.Timeblock{Name: "x"}); !errors.Is(err, errStorage) {
		t.Errorf("err = %v, want wrapped errStorage", err)
	}
	if len(r.Timeblocks()) != 0 {
		t.Error("memory mutated despite persistence failure")
	}
}

func TestUpdateTimeblockKeepsTasks(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityLow}, 0)

	tb := r.Timeblocks()[0]
	tb.Status = model.TimeblockPinned
	tb.Tasks = nil // callers may pass a bare header
	if err := r.UpdateTimeblock(tb); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	got := r.Timeblocks()[0]
	if got.Status != model.TimeblockPinned {
		t.Errorf("status = %v, want pinned", got.Status)
	}
	if len(got.Tasks) != 1 {
		t.Error("task list lost on timeblock update")
	}
}

func TestSortTimeblocksPinnedFirst(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "A")
	addBlock(t, r, "B")
	addBlock(t, r, "C")

	// B has the hottest task, C is pinned with a mild task, A has nothing
	_ = r.AddTask(model.Task{Name: "hot", Priority: model.PriorityVeryHigh, DueDate: testNow.Add(-time.Hour).Unix()}, 1)
	_ = r.AddTask(model.Task{Name: "mild", Priority: model.PriorityVeryLow}, 2)

	blocks := r.Timeblocks()
	pinned := blocks[2]
	pinned.Status = model.TimeblockPinned
	if err := r.UpdateTimeblock(pinned); err != nil {
		t.Fatalf("failed to pin: %v", err)
	}

	r.SortTimeblocks()

	got := r.Timeblocks()
	want := []string{"C", "B", "A"}
	for i := range want {
		if got[i].Name != want[i] {
			t.Errorf("blocks[%d] = %q, want %q", i, got[i].Name, want[i])
		}
	}
}

func TestSortTasksConvergesWithIncremental(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")

	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityLow}, 0)
	_ = r.AddTask(model.Task{UUID: "t-2", Name: "b", Priority: model.PriorityVeryHigh}, 0)
	_ = r.AddTask(model.Task{UUID: "t-3", Name: "c", Priority: model.PriorityMedium}, 0)

	incremental := r.Timeblocks()[0].Tasks
	r.SortTasks()
	bulk := r.Timeblocks()[0].Tasks

	for i := range incremental {
		if incremental[i].UUID != bulk[i].UUID {
			t.Errorf("order diverged at %d: incremental %s, bulk %s", i, incremental[i].UUID, bulk[i].UUID)
		}
	}
}

func TestNotifyOncePerMutation(t *testing.T) {
	r, store := newTestRepo(t)

	var n int
	r.Subscribe(func() { n++ })

	_ = r.AddTimeblock(model.Timeblock{Name: "Work"})
	if n != 1 {
		t.Errorf("notifications = %d, want 1 after addTimeblock", n)
	}

	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityLow}, 0)
	if n != 2 {
		t.Errorf("notifications = %d, want 2 after addTask", n)
	}

	// Failed mutations stay silent
	store.insertTaskErr = errStorage
	_ = r.AddTask(model.Task{Name: "b", Priority: model.PriorityLow}, 0)
	if n != 2 {
		t.Errorf("notifications = %d, want 2 after failed addTask", n)
	}
}

func TestTimeblocksSnapshotIsolated(t *testing.T) {
	r, _ := newTestRepo(t)
	addBlock(t, r, "Work")
	_ = r.AddTask(model.Task{UUID: "t-1", Name: "a", Priority: model.PriorityLow}, 0)

	snap := r.Timeblocks()
	snap[0].Tasks[0].Name = "mutated"
	snap[0].Name = "mutated"

	got := r.Timeblocks()[0]
	if got.Name != "Work" || got.Tasks[0].Name != "a" {
		t.Error("snapshot mutation leaked into repository state")
	}
}

func TestLoadAll(t *testing.T) {
	r, store := newTestRepo(t)

	store.timeblocks = []model.Timeblock{{UUID: "tb-1", Name: "Work"}}
	store.tasks = []model.Task{
		{UUID: "t-1", TimeblockUUID: "tb-1", Name: "done", Status: model.StatusComplete, Priority: model.PriorityLow},
		{UUID: "t-2", TimeblockUUID: "tb-1", Name: "low", Status: model.StatusIncomplete, Priority: model.PriorityVeryLow},
		{UUID: "t-3", TimeblockUUID: "tb-1", Name: "high", Status: model.StatusIncomplete, Priority: model.PriorityHigh},
	}

	if err := r.LoadAll(); err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	tb := r.Timeblocks()[0]
	if len(tb.Tasks) != 2 || len(tb.ArchivedTasks) != 1 {
		t.Fatalf("split = %d active / %d archived, want 2/1", len(tb.Tasks), len(tb.ArchivedTasks))
	}
	if tb.Tasks[0].UUID != "t-3" {
		t.Errorf("tasks[0] = %s, want t-3 (highest urgency)", tb.Tasks[0].UUID)
	}
	if tb.ArchivedTasks[0].UUID != "t-1" {
		t.Errorf("archived[0] = %s, want t-1", tb.ArchivedTasks[0].UUID)
	}
}
