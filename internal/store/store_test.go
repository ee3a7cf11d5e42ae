package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/models"
	"github.com/voxtodo/voxtodo/internal/notify"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *notify.MemoryScheduler) {
	t.Helper()
	sched := notify.NewMemoryScheduler(zap.NewNop())
	s, err := Open("", sched, zap.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s, sched
}

func futureTime(t *testing.T) *time.Time {
	t.Helper()
	due := time.Now().Add(24 * time.Hour)
	return &due
}

func TestStore_AddListAndTodo(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	list := s.AddList("Groceries")
	if list.Name != "Groceries" {
		t.Errorf("expected list name Groceries, got %s", list.Name)
	}
	if list.Color != models.DefaultListColor {
		t.Errorf("expected default color %s, got %s", models.DefaultListColor, list.Color)
	}

	todo := s.AddTodoToList(list.ID, "buy milk", nil)
	if todo == nil {
		t.Fatal("expected todo, got nil")
	}
	if todo.Text != "buy milk" {
		t.Errorf("expected todo text 'buy milk', got %s", todo.Text)
	}

	got, ok := s.GetList(list.ID)
	if !ok {
		t.Fatal("expected list to exist")
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Items))
	}
}

func TestStore_AddTodoUnknownListIsNoOp(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	s.AddList("Groceries")

	todo := s.AddTodoToList(uuid.New(), "orphan", nil)
	if todo != nil {
		t.Errorf("expected nil todo for unknown list, got %+v", todo)
	}
	if len(s.Lists()) != 1 {
		t.Errorf("expected 1 list, got %d", len(s.Lists()))
	}
}

func TestStore_ToggleTodoInvolution(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	list := s.AddList("Work")
	todo := s.AddTodoToList(list.ID, "write report", nil)

	s.ToggleTodo(list.ID, todo.ID)
	got, _ := s.GetList(list.ID)
	if !got.Items[0].Completed {
		t.Error("expected todo completed after first toggle")
	}

	s.ToggleTodo(list.ID, todo.ID)
	got, _ = s.GetList(list.ID)
	if got.Items[0].Completed {
		t.Error("expected todo incomplete after second toggle")
	}
}

func TestStore_ToggleCancelsReminder(t *testing.T) {
	t.Parallel()

	s, sched := newTestStore(t)
	list := s.AddList("Work")
	todo := s.AddTodoToList(list.ID, "call dentist", futureTime(t))

	if _, ok := sched.PendingFor(todo.ID); !ok {
		t.Fatal("expected reminder scheduled for future due date")
	}

	s.ToggleTodo(list.ID, todo.ID)
	if _, ok := sched.PendingFor(todo.ID); ok {
		t.Error("expected reminder cancelled after completion")
	}

	s.ToggleTodo(list.ID, todo.ID)
	if _, ok := sched.PendingFor(todo.ID); !ok {
		t.Error("expected reminder rescheduled after un-completion")
	}
}

func TestStore_DeleteListCancelsChildReminders(t *testing.T) {
	t.Parallel()

	s, sched := newTestStore(t)
	list := s.AddList("Trips")
	a := s.AddTodoToList(list.ID, "book flight", futureTime(t))
	b := s.AddTodoToList(list.ID, "renew passport", futureTime(t))

	if len(sched.Pending()) != 2 {
		t.Fatalf("expected 2 pending reminders, got %d", len(sched.Pending()))
	}

	s.DeleteList(list.ID)

	if len(s.Lists()) != 0 {
		t.Errorf("expected no lists, got %d", len(s.Lists()))
	}
	if len(sched.Pending()) != 0 {
		t.Errorf("expected no pending reminders after list delete, got %d", len(sched.Pending()))
	}
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		if _, ok := sched.PendingFor(id); ok {
			t.Errorf("reminder %s outlived its list", id)
		}
	}
}

func TestStore_DeleteTodoByID(t *testing.T) {
	t.Parallel()

	s, sched := newTestStore(t)
	list := s.AddList("Errands")
	keep := s.AddTodoToList(list.ID, "keep me", nil)
	gone := s.AddTodoToList(list.ID, "delete me", futureTime(t))

	s.DeleteTodoByID(gone.ID)

	got, _ := s.GetList(list.ID)
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 remaining item, got %d", len(got.Items))
	}
	if got.Items[0].ID != keep.ID {
		t.Errorf("wrong todo deleted")
	}
	if _, ok := sched.PendingFor(gone.ID); ok {
		t.Error("expected reminder cancelled on delete")
	}
}

func TestStore_UpdateTodoByID(t *testing.T) {
	t.Parallel()

	s, sched := newTestStore(t)
	first := s.AddList("One")
	second := s.AddList("Two")
	s.AddTodoToList(first.ID, "decoy", nil)
	target := s.AddTodoToList(second.ID, "original", nil)

	text := "updated"
	s.UpdateTodoByID(target.ID, TodoPatch{Text: &text, DueDate: futureTime(t)})

	got, _ := s.GetList(second.ID)
	if got.Items[0].Text != "updated" {
		t.Errorf("expected text updated, got %s", got.Items[0].Text)
	}
	if got.Items[0].DueDate == nil {
		t.Fatal("expected due date set")
	}
	if len(sched.Pending()) != 1 {
		t.Errorf("expected exactly one pending reminder, got %d", len(sched.Pending()))
	}
}

func TestStore_UpdateTodoClearDueWinsOverDueDate(t *testing.T) {
	t.Parallel()

	s, sched := newTestStore(t)
	list := s.AddList("Errands")
	todo := s.AddTodoToList(list.ID, "pick up package", futureTime(t))

	s.UpdateTodo(list.ID, todo.ID, TodoPatch{DueDate: futureTime(t), ClearDue: true})

	got, _ := s.GetList(list.ID)
	if got.Items[0].DueDate != nil {
		t.Error("expected due date cleared")
	}
	if _, ok := sched.PendingFor(todo.ID); ok {
		t.Error("expected reminder cancelled when due date cleared")
	}
}

func TestStore_AllTodosWithDueDatesSorted(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	list := s.AddList("Mixed")
	base := time.Now().Add(time.Hour)
	later := base.Add(2 * time.Hour)
	latest := base.Add(4 * time.Hour)

	s.AddTodoToList(list.ID, "third", &latest)
	s.AddTodoToList(list.ID, "no due", nil)
	s.AddTodoToList(list.ID, "first", &base)
	s.AddTodoToList(list.ID, "second", &later)

	due := s.AllTodosWithDueDates()
	if len(due) != 3 {
		t.Fatalf("expected 3 due todos, got %d", len(due))
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if due[i].Text != w {
			t.Errorf("position %d: expected %s, got %s", i, w, due[i].Text)
		}
		if due[i].ListName != "Mixed" {
			t.Errorf("expected list name Mixed, got %s", due[i].ListName)
		}
	}
}

func TestStore_ReorderLists(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	a := s.AddList("A")
	b := s.AddList("B")
	c := s.AddList("C")

	s.ReorderLists([]uuid.UUID{c.ID, a.ID, b.ID})

	lists := s.Lists()
	want := []string{"C", "A", "B"}
	for i, w := range want {
		if lists[i].Name != w {
			t.Errorf("position %d: expected %s, got %s", i, w, lists[i].Name)
		}
	}
}

func TestStore_ReorderListsRejectsPartialSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ids  func(a, b uuid.UUID) []uuid.UUID
	}{
		{
			name: "too few ids",
			ids:  func(a, _ uuid.UUID) []uuid.UUID { return []uuid.UUID{a} },
		},
		{
			name: "unknown id",
			ids:  func(a, _ uuid.UUID) []uuid.UUID { return []uuid.UUID{a, uuid.New()} },
		},
		{
			name: "duplicated id",
			ids:  func(a, _ uuid.UUID) []uuid.UUID { return []uuid.UUID{a, a} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestStore(t)
			a := s.AddList("A")
			b := s.AddList("B")

			s.ReorderLists(tt.ids(a.ID, b.ID))

			lists := s.Lists()
			if len(lists) != 2 || lists[0].Name != "A" || lists[1].Name != "B" {
				t.Errorf("expected order unchanged, got %d lists", len(lists))
			}
		})
	}
}

func TestStore_ReorderTodosInList(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	list := s.AddList("Order")
	one := s.AddTodoToList(list.ID, "one", nil)
	two := s.AddTodoToList(list.ID, "two", nil)

	s.ReorderTodosInList(list.ID, []uuid.UUID{two.ID, one.ID})

	got, _ := s.GetList(list.ID)
	if got.Items[0].Text != "two" || got.Items[1].Text != "one" {
		t.Errorf("expected reversed order, got %s then %s", got.Items[0].Text, got.Items[1].Text)
	}

	// Partial payload must not drop todos.
	s.ReorderTodosInList(list.ID, []uuid.UUID{one.ID})
	got, _ = s.GetList(list.ID)
	if len(got.Items) != 2 {
		t.Errorf("expected 2 items after rejected reorder, got %d", len(got.Items))
	}
}

func TestStore_CreateListWithTasks(t *testing.T) {
	t.Parallel()

	s, sched := newTestStore(t)
	list := s.CreateListWithTasks("Launch", []TaskInput{
		{Text: "write changelog"},
		{Title: "tag release"}, // legacy field
		{Text: ""},             // skipped
		{Text: "announce", DueDate: futureTime(t)},
	})

	if len(list.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(list.Items))
	}
	if list.Items[1].Text != "tag release" {
		t.Errorf("expected legacy title normalized, got %s", list.Items[1].Text)
	}
	for _, item := range list.Items {
		if !item.CreatedAt.Equal(list.CreatedAt) {
			t.Errorf("expected item CreatedAt to match list CreatedAt")
		}
	}
	if len(sched.Pending()) != 1 {
		t.Errorf("expected 1 reminder for the one dated task, got %d", len(sched.Pending()))
	}
}

func TestStore_CreateTodosInList(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	list := s.AddList("Bulk")
	s.CreateTodosInList(list.ID, []TaskInput{
		{Text: "first"},
		{Completed: true, Title: "second"},
	})

	got, _ := s.GetList(list.ID)
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	if !got.Items[1].Completed {
		t.Error("expected completed flag carried through")
	}

	s.CreateTodosInList(uuid.New(), []TaskInput{{Text: "orphan"}})
	if len(s.Lists()) != 1 {
		t.Errorf("expected unknown list to be a no-op")
	}
}

func TestStore_PersistAndReload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "store.json")

	s, err := Open(path, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	list := s.AddList("Persistent")
	todo := s.AddTodoToList(list.ID, "survives restart", futureTime(t))
	s.SetUsageSnapshot(models.UsageSnapshot{TotalUsed: 1234, MonthlyLimit: models.MonthlyTokenLimit})

	reloaded, err := Open(path, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	lists := reloaded.Lists()
	if len(lists) != 1 || lists[0].Name != "Persistent" {
		t.Fatalf("expected persisted list, got %d lists", len(lists))
	}
	if len(lists[0].Items) != 1 || lists[0].Items[0].ID != todo.ID {
		t.Errorf("expected persisted todo")
	}

	snap, ok := reloaded.UsageSnapshot()
	if !ok {
		t.Fatal("expected persisted usage snapshot")
	}
	if snap.TotalUsed != 1234 {
		t.Errorf("expected TotalUsed 1234, got %d", snap.TotalUsed)
	}

	// Index must be rebuilt from the snapshot: by-id delete works.
	reloaded.DeleteTodoByID(todo.ID)
	got, _ := reloaded.GetList(list.ID)
	if len(got.Items) != 0 {
		t.Errorf("expected by-id delete to work after reload")
	}
}

func TestStore_ListsReturnsCopies(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	list := s.AddList("Immutable")
	s.AddTodoToList(list.ID, "original", nil)

	out := s.Lists()
	out[0].Name = "mutated"
	out[0].Items[0].Text = "mutated"

	got, _ := s.GetList(list.ID)
	if got.Name != "Immutable" {
		t.Error("caller mutation leaked into list name")
	}
	if got.Items[0].Text != "original" {
		t.Error("caller mutation leaked into todo text")
	}
}

func TestStore_UpdateList(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	list := s.AddList("Old")

	name := "New"
	color := "#FF0000"
	s.UpdateList(list.ID, ListPatch{Name: &name, Color: &color})

	got, _ := s.GetList(list.ID)
	if got.Name != "New" || got.Color != "#FF0000" {
		t.Errorf("expected patched list, got name=%s color=%s", got.Name, got.Color)
	}

	s.RenameList(list.ID, "Renamed")
	got, _ = s.GetList(list.ID)
	if got.Name != "Renamed" {
		t.Errorf("expected Renamed, got %s", got.Name)
	}
}
