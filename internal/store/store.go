// Package store is the client's single source of truth for lists, todos,
// chat history and the token-usage snapshot. Mutations are synchronous and
// atomic per call; reminder scheduling is a fire-and-forget side effect
// that never fails a mutation.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/models"
	"github.com/voxtodo/voxtodo/internal/notify"
	"go.uber.org/zap"
)

// Store owns all local state. Every mutation takes the store lock, applies
// the change, refreshes the todo-id index, persists a snapshot and fires
// reminder side effects.
type Store struct {
	mu      sync.Mutex
	path    string
	lists   []*models.List
	index   map[uuid.UUID]uuid.UUID // todo id -> owning list id
	history []models.ChatMessage
	usage   *models.UsageSnapshot

	notifier notify.Scheduler
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads a store from its snapshot file, starting empty when the file
// does not exist yet. An empty path keeps the store memory-only.
func Open(path string, notifier notify.Scheduler, log *zap.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		path:     path,
		index:    make(map[uuid.UUID]uuid.UUID),
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	s.rebuildIndex()
	return s, nil
}

// rebuildIndex recomputes the todo-id index from the lists. Caller holds
// the lock (or the store is not yet shared).
func (s *Store) rebuildIndex() {
	s.index = make(map[uuid.UUID]uuid.UUID)
	for _, list := range s.lists {
		for _, todo := range list.Items {
			s.index[todo.ID] = list.ID
		}
	}
}

func (s *Store) findList(id uuid.UUID) *models.List {
	for _, list := range s.lists {
		if list.ID == id {
			return list
		}
	}
	return nil
}

func (s *Store) listName(id uuid.UUID) string {
	if list := s.findList(id); list != nil {
		return list.Name
	}
	return ""
}

// Lists returns a deep copy of all lists in order.
func (s *Store) Lists() []*models.List {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.List, 0, len(s.lists))
	for _, list := range s.lists {
		c := *list
		c.Items = append([]models.Todo(nil), list.Items...)
		out = append(out, &c)
	}
	return out
}

// GetList returns a copy of one list, or false when the id is unknown.
func (s *Store) GetList(id uuid.UUID) (*models.List, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.findList(id)
	if list == nil {
		return nil, false
	}
	c := *list
	c.Items = append([]models.Todo(nil), list.Items...)
	return &c, true
}

// AddList creates a new empty list.
func (s *Store) AddList(name string) *models.List {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := models.NewList(name)
	s.lists = append(s.lists, list)
	s.persist()

	c := *list
	return &c
}

// ListPatch holds optional list field updates.
type ListPatch struct {
	Name  *string
	Color *string
}

// UpdateList merges the patch into the matching list. An unknown id is a
// logged no-op.
func (s *Store) UpdateList(id uuid.UUID, patch ListPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.findList(id)
	if list == nil {
		s.logger.Warn("update_list_unknown_id", zap.String("list_id", id.String()))
		return
	}
	if patch.Name != nil {
		list.Name = *patch.Name
	}
	if patch.Color != nil {
		list.Color = *patch.Color
	}
	list.UpdatedAt = s.now()
	s.persist()
}

// RenameList sets a list's name. Dispatcher entry point for the renameList
// tool call.
func (s *Store) RenameList(id uuid.UUID, name string) {
	s.UpdateList(id, ListPatch{Name: &name})
}

// DeleteList removes a list and cancels reminders for every contained
// todo, so no scheduled reminder outlives its list.
func (s *Store) DeleteList(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, list := range s.lists {
		if list.ID != id {
			continue
		}
		for _, todo := range list.Items {
			delete(s.index, todo.ID)
			s.cancelReminder(todo.ID)
		}
		s.lists = append(s.lists[:i], s.lists[i+1:]...)
		s.persist()
		return
	}
	s.logger.Warn("delete_list_unknown_id", zap.String("list_id", id.String()))
}

// AddTodoToList appends a todo. An unknown list id is a logged no-op.
// Schedules a reminder when a future due date is present.
func (s *Store) AddTodoToList(listID uuid.UUID, text string, dueDate *time.Time) *models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.findList(listID)
	if list == nil {
		s.logger.Warn("add_todo_unknown_list", zap.String("list_id", listID.String()))
		return nil
	}

	todo := models.NewTodo(text, dueDate)
	list.Items = append(list.Items, todo)
	list.UpdatedAt = s.now()
	s.index[todo.ID] = list.ID
	s.persist()
	s.scheduleReminder(todo, list.Name)

	c := todo
	return &c
}

// TodoPatch holds optional todo field updates. ClearDue removes the due
// date; it wins over DueDate when both are set.
type TodoPatch struct {
	Text      *string
	Completed *bool
	DueDate   *time.Time
	ClearDue  bool
}

func applyPatch(todo *models.Todo, patch TodoPatch) {
	if patch.Text != nil {
		todo.Text = *patch.Text
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}
	if patch.ClearDue {
		todo.DueDate = nil
	} else if patch.DueDate != nil {
		todo.DueDate = patch.DueDate
	}
}

// UpdateTodo merges the patch into the addressed todo. The existing
// reminder is always cancelled first, then rescheduled iff the resulting
// state has a future due date and is incomplete.
func (s *Store) UpdateTodo(listID, todoID uuid.UUID, patch TodoPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateTodoLocked(listID, todoID, patch)
}

// UpdateTodoByID resolves the owning list through the id index, keeping
// by-id lookups O(1) instead of trusting a first-match scan.
func (s *Store) UpdateTodoByID(todoID uuid.UUID, patch TodoPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listID, ok := s.index[todoID]
	if !ok {
		s.logger.Warn("update_todo_unknown_id", zap.String("todo_id", todoID.String()))
		return
	}
	s.updateTodoLocked(listID, todoID, patch)
}

func (s *Store) updateTodoLocked(listID, todoID uuid.UUID, patch TodoPatch) {
	list := s.findList(listID)
	if list == nil {
		s.logger.Warn("update_todo_unknown_list", zap.String("list_id", listID.String()))
		return
	}
	for i := range list.Items {
		if list.Items[i].ID != todoID {
			continue
		}
		applyPatch(&list.Items[i], patch)
		list.UpdatedAt = s.now()
		s.persist()

		s.cancelReminder(todoID)
		s.scheduleReminder(list.Items[i], list.Name)
		return
	}
	s.logger.Warn("update_todo_unknown_id",
		zap.String("list_id", listID.String()),
		zap.String("todo_id", todoID.String()))
}

// ToggleTodo flips a todo's completion. Completing cancels its reminder;
// un-completing reschedules when a future due date remains.
func (s *Store) ToggleTodo(listID, todoID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.findList(listID)
	if list == nil {
		s.logger.Warn("toggle_todo_unknown_list", zap.String("list_id", listID.String()))
		return
	}
	for i := range list.Items {
		if list.Items[i].ID != todoID {
			continue
		}
		list.Items[i].Completed = !list.Items[i].Completed
		list.UpdatedAt = s.now()
		s.persist()

		s.cancelReminder(todoID)
		s.scheduleReminder(list.Items[i], list.Name)
		return
	}
	s.logger.Warn("toggle_todo_unknown_id",
		zap.String("list_id", listID.String()),
		zap.String("todo_id", todoID.String()))
}

// DeleteTodo removes a todo and cancels its reminder unconditionally.
func (s *Store) DeleteTodo(listID, todoID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteTodoLocked(listID, todoID)
}

// DeleteTodoByID resolves the owning list through the id index.
func (s *Store) DeleteTodoByID(todoID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listID, ok := s.index[todoID]
	if !ok {
		s.logger.Warn("delete_todo_unknown_id", zap.String("todo_id", todoID.String()))
		return
	}
	s.deleteTodoLocked(listID, todoID)
}

func (s *Store) deleteTodoLocked(listID, todoID uuid.UUID) {
	list := s.findList(listID)
	if list == nil {
		s.logger.Warn("delete_todo_unknown_list", zap.String("list_id", listID.String()))
		return
	}
	for i := range list.Items {
		if list.Items[i].ID != todoID {
			continue
		}
		list.Items = append(list.Items[:i], list.Items[i+1:]...)
		list.UpdatedAt = s.now()
		delete(s.index, todoID)
		s.persist()
		s.cancelReminder(todoID)
		return
	}
	s.logger.Warn("delete_todo_unknown_id",
		zap.String("list_id", listID.String()),
		zap.String("todo_id", todoID.String()))
}

// AllTodosWithDueDates returns every todo carrying a due date, annotated
// with its parent list and sorted ascending by due time. Pure read.
func (s *Store) AllTodosWithDueDates() []models.DueTodo {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.DueTodo
	for _, list := range s.lists {
		for _, todo := range list.Items {
			if todo.DueDate == nil {
				continue
			}
			out = append(out, models.DueTodo{
				Todo:     todo,
				ListID:   list.ID,
				ListName: list.Name,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(*out[j].DueDate)
	})
	return out
}

// ReorderLists applies a permutation of list ids. The id set must exactly
// match the current lists or the call is a logged no-op, so a partial
// payload can never drop lists.
func (s *Store) ReorderLists(ids []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) != len(s.lists) {
		s.logger.Warn("reorder_lists_cardinality_mismatch",
			zap.Int("got", len(ids)),
			zap.Int("want", len(s.lists)))
		return
	}

	byID := make(map[uuid.UUID]*models.List, len(s.lists))
	for _, list := range s.lists {
		byID[list.ID] = list
	}

	reordered := make([]*models.List, 0, len(ids))
	for _, id := range ids {
		list, ok := byID[id]
		if !ok {
			s.logger.Warn("reorder_lists_unknown_id", zap.String("list_id", id.String()))
			return
		}
		delete(byID, id)
		reordered = append(reordered, list)
	}

	s.lists = reordered
	s.persist()
}

// ReorderTodosInList applies a permutation of todo ids within one list,
// under the same exact-set rule as ReorderLists.
func (s *Store) ReorderTodosInList(listID uuid.UUID, ids []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.findList(listID)
	if list == nil {
		s.logger.Warn("reorder_todos_unknown_list", zap.String("list_id", listID.String()))
		return
	}
	if len(ids) != len(list.Items) {
		s.logger.Warn("reorder_todos_cardinality_mismatch",
			zap.String("list_id", listID.String()),
			zap.Int("got", len(ids)),
			zap.Int("want", len(list.Items)))
		return
	}

	byID := make(map[uuid.UUID]models.Todo, len(list.Items))
	for _, todo := range list.Items {
		byID[todo.ID] = todo
	}

	reordered := make([]models.Todo, 0, len(ids))
	for _, id := range ids {
		todo, ok := byID[id]
		if !ok {
			s.logger.Warn("reorder_todos_unknown_id", zap.String("todo_id", id.String()))
			return
		}
		delete(byID, id)
		reordered = append(reordered, todo)
	}

	list.Items = reordered
	list.UpdatedAt = s.now()
	s.persist()
}

// TaskInput is one todo in a bulk create. Title is the legacy alias for
// Text kept for older tool-schema versions.
type TaskInput struct {
	Text      string     `json:"text,omitempty"`
	Title     string     `json:"title,omitempty"`
	Completed bool       `json:"completed,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
}

// normalizedText prefers Text and falls back to the legacy Title field.
func (t TaskInput) normalizedText() string {
	if t.Text != "" {
		return t.Text
	}
	return t.Title
}

// CreateListWithTasks creates a list pre-populated with tasks in one
// atomic mutation. Tasks with neither text nor title are skipped.
func (s *Store) CreateListWithTasks(title string, tasks []TaskInput) *models.List {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := models.NewList(title)
	for _, task := range tasks {
		text := task.normalizedText()
		if text == "" {
			s.logger.Warn("create_list_task_without_text", zap.String("list", title))
			continue
		}
		todo := models.NewTodo(text, task.DueDate)
		todo.Completed = task.Completed
		todo.CreatedAt = list.CreatedAt
		list.Items = append(list.Items, todo)
		s.index[todo.ID] = list.ID
	}
	s.lists = append(s.lists, list)
	s.persist()
	for _, todo := range list.Items {
		s.scheduleReminder(todo, list.Name)
	}

	c := *list
	c.Items = append([]models.Todo(nil), list.Items...)
	return &c
}

// CreateTodosInList bulk-appends todos to an existing list. An unknown
// list id is a logged no-op.
func (s *Store) CreateTodosInList(listID uuid.UUID, tasks []TaskInput) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.findList(listID)
	if list == nil {
		s.logger.Warn("create_todos_unknown_list", zap.String("list_id", listID.String()))
		return
	}

	added := make([]models.Todo, 0, len(tasks))
	for _, task := range tasks {
		text := task.normalizedText()
		if text == "" {
			s.logger.Warn("create_todos_task_without_text", zap.String("list_id", listID.String()))
			continue
		}
		todo := models.NewTodo(text, task.DueDate)
		todo.Completed = task.Completed
		list.Items = append(list.Items, todo)
		s.index[todo.ID] = list.ID
		added = append(added, todo)
	}
	if len(added) == 0 {
		return
	}
	list.UpdatedAt = s.now()
	s.persist()
	for _, todo := range added {
		s.scheduleReminder(todo, list.Name)
	}
}

// SetUsageSnapshot caches the gateway's usage summary locally. Never
// authoritative.
func (s *Store) SetUsageSnapshot(snapshot models.UsageSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = &snapshot
	s.persist()
}

// UsageSnapshot returns the cached usage summary, if any.
func (s *Store) UsageSnapshot() (models.UsageSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usage == nil {
		return models.UsageSnapshot{}, false
	}
	return *s.usage, true
}

// scheduleReminder fires the scheduling side effect. Caller holds the
// lock; the scheduler must not call back into the store.
func (s *Store) scheduleReminder(todo models.Todo, listName string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Schedule(todo, listName)
}

func (s *Store) cancelReminder(id uuid.UUID) {
	if s.notifier == nil {
		return
	}
	s.notifier.Cancel(id)
}
