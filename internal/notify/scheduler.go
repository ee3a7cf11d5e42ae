// Package notify schedules local due-date reminders. Delivery mechanics
// are platform concerns; the store only needs scheduling bookkeeping that
// never fails a mutation.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voxtodo/voxtodo/internal/models"
	"go.uber.org/zap"
)

// Scheduler is the reminder side-effect surface the store calls into.
// Implementations must treat every call as best-effort; errors are logged
// by the implementation, never returned.
type Scheduler interface {
	// Schedule registers a reminder for the todo, replacing any existing
	// reminder for the same id.
	Schedule(todo models.Todo, listName string)
	// Cancel removes any pending reminder for the id. Cancelling an
	// unknown id is a no-op.
	Cancel(id uuid.UUID)
	// ScheduleAll registers reminders for every eligible todo in a list.
	ScheduleAll(list *models.List)
}

// Reminder is one pending scheduled notification.
type Reminder struct {
	TodoID   uuid.UUID
	Text     string
	ListName string
	FireAt   time.Time
}

// MemoryScheduler keeps pending reminders in memory. It is both the
// default scheduler for the CLI and the observable fake for store tests.
type MemoryScheduler struct {
	mu      sync.Mutex
	pending map[uuid.UUID]Reminder
	logger  *zap.Logger
}

// NewMemoryScheduler creates an empty in-memory scheduler.
func NewMemoryScheduler(log *zap.Logger) *MemoryScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryScheduler{
		pending: make(map[uuid.UUID]Reminder),
		logger:  log,
	}
}

// Schedule registers a reminder when the todo qualifies for one. A todo
// that is completed or has no future due date only clears prior state.
func (s *MemoryScheduler) Schedule(todo models.Todo, listName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !todo.HasActiveReminder(time.Now()) {
		delete(s.pending, todo.ID)
		return
	}

	s.pending[todo.ID] = Reminder{
		TodoID:   todo.ID,
		Text:     todo.Text,
		ListName: listName,
		FireAt:   *todo.DueDate,
	}
	s.logger.Debug("reminder_scheduled",
		zap.String("todo_id", todo.ID.String()),
		zap.Time("fire_at", *todo.DueDate),
	)
}

// Cancel removes a pending reminder.
func (s *MemoryScheduler) Cancel(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; ok {
		delete(s.pending, id)
		s.logger.Debug("reminder_cancelled", zap.String("todo_id", id.String()))
	}
}

// ScheduleAll registers reminders for every eligible todo in the list.
func (s *MemoryScheduler) ScheduleAll(list *models.List) {
	for _, todo := range list.Items {
		s.Schedule(todo, list.Name)
	}
}

// Pending returns a snapshot of pending reminders.
func (s *MemoryScheduler) Pending() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Reminder, 0, len(s.pending))
	for _, r := range s.pending {
		out = append(out, r)
	}
	return out
}

// PendingFor returns the pending reminder for a todo id, if any.
func (s *MemoryScheduler) PendingFor(id uuid.UUID) (Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.pending[id]
	return r, ok
}

var _ Scheduler = (*MemoryScheduler)(nil)
