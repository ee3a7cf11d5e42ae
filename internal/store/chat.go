package store

import (
	"github.com/voxtodo/voxtodo/internal/models"
)

// AddChatMessage appends to the conversation history. A gap longer than
// the session threshold since the newest stored message clears history
// first, modelling a fresh conversation; the result is then truncated to
// the retention limit.
func (s *Store) AddChatMessage(msg models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	if n := len(s.history); n > 0 {
		gap := msg.Timestamp.Sub(s.history[n-1].Timestamp)
		if gap > models.ChatSessionGap {
			s.history = nil
		}
	}

	s.history = append(s.history, msg)
	if len(s.history) > models.ChatHistoryLimit {
		s.history = s.history[len(s.history)-models.ChatHistoryLimit:]
	}
	s.persist()
}

// ChatHistory returns a copy of the stored history.
func (s *Store) ChatHistory() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatMessage(nil), s.history...)
}

// ChatHistoryForAPI maps stored history to the wire shape, dropping
// system entries and internal-only fields.
func (s *Store) ChatHistoryForAPI() []models.WireMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.WireMessage, 0, len(s.history))
	for _, msg := range s.history {
		if msg.Role == models.ChatRoleSystem {
			continue
		}
		out = append(out, msg.Wire())
	}
	return out
}

// ClearChatHistory drops all stored messages.
func (s *Store) ClearChatHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.persist()
}
