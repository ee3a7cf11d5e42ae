// Package chatctx assembles the outbound payload for one transcript
// round: current state serialized fresh, wrapped with the instruction and
// the caller's local clock.
package chatctx

import (
	"fmt"
	"strings"
	"time"

	"github.com/voxtodo/voxtodo/internal/models"
)

// StateSource is the slice of the store the builder reads. The state is
// re-read on every build; a cached serialization would go stale the
// moment any mutation lands.
type StateSource interface {
	Lists() []*models.List
	ChatHistoryForAPI() []models.WireMessage
}

// Builder constructs chat request payloads from live store state.
type Builder struct {
	source StateSource
	now    func() time.Time
}

// New creates a builder over the given state source.
func New(source StateSource) *Builder {
	return &Builder{source: source, now: time.Now}
}

// WithClock overrides the builder's time source.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// SerializeLists renders all lists as a compact line-oriented block: one
// header line per list, one indented line per item with a completion
// glyph. This is the model's entire view of existing state.
func SerializeLists(lists []*models.List) string {
	if len(lists) == 0 {
		return "(no lists)"
	}

	var sb strings.Builder
	for _, list := range lists {
		fmt.Fprintf(&sb, "list %s %q color=%s items=%d created=%s updated=%s\n",
			list.ID, list.Name, list.Color, len(list.Items),
			list.CreatedAt.Format(time.RFC3339),
			list.UpdatedAt.Format(time.RFC3339))
		for _, todo := range list.Items {
			glyph := "[ ]"
			if todo.Completed {
				glyph = "[x]"
			}
			fmt.Fprintf(&sb, "  %s %s %q created=%s", glyph, todo.ID, todo.Text,
				todo.CreatedAt.Format(time.RFC3339))
			if todo.DueDate != nil {
				fmt.Fprintf(&sb, " due=%s", todo.DueDate.Format(time.RFC3339))
			}
			sb.WriteByte('\n')
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// WrapTranscript combines serialized state, the user's local clock and the
// raw instruction into the delimited transcript the model receives. The
// tags keep "what exists" and "what was asked" unambiguous.
func WrapTranscript(transcript, serializedState string, localTime time.Time) string {
	zone, _ := localTime.Zone()
	var sb strings.Builder
	sb.WriteString("<current_state>\n")
	sb.WriteString(serializedState)
	sb.WriteString("\n</current_state>\n")
	fmt.Fprintf(&sb, "<local_time>%s (%s)</local_time>\n",
		localTime.Format("Monday, January 2, 2006 3:04 PM"), zone)
	sb.WriteString("<user_request>\n")
	sb.WriteString(transcript)
	sb.WriteString("\n</user_request>")
	return sb.String()
}

// Request is one assembled chat round payload.
type Request struct {
	Transcript string               `json:"transcript"`
	History    []models.WireMessage `json:"history,omitempty"`
	Password   string               `json:"password,omitempty"`
}

// Build assembles the request for one round: fresh state serialization,
// wrapped transcript and up to the retained non-system history.
func (b *Builder) Build(transcript string) Request {
	state := SerializeLists(b.source.Lists())
	wrapped := WrapTranscript(transcript, state, b.now())

	history := b.source.ChatHistoryForAPI()
	if len(history) > models.ChatHistoryLimit {
		history = history[len(history)-models.ChatHistoryLimit:]
	}

	return Request{
		Transcript: wrapped,
		History:    history,
	}
}
