package event

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/pricesetter/backend/internal/domain/shared"
)

// JournalEntry is one line of the event journal
type JournalEntry struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JournalHandler appends every event it receives to w as a JSON line
type JournalHandler struct {
	mu         sync.Mutex
	w          io.Writer
	serializer *EventSerializer
}

// NewJournalHandler creates a new journal writing to w
func NewJournalHandler(w io.Writer, serializer *EventSerializer) *JournalHandler {
	return &JournalHandler{w: w, serializer: serializer}
}

// EventTypes returns nil so the handler receives every event
func (h *JournalHandler) EventTypes() []string {
	return nil
}

// Handle writes the event as one JSON line
func (h *JournalHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", event.EventType(), err)
	}
	line, err := json.Marshal(JournalEntry{Type: event.EventType(), Payload: payload})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(line, '\n'))
	return err
}

// ReadJournal decodes journal lines back into domain events
func ReadJournal(r io.Reader, serializer *EventSerializer) ([]shared.DomainEvent, error) {
	dec := json.NewDecoder(r)
	var events []shared.DomainEvent
	for dec.More() {
		var entry JournalEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to read journal: %w", err)
		}
		event, err := serializer.Deserialize(entry.Type, entry.Payload)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
