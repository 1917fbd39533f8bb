package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mirilee/daybook/internal/model"
)

// Event names pushed to clients.
const (
	EventConnected = "connected"
	EventPing      = "ping"
	EventTest      = "test"
	EventReminder  = "schedule-reminder"
)

// Event is one named server-push frame. ID is optional and lets clients
// dedupe redeliveries; Data is serialized as JSON.
type Event struct {
	Name string
	ID   string
	Data any
}

// Encode renders the event in text/event-stream framing.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", e.Name)
	if e.ID != "" {
		fmt.Fprintf(&buf, "id: %s\n", e.ID)
	}
	fmt.Fprintf(&buf, "data: %s\n\n", data)
	return buf.Bytes(), nil
}

// ReminderEvent builds the schedule-reminder frame for a due schedule.
func ReminderEvent(s *model.Schedule) Event {
	return Event{
		Name: EventReminder,
		ID:   strconv.FormatInt(s.ID, 10),
		Data: map[string]any{
			"schedule_id": s.ID,
			"title":       s.Title,
			"description": s.Description,
			"date":        s.Date,
			"start_time":  s.StartTime,
			"all_day":     s.AllDay,
		},
	}
}

// TestEvent builds the connectivity-test frame.
func TestEvent(message string) Event {
	return Event{
		Name: EventTest,
		Data: map[string]any{"message": message},
	}
}

func connectedEvent() Event {
	return Event{Name: EventConnected, Data: map[string]any{"status": "ok"}}
}

func pingEvent() Event {
	return Event{Name: EventPing, Data: map[string]any{}}
}
