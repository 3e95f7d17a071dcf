package events

import "time"

// Event types on the bus. The NATS subject is "events.<type>".
const (
	AssistantAnswered  = "ASSISTANT_ANSWERED"
	ChatSessionCleared = "CHAT_SESSION_CLEARED"
	ChatSessionDeleted = "CHAT_SESSION_DELETED"
	ChatSessionTitled  = "CHAT_SESSION_TITLED"
	// RecordChanged is published by the services that own notes, meetings
	// and the other searchable collections.
	RecordChanged = "RECORD_CHANGED"
)

// SubjectPrefix is prepended to every event type
const SubjectPrefix = "events."

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "RECORD_CHANGED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// StringField reads a string payload value, "" when absent or not a string
func StringField(e Event, key string) string {
	v, _ := e.Payload()[key].(string)
	return v
}
