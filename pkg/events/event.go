package events

import (
	"strings"
	"time"
)

// Event is anything exported to the event bus.
type Event interface {
	// EventType is the subject suffix, e.g. "contract.created".
	EventType() string

	Payload() map[string]interface{}

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

const (
	SubjectPrefix = "events."

	ContractCreated  = "contract.created"
	ChecklistCreated = "checklist.created"
)

// Subject is the bus subject an event is published on.
func Subject(e Event) string {
	return SubjectPrefix + e.EventType()
}

// TypeFromSubject undoes Subject.
func TypeFromSubject(subject string) string {
	return strings.TrimPrefix(subject, SubjectPrefix)
}
