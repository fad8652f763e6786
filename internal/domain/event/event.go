package event

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Event is a domain event raised by the console after something changed on the API side
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	SubjectID int64          `json:"subject_id"` // salary slip, expense or user id
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// New creates an event with a generated ID and the current timestamp
func New(eventType Type, subjectID int64, payload map[string]any) *Event {
	if payload == nil {
		payload = map[string]any{}
	}
	return &Event{
		ID:        generateID(),
		Type:      eventType,
		SubjectID: subjectID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// WithPayload returns a copy of the event with an added payload entry
func (e *Event) WithPayload(key string, value any) *Event {
	payload := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	cp := *e
	cp.Payload = payload
	return &cp
}

// PayloadString retrieves a string value from the payload
func (e *Event) PayloadString(key string) string {
	if s, ok := e.Payload[key].(string); ok {
		return s
	}
	return ""
}

// PayloadFloat retrieves a numeric value from the payload
func (e *Event) PayloadFloat(key string) float64 {
	switch v := e.Payload[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func generateID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}
