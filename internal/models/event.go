package models

import (
	"time"
)

// Event types
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Event represents a change to a stored intention
type Event struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	IntentionID string     `json:"intentionId"`
	Timestamp   time.Time  `json:"timestamp"`
	Intention   *Intention `json:"intention,omitempty"` // nil for deletions
}

// EventFilter represents filters for querying events
type EventFilter struct {
	IntentionID string    `form:"intentionId"`
	Type        string    `form:"type"`
	Since       time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit       int       `form:"limit"`
}
