// Package queue defines the message payloads exchanged over the broker and
// the background consumer that turns them into an activity log.
package queue

import "time"

// Actions recorded in MapActivityEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// MapActivityEvent is published whenever a mind map is created, updated or
// deleted. It carries enough for downstream consumers to log or aggregate
// without querying the primary database. The document body itself is not
// included; only its metadata.
type MapActivityEvent struct {
	Action     string `json:"action"`
	MapID      uint64 `json:"map_id"`
	UserID     uint64 `json:"user_id"`
	Title      string `json:"titulo,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// NewMapActivityEvent stamps an event with the current UTC time.
func NewMapActivityEvent(action string, mapID, userID uint64, title string) MapActivityEvent {
	return MapActivityEvent{
		Action:     action,
		MapID:      mapID,
		UserID:     userID,
		Title:      title,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
