package pubsub

import (
	"github.com/google/uuid"
)

// EventType identifies the kind of sync lifecycle event being broadcast.
type EventType string

const (
	EventSyncStarted   EventType = "sync:started"
	EventBodyStarted   EventType = "sync:body_started"
	EventBodyCompleted EventType = "sync:body_completed"
	EventSyncCompleted EventType = "sync:completed"
	EventSyncFailed    EventType = "sync:failed"
	EventNewMeeting    EventType = "sync:new_meeting"
	EventNewPaper      EventType = "sync:new_paper"
)

// SyncEvent is a message broadcast over a sync run's channel, consumed by
// the operator dashboard's websocket handler (§12.3). Emission is always
// best-effort: a failure to publish never aborts the sync (§4.E, §5).
type SyncEvent struct {
	Type      EventType   `json:"type"`
	RunID     uuid.UUID   `json:"run_id"`
	SourceID  uuid.UUID   `json:"source_id"`
	BodyID    *uuid.UUID  `json:"body_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}
