package pubsub

import (
	"context"

	"github.com/google/uuid"
	"github.com/mandari/oparlsync/internal/cache"
	"github.com/mandari/oparlsync/internal/logger"
)

// EventSink is the collaborator the orchestrator emits lifecycle events
// through (§6.2). Emission is always fire-and-forget: a sink failure is
// logged and swallowed, never surfaced as a sync error (§4.E).
type EventSink interface {
	SyncStarted(ctx context.Context, runID, sourceID uuid.UUID, full bool)
	BodyCompleted(ctx context.Context, runID, sourceID, bodyID uuid.UUID, payload interface{})
	SyncCompleted(ctx context.Context, runID, sourceID uuid.UUID, payload interface{})
	SyncFailed(ctx context.Context, runID, sourceID uuid.UUID, err error)
	NewMeeting(ctx context.Context, runID, sourceID, bodyID uuid.UUID, externalID string)
	NewPaper(ctx context.Context, runID, sourceID, bodyID uuid.UUID, externalID string)
}

type redisEventSink struct {
	ps  PubSub
	log logger.Logger
}

// NewEventSink wraps a PubSub transport as an EventSink, publishing every
// event onto that run's channel (§12.3's dashboard websocket subscribes to
// the same channel).
func NewEventSink(ps PubSub, log logger.Logger) EventSink {
	return &redisEventSink{ps: ps, log: log}
}

func (s *redisEventSink) publish(ctx context.Context, runID uuid.UUID, event SyncEvent) {
	if err := s.ps.Publish(ctx, cache.ChannelSyncRun(runID), event); err != nil {
		s.log.Warn("failed to publish sync event", "run_id", runID, "type", event.Type, "error", err)
	}
}

func (s *redisEventSink) SyncStarted(ctx context.Context, runID, sourceID uuid.UUID, full bool) {
	s.publish(ctx, runID, SyncEvent{Type: EventSyncStarted, RunID: runID, SourceID: sourceID, Payload: map[string]bool{"full": full}})
}

func (s *redisEventSink) BodyCompleted(ctx context.Context, runID, sourceID, bodyID uuid.UUID, payload interface{}) {
	s.publish(ctx, runID, SyncEvent{Type: EventBodyCompleted, RunID: runID, SourceID: sourceID, BodyID: &bodyID, Payload: payload})
}

func (s *redisEventSink) SyncCompleted(ctx context.Context, runID, sourceID uuid.UUID, payload interface{}) {
	s.publish(ctx, runID, SyncEvent{Type: EventSyncCompleted, RunID: runID, SourceID: sourceID, Payload: payload})
}

func (s *redisEventSink) SyncFailed(ctx context.Context, runID, sourceID uuid.UUID, err error) {
	s.publish(ctx, runID, SyncEvent{Type: EventSyncFailed, RunID: runID, SourceID: sourceID, Payload: map[string]string{"error": err.Error()}})
}

func (s *redisEventSink) NewMeeting(ctx context.Context, runID, sourceID, bodyID uuid.UUID, externalID string) {
	s.publish(ctx, runID, SyncEvent{Type: EventNewMeeting, RunID: runID, SourceID: sourceID, BodyID: &bodyID, Payload: map[string]string{"external_id": externalID}})
}

func (s *redisEventSink) NewPaper(ctx context.Context, runID, sourceID, bodyID uuid.UUID, externalID string) {
	s.publish(ctx, runID, SyncEvent{Type: EventNewPaper, RunID: runID, SourceID: sourceID, BodyID: &bodyID, Payload: map[string]string{"external_id": externalID}})
}

// NopEventSink discards every event; used in tests.
type NopEventSink struct{}

func (NopEventSink) SyncStarted(context.Context, uuid.UUID, uuid.UUID, bool)                  {}
func (NopEventSink) BodyCompleted(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, interface{}) {}
func (NopEventSink) SyncCompleted(context.Context, uuid.UUID, uuid.UUID, interface{})          {}
func (NopEventSink) SyncFailed(context.Context, uuid.UUID, uuid.UUID, error)                   {}
func (NopEventSink) NewMeeting(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, string)       {}
func (NopEventSink) NewPaper(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, string)         {}
