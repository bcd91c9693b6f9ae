package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tripweave/contexts/trip-planning/commitment-engine/adapters/memory"
	"tripweave/contexts/trip-planning/commitment-engine/application/workers"
	"tripweave/contexts/trip-planning/commitment-engine/ports"
)

type capturePublisher struct {
	published []ports.EventEnvelope
	fail      bool
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func appendEnvelope(t *testing.T, store *memory.Store, eventID string, eventType string) {
	t.Helper()
	data, _ := json.Marshal(map[string]string{"block_id": "block-1"})
	err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC(),
		SourceService: "commitment-engine",
		SchemaVersion: 1,
		PartitionKey:  "block-1",
		Data:          data,
	})
	if err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
}

func TestOutboxRelayPublishesAndDrains(t *testing.T) {
	store := memory.NewStore()
	appendEnvelope(t, store, "event-1", "commitment.created")
	appendEnvelope(t, store, "event-2", "commitment.removed")

	publisher := &capturePublisher{}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		BatchSize: 10,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 events published, got %d", len(publisher.published))
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, got %d pending", len(pending))
	}

	// A second cycle with nothing pending is a no-op.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("idle relay run failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("idle cycle must not republish, got %d", len(publisher.published))
	}
}

func TestOutboxRelayLeavesRowsPendingOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	appendEnvelope(t, store, "event-1", "commitment.created")

	publisher := &capturePublisher{fail: true}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		BatchSize: 10,
	}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected relay error on publish failure")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed publish must leave the row pending, got %d", len(pending))
	}
}
