package commands

import (
	"encoding/json"
	"time"

	"tripweave/contexts/trip-planning/commitment-engine/ports"
)

func newCommitmentEnvelope(
	eventID string,
	eventType string,
	blockID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Commitment events are partitioned by block so block-scoped consumers
	// observe commit/uncommit in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "commitment-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "block_id",
		PartitionKey:     blockID,
		Data:             payload,
	}, nil
}
