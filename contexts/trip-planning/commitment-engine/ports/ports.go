package ports

import (
	"context"
	"encoding/json"
	"time"

	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
)

type VoteRepository interface {
	// UpsertVote collapses concurrent casts by the same member for the same
	// activity into one row; last state wins.
	UpsertVote(ctx context.Context, vote entities.Vote) error
	// DeleteVote reports whether a row existed. Deleting an absent vote is
	// not an error.
	DeleteVote(ctx context.Context, blockID string, activityID string, memberID string) (bool, error)
	ListVotesByBlock(ctx context.Context, blockID string) ([]entities.Vote, error)
}

type ProposalRepository interface {
	UpsertProposal(ctx context.Context, proposal entities.Proposal) error
	DeleteProposal(ctx context.Context, blockID string, activityID string) (bool, error)
	ListProposalsByBlock(ctx context.Context, blockID string) ([]entities.Proposal, error)
	// DeleteProposalsForActivityExcept removes the activity's proposals from
	// every block of the trip other than keepBlockID and returns the count.
	DeleteProposalsForActivityExcept(ctx context.Context, tripID string, activityID string, keepBlockID string) (int, error)
}

type CommitRepository interface {
	// InsertCommit is the linearization point for block exclusivity. The
	// store must reject a second commit for the same block with
	// ErrCommitConflict even under concurrent inserts.
	InsertCommit(ctx context.Context, commit entities.Commit) error
	GetCommitByBlock(ctx context.Context, blockID string) (entities.Commit, bool, error)
	ListCommitsByActivity(ctx context.Context, tripID string, activityID string) ([]entities.Commit, error)
	DeleteCommitByBlock(ctx context.Context, blockID string) (bool, error)
}

// TripProjection, MemberProjection, and BlockProjection are read models owned
// by trip/membership management; the engine only consumes them.

type TripProjection struct {
	TripID          string
	DuplicatePolicy string
}

type MemberProjection struct {
	MemberID string
	TripID   string
	Role     entities.MemberRole
}

type BlockProjection struct {
	BlockID      string
	TripID       string
	Label        string
	Position     int
	VoteOpensAt  *time.Time
	VoteClosesAt *time.Time
}

type TripDirectory interface {
	GetTrip(ctx context.Context, tripID string) (TripProjection, error)
	GetMember(ctx context.Context, tripID string, memberID string) (MemberProjection, error)
	GetBlock(ctx context.Context, blockID string) (BlockProjection, error)
}

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
