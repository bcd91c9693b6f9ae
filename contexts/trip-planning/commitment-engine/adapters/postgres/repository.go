package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
	domainerrors "tripweave/contexts/trip-planning/commitment-engine/domain/errors"
	"tripweave/contexts/trip-planning/commitment-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) UpsertVote(ctx context.Context, vote entities.Vote) error {
	row := voteModelFromEntity(vote)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "block_id"},
			{Name: "activity_id"},
			{Name: "member_id"},
		},
		DoUpdates: clause.Assignments(map[string]any{
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("commitment_repo_upsert_vote_failed", create.Error,
			"block_id", strings.TrimSpace(vote.BlockID),
			"activity_id", strings.TrimSpace(vote.ActivityID),
			"member_id", strings.TrimSpace(vote.MemberID),
		)
	}
	return nil
}

func (r *Repository) DeleteVote(ctx context.Context, blockID string, activityID string, memberID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("block_id = ?", strings.TrimSpace(blockID)).
		Where("activity_id = ?", strings.TrimSpace(activityID)).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		Delete(&voteModel{})
	if result.Error != nil {
		return false, r.logError("commitment_repo_delete_vote_failed", result.Error,
			"block_id", strings.TrimSpace(blockID),
			"activity_id", strings.TrimSpace(activityID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListVotesByBlock(ctx context.Context, blockID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("block_id = ?", strings.TrimSpace(blockID)).
		Order("cast_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("commitment_repo_list_votes_failed", err,
			"block_id", strings.TrimSpace(blockID),
		)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertProposal(ctx context.Context, proposal entities.Proposal) error {
	row := proposalModelFromEntity(proposal)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "block_id"},
			{Name: "activity_id"},
		},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("commitment_repo_upsert_proposal_failed", create.Error,
			"block_id", strings.TrimSpace(proposal.BlockID),
			"activity_id", strings.TrimSpace(proposal.ActivityID),
		)
	}
	return nil
}

func (r *Repository) DeleteProposal(ctx context.Context, blockID string, activityID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("block_id = ?", strings.TrimSpace(blockID)).
		Where("activity_id = ?", strings.TrimSpace(activityID)).
		Delete(&proposalModel{})
	if result.Error != nil {
		return false, r.logError("commitment_repo_delete_proposal_failed", result.Error,
			"block_id", strings.TrimSpace(blockID),
			"activity_id", strings.TrimSpace(activityID),
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListProposalsByBlock(ctx context.Context, blockID string) ([]entities.Proposal, error) {
	var rows []proposalModel
	if err := r.db.WithContext(ctx).
		Where("block_id = ?", strings.TrimSpace(blockID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("commitment_repo_list_proposals_failed", err,
			"block_id", strings.TrimSpace(blockID),
		)
	}
	items := make([]entities.Proposal, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeleteProposalsForActivityExcept(
	ctx context.Context,
	tripID string,
	activityID string,
	keepBlockID string,
) (int, error) {
	result := r.db.WithContext(ctx).
		Where("trip_id = ?", strings.TrimSpace(tripID)).
		Where("activity_id = ?", strings.TrimSpace(activityID)).
		Where("block_id <> ?", strings.TrimSpace(keepBlockID)).
		Delete(&proposalModel{})
	if result.Error != nil {
		return 0, r.logError("commitment_repo_prune_proposals_failed", result.Error,
			"trip_id", strings.TrimSpace(tripID),
			"activity_id", strings.TrimSpace(activityID),
			"keep_block_id", strings.TrimSpace(keepBlockID),
		)
	}
	return int(result.RowsAffected), nil
}

// InsertCommit re-verifies block exclusivity at write time: the unique index
// on block_id turns a lost race into a 23505, surfaced as ErrCommitConflict.
func (r *Repository) InsertCommit(ctx context.Context, commit entities.Commit) error {
	row := commitModelFromEntity(commit)
	create := r.db.WithContext(ctx).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrCommitConflict
		}
		return r.logError("commitment_repo_insert_commit_failed", create.Error,
			"trip_id", strings.TrimSpace(commit.TripID),
			"block_id", strings.TrimSpace(commit.BlockID),
			"activity_id", strings.TrimSpace(commit.ActivityID),
		)
	}
	return nil
}

func (r *Repository) GetCommitByBlock(ctx context.Context, blockID string) (entities.Commit, bool, error) {
	var row commitModel
	err := r.db.WithContext(ctx).
		Where("block_id = ?", strings.TrimSpace(blockID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Commit{}, false, nil
		}
		return entities.Commit{}, false, r.logError("commitment_repo_get_commit_failed", err,
			"block_id", strings.TrimSpace(blockID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListCommitsByActivity(ctx context.Context, tripID string, activityID string) ([]entities.Commit, error) {
	var rows []commitModel
	if err := r.db.WithContext(ctx).
		Where("trip_id = ?", strings.TrimSpace(tripID)).
		Where("activity_id = ?", strings.TrimSpace(activityID)).
		Order("committed_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("commitment_repo_list_commits_by_activity_failed", err,
			"trip_id", strings.TrimSpace(tripID),
			"activity_id", strings.TrimSpace(activityID),
		)
	}
	items := make([]entities.Commit, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeleteCommitByBlock(ctx context.Context, blockID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("block_id = ?", strings.TrimSpace(blockID)).
		Delete(&commitModel{})
	if result.Error != nil {
		return false, r.logError("commitment_repo_delete_commit_failed", result.Error,
			"block_id", strings.TrimSpace(blockID),
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) GetTrip(ctx context.Context, tripID string) (ports.TripProjection, error) {
	var row tripProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(tripID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.TripProjection{}, domainerrors.ErrTripNotFound
		}
		return ports.TripProjection{}, r.logError("commitment_repo_get_trip_failed", err,
			"trip_id", strings.TrimSpace(tripID),
		)
	}
	return ports.TripProjection{
		TripID:          row.ID,
		DuplicatePolicy: row.DuplicatePolicy,
	}, nil
}

func (r *Repository) GetMember(ctx context.Context, tripID string, memberID string) (ports.MemberProjection, error) {
	var row memberProjectionModel
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", strings.TrimSpace(tripID)).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.MemberProjection{}, domainerrors.ErrMemberNotFound
		}
		return ports.MemberProjection{}, r.logError("commitment_repo_get_member_failed", err,
			"trip_id", strings.TrimSpace(tripID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return ports.MemberProjection{
		MemberID: row.MemberID,
		TripID:   row.TripID,
		Role:     entities.MemberRole(row.Role),
	}, nil
}

func (r *Repository) GetBlock(ctx context.Context, blockID string) (ports.BlockProjection, error) {
	var row blockProjectionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(blockID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.BlockProjection{}, domainerrors.ErrBlockNotFound
		}
		return ports.BlockProjection{}, r.logError("commitment_repo_get_block_failed", err,
			"block_id", strings.TrimSpace(blockID),
		)
	}
	return ports.BlockProjection{
		BlockID:      row.ID,
		TripID:       row.TripID,
		Label:        row.Label,
		Position:     row.Position,
		VoteOpensAt:  normalizeOptionalTime(row.VoteOpensAt),
		VoteClosesAt: normalizeOptionalTime(row.VoteClosesAt),
	}, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("commitment_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("commitment_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("commitment_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("commitment_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("commitment_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "trip-planning/commitment-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("commitment repository operation failed", fields...)
	return err
}

type voteModel struct {
	BlockID    string    `gorm:"column:block_id;primaryKey"`
	ActivityID string    `gorm:"column:activity_id;primaryKey"`
	MemberID   string    `gorm:"column:member_id;primaryKey"`
	TripID     string    `gorm:"column:trip_id"`
	CastAt     time.Time `gorm:"column:cast_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string {
	return "block_votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		BlockID:    strings.TrimSpace(vote.BlockID),
		ActivityID: strings.TrimSpace(vote.ActivityID),
		MemberID:   strings.TrimSpace(vote.MemberID),
		TripID:     strings.TrimSpace(vote.TripID),
		CastAt:     vote.CastAt.UTC(),
		UpdatedAt:  vote.UpdatedAt.UTC(),
	}
	if row.CastAt.IsZero() {
		row.CastAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CastAt
	}
	return row
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		TripID:     m.TripID,
		BlockID:    m.BlockID,
		ActivityID: m.ActivityID,
		MemberID:   m.MemberID,
		CastAt:     m.CastAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

type proposalModel struct {
	BlockID    string    `gorm:"column:block_id;primaryKey"`
	ActivityID string    `gorm:"column:activity_id;primaryKey"`
	TripID     string    `gorm:"column:trip_id"`
	CreatedBy  string    `gorm:"column:created_by"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (proposalModel) TableName() string {
	return "block_proposals"
}

func proposalModelFromEntity(proposal entities.Proposal) proposalModel {
	row := proposalModel{
		BlockID:    strings.TrimSpace(proposal.BlockID),
		ActivityID: strings.TrimSpace(proposal.ActivityID),
		TripID:     strings.TrimSpace(proposal.TripID),
		CreatedBy:  strings.TrimSpace(proposal.CreatedBy),
		CreatedAt:  proposal.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m proposalModel) toEntity() entities.Proposal {
	return entities.Proposal{
		TripID:     m.TripID,
		BlockID:    m.BlockID,
		ActivityID: m.ActivityID,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

type commitModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	TripID      string    `gorm:"column:trip_id"`
	BlockID     string    `gorm:"column:block_id;uniqueIndex:uq_block_commitments_block_id"`
	ActivityID  string    `gorm:"column:activity_id"`
	CommittedBy string    `gorm:"column:committed_by"`
	CommittedAt time.Time `gorm:"column:committed_at"`
}

func (commitModel) TableName() string {
	return "block_commitments"
}

func commitModelFromEntity(commit entities.Commit) commitModel {
	row := commitModel{
		ID:          strings.TrimSpace(commit.CommitID),
		TripID:      strings.TrimSpace(commit.TripID),
		BlockID:     strings.TrimSpace(commit.BlockID),
		ActivityID:  strings.TrimSpace(commit.ActivityID),
		CommittedBy: strings.TrimSpace(commit.CommittedBy),
		CommittedAt: commit.CommittedAt.UTC(),
	}
	if row.CommittedAt.IsZero() {
		row.CommittedAt = time.Now().UTC()
	}
	return row
}

func (m commitModel) toEntity() entities.Commit {
	return entities.Commit{
		CommitID:    m.ID,
		TripID:      m.TripID,
		BlockID:     m.BlockID,
		ActivityID:  m.ActivityID,
		CommittedBy: m.CommittedBy,
		CommittedAt: m.CommittedAt.UTC(),
	}
}

type tripProjectionModel struct {
	ID              string `gorm:"column:id;primaryKey"`
	DuplicatePolicy string `gorm:"column:duplicate_policy"`
}

func (tripProjectionModel) TableName() string {
	return "trips"
}

type memberProjectionModel struct {
	TripID   string `gorm:"column:trip_id;primaryKey"`
	MemberID string `gorm:"column:member_id;primaryKey"`
	Role     string `gorm:"column:role"`
}

func (memberProjectionModel) TableName() string {
	return "trip_members"
}

type blockProjectionModel struct {
	ID           string     `gorm:"column:id;primaryKey"`
	TripID       string     `gorm:"column:trip_id"`
	Label        string     `gorm:"column:label"`
	Position     int        `gorm:"column:position"`
	VoteOpensAt  *time.Time `gorm:"column:vote_opens_at"`
	VoteClosesAt *time.Time `gorm:"column:vote_closes_at"`
}

func (blockProjectionModel) TableName() string {
	return "trip_blocks"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "commitment_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// SystemClock and UUIDGenerator are the production implementations of the
// engine's time and identity ports.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.ProposalRepository = (*Repository)(nil)
var _ ports.CommitRepository = (*Repository)(nil)
var _ ports.TripDirectory = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
