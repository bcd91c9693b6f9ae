package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "tripweave/contexts/trip-planning/commitment-engine/application"
	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
	domainerrors "tripweave/contexts/trip-planning/commitment-engine/domain/errors"
	"tripweave/contexts/trip-planning/commitment-engine/ports"
)

// ResolveCommitCommand is the write-model input for block commitment
// resolution. ManualActivityID bypasses the vote requirement (tie-break or
// organizer override); ConfirmDuplicate acknowledges a soft_block conflict.
type ResolveCommitCommand struct {
	TripID           string
	BlockID          string
	ActorID          string
	ManualActivityID string
	ConfirmDuplicate bool
}

type ResolveStatus string

const (
	ResolveStatusCommitted         ResolveStatus = "committed"
	ResolveStatusTieDetected       ResolveStatus = "tie_detected"
	ResolveStatusNeedsConfirmation ResolveStatus = "needs_confirmation"
)

// ResolveCommitResult reports either the durable commit or the additional
// input the caller must supply on re-invocation. TieDetected and
// NeedsConfirmation write nothing.
type ResolveCommitResult struct {
	Status          ResolveStatus
	Commit          entities.Commit
	Tally           []entities.TallyEntry
	TiedActivityIDs []string
	Conflicts       []entities.CommitConflict
	Policy          entities.DuplicatePolicy
	ProposalsPruned int
}

type UncommitBlockCommand struct {
	TripID  string
	BlockID string
	ActorID string
}

// CommitUseCase orchestrates commitment resolution: organizer authorization,
// one-commit-per-block exclusivity, tally, tie detection, trip-wide duplicate
// policy, atomic persistence, and soft_block proposal cleanup.
type CommitUseCase struct {
	Directory ports.TripDirectory
	Votes     ports.VoteRepository
	Proposals ports.ProposalRepository
	Commits   ports.CommitRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// ResolveCommit runs the resolution pipeline. Every precondition failure
// leaves the store untouched; the only write is the commit insert followed by
// best-effort cleanup and event emission.
func (uc CommitUseCase) ResolveCommit(ctx context.Context, cmd ResolveCommitCommand) (ResolveCommitResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	tripID := strings.TrimSpace(cmd.TripID)
	blockID := strings.TrimSpace(cmd.BlockID)
	actorID := strings.TrimSpace(cmd.ActorID)
	manualActivityID := strings.TrimSpace(cmd.ManualActivityID)

	logger.Info("commit resolution started",
		"event", "commitment_resolve_started",
		"module", "trip-planning/commitment-engine",
		"layer", "application",
		"trip_id", tripID,
		"block_id", blockID,
		"actor_id", actorID,
		"manual_activity_id", manualActivityID,
		"confirm_duplicate", cmd.ConfirmDuplicate,
	)
	if tripID == "" || blockID == "" || actorID == "" {
		return ResolveCommitResult{}, domainerrors.ErrInvalidInput
	}

	policy, block, err := uc.authorizeOrganizer(ctx, tripID, blockID, actorID)
	if err != nil {
		logger.Warn("commit resolution precondition failed",
			"event", "commitment_resolve_precondition_failed",
			"module", "trip-planning/commitment-engine",
			"layer", "application",
			"trip_id", tripID,
			"block_id", blockID,
			"actor_id", actorID,
			"error", err.Error(),
		)
		return ResolveCommitResult{}, err
	}

	if _, exists, err := uc.Commits.GetCommitByBlock(ctx, blockID); err != nil {
		return ResolveCommitResult{}, err
	} else if exists {
		return ResolveCommitResult{}, domainerrors.ErrBlockCommitted
	}

	votes, err := uc.Votes.ListVotesByBlock(ctx, blockID)
	if err != nil {
		return ResolveCommitResult{}, err
	}
	tally := entities.TallyVotes(votes)

	winner := manualActivityID
	if winner == "" {
		if len(tally) == 0 {
			return ResolveCommitResult{}, domainerrors.ErrNoVotes
		}
		leaders := entities.TopOfTally(tally)
		if len(leaders) > 1 {
			logger.Info("commit resolution detected tie",
				"event", "commitment_resolve_tie_detected",
				"module", "trip-planning/commitment-engine",
				"layer", "application",
				"trip_id", tripID,
				"block_id", blockID,
				"tied_count", len(leaders),
			)
			return ResolveCommitResult{
				Status:          ResolveStatusTieDetected,
				Tally:           tally,
				TiedActivityIDs: leaders,
				Policy:          policy,
			}, nil
		}
		winner = leaders[0]
	}

	conflicts, err := uc.findDuplicateCommits(ctx, tripID, blockID, winner)
	if err != nil {
		return ResolveCommitResult{}, err
	}
	switch evaluateDuplicatePolicy(policy, conflicts, cmd.ConfirmDuplicate) {
	case duplicateBlocked:
		logger.Warn("commit resolution blocked by duplicate policy",
			"event", "commitment_resolve_duplicate_blocked",
			"module", "trip-planning/commitment-engine",
			"layer", "application",
			"trip_id", tripID,
			"block_id", blockID,
			"activity_id", winner,
			"conflict_count", len(conflicts),
		)
		return ResolveCommitResult{}, &domainerrors.DuplicateBlockedError{Conflicts: conflicts}
	case duplicateNeedsConfirmation:
		return ResolveCommitResult{
			Status:    ResolveStatusNeedsConfirmation,
			Tally:     tally,
			Conflicts: conflicts,
			Policy:    policy,
		}, nil
	}

	now := uc.now()
	commitID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ResolveCommitResult{}, err
	}
	commit := entities.Commit{
		CommitID:    commitID,
		TripID:      tripID,
		BlockID:     blockID,
		ActivityID:  winner,
		CommittedBy: actorID,
		CommittedAt: now,
	}
	// The insert re-verifies exclusivity at write time: a losing racer gets
	// ErrCommitConflict from the store's unique guard, not a stale read.
	if err := uc.Commits.InsertCommit(ctx, commit); err != nil {
		if errors.Is(err, domainerrors.ErrCommitConflict) {
			logger.Warn("commit resolution lost insert race",
				"event", "commitment_resolve_insert_race_lost",
				"module", "trip-planning/commitment-engine",
				"layer", "application",
				"trip_id", tripID,
				"block_id", blockID,
			)
		}
		return ResolveCommitResult{}, err
	}

	pruned := 0
	if policy == entities.DuplicatePolicySoftBlock {
		pruned = uc.pruneDuplicateProposals(ctx, commit)
	}

	uc.appendCommitEvent(ctx, "commitment.created", commit, now, map[string]any{
		"policy":           string(policy),
		"manual_override":  manualActivityID != "",
		"proposals_pruned": pruned,
	})

	logger.Info("block committed",
		"event", "commitment_resolve_committed",
		"module", "trip-planning/commitment-engine",
		"layer", "application",
		"trip_id", tripID,
		"block_id", blockID,
		"block_label", block.Label,
		"activity_id", winner,
		"committed_by", actorID,
		"policy", string(policy),
		"proposals_pruned", pruned,
	)
	return ResolveCommitResult{
		Status:          ResolveStatusCommitted,
		Commit:          commit,
		Tally:           tally,
		Policy:          policy,
		ProposalsPruned: pruned,
	}, nil
}

// UncommitBlock vacates a block's commitment so it can be resolved again.
// Organizer-only, like resolution itself.
func (uc CommitUseCase) UncommitBlock(ctx context.Context, cmd UncommitBlockCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	tripID := strings.TrimSpace(cmd.TripID)
	blockID := strings.TrimSpace(cmd.BlockID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if tripID == "" || blockID == "" || actorID == "" {
		return domainerrors.ErrInvalidInput
	}

	if _, _, err := uc.authorizeOrganizer(ctx, tripID, blockID, actorID); err != nil {
		return err
	}

	removed, err := uc.Commits.DeleteCommitByBlock(ctx, blockID)
	if err != nil {
		return err
	}
	if !removed {
		return domainerrors.ErrCommitNotFound
	}

	uc.appendCommitEvent(ctx, "commitment.removed", entities.Commit{
		TripID:  tripID,
		BlockID: blockID,
	}, uc.now(), map[string]any{
		"removed_by": actorID,
	})

	logger.Info("block uncommitted",
		"event", "commitment_uncommit_applied",
		"module", "trip-planning/commitment-engine",
		"layer", "application",
		"trip_id", tripID,
		"block_id", blockID,
		"actor_id", actorID,
	)
	return nil
}

func (uc CommitUseCase) authorizeOrganizer(
	ctx context.Context,
	tripID string,
	blockID string,
	actorID string,
) (entities.DuplicatePolicy, ports.BlockProjection, error) {
	member, err := uc.Directory.GetMember(ctx, tripID, actorID)
	if err != nil {
		return "", ports.BlockProjection{}, err
	}
	if member.Role != entities.MemberRoleOrganizer {
		return "", ports.BlockProjection{}, domainerrors.ErrNotOrganizer
	}

	trip, err := uc.Directory.GetTrip(ctx, tripID)
	if err != nil {
		return "", ports.BlockProjection{}, err
	}
	policy, known := entities.NormalizeDuplicatePolicy(trip.DuplicatePolicy)
	if !known {
		return "", ports.BlockProjection{}, domainerrors.ErrInvalidInput
	}

	block, err := uc.Directory.GetBlock(ctx, blockID)
	if err != nil {
		return "", ports.BlockProjection{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(block.TripID), tripID) {
		return "", ports.BlockProjection{}, domainerrors.ErrBlockNotFound
	}
	return policy, block, nil
}

// findDuplicateCommits lists commits of the candidate activity in other
// blocks of the trip, annotated with block labels for user messaging.
func (uc CommitUseCase) findDuplicateCommits(
	ctx context.Context,
	tripID string,
	blockID string,
	activityID string,
) ([]entities.CommitConflict, error) {
	others, err := uc.Commits.ListCommitsByActivity(ctx, tripID, activityID)
	if err != nil {
		return nil, err
	}
	conflicts := make([]entities.CommitConflict, 0)
	for _, other := range others {
		if other.BlockID == blockID {
			continue
		}
		conflict := entities.CommitConflict{
			BlockID:    other.BlockID,
			ActivityID: other.ActivityID,
		}
		if block, err := uc.Directory.GetBlock(ctx, other.BlockID); err == nil {
			conflict.BlockLabel = block.Label
			conflict.Position = block.Position
		}
		conflicts = append(conflicts, conflict)
	}
	return conflicts, nil
}

// pruneDuplicateProposals is the soft_block consistency reactor. Failures are
// logged and swallowed: the commit already stands.
func (uc CommitUseCase) pruneDuplicateProposals(ctx context.Context, commit entities.Commit) int {
	logger := application.ResolveLogger(uc.Logger)
	pruned, err := uc.Proposals.DeleteProposalsForActivityExcept(ctx, commit.TripID, commit.ActivityID, commit.BlockID)
	if err != nil {
		logger.Warn("duplicate proposal cleanup failed; commit stands",
			"event", "commitment_cleanup_failed",
			"module", "trip-planning/commitment-engine",
			"layer", "application",
			"trip_id", commit.TripID,
			"block_id", commit.BlockID,
			"activity_id", commit.ActivityID,
			"error", err.Error(),
		)
		return 0
	}
	if pruned > 0 {
		logger.Info("duplicate proposals pruned",
			"event", "commitment_cleanup_applied",
			"module", "trip-planning/commitment-engine",
			"layer", "application",
			"trip_id", commit.TripID,
			"block_id", commit.BlockID,
			"activity_id", commit.ActivityID,
			"pruned_count", pruned,
		)
	}
	return pruned
}

// appendCommitEvent is best-effort: the durable commit must stand even if the
// outbox append fails, so errors are logged rather than returned.
func (uc CommitUseCase) appendCommitEvent(
	ctx context.Context,
	eventType string,
	commit entities.Commit,
	occurredAt time.Time,
	metadata map[string]any,
) {
	if uc.Outbox == nil {
		return
	}
	logger := application.ResolveLogger(uc.Logger)
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		logger.Warn("commitment event id generation failed",
			"event", "commitment_event_id_failed",
			"module", "trip-planning/commitment-engine",
			"layer", "application",
			"block_id", commit.BlockID,
			"error", err.Error(),
		)
		return
	}
	data := map[string]any{
		"commit_id":    commit.CommitID,
		"trip_id":      commit.TripID,
		"block_id":     commit.BlockID,
		"activity_id":  commit.ActivityID,
		"committed_by": commit.CommittedBy,
		"occurred_at":  occurredAt.Format(time.RFC3339),
	}
	for key, value := range metadata {
		data[key] = value
	}
	envelope, err := newCommitmentEnvelope(eventID, eventType, commit.BlockID, occurredAt, data)
	if err == nil {
		err = uc.Outbox.AppendOutbox(ctx, envelope)
	}
	if err != nil {
		logger.Warn("commitment event append failed",
			"event", "commitment_event_append_failed",
			"module", "trip-planning/commitment-engine",
			"layer", "application",
			"block_id", commit.BlockID,
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}

func (uc CommitUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
