package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "tripweave/contexts/trip-planning/commitment-engine/application"
	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
	domainerrors "tripweave/contexts/trip-planning/commitment-engine/domain/errors"
	"tripweave/contexts/trip-planning/commitment-engine/ports"
)

type CastVoteCommand struct {
	TripID     string
	BlockID    string
	ActivityID string
	MemberID   string
}

type CastVoteResult struct {
	Vote    entities.Vote
	Updated bool
}

type RemoveVoteCommand struct {
	TripID     string
	BlockID    string
	ActivityID string
	MemberID   string
}

type RemoveVoteResult struct {
	Removed bool
}

// VoteUseCase is the vote ledger: idempotent cast/remove with an optional
// per-block voting window. A committed block still accepts ledger writes;
// the commit never changes retroactively and gating post-commit voting is
// the caller's concern.
type VoteUseCase struct {
	Directory ports.TripDirectory
	Votes     ports.VoteRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

// CastVote upserts the member's vote for the activity in the block. Casting
// the same vote twice leaves a single row; last state wins.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	tripID := strings.TrimSpace(cmd.TripID)
	blockID := strings.TrimSpace(cmd.BlockID)
	activityID := strings.TrimSpace(cmd.ActivityID)
	memberID := strings.TrimSpace(cmd.MemberID)
	if tripID == "" || blockID == "" || activityID == "" || memberID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidInput
	}

	if _, err := uc.Directory.GetMember(ctx, tripID, memberID); err != nil {
		return CastVoteResult{}, err
	}
	block, err := uc.blockInTrip(ctx, tripID, blockID)
	if err != nil {
		return CastVoteResult{}, err
	}

	now := uc.now()
	if !votingOpen(block, now) {
		logger.Warn("vote cast outside voting window",
			"event", "vote_cast_window_closed",
			"module", "trip-planning/commitment-engine",
			"layer", "application",
			"trip_id", tripID,
			"block_id", blockID,
			"member_id", memberID,
		)
		return CastVoteResult{}, domainerrors.ErrVotingClosed
	}

	current, err := uc.Votes.ListVotesByBlock(ctx, blockID)
	if err != nil {
		return CastVoteResult{}, err
	}
	existing, updated := entities.Vote{}, false
	for _, vote := range current {
		if vote.ActivityID == activityID && vote.MemberID == memberID {
			existing, updated = vote, true
			break
		}
	}

	vote := entities.Vote{
		TripID:     tripID,
		BlockID:    blockID,
		ActivityID: activityID,
		MemberID:   memberID,
		CastAt:     now,
		UpdatedAt:  now,
	}
	if updated {
		vote.CastAt = existing.CastAt
	}
	if err := uc.Votes.UpsertVote(ctx, vote); err != nil {
		return CastVoteResult{}, err
	}

	logger.Info("vote cast",
		"event", "vote_cast_applied",
		"module", "trip-planning/commitment-engine",
		"layer", "application",
		"trip_id", tripID,
		"block_id", blockID,
		"activity_id", activityID,
		"member_id", memberID,
		"updated", updated,
	)
	return CastVoteResult{Vote: vote, Updated: updated}, nil
}

// RemoveVote deletes the vote if present; removing an absent vote is a no-op
// success so retried removals stay idempotent.
func (uc VoteUseCase) RemoveVote(ctx context.Context, cmd RemoveVoteCommand) (RemoveVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	tripID := strings.TrimSpace(cmd.TripID)
	blockID := strings.TrimSpace(cmd.BlockID)
	activityID := strings.TrimSpace(cmd.ActivityID)
	memberID := strings.TrimSpace(cmd.MemberID)
	if tripID == "" || blockID == "" || activityID == "" || memberID == "" {
		return RemoveVoteResult{}, domainerrors.ErrInvalidInput
	}

	if _, err := uc.Directory.GetMember(ctx, tripID, memberID); err != nil {
		return RemoveVoteResult{}, err
	}
	if _, err := uc.blockInTrip(ctx, tripID, blockID); err != nil {
		return RemoveVoteResult{}, err
	}

	removed, err := uc.Votes.DeleteVote(ctx, blockID, activityID, memberID)
	if err != nil {
		return RemoveVoteResult{}, err
	}
	logger.Info("vote removed",
		"event", "vote_remove_applied",
		"module", "trip-planning/commitment-engine",
		"layer", "application",
		"trip_id", tripID,
		"block_id", blockID,
		"activity_id", activityID,
		"member_id", memberID,
		"removed", removed,
	)
	return RemoveVoteResult{Removed: removed}, nil
}

func (uc VoteUseCase) blockInTrip(ctx context.Context, tripID string, blockID string) (ports.BlockProjection, error) {
	block, err := uc.Directory.GetBlock(ctx, blockID)
	if err != nil {
		return ports.BlockProjection{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(block.TripID), tripID) {
		return ports.BlockProjection{}, domainerrors.ErrBlockNotFound
	}
	return block, nil
}

// votingOpen treats a missing window bound as unbounded: blocks without a
// configured window are always open.
func votingOpen(block ports.BlockProjection, now time.Time) bool {
	if block.VoteOpensAt != nil && now.Before(block.VoteOpensAt.UTC()) {
		return false
	}
	if block.VoteClosesAt != nil && now.After(block.VoteClosesAt.UTC()) {
		return false
	}
	return true
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
