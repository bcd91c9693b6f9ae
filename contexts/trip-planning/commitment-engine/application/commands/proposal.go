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

type ProposeActivityCommand struct {
	TripID     string
	BlockID    string
	ActivityID string
	MemberID   string
}

type WithdrawProposalCommand struct {
	TripID     string
	BlockID    string
	ActivityID string
	MemberID   string
}

// ProposalUseCase maintains the proposal registry the resolver consumes.
// Proposals are unique per (block, activity); re-proposing is idempotent.
type ProposalUseCase struct {
	Directory ports.TripDirectory
	Proposals ports.ProposalRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc ProposalUseCase) ProposeActivity(ctx context.Context, cmd ProposeActivityCommand) (entities.Proposal, error) {
	logger := application.ResolveLogger(uc.Logger)
	tripID := strings.TrimSpace(cmd.TripID)
	blockID := strings.TrimSpace(cmd.BlockID)
	activityID := strings.TrimSpace(cmd.ActivityID)
	memberID := strings.TrimSpace(cmd.MemberID)
	if tripID == "" || blockID == "" || activityID == "" || memberID == "" {
		return entities.Proposal{}, domainerrors.ErrInvalidInput
	}

	if _, err := uc.Directory.GetMember(ctx, tripID, memberID); err != nil {
		return entities.Proposal{}, err
	}
	block, err := uc.Directory.GetBlock(ctx, blockID)
	if err != nil {
		return entities.Proposal{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(block.TripID), tripID) {
		return entities.Proposal{}, domainerrors.ErrBlockNotFound
	}

	proposal := entities.Proposal{
		TripID:     tripID,
		BlockID:    blockID,
		ActivityID: activityID,
		CreatedBy:  memberID,
		CreatedAt:  uc.now(),
	}
	if err := uc.Proposals.UpsertProposal(ctx, proposal); err != nil {
		return entities.Proposal{}, err
	}

	logger.Info("activity proposed",
		"event", "proposal_created",
		"module", "trip-planning/commitment-engine",
		"layer", "application",
		"trip_id", tripID,
		"block_id", blockID,
		"activity_id", activityID,
		"member_id", memberID,
	)
	return proposal, nil
}

// WithdrawProposal deletes the proposal if present; withdrawing an absent
// proposal is a no-op success.
func (uc ProposalUseCase) WithdrawProposal(ctx context.Context, cmd WithdrawProposalCommand) (bool, error) {
	logger := application.ResolveLogger(uc.Logger)
	tripID := strings.TrimSpace(cmd.TripID)
	blockID := strings.TrimSpace(cmd.BlockID)
	activityID := strings.TrimSpace(cmd.ActivityID)
	memberID := strings.TrimSpace(cmd.MemberID)
	if tripID == "" || blockID == "" || activityID == "" || memberID == "" {
		return false, domainerrors.ErrInvalidInput
	}

	if _, err := uc.Directory.GetMember(ctx, tripID, memberID); err != nil {
		return false, err
	}

	removed, err := uc.Proposals.DeleteProposal(ctx, blockID, activityID)
	if err != nil {
		return false, err
	}
	logger.Info("proposal withdrawn",
		"event", "proposal_withdrawn",
		"module", "trip-planning/commitment-engine",
		"layer", "application",
		"trip_id", tripID,
		"block_id", blockID,
		"activity_id", activityID,
		"member_id", memberID,
		"removed", removed,
	)
	return removed, nil
}

func (uc ProposalUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
