package queries

import (
	"context"
	"strings"

	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
	domainerrors "tripweave/contexts/trip-planning/commitment-engine/domain/errors"
	"tripweave/contexts/trip-planning/commitment-engine/ports"
)

// BoardUseCase serves block-level reads: the proposal list and the current
// commitment, if any.
type BoardUseCase struct {
	Proposals ports.ProposalRepository
	Commits   ports.CommitRepository
}

func (uc BoardUseCase) BlockProposals(ctx context.Context, blockID string) ([]entities.Proposal, error) {
	return uc.Proposals.ListProposalsByBlock(ctx, strings.TrimSpace(blockID))
}

func (uc BoardUseCase) BlockCommit(ctx context.Context, blockID string) (entities.Commit, error) {
	commit, exists, err := uc.Commits.GetCommitByBlock(ctx, strings.TrimSpace(blockID))
	if err != nil {
		return entities.Commit{}, err
	}
	if !exists {
		return entities.Commit{}, domainerrors.ErrCommitNotFound
	}
	return commit, nil
}
