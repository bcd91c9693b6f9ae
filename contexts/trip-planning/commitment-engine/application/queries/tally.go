package queries

import (
	"context"
	"strings"

	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
	"tripweave/contexts/trip-planning/commitment-engine/ports"
)

// TallyUseCase serves the read-only tally used by the UI while voting is open.
type TallyUseCase struct {
	Votes ports.VoteRepository
}

// BlockTally returns per-activity vote counts sorted descending; ties keep
// first-seen order. An unvoted block yields an empty tally.
func (uc TallyUseCase) BlockTally(ctx context.Context, blockID string) ([]entities.TallyEntry, error) {
	votes, err := uc.Votes.ListVotesByBlock(ctx, strings.TrimSpace(blockID))
	if err != nil {
		return nil, err
	}
	return entities.TallyVotes(votes), nil
}
