package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"tripweave/contexts/trip-planning/commitment-engine/application/commands"
	"tripweave/contexts/trip-planning/commitment-engine/application/queries"
	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
	httptransport "tripweave/contexts/trip-planning/commitment-engine/transport/http"
)

type Handler struct {
	Commits   commands.CommitUseCase
	Votes     commands.VoteUseCase
	Proposals commands.ProposalUseCase
	Tally     queries.TallyUseCase
	Board     queries.BoardUseCase
	Logger    *slog.Logger
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	tripID string,
	blockID string,
	memberID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		TripID:     tripID,
		BlockID:    blockID,
		ActivityID: req.ActivityID,
		MemberID:   memberID,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		TripID:     result.Vote.TripID,
		BlockID:    result.Vote.BlockID,
		ActivityID: result.Vote.ActivityID,
		MemberID:   result.Vote.MemberID,
		Updated:    result.Updated,
	}, nil
}

func (h Handler) RemoveVoteHandler(
	ctx context.Context,
	tripID string,
	blockID string,
	activityID string,
	memberID string,
) (httptransport.RemoveVoteResponse, error) {
	result, err := h.Votes.RemoveVote(ctx, commands.RemoveVoteCommand{
		TripID:     tripID,
		BlockID:    blockID,
		ActivityID: activityID,
		MemberID:   memberID,
	})
	if err != nil {
		return httptransport.RemoveVoteResponse{}, err
	}
	return httptransport.RemoveVoteResponse{Removed: result.Removed}, nil
}

func (h Handler) BlockTallyHandler(ctx context.Context, blockID string) (httptransport.TallyResponse, error) {
	entries, err := h.Tally.BlockTally(ctx, blockID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return httptransport.TallyResponse{
		BlockID: blockID,
		Entries: mapTally(entries),
	}, nil
}

func (h Handler) ProposeActivityHandler(
	ctx context.Context,
	tripID string,
	blockID string,
	memberID string,
	req httptransport.ProposeActivityRequest,
) (httptransport.ProposalResponse, error) {
	proposal, err := h.Proposals.ProposeActivity(ctx, commands.ProposeActivityCommand{
		TripID:     tripID,
		BlockID:    blockID,
		ActivityID: req.ActivityID,
		MemberID:   memberID,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return httptransport.ProposalResponse{
		TripID:     proposal.TripID,
		BlockID:    proposal.BlockID,
		ActivityID: proposal.ActivityID,
		CreatedBy:  proposal.CreatedBy,
	}, nil
}

func (h Handler) WithdrawProposalHandler(
	ctx context.Context,
	tripID string,
	blockID string,
	activityID string,
	memberID string,
) (httptransport.WithdrawProposalResponse, error) {
	removed, err := h.Proposals.WithdrawProposal(ctx, commands.WithdrawProposalCommand{
		TripID:     tripID,
		BlockID:    blockID,
		ActivityID: activityID,
		MemberID:   memberID,
	})
	if err != nil {
		return httptransport.WithdrawProposalResponse{}, err
	}
	return httptransport.WithdrawProposalResponse{Removed: removed}, nil
}

func (h Handler) BlockProposalsHandler(ctx context.Context, blockID string) (httptransport.ProposalListResponse, error) {
	proposals, err := h.Board.BlockProposals(ctx, blockID)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	items := make([]httptransport.ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, httptransport.ProposalResponse{
			TripID:     proposal.TripID,
			BlockID:    proposal.BlockID,
			ActivityID: proposal.ActivityID,
			CreatedBy:  proposal.CreatedBy,
		})
	}
	return httptransport.ProposalListResponse{
		BlockID: blockID,
		Items:   items,
	}, nil
}

func (h Handler) ResolveCommitHandler(
	ctx context.Context,
	tripID string,
	blockID string,
	actorID string,
	req httptransport.ResolveCommitRequest,
) (httptransport.ResolveCommitResponse, error) {
	result, err := h.Commits.ResolveCommit(ctx, commands.ResolveCommitCommand{
		TripID:           tripID,
		BlockID:          blockID,
		ActorID:          actorID,
		ManualActivityID: req.ManualActivityID,
		ConfirmDuplicate: req.ConfirmDuplicate,
	})
	if err != nil {
		return httptransport.ResolveCommitResponse{}, err
	}
	resp := httptransport.ResolveCommitResponse{
		Status:          string(result.Status),
		Tally:           mapTally(result.Tally),
		TiedActivityIDs: result.TiedActivityIDs,
		Conflicts:       MapConflicts(result.Conflicts),
		Policy:          string(result.Policy),
		ProposalsPruned: result.ProposalsPruned,
	}
	if result.Status == commands.ResolveStatusCommitted {
		resp.Commit = &httptransport.CommitResponse{
			CommitID:    result.Commit.CommitID,
			TripID:      result.Commit.TripID,
			BlockID:     result.Commit.BlockID,
			ActivityID:  result.Commit.ActivityID,
			CommittedBy: result.Commit.CommittedBy,
			CommittedAt: result.Commit.CommittedAt.Format(time.RFC3339),
		}
	}
	return resp, nil
}

func (h Handler) UncommitBlockHandler(ctx context.Context, tripID string, blockID string, actorID string) error {
	return h.Commits.UncommitBlock(ctx, commands.UncommitBlockCommand{
		TripID:  tripID,
		BlockID: blockID,
		ActorID: actorID,
	})
}

func (h Handler) BlockCommitHandler(ctx context.Context, blockID string) (httptransport.CommitResponse, error) {
	commit, err := h.Board.BlockCommit(ctx, blockID)
	if err != nil {
		return httptransport.CommitResponse{}, err
	}
	return httptransport.CommitResponse{
		CommitID:    commit.CommitID,
		TripID:      commit.TripID,
		BlockID:     commit.BlockID,
		ActivityID:  commit.ActivityID,
		CommittedBy: commit.CommittedBy,
		CommittedAt: commit.CommittedAt.Format(time.RFC3339),
	}, nil
}

func mapTally(entries []entities.TallyEntry) []httptransport.TallyEntry {
	items := make([]httptransport.TallyEntry, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.TallyEntry{
			ActivityID: entry.ActivityID,
			VoteCount:  entry.VoteCount,
		})
	}
	return items
}

// MapConflicts is shared with the platform server's error rendering for
// duplicate-blocked failures.
func MapConflicts(conflicts []entities.CommitConflict) []httptransport.ConflictLocation {
	items := make([]httptransport.ConflictLocation, 0, len(conflicts))
	for _, conflict := range conflicts {
		items = append(items, httptransport.ConflictLocation{
			BlockID:    conflict.BlockID,
			BlockLabel: conflict.BlockLabel,
			Position:   conflict.Position,
			ActivityID: conflict.ActivityID,
		})
	}
	return items
}
