package commitmentengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	commitmentengine "tripweave/contexts/trip-planning/commitment-engine"
	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
	domainerrors "tripweave/contexts/trip-planning/commitment-engine/domain/errors"
	"tripweave/contexts/trip-planning/commitment-engine/ports"
	httptransport "tripweave/contexts/trip-planning/commitment-engine/transport/http"
)

func newTripModule(policy string) commitmentengine.Module {
	module := commitmentengine.NewInMemoryModule(nil)
	module.Store.SetTrip(ports.TripProjection{
		TripID:          "trip-1",
		DuplicatePolicy: policy,
	})
	module.Store.SetMember(ports.MemberProjection{
		MemberID: "organizer-1",
		TripID:   "trip-1",
		Role:     entities.MemberRoleOrganizer,
	})
	module.Store.SetMember(ports.MemberProjection{
		MemberID: "member-2",
		TripID:   "trip-1",
		Role:     entities.MemberRoleCollaborator,
	})
	module.Store.SetMember(ports.MemberProjection{
		MemberID: "member-3",
		TripID:   "trip-1",
		Role:     entities.MemberRoleCollaborator,
	})
	module.Store.SetBlock(ports.BlockProjection{
		BlockID:  "block-1",
		TripID:   "trip-1",
		Label:    "Day 1 Morning",
		Position: 1,
	})
	module.Store.SetBlock(ports.BlockProjection{
		BlockID:  "block-2",
		TripID:   "trip-1",
		Label:    "Day 1 Afternoon",
		Position: 2,
	})
	module.Store.SetBlock(ports.BlockProjection{
		BlockID:  "block-3",
		TripID:   "trip-1",
		Label:    "Day 2 Morning",
		Position: 3,
	})
	return module
}

func castVote(t *testing.T, module commitmentengine.Module, blockID string, memberID string, activityID string) {
	t.Helper()
	_, err := module.Handler.CastVoteHandler(context.Background(), "trip-1", blockID, memberID, httptransport.CastVoteRequest{
		ActivityID: activityID,
	})
	if err != nil {
		t.Fatalf("cast vote %s/%s by %s failed: %v", blockID, activityID, memberID, err)
	}
}

func TestCastVoteIdempotentAndRemove(t *testing.T) {
	module := newTripModule("allow")

	first, err := module.Handler.CastVoteHandler(context.Background(), "trip-1", "block-1", "member-2", httptransport.CastVoteRequest{
		ActivityID: "kayak",
	})
	if err != nil {
		t.Fatalf("first cast failed: %v", err)
	}
	if first.Updated {
		t.Fatalf("expected first cast to create a new row")
	}

	second, err := module.Handler.CastVoteHandler(context.Background(), "trip-1", "block-1", "member-2", httptransport.CastVoteRequest{
		ActivityID: "kayak",
	})
	if err != nil {
		t.Fatalf("repeat cast failed: %v", err)
	}
	if !second.Updated {
		t.Fatalf("expected repeat cast to update the existing row")
	}

	tally, err := module.Handler.BlockTallyHandler(context.Background(), "block-1")
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if len(tally.Entries) != 1 || tally.Entries[0].VoteCount != 1 {
		t.Fatalf("expected one activity with one vote after repeat cast, got %+v", tally.Entries)
	}

	removed, err := module.Handler.RemoveVoteHandler(context.Background(), "trip-1", "block-1", "kayak", "member-2")
	if err != nil {
		t.Fatalf("remove vote failed: %v", err)
	}
	if !removed.Removed {
		t.Fatalf("expected vote removal to report removed")
	}

	absent, err := module.Handler.RemoveVoteHandler(context.Background(), "trip-1", "block-1", "kayak", "member-2")
	if err != nil {
		t.Fatalf("removing absent vote should be a no-op, got: %v", err)
	}
	if absent.Removed {
		t.Fatalf("expected absent removal to report removed=false")
	}
}

func TestResolveCommitMajorityThenExclusive(t *testing.T) {
	module := newTripModule("allow")
	castVote(t, module, "block-1", "organizer-1", "kayak")
	castVote(t, module, "block-1", "member-2", "kayak")
	castVote(t, module, "block-1", "member-3", "museum")

	resp, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "organizer-1", httptransport.ResolveCommitRequest{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resp.Status != "committed" {
		t.Fatalf("expected committed status, got %s", resp.Status)
	}
	if resp.Commit == nil || resp.Commit.ActivityID != "kayak" {
		t.Fatalf("expected kayak committed, got %+v", resp.Commit)
	}
	if resp.Commit.CommittedBy != "organizer-1" {
		t.Fatalf("expected organizer-1 as committer, got %s", resp.Commit.CommittedBy)
	}

	if _, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "organizer-1", httptransport.ResolveCommitRequest{}); !errors.Is(err, domainerrors.ErrBlockCommitted) {
		t.Fatalf("expected ErrBlockCommitted on second resolve, got %v", err)
	}

	commit, err := module.Handler.BlockCommitHandler(context.Background(), "block-1")
	if err != nil {
		t.Fatalf("get commit failed: %v", err)
	}
	if commit.ActivityID != "kayak" {
		t.Fatalf("expected stored commit for kayak, got %s", commit.ActivityID)
	}
}

func TestResolveCommitTieThenManualOverride(t *testing.T) {
	module := newTripModule("allow")
	castVote(t, module, "block-1", "member-2", "kayak")
	castVote(t, module, "block-1", "member-3", "museum")

	resp, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "organizer-1", httptransport.ResolveCommitRequest{})
	if err != nil {
		t.Fatalf("tie resolve returned error: %v", err)
	}
	if resp.Status != "tie_detected" {
		t.Fatalf("expected tie_detected status, got %s", resp.Status)
	}
	if len(resp.TiedActivityIDs) != 2 {
		t.Fatalf("expected 2 tied activities, got %v", resp.TiedActivityIDs)
	}
	if resp.Commit != nil {
		t.Fatalf("tie must not carry a commit")
	}
	if _, err := module.Handler.BlockCommitHandler(context.Background(), "block-1"); !errors.Is(err, domainerrors.ErrCommitNotFound) {
		t.Fatalf("tie must not write a commit, got %v", err)
	}

	manual, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "organizer-1", httptransport.ResolveCommitRequest{
		ManualActivityID: "museum",
	})
	if err != nil {
		t.Fatalf("manual resolve failed: %v", err)
	}
	if manual.Status != "committed" || manual.Commit == nil || manual.Commit.ActivityID != "museum" {
		t.Fatalf("expected museum committed via manual override, got %+v", manual)
	}
}

func TestResolveCommitZeroVotes(t *testing.T) {
	module := newTripModule("allow")
	if _, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "organizer-1", httptransport.ResolveCommitRequest{}); !errors.Is(err, domainerrors.ErrNoVotes) {
		t.Fatalf("expected ErrNoVotes, got %v", err)
	}
}

func TestResolveCommitRequiresOrganizer(t *testing.T) {
	module := newTripModule("allow")
	castVote(t, module, "block-1", "member-2", "kayak")

	if _, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "member-2", httptransport.ResolveCommitRequest{}); !errors.Is(err, domainerrors.ErrNotOrganizer) {
		t.Fatalf("expected ErrNotOrganizer, got %v", err)
	}
	if _, err := module.Handler.BlockCommitHandler(context.Background(), "block-1"); !errors.Is(err, domainerrors.ErrCommitNotFound) {
		t.Fatalf("rejected resolve must not write a commit, got %v", err)
	}
}

func TestResolveCommitDuplicatePrevent(t *testing.T) {
	module := newTripModule("prevent")
	castVote(t, module, "block-1", "member-2", "kayak")
	if _, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "organizer-1", httptransport.ResolveCommitRequest{}); err != nil {
		t.Fatalf("first block resolve failed: %v", err)
	}

	castVote(t, module, "block-2", "member-3", "kayak")
	_, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-2", "organizer-1", httptransport.ResolveCommitRequest{})
	if !errors.Is(err, domainerrors.ErrDuplicateBlocked) {
		t.Fatalf("expected duplicate block failure, got %v", err)
	}
	var blocked *domainerrors.DuplicateBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected DuplicateBlockedError, got %T", err)
	}
	if len(blocked.Conflicts) != 1 || blocked.Conflicts[0].BlockID != "block-1" {
		t.Fatalf("expected conflict pointing at block-1, got %+v", blocked.Conflicts)
	}
	if blocked.Conflicts[0].BlockLabel != "Day 1 Morning" {
		t.Fatalf("expected conflict annotated with block label, got %+v", blocked.Conflicts[0])
	}

	// Confirmation never overrides prevent.
	if _, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-2", "organizer-1", httptransport.ResolveCommitRequest{
		ConfirmDuplicate: true,
	}); !errors.Is(err, domainerrors.ErrDuplicateBlocked) {
		t.Fatalf("expected prevent to ignore confirmation, got %v", err)
	}
}

func TestResolveCommitSoftBlockConfirmationAndCleanup(t *testing.T) {
	module := newTripModule("soft_block")
	castVote(t, module, "block-1", "member-2", "kayak")
	if _, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "organizer-1", httptransport.ResolveCommitRequest{}); err != nil {
		t.Fatalf("first block resolve failed: %v", err)
	}

	for _, blockID := range []string{"block-2", "block-3"} {
		if _, err := module.Handler.ProposeActivityHandler(context.Background(), "trip-1", blockID, "member-2", httptransport.ProposeActivityRequest{
			ActivityID: "kayak",
		}); err != nil {
			t.Fatalf("propose kayak on %s failed: %v", blockID, err)
		}
	}
	castVote(t, module, "block-2", "member-3", "kayak")

	pending, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-2", "organizer-1", httptransport.ResolveCommitRequest{})
	if err != nil {
		t.Fatalf("soft_block resolve returned error: %v", err)
	}
	if pending.Status != "needs_confirmation" {
		t.Fatalf("expected needs_confirmation, got %s", pending.Status)
	}
	if len(pending.Conflicts) != 1 || pending.Conflicts[0].BlockID != "block-1" {
		t.Fatalf("expected conflict pointing at block-1, got %+v", pending.Conflicts)
	}
	if _, err := module.Handler.BlockCommitHandler(context.Background(), "block-2"); !errors.Is(err, domainerrors.ErrCommitNotFound) {
		t.Fatalf("needs_confirmation must not write a commit, got %v", err)
	}

	confirmed, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-2", "organizer-1", httptransport.ResolveCommitRequest{
		ConfirmDuplicate: true,
	})
	if err != nil {
		t.Fatalf("confirmed resolve failed: %v", err)
	}
	if confirmed.Status != "committed" || confirmed.Commit == nil {
		t.Fatalf("expected committed after confirmation, got %+v", confirmed)
	}
	if confirmed.ProposalsPruned != 1 {
		t.Fatalf("expected kayak proposal pruned from block-3 only, got %d", confirmed.ProposalsPruned)
	}

	kept, err := module.Handler.BlockProposalsHandler(context.Background(), "block-2")
	if err != nil {
		t.Fatalf("list proposals failed: %v", err)
	}
	if len(kept.Items) != 1 {
		t.Fatalf("expected committed block to keep its own proposal, got %+v", kept.Items)
	}
	pruned, err := module.Handler.BlockProposalsHandler(context.Background(), "block-3")
	if err != nil {
		t.Fatalf("list proposals failed: %v", err)
	}
	if len(pruned.Items) != 0 {
		t.Fatalf("expected block-3 proposal pruned, got %+v", pruned.Items)
	}
}

func TestCastVoteOutsideVotingWindow(t *testing.T) {
	module := newTripModule("allow")
	closed := time.Now().UTC().Add(-time.Hour)
	module.Store.SetBlock(ports.BlockProjection{
		BlockID:      "block-1",
		TripID:       "trip-1",
		Label:        "Day 1 Morning",
		Position:     1,
		VoteClosesAt: &closed,
	})

	_, err := module.Handler.CastVoteHandler(context.Background(), "trip-1", "block-1", "member-2", httptransport.CastVoteRequest{
		ActivityID: "kayak",
	})
	if !errors.Is(err, domainerrors.ErrVotingClosed) {
		t.Fatalf("expected ErrVotingClosed, got %v", err)
	}
}

func TestUncommitBlockThenResolveAgain(t *testing.T) {
	module := newTripModule("allow")
	castVote(t, module, "block-1", "member-2", "kayak")
	if _, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "organizer-1", httptransport.ResolveCommitRequest{}); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if err := module.Handler.UncommitBlockHandler(context.Background(), "trip-1", "block-1", "member-2"); !errors.Is(err, domainerrors.ErrNotOrganizer) {
		t.Fatalf("expected ErrNotOrganizer for collaborator uncommit, got %v", err)
	}
	if err := module.Handler.UncommitBlockHandler(context.Background(), "trip-1", "block-1", "organizer-1"); err != nil {
		t.Fatalf("uncommit failed: %v", err)
	}
	if err := module.Handler.UncommitBlockHandler(context.Background(), "trip-1", "block-1", "organizer-1"); !errors.Is(err, domainerrors.ErrCommitNotFound) {
		t.Fatalf("expected ErrCommitNotFound on repeat uncommit, got %v", err)
	}

	castVote(t, module, "block-1", "member-3", "museum")
	castVote(t, module, "block-1", "organizer-1", "museum")
	resp, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "organizer-1", httptransport.ResolveCommitRequest{})
	if err != nil {
		t.Fatalf("re-resolve after uncommit failed: %v", err)
	}
	if resp.Status != "committed" || resp.Commit == nil || resp.Commit.ActivityID != "museum" {
		t.Fatalf("expected museum committed after vacate, got %+v", resp)
	}
}

func TestResolveCommitUnknownPolicyRejected(t *testing.T) {
	module := newTripModule("strict")
	castVote(t, module, "block-1", "member-2", "kayak")
	if _, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-1", "organizer-1", httptransport.ResolveCommitRequest{}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown policy, got %v", err)
	}
}

func TestResolveCommitBlockOutsideTrip(t *testing.T) {
	module := newTripModule("allow")
	module.Store.SetBlock(ports.BlockProjection{
		BlockID:  "block-other",
		TripID:   "trip-2",
		Label:    "Elsewhere",
		Position: 1,
	})
	if _, err := module.Handler.ResolveCommitHandler(context.Background(), "trip-1", "block-other", "organizer-1", httptransport.ResolveCommitRequest{}); !errors.Is(err, domainerrors.ErrBlockNotFound) {
		t.Fatalf("expected ErrBlockNotFound for foreign block, got %v", err)
	}
}
