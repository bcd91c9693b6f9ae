package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
	domainerrors "tripweave/contexts/trip-planning/commitment-engine/domain/errors"
)

func TestInsertCommitRejectsSecondWriter(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()

	first := entities.Commit{
		CommitID:    "commit-1",
		TripID:      "trip-1",
		BlockID:     "block-1",
		ActivityID:  "kayak",
		CommittedBy: "organizer-1",
		CommittedAt: now,
	}
	if err := store.InsertCommit(context.Background(), first); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	second := first
	second.CommitID = "commit-2"
	second.ActivityID = "museum"
	if err := store.InsertCommit(context.Background(), second); !errors.Is(err, domainerrors.ErrCommitConflict) {
		t.Fatalf("expected ErrCommitConflict for second insert on same block, got %v", err)
	}

	stored, exists, err := store.GetCommitByBlock(context.Background(), "block-1")
	if err != nil || !exists {
		t.Fatalf("expected stored commit, got exists=%v err=%v", exists, err)
	}
	if stored.CommitID != "commit-1" || stored.ActivityID != "kayak" {
		t.Fatalf("losing insert must not overwrite the winner, got %+v", stored)
	}
}

func TestDeleteProposalsForActivityExceptKeepsOwnBlock(t *testing.T) {
	store := NewStore()
	now := time.Now().UTC()
	for _, blockID := range []string{"block-1", "block-2", "block-3"} {
		if err := store.UpsertProposal(context.Background(), entities.Proposal{
			TripID:     "trip-1",
			BlockID:    blockID,
			ActivityID: "kayak",
			CreatedBy:  "member-2",
			CreatedAt:  now,
		}); err != nil {
			t.Fatalf("seed proposal failed: %v", err)
		}
	}
	if err := store.UpsertProposal(context.Background(), entities.Proposal{
		TripID:     "trip-1",
		BlockID:    "block-2",
		ActivityID: "museum",
		CreatedBy:  "member-3",
		CreatedAt:  now,
	}); err != nil {
		t.Fatalf("seed proposal failed: %v", err)
	}

	pruned, err := store.DeleteProposalsForActivityExcept(context.Background(), "trip-1", "kayak", "block-1")
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if pruned != 2 {
		t.Fatalf("expected 2 proposals pruned, got %d", pruned)
	}

	kept, err := store.ListProposalsByBlock(context.Background(), "block-1")
	if err != nil || len(kept) != 1 {
		t.Fatalf("expected kept proposal on block-1, got %v err=%v", kept, err)
	}
	other, err := store.ListProposalsByBlock(context.Background(), "block-2")
	if err != nil || len(other) != 1 || other[0].ActivityID != "museum" {
		t.Fatalf("expected only museum left on block-2, got %v err=%v", other, err)
	}
}
