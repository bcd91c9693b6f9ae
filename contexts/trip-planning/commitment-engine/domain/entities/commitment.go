package entities

import (
	"sort"
	"time"
)

// Vote is one member's endorsement of one proposed activity within a block.
// The ledger keeps last state only; re-casting updates the same row.
type Vote struct {
	TripID     string
	BlockID    string
	ActivityID string
	MemberID   string
	CastAt     time.Time
	UpdatedAt  time.Time
}

// Proposal is a candidate activity suggested for a block, unique per
// (block, activity).
type Proposal struct {
	TripID     string
	BlockID    string
	ActivityID string
	CreatedBy  string
	CreatedAt  time.Time
}

// Commit is the durable, singular resolution of a block to one activity.
// Created only by the resolver and never updated in place.
type Commit struct {
	CommitID    string
	TripID      string
	BlockID     string
	ActivityID  string
	CommittedBy string
	CommittedAt time.Time
}

type TallyEntry struct {
	ActivityID string
	VoteCount  int
}

// CommitConflict locates an existing commitment of an activity in another
// block of the same trip, for duplicate-policy messaging.
type CommitConflict struct {
	BlockID    string
	BlockLabel string
	Position   int
	ActivityID string
}

// TallyVotes aggregates a block's votes into per-activity counts sorted by
// count descending. Activities with equal counts keep the insertion order of
// their first-seen vote, which fixes the default display order among ties.
func TallyVotes(votes []Vote) []TallyEntry {
	counts := make(map[string]int, len(votes))
	order := make([]string, 0, len(votes))
	for _, vote := range votes {
		if _, seen := counts[vote.ActivityID]; !seen {
			order = append(order, vote.ActivityID)
		}
		counts[vote.ActivityID]++
	}

	entries := make([]TallyEntry, 0, len(order))
	for _, activityID := range order {
		entries = append(entries, TallyEntry{
			ActivityID: activityID,
			VoteCount:  counts[activityID],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].VoteCount > entries[j].VoteCount
	})
	return entries
}

// TopOfTally returns every activity tied for the maximum vote count.
// Empty input yields an empty candidate set.
func TopOfTally(entries []TallyEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	top := entries[0].VoteCount
	leaders := make([]string, 0, 1)
	for _, entry := range entries {
		if entry.VoteCount != top {
			break
		}
		leaders = append(leaders, entry.ActivityID)
	}
	return leaders
}
