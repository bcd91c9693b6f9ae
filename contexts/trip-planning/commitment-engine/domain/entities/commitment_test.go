package entities

import (
	"testing"
	"time"
)

func vote(activityID string, memberID string, castAt time.Time) Vote {
	return Vote{
		TripID:     "trip-1",
		BlockID:    "block-1",
		ActivityID: activityID,
		MemberID:   memberID,
		CastAt:     castAt,
		UpdatedAt:  castAt,
	}
}

func TestTallyVotesSortsByCountDescending(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	entries := TallyVotes([]Vote{
		vote("museum", "m1", base),
		vote("kayak", "m2", base.Add(time.Minute)),
		vote("kayak", "m3", base.Add(2*time.Minute)),
		vote("museum", "m4", base.Add(3*time.Minute)),
		vote("kayak", "m5", base.Add(4*time.Minute)),
	})
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ActivityID != "kayak" || entries[0].VoteCount != 3 {
		t.Fatalf("expected kayak with 3 votes first, got %+v", entries[0])
	}
	if entries[1].ActivityID != "museum" || entries[1].VoteCount != 2 {
		t.Fatalf("expected museum with 2 votes second, got %+v", entries[1])
	}
}

func TestTallyVotesKeepsFirstSeenOrderAmongTies(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	entries := TallyVotes([]Vote{
		vote("museum", "m1", base),
		vote("kayak", "m2", base.Add(time.Minute)),
		vote("beach", "m3", base.Add(2*time.Minute)),
	})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"museum", "kayak", "beach"}
	for i, activityID := range want {
		if entries[i].ActivityID != activityID {
			t.Fatalf("expected %s at position %d, got %s", activityID, i, entries[i].ActivityID)
		}
	}
}

func TestTallyVotesEmpty(t *testing.T) {
	if entries := TallyVotes(nil); len(entries) != 0 {
		t.Fatalf("expected no entries for empty ledger, got %d", len(entries))
	}
}

func TestTopOfTally(t *testing.T) {
	leaders := TopOfTally([]TallyEntry{
		{ActivityID: "kayak", VoteCount: 3},
		{ActivityID: "museum", VoteCount: 3},
		{ActivityID: "beach", VoteCount: 1},
	})
	if len(leaders) != 2 {
		t.Fatalf("expected 2 tied leaders, got %d", len(leaders))
	}
	if leaders[0] != "kayak" || leaders[1] != "museum" {
		t.Fatalf("unexpected leaders: %v", leaders)
	}

	single := TopOfTally([]TallyEntry{
		{ActivityID: "kayak", VoteCount: 3},
		{ActivityID: "museum", VoteCount: 2},
	})
	if len(single) != 1 || single[0] != "kayak" {
		t.Fatalf("expected single leader kayak, got %v", single)
	}

	if leaders := TopOfTally(nil); leaders != nil {
		t.Fatalf("expected nil leaders for empty tally, got %v", leaders)
	}
}

func TestNormalizeDuplicatePolicy(t *testing.T) {
	cases := []struct {
		raw   string
		want  DuplicatePolicy
		known bool
	}{
		{"allow", DuplicatePolicyAllow, true},
		{"", DuplicatePolicyAllow, true},
		{"  Soft_Block  ", DuplicatePolicySoftBlock, true},
		{"PREVENT", DuplicatePolicyPrevent, true},
		{"strict", DuplicatePolicyAllow, false},
	}
	for _, tc := range cases {
		got, known := NormalizeDuplicatePolicy(tc.raw)
		if got != tc.want || known != tc.known {
			t.Fatalf("NormalizeDuplicatePolicy(%q) = (%s, %v), want (%s, %v)", tc.raw, got, known, tc.want, tc.known)
		}
	}
}
