package commands

import (
	"testing"

	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
)

func TestEvaluateDuplicatePolicy(t *testing.T) {
	conflict := []entities.CommitConflict{{BlockID: "block-2", ActivityID: "kayak"}}

	cases := []struct {
		name      string
		policy    entities.DuplicatePolicy
		conflicts []entities.CommitConflict
		confirmed bool
		want      duplicateDecision
	}{
		{"no conflicts proceed", entities.DuplicatePolicyPrevent, nil, false, duplicateProceed},
		{"allow with conflicts", entities.DuplicatePolicyAllow, conflict, false, duplicateProceed},
		{"prevent with conflicts", entities.DuplicatePolicyPrevent, conflict, false, duplicateBlocked},
		{"prevent ignores confirmation", entities.DuplicatePolicyPrevent, conflict, true, duplicateBlocked},
		{"soft_block unconfirmed", entities.DuplicatePolicySoftBlock, conflict, false, duplicateNeedsConfirmation},
		{"soft_block confirmed", entities.DuplicatePolicySoftBlock, conflict, true, duplicateProceed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := evaluateDuplicatePolicy(tc.policy, tc.conflicts, tc.confirmed)
			if got != tc.want {
				t.Fatalf("evaluateDuplicatePolicy(%s, %d conflicts, confirmed=%v) = %v, want %v",
					tc.policy, len(tc.conflicts), tc.confirmed, got, tc.want)
			}
		})
	}
}
