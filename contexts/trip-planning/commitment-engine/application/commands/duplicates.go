package commands

import "tripweave/contexts/trip-planning/commitment-engine/domain/entities"

type duplicateDecision int

const (
	duplicateProceed duplicateDecision = iota
	duplicateNeedsConfirmation
	duplicateBlocked
)

// evaluateDuplicatePolicy decides how existing commitments of the candidate
// activity elsewhere in the trip constrain the commit. No conflicts means
// Proceed under every policy.
func evaluateDuplicatePolicy(
	policy entities.DuplicatePolicy,
	conflicts []entities.CommitConflict,
	confirmed bool,
) duplicateDecision {
	if len(conflicts) == 0 {
		return duplicateProceed
	}
	switch policy {
	case entities.DuplicatePolicyPrevent:
		return duplicateBlocked
	case entities.DuplicatePolicySoftBlock:
		if confirmed {
			return duplicateProceed
		}
		return duplicateNeedsConfirmation
	default:
		return duplicateProceed
	}
}
