package entities

import "strings"

// DuplicatePolicy is the trip-wide rule governing whether one activity may be
// committed to more than one block.
type DuplicatePolicy string

const (
	DuplicatePolicyAllow     DuplicatePolicy = "allow"
	DuplicatePolicySoftBlock DuplicatePolicy = "soft_block"
	DuplicatePolicyPrevent   DuplicatePolicy = "prevent"
)

// NormalizeDuplicatePolicy maps stored policy values onto the known set.
// Unset trips behave as "allow".
func NormalizeDuplicatePolicy(raw string) (DuplicatePolicy, bool) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case DuplicatePolicyAllow, DuplicatePolicy(""):
		return DuplicatePolicyAllow, true
	case DuplicatePolicySoftBlock:
		return DuplicatePolicySoftBlock, true
	case DuplicatePolicyPrevent:
		return DuplicatePolicyPrevent, true
	default:
		return DuplicatePolicyAllow, false
	}
}

type MemberRole string

const (
	MemberRoleOrganizer    MemberRole = "organizer"
	MemberRoleCollaborator MemberRole = "collaborator"
)
