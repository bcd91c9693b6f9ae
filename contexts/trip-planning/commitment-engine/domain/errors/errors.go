package errors

import (
	"errors"
	"fmt"

	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
)

var (
	ErrInvalidInput     = errors.New("invalid commitment input")
	ErrTripNotFound     = errors.New("trip not found")
	ErrBlockNotFound    = errors.New("block not found")
	ErrMemberNotFound   = errors.New("member not found in trip")
	ErrCommitNotFound   = errors.New("block has no commitment")
	ErrNotOrganizer     = errors.New("actor is not a trip organizer")
	ErrBlockCommitted   = errors.New("block already has a commitment")
	ErrNoVotes          = errors.New("block has no votes to resolve")
	ErrVotingClosed     = errors.New("voting window is closed for block")
	ErrDuplicateBlocked = errors.New("activity is already committed elsewhere in the trip")
	ErrConflict         = errors.New("commitment engine conflict")

	// ErrCommitConflict means the commitment insert lost a concurrent race:
	// another resolver wrote the block's commit between the exclusivity read
	// and the insert. Callers treat it like ErrBlockCommitted; the distinct
	// sentinel exists for diagnostics.
	ErrCommitConflict = errors.New("commitment insert lost a concurrent race")
)

// DuplicateBlockedError carries the conflicting commit locations so callers
// can tell the user where the activity is already pinned. It matches
// ErrDuplicateBlocked under errors.Is.
type DuplicateBlockedError struct {
	Conflicts []entities.CommitConflict
}

func (e *DuplicateBlockedError) Error() string {
	return fmt.Sprintf("%s (%d conflicting block(s))", ErrDuplicateBlocked.Error(), len(e.Conflicts))
}

func (e *DuplicateBlockedError) Unwrap() error {
	return ErrDuplicateBlocked
}
