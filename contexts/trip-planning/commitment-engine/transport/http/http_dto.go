package http

type ErrorResponse struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	Conflicts []ConflictLocation `json:"conflicts,omitempty"`
}

type ConflictLocation struct {
	BlockID    string `json:"block_id"`
	BlockLabel string `json:"block_label,omitempty"`
	Position   int    `json:"position"`
	ActivityID string `json:"activity_id"`
}

type CastVoteRequest struct {
	ActivityID string `json:"activity_id"`
}

type VoteResponse struct {
	TripID     string `json:"trip_id"`
	BlockID    string `json:"block_id"`
	ActivityID string `json:"activity_id"`
	MemberID   string `json:"member_id"`
	Updated    bool   `json:"updated"`
}

type RemoveVoteResponse struct {
	Removed bool `json:"removed"`
}

type TallyEntry struct {
	ActivityID string `json:"activity_id"`
	VoteCount  int    `json:"vote_count"`
}

type TallyResponse struct {
	BlockID string       `json:"block_id"`
	Entries []TallyEntry `json:"entries"`
}

type ProposeActivityRequest struct {
	ActivityID string `json:"activity_id"`
}

type ProposalResponse struct {
	TripID     string `json:"trip_id"`
	BlockID    string `json:"block_id"`
	ActivityID string `json:"activity_id"`
	CreatedBy  string `json:"created_by"`
}

type WithdrawProposalResponse struct {
	Removed bool `json:"removed"`
}

type ProposalListResponse struct {
	BlockID string             `json:"block_id"`
	Items   []ProposalResponse `json:"items"`
}

type ResolveCommitRequest struct {
	ManualActivityID string `json:"manual_activity_id,omitempty"`
	ConfirmDuplicate bool   `json:"confirm_duplicate,omitempty"`
}

type CommitResponse struct {
	CommitID    string `json:"commit_id"`
	TripID      string `json:"trip_id"`
	BlockID     string `json:"block_id"`
	ActivityID  string `json:"activity_id"`
	CommittedBy string `json:"committed_by"`
	CommittedAt string `json:"committed_at"`
}

// ResolveCommitResponse is discriminated by Status: "committed" carries the
// commit, "tie_detected" the tied candidates, "needs_confirmation" the
// conflicting locations.
type ResolveCommitResponse struct {
	Status          string             `json:"status"`
	Commit          *CommitResponse    `json:"commit,omitempty"`
	Tally           []TallyEntry       `json:"tally"`
	TiedActivityIDs []string           `json:"tied_activity_ids,omitempty"`
	Conflicts       []ConflictLocation `json:"conflicts,omitempty"`
	Policy          string             `json:"policy"`
	ProposalsPruned int                `json:"proposals_pruned"`
}
