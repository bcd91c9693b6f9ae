package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"tripweave/contexts/trip-planning/commitment-engine/domain/entities"
	domainerrors "tripweave/contexts/trip-planning/commitment-engine/domain/errors"
	"tripweave/contexts/trip-planning/commitment-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory implementation of every engine port, used for unit
// wiring and local development. Commits are keyed by block id, which gives
// the same exclusivity guarantee the postgres unique index provides.
type Store struct {
	mu sync.RWMutex

	votes     map[string]entities.Vote
	proposals map[string]entities.Proposal
	commits   map[string]entities.Commit
	outbox    map[string]outboxRecord

	trips   map[string]ports.TripProjection
	members map[string]ports.MemberProjection
	blocks  map[string]ports.BlockProjection
}

func NewStore() *Store {
	return &Store{
		votes:     make(map[string]entities.Vote),
		proposals: make(map[string]entities.Proposal),
		commits:   make(map[string]entities.Commit),
		outbox:    make(map[string]outboxRecord),
		trips:     make(map[string]ports.TripProjection),
		members:   make(map[string]ports.MemberProjection),
		blocks:    make(map[string]ports.BlockProjection),
	}
}

func (s *Store) SetTrip(trip ports.TripProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[strings.TrimSpace(trip.TripID)] = ports.TripProjection{
		TripID:          strings.TrimSpace(trip.TripID),
		DuplicatePolicy: strings.TrimSpace(trip.DuplicatePolicy),
	}
}

func (s *Store) SetMember(member ports.MemberProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey(member.TripID, member.MemberID)] = ports.MemberProjection{
		MemberID: strings.TrimSpace(member.MemberID),
		TripID:   strings.TrimSpace(member.TripID),
		Role:     member.Role,
	}
}

func (s *Store) SetBlock(block ports.BlockProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[strings.TrimSpace(block.BlockID)] = block
}

func (s *Store) GetTrip(_ context.Context, tripID string) (ports.TripProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trip, ok := s.trips[strings.TrimSpace(tripID)]
	if !ok {
		return ports.TripProjection{}, domainerrors.ErrTripNotFound
	}
	return trip, nil
}

func (s *Store) GetMember(_ context.Context, tripID string, memberID string) (ports.MemberProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[memberKey(tripID, memberID)]
	if !ok {
		return ports.MemberProjection{}, domainerrors.ErrMemberNotFound
	}
	return member, nil
}

func (s *Store) GetBlock(_ context.Context, blockID string) (ports.BlockProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	block, ok := s.blocks[strings.TrimSpace(blockID)]
	if !ok {
		return ports.BlockProjection{}, domainerrors.ErrBlockNotFound
	}
	return block, nil
}

func (s *Store) UpsertVote(_ context.Context, vote entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[voteKey(vote.BlockID, vote.ActivityID, vote.MemberID)] = vote
	return nil
}

func (s *Store) DeleteVote(_ context.Context, blockID string, activityID string, memberID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(blockID, activityID, memberID)
	if _, ok := s.votes[key]; !ok {
		return false, nil
	}
	delete(s.votes, key)
	return true, nil
}

func (s *Store) ListVotesByBlock(_ context.Context, blockID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.BlockID == strings.TrimSpace(blockID) {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CastAt.Equal(items[j].CastAt) {
			return voteKey(items[i].BlockID, items[i].ActivityID, items[i].MemberID) <
				voteKey(items[j].BlockID, items[j].ActivityID, items[j].MemberID)
		}
		return items[i].CastAt.Before(items[j].CastAt)
	})
	return items, nil
}

func (s *Store) UpsertProposal(_ context.Context, proposal entities.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := proposalKey(proposal.BlockID, proposal.ActivityID)
	if existing, ok := s.proposals[key]; ok {
		// Unique per (block, activity): re-proposing keeps the original row.
		s.proposals[key] = existing
		return nil
	}
	s.proposals[key] = proposal
	return nil
}

func (s *Store) DeleteProposal(_ context.Context, blockID string, activityID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := proposalKey(blockID, activityID)
	if _, ok := s.proposals[key]; !ok {
		return false, nil
	}
	delete(s.proposals, key)
	return true, nil
}

func (s *Store) ListProposalsByBlock(_ context.Context, blockID string) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Proposal, 0)
	for _, proposal := range s.proposals {
		if proposal.BlockID == strings.TrimSpace(blockID) {
			items = append(items, proposal)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ActivityID < items[j].ActivityID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) DeleteProposalsForActivityExcept(
	_ context.Context,
	tripID string,
	activityID string,
	keepBlockID string,
) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for key, proposal := range s.proposals {
		if proposal.TripID != strings.TrimSpace(tripID) {
			continue
		}
		if proposal.ActivityID != strings.TrimSpace(activityID) {
			continue
		}
		if proposal.BlockID == strings.TrimSpace(keepBlockID) {
			continue
		}
		delete(s.proposals, key)
		pruned++
	}
	return pruned, nil
}

func (s *Store) InsertCommit(_ context.Context, commit entities.Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blockID := strings.TrimSpace(commit.BlockID)
	if _, ok := s.commits[blockID]; ok {
		return domainerrors.ErrCommitConflict
	}
	s.commits[blockID] = commit
	return nil
}

func (s *Store) GetCommitByBlock(_ context.Context, blockID string) (entities.Commit, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	commit, ok := s.commits[strings.TrimSpace(blockID)]
	if !ok {
		return entities.Commit{}, false, nil
	}
	return commit, true, nil
}

func (s *Store) ListCommitsByActivity(_ context.Context, tripID string, activityID string) ([]entities.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Commit, 0)
	for _, commit := range s.commits {
		if commit.TripID != strings.TrimSpace(tripID) {
			continue
		}
		if commit.ActivityID != strings.TrimSpace(activityID) {
			continue
		}
		items = append(items, commit)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CommittedAt.Before(items[j].CommittedAt)
	})
	return items, nil
}

func (s *Store) DeleteCommitByBlock(_ context.Context, blockID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(blockID)
	if _, ok := s.commits[key]; !ok {
		return false, nil
	}
	delete(s.commits, key)
	return true, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func voteKey(blockID string, activityID string, memberID string) string {
	return strings.TrimSpace(blockID) + "|" + strings.TrimSpace(activityID) + "|" + strings.TrimSpace(memberID)
}

func proposalKey(blockID string, activityID string) string {
	return strings.TrimSpace(blockID) + "|" + strings.TrimSpace(activityID)
}

func memberKey(tripID string, memberID string) string {
	return strings.TrimSpace(tripID) + "|" + strings.TrimSpace(memberID)
}

var _ ports.VoteRepository = (*Store)(nil)
var _ ports.ProposalRepository = (*Store)(nil)
var _ ports.CommitRepository = (*Store)(nil)
var _ ports.TripDirectory = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
