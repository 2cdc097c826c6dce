package services

import (
	"context"
	"time"

	"huddle_server/models"
)

// GroupLifecycleUpdate carries the lifecycle fields a stage transition
// touches. Only non-nil fields are written, so concurrent membership counter
// updates are never clobbered.
type GroupLifecycleUpdate struct {
	Stage             string
	VoteDeadline      *time.Time
	ClearVoteDeadline bool
	VoteCycle         *int
	Extended          *bool
	NextVoteDate      *time.Time
	ExtendedAt        *time.Time
}

// MembershipStore is the engine's narrow view of durable storage. It is the
// sole writer-of-record: capacity ceilings, one-vote-per-cycle and
// one-unprocessed-exit-request constraints are enforced here, never by
// caller-side read-then-write.
type MembershipStore interface {
	// Profiles
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	PutProfile(ctx context.Context, profile models.UserProfile) error
	CountProfiles(ctx context.Context) (int, error)

	// Groups
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	PutGroup(ctx context.Context, group models.Group) error
	ListGroupsByStage(ctx context.Context, stage string) ([]models.Group, error)
	UpdateGroupLifecycle(ctx context.Context, groupID string, update GroupLifecycleUpdate) error

	// Memberships. AddMemberIfCapacity is a single conditional write; it
	// returns ErrGroupFull when the capacity ceiling rejects the join.
	// RemoveMember is a no-op for an absent membership.
	AddMemberIfCapacity(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListMembers(ctx context.Context, groupID string) ([]models.Membership, error)
	MembershipsForUser(ctx context.Context, userID string) ([]models.Membership, error)

	// Votes. PutVote returns ErrDuplicateVote when the member already voted
	// in the vote's cycle.
	PutVote(ctx context.Context, vote models.Vote) error
	ListVotes(ctx context.Context, groupID string, cycle int) ([]models.Vote, error)

	// Exit requests. At most one unprocessed request per (user, group);
	// MarkExitProcessed returns ErrNoOpportunity when none is pending.
	PutExitRequest(ctx context.Context, request models.ExitRequest) error
	GetExitRequest(ctx context.Context, userID, groupID string) (*models.ExitRequest, error)
	MarkExitProcessed(ctx context.Context, userID, groupID string) error
}
