package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"huddle_server/models"
)

// VotingService runs the continuation vote state machine:
// active -> voting_period -> {extended, dissolved}. Transitions are
// evaluated lazily on read and persisted back; no background timer exists,
// so a group nobody reads simply transitions on the next read.
type VotingService struct {
	Store      MembershipStore
	Exits      *ExitService
	Reshuffler *ReshuffleService
}

// TallyResult is the live vote aggregate for a group's current cycle
type TallyResult struct {
	Yes      int `json:"yes"`
	No       int `json:"no"`
	Total    int `json:"total"`
	Required int `json:"required"`
}

// LifecycleSnapshot is the read model handed to watching clients
type LifecycleSnapshot struct {
	GroupID        string       `json:"groupId"`
	Stage          string       `json:"stage"`
	DaysRemaining  int          `json:"daysRemaining"`
	VoteDeadline   *time.Time   `json:"voteDeadline,omitempty"`
	VoteResults    *TallyResult `json:"voteResults,omitempty"`
	UserVote       string       `json:"userVote,omitempty"`
	ExitWindowOpen bool         `json:"exitWindowOpen"`
	ExitWindowEnds *time.Time   `json:"exitWindowEnds,omitempty"`
}

// ResolveStage reads a group, applies any due lazy transition and persists
// it. Every client read of stage funnels through here.
func (vs *VotingService) ResolveStage(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := vs.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	derived := DeriveStage(group, now)

	if derived == models.StageVoting && group.Stage != models.StageVoting {
		return vs.openVoting(ctx, group, now)
	}

	if group.Stage == models.StageVoting && group.VoteDeadline != nil && now.After(*group.VoteDeadline) {
		return vs.finalizeVote(ctx, group)
	}

	return group, nil
}

// openVoting moves a group whose window elapsed into voting_period
func (vs *VotingService) openVoting(ctx context.Context, group *models.Group, now time.Time) (*models.Group, error) {
	cycle := group.VoteCycle + 1
	deadline := now.Add(models.VotingWindowHours * time.Hour)

	err := vs.Store.UpdateGroupLifecycle(ctx, group.GroupID, GroupLifecycleUpdate{
		Stage:        models.StageVoting,
		VoteDeadline: &deadline,
		VoteCycle:    &cycle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open voting for group %s: %w", group.GroupID, err)
	}

	group.Stage = models.StageVoting
	group.VoteDeadline = &deadline
	group.VoteCycle = cycle
	return group, nil
}

// finalizeVote settles a voting_period whose deadline passed: quorum
// extends the group, anything less dissolves it
func (vs *VotingService) finalizeVote(ctx context.Context, group *models.Group) (*models.Group, error) {
	tally, err := vs.tallyGroup(ctx, group)
	if err != nil {
		return nil, err
	}

	if tally.Yes >= tally.Required && tally.Required > 0 {
		return vs.extendGroup(ctx, group)
	}
	return vs.dissolveGroup(ctx, group)
}

// CastVote records one member's ballot for the current cycle. A second
// ballot from the same member fails with ErrDuplicateVote. Reaching quorum
// extends the group immediately rather than waiting for the deadline.
func (vs *VotingService) CastVote(ctx context.Context, userID, groupID, choice string) (*models.Group, error) {
	if choice != models.VoteYes && choice != models.VoteNo {
		return nil, fmt.Errorf("invalid vote choice %q", choice)
	}

	group, err := vs.ResolveStage(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Stage != models.StageVoting {
		return nil, fmt.Errorf("group %s is not in its voting period", groupID)
	}

	isMember, err := vs.isMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("user %s is not a member of group %s", userID, groupID)
	}

	vote := models.Vote{
		GroupID: groupID,
		VoteKey: models.VoteKeyFor(group.VoteCycle, userID),
		UserID:  userID,
		Cycle:   group.VoteCycle,
		Choice:  choice,
		CastAt:  time.Now().UTC(),
	}
	if err := vs.Store.PutVote(ctx, vote); err != nil {
		return nil, err
	}

	tally, err := vs.tallyGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	if tally.Yes >= tally.Required && tally.Required > 0 {
		return vs.extendGroup(ctx, group)
	}
	return group, nil
}

// Tally recomputes the vote aggregate from stored ballots. Votes are
// append-only and small in volume, so there are no cached counters to
// drift.
func (vs *VotingService) Tally(ctx context.Context, groupID string) (*TallyResult, error) {
	group, err := vs.Store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return vs.tallyGroup(ctx, group)
}

func (vs *VotingService) tallyGroup(ctx context.Context, group *models.Group) (*TallyResult, error) {
	votes, err := vs.Store.ListVotes(ctx, group.GroupID, group.VoteCycle)
	if err != nil {
		return nil, err
	}

	result := &TallyResult{Required: Quorum(group.CurrentMembers)}
	for _, vote := range votes {
		switch vote.Choice {
		case models.VoteYes:
			result.Yes++
		case models.VoteNo:
			result.No++
		}
	}
	result.Total = result.Yes + result.No
	return result, nil
}

// extendGroup starts a fresh 30-day window and grants exit windows to the
// members who voted no
func (vs *VotingService) extendGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	now := time.Now().UTC()
	nextVote := now.Add(models.GroupLifetimeDays * 24 * time.Hour)
	extended := true

	err := vs.Store.UpdateGroupLifecycle(ctx, group.GroupID, GroupLifecycleUpdate{
		Stage:             models.StageExtended,
		ClearVoteDeadline: true,
		Extended:          &extended,
		NextVoteDate:      &nextVote,
		ExtendedAt:        &now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extend group %s: %w", group.GroupID, err)
	}

	group.Stage = models.StageExtended
	group.VoteDeadline = nil
	group.Extended = true
	group.NextVoteDate = &nextVote
	group.ExtendedAt = &now

	votes, err := vs.Store.ListVotes(ctx, group.GroupID, group.VoteCycle)
	if err != nil {
		log.Printf("Failed to list votes for exit grants on group %s: %v", group.GroupID, err)
		return group, nil
	}
	for _, vote := range votes {
		if vote.Choice != models.VoteNo {
			continue
		}
		if err := vs.Exits.GrantIfEligible(ctx, vote.UserID, group.GroupID); err != nil {
			log.Printf("Failed to grant exit window to %s on group %s: %v", vote.UserID, group.GroupID, err)
		}
	}

	return group, nil
}

// dissolveGroup marks the group dissolved and reshuffles each member
// individually; their future preferences may differ, so the group never
// moves as a block
func (vs *VotingService) dissolveGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	err := vs.Store.UpdateGroupLifecycle(ctx, group.GroupID, GroupLifecycleUpdate{
		Stage:             models.StageDissolved,
		ClearVoteDeadline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dissolve group %s: %w", group.GroupID, err)
	}

	group.Stage = models.StageDissolved
	group.VoteDeadline = nil

	members, err := vs.Store.ListMembers(ctx, group.GroupID)
	if err != nil {
		log.Printf("Failed to list members of dissolved group %s: %v", group.GroupID, err)
		return group, nil
	}
	for _, member := range members {
		if _, err := vs.Reshuffler.Reshuffle(ctx, member.UserID); err != nil {
			// The member is left group-less; re-invoking matchMe recovers.
			log.Printf("Failed to reshuffle %s out of dissolved group %s: %v", member.UserID, group.GroupID, err)
		}
	}

	return group, nil
}

// Snapshot builds the lifecycle view for one member of a group
func (vs *VotingService) Snapshot(ctx context.Context, groupID, userID string) (*LifecycleSnapshot, error) {
	group, err := vs.ResolveStage(ctx, groupID)
	if err != nil {
		return nil, err
	}

	fields := DeriveFields(group, time.Now().UTC())
	snapshot := &LifecycleSnapshot{
		GroupID:       group.GroupID,
		Stage:         group.Stage,
		DaysRemaining: fields.DaysRemaining,
		VoteDeadline:  group.VoteDeadline,
	}

	if group.VoteCycle > 0 {
		tally, err := vs.tallyGroup(ctx, group)
		if err != nil {
			return nil, err
		}
		snapshot.VoteResults = tally

		votes, err := vs.Store.ListVotes(ctx, groupID, group.VoteCycle)
		if err != nil {
			return nil, err
		}
		for _, vote := range votes {
			if vote.UserID == userID {
				snapshot.UserVote = vote.Choice
				break
			}
		}
	}

	if userID != "" {
		open, err := vs.Exits.HasOpportunity(ctx, userID, groupID)
		if err != nil {
			return nil, err
		}
		snapshot.ExitWindowOpen = open
		if open {
			if request, err := vs.Store.GetExitRequest(ctx, userID, groupID); err == nil {
				snapshot.ExitWindowEnds = &request.ExitWindowEnds
			}
		}
	}

	return snapshot, nil
}

func (vs *VotingService) isMember(ctx context.Context, groupID, userID string) (bool, error) {
	members, err := vs.Store.ListMembers(ctx, groupID)
	if err != nil {
		return false, err
	}
	for _, member := range members {
		if member.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
