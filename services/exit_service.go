package services

import (
	"context"
	"errors"
	"time"

	"huddle_server/models"

	"github.com/google/uuid"
)

// ExitService grants, checks and consumes one-time exit windows: members
// who voted no but whose group was extended anyway may leave for a bounded
// time without spending their regular switch allowance.
type ExitService struct {
	Store MembershipStore
}

// GrantIfEligible creates an exit request iff the user voted no in the
// group's latest cycle and the group ended up extended. Granting twice is a
// no-op at the store.
func (es *ExitService) GrantIfEligible(ctx context.Context, userID, groupID string) error {
	group, err := es.Store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.Stage != models.StageExtended {
		return nil
	}

	votes, err := es.Store.ListVotes(ctx, groupID, group.VoteCycle)
	if err != nil {
		return err
	}
	votedNo := false
	for _, vote := range votes {
		if vote.UserID == userID && vote.Choice == models.VoteNo {
			votedNo = true
			break
		}
	}
	if !votedNo {
		return nil
	}

	now := time.Now().UTC()
	anchor := now
	if group.ExtendedAt != nil {
		anchor = *group.ExtendedAt
	}

	return es.Store.PutExitRequest(ctx, models.ExitRequest{
		UserID:          userID,
		GroupID:         groupID,
		RequestID:       uuid.New().String(),
		OpportunityType: models.OpportunityVotedNo,
		ExitWindowEnds:  anchor.Add(models.ExitWindowHours * time.Hour),
		Processed:       false,
		CreatedAt:       now,
	})
}

// HasOpportunity reports whether an unprocessed, unexpired exit window
// exists for the (user, group) pair
func (es *ExitService) HasOpportunity(ctx context.Context, userID, groupID string) (bool, error) {
	request, err := es.Store.GetExitRequest(ctx, userID, groupID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if request.Processed {
		return false, nil
	}
	return time.Now().UTC().Before(request.ExitWindowEnds), nil
}

// Consume atomically marks the exit window used. Fails with ErrNoOpportunity
// when none exists or the window lapsed; the caller then falls back to the
// regular switch-allowance path.
func (es *ExitService) Consume(ctx context.Context, userID, groupID string) error {
	open, err := es.HasOpportunity(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if !open {
		return ErrNoOpportunity
	}
	return es.Store.MarkExitProcessed(ctx, userID, groupID)
}
