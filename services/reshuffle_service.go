package services

import (
	"context"
	"fmt"
	"log"

	"huddle_server/models"
)

// ReshuffleService removes a user from their current group and re-enters
// them into matching. Used for voluntary leave-and-rematch and for the
// per-member scatter after a group dissolves.
type ReshuffleService struct {
	Store    MembershipStore
	Modes    *ModeService
	Matcher  *MatcherService
	Profiles *ProfileService
}

// Reshuffle places the user into a fresh group. Calling it without a
// current membership is fine; it proceeds straight to matching. On failure
// the user is left group-less and no partial membership remains. The caller
// surfaces a retryable error; there is no orchestrator-level retry beyond
// the matcher's own budget.
func (rs *ReshuffleService) Reshuffle(ctx context.Context, userID string) (*models.Group, error) {
	memberships, err := rs.Store.MembershipsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: looking up membership: %v", ErrReshuffleFailed, err)
	}

	for _, membership := range memberships {
		// Removing an absent membership is a no-op, so a racing leave
		// elsewhere cannot break the reshuffle.
		if err := rs.Store.RemoveMember(ctx, membership.GroupID, userID); err != nil {
			log.Printf("Failed to remove user %s from group %s: %v", userID, membership.GroupID, err)
		}
	}

	profile, err := rs.Profiles.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading profile: %v", ErrReshuffleFailed, err)
	}

	mode, err := rs.Modes.SelectMode(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: selecting mode: %v", ErrReshuffleFailed, err)
	}

	group, err := rs.Matcher.FindOrCreateGroup(ctx, userID, mode, profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReshuffleFailed, err)
	}
	return group, nil
}
