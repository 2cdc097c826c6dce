package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"huddle_server/models"
	"huddle_server/utils"

	"github.com/google/uuid"
)

// MatcherService finds or creates a group with spare capacity for a user.
// The join itself is a single conditional write at the store; the matcher
// never pre-checks capacity and inserts separately.
type MatcherService struct {
	Store    MembershipStore
	Profiles *ProfileService
}

// FindOrCreateGroup places the user into an open group, creating one when
// necessary. The retry budget is models.MaxJoinAttempts total attempts; the
// last attempt is always group creation. Fails with ErrMatchingUnavailable
// once the budget is spent.
func (m *MatcherService) FindOrCreateGroup(ctx context.Context, userID, mode string, profile *models.UserProfile) (*models.Group, error) {
	strict := mode == models.ModeStrict && profile != nil && m.Profiles.IsStrictModeEligible(*profile)

	candidates, err := m.openGroups(ctx, strict, profile)
	if err != nil {
		// Candidate discovery failing still leaves creation as a fallback.
		log.Printf("Failed to list candidate groups: %v", err)
		candidates = nil
	}

	attempts := 0
	for _, candidate := range candidates {
		if attempts >= models.MaxJoinAttempts-1 {
			break
		}
		attempts++

		joinErr := m.Store.AddMemberIfCapacity(ctx, candidate.GroupID, userID)
		if joinErr == nil {
			joined := candidate
			joined.CurrentMembers++
			return &joined, nil
		}
		if errors.Is(joinErr, ErrGroupFull) {
			continue
		}
		log.Printf("Join attempt on group %s failed: %v", candidate.GroupID, joinErr)
	}

	var lastErr error
	for attempts < models.MaxJoinAttempts {
		attempts++
		group, createErr := m.createAndJoin(ctx, userID, strict, profile)
		if createErr == nil {
			return group, nil
		}
		lastErr = createErr
		log.Printf("Group creation attempt failed for user %s: %v", userID, createErr)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchingUnavailable, lastErr)
	}
	return nil, ErrMatchingUnavailable
}

// openGroups returns active groups with spare capacity, newest first. In
// strict mode candidates also need enough tag overlap with the joiner.
func (m *MatcherService) openGroups(ctx context.Context, strict bool, profile *models.UserProfile) ([]models.Group, error) {
	groups, err := m.Store.ListGroupsByStage(ctx, models.StageActive)
	if err != nil {
		return nil, err
	}

	var open []models.Group
	for _, group := range groups {
		if group.CurrentMembers >= group.Capacity {
			continue
		}
		if strict {
			compatible, err := m.isCompatible(ctx, group, profile)
			if err != nil {
				log.Printf("Compatibility check failed for group %s: %v", group.GroupID, err)
				continue
			}
			if !compatible {
				continue
			}
		}
		open = append(open, group)
	}
	return open, nil
}

// isCompatible aggregates the tags of current members and requires at least
// models.MinTagOverlap shared tags with the joining profile
func (m *MatcherService) isCompatible(ctx context.Context, group models.Group, profile *models.UserProfile) (bool, error) {
	members, err := m.Store.ListMembers(ctx, group.GroupID)
	if err != nil {
		return false, err
	}
	if len(members) == 0 {
		// An empty group constrains nobody.
		return true, nil
	}

	var aggregate []string
	for _, member := range members {
		memberProfile, err := m.Store.GetProfile(ctx, member.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return false, err
		}
		aggregate = append(aggregate, memberProfile.AllTags()...)
	}

	return utils.TagOverlapCount(profile.AllTags(), aggregate) >= models.MinTagOverlap, nil
}

// createAndJoin provisions a fresh group and joins the user to it
func (m *MatcherService) createAndJoin(ctx context.Context, userID string, strict bool, profile *models.UserProfile) (*models.Group, error) {
	group := models.Group{
		GroupID:        uuid.New().String(),
		Name:           "Huddle-" + uuid.New().String()[:8],
		Capacity:       models.DefaultCapacity,
		CurrentMembers: 0,
		Stage:          models.StageActive,
		CreatedAt:      time.Now().UTC(),
	}
	if strict && profile != nil {
		// Label the group with the joiner's primary tag for discoverability.
		if tag := utils.FirstTag(profile.GenreTags, profile.PersonalityTags, profile.HabitTags); tag != "" {
			group.Vibe = tag
			group.Name = tag + " Huddle"
		}
	}

	if err := m.Store.PutGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	if err := m.Store.AddMemberIfCapacity(ctx, group.GroupID, userID); err != nil {
		return nil, fmt.Errorf("failed to join fresh group %s: %w", group.GroupID, err)
	}

	group.CurrentMembers = 1
	return &group, nil
}
