package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"huddle_server/models"
	"huddle_server/utils"
)

// Completeness weights; a fully populated profile scores 100
const (
	usernamePoints    = 30
	genrePointsMax    = 25
	genrePointsPer    = 5
	personalityMax    = 25
	personalityPer    = 5
	habitPointsMax    = 20
	habitPointsPer    = 4
	usernameMinLength = 3
	usernameMaxLength = 30
)

// ProfileService validates, scores and persists user profiles
type ProfileService struct {
	Store MembershipStore
}

// ValidationResult reports fatal errors and non-fatal warnings. Warnings
// flag empty tag categories that degrade match quality without blocking
// participation.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validate checks matching eligibility of a profile
func (ps *ProfileService) Validate(profile models.UserProfile) ValidationResult {
	result := ValidationResult{Valid: true}

	username := strings.TrimSpace(profile.UserName)
	switch {
	case username == "":
		result.Errors = append(result.Errors, "username is required")
	case len(username) < usernameMinLength:
		result.Errors = append(result.Errors, fmt.Sprintf("username must be at least %d characters", usernameMinLength))
	case len(username) > usernameMaxLength:
		result.Errors = append(result.Errors, fmt.Sprintf("username must be at most %d characters", usernameMaxLength))
	}

	genres := utils.NormalizeTags(profile.GenreTags)
	personality := utils.NormalizeTags(profile.PersonalityTags)
	habits := utils.NormalizeTags(profile.HabitTags)

	if len(genres)+len(personality)+len(habits) == 0 {
		result.Errors = append(result.Errors, "at least one genre, personality or habit tag is required")
	}
	if len(genres) == 0 {
		result.Warnings = append(result.Warnings, "no genre tags set, match quality will be reduced")
	}
	if len(personality) == 0 {
		result.Warnings = append(result.Warnings, "no personality tags set, match quality will be reduced")
	}
	if len(habits) == 0 {
		result.Warnings = append(result.Warnings, "no habit tags set, match quality will be reduced")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// Sanitize trims the username and drops blank tag entries; pure, no I/O
func (ps *ProfileService) Sanitize(profile models.UserProfile) models.UserProfile {
	profile.UserName = strings.TrimSpace(profile.UserName)
	profile.GenreTags = utils.NormalizeTags(profile.GenreTags)
	profile.PersonalityTags = utils.NormalizeTags(profile.PersonalityTags)
	profile.HabitTags = utils.NormalizeTags(profile.HabitTags)
	return profile
}

// Completeness scores a profile 0..100 from field population
func (ps *ProfileService) Completeness(profile models.UserProfile) int {
	score := 0
	if strings.TrimSpace(profile.UserName) != "" {
		score += usernamePoints
	}
	score += capScore(len(utils.NormalizeTags(profile.GenreTags))*genrePointsPer, genrePointsMax)
	score += capScore(len(utils.NormalizeTags(profile.PersonalityTags))*personalityPer, personalityMax)
	score += capScore(len(utils.NormalizeTags(profile.HabitTags))*habitPointsPer, habitPointsMax)
	return score
}

// IsStrictModeEligible reports whether the profile is complete enough for
// preference-based matching
func (ps *ProfileService) IsStrictModeEligible(profile models.UserProfile) bool {
	return ps.Completeness(profile) >= models.StrictCompletenessMin
}

// AddUserProfile sanitizes, validates and stores a new profile
func (ps *ProfileService) AddUserProfile(ctx context.Context, profile models.UserProfile) (*models.UserProfile, error) {
	profile = ps.Sanitize(profile)
	if result := ps.Validate(profile); !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(result.Errors, "; "))
	}
	if profile.CreatedAt == "" {
		profile.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := ps.Store.PutProfile(ctx, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetUserProfile retrieves a user profile by ID
func (ps *ProfileService) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return ps.Store.GetProfile(ctx, userID)
}

// UpdateUserProfile applies field updates to an existing profile. Renaming
// sets the one-time usernameChanged flag.
func (ps *ProfileService) UpdateUserProfile(ctx context.Context, userID string, updates models.UserProfile) (*models.UserProfile, error) {
	existing, err := ps.Store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if newName := strings.TrimSpace(updates.UserName); newName != "" && newName != existing.UserName {
		updated.UserName = newName
		updated.UsernameChanged = true
	}
	if updates.GenreTags != nil {
		updated.GenreTags = updates.GenreTags
	}
	if updates.PersonalityTags != nil {
		updated.PersonalityTags = updates.PersonalityTags
	}
	if updates.HabitTags != nil {
		updated.HabitTags = updates.HabitTags
	}

	updated = ps.Sanitize(updated)
	if result := ps.Validate(updated); !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(result.Errors, "; "))
	}

	if err := ps.Store.PutProfile(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func capScore(score, max int) int {
	if score > max {
		return max
	}
	return score
}
