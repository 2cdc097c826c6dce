package services

import (
	"context"

	"huddle_server/models"
)

// ModeService chooses the matching mode from the registered population.
// Below the threshold, preference-based matching would starve groups of
// members, so compatibility constraints are relaxed.
type ModeService struct {
	Store MembershipStore
}

// SelectMode returns flexible while the population is small, strict once it
// crosses models.PopulationThreshold
func (ms *ModeService) SelectMode(ctx context.Context) (string, error) {
	count, err := ms.Store.CountProfiles(ctx)
	if err != nil {
		return "", err
	}
	if count < models.PopulationThreshold {
		return models.ModeFlexible, nil
	}
	return models.ModeStrict, nil
}
