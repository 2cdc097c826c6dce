package services

import (
	"math"
	"time"

	"huddle_server/models"
)

// LifecycleFields are the time-derived attributes of a group. Everything
// here is computed from stored timestamps and the caller's clock; nothing
// is cached, so concurrent sessions can never disagree about a stage for
// longer than one read.
type LifecycleFields struct {
	Stage         string     `json:"stage"`
	DaysRemaining int        `json:"daysRemaining"`
	WindowEnd     time.Time  `json:"windowEnd"`
	VoteDeadline  *time.Time `json:"voteDeadline,omitempty"`
}

// DeriveStage answers what stage a group is in at the given instant. It
// reads no state beyond the group row and never writes; persisting a
// derived transition is the VotingService's job.
func DeriveStage(group *models.Group, now time.Time) string {
	switch group.Stage {
	case models.StageDissolved:
		return models.StageDissolved
	case models.StageVoting:
		// Outcome resolution needs the tally, which is beyond a clock's remit.
		return models.StageVoting
	}

	if !now.Before(group.WindowEnd()) {
		return models.StageVoting
	}
	return group.Stage
}

// DeriveFields computes the lifecycle attributes clients display
func DeriveFields(group *models.Group, now time.Time) LifecycleFields {
	windowEnd := group.WindowEnd()

	daysRemaining := 0
	if remaining := windowEnd.Sub(now); remaining > 0 {
		daysRemaining = int(math.Ceil(remaining.Hours() / 24))
	}

	fields := LifecycleFields{
		Stage:         DeriveStage(group, now),
		DaysRemaining: daysRemaining,
		WindowEnd:     windowEnd,
	}

	if group.VoteDeadline != nil {
		fields.VoteDeadline = group.VoteDeadline
	} else if fields.Stage == models.StageVoting {
		deadline := windowEnd.Add(models.VotingWindowHours * time.Hour)
		fields.VoteDeadline = &deadline
	}
	return fields
}

// Quorum is the minimum yes-votes required to extend a group: 51% of the
// current member count, rounded up, recomputed live at tally time.
func Quorum(currentMembers int) int {
	if currentMembers <= 0 {
		return 0
	}
	return int(math.Ceil(models.QuorumRatio * float64(currentMembers)))
}
