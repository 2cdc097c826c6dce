package models

import "time"

// Group defines the structure for a matched group and its lifecycle state
type Group struct {
	GroupID        string     `dynamodbav:"groupId" json:"groupId"` // Partition Key
	Name           string     `dynamodbav:"name" json:"name"`
	Vibe           string     `dynamodbav:"vibe,omitempty" json:"vibe,omitempty"` // Label for discoverability (strict mode)
	Capacity       int        `dynamodbav:"capacity" json:"capacity"`
	CurrentMembers int        `dynamodbav:"currentMembers" json:"currentMembers"`
	Stage          string     `dynamodbav:"stage" json:"stage"`
	CreatedAt      time.Time  `dynamodbav:"createdAt" json:"createdAt"`
	VoteDeadline   *time.Time `dynamodbav:"voteDeadline,omitempty" json:"voteDeadline,omitempty"` // Set while in voting_period
	Extended       bool       `dynamodbav:"extended,omitempty" json:"extended,omitempty"`
	NextVoteDate   *time.Time `dynamodbav:"nextVoteDate,omitempty" json:"nextVoteDate,omitempty"` // End of the current 30-day window
	VoteCycle      int        `dynamodbav:"voteCycle,omitempty" json:"voteCycle,omitempty"`       // Incremented each time voting opens
	ExtendedAt     *time.Time `dynamodbav:"extendedAt,omitempty" json:"extendedAt,omitempty"`     // Last extension time, anchors exit windows
}

// WindowEnd returns when the current 30-day window closes and voting begins
func (g *Group) WindowEnd() time.Time {
	if g.NextVoteDate != nil {
		return *g.NextVoteDate
	}
	return g.CreatedAt.Add(GroupLifetimeDays * 24 * time.Hour)
}

// GroupsTable is the DynamoDB table name for groups
const GroupsTable = "Groups"
