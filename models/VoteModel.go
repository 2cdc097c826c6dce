package models

import (
	"fmt"
	"time"
)

// Vote is a single continuation ballot, append-only
type Vote struct {
	GroupID string    `dynamodbav:"groupId" json:"groupId"` // Partition Key
	VoteKey string    `dynamodbav:"voteKey" json:"voteKey"` // Sort Key: CYCLE#<n>#USER#<id>, enforces one vote per cycle
	UserID  string    `dynamodbav:"userId" json:"userId"`
	Cycle   int       `dynamodbav:"cycle" json:"cycle"`
	Choice  string    `dynamodbav:"choice" json:"choice"` // yes | no
	CastAt  time.Time `dynamodbav:"castAt" json:"castAt"`
}

// VoteKeyFor builds the sort key that makes a ballot unique per cycle
func VoteKeyFor(cycle int, userID string) string {
	return fmt.Sprintf("CYCLE#%03d#USER#%s", cycle, userID)
}

// GroupVotesTable is the DynamoDB table name for continuation votes
const GroupVotesTable = "GroupVotes"
