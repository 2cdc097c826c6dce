package models

import "time"

// Membership is the join relation between a user and a group
type Membership struct {
	GroupID  string    `dynamodbav:"groupId" json:"groupId"` // Partition Key
	UserID   string    `dynamodbav:"userId" json:"userId"`   // Sort Key, also indexed via userId-index GSI
	JoinedAt time.Time `dynamodbav:"joinedAt" json:"joinedAt"`
}

// GroupMembersTable is the DynamoDB table name for memberships
const GroupMembersTable = "GroupMembers"

// MembersByUserIndex is the GSI used to look up a user's membership
const MembersByUserIndex = "userId-index"
