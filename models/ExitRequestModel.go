package models

import "time"

// ExitRequest is a time-bounded opportunity to leave a group without
// spending the regular switch allowance
type ExitRequest struct {
	UserID          string    `dynamodbav:"userId" json:"userId"`   // Partition Key
	GroupID         string    `dynamodbav:"groupId" json:"groupId"` // Sort Key
	RequestID       string    `dynamodbav:"requestId" json:"requestId"`
	OpportunityType string    `dynamodbav:"opportunityType" json:"opportunityType"`
	ExitWindowEnds  time.Time `dynamodbav:"exitWindowEnds" json:"exitWindowEnds"`
	Processed       bool      `dynamodbav:"processed" json:"processed"`
	CreatedAt       time.Time `dynamodbav:"createdAt" json:"createdAt"`
}

// UserExitRequestsTable is the DynamoDB table name for exit requests
const UserExitRequestsTable = "UserExitRequests"
