package models

// Group lifecycle stages
const (
	StageActive    = "active"
	StageVoting    = "voting_period"
	StageExtended  = "extended"
	StageDissolved = "dissolved"
)

// Matching modes
const (
	ModeFlexible = "flexible"
	ModeStrict   = "strict"
)

// Vote choices
const (
	VoteYes = "yes"
	VoteNo  = "no"
)

// Exit opportunity types
const (
	OpportunityVotedNo = "voted_no_extended"
)

// Matching and lifecycle policy
const (
	DefaultCapacity       = 10  // members per group unless overridden
	PopulationThreshold   = 100 // registered profiles required for strict mode
	StrictCompletenessMin = 60  // minimum completeness score for strict paths
	MinTagOverlap         = 2   // shared tags required for a strict candidate
	GroupLifetimeDays     = 30  // days before a continuation vote opens
	VotingWindowHours     = 48  // how long voting_period stays open
	ExitWindowHours       = 72  // leave-without-penalty window after extension
	QuorumRatio           = 0.51
	MaxJoinAttempts       = 3
)
