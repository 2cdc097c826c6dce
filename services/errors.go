package services

import "errors"

// Error kinds surfaced by the engine. Controllers map these to HTTP codes;
// callers distinguish them with errors.Is.
var (
	// ErrInvalidProfile means the profile failed validation; not retryable
	// until the caller fixes the input.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrMatchingUnavailable means group placement failed after the bounded
	// retry budget; transient, the caller may re-invoke matching.
	ErrMatchingUnavailable = errors.New("matching unavailable")

	// ErrDuplicateVote means the member already voted in this cycle.
	ErrDuplicateVote = errors.New("duplicate vote")

	// ErrNoOpportunity means no unprocessed exit window exists or it lapsed;
	// the caller falls back to the regular switch-allowance flow.
	ErrNoOpportunity = errors.New("no exit opportunity")

	// ErrReshuffleFailed means the user was removed from their group but
	// could not be placed in a new one; re-invoking matching is safe.
	ErrReshuffleFailed = errors.New("reshuffle failed")

	// ErrGroupFull is the store's capacity rejection for a single group.
	ErrGroupFull = errors.New("group at capacity")

	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConditionalCheckFailed wraps DynamoDB conditional write rejections.
	ErrConditionalCheckFailed = errors.New("conditional check failed")
)
