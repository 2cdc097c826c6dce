package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"huddle_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedExitRequest(e *engine, userID, groupID string, windowEnds time.Time, processed bool) {
	e.store.exits[exitKey(userID, groupID)] = models.ExitRequest{
		UserID:          userID,
		GroupID:         groupID,
		RequestID:       "req-1",
		OpportunityType: models.OpportunityVotedNo,
		ExitWindowEnds:  windowEnds,
		Processed:       processed,
		CreatedAt:       time.Now().UTC().Add(-1 * time.Hour),
	}
}

func TestHasOpportunityOpenWindow(t *testing.T) {
	e := newEngine()
	seedExitRequest(e, "u1", "g1", time.Now().UTC().Add(48*time.Hour), false)

	open, err := e.exits.HasOpportunity(context.Background(), "u1", "g1")
	require.NoError(t, err)
	assert.True(t, open)
}

func TestHasOpportunityLapsedWindow(t *testing.T) {
	e := newEngine()
	seedExitRequest(e, "u1", "g1", time.Now().UTC().Add(-1*time.Minute), false)

	open, err := e.exits.HasOpportunity(context.Background(), "u1", "g1")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestHasOpportunityNoneGranted(t *testing.T) {
	e := newEngine()

	open, err := e.exits.HasOpportunity(context.Background(), "u1", "g1")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestConsumeMarksProcessed(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	seedExitRequest(e, "u1", "g1", time.Now().UTC().Add(48*time.Hour), false)

	require.NoError(t, e.exits.Consume(ctx, "u1", "g1"))

	request, err := e.store.GetExitRequest(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.True(t, request.Processed)

	// A second consume finds nothing left.
	err = e.exits.Consume(ctx, "u1", "g1")
	assert.True(t, errors.Is(err, ErrNoOpportunity))
}

func TestConsumeLapsedWindowFails(t *testing.T) {
	e := newEngine()
	seedExitRequest(e, "u1", "g1", time.Now().UTC().Add(-1*time.Minute), false)

	err := e.exits.Consume(context.Background(), "u1", "g1")
	assert.True(t, errors.Is(err, ErrNoOpportunity))
}

func TestGrantIfEligibleRequiresNoVoteAndExtension(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	ids := e.seedProfiles(3)

	extendedAt := time.Now().UTC()
	nextVote := extendedAt.Add(models.GroupLifetimeDays * 24 * time.Hour)
	e.seedGroup(models.Group{
		GroupID:   "g1",
		Name:      "Extended",
		Capacity:  models.DefaultCapacity,
		Stage:     models.StageActive,
		CreatedAt: extendedAt.Add(-31 * 24 * time.Hour),
	}, ids...)
	group := e.store.groups["g1"]
	group.Stage = models.StageExtended
	group.Extended = true
	group.VoteCycle = 1
	group.NextVoteDate = &nextVote
	group.ExtendedAt = &extendedAt
	e.store.groups["g1"] = group

	e.store.votes["g1"] = map[string]models.Vote{
		models.VoteKeyFor(1, ids[0]): {GroupID: "g1", VoteKey: models.VoteKeyFor(1, ids[0]), UserID: ids[0], Cycle: 1, Choice: models.VoteNo},
		models.VoteKeyFor(1, ids[1]): {GroupID: "g1", VoteKey: models.VoteKeyFor(1, ids[1]), UserID: ids[1], Cycle: 1, Choice: models.VoteYes},
	}

	// The no-voter is granted a window anchored at the extension time.
	require.NoError(t, e.exits.GrantIfEligible(ctx, ids[0], "g1"))
	request, err := e.store.GetExitRequest(ctx, ids[0], "g1")
	require.NoError(t, err)
	assert.WithinDuration(t, extendedAt.Add(models.ExitWindowHours*time.Hour), request.ExitWindowEnds, time.Second)

	// The yes-voter is not.
	require.NoError(t, e.exits.GrantIfEligible(ctx, ids[1], "g1"))
	_, err = e.store.GetExitRequest(ctx, ids[1], "g1")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Non-voters are not either.
	require.NoError(t, e.exits.GrantIfEligible(ctx, ids[2], "g1"))
	_, err = e.store.GetExitRequest(ctx, ids[2], "g1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGrantIfEligibleIsIdempotent(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	seedExitRequest(e, "u1", "g1", time.Now().UTC().Add(48*time.Hour), false)

	original, err := e.store.GetExitRequest(ctx, "u1", "g1")
	require.NoError(t, err)

	// Re-granting over an unprocessed request must not reset the window.
	err = e.store.PutExitRequest(ctx, models.ExitRequest{
		UserID:         "u1",
		GroupID:        "g1",
		RequestID:      "req-2",
		ExitWindowEnds: time.Now().UTC().Add(720 * time.Hour),
	})
	require.NoError(t, err)

	current, err := e.store.GetExitRequest(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, original.RequestID, current.RequestID)
	assert.Equal(t, original.ExitWindowEnds, current.ExitWindowEnds)
}
