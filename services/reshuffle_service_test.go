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

func TestReshuffleWithoutMembershipProceedsToMatching(t *testing.T) {
	e := newEngine()
	ids := e.seedProfiles(1)

	group, err := e.reshuffler.Reshuffle(context.Background(), ids[0])
	require.NoError(t, err)
	require.NotNil(t, group)
	assert.Equal(t, 1, group.CurrentMembers)
}

func TestReshuffleLeavesCurrentGroup(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	ids := e.seedProfiles(5)
	mover := ids[0]

	e.seedGroup(models.Group{
		GroupID:   "origin",
		Name:      "Origin",
		Capacity:  models.DefaultCapacity,
		Stage:     models.StageActive,
		CreatedAt: time.Now().UTC().Add(-24 * time.Hour),
	}, ids...)

	group, err := e.reshuffler.Reshuffle(ctx, mover)
	require.NoError(t, err)

	// With spare capacity in the origin group, the mover may land right
	// back in it; either way they hold exactly one membership afterwards.
	memberships, err := e.store.MembershipsForUser(ctx, mover)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, group.GroupID, memberships[0].GroupID)

	origin, err := e.store.GetGroup(ctx, "origin")
	require.NoError(t, err)
	assert.LessOrEqual(t, origin.CurrentMembers, models.DefaultCapacity)
}

func TestReshuffleMovesOutOfFullGroup(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	ids := e.seedProfiles(models.DefaultCapacity)
	mover := ids[0]

	e.seedGroup(models.Group{
		GroupID:   "origin",
		Name:      "Origin",
		Capacity:  models.DefaultCapacity,
		Stage:     models.StageActive,
		CreatedAt: time.Now().UTC().Add(-24 * time.Hour),
	}, ids...)

	// A second open group exists, created more recently.
	e.seedGroup(models.Group{
		GroupID:   "target",
		Name:      "Target",
		Capacity:  models.DefaultCapacity,
		Stage:     models.StageActive,
		CreatedAt: time.Now().UTC(),
	})

	group, err := e.reshuffler.Reshuffle(ctx, mover)
	require.NoError(t, err)
	assert.Equal(t, "target", group.GroupID)

	origin, err := e.store.GetGroup(ctx, "origin")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCapacity-1, origin.CurrentMembers)

	members, err := e.store.ListMembers(ctx, "origin")
	require.NoError(t, err)
	for _, member := range members {
		assert.NotEqual(t, mover, member.UserID)
	}
}

func TestReshuffleWithoutProfileFails(t *testing.T) {
	e := newEngine()

	_, err := e.reshuffler.Reshuffle(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReshuffleFailed))
}
