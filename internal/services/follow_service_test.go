package services

import (
	"context"
	"sync"
	"testing"

	"feedflow/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowSelf(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	_, err := f.Follows.Follow(context.Background(), alice.ID, alice.ID)
	require.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, f.count(t, &models.Follow{}, "1 = 1"))
}

func TestFollowUnfollowCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	edge, err := f.Follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, edge.FollowerID)
	assert.Equal(t, bob.ID, edge.FollowingID)
	assert.False(t, edge.CreatedAt.IsZero())

	_, err = f.Follows.Follow(ctx, alice.ID, bob.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("follows.create", "conflict")))

	ok, err := f.Follows.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.Follows.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.Follows.Unfollow(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, f.Follows.Unfollow(ctx, alice.ID, bob.ID), ErrNotFound)

	_, err = f.Follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
}

func TestFollowMutual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	_, err := f.Follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.Follows.Follow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.count(t, &models.Follow{}, "1 = 1"))
}

func TestFollowMissingUser(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	_, err := f.Follows.Follow(context.Background(), alice.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.Follows.Follow(context.Background(), 999, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFollowersAndFollowingNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob, carol, dave := f.user(t, "bob"), f.user(t, "carol"), f.user(t, "dave")

	for _, u := range []*models.User{bob, carol, dave} {
		_, err := f.Follows.Follow(ctx, u.ID, alice.ID)
		require.NoError(t, err)
		_, err = f.Follows.Follow(ctx, alice.ID, u.ID)
		require.NoError(t, err)
	}

	followers, err := f.Follows.Followers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, followers, 3)
	assert.Equal(t, []string{"dave", "carol", "bob"}, []string{
		followers[0].Follower.Username, followers[1].Follower.Username, followers[2].Follower.Username,
	})

	following, err := f.Follows.Following(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 3)
	assert.Equal(t, dave.ID, following[0].FollowingID)
	assert.Equal(t, bob.ID, following[2].FollowingID)
	for i := 1; i < len(following); i++ {
		assert.True(t, following[i-1].CreatedAt.After(following[i].CreatedAt))
	}
}

func TestFollowConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.Follows.Follow(context.Background(), alice.ID, bob.ID)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case KindOf(err) == KindConflict:
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, int64(1), f.count(t, &models.Follow{}, "follower_id = ? AND following_id = ?", alice.ID, bob.ID))
}
