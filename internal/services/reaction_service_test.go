package services

import (
	"context"
	"sync"
	"testing"

	"feedflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactReplacesType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	p := f.post(t, alice, "hello")

	first, err := f.Reactions.React(ctx, bob.ID, p.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionLike, first.Type)

	second, err := f.Reactions.React(ctx, bob.ID, p.ID, models.ReactionLove)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.ReactionLove, second.Type)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))

	got, err := f.Reactions.Get(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReactionLove, got.Type)
	assert.Equal(t, int64(1), f.count(t, &models.Reaction{}, "user_id = ? AND post_id = ?", bob.ID, p.ID))
}

func TestReactLoveThenWow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	p := f.post(t, alice, "hello")

	_, err := f.Reactions.React(ctx, alice.ID, p.ID, models.ReactionLove)
	require.NoError(t, err)
	_, err = f.Reactions.React(ctx, alice.ID, p.ID, models.ReactionWow)
	require.NoError(t, err)

	var rows []models.Reaction
	require.NoError(t, f.db.Where("post_id = ?", p.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ReactionWow, rows[0].Type)
}

func TestReactRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	p := f.post(t, alice, "hello")

	_, err := f.Reactions.React(ctx, alice.ID, p.ID, models.ReactionType("meh"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.Reactions.React(ctx, alice.ID, 999, models.ReactionLike)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.Reactions.React(ctx, 999, p.ID, models.ReactionLike)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnreact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	p := f.post(t, alice, "hello")

	require.NoError(t, f.Reactions.Unreact(ctx, alice.ID, p.ID))

	_, err := f.Reactions.React(ctx, alice.ID, p.ID, models.ReactionLaugh)
	require.NoError(t, err)
	require.NoError(t, f.Reactions.Unreact(ctx, alice.ID, p.ID))

	_, err = f.Reactions.Get(ctx, alice.ID, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReactionSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	p := f.post(t, alice, "hello")

	for i, name := range []string{"bob", "carol", "dave"} {
		typ := models.ReactionLove
		if i == 2 {
			typ = models.ReactionAngry
		}
		_, err := f.Reactions.React(ctx, f.user(t, name).ID, p.ID, typ)
		require.NoError(t, err)
	}

	counts, err := f.Reactions.Summary(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, map[models.ReactionType]int64{
		models.ReactionLike:  0,
		models.ReactionLove:  2,
		models.ReactionLaugh: 0,
		models.ReactionWow:   0,
		models.ReactionAngry: 1,
	}, counts)

	_, err = f.Reactions.Summary(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReactConcurrentWriters(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	p := f.post(t, alice, "hello")

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			typ := models.ReactionTypes[i%len(models.ReactionTypes)]
			_, errs[i] = f.Reactions.React(context.Background(), bob.ID, p.ID, typ)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), f.count(t, &models.Reaction{}, "user_id = ? AND post_id = ?", bob.ID, p.ID))
}
