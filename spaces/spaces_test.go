package spaces

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vandanapadala-pg/hotcommands/errors"
	hottest "github.com/vandanapadala-pg/hotcommands/internal/testing"
)

func TestSaveAndGet(t *testing.T) {
	store := NewStore(hottest.CreateTestDB(t))
	ctx := context.Background()

	saved, err := store.Save(ctx, "alice", "weekly_report", `{"rows":3}`, ContentJSON)
	require.NoError(t, err)
	assert.Equal(t, "alice", saved.UserID)
	assert.Equal(t, ContentJSON, saved.ContentType)
	assert.False(t, saved.Shared)

	got, err := store.Get(ctx, "alice", "alice", "weekly_report")
	require.NoError(t, err)
	assert.Equal(t, `{"rows":3}`, got.Content)
}

func TestSaveUpserts(t *testing.T) {
	store := NewStore(hottest.CreateTestDB(t))
	ctx := context.Background()

	first, err := store.Save(ctx, "alice", "weekly_report", "v1", ContentText)
	require.NoError(t, err)

	second, err := store.Save(ctx, "alice", "weekly_report", "v2", ContentText)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v2", second.Content)

	all, err := store.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveRejectsEmptyName(t *testing.T) {
	store := NewStore(hottest.CreateTestDB(t))
	_, err := store.Save(context.Background(), "alice", "", "x", ContentText)
	assert.Error(t, err)
}

func TestSharingVisibility(t *testing.T) {
	store := NewStore(hottest.CreateTestDB(t))
	ctx := context.Background()

	_, err := store.Save(ctx, "alice", "weekly_report", "data", ContentText)
	require.NoError(t, err)

	// Private by default
	_, err = store.Get(ctx, "bob", "alice", "weekly_report")
	assert.True(t, errors.Is(err, ErrSpaceNotFound))

	// Shared with bob only
	require.NoError(t, store.Share(ctx, "alice", "weekly_report", []string{"bob"}))
	_, err = store.Get(ctx, "bob", "alice", "weekly_report")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "carol", "alice", "weekly_report")
	assert.True(t, errors.Is(err, ErrSpaceNotFound))

	// Shared with everyone
	require.NoError(t, store.Share(ctx, "alice", "weekly_report", nil))
	_, err = store.Get(ctx, "carol", "alice", "weekly_report")
	assert.NoError(t, err)

	// Back to private
	require.NoError(t, store.Unshare(ctx, "alice", "weekly_report"))
	_, err = store.Get(ctx, "bob", "alice", "weekly_report")
	assert.True(t, errors.Is(err, ErrSpaceNotFound))
}

func TestDelete(t *testing.T) {
	store := NewStore(hottest.CreateTestDB(t))
	ctx := context.Background()

	_, err := store.Save(ctx, "alice", "scratch", "x", ContentText)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "alice", "scratch"))

	err = store.Delete(ctx, "alice", "scratch")
	assert.True(t, errors.Is(err, ErrSpaceNotFound))
}

func TestListOrder(t *testing.T) {
	store := NewStore(hottest.CreateTestDB(t))
	ctx := context.Background()

	_, err := store.Save(ctx, "alice", "older", "1", ContentText)
	require.NoError(t, err)
	_, err = store.Save(ctx, "alice", "newer", "2", ContentText)
	require.NoError(t, err)
	_, err = store.Save(ctx, "bob", "other", "3", ContentText)
	require.NoError(t, err)

	list, err := store.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)
}
