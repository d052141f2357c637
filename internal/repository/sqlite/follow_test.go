package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devfolio/internal/apperror"
)

// followCounts returns (follower_count, following_count) for userID, or
// zeros when the profile row has not been created yet.
func followCounts(t *testing.T, db *DB, userID int64) (int64, int64) {
	t.Helper()
	p, err := db.GetProfile(context.Background(), userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return 0, 0
	}
	require.NoError(t, err)
	return p.FollowerCount, p.FollowingCount
}

func TestAddFollow_UpdatesBothCounters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	added, err := db.AddFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, added)

	followers, _ := followCounts(t, db, bob.ID)
	_, following := followCounts(t, db, alice.ID)
	assert.EqualValues(t, 1, followers)
	assert.EqualValues(t, 1, following)

	ok, err := db.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Edges are directed.
	ok, err = db.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddFollow_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	_, err := db.AddFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	added, err := db.AddFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, added)

	followers, _ := followCounts(t, db, bob.ID)
	assert.EqualValues(t, 1, followers)
}

func TestAddFollow_SelfRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	added, err := db.AddFollow(ctx, alice.ID, alice.ID)
	assert.False(t, added)
	assert.True(t, errors.Is(err, apperror.ErrSelfReference), "got %v", err)

	ok, err := db.IsFollowing(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddFollow_MissingUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	_, err := db.AddFollow(context.Background(), alice.ID, 555)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)

	_, following := followCounts(t, db, alice.ID)
	assert.Zero(t, following)
}

func TestRemoveFollow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	_, err := db.AddFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	removed, err := db.RemoveFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = db.RemoveFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	followers, _ := followCounts(t, db, bob.ID)
	_, following := followCounts(t, db, alice.ID)
	assert.Zero(t, followers)
	assert.Zero(t, following)
}

func TestRemoveFollow_CountersFloorAtZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	_, err := db.AddFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = db.conn.Exec(`UPDATE profiles SET follower_count = 0, following_count = 0`)
	require.NoError(t, err)

	removed, err := db.RemoveFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	followers, _ := followCounts(t, db, bob.ID)
	_, following := followCounts(t, db, alice.ID)
	assert.Zero(t, followers)
	assert.Zero(t, following)
}
