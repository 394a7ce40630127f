package syncer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wandergram/internal/dbcache"
)

func TestSweepExpired(t *testing.T) {
	db, err := dbcache.NewMemory()
	require.NoError(t, err)
	ev := NewEvictor(db)
	ctx := context.Background()

	old := dbcache.Post{ID: 1, AuthorID: 1, CacheTimestamp: time.Now().Add(-10 * 24 * time.Hour)}
	recent := dbcache.Post{ID: 2, AuthorID: 1, CacheTimestamp: time.Now()}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	removed, err := ev.SweepExpired(ctx, &dbcache.Post{}, 7*24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var left []dbcache.Post
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	require.EqualValues(t, 2, left[0].ID)
}

func TestTrimToCapacity(t *testing.T) {
	db, err := dbcache.NewMemory()
	require.NoError(t, err)
	ev := NewEvictor(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 10; i++ {
		p := dbcache.Post{
			ID:             int64(i),
			AuthorID:       1,
			Caption:        fmt.Sprintf("post %d", i),
			CacheTimestamp: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&p).Error)
	}

	trimmed, err := ev.TrimPosts(ctx, 4)
	require.NoError(t, err)
	require.EqualValues(t, 6, trimmed)

	var left []dbcache.Post
	require.NoError(t, db.Order("id ASC").Find(&left).Error)
	require.Len(t, left, 4)
	// Newest four by cache_timestamp survive.
	require.EqualValues(t, 7, left[0].ID)
	require.EqualValues(t, 10, left[3].ID)
}

func TestTrimToCapacity_UnderCapacityIsNoop(t *testing.T) {
	db, err := dbcache.NewMemory()
	require.NoError(t, err)
	ev := NewEvictor(db)

	require.NoError(t, db.Create(&dbcache.Post{ID: 1, AuthorID: 1, CacheTimestamp: time.Now()}).Error)

	trimmed, err := ev.TrimPosts(context.Background(), 4)
	require.NoError(t, err)
	require.Zero(t, trimmed)
}
