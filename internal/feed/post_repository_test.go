package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
	"wandergram/internal/syncer"
)

func testProbe(t *testing.T, online bool) common.ConnectivityProbe {
	t.Helper()
	ctrl := gomock.NewController(t)
	probe := common.NewMockConnectivityProbe(ctrl)
	probe.EXPECT().IsOnline().Return(online).AnyTimes()
	return probe
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbcache.NewMemory()
	require.NoError(t, err)
	return db
}

func newPostRepo(t *testing.T, db *gorm.DB, remote common.RemoteAPI, online bool) *PostRepository {
	t.Helper()
	return NewPostRepository(db, remote, testProbe(t, online), syncer.NewEvictor(db), 100)
}

func drainPages[T any](ch <-chan syncer.Page[T]) []syncer.Page[T] {
	var out []syncer.Page[T]
	for p := range ch {
		out = append(out, p)
	}
	return out
}

func TestFeedPage_CacheThenRemote(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	stale := dbcache.Post{ID: 1, AuthorID: 1, Caption: "old", CreatedAt: time.Now().Add(-time.Hour), CacheTimestamp: time.Now().Add(-8 * time.Hour)}
	require.NoError(t, db.Create(&stale).Error)

	remote := &fakeRemote{
		fetchFeedPage: func(ctx context.Context, page, size int) ([]common.RemotePost, error) {
			return []common.RemotePost{
				{ID: 1, AuthorID: 1, Caption: "refreshed", CreatedAt: time.Now().Add(-time.Hour)},
				{ID: 2, AuthorID: 2, Caption: "new", CreatedAt: time.Now()},
			}, nil
		},
	}
	repo := newPostRepo(t, db, remote, true)

	pages := drainPages(repo.FeedPage(ctx, 0, 20))
	require.Len(t, pages, 2)
	require.True(t, pages[0].FromCache)
	require.Equal(t, "old", pages[0].Items[0].Caption)
	require.False(t, pages[1].FromCache)
	require.Len(t, pages[1].Items, 2)

	var persisted dbcache.Post
	require.NoError(t, db.First(&persisted, "id = ?", 1).Error)
	require.Equal(t, "refreshed", persisted.Caption)
}

func TestFeedPage_OfflineServesCacheTerminally(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&dbcache.Post{ID: 1, AuthorID: 1, CacheTimestamp: time.Now().Add(-24 * time.Hour)}).Error)

	remote := &fakeRemote{
		fetchFeedPage: func(ctx context.Context, page, size int) ([]common.RemotePost, error) {
			t.Fatal("remote must not be called offline")
			return nil, nil
		},
	}
	repo := newPostRepo(t, db, remote, false)

	pages := drainPages(repo.FeedPage(context.Background(), 0, 20))
	require.Len(t, pages, 1)
	require.True(t, pages[0].FromCache)
	require.Len(t, pages[0].Items, 1)
}

func TestFeedPage_FreshCacheSkipsRemote(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&dbcache.Post{ID: 1, AuthorID: 1, CacheTimestamp: time.Now()}).Error)

	remote := &fakeRemote{
		fetchFeedPage: func(ctx context.Context, page, size int) ([]common.RemotePost, error) {
			t.Fatal("remote must not be called for a fresh page")
			return nil, nil
		},
	}
	repo := newPostRepo(t, db, remote, true)

	pages := drainPages(repo.FeedPage(context.Background(), 0, 20))
	require.Len(t, pages, 1)
}

func TestPost_MissFetchesAndPersists(t *testing.T) {
	db := testDB(t)

	remote := &fakeRemote{
		fetchPost: func(ctx context.Context, id int64) (*common.RemotePost, error) {
			return &common.RemotePost{ID: id, AuthorID: 3, Caption: "fetched", CreatedAt: time.Now()}, nil
		},
	}
	repo := newPostRepo(t, db, remote, true)

	var emissions []syncer.Emission[dbcache.Post]
	for e := range repo.Post(context.Background(), 42) {
		emissions = append(emissions, e)
	}
	require.Len(t, emissions, 2)
	require.False(t, emissions[0].Found)
	require.Equal(t, "fetched", emissions[1].Value.Caption)

	var row dbcache.Post
	require.NoError(t, db.First(&row, "id = ?", 42).Error)
}

func TestProfilePosts_PartialAggregate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Collections across three countries; one country's fetch will fail.
	for i, cc := range []string{"JP", "FR", "BR"} {
		c := dbcache.Collection{ID: int64(i + 1), OwnerID: 9, CountryCode: cc, Title: cc, CacheTimestamp: time.Now()}
		require.NoError(t, db.Create(&c).Error)
	}
	// Cached post for the country that will fail remotely.
	cachedBR := dbcache.Post{ID: 30, AuthorID: 9, ProfileOwnerID: 9, CountryCode: "BR", Caption: "cached brazil", CreatedAt: time.Now().Add(-3 * time.Hour), CacheTimestamp: time.Now().Add(-20 * time.Hour)}
	require.NoError(t, db.Create(&cachedBR).Error)

	remote := &fakeRemote{
		fetchCountryPosts: func(ctx context.Context, userID int64, cc string, page, size int) ([]common.RemotePost, error) {
			switch cc {
			case "JP":
				return []common.RemotePost{{ID: 10, AuthorID: 9, ProfileOwnerID: 9, CountryCode: "JP", Caption: "tokyo", CreatedAt: time.Now().Add(-time.Hour)}}, nil
			case "FR":
				return []common.RemotePost{{ID: 20, AuthorID: 9, ProfileOwnerID: 9, CountryCode: "FR", Caption: "paris", CreatedAt: time.Now()}}, nil
			default:
				return nil, fmt.Errorf("%w: country endpoint down", common.ErrRemoteUnavailable)
			}
		},
	}
	repo := newPostRepo(t, db, remote, true)

	pages := drainPages(repo.ProfilePosts(ctx, 9))
	require.NotEmpty(t, pages)

	final := pages[len(pages)-1]
	require.NoError(t, final.Err)
	require.Len(t, final.Items, 3)
	// Client-side sort, newest first.
	require.Equal(t, "paris", final.Items[0].Caption)
	require.Equal(t, "tokyo", final.Items[1].Caption)
	require.Equal(t, "cached brazil", final.Items[2].Caption)
}

func TestProfilePosts_AllCountriesFailWithEmptyCache(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&dbcache.Collection{ID: 1, OwnerID: 9, CountryCode: "JP", CacheTimestamp: time.Now()}).Error)

	remote := &fakeRemote{
		fetchCountryPosts: func(ctx context.Context, userID int64, cc string, page, size int) ([]common.RemotePost, error) {
			return nil, fmt.Errorf("%w: down", common.ErrRemoteUnavailable)
		},
	}
	repo := newPostRepo(t, db, remote, true)

	pages := drainPages(repo.ProfilePosts(context.Background(), 9))
	require.Len(t, pages, 1)
	require.Empty(t, pages[0].Items)
	require.ErrorIs(t, pages[0].Err, common.ErrRemoteUnavailable)
}

func TestProfilePosts_Offline(t *testing.T) {
	db := testDB(t)
	p := dbcache.Post{ID: 1, AuthorID: 9, ProfileOwnerID: 9, CountryCode: "JP", CreatedAt: time.Now(), CacheTimestamp: time.Now()}
	require.NoError(t, db.Create(&p).Error)

	repo := newPostRepo(t, db, &fakeRemote{}, false)

	pages := drainPages(repo.ProfilePosts(context.Background(), 9))
	require.Len(t, pages, 1)
	require.True(t, pages[0].FromCache)
	require.Len(t, pages[0].Items, 1)
}

func TestCreatePost_Validation(t *testing.T) {
	db := testDB(t)
	repo := newPostRepo(t, db, &fakeRemote{}, true)
	ctx := context.Background()

	valid := common.RemoteNewPost{
		AuthorID:    1,
		CountryCode: "JP",
		Caption:     "hello",
		MediaURLs:   []string{"file:///a.jpg"},
		Visibility:  common.VisibilityPersonal,
	}

	tests := []struct {
		name   string
		mutate func(p *common.RemoteNewPost)
	}{
		{"bad country code", func(p *common.RemoteNewPost) { p.CountryCode = "Japan" }},
		{"oversized caption", func(p *common.RemoteNewPost) {
			for len(p.Caption) <= 2200 {
				p.Caption += "x"
			}
		}},
		{"no media", func(p *common.RemoteNewPost) { p.MediaURLs = nil }},
		{"unknown visibility", func(p *common.RemoteNewPost) { p.Visibility = "FRIENDS" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := repo.CreatePost(ctx, p)
			require.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestCreatePost_PersistsServerRow(t *testing.T) {
	db := testDB(t)
	remote := &fakeRemote{
		createPost: func(ctx context.Context, p common.RemoteNewPost) (*common.RemotePost, error) {
			return &common.RemotePost{ID: 77, AuthorID: p.AuthorID, CountryCode: p.CountryCode, Caption: p.Caption, Visibility: p.Visibility, CreatedAt: time.Now()}, nil
		},
	}
	repo := newPostRepo(t, db, remote, true)

	created, err := repo.CreatePost(context.Background(), common.RemoteNewPost{
		AuthorID:    1,
		CountryCode: "JP",
		Caption:     "hello",
		MediaURLs:   []string{"file:///a.jpg"},
		Visibility:  common.VisibilityShared,
	})
	require.NoError(t, err)
	require.EqualValues(t, 77, created.ID)

	var row dbcache.Post
	require.NoError(t, db.First(&row, "id = ?", 77).Error)
}
