package notif

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
)

type fakeRemote struct {
	common.RemoteAPI
	fetchNotifications func(ctx context.Context, recipientID int64, page, size int) ([]common.RemoteNotification, error)
	markRead           func(ctx context.Context, id int64) error
}

func (f *fakeRemote) FetchNotifications(ctx context.Context, recipientID int64, page, size int) ([]common.RemoteNotification, error) {
	return f.fetchNotifications(ctx, recipientID, page, size)
}

func (f *fakeRemote) MarkNotificationRead(ctx context.Context, id int64) error {
	return f.markRead(ctx, id)
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbcache.NewMemory()
	require.NoError(t, err)
	return db
}

func testProbe(t *testing.T, online bool) common.ConnectivityProbe {
	t.Helper()
	ctrl := gomock.NewController(t)
	probe := common.NewMockConnectivityProbe(ctrl)
	probe.EXPECT().IsOnline().Return(online).AnyTimes()
	return probe
}

func provider(t *testing.T, userID int64, ok bool) common.CurrentUserProvider {
	t.Helper()
	ctrl := gomock.NewController(t)
	users := common.NewMockCurrentUserProvider(ctrl)
	users.EXPECT().CurrentUserID().Return(userID, ok).AnyTimes()
	return users
}

func TestNotifications_RequiresCurrentUser(t *testing.T) {
	repo := NewRepository(testDB(t), &fakeRemote{}, testProbe(t, true), provider(t, 0, false))

	_, err := repo.Notifications(context.Background(), 0, 20)
	require.ErrorIs(t, err, common.ErrNoCurrentUser)

	_, err = repo.UnreadCount(context.Background())
	require.ErrorIs(t, err, common.ErrNoCurrentUser)

	require.ErrorIs(t, repo.MarkAllRead(context.Background()), common.ErrNoCurrentUser)
}

func TestNotifications_RecipientScoped(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&dbcache.Notification{ID: 1, RecipientID: 1, ActorID: 2, Message: "mine", CreatedAt: time.Now(), CacheTimestamp: time.Now()}).Error)
	require.NoError(t, db.Create(&dbcache.Notification{ID: 2, RecipientID: 9, ActorID: 2, Message: "theirs", CreatedAt: time.Now(), CacheTimestamp: time.Now()}).Error)

	repo := NewRepository(db, &fakeRemote{}, testProbe(t, true), provider(t, 1, true))

	ch, err := repo.Notifications(context.Background(), 0, 20)
	require.NoError(t, err)
	var last []dbcache.Notification
	for p := range ch {
		last = p.Items
	}
	require.Len(t, last, 1)
	require.Equal(t, "mine", last[0].Message)
}

func TestNotifications_RemoteRefresh(t *testing.T) {
	db := testDB(t)
	remote := &fakeRemote{
		fetchNotifications: func(ctx context.Context, recipientID int64, page, size int) ([]common.RemoteNotification, error) {
			return []common.RemoteNotification{
				{ID: 1, RecipientID: recipientID, ActorID: 2, Message: "liked your post", CreatedAt: time.Now()},
			}, nil
		},
	}
	repo := NewRepository(db, remote, testProbe(t, true), provider(t, 1, true))

	ch, err := repo.Notifications(context.Background(), 0, 20)
	require.NoError(t, err)
	var last []dbcache.Notification
	for p := range ch {
		last = p.Items
	}
	require.Len(t, last, 1)

	var rows int64
	require.NoError(t, db.Model(&dbcache.Notification{}).Count(&rows).Error)
	require.EqualValues(t, 1, rows)
}

func TestMarkRead(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&dbcache.Notification{ID: 1, RecipientID: 1, ActorID: 2, CreatedAt: time.Now(), CacheTimestamp: time.Now()}).Error)

	var remoteCalls int
	remote := &fakeRemote{
		markRead: func(ctx context.Context, id int64) error {
			remoteCalls++
			return nil
		},
	}
	repo := NewRepository(db, remote, testProbe(t, true), provider(t, 1, true))
	ctx := context.Background()

	require.NoError(t, repo.MarkRead(ctx, 1))
	require.Equal(t, 1, remoteCalls)

	var row dbcache.Notification
	require.NoError(t, db.First(&row, "id = ?", 1).Error)
	require.True(t, row.IsRead)

	// Already-read rows do not round-trip again.
	require.NoError(t, repo.MarkRead(ctx, 1))
	require.Equal(t, 1, remoteCalls)

	// Another recipient's notification is invisible.
	require.NoError(t, db.Create(&dbcache.Notification{ID: 2, RecipientID: 9, ActorID: 2, CreatedAt: time.Now(), CacheTimestamp: time.Now()}).Error)
	require.ErrorIs(t, repo.MarkRead(ctx, 2), common.ErrNotFound)
}

func TestUnreadCountAndMarkAllRead(t *testing.T) {
	db := testDB(t)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, db.Create(&dbcache.Notification{ID: i, RecipientID: 1, ActorID: 2, CreatedAt: time.Now(), CacheTimestamp: time.Now()}).Error)
	}
	require.NoError(t, db.Model(&dbcache.Notification{}).Where("id = ?", 3).Update("is_read", true).Error)

	remote := &fakeRemote{
		markRead: func(ctx context.Context, id int64) error { return nil },
	}
	repo := NewRepository(db, remote, testProbe(t, true), provider(t, 1, true))
	ctx := context.Background()

	n, err := repo.UnreadCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	require.NoError(t, repo.MarkAllRead(ctx))
	n, err = repo.UnreadCount(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}
