package common

import (
	"context"
)

//go:generate mockgen -destination=capabilities_mock.go -package=common wandergram/internal/common ConnectivityProbe,CurrentUserProvider

// ConnectivityProbe reports the device's network state. Polled synchronously
// at the start of every sync call; reactivity to changes lives elsewhere.
type ConnectivityProbe interface {
	IsOnline() bool
}

// CurrentUserProvider resolves the signed-in user for owner-scoped reads.
// Implementations return ok=false when nobody is signed in; callers must
// treat that as an explicit empty state, never substitute a default id.
type CurrentUserProvider interface {
	CurrentUserID() (int64, bool)
}

// RemoteAPI is the backend surface the engine consumes, one method per
// domain operation. Every non-success outcome, transport errors included,
// reaches the engine as an error wrapping ErrRemoteUnavailable.
type RemoteAPI interface {
	FetchUser(ctx context.Context, id int64) (*RemoteUser, error)
	SearchUsers(ctx context.Context, query string, page, size int) ([]RemoteUser, error)
	DeleteUser(ctx context.Context, id int64) error

	FetchPost(ctx context.Context, id int64) (*RemotePost, error)
	FetchFeedPage(ctx context.Context, page, size int) ([]RemotePost, error)
	FetchCountryPosts(ctx context.Context, userID int64, countryCode string, page, size int) ([]RemotePost, error)
	CreatePost(ctx context.Context, post RemoteNewPost) (*RemotePost, error)
	DeletePost(ctx context.Context, id int64) error

	FetchComments(ctx context.Context, postID int64, page, size int) ([]RemoteComment, error)
	FetchReplies(ctx context.Context, parentCommentID int64, page, size int) ([]RemoteComment, error)
	CreateComment(ctx context.Context, comment RemoteNewComment) (*RemoteComment, error)
	DeleteComment(ctx context.Context, id int64) error

	ToggleLike(ctx context.Context, userID, postID int64, liked bool) error
	FetchLikers(ctx context.Context, postID int64, page, size int) ([]RemoteUser, error)

	ToggleFollow(ctx context.Context, followerID, followingID int64, following bool) error
	FetchFollowers(ctx context.Context, userID int64, page, size int) ([]RemoteUser, error)
	FetchFollowing(ctx context.Context, userID int64, page, size int) ([]RemoteUser, error)

	FetchNotifications(ctx context.Context, recipientID int64, page, size int) ([]RemoteNotification, error)
	MarkNotificationRead(ctx context.Context, id int64) error

	FetchPermissions(ctx context.Context, userID int64) ([]RemoteTravelPermission, error)
	RequestPermission(ctx context.Context, grantorID, granteeID int64, countryCode string) (*RemoteTravelPermission, error)
	UpdatePermissionStatus(ctx context.Context, id int64, status PermissionStatus) error

	FetchCountries(ctx context.Context) ([]RemoteCountry, error)
	FetchCities(ctx context.Context, countryCode string) ([]RemoteCity, error)
	FetchCollections(ctx context.Context, userID int64) ([]RemoteCollection, error)
	FetchUserStats(ctx context.Context, userID int64) (*RemoteUserStats, error)
}
