package feed

import (
	"context"

	"wandergram/internal/common"
)

// fakeRemote overrides only the endpoints a test exercises; calling
// anything else panics through the embedded nil interface.
type fakeRemote struct {
	common.RemoteAPI

	fetchPost         func(ctx context.Context, id int64) (*common.RemotePost, error)
	fetchFeedPage     func(ctx context.Context, page, size int) ([]common.RemotePost, error)
	fetchCountryPosts func(ctx context.Context, userID int64, cc string, page, size int) ([]common.RemotePost, error)
	createPost        func(ctx context.Context, p common.RemoteNewPost) (*common.RemotePost, error)
	fetchCollections  func(ctx context.Context, userID int64) ([]common.RemoteCollection, error)
	fetchComments     func(ctx context.Context, postID int64, page, size int) ([]common.RemoteComment, error)
	createComment     func(ctx context.Context, c common.RemoteNewComment) (*common.RemoteComment, error)
	deleteComment     func(ctx context.Context, id int64) error
	toggleLike        func(ctx context.Context, userID, postID int64, liked bool) error
	fetchLikers       func(ctx context.Context, postID int64, page, size int) ([]common.RemoteUser, error)
}

func (f *fakeRemote) FetchPost(ctx context.Context, id int64) (*common.RemotePost, error) {
	return f.fetchPost(ctx, id)
}

func (f *fakeRemote) FetchFeedPage(ctx context.Context, page, size int) ([]common.RemotePost, error) {
	return f.fetchFeedPage(ctx, page, size)
}

func (f *fakeRemote) FetchCountryPosts(ctx context.Context, userID int64, cc string, page, size int) ([]common.RemotePost, error) {
	return f.fetchCountryPosts(ctx, userID, cc, page, size)
}

func (f *fakeRemote) CreatePost(ctx context.Context, p common.RemoteNewPost) (*common.RemotePost, error) {
	return f.createPost(ctx, p)
}

func (f *fakeRemote) FetchCollections(ctx context.Context, userID int64) ([]common.RemoteCollection, error) {
	return f.fetchCollections(ctx, userID)
}

func (f *fakeRemote) FetchComments(ctx context.Context, postID int64, page, size int) ([]common.RemoteComment, error) {
	return f.fetchComments(ctx, postID, page, size)
}

func (f *fakeRemote) CreateComment(ctx context.Context, c common.RemoteNewComment) (*common.RemoteComment, error) {
	return f.createComment(ctx, c)
}

func (f *fakeRemote) DeleteComment(ctx context.Context, id int64) error {
	return f.deleteComment(ctx, id)
}

func (f *fakeRemote) ToggleLike(ctx context.Context, userID, postID int64, liked bool) error {
	return f.toggleLike(ctx, userID, postID, liked)
}

func (f *fakeRemote) FetchLikers(ctx context.Context, postID int64, page, size int) ([]common.RemoteUser, error) {
	return f.fetchLikers(ctx, postID, page, size)
}
