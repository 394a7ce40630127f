package common

import (
	"time"
)

type VisibilityType string

const (
	VisibilityPersonal      VisibilityType = "PERSONAL"
	VisibilityShared        VisibilityType = "SHARED"
	VisibilityCollaborative VisibilityType = "COLLABORATIVE"
)

func (v VisibilityType) IsValid() bool {
	return v == VisibilityPersonal || v == VisibilityShared || v == VisibilityCollaborative
}

type PermissionStatus string

const (
	PermissionPending  PermissionStatus = "PENDING"
	PermissionActive   PermissionStatus = "ACTIVE"
	PermissionDeclined PermissionStatus = "DECLINED"
	PermissionRevoked  PermissionStatus = "REVOKED"
)

func (s PermissionStatus) IsValid() bool {
	switch s {
	case PermissionPending, PermissionActive, PermissionDeclined, PermissionRevoked:
		return true
	}
	return false
}

type SyncStatus string

const (
	SyncPending   SyncStatus = "PENDING"
	SyncUploading SyncStatus = "UPLOADING"
	SyncSynced    SyncStatus = "SYNCED"
	SyncFailed    SyncStatus = "FAILED"
)

// Remote payloads: the wire representation of every entity as the backend
// returns it. Repositories map these onto cache rows.

type RemoteUser struct {
	ID                    int64   `json:"id"`
	Username              string  `json:"username"`
	DisplayName           string  `json:"display_name"`
	Bio                   *string `json:"bio,omitempty"`
	ProfilePicture        *string `json:"profile_picture,omitempty"`
	FollowersCount        int64   `json:"followers_count"`
	FollowingCount        int64   `json:"following_count"`
	CountriesVisitedCount int64   `json:"countries_visited_count"`
	// FullProfile marks a response from the profile endpoint as opposed to a
	// lightweight reference embedded in a list.
	FullProfile bool `json:"full_profile"`
}

type RemotePost struct {
	ID                int64          `json:"id"`
	AuthorID          int64          `json:"author_id"`
	ProfileOwnerID    int64          `json:"profile_owner_id"`
	CountryCode       string         `json:"country_code"`
	CollectionID      *int64         `json:"collection_id,omitempty"`
	CityID            *int64         `json:"city_id,omitempty"`
	Caption           string         `json:"caption"`
	MediaURLs         []string       `json:"media_urls"`
	LikesCount        int64          `json:"likes_count"`
	CommentsCount     int64          `json:"comments_count"`
	Visibility        VisibilityType `json:"visibility"`
	SharedPostGroupID *int64         `json:"shared_post_group_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

type RemoteNewPost struct {
	AuthorID       int64          `json:"author_id"`
	ProfileOwnerID int64          `json:"profile_owner_id"`
	CountryCode    string         `json:"country_code"`
	CityID         *int64         `json:"city_id,omitempty"`
	Caption        string         `json:"caption"`
	MediaURLs      []string       `json:"media_urls"`
	Visibility     VisibilityType `json:"visibility"`
}

type RemoteComment struct {
	ID              int64     `json:"id"`
	PostID          int64     `json:"post_id"`
	ParentCommentID *int64    `json:"parent_comment_id,omitempty"`
	AuthorID        int64     `json:"author_id"`
	Body            string    `json:"body"`
	RepliesCount    int64     `json:"replies_count"`
	CreatedAt       time.Time `json:"created_at"`
}

type RemoteNewComment struct {
	PostID          int64  `json:"post_id"`
	ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
	AuthorID        int64  `json:"author_id"`
	Body            string `json:"body"`
}

type RemoteNotification struct {
	ID            int64     `json:"id"`
	RecipientID   int64     `json:"recipient_id"`
	ActorID       int64     `json:"actor_id"`
	ReferenceID   int64     `json:"reference_id"`
	ReferenceType string    `json:"reference_type"`
	Message       string    `json:"message"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

type RemoteTravelPermission struct {
	ID          int64            `json:"id"`
	GrantorID   int64            `json:"grantor_id"`
	GranteeID   int64            `json:"grantee_id"`
	CountryCode string           `json:"country_code"`
	Status      PermissionStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

type RemoteCountry struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	FlagURL string `json:"flag_url"`
}

type RemoteCity struct {
	ID          int64  `json:"id"`
	CountryCode string `json:"country_code"`
	Name        string `json:"name"`
}

type RemoteCollection struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"owner_id"`
	CountryCode string `json:"country_code"`
	Title       string `json:"title"`
	PostsCount  int64  `json:"posts_count"`
}

type RemoteUserStats struct {
	UserID           int64 `json:"user_id"`
	PostsCount       int64 `json:"posts_count"`
	FollowersCount   int64 `json:"followers_count"`
	FollowingCount   int64 `json:"following_count"`
	CountriesVisited int64 `json:"countries_visited"`
	CitiesVisited    int64 `json:"cities_visited"`
	LikesReceived    int64 `json:"likes_received"`
}
