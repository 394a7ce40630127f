package dbcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wandergram/internal/common"
)

// Mapping and upsert helpers between remote payloads and cache rows.
// Every write stamps cache_timestamp; multi-row writes run in one
// transaction so a page replace is all-or-nothing.

func UserFromRemote(ru common.RemoteUser) User {
	return User{
		ID:                    ru.ID,
		Username:              ru.Username,
		DisplayName:           ru.DisplayName,
		Bio:                   ru.Bio,
		ProfilePicture:        ru.ProfilePicture,
		FollowersCount:        ru.FollowersCount,
		FollowingCount:        ru.FollowingCount,
		CountriesVisitedCount: ru.CountriesVisitedCount,
		IsFullProfile:         ru.FullProfile,
	}
}

// UpsertRemoteUser merges an incoming user into the cache. A previously
// cached full profile keeps its bio and picture when the incoming payload
// omits them, and never loses its full-profile mark to a list reference.
func UpsertRemoteUser(ctx context.Context, db *gorm.DB, ru common.RemoteUser) (User, error) {
	var merged User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		merged, err = upsertUserTx(tx, ru, time.Now())
		return err
	})
	if err != nil {
		return User{}, fmt.Errorf("failed to upsert user %d: %w", ru.ID, err)
	}
	return merged, nil
}

// UpsertRemoteUsers merges a page of users in one transaction.
func UpsertRemoteUsers(ctx context.Context, db *gorm.DB, rus []common.RemoteUser) ([]User, error) {
	out := make([]User, 0, len(rus))
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, ru := range rus {
			u, err := upsertUserTx(tx, ru, now)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user page: %w", err)
	}
	return out, nil
}

func upsertUserTx(tx *gorm.DB, ru common.RemoteUser, now time.Time) (User, error) {
	incoming := UserFromRemote(ru)
	incoming.CacheTimestamp = now

	var existing User
	err := tx.First(&existing, "id = ?", ru.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := tx.Create(&incoming).Error; err != nil {
			return User{}, err
		}
		return incoming, nil
	case err != nil:
		return User{}, err
	}

	if incoming.Bio == nil {
		incoming.Bio = existing.Bio
	}
	if incoming.ProfilePicture == nil {
		incoming.ProfilePicture = existing.ProfilePicture
	}
	incoming.IsFullProfile = existing.IsFullProfile || ru.FullProfile
	if err := tx.Save(&incoming).Error; err != nil {
		return User{}, err
	}
	return incoming, nil
}

func PostFromRemote(rp common.RemotePost) Post {
	return Post{
		ID:                rp.ID,
		AuthorID:          rp.AuthorID,
		ProfileOwnerID:    rp.ProfileOwnerID,
		CountryCode:       rp.CountryCode,
		CollectionID:      rp.CollectionID,
		CityID:            rp.CityID,
		Caption:           rp.Caption,
		MediaURLs:         rp.MediaURLs,
		LikesCount:        rp.LikesCount,
		CommentsCount:     rp.CommentsCount,
		VisibilityType:    rp.Visibility,
		SharedPostGroupID: rp.SharedPostGroupID,
		CreatedAt:         rp.CreatedAt,
	}
}

// UpsertRemotePosts replaces-or-inserts a page of posts atomically.
func UpsertRemotePosts(ctx context.Context, db *gorm.DB, rps []common.RemotePost) ([]Post, error) {
	if len(rps) == 0 {
		return nil, nil
	}
	now := time.Now()
	rows := make([]Post, 0, len(rps))
	for _, rp := range rps {
		row := PostFromRemote(rp)
		row.CacheTimestamp = now
		rows = append(rows, row)
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert post page: %w", err)
	}
	return rows, nil
}

func CommentFromRemote(rc common.RemoteComment) Comment {
	return Comment{
		ID:              rc.ID,
		PostID:          rc.PostID,
		ParentCommentID: rc.ParentCommentID,
		AuthorID:        rc.AuthorID,
		Body:            rc.Body,
		RepliesCount:    rc.RepliesCount,
		CreatedAt:       rc.CreatedAt,
	}
}

func UpsertRemoteComments(ctx context.Context, db *gorm.DB, rcs []common.RemoteComment) ([]Comment, error) {
	if len(rcs) == 0 {
		return nil, nil
	}
	now := time.Now()
	rows := make([]Comment, 0, len(rcs))
	for _, rc := range rcs {
		row := CommentFromRemote(rc)
		row.CacheTimestamp = now
		rows = append(rows, row)
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert comment page: %w", err)
	}
	return rows, nil
}

func NotificationFromRemote(rn common.RemoteNotification) Notification {
	return Notification{
		ID:            rn.ID,
		RecipientID:   rn.RecipientID,
		ActorID:       rn.ActorID,
		ReferenceID:   rn.ReferenceID,
		ReferenceType: rn.ReferenceType,
		Message:       rn.Message,
		IsRead:        rn.IsRead,
		CreatedAt:     rn.CreatedAt,
	}
}

func UpsertRemoteNotifications(ctx context.Context, db *gorm.DB, rns []common.RemoteNotification) ([]Notification, error) {
	if len(rns) == 0 {
		return nil, nil
	}
	now := time.Now()
	rows := make([]Notification, 0, len(rns))
	for _, rn := range rns {
		row := NotificationFromRemote(rn)
		row.CacheTimestamp = now
		rows = append(rows, row)
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert notification page: %w", err)
	}
	return rows, nil
}

func PermissionFromRemote(rp common.RemoteTravelPermission) TravelPermission {
	return TravelPermission{
		ID:          rp.ID,
		GrantorID:   rp.GrantorID,
		GranteeID:   rp.GranteeID,
		CountryCode: rp.CountryCode,
		Status:      rp.Status,
		CreatedAt:   rp.CreatedAt,
	}
}

// UpsertRemotePermissions keeps the (grantor, grantee, country) triple
// unique: a permission fetched again after a status change updates its row
// in place instead of duplicating it.
func UpsertRemotePermissions(ctx context.Context, db *gorm.DB, rps []common.RemoteTravelPermission) ([]TravelPermission, error) {
	if len(rps) == 0 {
		return nil, nil
	}
	now := time.Now()
	rows := make([]TravelPermission, 0, len(rps))
	for _, rp := range rps {
		row := PermissionFromRemote(rp)
		row.CacheTimestamp = now
		rows = append(rows, row)
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "grantor_id"}, {Name: "grantee_id"}, {Name: "country_code"}},
			UpdateAll: true,
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert permission page: %w", err)
	}
	return rows, nil
}

// UpsertFollow inserts the relation pair idempotently.
func UpsertFollow(ctx context.Context, db *gorm.DB, followerID, followingID int64) error {
	row := Follow{FollowerID: followerID, FollowingID: followingID, CacheTimestamp: time.Now()}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cache_timestamp"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert follow: %w", err)
	}
	return nil
}

// UpsertLike inserts the relation pair idempotently.
func UpsertLike(ctx context.Context, db *gorm.DB, userID, postID int64) error {
	row := Like{UserID: userID, PostID: postID, CacheTimestamp: time.Now()}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"cache_timestamp"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert like: %w", err)
	}
	return nil
}

func StatsFromRemote(rs common.RemoteUserStats) CachedUserStats {
	return CachedUserStats{
		UserID:           rs.UserID,
		PostsCount:       rs.PostsCount,
		FollowersCount:   rs.FollowersCount,
		FollowingCount:   rs.FollowingCount,
		CountriesVisited: rs.CountriesVisited,
		CitiesVisited:    rs.CitiesVisited,
		LikesReceived:    rs.LikesReceived,
	}
}

// ReplaceStats fully replaces the per-user stats snapshot.
func ReplaceStats(ctx context.Context, db *gorm.DB, rs common.RemoteUserStats) (CachedUserStats, error) {
	row := StatsFromRemote(rs)
	row.CacheTimestamp = time.Now()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return CachedUserStats{}, fmt.Errorf("failed to replace stats for user %d: %w", rs.UserID, err)
	}
	return row, nil
}

func CountryFromRemote(rc common.RemoteCountry) Country {
	return Country{Code: rc.Code, Name: rc.Name, FlagURL: rc.FlagURL}
}

func UpsertRemoteCountries(ctx context.Context, db *gorm.DB, rcs []common.RemoteCountry) ([]Country, error) {
	if len(rcs) == 0 {
		return nil, nil
	}
	now := time.Now()
	rows := make([]Country, 0, len(rcs))
	for _, rc := range rcs {
		row := CountryFromRemote(rc)
		row.CacheTimestamp = now
		rows = append(rows, row)
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			UpdateAll: true,
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert countries: %w", err)
	}
	return rows, nil
}

func CityFromRemote(rc common.RemoteCity) City {
	return City{ID: rc.ID, CountryCode: rc.CountryCode, Name: rc.Name}
}

func UpsertRemoteCities(ctx context.Context, db *gorm.DB, rcs []common.RemoteCity) ([]City, error) {
	if len(rcs) == 0 {
		return nil, nil
	}
	now := time.Now()
	rows := make([]City, 0, len(rcs))
	for _, rc := range rcs {
		row := CityFromRemote(rc)
		row.CacheTimestamp = now
		rows = append(rows, row)
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert cities: %w", err)
	}
	return rows, nil
}

func CollectionFromRemote(rc common.RemoteCollection) Collection {
	return Collection{
		ID:          rc.ID,
		OwnerID:     rc.OwnerID,
		CountryCode: rc.CountryCode,
		Title:       rc.Title,
		PostsCount:  rc.PostsCount,
	}
}

func UpsertRemoteCollections(ctx context.Context, db *gorm.DB, rcs []common.RemoteCollection) ([]Collection, error) {
	if len(rcs) == 0 {
		return nil, nil
	}
	now := time.Now()
	rows := make([]Collection, 0, len(rcs))
	for _, rc := range rcs {
		row := CollectionFromRemote(rc)
		row.CacheTimestamp = now
		rows = append(rows, row)
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert collections: %w", err)
	}
	return rows, nil
}
