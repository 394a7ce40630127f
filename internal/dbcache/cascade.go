package dbcache

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// DeleteUserGraph removes a user and everything the user owns or appears in
// as a relation endpoint. Runs in one transaction so readers never observe
// a half-deleted graph.
func DeleteUserGraph(ctx context.Context, db *gorm.DB, userID int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []int64
		if err := tx.Model(&Post{}).Where("author_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
			return fmt.Errorf("failed to list user posts: %w", err)
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&Like{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", postIDs).Delete(&Post{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", userID).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR following_id = ?", userID, userID).Delete(&Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipient_id = ? OR actor_id = ?", userID, userID).Delete(&Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("grantor_id = ? OR grantee_id = ?", userID, userID).Delete(&TravelPermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&CachedUserStats{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", userID).Delete(&DraftPost{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Delete(&User{}).Error
	})
}

// DeletePostGraph removes a post together with its comments and likes.
func DeletePostGraph(ctx context.Context, db *gorm.DB, postID int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&Like{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", postID).Delete(&Post{}).Error
	})
}
