package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
	"wandergram/internal/syncer"
)

// PermissionRepository manages travel permissions between users. Status
// changes update the cached row in place so the (grantor, grantee,
// country) triple never duplicates across a lifecycle.
type PermissionRepository struct {
	db     *gorm.DB
	remote common.RemoteAPI
	probe  common.ConnectivityProbe
	users  common.CurrentUserProvider
}

func NewPermissionRepository(db *gorm.DB, remote common.RemoteAPI, probe common.ConnectivityProbe, users common.CurrentUserProvider) *PermissionRepository {
	return &PermissionRepository{db: db, remote: remote, probe: probe, users: users}
}

// PermissionsForUser serves every permission the current user is party to,
// as grantor or grantee.
func (r *PermissionRepository) PermissionsForUser(ctx context.Context) (<-chan syncer.Page[dbcache.TravelPermission], error) {
	userID, ok := r.users.CurrentUserID()
	if !ok {
		return nil, common.ErrNoCurrentUser
	}
	ch := syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.TravelPermission]{
		GetCached: func(ctx context.Context) ([]dbcache.TravelPermission, bool, error) {
			var perms []dbcache.TravelPermission
			err := r.db.WithContext(ctx).
				Where("grantor_id = ? OR grantee_id = ?", userID, userID).
				Order("created_at DESC").
				Find(&perms).Error
			if err != nil {
				return nil, false, err
			}
			fresh := syncer.PageFresh(perms, func(p dbcache.TravelPermission) time.Time { return p.CacheTimestamp }, syncer.TTLPermissions)
			return perms, fresh, nil
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.TravelPermission, error) {
			remote, err := r.remote.FetchPermissions(ctx, userID)
			if err != nil {
				return nil, err
			}
			return dbcache.UpsertRemotePermissions(ctx, r.db, remote)
		},
	})
	return ch, nil
}

// Request asks grantorID for access to one of their countries on behalf of
// the current user. Foreground write; the created PENDING row lands in the
// cache immediately.
func (r *PermissionRepository) Request(ctx context.Context, grantorID int64, countryCode string) (*dbcache.TravelPermission, error) {
	granteeID, ok := r.users.CurrentUserID()
	if !ok {
		return nil, common.ErrNoCurrentUser
	}
	if grantorID == granteeID {
		return nil, fmt.Errorf("%w: cannot request permission from yourself", common.ErrValidation)
	}
	if err := common.ValidateCountryCode(countryCode); err != nil {
		return nil, err
	}
	created, err := r.remote.RequestPermission(ctx, grantorID, granteeID, countryCode)
	if err != nil {
		return nil, err
	}
	rows, err := dbcache.UpsertRemotePermissions(ctx, r.db, []common.RemoteTravelPermission{*created})
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// Accept moves a PENDING permission to ACTIVE. Only the grantor may accept.
func (r *PermissionRepository) Accept(ctx context.Context, id int64) error {
	return r.transition(ctx, id, common.PermissionActive, asGrantor)
}

// Decline moves a PENDING permission to DECLINED. Only the grantor may
// decline.
func (r *PermissionRepository) Decline(ctx context.Context, id int64) error {
	return r.transition(ctx, id, common.PermissionDeclined, asGrantor)
}

// Revoke moves an ACTIVE permission to REVOKED. Either party may revoke.
func (r *PermissionRepository) Revoke(ctx context.Context, id int64) error {
	return r.transition(ctx, id, common.PermissionRevoked, asEitherParty)
}

type partyRole int

const (
	asGrantor partyRole = iota
	asEitherParty
)

func (r *PermissionRepository) transition(ctx context.Context, id int64, next common.PermissionStatus, role partyRole) error {
	userID, ok := r.users.CurrentUserID()
	if !ok {
		return common.ErrNoCurrentUser
	}
	var p dbcache.TravelPermission
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("failed to read permission: %w", err)
	}
	switch role {
	case asGrantor:
		if p.GrantorID != userID {
			return fmt.Errorf("%w: only the grantor can decide a request", common.ErrValidation)
		}
	case asEitherParty:
		if p.GrantorID != userID && p.GranteeID != userID {
			return fmt.Errorf("%w: not a party to this permission", common.ErrValidation)
		}
	}
	if !legalTransition(p.Status, next) {
		return fmt.Errorf("%w: %s to %s", common.ErrIllegalTransition, p.Status, next)
	}
	if err := r.remote.UpdatePermissionStatus(ctx, id, next); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&dbcache.TravelPermission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          next,
			"cache_timestamp": time.Now(),
		}).Error
}

func legalTransition(from, to common.PermissionStatus) bool {
	switch from {
	case common.PermissionPending:
		return to == common.PermissionActive || to == common.PermissionDeclined
	case common.PermissionActive:
		return to == common.PermissionRevoked
	default:
		return false
	}
}
