package refdata

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
	"wandergram/internal/syncer"
)

// Repository serves the slow-moving reference sets: countries, their
// cities, and a user's collections. All three share the long reference TTL
// so a session rarely refetches them.
type Repository struct {
	db     *gorm.DB
	remote common.RemoteAPI
	probe  common.ConnectivityProbe
}

func NewRepository(db *gorm.DB, remote common.RemoteAPI, probe common.ConnectivityProbe) *Repository {
	return &Repository{db: db, remote: remote, probe: probe}
}

// Countries serves the full country list sorted by name.
func (r *Repository) Countries(ctx context.Context) <-chan syncer.Page[dbcache.Country] {
	return syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.Country]{
		GetCached: func(ctx context.Context) ([]dbcache.Country, bool, error) {
			var rows []dbcache.Country
			err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
			if err != nil {
				return nil, false, err
			}
			return rows, refFresh(rows, func(c dbcache.Country) time.Time { return c.CacheTimestamp }), nil
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.Country, error) {
			remote, err := r.remote.FetchCountries(ctx)
			if err != nil {
				return nil, err
			}
			return dbcache.UpsertRemoteCountries(ctx, r.db, remote)
		},
	})
}

// Cities serves the cities of one country sorted by name.
func (r *Repository) Cities(ctx context.Context, countryCode string) (<-chan syncer.Page[dbcache.City], error) {
	if err := common.ValidateCountryCode(countryCode); err != nil {
		return nil, err
	}
	ch := syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.City]{
		GetCached: func(ctx context.Context) ([]dbcache.City, bool, error) {
			var rows []dbcache.City
			err := r.db.WithContext(ctx).
				Where("country_code = ?", countryCode).
				Order("name ASC").
				Find(&rows).Error
			if err != nil {
				return nil, false, err
			}
			return rows, refFresh(rows, func(c dbcache.City) time.Time { return c.CacheTimestamp }), nil
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.City, error) {
			remote, err := r.remote.FetchCities(ctx, countryCode)
			if err != nil {
				return nil, err
			}
			return dbcache.UpsertRemoteCities(ctx, r.db, remote)
		},
	})
	return ch, nil
}

// Collections serves one user's country collections.
func (r *Repository) Collections(ctx context.Context, userID int64) <-chan syncer.Page[dbcache.Collection] {
	return syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.Collection]{
		GetCached: func(ctx context.Context) ([]dbcache.Collection, bool, error) {
			var rows []dbcache.Collection
			err := r.db.WithContext(ctx).
				Where("owner_id = ?", userID).
				Order("title ASC").
				Find(&rows).Error
			if err != nil {
				return nil, false, err
			}
			return rows, refFresh(rows, func(c dbcache.Collection) time.Time { return c.CacheTimestamp }), nil
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.Collection, error) {
			remote, err := r.remote.FetchCollections(ctx, userID)
			if err != nil {
				return nil, err
			}
			return dbcache.UpsertRemoteCollections(ctx, r.db, remote)
		},
	})
}

func refFresh[T any](rows []T, stamp func(T) time.Time) bool {
	return syncer.PageFresh(rows, stamp, syncer.TTLRefData)
}
