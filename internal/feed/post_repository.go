package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
	"wandergram/internal/syncer"
)

const defaultPageSize = 20

// countryFetchFanout bounds concurrent per-country fetches during profile
// aggregation.
const countryFetchFanout = 4

// PostRepository wires posts to the generic sync strategies, plus the one
// view no single endpoint serves: a user's posts aggregated across their
// country collections.
type PostRepository struct {
	db       *gorm.DB
	remote   common.RemoteAPI
	probe    common.ConnectivityProbe
	evictor  *syncer.Evictor
	capacity int
	pageSize int
}

func NewPostRepository(db *gorm.DB, remote common.RemoteAPI, probe common.ConnectivityProbe, evictor *syncer.Evictor, postCapacity int) *PostRepository {
	return &PostRepository{
		db:       db,
		remote:   remote,
		probe:    probe,
		evictor:  evictor,
		capacity: postCapacity,
		pageSize: defaultPageSize,
	}
}

func (r *PostRepository) Post(ctx context.Context, id int64) <-chan syncer.Emission[dbcache.Post] {
	return syncer.SyncOne(ctx, r.probe, syncer.SingleSource[dbcache.Post]{
		GetCached: func(ctx context.Context) (dbcache.Post, syncer.CacheState, error) {
			var p dbcache.Post
			err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dbcache.Post{}, syncer.CacheMiss, nil
			}
			if err != nil {
				return dbcache.Post{}, syncer.CacheMiss, err
			}
			return p, syncer.StateOf(true, p.CacheTimestamp, syncer.TTLPosts), nil
		},
		FetchRemote: func(ctx context.Context) (dbcache.Post, error) {
			rp, err := r.remote.FetchPost(ctx, id)
			if err != nil {
				return dbcache.Post{}, err
			}
			rows, err := dbcache.UpsertRemotePosts(ctx, r.db, []common.RemotePost{*rp})
			if err != nil {
				return dbcache.Post{}, err
			}
			r.trim(ctx)
			return rows[0], nil
		},
	})
}

// FeedPage serves one page of the home feed, newest first.
func (r *PostRepository) FeedPage(ctx context.Context, page, size int) <-chan syncer.Page[dbcache.Post] {
	if size <= 0 {
		size = r.pageSize
	}
	return syncer.SyncPaged(ctx, r.probe, syncer.PagedSource[dbcache.Post]{
		GetCached: func(ctx context.Context) ([]dbcache.Post, bool, error) {
			var posts []dbcache.Post
			err := r.db.WithContext(ctx).
				Order("created_at DESC").
				Offset(page * size).
				Limit(size).
				Find(&posts).Error
			if err != nil {
				return nil, false, err
			}
			return posts, pageFresh(posts, syncer.TTLPosts), nil
		},
		FetchRemote: func(ctx context.Context) ([]dbcache.Post, error) {
			remote, err := r.remote.FetchFeedPage(ctx, page, size)
			if err != nil {
				return nil, err
			}
			rows, err := dbcache.UpsertRemotePosts(ctx, r.db, remote)
			if err != nil {
				return nil, err
			}
			r.trim(ctx)
			return rows, nil
		},
	})
}

// ProfilePosts aggregates every post on a user's profile. The backend has
// no combined endpoint for this view, so the repository resolves the
// user's country collections and issues one fetch per country,
// concatenating and re-sorting client-side. Countries whose fetch fails
// fall back to their cached rows, so partial success still yields a
// best-effort aggregate; an empty page appears only when remote and cache
// are both empty.
func (r *PostRepository) ProfilePosts(ctx context.Context, userID int64) <-chan syncer.Page[dbcache.Post] {
	out := make(chan syncer.Page[dbcache.Post], 2)
	go func() {
		defer close(out)

		cached, err := r.cachedProfilePosts(ctx, userID)
		if err != nil {
			sendPage(ctx, out, syncer.Page[dbcache.Post]{Items: []dbcache.Post{}, Err: fmt.Errorf("cache read failed: %w", err)})
			return
		}
		if !r.probe.IsOnline() {
			sendPage(ctx, out, syncer.Page[dbcache.Post]{Items: cached, FromCache: true})
			return
		}
		if len(cached) > 0 {
			if !sendPage(ctx, out, syncer.Page[dbcache.Post]{Items: cached, FromCache: true}) {
				return
			}
		}

		countries, err := r.profileCountries(ctx, userID)
		if err != nil || len(countries) == 0 {
			if len(cached) == 0 {
				sendPage(ctx, out, syncer.Page[dbcache.Post]{Items: []dbcache.Post{}, Err: err})
			}
			return
		}

		byCountry := make(map[string][]dbcache.Post, len(countries))
		for _, p := range cached {
			byCountry[p.CountryCode] = append(byCountry[p.CountryCode], p)
		}

		var (
			mu        sync.Mutex
			union     = make(map[int64]dbcache.Post)
			successes int
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(countryFetchFanout)
		for _, cc := range countries {
			cc := cc
			g.Go(func() error {
				remote, err := r.remote.FetchCountryPosts(gctx, userID, cc, 0, r.pageSize)
				if err == nil {
					var rows []dbcache.Post
					rows, err = dbcache.UpsertRemotePosts(gctx, r.db, remote)
					if err == nil {
						mu.Lock()
						successes++
						for _, p := range rows {
							union[p.ID] = p
						}
						mu.Unlock()
						return nil
					}
				}
				slog.Warn("country posts fetch failed", "country", cc, "error", err)
				mu.Lock()
				for _, p := range byCountry[cc] {
					union[p.ID] = p
				}
				mu.Unlock()
				return nil
			})
		}
		// Goroutines never return errors; Wait only joins them.
		_ = g.Wait()

		if successes == 0 {
			// Every country fetch failed: the cache page already emitted is
			// the best available state.
			if len(cached) == 0 {
				sendPage(ctx, out, syncer.Page[dbcache.Post]{Items: []dbcache.Post{}, Err: common.ErrRemoteUnavailable})
			}
			return
		}

		merged := make([]dbcache.Post, 0, len(union))
		for _, p := range union {
			merged = append(merged, p)
		}
		sort.Slice(merged, func(i, j int) bool {
			return merged[i].CreatedAt.After(merged[j].CreatedAt)
		})
		r.trim(ctx)
		sendPage(ctx, out, syncer.Page[dbcache.Post]{Items: merged})
	}()
	return out
}

// CreatePost publishes immediately (foreground). Offline creation goes
// through the draft queue instead.
func (r *PostRepository) CreatePost(ctx context.Context, post common.RemoteNewPost) (*dbcache.Post, error) {
	if err := common.ValidateCaption(post.Caption); err != nil {
		return nil, err
	}
	if err := common.ValidateCountryCode(post.CountryCode); err != nil {
		return nil, err
	}
	if err := common.ValidateMediaPaths(post.MediaURLs); err != nil {
		return nil, err
	}
	if !post.Visibility.IsValid() {
		return nil, fmt.Errorf("%w: unknown visibility %q", common.ErrValidation, post.Visibility)
	}

	created, err := r.remote.CreatePost(ctx, post)
	if err != nil {
		return nil, err
	}
	rows, err := dbcache.UpsertRemotePosts(ctx, r.db, []common.RemotePost{*created})
	if err != nil {
		return nil, err
	}
	r.trim(ctx)
	return &rows[0], nil
}

// DeletePost removes the post remotely and cascades locally through its
// comments and likes.
func (r *PostRepository) DeletePost(ctx context.Context, id int64) error {
	if err := r.remote.DeletePost(ctx, id); err != nil {
		return err
	}
	if err := dbcache.DeletePostGraph(ctx, r.db, id); err != nil {
		return fmt.Errorf("failed to cascade post delete: %w", err)
	}
	return nil
}

func (r *PostRepository) cachedProfilePosts(ctx context.Context, userID int64) ([]dbcache.Post, error) {
	var posts []dbcache.Post
	err := r.db.WithContext(ctx).
		Where("profile_owner_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// profileCountries resolves the distinct countries of a user's
// collections, fetching the collections themselves when none are cached.
func (r *PostRepository) profileCountries(ctx context.Context, userID int64) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&dbcache.Collection{}).
		Where("owner_id = ?", userID).
		Distinct().
		Pluck("country_code", &codes).Error
	if err != nil {
		return nil, err
	}
	if len(codes) > 0 {
		return codes, nil
	}

	remote, err := r.remote.FetchCollections(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := dbcache.UpsertRemoteCollections(ctx, r.db, remote); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, c := range remote {
		if !seen[c.CountryCode] {
			seen[c.CountryCode] = true
			codes = append(codes, c.CountryCode)
		}
	}
	return codes, nil
}

func (r *PostRepository) trim(ctx context.Context) {
	if _, err := r.evictor.TrimPosts(ctx, r.capacity); err != nil {
		slog.Warn("post capacity trim failed", "error", err)
	}
}

func pageFresh(posts []dbcache.Post, ttl time.Duration) bool {
	return syncer.PageFresh(posts, func(p dbcache.Post) time.Time { return p.CacheTimestamp }, ttl)
}

func sendPage(ctx context.Context, out chan<- syncer.Page[dbcache.Post], p syncer.Page[dbcache.Post]) bool {
	select {
	case out <- p:
		return true
	case <-ctx.Done():
		return false
	}
}
