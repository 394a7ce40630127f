package draft

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"wandergram/internal/common"
	"wandergram/internal/dbcache"
)

// Uploader drains PENDING drafts to the backend. Drafts upload
// concurrently up to the worker bound; each draft is claimed before its
// upload starts, so a concurrent drain never doubles a post.
type Uploader struct {
	db      *gorm.DB
	queue   *Queue
	remote  common.RemoteAPI
	probe   common.ConnectivityProbe
	workers int
}

func NewUploader(db *gorm.DB, queue *Queue, remote common.RemoteAPI, probe common.ConnectivityProbe, workers int) *Uploader {
	if workers <= 0 {
		workers = 1
	}
	return &Uploader{db: db, queue: queue, remote: remote, probe: probe, workers: workers}
}

// Result summarizes one drain pass.
type Result struct {
	Uploaded int
	Failed   int
	Skipped  int
}

// Drain uploads every PENDING draft of the current user. Offline, it
// returns immediately with everything skipped.
func (u *Uploader) Drain(ctx context.Context) (Result, error) {
	pending, err := u.queue.List(ctx, common.SyncPending)
	if err != nil {
		return Result{}, err
	}
	if len(pending) == 0 {
		return Result{}, nil
	}
	if !u.probe.IsOnline() {
		return Result{Skipped: len(pending)}, nil
	}

	var (
		res Result
		g   errgroup.Group
	)
	g.SetLimit(u.workers)
	results := make([]int, len(pending)) // 0 skipped, 1 uploaded, 2 failed
	for i, d := range pending {
		i, d := i, d
		g.Go(func() error {
			results[i] = u.uploadOne(ctx, d.ID)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		switch r {
		case 1:
			res.Uploaded++
		case 2:
			res.Failed++
		default:
			res.Skipped++
		}
	}
	return res, nil
}

func (u *Uploader) uploadOne(ctx context.Context, id string) int {
	claimed, err := u.queue.claim(ctx, id)
	if err != nil {
		// Someone else claimed or cancelled it between list and claim.
		slog.Debug("draft claim skipped", "draft", id, "reason", err)
		return 0
	}

	created, err := u.remote.CreatePost(ctx, common.RemoteNewPost{
		AuthorID:       claimed.OwnerID,
		ProfileOwnerID: claimed.OwnerID,
		CountryCode:    claimed.CountryCode,
		CityID:         claimed.CityID,
		Caption:        claimed.Caption,
		MediaURLs:      claimed.LocalMediaPaths,
		Visibility:     claimed.Visibility,
	})
	if err != nil {
		if ferr := u.queue.markFailed(ctx, id, err); ferr != nil {
			slog.Warn("draft failure not recorded", "draft", id, "error", ferr)
		}
		slog.Warn("draft upload failed", "draft", id, "error", err)
		return 2
	}

	if _, err := dbcache.UpsertRemotePosts(ctx, u.db, []common.RemotePost{*created}); err != nil {
		slog.Warn("uploaded draft not cached", "draft", id, "error", err)
	}
	if err := u.queue.markSynced(ctx, id); err != nil {
		slog.Warn("draft not marked synced", "draft", id, "error", err)
	}
	return 1
}
