package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wandergram/internal/dbcache"
	"wandergram/internal/draft"
	"wandergram/internal/syncer"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired rows and trim the cache to capacity.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ev := syncer.NewEvictor(db)

		removed, err := ev.SweepAll(ctx, cfg.Cache.SweepMaxAge())
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		trimmedPosts, err := ev.TrimPosts(ctx, cfg.Cache.PostCapacity)
		if err != nil {
			return fmt.Errorf("post trim failed: %w", err)
		}
		trimmedUsers, err := ev.TrimUsers(ctx, cfg.Cache.UserCapacity)
		if err != nil {
			return fmt.Errorf("user trim failed: %w", err)
		}
		successf("swept %d expired rows, trimmed %d posts and %d users", removed, trimmedPosts, trimmedUsers)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts of the local cache.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tables := []struct {
			name  string
			model interface{}
		}{
			{"users", &dbcache.User{}},
			{"posts", &dbcache.Post{}},
			{"comments", &dbcache.Comment{}},
			{"follows", &dbcache.Follow{}},
			{"likes", &dbcache.Like{}},
			{"notifications", &dbcache.Notification{}},
			{"permissions", &dbcache.TravelPermission{}},
			{"countries", &dbcache.Country{}},
			{"cities", &dbcache.City{}},
			{"collections", &dbcache.Collection{}},
			{"drafts", &dbcache.DraftPost{}},
		}
		bold := color.New(color.Bold)
		for _, t := range tables {
			var n int64
			if err := db.WithContext(ctx).Model(t.model).Count(&n).Error; err != nil {
				return fmt.Errorf("failed to count %s: %w", t.name, err)
			}
			bold.Printf("%-15s", t.name)
			fmt.Printf("%d\n", n)
		}
		return nil
	},
}

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List and sync the offline draft queue.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		queue := draft.NewQueue(db, session)
		rows, err := queue.List(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("no drafts")
			return nil
		}
		for _, d := range rows {
			fmt.Printf("%s  %-10s  %s  attempts=%d\n", d.ID, d.SyncStatus, d.CountryCode, d.AttemptCount)
			if d.LastError != "" {
				warnf("  last error: %s", d.LastError)
			}
		}
		return nil
	},
}

var draftsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload pending drafts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newUploader().Drain(cmd.Context())
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			warnf("uploaded %d, failed %d, skipped %d", res.Uploaded, res.Failed, res.Skipped)
			return nil
		}
		successf("uploaded %d, skipped %d", res.Uploaded, res.Skipped)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("cache path:        %s\n", cfg.Cache.Path)
		fmt.Printf("post capacity:     %d\n", cfg.Cache.PostCapacity)
		fmt.Printf("user capacity:     %d\n", cfg.Cache.UserCapacity)
		fmt.Printf("sweep max age:     %s\n", cfg.Cache.SweepMaxAge())
		fmt.Printf("remote base url:   %s\n", cfg.Remote.BaseURL)
		fmt.Printf("upload workers:    %d\n", cfg.Drafts.UploadWorkers)
		fmt.Printf("failed retention:  %s\n", cfg.Drafts.FailedRetention())
		if _, err := os.Stat(cfg.Cache.Path); err != nil {
			warnf("cache file does not exist yet")
		}
		return nil
	},
}

func init() {
	draftsCmd.AddCommand(draftsSyncCmd)
}
