package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"wandergram/internal/config"
	"wandergram/internal/dbcache"
	"wandergram/internal/draft"
	"wandergram/internal/remote"
)

var (
	cfg            *config.Config
	db             *gorm.DB
	apiClient      *remote.Client
	probe          *remote.Probe
	session        *remote.Session
	flagConfigPath string
	flagUserID     int64
	flagOffline    bool
)

var rootCmd = &cobra.Command{
	Use:   "wandergram",
	Short: "Maintenance CLI for the wandergram offline cache.",
	Long: `Maintenance CLI for the wandergram offline cache.

Inspect the local store, sweep expired rows, and drain the draft queue
without going through the mobile client.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(flagConfigPath)
		if err != nil {
			return err
		}
		db, err = dbcache.NewSQLite(cfg)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		apiClient = remote.NewClient(cfg.Remote)
		probe = remote.NewProbe()
		probe.SetOnline(!flagOffline)
		session = remote.NewSession()
		if flagUserID != 0 {
			session.SignIn(flagUserID)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().Int64VarP(&flagUserID, "user", "u", 0, "act as this user id")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "treat the device as offline")
	rootCmd.AddCommand(sweepCmd, statsCmd, draftsCmd, configCmd)
}

func newUploader() *draft.Uploader {
	queue := draft.NewQueue(db, session)
	return draft.NewUploader(db, queue, apiClient, probe, cfg.Drafts.UploadWorkers)
}

func successf(format string, a ...interface{}) {
	color.Green(format, a...)
}

func warnf(format string, a ...interface{}) {
	color.Yellow(format, a...)
}
