package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ScorpioXKiller/client-backup-app/pkg/config"
	"github.com/ScorpioXKiller/client-backup-app/pkg/localfs"
	"github.com/ScorpioXKiller/client-backup-app/pkg/metrics"
	"github.com/ScorpioXKiller/client-backup-app/pkg/scheduler"
)

func runCmd() *cobra.Command {
	var scheduleFlag string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run as a daemon with scheduled backups",
		Long: `Runs until interrupted, backing up the configured file list on the cron
schedule from config (or --schedule) and, when enabled, serving prometheus
metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if scheduleFlag != "" {
				cfg.Schedule = scheduleFlag
			}
			if cfg.Schedule == "" {
				return fmt.Errorf("daemon mode needs a schedule (config `schedule` or --schedule)")
			}

			collector := metrics.NewCollector(logger)
			if cfg.Metrics.Enabled {
				collector.Start(cfg.Metrics.Listen)
			}

			c, err := newClient(cfg, logger, collector)
			if err != nil {
				return err
			}

			job := &scheduler.BackupJob{
				Client:   c,
				Files:    func() ([]string, error) { return config.ReadBackupList(cfg.BackupListFile) },
				Manifest: openManifest(cfg, logger),
				FS:       localfs.OS{},
				Logger:   logger,
				Timeout:  2 * time.Hour,
			}
			sched := scheduler.New(logger)
			if err := sched.Schedule(cfg.Schedule, job); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
			}
			sched.Start()
			logger.Info("Daemon started", zap.String("schedule", cfg.Schedule))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(shutdownCtx)
			if cfg.Metrics.Enabled {
				_ = collector.Stop(shutdownCtx)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scheduleFlag, "schedule", "", "cron expression for periodic backups (overrides config)")
	return cmd
}
