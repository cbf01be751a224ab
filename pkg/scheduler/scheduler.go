// Package scheduler runs periodic backups in daemon mode.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ScorpioXKiller/client-backup-app/pkg/client"
	"github.com/ScorpioXKiller/client-backup-app/pkg/localfs"
	"github.com/ScorpioXKiller/client-backup-app/pkg/manifest"
)

// BackupJob uploads the configured file set once per trigger and folds the
// results into the local manifest.
type BackupJob struct {
	Client   *client.Client
	Files    func() ([]string, error)
	Manifest *manifest.Manifest
	FS       localfs.FS
	Logger   *zap.Logger
	Timeout  time.Duration
}

func (j *BackupJob) Run() {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = time.Hour
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	files, err := j.Files()
	if err != nil {
		j.Logger.Error("Scheduled backup could not read file list", zap.Error(err))
		return
	}

	rep, err := j.Client.Backup(ctx, files)
	if err != nil {
		j.Logger.Error("Scheduled backup aborted", zap.Error(err))
	}
	for _, o := range rep.Outcomes {
		if !o.OK {
			j.Logger.Warn("Scheduled backup file failed",
				zap.String("file", o.Name),
				zap.String("reason", o.Reason()),
			)
		}
	}

	if j.Manifest != nil {
		j.updateManifest(rep)
	}
	j.Logger.Info("Scheduled backup finished",
		zap.Int("files", len(rep.Outcomes)),
		zap.Int("failed", len(rep.Failed())),
		zap.Bool("ok", rep.OK()),
	)
}

func (j *BackupJob) updateManifest(rep *client.Report) {
	fs := j.FS
	if fs == nil {
		fs = localfs.OS{}
	}
	// Sizes and digests come from re-reading the files; a file changed since
	// upload simply records its current state.
	for _, o := range rep.Outcomes {
		if !o.OK {
			continue
		}
		if b, err := fs.ReadAll(o.Name); err == nil {
			j.Manifest.RecordBackup(o.Name, b)
		}
	}
	if err := j.Manifest.Save(); err != nil {
		j.Logger.Warn("Manifest save failed", zap.Error(err))
	}
}

// Scheduler wraps a cron runner with logging.
type Scheduler struct {
	c      *cron.Cron
	logger *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{c: cron.New(), logger: logger}
}

// Schedule registers job under the cron expression expr.
func (s *Scheduler) Schedule(expr string, job cron.Job) error {
	if _, err := s.c.AddJob(expr, job); err != nil {
		return err
	}
	s.logger.Info("Backup schedule configured", zap.String("schedule", expr))
	return nil
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop halts triggering and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
