package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/edi-sejahtera/sejahtera/internal/backup"
	jobmetrics "github.com/edi-sejahtera/sejahtera/internal/jobs"
)

// BackupWriter stores a snapshot on disk.
type BackupWriter interface {
	WriteFile(ctx context.Context, dir string) (string, backup.Snapshot, error)
}

// BackupJob handles TaskBackupSnapshot.
type BackupJob struct {
	Backups BackupWriter
	Dir     string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewBackupJob wires dependencies for the backup handler.
func NewBackupJob(backups BackupWriter, dir string, logger *slog.Logger, metrics *jobmetrics.Metrics) *BackupJob {
	return &BackupJob{Backups: backups, Dir: dir, Logger: logger, Metrics: metrics}
}

// Handle processes backup tasks.
func (j *BackupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Backups == nil {
		return errors.New("backup: handler not configured")
	}
	payload, err := decodeBackupPayload(t)
	if err != nil {
		j.logger().Warn("dropping backup task", slog.Any("error", err))
		return err
	}

	tracker := j.Metrics.Track(TaskBackupSnapshot)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("request_id", payload.RequestID), slog.String("reason", payload.Reason))
	logger.Info("starting backup")
	started := time.Now()

	path, snap, err := j.Backups.WriteFile(ctx, j.Dir)
	if err != nil {
		resultErr = err
		logger.Error("write backup", slog.Any("error", err))
		return resultErr
	}
	j.Metrics.AddBackupRows(snap.Counts())

	logger.Info("completed backup", slog.String("path", path), slog.Any("rows", snap.Counts()), slog.Duration("duration", time.Since(started)))
	return resultErr
}

func (j *BackupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
