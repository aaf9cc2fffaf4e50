package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ErrAlreadyQueued means a backup with the same request id was enqueued.
var ErrAlreadyQueued = errors.New("backup already queued")

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueBackup enqueues a backup snapshot. The request id doubles as the
// task id, so repeating a request does not create a second backup.
func (c *Client) EnqueueBackup(ctx context.Context, payload BackupPayload) (*asynq.TaskInfo, error) {
	if payload.RequestID == "" {
		payload.RequestID = uuid.NewString()
	}
	task, err := NewBackupTask(payload)
	if err != nil {
		return nil, err
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(payload.RequestID),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyQueued, payload.RequestID)
	}
	return info, err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
