package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBackupSnapshot writes a JSON backup into the backup directory.
	TaskBackupSnapshot = "backup:snapshot"
)

// BackupPayload describes one backup run. RequestID doubles as the Asynq
// task id, so a repeated request is queued once.
type BackupPayload struct {
	Reason    string `json:"reason"`
	RequestID string `json:"request_id"`
}

func (p *BackupPayload) fillDefaults() {
	if p.RequestID == "" {
		p.RequestID = uuid.NewString()
	}
	if p.Reason == "" {
		p.Reason = "manual"
	}
}

// NewBackupTask encodes payload as a TaskBackupSnapshot task.
func NewBackupTask(payload BackupPayload) (*asynq.Task, error) {
	payload.fillDefaults()
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", TaskBackupSnapshot, err)
	}
	return asynq.NewTask(TaskBackupSnapshot, data), nil
}

// decodeBackupPayload rejects malformed payloads with asynq.SkipRetry, since
// retrying cannot fix them.
func decodeBackupPayload(t *asynq.Task) (BackupPayload, error) {
	var payload BackupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return BackupPayload{}, fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	payload.fillDefaults()
	return payload, nil
}
