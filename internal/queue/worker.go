package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// HandlePublishPostTask publishes the post if it is still scheduled and due.
// Publish failures are recorded on the post and are not retried here.
func (j *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid publish payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.PostID == "" {
		return fmt.Errorf("publish payload has no post id: %w", asynq.SkipRetry)
	}

	result, err := j.ps.PublishDue(ctx, payload.PostID)
	if err != nil {
		return err
	}

	slog.Info("publish task finished", "post_id", payload.PostID, "status", result.Status, "reason", result.Reason)
	return nil
}
