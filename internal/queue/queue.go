package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/models"
)

// Scheduler enqueues exact-time publish tasks for scheduled posts.
type Scheduler struct {
	client *asynq.Client
	now    func() time.Time
}

func NewScheduler(client *asynq.Client) *Scheduler {
	return &Scheduler{client: client, now: time.Now}
}

func (s *Scheduler) SchedulePublish(ctx context.Context, post *models.Post) error {
	if post.ScheduledDate == nil {
		return errors.New("post has no scheduled date")
	}

	delay := post.ScheduledDate.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	return EnqueuePost(ctx, s.client, PublishPostPayload{
		PostID:        post.ID,
		ScheduledUnix: post.ScheduledDate.Unix(),
	}, delay)
}

// EnqueuePost schedules payload to run after delay. A post rescheduled to
// the same instant maps to the same task id, so enqueueing twice is a no-op.
func EnqueuePost(ctx context.Context, asynqClient *asynq.Client, payload PublishPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)
	taskID := fmt.Sprintf("%s:%d", payload.PostID, payload.ScheduledUnix)

	_, err = asynqClient.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.TaskID(taskID), asynq.MaxRetry(3))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("publish task scheduled", "post_id", payload.PostID, "delay", delay)
	return nil
}
