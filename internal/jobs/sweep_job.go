package job

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/postflow/internal/service"
)

type SweepJob struct {
	ps      service.PublishService
	timeout time.Duration
	running atomic.Bool
}

func NewSweepJob(ps service.PublishService, timeout time.Duration) *SweepJob {
	return &SweepJob{
		ps:      ps,
		timeout: timeout,
	}
}

// PublishScheduled runs one sweep. A tick that fires while the previous
// sweep is still running is dropped.
func (j *SweepJob) PublishScheduled() {
	if !j.running.CompareAndSwap(false, true) {
		slog.Info("previous sweep still running, skipping tick")
		return
	}
	defer j.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	summary, err := j.ps.Sweep(ctx)
	if err != nil {
		slog.Error("scheduled sweep failed", "error", err)
		return
	}

	if summary.Due > 0 {
		slog.Info("scheduled sweep finished", "due", summary.Due, "published", summary.Published,
			"failed", summary.Failed, "skipped", summary.Skipped)
	}
}
