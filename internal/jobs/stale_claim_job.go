package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/service"
)

type StaleClaimJob struct {
	ps service.PublishService
}

func NewStaleClaimJob(ps service.PublishService) *StaleClaimJob {
	return &StaleClaimJob{ps: ps}
}

func (j *StaleClaimJob) RecoverStaleClaims() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := j.ps.RecoverStaleClaims(ctx); err != nil {
		slog.Info(err.Error())
	}
}
