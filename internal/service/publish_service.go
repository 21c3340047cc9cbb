package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/telemetry"
	"github.com/maheshrc27/postflow/internal/transfer"
)

const (
	// StaleClaimReason is recorded on posts whose publish attempt never finished.
	// The remote post may exist, so they are not put back in the schedule.
	StaleClaimReason = "Publish attempt was interrupted; check the Facebook page before rescheduling"

	internalFailureReason = "Internal error while publishing"

	persistTimeout = 10 * time.Second
)

type PublishService interface {
	// Sweep publishes every scheduled post that is due.
	Sweep(ctx context.Context) (*transfer.SweepSummary, error)
	// PublishDue publishes postID only if it is still scheduled and due.
	PublishDue(ctx context.Context, postID string) (*transfer.PostResult, error)
	// PublishNow publishes a post owned by userID regardless of its schedule.
	PublishNow(ctx context.Context, userID, postID string) (*transfer.PostResult, error)
	PublishInline(ctx context.Context, userID string, req *transfer.PublishRequest) (*transfer.PostResult, error)
	RecoverStaleClaims(ctx context.Context) (int64, error)
}

type publishService struct {
	posts        repository.PostRepository
	creds        CredentialService
	fb           FacebookService
	concurrency  int
	claimTimeout time.Duration
	now          func() time.Time
}

func NewPublishService(
	cfg config.Sweep,
	posts repository.PostRepository,
	creds CredentialService,
	fb FacebookService) PublishService {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &publishService{
		posts:        posts,
		creds:        creds,
		fb:           fb,
		concurrency:  concurrency,
		claimTimeout: cfg.ClaimTimeout,
		now:          time.Now,
	}
}

func (s *publishService) Sweep(ctx context.Context) (*transfer.SweepSummary, error) {
	telemetry.SweepRuns.Inc()
	start := time.Now()
	defer func() {
		telemetry.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	posts, err := s.posts.ListByStatus(ctx, models.PostStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled posts: %w", err)
	}

	now := s.now()
	var due []*models.Post
	for _, post := range posts {
		if post.IsDue(now) {
			due = append(due, post)
		}
	}

	summary := &transfer.SweepSummary{
		ScheduledFound: len(posts),
		Due:            len(due),
		Results:        []transfer.PostResult{},
	}
	if len(due) == 0 {
		summary.Message = "No posts due for publishing"
		return summary, nil
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	semaphore := make(chan struct{}, s.concurrency)

	for _, post := range due {
		if ctx.Err() != nil {
			slog.Warn("sweep deadline reached, leaving remaining posts scheduled", "error", ctx.Err())
			break
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(post *models.Post) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result, _ := s.process(ctx, post, models.PostStatusScheduled)

			mu.Lock()
			defer mu.Unlock()
			summary.Results = append(summary.Results, result)
			switch result.Status {
			case transfer.ResultPublished:
				summary.Published++
			case transfer.ResultFailed:
				summary.Failed++
			default:
				summary.Skipped++
			}
		}(post)
	}

	wg.Wait()

	summary.Processed = summary.Published + summary.Failed
	summary.Message = fmt.Sprintf("Processed %d scheduled posts: %d published, %d failed, %d skipped",
		summary.Processed, summary.Published, summary.Failed, summary.Skipped)
	slog.Info(summary.Message, "scheduled_found", summary.ScheduledFound, "due", summary.Due)

	return summary, nil
}

func (s *publishService) PublishDue(ctx context.Context, postID string) (*transfer.PostResult, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post %s: %w", postID, err)
	}
	if post == nil {
		return skipped(postID, "Post no longer exists"), nil
	}
	if post.Status != models.PostStatusScheduled {
		return skipped(postID, fmt.Sprintf("Post is %s", post.Status)), nil
	}
	if !post.IsDue(s.now()) {
		return skipped(postID, "Post is not due yet"), nil
	}

	result, err := s.process(ctx, post, models.PostStatusScheduled)
	if result.Status == transfer.ResultSkipped && err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *publishService) PublishNow(ctx context.Context, userID, postID string) (*transfer.PostResult, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post %s: %w", postID, err)
	}
	if post == nil || post.UserID != userID {
		return nil, newPublishError(KindNotFound, "Post not found")
	}

	switch post.Status {
	case models.PostStatusPublished:
		return nil, newPublishError(KindAlreadyPublished, "Post is already published")
	case models.PostStatusPublishing:
		return nil, newPublishError(KindInProgress, "Post is already being published")
	}
	if post.Platform != models.PlatformFacebook {
		return nil, unsupportedPlatform(post.Platform)
	}

	result, err := s.process(ctx, post, models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusFailed)
	if result.Status == transfer.ResultSkipped && err == nil {
		return nil, newPublishError(KindInProgress, "Post is already being published")
	}
	if err != nil {
		return &result, err
	}
	return &result, nil
}

func (s *publishService) PublishInline(ctx context.Context, userID string, req *transfer.PublishRequest) (*transfer.PostResult, error) {
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"business_id", req.BusinessID},
		{"content", req.Content},
		{"platform", req.Platform},
		{"page_id", req.PageID},
		{"access_token", req.AccessToken},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return nil, newPublishError(KindInvalidRequest, "Missing required fields: %s", strings.Join(missing, ", "))
	}
	if req.Platform != models.PlatformFacebook {
		return nil, unsupportedPlatform(req.Platform)
	}
	// Stored media is only reachable under the caller's own upload prefix.
	ownPrefix := R2Scheme + userID + "/"
	for _, mediaURL := range req.MediaURLs {
		if strings.HasPrefix(mediaURL, R2Scheme) && !strings.HasPrefix(mediaURL, ownPrefix) {
			return nil, newPublishError(KindInvalidRequest, "Media %s does not belong to this account", mediaURL)
		}
	}

	cred := &models.Credential{
		BusinessID:  req.BusinessID,
		AccessToken: req.AccessToken,
		PageID:      req.PageID,
	}

	remoteID, err := s.fb.Publish(ctx, cred, req.Content, s.fb.AttachMedia(ctx, cred, req.MediaURLs))
	if err != nil {
		return &transfer.PostResult{
			BusinessID: req.BusinessID,
			Platform:   req.Platform,
			Status:     transfer.ResultFailed,
			Reason:     err.Error(),
		}, err
	}

	return &transfer.PostResult{
		BusinessID:   req.BusinessID,
		Platform:     req.Platform,
		Status:       transfer.ResultPublished,
		RemotePostID: remoteID,
	}, nil
}

func (s *publishService) RecoverStaleClaims(ctx context.Context) (int64, error) {
	if s.claimTimeout <= 0 {
		return 0, nil
	}

	n, err := s.posts.FailStaleClaims(ctx, s.now().Add(-s.claimTimeout), StaleClaimReason)
	if err != nil {
		return 0, fmt.Errorf("failed to recover stale claims: %w", err)
	}
	if n > 0 {
		telemetry.StaleClaimsFailed.Add(float64(n))
		slog.Warn("marked interrupted publish attempts as failed", "count", n)
	}
	return n, nil
}

// process claims post, publishes it and records the final state. The
// returned error is the reason the post failed, or the claim error when
// the result is skipped.
func (s *publishService) process(ctx context.Context, post *models.Post, from ...string) (result transfer.PostResult, err error) {
	result = transfer.PostResult{
		PostID:     post.ID,
		BusinessID: post.BusinessID,
		Platform:   post.Platform,
	}

	claimed, err := s.posts.Claim(ctx, post.ID, from...)
	if err != nil {
		slog.Error("failed to claim post", "post_id", post.ID, "error", err)
		telemetry.PostsSkipped.Inc()
		result.Status = transfer.ResultSkipped
		result.Reason = "Could not claim post"
		return result, fmt.Errorf("failed to claim post %s: %w", post.ID, err)
	}
	if !claimed {
		telemetry.PostsSkipped.Inc()
		result.Status = transfer.ResultSkipped
		result.Reason = "Post was claimed by another worker"
		return result, nil
	}

	telemetry.InFlightGauge.Inc()
	defer telemetry.InFlightGauge.Dec()

	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			slog.Error("panic while publishing post", "post_id", post.ID, "panic", r)
			s.markFailed(ctx, post.ID, internalFailureReason)
			result.Status = transfer.ResultFailed
			result.Reason = internalFailureReason
			err = newPublishError(KindInternal, internalFailureReason)
		}
	}()

	remoteID, err := s.publish(ctx, post)
	if err != nil {
		reason := failureReason(post.ID, err)
		s.markFailed(ctx, post.ID, reason)
		result.Status = transfer.ResultFailed
		result.Reason = reason
		return result, err
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.posts.MarkPublished(persistCtx, post.ID, remoteID, s.now()); err != nil {
		slog.Error("post published but state was not saved", "post_id", post.ID, "remote_id", remoteID, "error", err)
		sentry.CaptureException(fmt.Errorf("mark post %s published: %w", post.ID, err))
	}

	telemetry.PostsPublished.Inc()
	result.Status = transfer.ResultPublished
	result.RemotePostID = remoteID
	return result, nil
}

func (s *publishService) publish(ctx context.Context, post *models.Post) (string, error) {
	if post.Platform != models.PlatformFacebook {
		return "", unsupportedPlatform(post.Platform)
	}

	cred, err := s.creds.Resolve(ctx, post.BusinessID)
	if err != nil {
		return "", err
	}

	// Validate before spending calls on uploads.
	if strings.TrimSpace(post.Content) == "" {
		return "", newPublishError(KindEmptyContent, "Post content is empty")
	}

	mediaIDs := s.fb.AttachMedia(ctx, cred, post.MediaURLs)
	return s.fb.Publish(ctx, cred, post.Content, mediaIDs)
}

func (s *publishService) markFailed(ctx context.Context, postID, reason string) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	telemetry.PostsFailed.Inc()
	if err := s.posts.MarkFailed(persistCtx, postID, reason); err != nil {
		slog.Error("failed to record post failure", "post_id", postID, "reason", reason, "error", err)
		sentry.CaptureException(fmt.Errorf("mark post %s failed: %w", postID, err))
	}
}

// failureReason is the text stored on a failed post. Only *PublishError
// messages are shown to users; anything else is reported to Sentry.
func failureReason(postID string, err error) string {
	if _, ok := ErrorKind(err); ok {
		return err.Error()
	}
	slog.Error("internal error while publishing", "post_id", postID, "error", err)
	sentry.CaptureException(err)
	return internalFailureReason
}

func unsupportedPlatform(platform string) *PublishError {
	return newPublishError(KindUnsupportedPlatform, "Publishing to %s is not yet supported", platform)
}

func skipped(postID, reason string) *transfer.PostResult {
	return &transfer.PostResult{PostID: postID, Status: transfer.ResultSkipped, Reason: reason}
}
