package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxMediaSize = 8 << 20

// PublishScheduler arranges for a scheduled post to be published at its
// scheduled date.
type PublishScheduler interface {
	SchedulePublish(ctx context.Context, post *models.Post) error
}

// MediaStore keeps uploaded media and returns the URL posts should reference.
type MediaStore interface {
	UploadToR2(ctx context.Context, key string, file []byte, contentType string) (string, error)
}

type PostService interface {
	CreatePost(ctx context.Context, userID string, pc *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, userID, businessID string) ([]*models.Post, error)
	PostInfo(ctx context.Context, userID, postID string) (*models.Post, error)
	Reschedule(ctx context.Context, userID, postID string, scheduledDate *time.Time) (*models.Post, error)
	UploadMedia(ctx context.Context, userID string, file *multipart.FileHeader) (string, error)
}

type postService struct {
	pr        repository.PostRepository
	store     MediaStore
	scheduler PublishScheduler
}

// NewPostService wires the post API. store and scheduler may be nil when
// object storage or the task queue are not configured.
func NewPostService(pr repository.PostRepository, store MediaStore, scheduler PublishScheduler) PostService {
	return &postService{
		pr:        pr,
		store:     store,
		scheduler: scheduler,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID string, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil {
		return nil, invalidInput("post creation data is nil")
	}
	if strings.TrimSpace(pc.BusinessID) == "" {
		return nil, invalidInput("business_id is required")
	}
	if strings.TrimSpace(pc.Content) == "" {
		return nil, invalidInput("content cannot be empty")
	}

	platform := pc.Platform
	if platform == "" {
		platform = models.PlatformFacebook
	}

	status := pc.Status
	if status == "" {
		status = models.PostStatusDraft
		if pc.ScheduledDate != nil {
			status = models.PostStatusScheduled
		}
	}
	if status != models.PostStatusDraft && status != models.PostStatusScheduled {
		return nil, invalidInput("status must be draft or scheduled")
	}
	if status == models.PostStatusScheduled && pc.ScheduledDate == nil {
		return nil, invalidInput("scheduled_date is required for scheduled posts")
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	mediaURLs := pc.MediaURLs
	if mediaURLs == nil {
		mediaURLs = []string{}
	}

	post := &models.Post{
		ID:            id,
		UserID:        userID,
		BusinessID:    pc.BusinessID,
		CampaignID:    pc.CampaignID,
		Content:       pc.Content,
		Platform:      platform,
		Status:        status,
		ScheduledDate: pc.ScheduledDate,
		MediaURLs:     mediaURLs,
		AIGenerated:   pc.AIGenerated,
	}

	if err := s.pr.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	s.schedule(ctx, post)
	return post, nil
}

func (s *postService) List(ctx context.Context, userID, businessID string) ([]*models.Post, error) {
	if businessID == "" {
		return nil, invalidInput("business_id is required")
	}

	posts, err := s.pr.ListByBusinessID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	owned := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		if post.UserID == userID {
			owned = append(owned, post)
		}
	}
	return owned, nil
}

func (s *postService) PostInfo(ctx context.Context, userID, postID string) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info: %w", err)
	}
	if post == nil || post.UserID != userID {
		return nil, ErrNotFound
	}
	return post, nil
}

func (s *postService) Reschedule(ctx context.Context, userID, postID string, scheduledDate *time.Time) (*models.Post, error) {
	if scheduledDate == nil {
		return nil, invalidInput("scheduled_date is required")
	}

	post, err := s.PostInfo(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	ok, err := s.pr.Reschedule(ctx, postID, *scheduledDate)
	if err != nil {
		return nil, fmt.Errorf("error rescheduling post: %w", err)
	}
	if !ok {
		return nil, invalidInput("a %s post cannot be rescheduled", post.Status)
	}

	post.Status = models.PostStatusScheduled
	post.ScheduledDate = scheduledDate
	post.FailureReason = ""

	s.schedule(ctx, post)
	return post, nil
}

func (s *postService) UploadMedia(ctx context.Context, userID string, file *multipart.FileHeader) (string, error) {
	if s.store == nil {
		return "", ErrStorageNotConfigured
	}
	if file == nil {
		return "", invalidInput("no file provided")
	}
	if file.Size > maxMediaSize {
		return "", invalidInput("file is larger than %d MB", maxMediaSize>>20)
	}

	fileContent, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(io.LimitReader(fileContent, maxMediaSize+1))
	if err != nil {
		return "", fmt.Errorf("error reading file content: %w", err)
	}
	if len(fileBytes) > maxMediaSize {
		return "", invalidInput("file is larger than %d MB", maxMediaSize>>20)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return "", invalidInput("unsupported file type")
	}
	if !filetype.IsImage(fileBytes) {
		return "", invalidInput("file type %s is not allowed", fileType.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	key := fmt.Sprintf("%s/%s.%s", userID, id, fileType.Extension)
	mediaURL, err := s.store.UploadToR2(ctx, key, fileBytes, fileType.MIME.Value)
	if err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}

	return mediaURL, nil
}

// schedule enqueues the exact-time publish task. The periodic sweep still
// picks the post up if this fails.
func (s *postService) schedule(ctx context.Context, post *models.Post) {
	if s.scheduler == nil || post.Status != models.PostStatusScheduled {
		return
	}
	if err := s.scheduler.SchedulePublish(ctx, post); err != nil {
		slog.Warn("failed to enqueue publish task", "post_id", post.ID, "error", err)
	}
}
