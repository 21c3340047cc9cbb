package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreatePostSchedulesTask(t *testing.T) {
	posts := newMemoryPostRepository()
	scheduler := &mockPublishScheduler{}
	scheduler.On("SchedulePublish", mock.Anything, mock.AnythingOfType("*models.Post")).Return(nil).Once()
	svc := NewPostService(posts, nil, scheduler)

	when := time.Now().Add(time.Hour)
	post, err := svc.CreatePost(context.Background(), "user-1", &transfer.PostCreation{
		BusinessID:    "biz-1",
		Content:       "Opening hours changed",
		ScheduledDate: &when,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.Equal(t, models.PlatformFacebook, post.Platform)
	assert.Equal(t, "user-1", posts.get(post.ID).UserID)
	scheduler.AssertExpectations(t)
}

func TestCreatePostDraftIsNotScheduled(t *testing.T) {
	scheduler := &mockPublishScheduler{}
	svc := NewPostService(newMemoryPostRepository(), nil, scheduler)

	post, err := svc.CreatePost(context.Background(), "user-1", &transfer.PostCreation{
		BusinessID: "biz-1",
		Content:    "Draft idea",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	scheduler.AssertNotCalled(t, "SchedulePublish", mock.Anything, mock.Anything)
}

func TestCreatePostValidation(t *testing.T) {
	svc := NewPostService(newMemoryPostRepository(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		pc   *transfer.PostCreation
	}{
		{"missing business", &transfer.PostCreation{Content: "x"}},
		{"empty content", &transfer.PostCreation{BusinessID: "b", Content: "  "}},
		{"scheduled without date", &transfer.PostCreation{BusinessID: "b", Content: "x", Status: models.PostStatusScheduled}},
		{"published status", &transfer.PostCreation{BusinessID: "b", Content: "x", Status: models.PostStatusPublished}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, "user-1", tt.pc)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRescheduleFailedPost(t *testing.T) {
	failed := scheduledPost("p1", "biz-1", at(-time.Hour))
	failed.Status = models.PostStatusFailed
	failed.FailureReason = "HTTP 500: Internal Server Error"
	published := scheduledPost("p2", "biz-1", at(-time.Hour))
	published.Status = models.PostStatusPublished
	posts := newMemoryPostRepository(failed, published)
	svc := NewPostService(posts, nil, nil)
	ctx := context.Background()

	when := time.Now().Add(time.Hour)
	post, err := svc.Reschedule(ctx, "user-1", "p1", &when)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.Empty(t, posts.get("p1").FailureReason)

	_, err = svc.Reschedule(ctx, "user-1", "p2", &when)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Reschedule(ctx, "someone-else", "p1", &when)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByOwner(t *testing.T) {
	mine := scheduledPost("mine", "biz-1", nil)
	theirs := scheduledPost("theirs", "biz-1", nil)
	theirs.UserID = "user-2"
	svc := NewPostService(newMemoryPostRepository(mine, theirs), nil, nil)

	posts, err := svc.List(context.Background(), "user-1", "biz-1")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "mine", posts[0].ID)
}

// pngHeader is enough for content sniffing.
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

func multipartFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestUploadMedia(t *testing.T) {
	store := &mockMediaStore{}
	store.On("UploadToR2", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > len("user-1/") && key[:len("user-1/")] == "user-1/"
	}), pngHeader, "image/png").Return("r2://user-1/abc.png", nil)
	svc := NewPostService(newMemoryPostRepository(), store, nil)

	url, err := svc.UploadMedia(context.Background(), "user-1", multipartFile(t, "a.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "r2://user-1/abc.png", url)
	store.AssertExpectations(t)
}

func TestUploadMediaRejectsNonImages(t *testing.T) {
	svc := NewPostService(newMemoryPostRepository(), &mockMediaStore{}, nil)

	_, err := svc.UploadMedia(context.Background(), "user-1", multipartFile(t, "notes.txt", []byte("plain text")))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUploadMediaWithoutStorage(t *testing.T) {
	svc := NewPostService(newMemoryPostRepository(), nil, nil)

	_, err := svc.UploadMedia(context.Background(), "user-1", multipartFile(t, "a.png", pngHeader))
	assert.True(t, errors.Is(err, ErrStorageNotConfigured))
}
