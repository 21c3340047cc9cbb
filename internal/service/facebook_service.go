package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/telemetry"
	"github.com/maheshrc27/postflow/internal/transfer"
	"go.uber.org/ratelimit"
)

type FacebookService interface {
	// AttachMedia uploads each URL as an unpublished photo and returns the
	// media ids of the uploads that succeeded. Failures are logged and skipped.
	AttachMedia(ctx context.Context, cred *models.Credential, mediaURLs []string) []string
	// Publish posts message to the page feed and returns the remote post id.
	// Every error it returns is a *PublishError.
	Publish(ctx context.Context, cred *models.Credential, message string, mediaIDs []string) (string, error)
}

type facebookService struct {
	graphURL string
	client   *http.Client
	limiter  ratelimit.Limiter
	media    MediaURLResolver
}

func NewFacebookService(cfg config.Facebook, media MediaURLResolver) FacebookService {
	limiter := ratelimit.NewUnlimited()
	if cfg.RateLimit > 0 {
		limiter = ratelimit.New(cfg.RateLimit)
	}
	if media == nil {
		media = passthroughResolver{}
	}

	return &facebookService{
		graphURL: strings.TrimRight(cfg.GraphURL, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  limiter,
		media:    media,
	}
}

func (fb *facebookService) AttachMedia(ctx context.Context, cred *models.Credential, mediaURLs []string) []string {
	mediaIDs := make([]string, 0, len(mediaURLs))

	for _, rawURL := range mediaURLs {
		id, err := fb.uploadPhoto(ctx, cred, rawURL)
		if err != nil {
			telemetry.MediaUploadFailures.Inc()
			slog.Warn("skipping media upload", "business_id", cred.BusinessID, "url", rawURL, "error", err)
			continue
		}
		mediaIDs = append(mediaIDs, id)
	}

	return mediaIDs
}

func (fb *facebookService) uploadPhoto(ctx context.Context, cred *models.Credential, rawURL string) (string, error) {
	imageURL, err := fb.media.ResolveMediaURL(ctx, rawURL)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("url", imageURL)
	params.Set("published", "false")
	params.Set("access_token", cred.AccessToken)
	endpoint := fmt.Sprintf("%s/%s/photos?%s", fb.graphURL, url.PathEscape(cred.PageID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", err
	}

	status, data, err := fb.do(req)
	if err != nil {
		return "", err
	}
	if data.Error != nil {
		return "", &PublishError{Kind: KindPlatformRejected, Message: data.Error.Message, Type: data.Error.Type,
			Code: data.Error.Code, Subcode: data.Error.ErrorSubcode}
	}
	if status < 200 || status > 299 {
		return "", &PublishError{Kind: KindPlatformRejected, StatusCode: status, StatusText: http.StatusText(status)}
	}
	if data.ID == "" {
		return "", fmt.Errorf("photo upload response has no id")
	}

	return data.ID, nil
}

func (fb *facebookService) Publish(ctx context.Context, cred *models.Credential, message string, mediaIDs []string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", newPublishError(KindEmptyContent, "Post content is empty")
	}
	if cred == nil || strings.TrimSpace(cred.PageID) == "" {
		return "", newPublishError(KindMissingPageID, "Facebook page ID is missing")
	}
	if strings.TrimSpace(cred.AccessToken) == "" {
		return "", newPublishError(KindMissingToken, "Facebook access token is missing")
	}

	feed := transfer.FacebookFeedRequest{
		Message:     message,
		AccessToken: cred.AccessToken,
	}
	for _, id := range mediaIDs {
		feed.AttachedMedia = append(feed.AttachedMedia, transfer.AttachedMedia{MediaFbid: id})
	}

	body, err := json.Marshal(feed)
	if err != nil {
		return "", &PublishError{Kind: KindTransport, Cause: err}
	}

	endpoint := fmt.Sprintf("%s/%s/feed", fb.graphURL, url.PathEscape(cred.PageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &PublishError{Kind: KindTransport, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	status, data, err := fb.do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", &PublishError{Kind: KindTransport, Cause: err}
	}

	if data.Error != nil {
		pe := &PublishError{
			Kind:    KindPlatformRejected,
			Message: data.Error.Message,
			Type:    data.Error.Type,
			Code:    data.Error.Code,
			Subcode: data.Error.ErrorSubcode,
		}
		// Media posts report the trace id; text posts report the user facing title.
		if len(mediaIDs) > 0 {
			pe.TraceID = data.Error.FbtraceID
		} else {
			pe.UserTitle = data.Error.ErrorUserTitle
			pe.UserMsg = data.Error.ErrorUserMsg
		}
		slog.Info("facebook rejected post", "page_id", cred.PageID, "error", pe.Error(), "fbtrace_id", data.Error.FbtraceID)
		return "", pe
	}
	if status < 200 || status > 299 {
		pe := &PublishError{Kind: KindPlatformRejected, StatusCode: status, StatusText: http.StatusText(status)}
		slog.Info(pe.Error())
		return "", pe
	}

	slog.Info("published to facebook", "page_id", cred.PageID, "remote_id", data.ID, "media", len(mediaIDs))
	return data.ID, nil
}

// do sends req through the shared limiter. A body that is not JSON is
// returned as an empty response so the caller can fall back on the status.
func (fb *facebookService) do(req *http.Request) (int, *transfer.FacebookResponse, error) {
	fb.limiter.Take()

	resp, err := fb.client.Do(req)
	if err != nil {
		// The request URL may carry the access token.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return 0, nil, urlErr.Err
		}
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	var data transfer.FacebookResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			slog.Debug("facebook response is not JSON", "status", resp.StatusCode)
		}
	}

	return resp.StatusCode, &data, nil
}
