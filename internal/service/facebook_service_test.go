package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCred = &models.Credential{BusinessID: "biz-1", AccessToken: "page-token", PageID: "page-1"}

func TestPublishPreconditions(t *testing.T) {
	graph := &fakeGraph{}
	fb := newTestFacebookService(t, graph)
	ctx := context.Background()

	tests := []struct {
		name    string
		cred    *models.Credential
		message string
		kind    PublishErrorKind
		want    string
	}{
		{"blank message", testCred, "   ", KindEmptyContent, "Post content is empty"},
		{"blank page id", &models.Credential{AccessToken: "t"}, "hello", KindMissingPageID, "Facebook page ID is missing"},
		{"blank token", &models.Credential{PageID: "p"}, "hello", KindMissingToken, "Facebook access token is missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fb.Publish(ctx, tt.cred, tt.message, nil)
			require.Error(t, err)

			kind, ok := ErrorKind(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.want, err.Error())
		})
	}

	assert.Empty(t, graph.feedCalls(), "no network call before preconditions pass")
}

func TestAttachMediaSkipsFailedUpload(t *testing.T) {
	graph := &fakeGraph{failPhotoURLs: map[string]bool{"https://cdn.example.com/2.jpg": true}}
	fb := newTestFacebookService(t, graph)
	ctx := context.Background()

	ids := fb.AttachMedia(ctx, testCred, []string{
		"https://cdn.example.com/1.jpg",
		"https://cdn.example.com/2.jpg",
		"https://cdn.example.com/3.jpg",
	})
	assert.Len(t, ids, 2)
	assert.Equal(t, 3, graph.photos())

	remoteID, err := fb.Publish(ctx, testCred, "with photos", ids)
	require.NoError(t, err)
	assert.Equal(t, "page_post-1", remoteID)

	feeds := graph.feedCalls()
	require.Len(t, feeds, 1)
	require.Len(t, feeds[0].AttachedMedia, 2)
	assert.Equal(t, ids[0], feeds[0].AttachedMedia[0].MediaFbid)
	assert.Equal(t, ids[1], feeds[0].AttachedMedia[1].MediaFbid)
}

func TestPublishFallsBackToText(t *testing.T) {
	graph := &fakeGraph{failPhotoURLs: map[string]bool{
		"https://cdn.example.com/1.jpg": true,
		"https://cdn.example.com/2.jpg": true,
	}}
	fb := newTestFacebookService(t, graph)
	ctx := context.Background()

	ids := fb.AttachMedia(ctx, testCred, []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"})
	assert.Empty(t, ids)

	_, err := fb.Publish(ctx, testCred, "text only", ids)
	require.NoError(t, err)

	feeds := graph.feedCalls()
	require.Len(t, feeds, 1)
	assert.Empty(t, feeds[0].AttachedMedia)
	assert.Equal(t, "text only", feeds[0].Message)
}

func TestPublishTrimsMessage(t *testing.T) {
	graph := &fakeGraph{}
	fb := newTestFacebookService(t, graph)

	_, err := fb.Publish(context.Background(), testCred, "  hello page \n", nil)
	require.NoError(t, err)

	feeds := graph.feedCalls()
	require.Len(t, feeds, 1)
	assert.Equal(t, "hello page", feeds[0].Message)
	assert.Equal(t, "page-token", feeds[0].AccessToken)
}

func TestPublishPlatformError(t *testing.T) {
	graph := &fakeGraph{
		feedStatus: http.StatusBadRequest,
		feedBody:   `{"error":{"message":"Invalid OAuth","type":"OAuthException","code":190}}`,
	}
	fb := newTestFacebookService(t, graph)

	_, err := fb.Publish(context.Background(), testCred, "hello", nil)
	require.Error(t, err)

	kind, _ := ErrorKind(err)
	assert.Equal(t, KindPlatformRejected, kind)

	msg := err.Error()
	iMsg := strings.Index(msg, "Invalid OAuth")
	iType := strings.Index(msg, "OAuthException")
	iCode := strings.Index(msg, "190")
	assert.True(t, iMsg >= 0 && iType > iMsg && iCode > iType, "unexpected order in %q", msg)
}

func TestPublishErrorBodyOn2xx(t *testing.T) {
	graph := &fakeGraph{
		feedStatus: http.StatusOK,
		feedBody:   `{"error":{"message":"Duplicate status message","type":"OAuthException","code":506}}`,
	}
	fb := newTestFacebookService(t, graph)

	_, err := fb.Publish(context.Background(), testCred, "hello", nil)
	require.Error(t, err)
	assert.Equal(t, "Duplicate status message (Type: OAuthException) (Code: 506)", err.Error())
}

func TestPublishErrorTraceIDOnMediaPosts(t *testing.T) {
	graph := &fakeGraph{
		feedStatus: http.StatusBadRequest,
		feedBody: `{"error":{"message":"Invalid parameter","type":"OAuthException","code":100,` +
			`"error_user_title":"Bad media","error_user_msg":"Try again","fbtrace_id":"AbCdEf123"}}`,
	}
	fb := newTestFacebookService(t, graph)

	_, err := fb.Publish(context.Background(), testCred, "hello", []string{"photo-1"})
	require.Error(t, err)
	assert.Equal(t, "Invalid parameter (Type: OAuthException) (Code: 100) (Trace ID: AbCdEf123)", err.Error())

	_, err = fb.Publish(context.Background(), testCred, "hello", nil)
	require.Error(t, err)
	assert.Equal(t, "Invalid parameter (Type: OAuthException) (Code: 100) - Bad media: Try again", err.Error())
}

func TestPublishHTTPErrorWithoutBody(t *testing.T) {
	graph := &fakeGraph{feedStatus: http.StatusServiceUnavailable, feedBody: "upstream down"}
	fb := newTestFacebookService(t, graph)

	_, err := fb.Publish(context.Background(), testCred, "hello", nil)
	require.Error(t, err)
	assert.Equal(t, "HTTP 503: Service Unavailable", err.Error())
}

func TestPublishTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	graphURL := server.URL
	server.Close()

	fb := NewFacebookService(config.Facebook{GraphURL: graphURL, Timeout: time.Second}, nil)

	_, err := fb.Publish(context.Background(), testCred, "hello", nil)
	require.Error(t, err)

	kind, _ := ErrorKind(err)
	assert.Equal(t, KindTransport, kind)
	assert.True(t, strings.HasPrefix(err.Error(), "Failed to publish to Facebook: "))
	assert.NotContains(t, err.Error(), "page-token")
}

func TestAttachMediaR2WithoutStorage(t *testing.T) {
	graph := &fakeGraph{}
	fb := newTestFacebookService(t, graph)

	ids := fb.AttachMedia(context.Background(), testCred, []string{"r2://user-1/a.png"})
	assert.Empty(t, ids)
	assert.Zero(t, graph.photos())
}
