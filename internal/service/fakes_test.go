package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/maheshrc27/postflow/pkg/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type memoryPostRepository struct {
	mu    sync.Mutex
	posts map[string]*models.Post
}

func newMemoryPostRepository(posts ...*models.Post) *memoryPostRepository {
	r := &memoryPostRepository{posts: make(map[string]*models.Post)}
	for _, p := range posts {
		r.posts[p.ID] = clonePost(p)
	}
	return r
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.MediaURLs = slices.Clone(p.MediaURLs)
	return &c
}

func (r *memoryPostRepository) get(id string) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[id]; ok {
		return clonePost(p)
	}
	return nil
}

func (r *memoryPostRepository) GetByID(_ context.Context, id string) (*models.Post, error) {
	return r.get(id), nil
}

func (r *memoryPostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *memoryPostRepository) ListByBusinessID(_ context.Context, businessID string) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool { return p.BusinessID == businessID }), nil
}

func (r *memoryPostRepository) ListByStatus(_ context.Context, status string) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool { return p.Status == status }), nil
}

func (r *memoryPostRepository) filter(keep func(*models.Post) bool) []*models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if keep(p) {
			out = append(out, clonePost(p))
		}
	}
	return out
}

func (r *memoryPostRepository) Claim(_ context.Context, id string, from ...string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || !slices.Contains(from, p.Status) {
		return false, nil
	}
	now := time.Now()
	p.Status = models.PostStatusPublishing
	p.ClaimedAt = &now
	return true, nil
}

func (r *memoryPostRepository) MarkPublished(_ context.Context, id, remotePostID string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != models.PostStatusPublishing {
		return repository.ErrPostNotClaimed
	}
	p.Status = models.PostStatusPublished
	p.PublishedDate = &publishedAt
	p.RemotePostID = remotePostID
	p.FailureReason = ""
	p.ClaimedAt = nil
	return nil
}

func (r *memoryPostRepository) MarkFailed(_ context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != models.PostStatusPublishing {
		return repository.ErrPostNotClaimed
	}
	p.Status = models.PostStatusFailed
	p.FailureReason = reason
	p.PublishedDate = nil
	p.ClaimedAt = nil
	return nil
}

func (r *memoryPostRepository) Reschedule(_ context.Context, id string, scheduledDate time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	switch p.Status {
	case models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusFailed:
	default:
		return false, nil
	}
	p.Status = models.PostStatusScheduled
	p.ScheduledDate = &scheduledDate
	p.FailureReason = ""
	return true, nil
}

func (r *memoryPostRepository) FailStaleClaims(_ context.Context, claimedBefore time.Time, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.posts {
		if p.Status == models.PostStatusPublishing && p.ClaimedAt != nil && p.ClaimedAt.Before(claimedBefore) {
			p.Status = models.PostStatusFailed
			p.FailureReason = reason
			p.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

type memoryConnectionRepository struct {
	mu    sync.Mutex
	conns map[string]*models.FacebookConnection
}

func newMemoryConnectionRepository() *memoryConnectionRepository {
	return &memoryConnectionRepository{conns: make(map[string]*models.FacebookConnection)}
}

func (r *memoryConnectionRepository) GetByBusinessID(_ context.Context, businessID string) (*models.FacebookConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[businessID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryConnectionRepository) Save(_ context.Context, conn *models.FacebookConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *conn
	r.conns[conn.BusinessID] = &cp
	return nil
}

func (r *memoryConnectionRepository) Remove(_ context.Context, businessID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, businessID)
	return nil
}

// connect stores an encrypted token for businessID the way ConnectionService does.
func (r *memoryConnectionRepository) connect(t *testing.T, businessID, token, pageID string) {
	t.Helper()
	sealed := ""
	if token != "" {
		var err error
		sealed, err = utils.Encrypt([]byte(token), []byte(testSecret))
		require.NoError(t, err)
	}
	require.NoError(t, r.Save(context.Background(), &models.FacebookConnection{
		BusinessID:  businessID,
		UserID:      "user-1",
		AccessToken: sealed,
		PageID:      pageID,
		ConnectedAt: time.Now(),
	}))
}

// fakeGraph stands in for the Graph API photos and feed endpoints.
type fakeGraph struct {
	mu            sync.Mutex
	photoCalls    int
	feeds         []transfer.FacebookFeedRequest
	failPhotoURLs map[string]bool
	feedStatus    int
	feedBody      string
	feedDelay     time.Duration
}

func (g *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/photos"):
		g.mu.Lock()
		g.photoCalls++
		n := g.photoCalls
		fail := g.failPhotoURLs[r.URL.Query().Get("url")]
		g.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"Invalid image","type":"OAuthException","code":324}}`)
			return
		}
		fmt.Fprintf(w, `{"id":"photo-%d"}`, n)

	case strings.HasSuffix(r.URL.Path, "/feed"):
		var body transfer.FacebookFeedRequest
		_ = json.NewDecoder(r.Body).Decode(&body)

		if g.feedDelay > 0 {
			time.Sleep(g.feedDelay)
		}

		g.mu.Lock()
		g.feeds = append(g.feeds, body)
		n := len(g.feeds)
		status, resp := g.feedStatus, g.feedBody
		g.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			fmt.Fprint(w, resp)
			return
		}
		fmt.Fprintf(w, `{"id":"page_post-%d"}`, n)

	default:
		http.NotFound(w, r)
	}
}

func (g *fakeGraph) feedCalls() []transfer.FacebookFeedRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.feeds)
}

func (g *fakeGraph) photos() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.photoCalls
}

func newTestFacebookService(t *testing.T, g *fakeGraph) FacebookService {
	t.Helper()
	server := httptest.NewServer(g)
	t.Cleanup(server.Close)
	return NewFacebookService(config.Facebook{GraphURL: server.URL, Timeout: 5 * time.Second}, nil)
}

type mockCredentialService struct {
	mock.Mock
}

func (m *mockCredentialService) Resolve(ctx context.Context, businessID string) (*models.Credential, error) {
	args := m.Called(ctx, businessID)
	cred, _ := args.Get(0).(*models.Credential)
	return cred, args.Error(1)
}

type mockPublishScheduler struct {
	mock.Mock
}

func (m *mockPublishScheduler) SchedulePublish(ctx context.Context, post *models.Post) error {
	return m.Called(ctx, post).Error(0)
}

type mockMediaStore struct {
	mock.Mock
}

func (m *mockMediaStore) UploadToR2(ctx context.Context, key string, file []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, file, contentType)
	return args.String(0), args.Error(1)
}
