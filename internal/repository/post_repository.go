package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postflow/internal/models"
)

// ErrPostNotClaimed is returned by status updates that expect a claimed post
// but find it in another state.
var ErrPostNotClaimed = errors.New("post is not claimed for publishing")

type PostRepository interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	ListByBusinessID(ctx context.Context, businessID string) ([]*models.Post, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Post, error)
	// Claim moves the post to publishing only if its current status is one of from.
	// It reports whether this caller won the claim.
	Claim(ctx context.Context, id string, from ...string) (bool, error)
	MarkPublished(ctx context.Context, id, remotePostID string, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id, reason string) error
	Reschedule(ctx context.Context, id string, scheduledDate time.Time) (bool, error)
	FailStaleClaims(ctx context.Context, claimedBefore time.Time, reason string) (int64, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, business_id, campaign_id, content, platform, status, scheduled_date,
	published_date, failure_reason, remote_post_id, media_urls, ai_generated, claimed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var campaignID, failureReason, remotePostID sql.NullString
	var scheduledDate, publishedDate, claimedAt sql.NullTime

	err := row.Scan(&post.ID, &post.UserID, &post.BusinessID, &campaignID, &post.Content, &post.Platform,
		&post.Status, &scheduledDate, &publishedDate, &failureReason, &remotePostID,
		pq.Array(&post.MediaURLs), &post.AIGenerated, &claimedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.CampaignID = campaignID.String
	post.FailureReason = failureReason.String
	post.RemotePostID = remotePostID.String
	post.ScheduledDate = timePtr(scheduledDate)
	post.PublishedDate = timePtr(publishedDate)
	post.ClaimedAt = timePtr(claimedAt)
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}

	query := `
		INSERT INTO posts (id, user_id, business_id, campaign_id, content, platform, status, scheduled_date, media_urls, ai_generated)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, post.ID, post.UserID, post.BusinessID, post.CampaignID, post.Content,
		post.Platform, post.Status, post.ScheduledDate, pq.Array(post.MediaURLs), post.AIGenerated).
		Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) ListByBusinessID(ctx context.Context, businessID string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE business_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, businessID)
}

func (r *postRepository) ListByStatus(ctx context.Context, status string) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1`
	return r.list(ctx, query, status)
}

func (r *postRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) Claim(ctx context.Context, id string, from ...string) (bool, error) {
	query := `
		UPDATE posts
		SET status = $2,
			claimed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`
	result, err := r.db.ExecContext(ctx, query, id, models.PostStatusPublishing, pq.Array(from))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) MarkPublished(ctx context.Context, id, remotePostID string, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $2,
			published_date = $3,
			remote_post_id = NULLIF($4, ''),
			failure_reason = NULL,
			claimed_at = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = $5
	`
	return r.finish(ctx, query, id, models.PostStatusPublished, publishedAt, remotePostID, models.PostStatusPublishing)
}

func (r *postRepository) MarkFailed(ctx context.Context, id, reason string) error {
	query := `
		UPDATE posts
		SET status = $2,
			failure_reason = $3,
			published_date = NULL,
			claimed_at = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = $4
	`
	return r.finish(ctx, query, id, models.PostStatusFailed, reason, models.PostStatusPublishing)
}

func (r *postRepository) finish(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrPostNotClaimed
	}
	return nil
}

func (r *postRepository) Reschedule(ctx context.Context, id string, scheduledDate time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $2,
			scheduled_date = $3,
			failure_reason = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($4)
	`
	result, err := r.db.ExecContext(ctx, query, id, models.PostStatusScheduled, scheduledDate,
		pq.Array([]string{models.PostStatusDraft, models.PostStatusScheduled, models.PostStatusFailed}))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) FailStaleClaims(ctx context.Context, claimedBefore time.Time, reason string) (int64, error) {
	query := `
		UPDATE posts
		SET status = $1,
			failure_reason = $2,
			claimed_at = NULL,
			updated_at = NOW()
		WHERE status = $3 AND claimed_at < $4
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, reason, models.PostStatusPublishing, claimedBefore)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return result.RowsAffected()
}

func timePtr(t sql.NullTime) *time.Time {
	if t.Valid {
		return &t.Time
	}
	return nil
}
