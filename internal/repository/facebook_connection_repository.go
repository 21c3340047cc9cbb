package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postflow/internal/models"
)

type FacebookConnectionRepository interface {
	GetByBusinessID(ctx context.Context, businessID string) (*models.FacebookConnection, error)
	Save(ctx context.Context, conn *models.FacebookConnection) error
	Remove(ctx context.Context, businessID string) error
}

type facebookConnectionRepository struct {
	db *sql.DB
}

func NewFacebookConnectionRepository(db *sql.DB) FacebookConnectionRepository {
	return &facebookConnectionRepository{db: db}
}

func (r *facebookConnectionRepository) GetByBusinessID(ctx context.Context, businessID string) (*models.FacebookConnection, error) {
	query := `
		SELECT business_id, user_id, access_token, page_id, page_name, connected_at, expires_at
		FROM facebook_connections
		WHERE business_id = $1
	`

	var conn models.FacebookConnection
	var accessToken, pageID, pageName sql.NullString
	var expiresAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, businessID).Scan(&conn.BusinessID, &conn.UserID, &accessToken,
		&pageID, &pageName, &conn.ConnectedAt, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	conn.AccessToken = accessToken.String
	conn.PageID = pageID.String
	conn.PageName = pageName.String
	conn.ExpiresAt = timePtr(expiresAt)
	return &conn, nil
}

// Save upserts the connection for conn.BusinessID, replacing any previous token.
func (r *facebookConnectionRepository) Save(ctx context.Context, conn *models.FacebookConnection) error {
	query := `
		INSERT INTO facebook_connections (business_id, user_id, access_token, page_id, page_name, connected_at, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7)
		ON CONFLICT (business_id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
			access_token = EXCLUDED.access_token,
			page_id = EXCLUDED.page_id,
			page_name = EXCLUDED.page_name,
			connected_at = EXCLUDED.connected_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.ExecContext(ctx, query, conn.BusinessID, conn.UserID, conn.AccessToken, conn.PageID,
		conn.PageName, conn.ConnectedAt, conn.ExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *facebookConnectionRepository) Remove(ctx context.Context, businessID string) error {
	query := `DELETE FROM facebook_connections WHERE business_id = $1`
	_, err := r.db.ExecContext(ctx, query, businessID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
