package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/maheshrc27/postflow/pkg/utils"
)

type ConnectionService interface {
	Save(ctx context.Context, userID, businessID string, req *transfer.FacebookConnectionUpdate) (*models.FacebookConnection, error)
	Remove(ctx context.Context, userID, businessID string) error
}

type connectionService struct {
	secretKey []byte
	fc        repository.FacebookConnectionRepository
}

func NewConnectionService(secretKey string, fc repository.FacebookConnectionRepository) ConnectionService {
	return &connectionService{
		secretKey: []byte(secretKey),
		fc:        fc,
	}
}

// Save stores the page token obtained by the login flow, encrypted at rest.
func (s *connectionService) Save(ctx context.Context, userID, businessID string, req *transfer.FacebookConnectionUpdate) (*models.FacebookConnection, error) {
	if req == nil || strings.TrimSpace(req.AccessToken) == "" {
		return nil, invalidInput("access_token is required")
	}
	if strings.TrimSpace(req.PageID) == "" {
		return nil, invalidInput("page_id is required")
	}

	existing, err := s.fc.GetByBusinessID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("error loading facebook connection: %w", err)
	}
	if existing != nil && existing.UserID != userID {
		return nil, ErrNotFound
	}

	encryptedToken, err := utils.Encrypt([]byte(req.AccessToken), s.secretKey)
	if err != nil {
		return nil, err
	}

	conn := &models.FacebookConnection{
		BusinessID:  businessID,
		UserID:      userID,
		AccessToken: encryptedToken,
		PageID:      req.PageID,
		PageName:    req.PageName,
		ConnectedAt: time.Now().UTC(),
		ExpiresAt:   tokenExpiry(req.ExpiresIn),
	}

	if err := s.fc.Save(ctx, conn); err != nil {
		return nil, fmt.Errorf("error saving facebook connection: %w", err)
	}
	return conn, nil
}

func (s *connectionService) Remove(ctx context.Context, userID, businessID string) error {
	existing, err := s.fc.GetByBusinessID(ctx, businessID)
	if err != nil {
		return fmt.Errorf("error loading facebook connection: %w", err)
	}
	if existing == nil || existing.UserID != userID {
		return ErrNotFound
	}

	if err := s.fc.Remove(ctx, businessID); err != nil {
		return fmt.Errorf("error removing facebook connection: %w", err)
	}
	return nil
}

// tokenExpiry converts a Graph API expires_in into an absolute time.
// Long-lived page tokens report 0 and never expire.
func tokenExpiry(expiresIn int) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	t := time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
	return &t
}
