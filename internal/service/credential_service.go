package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/pkg/utils"
)

type CredentialService interface {
	Resolve(ctx context.Context, businessID string) (*models.Credential, error)
}

type credentialService struct {
	secretKey []byte
	fc        repository.FacebookConnectionRepository
}

func NewCredentialService(secretKey string, fc repository.FacebookConnectionRepository) CredentialService {
	return &credentialService{
		secretKey: []byte(secretKey),
		fc:        fc,
	}
}

// Resolve reads the business's Facebook connection on every call and
// returns the decrypted token with the page id. A missing or incomplete
// connection is reported as a KindNotConnected *PublishError.
func (s *credentialService) Resolve(ctx context.Context, businessID string) (*models.Credential, error) {
	conn, err := s.fc.GetByBusinessID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load facebook connection for business %s: %w", businessID, err)
	}

	if conn == nil {
		return nil, newPublishError(KindNotConnected, "No Facebook connection found for business %s", businessID)
	}
	if strings.TrimSpace(conn.AccessToken) == "" {
		return nil, newPublishError(KindNotConnected, "Facebook connection exists but no access token for business %s", businessID)
	}
	if strings.TrimSpace(conn.PageID) == "" {
		return nil, newPublishError(KindNotConnected, "No page ID found for business %s", businessID)
	}

	token, err := utils.Decrypt(conn.AccessToken, s.secretKey)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decrypt facebook token for business %s: %w", businessID, err)
	}

	return &models.Credential{
		BusinessID:  businessID,
		AccessToken: token,
		PageID:      conn.PageID,
	}, nil
}
