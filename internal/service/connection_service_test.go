package service

import (
	"context"
	"testing"

	"github.com/maheshrc27/postflow/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionSaveEncryptsToken(t *testing.T) {
	conns := newMemoryConnectionRepository()
	svc := NewConnectionService(testSecret, conns)
	ctx := context.Background()

	conn, err := svc.Save(ctx, "user-1", "biz-1", &transfer.FacebookConnectionUpdate{
		AccessToken: "page-token", PageID: "page-1", PageName: "Corner Bakery", ExpiresIn: 3600,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "page-token", conn.AccessToken)
	assert.NotNil(t, conn.ExpiresAt)

	cred, err := NewCredentialService(testSecret, conns).Resolve(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "page-token", cred.AccessToken)
	assert.Equal(t, "page-1", cred.PageID)
}

func TestConnectionSaveValidation(t *testing.T) {
	svc := NewConnectionService(testSecret, newMemoryConnectionRepository())

	_, err := svc.Save(context.Background(), "user-1", "biz-1", &transfer.FacebookConnectionUpdate{PageID: "p"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Save(context.Background(), "user-1", "biz-1", &transfer.FacebookConnectionUpdate{AccessToken: "t"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestConnectionOwnership(t *testing.T) {
	conns := newMemoryConnectionRepository()
	conns.connect(t, "biz-1", "page-token", "page-1")
	svc := NewConnectionService(testSecret, conns)
	ctx := context.Background()

	_, err := svc.Save(ctx, "user-2", "biz-1", &transfer.FacebookConnectionUpdate{AccessToken: "t", PageID: "p"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Remove(ctx, "user-2", "biz-1"), ErrNotFound)
	require.NoError(t, svc.Remove(ctx, "user-1", "biz-1"))

	conn, err := conns.GetByBusinessID(ctx, "biz-1")
	require.NoError(t, err)
	assert.Nil(t, conn)
}
