package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/maheshrc27/postflow/configs"
)

// R2Scheme prefixes media URLs that point at an object in the configured bucket.
const R2Scheme = "r2://"

var ErrStorageNotConfigured = errors.New("object storage is not configured")

// MediaURLResolver turns a stored media URL into one the platform can fetch.
type MediaURLResolver interface {
	ResolveMediaURL(ctx context.Context, rawURL string) (string, error)
}

type R2Service struct {
	config  cfg.R2
	client  *s3.Client
	presign *s3.PresignClient
}

func NewR2Service(ctx context.Context, c cfg.R2) (*R2Service, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID))
	})

	return &R2Service{
		config:  c,
		client:  client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// UploadToR2 stores file under key and returns its r2:// URL.
func (r *R2Service) UploadToR2(ctx context.Context, key string, file []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return R2Scheme + key, nil
}

// ResolveMediaURL presigns r2:// URLs for a short GET window. Other URLs pass through.
func (r *R2Service) ResolveMediaURL(ctx context.Context, rawURL string) (string, error) {
	key, ok := strings.CutPrefix(rawURL, R2Scheme)
	if !ok {
		return rawURL, nil
	}
	if key == "" {
		return "", fmt.Errorf("empty object key in %q", rawURL)
	}

	ttl := r.config.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	req, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.config.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}

	return req.URL, nil
}

type passthroughResolver struct{}

func (passthroughResolver) ResolveMediaURL(_ context.Context, rawURL string) (string, error) {
	if strings.HasPrefix(rawURL, R2Scheme) {
		return "", ErrStorageNotConfigured
	}
	return rawURL, nil
}
