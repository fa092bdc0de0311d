// Package imagestore keeps uploaded food and meal images in object storage.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"pantry-hub/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned by the store used when uploads are disabled.
var ErrNotConfigured = errors.New("image storage is not configured")

// Store uploads and deletes images.
type Store interface {
	// Upload stores the file at localPath and returns its public reference.
	Upload(ctx context.Context, localPath string) (*model.Image, error)

	// Delete removes a stored image by id.
	Delete(ctx context.Context, id string) error
}

// s3API is the subset of the S3 client used here.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Store struct {
	client  s3API
	bucket  string
	prefix  string
	baseURL string
	logger  zerolog.Logger
}

// NewS3Store creates an S3-backed store. When publicBaseURL is empty, object
// URLs use the virtual-hosted bucket endpoint.
func NewS3Store(ctx context.Context, bucket, region, prefix, publicBaseURL string, logger zerolog.Logger) (Store, error) {
	logger = logger.With().Str("component", "s3-image-store").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 image store initialised")

	return newS3Store(s3.NewFromConfig(cfg), bucket, prefix, publicBaseURL, logger), nil
}

func newS3Store(client s3API, bucket, prefix, baseURL string, logger zerolog.Logger) *s3Store {
	return &s3Store{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// Upload stores the file under a fresh key.
func (s *s3Store) Upload(ctx context.Context, localPath string) (*model.Image, error) {
	mtype, err := detectImage(localPath)
	if err != nil {
		return nil, err
	}
	contentType := mtype.String()

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	key := s.prefix + uuid.NewString() + mtype.Extension()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to upload image")
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	s.logger.Debug().Str("key", key).Str("content_type", contentType).Msg("image uploaded")
	return &model.Image{URL: s.baseURL + "/" + key, ID: key}, nil
}

// Delete removes the object with key id.
func (s *s3Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", id).Msg("failed to delete image")
		return fmt.Errorf("failed to delete image: %w", err)
	}

	s.logger.Debug().Str("key", id).Msg("image deleted")
	return nil
}

// detectImage sniffs the file content; the extension of localPath is ignored.
func detectImage(localPath string) (*mimetype.MIME, error) {
	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, model.Validation(model.ErrCodeInvalidInput, "Uploaded file is not an image")
	}
	return mtype, nil
}

type disabledStore struct{}

// NewDisabledStore returns a Store that rejects every call.
func NewDisabledStore() Store {
	return disabledStore{}
}

func (disabledStore) Upload(context.Context, string) (*model.Image, error) {
	return nil, ErrNotConfigured
}

func (disabledStore) Delete(context.Context, string) error {
	return nil
}
