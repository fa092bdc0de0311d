package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"pantry-hub/internal/imagestore"
	"pantry-hub/internal/metrics"
	"pantry-hub/internal/model"

	"github.com/rs/zerolog"
)

// imageAttacher uploads images and keeps the store consistent with the
// database: an upload whose record update fails is deleted again, and a
// replaced image is deleted after the update commits.
type imageAttacher struct {
	store   imagestore.Store
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// attach uploads localPath and hands the result to persist, which stores it
// and returns the image it replaced. localPath is always removed.
func (a imageAttacher) attach(ctx context.Context, localPath string, persist func(img *model.Image) (*model.Image, error)) error {
	defer func() {
		if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn().Err(err).Str("path", localPath).Msg("failed to remove temporary upload")
		}
	}()

	img, err := a.store.Upload(ctx, localPath)
	if err != nil {
		if _, ok := model.AsDomainError(err); ok {
			return err
		}
		if !errors.Is(err, imagestore.ErrNotConfigured) {
			a.metrics.UpstreamFailure("imagestore")
		}
		return fmt.Errorf("%w: %v", model.ErrUpstreamFailure, err)
	}

	old, err := persist(img)
	if err != nil {
		a.discard(ctx, img)
		return err
	}
	a.discard(ctx, old)
	return nil
}

// discard deletes a stored image, logging failures.
func (a imageAttacher) discard(ctx context.Context, img *model.Image) {
	if img == nil || img.ID == "" {
		return
	}
	if err := a.store.Delete(ctx, img.ID); err != nil {
		a.metrics.UpstreamFailure("imagestore")
		a.logger.Warn().Err(err).Str("image_id", img.ID).Msg("failed to delete stored image")
	}
}

func removeQuietly(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
