package service

import (
	"context"
	"fmt"

	"pantry-hub/internal/model"
	"pantry-hub/internal/ownership"
	"pantry-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// checkFoodRefs requires every set reference to name a food item visible
// through filter. Repeated ids are allowed.
func checkFoodRefs(ctx context.Context, repo repository.FoodItemRepository, filter ownership.Filter, logger zerolog.Logger, refs ...*uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(refs))
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		if ref == nil {
			continue
		}
		if _, ok := seen[*ref]; ok {
			continue
		}
		seen[*ref] = struct{}{}
		ids = append(ids, *ref)
	}
	if len(ids) == 0 {
		return nil
	}

	count, err := repo.CountVisible(ctx, ids, filter)
	if err != nil {
		logger.Error().Err(err).Int("requested", len(ids)).Msg("failed to validate food item references")
		return fmt.Errorf("failed to validate food item references: %w", err)
	}
	if count != len(ids) {
		logger.Debug().
			Int("requested", len(ids)).
			Int("found", count).
			Msg("rejected invalid food item references")
		return model.ErrInvalidFoodItemReference
	}
	return nil
}
