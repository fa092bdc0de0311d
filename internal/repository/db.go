package repository

import (
	"context"
	"errors"
	"fmt"

	"pantry-hub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// rowScanner is implemented by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// beginTx starts a transaction on the pool.
func beginTx(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (pgx.Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func locationsToStrings(locs []model.Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = string(l)
	}
	return out
}

func stringsToLocations(ss []string) []model.Location {
	out := make([]model.Location, len(ss))
	for i, s := range ss {
		out[i] = model.Location(s)
	}
	return out
}

func rolesToStrings(roles model.MealRoles) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func stringsToRoles(ss []string) model.MealRoles {
	out := make(model.MealRoles, len(ss))
	for i, s := range ss {
		out[i] = model.MealRole(s)
	}
	return out
}

func imageColumns(img *model.Image) (url, id *string) {
	if img == nil {
		return nil, nil
	}
	return &img.URL, &img.ID
}

func imageFromColumns(url, id *string) *model.Image {
	if url == nil || *url == "" {
		return nil
	}
	img := &model.Image{URL: *url}
	if id != nil {
		img.ID = *id
	}
	return img
}

func nonNilStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
