package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

const lastResetDateKey = "last_reset_date"

func (s *sqlStore) LastResetDate(ctx context.Context) (model.Date, error) {
	var value string
	err := sqlx.GetContext(ctx, s.ext, &value,
		s.ext.Rebind(`SELECT value FROM tracking_meta WHERE key = ?`), lastResetDateKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to read last reset date")
		return "", fmt.Errorf("last reset date: %w", err)
	}
	return model.Date(value), nil
}

func (s *sqlStore) SetLastResetDate(ctx context.Context, date model.Date) error {
	query := s.ext.Rebind(`
	INSERT INTO tracking_meta (key, value)
	VALUES (?, ?)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value`)

	if _, err := s.ext.ExecContext(ctx, query, lastResetDateKey, string(date)); err != nil {
		log.Error().Err(err).Msg("failed to record last reset date")
		return fmt.Errorf("set last reset date: %w", err)
	}
	return nil
}
