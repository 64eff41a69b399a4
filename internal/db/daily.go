package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

// the daily state table holds at most this one row
const dailyStateID = 1

type dailyStateRow struct {
	Date      string `db:"date"`
	Fajr      string `db:"fajr"`
	Dhuhr     string `db:"dhuhr"`
	Asr       string `db:"asr"`
	Maghrib   string `db:"maghrib"`
	Isha      string `db:"isha"`
	UpdatedAt string `db:"updated_at"`
}

// returns the row, or nil when nothing has been recorded yet.
func (s *sqlStore) GetCurrent(ctx context.Context) (*model.DailyPrayerState, error) {
	var row dailyStateRow
	query := s.ext.Rebind(`
	SELECT date, fajr, dhuhr, asr, maghrib, isha, updated_at
	FROM daily_prayer_state
	WHERE id = ?`)

	err := sqlx.GetContext(ctx, s.ext, &row, query, dailyStateID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to get daily prayer state")
		return nil, fmt.Errorf("get daily state: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get daily state: parse updated_at: %w", err)
	}

	return &model.DailyPrayerState{
		Date:      model.Date(row.Date),
		Fajr:      model.PrayerStatus(row.Fajr),
		Dhuhr:     model.PrayerStatus(row.Dhuhr),
		Asr:       model.PrayerStatus(row.Asr),
		Maghrib:   model.PrayerStatus(row.Maghrib),
		Isha:      model.PrayerStatus(row.Isha),
		UpdatedAt: updatedAt,
	}, nil
}

// creates the row with every other prayer upcoming, or updates only the
// given prayer, the date and updated_at.
func (s *sqlStore) Upsert(ctx context.Context, date model.Date, prayer model.PrayerName, status model.PrayerStatus) error {
	// the column name is interpolated below, so it must come from the fixed set
	if _, err := model.ParsePrayerName(string(prayer)); err != nil {
		return fmt.Errorf("upsert daily state: %w", err)
	}
	if _, err := model.ParsePrayerStatus(string(status)); err != nil {
		return fmt.Errorf("upsert daily state: %w", err)
	}

	fresh := model.NewDailyPrayerState(date, s.now())
	fresh.Set(prayer, status)

	query := s.ext.Rebind(fmt.Sprintf(`
	INSERT INTO daily_prayer_state (id, date, fajr, dhuhr, asr, maghrib, isha, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET date = excluded.date,
	%[1]s = excluded.%[1]s,
	updated_at = excluded.updated_at`, prayer))

	_, err := s.ext.ExecContext(ctx, query,
		dailyStateID,
		string(date),
		string(fresh.Fajr),
		string(fresh.Dhuhr),
		string(fresh.Asr),
		string(fresh.Maghrib),
		string(fresh.Isha),
		s.timestamp(),
	)
	if err != nil {
		log.Error().Err(err).Str("prayer", string(prayer)).Msg("failed to upsert daily prayer state")
		return fmt.Errorf("upsert daily state: %w", err)
	}
	return nil
}

// forces every prayer back to upcoming for date, in place.
func (s *sqlStore) Reset(ctx context.Context, date model.Date) error {
	query := s.ext.Rebind(`
	INSERT INTO daily_prayer_state (id, date, fajr, dhuhr, asr, maghrib, isha, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET date = excluded.date,
	fajr = excluded.fajr,
	dhuhr = excluded.dhuhr,
	asr = excluded.asr,
	maghrib = excluded.maghrib,
	isha = excluded.isha,
	updated_at = excluded.updated_at`)

	upcoming := string(model.Upcoming)
	_, err := s.ext.ExecContext(ctx, query,
		dailyStateID, string(date),
		upcoming, upcoming, upcoming, upcoming, upcoming,
		s.timestamp(),
	)
	if err != nil {
		log.Error().Err(err).Str("date", string(date)).Msg("failed to reset daily prayer state")
		return fmt.Errorf("reset daily state: %w", err)
	}
	return nil
}
