package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/canslim/internal/contracts"
	"github.com/wonny/canslim/pkg/database"
)

// postgresSchema creates screening_results
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS screening_results (
		ticker            VARCHAR(5) PRIMARY KEY,
		earnings_growth   DOUBLE PRECISION,
		relative_strength DOUBLE PRECISION,
		current_price     DOUBLE PRECISION,
		sma_50            DOUBLE PRECISION,
		is_above_sma      BOOLEAN,
		company_name      TEXT NOT NULL DEFAULT '',
		sector            TEXT NOT NULL DEFAULT '',
		industry          TEXT NOT NULL DEFAULT '',
		missing           TEXT[] NOT NULL DEFAULT '{}',
		fetch_errors      TEXT[] NOT NULL DEFAULT '{}',
		cached_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_screening_results_cached_at ON screening_results (cached_at)`,
}

const upsertResult = `
	INSERT INTO screening_results (
		ticker, earnings_growth, relative_strength, current_price, sma_50, is_above_sma,
		company_name, sector, industry, missing, fetch_errors, cached_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (ticker) DO UPDATE SET
		earnings_growth   = EXCLUDED.earnings_growth,
		relative_strength = EXCLUDED.relative_strength,
		current_price     = EXCLUDED.current_price,
		sma_50            = EXCLUDED.sma_50,
		is_above_sma      = EXCLUDED.is_above_sma,
		company_name      = EXCLUDED.company_name,
		sector            = EXCLUDED.sector,
		industry          = EXCLUDED.industry,
		missing           = EXCLUDED.missing,
		fetch_errors      = EXCLUDED.fetch_errors,
		cached_at         = EXCLUDED.cached_at`

const selectResult = `
	SELECT ticker, earnings_growth, relative_strength, current_price, sma_50, is_above_sma,
		company_name, sector, industry, missing, fetch_errors, cached_at
	FROM screening_results
	WHERE ticker = $1`

// PostgresStore persists results in PostgreSQL through pgx
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore migrates the schema and takes ownership of db
func NewPostgresStore(ctx context.Context, db *database.DB) (*PostgresStore, error) {
	if err := db.Migrate(ctx, postgresSchema...); err != nil {
		return nil, fmt.Errorf("migrate screening_results: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context, ticker string) (*contracts.ScreeningResult, error) {
	var r contracts.ScreeningResult
	err := s.db.Pool.QueryRow(ctx, selectResult, ticker).Scan(
		&r.Ticker, &r.EarningsGrowth, &r.RelativeStrength, &r.CurrentPrice, &r.SMA50, &r.IsAboveSMA,
		&r.CompanyName, &r.Sector, &r.Industry, &r.Missing, &r.FetchErrors, &r.CachedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	r.CachedAt = r.CachedAt.UTC()
	if len(r.Missing) == 0 {
		r.Missing = nil
	}
	if len(r.FetchErrors) == 0 {
		r.FetchErrors = nil
	}
	return &r, nil
}

func (s *PostgresStore) Save(ctx context.Context, r *contracts.ScreeningResult) error {
	_, err := s.db.Pool.Exec(ctx, upsertResult,
		r.Ticker, r.EarningsGrowth, r.RelativeStrength, r.CurrentPrice, r.SMA50, r.IsAboveSMA,
		r.CompanyName, r.Sector, r.Industry, nonNil(r.Missing), nonNil(r.FetchErrors), r.CachedAt,
	)
	return err
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Backend: "postgres"}
	row := s.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(MIN(cached_at), 'epoch'), COALESCE(MAX(cached_at), 'epoch') FROM screening_results`)
	if err := row.Scan(&st.Rows, &st.Oldest, &st.Newest); err != nil {
		return st, err
	}
	if st.Rows == 0 {
		return Stats{Backend: "postgres"}, nil
	}
	st.Oldest, st.Newest = st.Oldest.UTC(), st.Newest.UTC()
	return st, nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
