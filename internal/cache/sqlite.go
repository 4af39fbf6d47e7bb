package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wonny/canslim/internal/contracts"
)

// resultRow is the screening_results table
type resultRow struct {
	Ticker           string   `gorm:"primaryKey;size:5"`
	EarningsGrowth   *float64 `gorm:"column:earnings_growth"`
	RelativeStrength *float64 `gorm:"column:relative_strength"`
	CurrentPrice     *float64 `gorm:"column:current_price"`
	SMA50            *float64 `gorm:"column:sma_50"`
	IsAboveSMA       *bool    `gorm:"column:is_above_sma"`
	CompanyName      string
	Sector           string
	Industry         string
	Missing          string    `gorm:"type:text"` // JSON array
	FetchErrors      string    `gorm:"type:text"` // JSON array
	CachedAt         time.Time `gorm:"index;not null"`
}

func (resultRow) TableName() string { return "screening_results" }

// SQLiteStore persists results in a local SQLite file through gorm
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database file and migrates the table
// Use ":memory:" for a throwaway database
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" shared
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&resultRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate screening_results: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, ticker string) (*contracts.ScreeningResult, error) {
	var row resultRow
	err := s.db.WithContext(ctx).First(&row, "ticker = ?", ticker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toResult()
}

func (s *SQLiteStore) Save(ctx context.Context, result *contracts.ScreeningResult) error {
	row, err := newResultRow(result)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker"}},
			UpdateAll: true,
		}).
		Create(row).Error
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{Backend: "sqlite"}
	db := s.db.WithContext(ctx).Model(&resultRow{})

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return st, err
	}
	st.Rows = int(count)
	if count == 0 {
		return st, nil
	}

	var oldest, newest resultRow
	if err := s.db.WithContext(ctx).Order("cached_at asc").First(&oldest).Error; err != nil {
		return st, err
	}
	if err := s.db.WithContext(ctx).Order("cached_at desc").First(&newest).Error; err != nil {
		return st, err
	}
	st.Oldest, st.Newest = oldest.CachedAt.UTC(), newest.CachedAt.UTC()
	return st, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newResultRow(r *contracts.ScreeningResult) (*resultRow, error) {
	missing, err := encodeList(r.Missing)
	if err != nil {
		return nil, err
	}
	fetchErrors, err := encodeList(r.FetchErrors)
	if err != nil {
		return nil, err
	}
	return &resultRow{
		Ticker:           r.Ticker,
		EarningsGrowth:   r.EarningsGrowth,
		RelativeStrength: r.RelativeStrength,
		CurrentPrice:     r.CurrentPrice,
		SMA50:            r.SMA50,
		IsAboveSMA:       r.IsAboveSMA,
		CompanyName:      r.CompanyName,
		Sector:           r.Sector,
		Industry:         r.Industry,
		Missing:          missing,
		FetchErrors:      fetchErrors,
		CachedAt:         r.CachedAt.UTC(),
	}, nil
}

func (row *resultRow) toResult() (*contracts.ScreeningResult, error) {
	missing, err := decodeList(row.Missing)
	if err != nil {
		return nil, fmt.Errorf("decode missing: %w", err)
	}
	fetchErrors, err := decodeList(row.FetchErrors)
	if err != nil {
		return nil, fmt.Errorf("decode fetch_errors: %w", err)
	}
	return &contracts.ScreeningResult{
		Ticker:           row.Ticker,
		EarningsGrowth:   row.EarningsGrowth,
		RelativeStrength: row.RelativeStrength,
		CurrentPrice:     row.CurrentPrice,
		SMA50:            row.SMA50,
		IsAboveSMA:       row.IsAboveSMA,
		CompanyName:      row.CompanyName,
		Sector:           row.Sector,
		Industry:         row.Industry,
		Missing:          missing,
		FetchErrors:      fetchErrors,
		CachedAt:         row.CachedAt.UTC(),
	}, nil
}

func encodeList(items []string) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}
