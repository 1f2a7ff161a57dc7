package ratestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cryptorates/internal/metrics"
	"cryptorates/internal/rates"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Store persists observed rates in SQLite. Deduplication is enforced by
// the UNIQUE index on (pair, observed_at): a conflicting insert is simply
// not counted, so concurrent writers cannot double-insert.
type Store struct {
	db *gorm.DB
}

func New(path string, m *metrics.Metrics) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("rate store path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&rateModel{}, &runModel{}); err != nil {
		return nil, err
	}
	if m != nil {
		if err := registerMetricsCallbacks(db, m); err != nil {
			return nil, err
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a little parallelism for concurrent HTTP reads while
	// the scheduled gap-fill writes.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InsertBatch inserts rows in one statement, ignoring (pair, observed_at)
// conflicts, and returns the number of rows actually inserted.
func (s *Store) InsertBatch(ctx context.Context, rows []rates.Rate) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("rate store not initialized")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	models := make([]rateModel, 0, len(rows))
	for _, r := range rows {
		if err := rates.ValidatePair(r.Pair); err != nil {
			return 0, err
		}
		recorded := r.RecordedAt
		if recorded.IsZero() {
			recorded = now
		}
		models = append(models, rateModel{
			Pair:       r.Pair,
			Rate:       r.Value.String(),
			ObservedAt: r.ObservedAt.UTC().Unix(),
			RecordedAt: recorded.Unix(),
		})
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair"}, {Name: "observed_at"}},
			DoNothing: true,
		}).
		Create(&models)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// ExistsAt reports whether a row for (pair, observedAt) is already present.
func (s *Store) ExistsAt(ctx context.Context, pair string, observedAt time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("rate store not initialized")
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&rateModel{}).
		Where("pair = ? AND observed_at = ?", pair, observedAt.UTC().Unix()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LatestFor returns the most recent row for a pair, or nil when the pair
// has no rows yet.
func (s *Store) LatestFor(ctx context.Context, pair string) (*rates.Rate, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("rate store not initialized")
	}
	var model rateModel
	err := s.db.WithContext(ctx).
		Where("pair = ?", pair).
		Order("observed_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	rate, err := rateModelToRate(model)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// Range returns rows for a pair with observed_at in [from, to], ordered
// ascending.
func (s *Store) Range(ctx context.Context, pair string, from, to time.Time) ([]rates.Rate, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("rate store not initialized")
	}
	if to.Before(from) {
		from, to = to, from
	}
	var models []rateModel
	err := s.db.WithContext(ctx).
		Where("pair = ? AND observed_at BETWEEN ? AND ?", pair, from.UTC().Unix(), to.UTC().Unix()).
		Order("observed_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]rates.Rate, 0, len(models))
	for _, m := range models {
		rate, err := rateModelToRate(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, nil
}

// CountFor returns the number of rows stored for a pair.
func (s *Store) CountFor(ctx context.Context, pair string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("rate store not initialized")
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&rateModel{}).
		Where("pair = ?", pair).
		Count(&count).Error
	return count, err
}
