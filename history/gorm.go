package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marwan116/structured-output-llm/validator"
)

// runRecord is the persisted row shape. Failures are stored as JSON so
// the table stays portable across SQLite and Postgres.
type runRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index;size:64"`
	Attempt   int
	Query     string `gorm:"type:text"`
	Prompt    string `gorm:"type:text"`
	RawOutput string `gorm:"type:text"`
	Failures  string `gorm:"type:text"`
	CreatedAt time.Time
}

func (runRecord) TableName() string { return "run_history" }

// GormStore persists run transcripts through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open GORM handle and migrates the history table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&runRecord{}); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// OpenSQLite opens (or creates) a SQLite-backed store. Use ":memory:"
// for an ephemeral database.
func OpenSQLite(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("history: open sqlite %s: %w", path, err)
	}
	return NewGormStore(db)
}

// OpenPostgres opens a Postgres-backed store.
func OpenPostgres(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("history: open postgres: %w", err)
	}
	return NewGormStore(db)
}

// Append implements Store.
func (s *GormStore) Append(ctx context.Context, rec *Record) error {
	failures, err := json.Marshal(rec.Failures)
	if err != nil {
		return fmt.Errorf("history: encode failures: %w", err)
	}

	row := runRecord{
		RunID:     rec.RunID,
		Attempt:   rec.Attempt,
		Query:     rec.Query,
		Prompt:    rec.Prompt,
		RawOutput: rec.RawOutput,
		Failures:  string(failures),
		CreatedAt: rec.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("history: append: %w", err)
	}
	return nil
}

// ByRun implements Store.
func (s *GormStore) ByRun(ctx context.Context, runID string) ([]Record, error) {
	var rows []runRecord
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("attempt ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("history: query run %s: %w", runID, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		var failures []validator.Failure
		if row.Failures != "" {
			if err := json.Unmarshal([]byte(row.Failures), &failures); err != nil {
				return nil, fmt.Errorf("history: decode failures: %w", err)
			}
		}
		records[i] = Record{
			RunID:     row.RunID,
			Attempt:   row.Attempt,
			Query:     row.Query,
			Prompt:    row.Prompt,
			RawOutput: row.RawOutput,
			Failures:  failures,
			CreatedAt: row.CreatedAt,
		}
	}
	return records, nil
}
