package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"canopy/internal/domain"
	"canopy/internal/logging"
	"canopy/internal/ports"
)

// SQLiteStore implements ports.EntryStore using GORM.
type SQLiteStore struct {
	db *gorm.DB
}

// Compile-time interface verification
var _ ports.EntryStore = (*SQLiteStore)(nil)

// gormLogger routes GORM output through the canopy logger.
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error", "error", err, "duration", elapsed, "sql", sql, "rows", rows)
	} else {
		logging.Logger.Debug("gorm query", "duration", elapsed, "sql", sql, "rows", rows)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv("CANOPY_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// NewSQLiteStore opens (creating if needed) the entry database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode so a watch loop and a session add can hit the store
	// concurrently from separate processes.
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	if err := db.AutoMigrate(&EntryModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Add inserts a new session entry. A duplicate workspace name maps to
// domain.ErrEntryExists.
func (s *SQLiteStore) Add(ctx context.Context, entry domain.SessionEntry) error {
	model := domainToEntryModel(entry)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %s", domain.ErrEntryExists, entry.WorkspaceName)
		}
		return fmt.Errorf("failed to add entry: %w", err)
	}
	return nil
}

// Get returns the entry for a workspace, or domain.ErrEntryNotFound.
func (s *SQLiteStore) Get(ctx context.Context, workspaceName string) (*domain.SessionEntry, error) {
	var model EntryModel
	err := s.db.WithContext(ctx).First(&model, "workspace_name = ?", workspaceName).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, workspaceName)
		}
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	entry := entryModelToDomain(model)
	return &entry, nil
}

// List returns all entries ordered by window index.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.SessionEntry, error) {
	var models []EntryModel
	if err := s.db.WithContext(ctx).Order("window_index").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	entries := make([]domain.SessionEntry, len(models))
	for i, m := range models {
		entries[i] = entryModelToDomain(m)
	}
	return entries, nil
}

// Remove deletes the entry for a workspace, or domain.ErrEntryNotFound.
func (s *SQLiteStore) Remove(ctx context.Context, workspaceName string) error {
	result := s.db.WithContext(ctx).Delete(&EntryModel{}, "workspace_name = ?", workspaceName)
	if result.Error != nil {
		return fmt.Errorf("failed to remove entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, workspaceName)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
