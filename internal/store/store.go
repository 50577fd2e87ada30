package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store holds the database handle and provides access to repositories.
type Store struct {
	db *gorm.DB
}

// Open connects to the database at dsn and runs auto-migration. A
// postgres:// (or key=value) DSN selects the Postgres driver; anything
// else is treated as a SQLite path. SQLite gets the recommended pragmas
// applied.
func Open(dsn string) (*Store, error) {
	var dialector gorm.Dialector
	if isPostgresDSN(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if !isPostgresDSN(dsn) {
		if err := applyPragmas(db); err != nil {
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	if err := db.AutoMigrate(
		&ProfileRecord{},
		&CardRecord{},
		&ContentRecord{},
		&ContentViewRecord{},
		&PlacementRecord{},
		&EventRecord{},
	); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db}, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// DB returns the underlying gorm handle for raw queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql db: %w", err)
	}
	return sqlDB.Close()
}

// ProfileRepo returns a ProfileRepo backed by this store.
func (s *Store) ProfileRepo() ProfileRepo {
	return &profileRepo{db: s.db}
}

// CardRepo returns a CardRepo backed by this store.
func (s *Store) CardRepo() CardRepo {
	return &cardRepo{db: s.db}
}

// ContentRepo returns a ContentRepo backed by this store.
func (s *Store) ContentRepo() ContentRepo {
	return &contentRepo{db: s.db}
}

// PlacementRepo returns a PlacementRepo backed by this store.
func (s *Store) PlacementRepo() PlacementRepo {
	return &placementRepo{db: s.db}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db}
}

// PurgeResult reports what PurgeUser deleted.
type PurgeResult struct {
	Profiles   int64
	Cards      int64
	Placements int64
	Views      int64
}

// PurgeUser deletes the learner's profiles, cards, placement tests, and
// view history in one transaction. Empty language means every language.
// Shared content and the event log are kept.
func (s *Store) PurgeUser(ctx context.Context, userID, language string) (PurgeResult, error) {
	var out PurgeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scoped := func(model any) *gorm.DB {
			q := tx.Where("user_id = ?", userID)
			if language != "" {
				q = q.Where("language = ?", language)
			}
			return q.Delete(model)
		}

		res := scoped(&ProfileRecord{})
		if res.Error != nil {
			return fmt.Errorf("delete profiles: %w", res.Error)
		}
		out.Profiles = res.RowsAffected

		res = scoped(&CardRecord{})
		if res.Error != nil {
			return fmt.Errorf("delete cards: %w", res.Error)
		}
		out.Cards = res.RowsAffected

		res = scoped(&PlacementRecord{})
		if res.Error != nil {
			return fmt.Errorf("delete placements: %w", res.Error)
		}
		out.Placements = res.RowsAffected

		// Views carry no language column; they go whenever the user goes.
		if language == "" {
			res = tx.Where("user_id = ?", userID).Delete(&ContentViewRecord{})
			if res.Error != nil {
				return fmt.Errorf("delete views: %w", res.Error)
			}
			out.Views = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return PurgeResult{}, err
	}
	return out, nil
}

// applyPragmas configures SQLite for concurrent single-node use.
func applyPragmas(db *gorm.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database location in priority order:
// 1. KOTOBA_DB environment variable (path or postgres DSN)
// 2. $XDG_DATA_HOME/kotoba/kotoba.db
// 3. ~/.local/share/kotoba/kotoba.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("KOTOBA_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "kotoba", "kotoba.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of a database file path.
// Postgres DSNs pass through untouched.
func EnsureDir(path string) error {
	if isPostgresDSN(path) {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
