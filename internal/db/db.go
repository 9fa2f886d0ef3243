package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/balkashynov/shiftr/internal/attendance"
	"github.com/balkashynov/shiftr/internal/models"
)

// Drivers accepted by Open
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and tunes the database connection
type Options struct {
	Driver string // sqlite (default) or postgres
	DSN    string // file path for sqlite, connection string for postgres
	Debug  bool   // log every statement
}

// Store implements attendance.Store and attendance.AuditSink on gorm
type Store struct {
	db *gorm.DB
}

var (
	_ attendance.Store     = (*Store)(nil)
	_ attendance.AuditSink = (*Store)(nil)
)

// Open connects to the database and runs migrations
func Open(opts Options) (*Store, error) {
	mode := logger.Silent // Quiet by default
	if opts.Debug {
		mode = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(mode)}

	var (
		conn *gorm.DB
		err  error
	)
	switch opts.Driver {
	case "", DriverSQLite:
		path := opts.DSN
		if path == "" {
			if path, err = DefaultPath(); err != nil {
				return nil, fmt.Errorf("failed to get database path: %w", err)
			}
		}
		if path != ":memory:" {
			// Ensure the directory exists
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		conn, err = gorm.Open(sqlite.Open(path), cfg)
		if err == nil {
			// SQLite serialises writers; one connection keeps transactions from
			// tripping over SQLITE_BUSY.
			sqlDB, dbErr := conn.DB()
			if dbErr != nil {
				return nil, dbErr
			}
			sqlDB.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, errors.New("postgres driver needs a dsn")
		}
		conn, err = gorm.Open(postgres.Open(opts.DSN), cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: conn}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// DefaultPath returns the path to the SQLite database file
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".shiftr", "shiftr.db"), nil
}

// migrate creates/updates the database schema
func (s *Store) migrate() error {
	return s.db.AutoMigrate(
		&models.Schedule{},
		&models.Assignment{},
		&models.Session{},
		&models.AttendanceRecord{},
		&models.BreakEntry{},
		&models.AuditEntry{},
	)
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the connection is alive
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// InTx runs fn against a store bound to one transaction
func (s *Store) InTx(ctx context.Context, fn func(tx attendance.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) with(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// notFound maps gorm's missing-row error onto the engine's taxonomy
func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &attendance.NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("loading %s #%v: %w", entity, id, err)
}

// none turns a missing row into a nil result
func none(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
