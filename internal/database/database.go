package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/circulation/internal/entities"
)

const defaultBusyTimeout = 5 * time.Second

type Database struct {
	DB *gorm.DB
}

type options struct {
	logLevel    logger.LogLevel
	busyTimeout time.Duration
}

type Option func(*options)

// WithLogLevel sets gorm's SQL log level: silent, error, warn or info.
func WithLogLevel(level string) Option {
	return func(o *options) {
		o.logLevel = ParseLogLevel(level)
	}
}

// WithBusyTimeout sets how long a writer waits for the SQLite write lock.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// NewDatabase opens (creating if needed) the SQLite file at dbPath and
// migrates the circulation schema. The returned handle is owned by the
// caller and must be released with Close.
func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	o := options{logLevel: logger.Warn, busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(sqlite.Open(DSN(dbPath, o.busyTimeout)), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  o.logLevel,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Reader{},
		&entities.Loan{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

// DSN builds the go-sqlite3 connection string. Transactions start with
// BEGIN IMMEDIATE so that the write lock is taken before any precondition is
// read; concurrent writers queue on the busy timeout instead of failing.
func DSN(dbPath string, busyTimeout time.Duration) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_txlock=immediate&_busy_timeout=%d&_journal_mode=WAL",
		dbPath, sep, busyTimeout.Milliseconds())
}

// SQL exposes the underlying pool for read-only query builders.
func (d *Database) SQL() (*sql.DB, error) {
	return d.DB.DB()
}

func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
