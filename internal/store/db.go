// Package store persists BER sweep results in SQLite.
package store

import (
	"fmt"
	"log"
	"net/url"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// connPragmas are applied by the driver to every new pool connection.
// Sweeps finish on background goroutines, so writers can overlap with
// API reads and must wait on the lock instead of failing with SQLITE_BUSY.
var connPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
}

// Config locates the result database.
type Config struct {
	Path string // file path, or MemoryPath
}

// DB owns the connection pool behind a RunRepository.
type DB struct {
	db *gorm.DB
}

// NewDB opens the result database with the pure Go SQLite driver and
// migrates the sweep tables. GORM warnings go to log when it is non-nil.
func NewDB(config Config, log *log.Logger) (*DB, error) {
	gormLog := logger.Default.LogMode(logger.Silent)
	if log != nil {
		gormLog = logger.New(log, logger.Config{
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn(config.Path)}, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", config.Path, err)
	}
	if config.Path == MemoryPath {
		// Each connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&SweepRun{}, &BERPoint{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	if log != nil {
		log.Printf("[store] sweep results in %s", config.Path)
	}
	return &DB{db: db}, nil
}

// dsn appends the connection pragmas in modernc's _pragma query form.
func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		if path == MemoryPath && p == "journal_mode(WAL)" {
			continue
		}
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// Runs returns a repository over the stored sweep runs.
func (db *DB) Runs() *RunRepository {
	return NewRunRepository(db.db)
}

func (db *DB) Close() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health pings the database.
func (db *DB) Health() error {
	sqlDB, err := db.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
