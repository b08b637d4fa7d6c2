package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"crediario/config"
	"crediario/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CurrentSchemaVersion is the schema version this build expects.
const CurrentSchemaVersion uint = 1

//go:embed migrations/*/*.sql
var migrationFiles embed.FS

// Database is the record store handle. It must be opened before use.
type Database struct {
	cfg *config.Config

	mu      sync.RWMutex
	db      *gorm.DB
	version uint
	openErr error
}

// NewDatabase creates an unopened store for the configured driver.
func NewDatabase(cfg *config.Config) *Database {
	return &Database{cfg: cfg}
}

// Open connects to the store and applies pending migrations.
// It is idempotent; a failed open is remembered and returned to every later caller.
func (d *Database) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return nil
	}
	if d.openErr != nil {
		return d.openErr
	}

	db, version, err := d.connect(ctx)
	if err != nil {
		d.openErr = &StorageError{Op: "open", Err: err}
		return d.openErr
	}

	d.db = db
	d.version = version
	utils.LogInfo("Database opened (driver=%s, schema=%d)", d.cfg.DB.Driver, version)
	return nil
}

func (d *Database) connect(ctx context.Context) (*gorm.DB, uint, error) {
	version, err := runMigrations(d.cfg)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	var dialector gorm.Dialector
	switch d.cfg.DB.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(d.cfg.PostgresDSN())
	default:
		dialector = sqlite.Open(d.cfg.DB.Path + "?_foreign_keys=on&_busy_timeout=5000")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(d.cfg.DB.LogLevel),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get connection pool: %w", err)
	}
	if d.cfg.DB.Driver == config.DriverPostgres {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// one writer at a time
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, 0, fmt.Errorf("failed to ping: %w", err)
	}

	return db, version, nil
}

// runMigrations brings the schema up to date and returns its version.
func runMigrations(cfg *config.Config) (uint, error) {
	var dir, url string
	switch cfg.DB.Driver {
	case config.DriverPostgres:
		dir = "migrations/postgres"
		url = cfg.PostgresURL()
	default:
		dir = "migrations/sqlite"
		url = "sqlite3://" + cfg.DB.Path
	}

	src, err := iofs.New(migrationFiles, dir)
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, err
	}
	if dirty {
		return 0, fmt.Errorf("schema version %d is dirty", version)
	}
	if version > CurrentSchemaVersion {
		return 0, fmt.Errorf("schema version %d is newer than supported version %d", version, CurrentSchemaVersion)
	}
	return version, nil
}

func newGormLogger(level string) logger.Interface {
	logLevel := logger.Warn
	switch level {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "info":
		logLevel = logger.Info
	}

	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// SchemaVersion returns the applied schema version.
func (d *Database) SchemaVersion() (uint, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return 0, ErrNotInitialized
	}
	return d.version, nil
}

// Close releases the connection pool. The store cannot be reopened afterwards.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	d.db = nil
	d.openErr = ErrNotInitialized
	return sqlDB.Close()
}

func (d *Database) conn(ctx context.Context) (*gorm.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return nil, ErrNotInitialized
	}
	return d.db.WithContext(ctx), nil
}

// Transaction runs fn in a single atomic transaction. Any error returned by fn rolls back
// every write made through the *Tx and is returned unchanged.
func (d *Database) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	db, err := d.conn(ctx)
	if err != nil {
		return err
	}

	var fnErr error
	err = db.Transaction(func(g *gorm.DB) error {
		fnErr = fn(&Tx{db: g})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return &StorageError{Op: "transaction", Err: err}
	}
	return nil
}

// Tx is a handle bound to an open transaction.
type Tx struct {
	db *gorm.DB
}

func (t *Tx) conn(_ context.Context) (*gorm.DB, error) {
	return t.db, nil
}
