package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"keepwise/application/ports"
	pkgerrors "keepwise/pkg/errors"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds store connection settings
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
	LogQueries      bool
}

// Store owns the gorm handle. It is built once at startup and passed to
// whatever needs repositories or a unit of work.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to the configured database
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite, "":
		dialector = sqlite.Open(cfg.DSN)
	case DriverPostgres, "postgresql":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLogger(logger, cfg),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.SetupJoinTable(&MemoryRecord{}, "Tags", &MemoryTagRecord{}); err != nil {
		return nil, fmt.Errorf("failed to set up memory_tags join table: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if strings.ToLower(cfg.Driver) == DriverPostgres {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	} else {
		// one writer at a time; also keeps in-memory databases on one connection
		sqlDB.SetMaxOpenConns(1)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.Info("Database opened", zap.String("driver", dialector.Name()))
	return &Store{db: db, logger: logger}, nil
}

func newGormLogger(logger *zap.Logger, cfg Config) gormlogger.Interface {
	level := gormlogger.Warn
	if cfg.LogQueries {
		level = gormlogger.Info
	}
	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}

	return gormlogger.New(
		zap.NewStdLog(logger.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// Migrate creates or updates every table
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	s.logger.Info("Database schema migrated")
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the gorm handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Repositories returns repositories bound to the store outside any transaction
func (s *Store) Repositories() ports.Repositories {
	return newRepositories(s.db)
}

// UnitOfWork returns the transaction boundary for mutations
func (s *Store) UnitOfWork() ports.UnitOfWork {
	return &unitOfWork{db: s.db}
}

type repositories struct {
	memories   *memoryRepository
	tags       *tagRepository
	categories *categoryRepository
}

func newRepositories(db *gorm.DB) *repositories {
	return &repositories{
		memories:   &memoryRepository{db: db},
		tags:       &tagRepository{db: db},
		categories: &categoryRepository{db: db},
	}
}

func (r *repositories) Memories() ports.MemoryRepository     { return r.memories }
func (r *repositories) Tags() ports.TagRepository            { return r.tags }
func (r *repositories) Categories() ports.CategoryRepository { return r.categories }

type unitOfWork struct {
	db *gorm.DB
}

// Within runs fn inside one database transaction
func (u *unitOfWork) Within(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, newRepositories(tx))
	})
}

// mapError classifies gorm errors; AppErrors pass through untouched
func mapError(operation, resource string, err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NewNotFoundError(resource)
	}
	return pkgerrors.NewDatabaseError(operation, err)
}
