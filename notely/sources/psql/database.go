package psql

import (
	"context"
	"fmt"
	"time"

	"notely/notely/config"
	"notely/notely/utils/logging"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is the process-wide connection pool. Any pooled connection may
// serve any request; nothing is kept per connection.
type Database struct {
	DB *gorm.DB
}

// PoolOptions bounds the underlying database/sql pool.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
}

func poolOptionsFrom(cfg config.Config) PoolOptions {
	maxOpen := cfg.DBMaxConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	maxIdle := 5
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	idle := cfg.DBIdleTimeout
	if idle <= 0 {
		idle = 30 * time.Second
	}
	return PoolOptions{MaxOpenConns: maxOpen, MaxIdleConns: maxIdle, ConnMaxIdleTime: idle}
}

func NewDatabase(ctx context.Context, cfg config.Config) (*Database, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database, err := Wrap(db, poolOptionsFrom(cfg))
	if err != nil {
		return nil, err
	}
	if err := database.Ping(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	var currentDB string
	_ = db.WithContext(ctx).Raw("SELECT current_database()").Scan(&currentDB).Error
	logging.AppLogger.Info("connected to database", zap.String("database", currentDB))

	return database, nil
}

// Wrap applies pool bounds to an already opened gorm handle.
func Wrap(db *gorm.DB, opts PoolOptions) (*Database, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("underlying sql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
	return &Database{DB: db}, nil
}

func (db *Database) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *Database) Close() {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logging.ErrorLogger.Warn("close database", zap.Error(err))
	}
}
