package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PoolConfig bounds the connection pool. Zero values keep the defaults.
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

var defaultPool = PoolConfig{
	MaxIdleConns:    5,
	MaxOpenConns:    20,
	ConnMaxLifetime: time.Hour,
}

type Option func(*options)

type options struct {
	writer   *log.Logger
	logLevel logger.LogLevel
	pool     PoolConfig
}

// WithLogWriter routes SQL logs through w instead of stdout.
func WithLogWriter(w *log.Logger) Option {
	return func(o *options) { o.writer = w }
}

// WithLogLevel sets the SQL log level (logger.Silent ... logger.Info).
func WithLogLevel(level logger.LogLevel) Option {
	return func(o *options) { o.logLevel = level }
}

func WithPool(p PoolConfig) Option {
	return func(o *options) {
		if p.MaxIdleConns > 0 {
			o.pool.MaxIdleConns = p.MaxIdleConns
		}
		if p.MaxOpenConns > 0 {
			o.pool.MaxOpenConns = p.MaxOpenConns
		}
		if p.ConnMaxLifetime > 0 {
			o.pool.ConnMaxLifetime = p.ConnMaxLifetime
		}
	}
}

func newLogger(o *options) logger.Interface {
	w := o.writer
	if w == nil {
		w = log.New(os.Stdout, "\r\n", log.LstdFlags)
	}
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  o.logLevel,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  o.writer == nil,
	})
}

func configureConnectionPool(db *gorm.DB, p PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(p.MaxIdleConns)
	sqlDB.SetMaxOpenConns(p.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(p.ConnMaxLifetime)
	return nil
}

// NewGormDBFromDSN opens the postgres database backing the query history
// and the operation audit log.
func NewGormDBFromDSN(dsn string, opts ...Option) (*gorm.DB, error) {
	o := &options{logLevel: logger.Warn, pool: defaultPool}
	for _, opt := range opts {
		opt(o)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger(o),
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, o.pool); err != nil {
		return nil, err
	}

	return db, nil
}
