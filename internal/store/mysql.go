package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fmuoria/interview-review-agent/internal/config"
	"github.com/fmuoria/interview-review-agent/internal/logger"
)

// MySQL owns the gorm connection shared by the record, job and user stores
type MySQL struct {
	db *gorm.DB
}

// NewMySQL connects to MySQL and migrates the schema
func NewMySQL(cfg config.MySQLConfig) (*MySQL, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql dsn is required")
	}

	var level gormlogger.LogLevel
	switch cfg.LogLevel {
	case 1:
		level = gormlogger.Silent
	case 3:
		level = gormlogger.Warn
	case 4:
		level = gormlogger.Info
	default:
		level = gormlogger.Error
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger: gormlogger.New(log.New(logger.Logger, "", 0), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	m, err := NewWithDB(db)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return m, nil
}

// NewWithDB wraps an open gorm connection and migrates the schema
func NewWithDB(db *gorm.DB) (*MySQL, error) {
	if err := db.AutoMigrate(&candidateRow{}, &jobRow{}, &userRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &MySQL{db: db}, nil
}

// Records returns the candidate record store
func (m *MySQL) Records(ttl time.Duration) *Records {
	return &Records{db: m.db, ttl: ttl}
}

// Jobs returns the job store
func (m *MySQL) Jobs() *Jobs {
	return &Jobs{db: m.db}
}

// Users returns the reviewer settings store
func (m *MySQL) Users() *Users {
	return &Users{db: m.db}
}

// Ping checks the database connection
func (m *MySQL) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
