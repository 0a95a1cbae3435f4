package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PoolConfig struct {
	MaxIdle     int
	MaxOpen     int
	MaxLifetime time.Duration
}

var DefaultPool = PoolConfig{MaxIdle: 10, MaxOpen: 50, MaxLifetime: time.Hour}

// gormLogger logs slow statements always and every statement outside production.
func gormLogger(isProd bool) logger.Interface {
	level := logger.Info
	if isProd {
		level = logger.Warn
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  !isProd,
		},
	)
}

func NewGormDBFromDSN(dsn string, isProd bool, pool PoolConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger(isProd),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdle)
	sqlDB.SetMaxOpenConns(pool.MaxOpen)
	sqlDB.SetConnMaxLifetime(pool.MaxLifetime)

	return db, nil
}
