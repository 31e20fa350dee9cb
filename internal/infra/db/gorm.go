package db

import (
	"fmt"
	"time"

	"storefront/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	DSN          string
	Logger       gormlogger.Interface
	MaxOpenConns int
	MaxIdleConns int
}

// Connect はDBに接続して *gorm.DB を返す。
func Connect(opt Options) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(opt.DSN), &gorm.Config{
		Logger:         opt.Logger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if opt.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opt.MaxOpenConns)
	}
	if opt.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opt.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gdb, nil
}

// Migrate はテーブルを作る/更新する
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(model.All()...)
}
