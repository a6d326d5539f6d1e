// Package database 负责创建各服务共享的 gorm 连接。
package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"inkverse/internal/pkg/bootstrap"
	"inkverse/internal/pkg/logger"
)

// Open 按配置打开 MySQL 连接并设置连接池。
func Open(cfg bootstrap.MySQLConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "ping mysql")
	}
	logger.Ctx(ctx).Info().Msg("mysql connected")
	return db, nil
}

// Migrate 在本地/测试环境下自动建表，生产环境由迁移脚本负责。
func Migrate(db *gorm.DB, env string, models ...interface{}) error {
	if env != "local" && env != "test" {
		return nil
	}
	return errors.Wrap(db.AutoMigrate(models...), "auto migrate")
}
