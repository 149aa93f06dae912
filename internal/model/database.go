package model

import (
	"clm-server/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 打开数据库连接
// 句柄由调用方持有并注入各组件，不使用包级全局变量
func Open(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if mode == "debug" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Silent
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true, // 唯一约束冲突翻译为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	return db, nil
}

// AutoMigrate 自动迁移数据库表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 多租户核心模型
		&Organization{},
		&Domain{},
		&Role{},
		&User{},
		&UserRole{},
		&Invitation{},
		// 合同业务
		&Contract{},
		&Counterparty{},
		// 电子签名
		&SenderProfile{},
	)
}
