// Package database 提供可在定义中按名称构建的 GORM 数据库类型（SQLite 驱动）。
package database

import (
	"fmt"
	"time"

	"github.com/gocrud/container/di"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TypeDB 是 *gorm.DB 的类型名
const TypeDB = "gorm.DB"

// Options 数据库配置选项
type Options struct {
	DSN          string
	GormConfig   *gorm.Config
	MaxIdleConns int
	MaxOpenConns int
	MaxLifetime  time.Duration
}

// DefaultOptions 创建默认配置
func DefaultOptions(dsn string) *Options {
	return &Options{
		DSN:          dsn,
		GormConfig:   &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
		MaxIdleConns: 10,
		MaxOpenConns: 100,
		MaxLifetime:  time.Hour,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if o.MaxOpenConns < 0 || o.MaxIdleConns < 0 {
		return fmt.Errorf("database pool size must be non-negative")
	}
	return nil
}

// Open 打开数据库连接并配置连接池
func Open(opts Options) (*gorm.DB, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(opts.DSN), opts.GormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)

	return db, nil
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Register 注册 gorm.DB 类型。
//
// AutoMigrate 的 model 参数通常是对已注册模型的引用：
//
//	calls:
//	  - AutoMigrate: {model: {ref: models.user}}
func Register(types *di.TypeRegistry) error {
	defaults := DefaultOptions("")

	ctor := di.NewFunc(
		func(dsn string, maxIdle, maxOpen int) (*gorm.DB, error) {
			opts := *defaults
			opts.DSN = dsn
			opts.MaxIdleConns = maxIdle
			opts.MaxOpenConns = maxOpen
			return Open(opts)
		},
		di.Required("dsn"),
		di.Optional("max_idle_conns", defaults.MaxIdleConns),
		di.Optional("max_open_conns", defaults.MaxOpenConns),
	)

	migrate := &di.Method{
		Name:   "AutoMigrate",
		Params: []di.Param{di.Required("model")},
		Invoke: func(instance any, args []any) error {
			if args[0] == nil {
				return fmt.Errorf("model is required")
			}
			return instance.(*gorm.DB).AutoMigrate(args[0])
		},
	}

	return types.Register(di.NewTypeSpec(TypeDB, ctor, migrate))
}
