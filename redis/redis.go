// Package redis 提供可在定义中按名称构建的 Redis 客户端类型。
//
//	services:
//	  cache:
//	    class: redis.Client
//	    args: {addr: "localhost:6379", db: 1, dial_timeout: 2s}
//	    calls:
//	      - Ping: []
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/container/di"
	"github.com/redis/go-redis/v9"
)

// TypeClient 是 *redis.Client 的类型名
const TypeClient = "redis.Client"

// ClientOptions Redis 客户端配置选项
type ClientOptions struct {
	Addr         string        // Redis 服务器地址 (host:port)
	Password     string        // 密码（可选）
	DB           int           // 数据库编号
	DialTimeout  time.Duration // 连接超时时间
	ReadTimeout  time.Duration // 读取超时时间
	WriteTimeout time.Duration // 写入超时时间
	PoolSize     int           // 连接池大小
	MinIdleConns int           // 最小空闲连接数
	MaxRetries   int           // 最大重试次数
}

// DefaultOptions 创建默认配置
func DefaultOptions() *ClientOptions {
	return &ClientOptions{
		Addr:         "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if o.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if o.DB < 0 {
		return fmt.Errorf("redis database number must be non-negative")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("redis dial timeout must be positive")
	}
	return nil
}

// NewClient 创建客户端。连接是惰性的，需要确认可用时调用 Ping。
func NewClient(opts ClientOptions) (*redis.Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
	}), nil
}

// Ping 在 DialTimeout 内测试连接
func Ping(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), client.Options().DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

// Register 注册 redis.Client 类型
func Register(types *di.TypeRegistry) error {
	defaults := DefaultOptions()

	ctor := di.NewFunc(
		func(addr, password string, db, poolSize int, dialTimeout time.Duration) (*redis.Client, error) {
			opts := *defaults
			opts.Addr = addr
			opts.Password = password
			opts.DB = db
			opts.PoolSize = poolSize
			opts.DialTimeout = dialTimeout
			return NewClient(opts)
		},
		di.Optional("addr", defaults.Addr),
		di.Optional("password", ""),
		di.Optional("db", defaults.DB),
		di.Optional("pool_size", defaults.PoolSize),
		di.Optional("dial_timeout", defaults.DialTimeout),
	)

	ping := &di.Method{
		Name: "Ping",
		Invoke: func(instance any, _ []any) error {
			return Ping(instance.(*redis.Client))
		},
	}

	return types.Register(di.NewTypeSpec(TypeClient, ctor, ping))
}
