// Package etcd 提供可在定义中按名称构建的 etcd 客户端类型。
package etcd

import (
	"fmt"
	"time"

	"github.com/gocrud/container/di"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// TypeClient 是 *clientv3.Client 的类型名
const TypeClient = "etcd.Client"

// ClientOptions etcd 客户端配置选项
type ClientOptions struct {
	Endpoints          []string      // etcd 服务器地址列表
	DialTimeout        time.Duration // 连接超时时间
	Username           string        // 用户名（可选）
	Password           string        // 密码（可选）
	AutoSyncInterval   time.Duration // 自动同步间隔（可选）
	MaxCallSendMsgSize int           // 最大发送消息大小（可选）
	MaxCallRecvMsgSize int           // 最大接收消息大小（可选）
}

// DefaultOptions 创建默认配置
func DefaultOptions() *ClientOptions {
	return &ClientOptions{
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if len(o.Endpoints) == 0 {
		return fmt.Errorf("etcd endpoints are required")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("etcd dial timeout must be positive")
	}
	return nil
}

// Config 转换为 clientv3.Config
func (o *ClientOptions) Config() clientv3.Config {
	config := clientv3.Config{
		Endpoints:   o.Endpoints,
		DialTimeout: o.DialTimeout,
	}
	if o.Username != "" {
		config.Username = o.Username
		config.Password = o.Password
	}
	if o.AutoSyncInterval > 0 {
		config.AutoSyncInterval = o.AutoSyncInterval
	}
	if o.MaxCallSendMsgSize > 0 {
		config.MaxCallSendMsgSize = o.MaxCallSendMsgSize
	}
	if o.MaxCallRecvMsgSize > 0 {
		config.MaxCallRecvMsgSize = o.MaxCallRecvMsgSize
	}
	return config
}

// NewClient 创建 etcd 客户端
func NewClient(opts ClientOptions) (*clientv3.Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	client, err := clientv3.New(opts.Config())
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return client, nil
}

// Register 注册 etcd.Client 类型
func Register(types *di.TypeRegistry) error {
	defaults := DefaultOptions()

	ctor := di.NewFunc(
		func(endpoints []string, dialTimeout time.Duration, username, password string) (*clientv3.Client, error) {
			opts := *defaults
			opts.Endpoints = endpoints
			opts.DialTimeout = dialTimeout
			opts.Username = username
			opts.Password = password
			return NewClient(opts)
		},
		di.Optional("endpoints", defaults.Endpoints),
		di.Optional("dial_timeout", defaults.DialTimeout),
		di.Optional("username", ""),
		di.Optional("password", ""),
	)

	return types.Register(di.NewTypeSpec(TypeClient, ctor))
}
