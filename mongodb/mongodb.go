// Package mongodb 提供可在定义中按名称构建的 MongoDB 客户端类型。
//
// mongo.Client 是官方驱动的客户端，mgo.Client 是 github.com/gocrud/mgo 的封装。
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/container/di"
	"github.com/gocrud/mgo"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// TypeClient 是 *mongo.Client 的类型名
	TypeClient = "mongo.Client"
	// TypeMgoClient 是 *mgo.Client 的类型名
	TypeMgoClient = "mgo.Client"
)

// Options MongoDB 客户端配置选项
type Options struct {
	URI         string
	Username    string
	Password    string
	MaxPoolSize uint64
	MinPoolSize uint64
	Timeout     time.Duration
}

// DefaultOptions 创建默认配置
func DefaultOptions(uri string) *Options {
	return &Options{
		URI:         uri,
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if o.MinPoolSize > o.MaxPoolSize && o.MaxPoolSize > 0 {
		return fmt.Errorf("mongo min pool size %d exceeds max pool size %d", o.MinPoolSize, o.MaxPoolSize)
	}
	return nil
}

func (o *Options) clientOptions() *options.ClientOptions {
	clientOpts := options.Client().ApplyURI(o.URI)
	if o.Username != "" || o.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: o.Username,
			Password: o.Password,
		})
	}
	if o.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(o.MinPoolSize)
	}
	if o.Timeout > 0 {
		clientOpts.SetConnectTimeout(o.Timeout)
	}
	return clientOpts
}

// NewClient 创建官方驱动客户端，连接在首次操作时建立
func NewClient(opts Options) (*mongo.Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	client, err := mongo.Connect(opts.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}
	return client, nil
}

// NewMgoClient 创建 mgo 客户端
func NewMgoClient(opts Options) (*mgo.Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	client, err := mgo.NewClient(ctx, opts.URI, opts.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create mgo client: %w", err)
	}
	return client, nil
}

func params(defaults *Options) []di.Param {
	return []di.Param{
		di.Required("uri"),
		di.Optional("username", ""),
		di.Optional("password", ""),
		di.Optional("max_pool_size", defaults.MaxPoolSize),
		di.Optional("timeout", defaults.Timeout),
	}
}

func build(defaults *Options, uri, username, password string, maxPool uint64, timeout time.Duration) Options {
	opts := *defaults
	opts.URI = uri
	opts.Username = username
	opts.Password = password
	opts.MaxPoolSize = maxPool
	opts.Timeout = timeout
	if opts.MinPoolSize > maxPool {
		opts.MinPoolSize = maxPool
	}
	return opts
}

// Register 注册 mongo.Client 与 mgo.Client 类型
func Register(types *di.TypeRegistry) error {
	defaults := DefaultOptions("")

	client := di.NewFunc(
		func(uri, username, password string, maxPool uint64, timeout time.Duration) (*mongo.Client, error) {
			return NewClient(build(defaults, uri, username, password, maxPool, timeout))
		},
		params(defaults)...,
	)
	if err := types.Register(di.NewTypeSpec(TypeClient, client)); err != nil {
		return err
	}

	mgoClient := di.NewFunc(
		func(uri, username, password string, maxPool uint64, timeout time.Duration) (*mgo.Client, error) {
			return NewMgoClient(build(defaults, uri, username, password, maxPool, timeout))
		},
		params(defaults)...,
	)
	return types.Register(di.NewTypeSpec(TypeMgoClient, mgoClient))
}
