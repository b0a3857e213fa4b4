package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// EtcdOptions etcd 配置源选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选）
	Timeout     time.Duration // 读取超时时间（默认 5 秒）
	DialTimeout time.Duration // 拨号超时时间（默认 5 秒）
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return b.Add(&EtcdSource{Options: opts})
}

// EtcdSource etcd 配置源。
// 键 <prefix>/redis/addr 映射为 redis:addr；值依次尝试按 JSON、YAML 解析，
// 都失败时作为字符串。
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) Load() (map[string]any, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	prefix := s.Options.Prefix
	if prefix == "" {
		prefix = "/"
	}

	resp, err := cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	pairs := make(map[string][]byte, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		pairs[string(kv.Key)] = kv.Value
	}
	return etcdToMap(pairs, s.Options.Prefix), nil
}

// etcdToMap 把 etcd 键值对转换为嵌套配置
func etcdToMap(pairs map[string][]byte, prefix string) map[string]any {
	result := make(map[string]any)
	for key, raw := range pairs {
		if prefix != "" {
			key = strings.TrimPrefix(key, prefix)
		}
		key = strings.Trim(key, "/")
		if key == "" {
			continue
		}
		setNestedValue(result, strings.ReplaceAll(key, "/", ":"), parseEtcdValue(raw))
	}
	return result
}

func parseEtcdValue(raw []byte) any {
	var value any
	if err := json.Unmarshal(raw, &value); err == nil {
		return normalize(value)
	}
	if err := yaml.Unmarshal(raw, &value); err == nil && value != nil {
		if _, isString := value.(string); !isString {
			return normalize(value)
		}
	}
	return string(raw)
}
