package etcd_test

import (
	"testing"
	"time"

	"github.com/gocrud/container/di"
	"github.com/gocrud/container/etcd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
)

func newContainer(t *testing.T) *di.Container {
	t.Helper()
	types := di.NewTypeRegistry()
	require.NoError(t, etcd.Register(types))
	return di.NewContainer(di.WithTypes(types))
}

func TestClientFromDefinition(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.RegisterDefinition("etcd", &di.Definition{
		Class: etcd.TypeClient,
		Args: di.Args{
			"endpoints":    []any{"127.0.0.1:2379", "127.0.0.1:22379"},
			"dial_timeout": 1,
		},
	}))

	// clientv3.New 不会等待连接建立
	client, err := di.Resolve[*clientv3.Client](c, "etcd")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	assert.Equal(t, []string{"127.0.0.1:2379", "127.0.0.1:22379"}, client.Endpoints())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*etcd.ClientOptions)
		wantErr bool
	}{
		{"default", func(*etcd.ClientOptions) {}, false},
		{"no endpoints", func(o *etcd.ClientOptions) { o.Endpoints = nil }, true},
		{"zero timeout", func(o *etcd.ClientOptions) { o.DialTimeout = 0 }, true},
		{"negative timeout", func(o *etcd.ClientOptions) { o.DialTimeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := etcd.DefaultOptions()
			tt.modify(opts)
			err := opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigAuth(t *testing.T) {
	opts := etcd.DefaultOptions()
	opts.Password = "secret"
	assert.Empty(t, opts.Config().Password)

	opts.Username = "root"
	cfg := opts.Config()
	assert.Equal(t, "root", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
}

func TestEmptyEndpoints(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.RegisterDefinition("etcd", &di.Definition{
		Class: etcd.TypeClient,
		Args:  di.Args{"endpoints": []any{}},
	}))

	_, err := c.Get("etcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd endpoints are required")
}
