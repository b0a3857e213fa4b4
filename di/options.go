package di

import "github.com/gocrud/container/logging"

// ContainerOption 配置容器
type ContainerOption func(*Container)

// WithValues 预先放入一组共享的服务值（等价于逐个调用 Set）
func WithValues(values map[string]any) ContainerOption {
	return func(c *Container) {
		for id, value := range values {
			c.values[id] = value
			c.keys[id] = true
		}
	}
}

// WithTypes 设置定义和字符串工厂使用的类型注册表
func WithTypes(types *TypeRegistry) ContainerOption {
	return func(c *Container) {
		if types != nil {
			c.types = types
		}
	}
}

// WithLogger 设置容器日志
func WithLogger(logger logging.Logger) ContainerOption {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger.WithCategory("di")
		}
	}
}

// registration 保存 Register/RegisterDefinition 的选项
type registration struct {
	shared bool
}

// RegisterOption 配置服务注册
type RegisterOption func(*registration)

// WithShared 设置服务是否共享（单例）。默认共享。
func WithShared(shared bool) RegisterOption {
	return func(r *registration) {
		r.shared = shared
	}
}

// WithSingleton 注册为共享服务（默认）
func WithSingleton() RegisterOption {
	return WithShared(true)
}

// WithTransient 注册为瞬态服务，每次 Get 都重新创建
func WithTransient() RegisterOption {
	return WithShared(false)
}

func newRegistration(opts []RegisterOption) registration {
	reg := registration{shared: true}
	for _, opt := range opts {
		opt(&reg)
	}
	return reg
}
