package di

import (
	"fmt"

	"github.com/gocrud/container/logging"
)

// Factory 按需创建服务
type Factory interface {
	Create(c *Container) (any, error)
}

// FactoryFunc 让普通函数实现 Factory
type FactoryFunc func(c *Container) (any, error)

// Create 实现 Factory
func (f FactoryFunc) Create(c *Container) (any, error) {
	return f(c)
}

// factoryOf 把注册时传入的工厂值统一为 Factory
func factoryOf(factory any) (Factory, bool) {
	switch f := factory.(type) {
	case Factory:
		return f, true
	case func(*Container) (any, error):
		return FactoryFunc(f), true
	case func(*Container) any:
		return FactoryFunc(func(c *Container) (any, error) { return f(c), nil }), true
	case func() (any, error):
		return FactoryFunc(func(*Container) (any, error) { return f() }), true
	case func() any:
		return FactoryFunc(func(*Container) (any, error) { return f(), nil }), true
	}
	return nil, false
}

// createFromFactory 调用工厂构建服务。
//
// 类型名无法解析或工厂不可调用时返回 msgFactoryInvalid；容器自身的错误原样返回；
// 其他失败（零参数创建失败、工厂返回错误或 panic）统一为 msgFactoryFailed，
// 原始原因只记录到日志。
func (c *Container) createFromFactory(id string, factory any) (service any, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("factory panicked",
				logging.Field{Key: "id", Value: id},
				logging.Field{Key: "panic", Value: r})
			service, err = nil, newError(msgFactoryFailed)
		}
	}()

	if name, ok := factory.(string); ok {
		factory, err = c.instantiateFactory(id, name)
		if err != nil {
			return nil, err
		}
	}

	f, ok := factoryOf(factory)
	if !ok {
		c.logger.Debug("factory is not invocable",
			logging.Field{Key: "id", Value: id},
			logging.Field{Key: "type", Value: fmt.Sprintf("%T", factory)})
		return nil, newError(msgFactoryInvalid)
	}

	service, err = f.Create(c)
	if err != nil {
		if isContainerKind(err) {
			return nil, err
		}
		c.logger.Debug("factory failed",
			logging.Field{Key: "id", Value: id},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, newError(msgFactoryFailed)
	}
	return service, nil
}

// instantiateFactory 按类型名零参数创建工厂实例
func (c *Container) instantiateFactory(id, name string) (any, error) {
	spec, ok := c.types.Lookup(name)
	if !ok {
		c.logger.Debug("factory type cannot be resolved",
			logging.Field{Key: "id", Value: id},
			logging.Field{Key: "type", Value: name})
		return nil, newError(msgFactoryInvalid)
	}
	if !spec.instantiable() {
		return nil, newError(msgFactoryFailed)
	}

	instance, err := instantiateZero(spec)
	if err != nil {
		c.logger.Debug("factory type cannot be instantiated",
			logging.Field{Key: "id", Value: id},
			logging.Field{Key: "type", Value: name},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, newError(msgFactoryFailed)
	}

	return instance, nil
}

// instantiateZero 以零参数创建类型实例；构造函数的形参必须全部可选
func instantiateZero(spec *TypeSpec) (any, error) {
	if spec.Constructor == nil {
		return spec.Zero()
	}

	args := make([]any, len(spec.Constructor.Params))
	for i, p := range spec.Constructor.Params {
		if !p.Optional {
			return nil, fmt.Errorf("type %s requires parameter %q", spec.Name, p.Name)
		}
		args[i] = p.Default
	}
	return spec.Constructor.New(args)
}
