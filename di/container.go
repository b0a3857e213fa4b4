package di

import (
	"slices"
	"sort"
	"sync"

	"github.com/gocrud/container/logging"
)

// Container 是以字符串 ID 为键的服务容器。
//
// 服务可以是直接设置的值（Set）、惰性工厂（Register）或声明式定义
// （RegisterDefinition）。共享服务在第一次 Get 时构建并缓存，之后不可再覆盖；
// 瞬态服务每次 Get 都重新构建。
//
// 所有映射由同一把锁保护；构建服务时不持有锁，工厂和定义可以回调容器。
type Container struct {
	mu sync.RWMutex

	// keys ID -> 是否共享；存在即表示已注册
	keys map[string]bool
	// values 直接设置的值和已构建的共享服务
	values map[string]any
	// immutable 已构建的共享服务，不允许再覆盖
	immutable map[string]struct{}
	// factories 尚未构建的工厂
	factories map[string]any
	// definitions 尚未构建的定义
	definitions map[string]*Definition
	// aliases 别名 -> 服务 ID，只解析一层
	aliases map[string]string

	types  *TypeRegistry
	logger logging.Logger
}

// NewContainer 创建容器
func NewContainer(opts ...ContainerOption) *Container {
	c := &Container{
		keys:        make(map[string]bool),
		values:      make(map[string]any),
		immutable:   make(map[string]struct{}),
		factories:   make(map[string]any),
		definitions: make(map[string]*Definition),
		aliases:     make(map[string]string),
		types:       NewTypeRegistry(),
		logger:      logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Types 返回容器使用的类型注册表
func (c *Container) Types() *TypeRegistry {
	return c.types
}

// Get 按 ID 获取服务，必要时构建它。
func (c *Container) Get(id string) (any, error) {
	return c.get(id, nil)
}

// get 是 Get 的实现。path 是当前定义解析链上正在构建的 ID，用于发现循环引用。
func (c *Container) get(id string, path []string) (any, error) {
	c.mu.RLock()
	id = c.resolveAlias(id)
	shared, ok := c.keys[id]
	if !ok {
		c.mu.RUnlock()
		return nil, &NotFoundError{ID: id}
	}
	if value, ok := c.values[id]; ok {
		c.mu.RUnlock()
		return value, nil
	}
	factory, hasFactory := c.factories[id]
	def := c.definitions[id]
	c.mu.RUnlock()

	if slices.Contains(path, id) {
		return nil, newError(msgCircular, formatCycle(path, id))
	}

	var (
		service any
		err     error
	)
	if hasFactory {
		service, err = c.createFromFactory(id, factory)
	} else {
		service, err = c.createFromDefinition(id, def, path)
	}
	if err != nil {
		return nil, err
	}

	if !shared {
		c.logger.Trace("transient service created", logging.Field{Key: "id", Value: id})
		return service, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 并发构建时以先写入者为准，保证共享服务的同一性
	if existing, ok := c.values[id]; ok {
		return existing, nil
	}
	if _, still := c.keys[id]; !still {
		return service, nil
	}

	// 只有惰性构建的共享服务会变为不可变；Set 的值可以随时覆盖
	c.values[id] = service
	delete(c.factories, id)
	delete(c.definitions, id)
	c.immutable[id] = struct{}{}

	c.logger.Debug("shared service built", logging.Field{Key: "id", Value: id})
	return service, nil
}

// Set 直接设置服务值。已构建的共享服务不能被覆盖。
func (c *Container) Set(id string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.immutable[id]; ok {
		return newError(msgImmutable, id)
	}

	c.values[id] = value
	c.keys[id] = true
	delete(c.factories, id)
	delete(c.definitions, id)
	delete(c.aliases, id)

	c.logger.Debug("service set", logging.Field{Key: "id", Value: id})
	return nil
}

// Register 注册工厂，默认共享。
// 已经 Set 的值不会被清除，Get 仍然优先返回该值。
//
// factory 可以是：
//   - Factory 或 FactoryFunc
//   - func(*Container) any / func(*Container) (any, error)
//   - func() any / func() (any, error)
//   - 类型注册表中的类型名称，该类型能以零参数创建且实例本身是工厂
func (c *Container) Register(id string, factory any, opts ...RegisterOption) error {
	reg := newRegistration(opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.immutable[id]; ok {
		return newError(msgImmutable, id)
	}

	c.factories[id] = factory
	delete(c.definitions, id)
	c.keys[id] = reg.shared
	delete(c.aliases, id)

	c.logger.Debug("factory registered",
		logging.Field{Key: "id", Value: id},
		logging.Field{Key: "shared", Value: reg.shared})
	return nil
}

// RegisterDefinition 注册声明式定义，默认共享。
func (c *Container) RegisterDefinition(id string, def *Definition, opts ...RegisterOption) error {
	reg := newRegistration(opts)
	if def == nil {
		def = &Definition{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.immutable[id]; ok {
		return newError(msgImmutable, id)
	}

	c.definitions[id] = def
	delete(c.factories, id)
	c.keys[id] = reg.shared
	delete(c.aliases, id)

	c.logger.Debug("definition registered",
		logging.Field{Key: "id", Value: id},
		logging.Field{Key: "class", Value: def.Class},
		logging.Field{Key: "shared", Value: reg.shared})
	return nil
}

// Has 判断服务是否已注册（解析一层别名）
func (c *Container) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.keys[c.resolveAlias(id)]
	return ok
}

// IsShared 返回服务是否共享；ok 为 false 表示未注册
func (c *Container) IsShared(id string) (shared, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	shared, ok = c.keys[c.resolveAlias(id)]
	return shared, ok
}

// Remove 移除服务。如果 id 是别名，则删除该别名并移除其指向的服务。
// 移除不存在的服务不做任何事。
func (c *Container) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if target, ok := c.aliases[id]; ok {
		delete(c.aliases, id)
		id = target
	}

	delete(c.keys, id)
	delete(c.values, id)
	delete(c.immutable, id)
	delete(c.factories, id)
	delete(c.definitions, id)

	c.logger.Debug("service removed", logging.Field{Key: "id", Value: id})
}

// IDs 返回所有已注册的服务 ID（已排序）
func (c *Container) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.keys))
	for id := range c.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func formatCycle(path []string, id string) string {
	start := slices.Index(path, id)
	out := ""
	for _, p := range path[start:] {
		out += p + " -> "
	}
	return out + id
}
