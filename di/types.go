package di

import (
	"fmt"
	"sort"
	"sync"
)

// Param 描述构造函数或方法的一个形参
type Param struct {
	Name     string
	Optional bool
	Default  any
}

// Required 创建必填参数
func Required(name string) Param {
	return Param{Name: name}
}

// Optional 创建带默认值的可选参数
func Optional(name string, def any) Param {
	return Param{Name: name, Optional: true, Default: def}
}

// Constructor 描述一个类型的构造方式：形参列表 + 以位置参数构建实例的函数。
type Constructor struct {
	Params []Param
	New    func(args []any) (any, error)
}

// Method 描述实例上可由定义 calls 调用的方法
type Method struct {
	Name   string
	Params []Param
	Invoke func(instance any, args []any) error
}

// TypeSpec 是一个可按名称构建的类型。
//
// Constructor 为 nil 表示该类型没有声明构造函数，此时使用 Zero 创建实例，
// 定义中的 args 会被忽略。Abstract 为 true，或 Constructor 与 Zero 都为空时，
// 该类型不可实例化。
type TypeSpec struct {
	Name        string
	Abstract    bool
	Constructor *Constructor
	Zero        func() (any, error)
	Methods     map[string]*Method
}

// NewTypeSpec 用构造函数和方法列表创建 TypeSpec
func NewTypeSpec(name string, ctor *Constructor, methods ...*Method) *TypeSpec {
	spec := &TypeSpec{
		Name:        name,
		Constructor: ctor,
		Methods:     make(map[string]*Method, len(methods)),
	}
	for _, m := range methods {
		spec.Methods[m.Name] = m
	}
	return spec
}

// ZeroOf 返回创建 *T 零值的 Zero 函数，用于没有构造函数的类型
func ZeroOf[T any]() func() (any, error) {
	return func() (any, error) {
		return new(T), nil
	}
}

func (s *TypeSpec) instantiable() bool {
	if s.Abstract {
		return false
	}
	return s.Constructor != nil || s.Zero != nil
}

func (s *TypeSpec) method(name string) (*Method, bool) {
	if s.Methods == nil {
		return nil, false
	}
	m, ok := s.Methods[name]
	return m, ok
}

// TypeRegistry 按类型名称保存 TypeSpec，替代运行时的“类名 -> 类型”查找。
// 可并发使用。
type TypeRegistry struct {
	mu    sync.RWMutex
	specs map[string]*TypeSpec
}

// NewTypeRegistry 创建空的类型注册表
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		specs: make(map[string]*TypeSpec),
	}
}

// Register 注册类型，同名类型重复注册返回错误
func (r *TypeRegistry) Register(spec *TypeSpec) error {
	if spec == nil || spec.Name == "" {
		return fmt.Errorf("di: type spec must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[spec.Name]; exists {
		return fmt.Errorf("di: type %q already registered", spec.Name)
	}
	r.specs[spec.Name] = spec
	return nil
}

// MustRegister 注册多个类型，失败时 panic
func (r *TypeRegistry) MustRegister(specs ...*TypeSpec) {
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
}

// Lookup 按名称查找类型
func (r *TypeRegistry) Lookup(name string) (*TypeSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.specs[name]
	return spec, ok
}

// Names 返回已注册的类型名称（已排序）
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
