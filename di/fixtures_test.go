package di_test

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/gocrud/container/di"
	"github.com/gocrud/container/logging"
)

type A struct {
	some      string
	container *di.Container
}

func NewA(some string) *A {
	return &A{some: some}
}

func (a *A) Some() string                 { return a.some }
func (a *A) SetContainer(c *di.Container) { a.container = c }
func (a *A) Container() *di.Container     { return a.container }

type B struct {
	a *A
}

func NewB(a *A) *B {
	return &B{a: a}
}

func (b *B) A() *A { return b.a }

// MyFactory 每次返回一个随机数
type MyFactory struct{}

func (f *MyFactory) Create(*di.Container) (any, error) {
	return rand.Int63(), nil
}

// MyFactory2 返回 a+1（a 不存在时为 1）
type MyFactory2 struct{}

func (f *MyFactory2) Create(c *di.Container) (any, error) {
	val := 0
	if c.Has("a") {
		a, err := di.Resolve[int](c, "a")
		if err != nil {
			return nil, err
		}
		val = a
	}
	return val + 1, nil
}

// NotFactory 需要构造参数，无法零参数创建
type NotFactory struct {
	some string
}

func NewNotFactory(some string) *NotFactory {
	return &NotFactory{some: some}
}

// NotInvokable 可以零参数创建，但不是工厂
type NotInvokable struct{}

// NoConstructor 没有构造函数
type NoConstructor struct {
	called bool
}

func (n *NoConstructor) FooMethod() { n.called = true }

// OptionalParams 构造函数和方法的参数都是可选的
type OptionalParams struct {
	Name string
	Org  any
}

func NewOptionalParams(name string) *OptionalParams {
	return &OptionalParams{Name: name}
}

func (o *OptionalParams) SetOrg(org any) { o.Org = org }

// Node 用于构造引用链
type Node struct {
	Next any
}

func NewNode(next any) *Node {
	return &Node{Next: next}
}

// Mailer 用于参数类型转换
type Mailer struct {
	Host    string
	Port    int
	Timeout time.Duration
	TLS     bool
	Tags    []string
}

func NewMailer(host string, port int, timeout time.Duration, tls bool, tags []string) (*Mailer, error) {
	if host == "" {
		return nil, errors.New("host is required")
	}
	return &Mailer{Host: host, Port: port, Timeout: timeout, TLS: tls, Tags: tags}, nil
}

func newTypes() *di.TypeRegistry {
	types := di.NewTypeRegistry()
	types.MustRegister(
		di.NewTypeSpec("A",
			di.NewFunc(NewA, di.Required("some")),
			di.MethodByName("SetContainer", di.Required("c")),
		),
		di.NewTypeSpec("B", di.NewFunc(NewB, di.Required("a"))),
		&di.TypeSpec{Name: "MyFactory", Zero: di.ZeroOf[MyFactory]()},
		&di.TypeSpec{Name: "MyFactory2", Zero: di.ZeroOf[MyFactory2]()},
		di.NewTypeSpec("NotFactory", di.NewFunc(NewNotFactory, di.Required("some"))),
		&di.TypeSpec{Name: "NotInvokable", Zero: di.ZeroOf[NotInvokable]()},
		&di.TypeSpec{Name: "NotInstantiable", Abstract: true},
		&di.TypeSpec{Name: "NoConstructor", Zero: di.ZeroOf[NoConstructor]()},
		di.NewTypeSpec("OptionalParams",
			di.NewFunc(NewOptionalParams, di.Optional("name", "Alice")),
			di.MethodByName("SetOrg", di.Optional("org", "Acme")),
		),
		di.NewTypeSpec("Node", di.NewFunc(NewNode, di.Required("next"))),
		di.NewTypeSpec("Mailer", di.NewFunc(NewMailer,
			di.Required("host"),
			di.Optional("port", 25),
			di.Optional("timeout", "5s"),
			di.Optional("tls", false),
			di.Optional("tags", nil),
		)),
	)
	return types
}

func newContainer(opts ...di.ContainerOption) *di.Container {
	return di.NewContainer(append([]di.ContainerOption{di.WithTypes(newTypes())}, opts...)...)
}

// recordingLogger 记录所有日志消息
type recordingLogger struct {
	mu       sync.Mutex
	msgs     []string
	category string
}

func (l *recordingLogger) Trace(msg string, fields ...logging.Field) { l.Log(logging.LogLevelTrace, msg, fields...) }
func (l *recordingLogger) Debug(msg string, fields ...logging.Field) { l.Log(logging.LogLevelDebug, msg, fields...) }
func (l *recordingLogger) Info(msg string, fields ...logging.Field) { l.Log(logging.LogLevelInfo, msg, fields...) }
func (l *recordingLogger) Warn(msg string, fields ...logging.Field) { l.Log(logging.LogLevelWarn, msg, fields...) }
func (l *recordingLogger) Error(msg string, fields ...logging.Field) { l.Log(logging.LogLevelError, msg, fields...) }
func (l *recordingLogger) Fatal(msg string, fields ...logging.Field) { l.Log(logging.LogLevelFatal, msg, fields...) }

func (l *recordingLogger) Log(_ logging.LogLevel, msg string, _ ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *recordingLogger) WithFields(...logging.Field) logging.Logger { return l }

func (l *recordingLogger) WithCategory(category string) logging.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.category = category
	return l
}

func (l *recordingLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.msgs...)
}
