package di

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 请求的服务未注册
	ErrNotFound = errors.New("di: service not found")
	// ErrContainer 除 ErrNotFound 以外的所有容器错误
	ErrContainer = errors.New("di: container error")
)

// ContainerError 是容器产生的两类错误共同实现的标记接口，
// 供上层框架识别“来自容器”的错误。
type ContainerError interface {
	error
	containerError()
}

// NotFoundError 表示按 ID（解析别名之后）未找到服务。
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("The service \"%s\" is not found", e.ID)
}

// Is 使 errors.Is(err, ErrNotFound) 成立
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) containerError() {}

// Error 是除 NotFound 之外的所有容器错误：不可变覆盖、别名自引用、
// 工厂/定义格式错误、参数无法解析等。
type Error struct {
	Message string
	// Err 是导致该错误的底层原因（可能为空）
	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrContainer) 成立
func (e *Error) Is(target error) bool {
	return target == ErrContainer
}

func (e *Error) containerError() {}

func newError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// IsNotFound 判断 err 是否为服务未找到错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// isContainerKind 判断 err 链上是否已经是容器自己的错误类型
func isContainerKind(err error) bool {
	var ce ContainerError
	return errors.As(err, &ce)
}

const (
	definitionPrefix = "Service could not be created from definition:"

	msgImmutable      = "A service by the name \"%s\" already exists and cannot be overridden"
	msgAliasSelf      = "Alias and service names can not be equals"
	msgFactoryInvalid = "Service could not be created: \"There were incorrectly " +
		"transmitted data when registering the service\"."
	msgFactoryFailed = "Service could not be created: \"Service factory may be " +
		"callable or string (that can be resolving to an " +
		"invokable class or to a FactoryInterface instance)."
	msgNoClass        = definitionPrefix + " option \"class\" is not exists in definition array."
	msgClassMissing   = definitionPrefix + " Class \"%s\" is not exists."
	msgNotInstantiate = definitionPrefix + " Unable to create instance of class \"%s\"."
	msgNoArgs         = definitionPrefix + " option \"args\" is not exists in definition array."
	msgNoMethod       = definitionPrefix + " can not call method \"%s\" from class: \"%s\""
	msgUnresolvable   = definitionPrefix + " unable resolve parameter."
	msgCircular       = definitionPrefix + " circular reference detected: %s"
)
