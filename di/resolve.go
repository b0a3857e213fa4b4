package di

import (
	"fmt"
	"reflect"
)

// Resolve 获取服务并断言为 T
func Resolve[T any](c *Container, id string) (T, error) {
	var zero T
	service, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, &Error{Message: fmt.Sprintf("service %q is %T, not %v", id, service, reflect.TypeFor[T]())}
	}
	return typed, nil
}

// MustResolve 获取服务并断言为 T，失败时 panic
func MustResolve[T any](c *Container, id string) T {
	v, err := Resolve[T](c, id)
	if err != nil {
		panic(err)
	}
	return v
}
