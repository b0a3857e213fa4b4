package di

import (
	"fmt"
	"strconv"

	"github.com/gocrud/container/logging"
)

// createFromDefinition 按定义构建服务：
// 查找类型、解析构造参数并实例化，然后依次执行 calls。
func (c *Container) createFromDefinition(id string, def *Definition, path []string) (any, error) {
	if def == nil || def.Class == "" {
		return nil, newError(msgNoClass)
	}

	spec, ok := c.types.Lookup(def.Class)
	if !ok {
		return nil, newError(msgClassMissing, def.Class)
	}
	if !spec.instantiable() {
		return nil, newError(msgNotInstantiate, def.Class)
	}

	// 复制一份，避免兄弟参数共享底层数组
	path = append(path[:len(path):len(path)], id)

	instance, err := c.instantiate(spec, def, path)
	if err != nil {
		return nil, err
	}

	for _, call := range def.Calls {
		method, ok := spec.method(call.Method)
		if !ok {
			method, ok = reflectMethod(instance, call.Method)
		}
		if !ok {
			return nil, newError(msgNoMethod, call.Method, def.Class)
		}

		args, err := c.resolveArgs(method.Params, call.Args, path)
		if err != nil {
			return nil, err
		}
		if err := method.Invoke(instance, args); err != nil {
			return nil, wrapBuildErr(err, "call %s on class %q", call.Method, def.Class)
		}
	}

	c.logger.Trace("service built from definition",
		logging.Field{Key: "id", Value: id},
		logging.Field{Key: "class", Value: def.Class})
	return instance, nil
}

func (c *Container) instantiate(spec *TypeSpec, def *Definition, path []string) (any, error) {
	// 没有构造函数时忽略 args
	if spec.Constructor == nil {
		instance, err := spec.Zero()
		if err != nil {
			return nil, wrapBuildErr(err, "class %q", spec.Name)
		}
		return instance, nil
	}

	if def.Args == nil {
		return nil, newError(msgNoArgs)
	}

	args, err := c.resolveArgs(spec.Constructor.Params, def.Args, path)
	if err != nil {
		return nil, err
	}

	instance, err := spec.Constructor.New(args)
	if err != nil {
		return nil, wrapBuildErr(err, "class %q", spec.Name)
	}
	return instance, nil
}

// resolveArgs 按形参声明顺序把参数说明解析为位置参数列表。
// 每个形参先按名称、再按位置查找；找不到时可选形参取默认值，必填形参报错。
func (c *Container) resolveArgs(params []Param, spec Args, path []string) ([]any, error) {
	args := make([]any, 0, len(params))
	for i, p := range params {
		value, ok := spec[p.Name]
		if !ok {
			value, ok = spec[strconv.Itoa(i)]
		}
		if !ok {
			if p.Optional {
				args = append(args, p.Default)
				continue
			}
			return nil, newError(msgUnresolvable)
		}

		target, isRef := referenceOf(value)
		if !isRef {
			args = append(args, value)
			continue
		}

		resolved, err := c.resolveRef(target, path)
		if err != nil {
			return nil, err
		}
		args = append(args, resolved)
	}
	return args, nil
}

// resolveRef 解析 {"ref": X}：已注册的服务优先，其次 "this" 表示容器自身
func (c *Container) resolveRef(target any, path []string) (any, error) {
	id, ok := target.(string)
	if !ok {
		return nil, newError(msgUnresolvable)
	}
	if c.Has(id) {
		return c.get(id, path)
	}
	if id == This {
		return c, nil
	}
	return nil, newError(msgUnresolvable)
}

// wrapBuildErr 包装构造函数或方法返回的错误；容器自身的错误原样返回
func wrapBuildErr(err error, format string, args ...any) error {
	if isContainerKind(err) {
		return err
	}
	return &Error{
		Message: fmt.Sprintf("%s %s: %v", definitionPrefix, fmt.Sprintf(format, args...), err),
		Err:     err,
	}
}
