package di

import "strconv"

// This 是引用容器自身的特殊 ID：{"ref": "this"}
const This = "this"

// refKey 是引用标记的唯一键
const refKey = "ref"

// Args 是构造函数或方法的参数说明。
// 键可以是形参名称，也可以是十进制位置（"0", "1", ...）；解析时名称优先。
//
// nil 表示定义中没有 args，空 map 表示 args 存在但为空，两者在
// 需要构造函数参数的类型上行为不同。
type Args map[string]any

// Positional 按位置创建参数
func Positional(values ...any) Args {
	args := make(Args, len(values))
	for i, v := range values {
		args[strconv.Itoa(i)] = v
	}
	return args
}

// Ref 创建对另一个服务的引用标记
func Ref(id string) map[string]any {
	return map[string]any{refKey: id}
}

// Call 是实例创建后要调用的方法
type Call struct {
	Method string
	Args   Args
}

// Definition 是声明式的服务构建说明：类型名 + 构造参数 + 创建后的方法调用。
type Definition struct {
	Class string
	Args  Args
	Calls []Call
}

// referenceOf 判断 value 是否为形如 {"ref": X} 的单键引用标记
func referenceOf(value any) (target any, ok bool) {
	switch m := value.(type) {
	case map[string]any:
		if len(m) != 1 {
			return nil, false
		}
		target, ok = m[refKey]
		return target, ok
	case Args:
		if len(m) != 1 {
			return nil, false
		}
		target, ok = m[refKey]
		return target, ok
	case map[any]any:
		if len(m) != 1 {
			return nil, false
		}
		target, ok = m[refKey]
		return target, ok
	}
	return nil, false
}
