package di

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/golobby/cast"
)

var (
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	durationType = reflect.TypeOf(time.Duration(0))
)

// NewFunc 将 Go 构造函数包装为 Constructor。
// params 按位置与 fn 的形参一一对应；fn 的最后一个返回值可以是 error。
//
// 示例：
//
//	di.NewFunc(NewMailer, di.Required("host"), di.Optional("port", 25))
func NewFunc(fn any, params ...Param) *Constructor {
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		panic(fmt.Sprintf("di: NewFunc expects a function, got %T", fn))
	}

	fnType := fnVal.Type()
	if fnType.NumIn() != len(params) {
		panic(fmt.Sprintf("di: %v takes %d arguments but %d params were declared", fnType, fnType.NumIn(), len(params)))
	}
	if fnType.NumOut() == 0 {
		panic(fmt.Sprintf("di: constructor %v must return at least one value", fnType))
	}

	return &Constructor{
		Params: params,
		New: func(args []any) (any, error) {
			results, err := callFunc(fnVal, args)
			if err != nil {
				return nil, err
			}
			return results[0].Interface(), nil
		},
	}
}

// MethodByName 通过反射调用实例上名为 name 的方法。
// params 按位置与方法形参一一对应。
func MethodByName(name string, params ...Param) *Method {
	return &Method{
		Name:   name,
		Params: params,
		Invoke: func(instance any, args []any) error {
			m, ok := boundMethod(instance, name)
			if !ok {
				return fmt.Errorf("method %s not found on %T", name, instance)
			}
			_, err := callFunc(m, args)
			return err
		},
	}
}

// reflectMethod 为 TypeSpec 未声明的导出方法生成 Method。
// 形参没有名字，只能按位置（"0", "1", ...）解析。
func reflectMethod(instance any, name string) (*Method, bool) {
	m, ok := boundMethod(instance, name)
	if !ok {
		return nil, false
	}

	mt := m.Type()
	params := make([]Param, mt.NumIn())
	for i := range params {
		params[i] = Required(strconv.Itoa(i))
	}
	return MethodByName(name, params...), true
}

func boundMethod(instance any, name string) (reflect.Value, bool) {
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	m := v.MethodByName(name)
	return m, m.IsValid()
}

// callFunc 转换参数并调用函数。
// 如果最后一个返回值是非 nil 的 error，则返回该错误。
func callFunc(fn reflect.Value, args []any) ([]reflect.Value, error) {
	fnType := fn.Type()
	if len(args) != fnType.NumIn() {
		return nil, fmt.Errorf("%v expects %d arguments, got %d", fnType, fnType.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := convertArg(arg, fnType.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}

	var results []reflect.Value
	if fnType.IsVariadic() {
		results = fn.CallSlice(in)
	} else {
		results = fn.Call(in)
	}

	if n := len(results); n > 0 {
		last := results[n-1]
		if last.Type().Implements(errorType) {
			if !last.IsNil() {
				return nil, last.Interface().(error)
			}
			results = results[:n-1]
		}
	}
	return results, nil
}

// convertArg 把定义中的原始值转换为目标形参类型。
// 配置文件里的值通常是 string/int/float64/[]any/map[string]any，需要按目标类型转换。
func convertArg(value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(target) {
		return v, nil
	}

	if s, ok := value.(string); ok {
		return convertString(s, target)
	}

	switch {
	case isScalar(v.Kind()) && isScalar(target.Kind()) && v.Type().ConvertibleTo(target):
		if target == durationType {
			// 数字视为秒
			return reflect.ValueOf(time.Duration(v.Convert(reflect.TypeOf(float64(0))).Float() * float64(time.Second))), nil
		}
		if isFloat(v.Kind()) && isInteger(target.Kind()) {
			if f := v.Float(); f != math.Trunc(f) {
				return reflect.Value{}, fmt.Errorf("cannot use %v as %v: fractional part would be lost", f, target)
			}
		}
		return v.Convert(target), nil

	case target.Kind() == reflect.Slice && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array):
		out := reflect.MakeSlice(target, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := convertArg(v.Index(i).Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out.Index(i).Set(elem)
		}
		return out, nil

	case target.Kind() == reflect.Map && v.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(target, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := convertArg(iter.Key().Interface(), target.Key())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key().Interface(), err)
			}
			elem, err := convertArg(iter.Value().Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %v: %w", iter.Key().Interface(), err)
			}
			out.SetMapIndex(key, elem)
		}
		return out, nil
	}

	return reflect.Value{}, fmt.Errorf("cannot use %T as %v", value, target)
}

func convertString(s string, target reflect.Type) (reflect.Value, error) {
	if target == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(d), nil
	}

	if !isScalar(target.Kind()) && target.Kind() != reflect.String {
		return reflect.Value{}, fmt.Errorf("cannot use string %q as %v", s, target)
	}

	converted, err := cast.FromType(s, target)
	if err != nil {
		return reflect.Value{}, err
	}
	cv := reflect.ValueOf(converted)
	if !cv.Type().ConvertibleTo(target) {
		return reflect.Value{}, fmt.Errorf("cannot use string %q as %v", s, target)
	}
	return cv.Convert(target), nil
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
