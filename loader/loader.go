// Package loader 把配置中的 parameters、services、aliases 三个节注册到容器。
//
//	parameters:
//	  mailer.host: smtp.local
//	services:
//	  mailer:
//	    class: Mailer
//	    args: {host: {ref: mailer.host}, port: 2525}
//	    calls:
//	      - SetLogger: [{ref: logger}]
//	  cache:
//	    factory: CacheFactory
//	    shared: false
//	aliases:
//	  mail: mailer
package loader

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/gocrud/container/config"
	"github.com/gocrud/container/di"
)

const (
	SectionParameters = "parameters"
	SectionServices   = "services"
	SectionAliases    = "aliases"
)

// Load 读取配置并注册到容器。按 id 排序注册，结果与配置源的顺序无关。
func Load(cfg config.Configuration, c *di.Container) error {
	if err := loadParameters(cfg, c); err != nil {
		return err
	}
	if err := loadServices(cfg, c); err != nil {
		return err
	}
	return loadAliases(cfg, c)
}

func loadParameters(cfg config.Configuration, c *di.Container) error {
	params, err := section(cfg, SectionParameters)
	if err != nil {
		return err
	}
	for _, id := range sortedKeys(params) {
		if err := c.Set(id, params[id]); err != nil {
			return fmt.Errorf("parameter %q: %w", id, err)
		}
	}
	return nil
}

func loadServices(cfg config.Configuration, c *di.Container) error {
	services, err := section(cfg, SectionServices)
	if err != nil {
		return err
	}

	for _, id := range sortedKeys(services) {
		raw, ok := services[id].(map[string]any)
		if !ok {
			return fmt.Errorf("service %q: expected a map, got %T", id, services[id])
		}
		if err := registerService(c, id, raw); err != nil {
			return fmt.Errorf("service %q: %w", id, err)
		}
	}
	return nil
}

func registerService(c *di.Container, id string, raw map[string]any) error {
	shared := true
	if v, ok := raw["shared"]; ok {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("shared must be a bool, got %T", v)
		}
		shared = b
	}

	if factory, ok := raw["factory"]; ok {
		name, ok := factory.(string)
		if !ok || name == "" {
			return fmt.Errorf("factory must be a type name, got %v", factory)
		}
		return c.Register(id, name, di.WithShared(shared))
	}

	def, err := ParseDefinition(raw)
	if err != nil {
		return err
	}
	return c.RegisterDefinition(id, def, di.WithShared(shared))
}

func loadAliases(cfg config.Configuration, c *di.Container) error {
	aliases, err := section(cfg, SectionAliases)
	if err != nil {
		return err
	}
	for _, alias := range sortedKeys(aliases) {
		target, ok := aliases[alias].(string)
		if !ok {
			return fmt.Errorf("alias %q: target must be a string, got %T", alias, aliases[alias])
		}
		if err := c.SetAlias(alias, target); err != nil {
			return fmt.Errorf("alias %q: %w", alias, err)
		}
	}
	return nil
}

// ParseDefinition 把解码后的配置转换为定义。
//
// args 为列表时按位置，为 map 时保留键（整数键视为位置）；
// calls 为单键 map 的列表时按列表顺序执行，为 map 时按方法名排序执行。
// 缺少 class 不在这里报错，由容器在构建时报告。
func ParseDefinition(raw map[string]any) (*di.Definition, error) {
	def := &di.Definition{}

	if v, ok := raw["class"]; ok {
		class, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("class must be a string, got %T", v)
		}
		def.Class = class
	}

	if v, ok := raw["args"]; ok {
		args, err := ParseArgs(v)
		if err != nil {
			return nil, fmt.Errorf("args: %w", err)
		}
		def.Args = args
	}

	if v, ok := raw["calls"]; ok && v != nil {
		calls, err := parseCalls(v)
		if err != nil {
			return nil, fmt.Errorf("calls: %w", err)
		}
		def.Calls = calls
	}

	return def, nil
}

// ParseArgs 转换参数说明。nil 返回空（但非 nil）的 Args。
func ParseArgs(raw any) (di.Args, error) {
	switch v := raw.(type) {
	case nil:
		return di.Args{}, nil
	case []any:
		return di.Positional(v...), nil
	case map[string]any:
		args := make(di.Args, len(v))
		for k, item := range v {
			args[k] = item
		}
		return args, nil
	case map[any]any:
		args := make(di.Args, len(v))
		for k, item := range v {
			switch key := k.(type) {
			case string:
				args[key] = item
			case int:
				args[strconv.Itoa(key)] = item
			default:
				return nil, fmt.Errorf("unsupported key %v (%T)", k, k)
			}
		}
		return args, nil
	}
	return nil, fmt.Errorf("expected a list or a map, got %T", raw)
}

func parseCalls(raw any) ([]di.Call, error) {
	switch v := raw.(type) {
	case []any:
		calls := make([]di.Call, 0, len(v))
		for i, item := range v {
			entry, ok := item.(map[string]any)
			if !ok || len(entry) != 1 {
				return nil, fmt.Errorf("item %d: expected a single-entry map", i)
			}
			for method, args := range entry {
				call, err := parseCall(method, args)
				if err != nil {
					return nil, err
				}
				calls = append(calls, call)
			}
		}
		return calls, nil

	case map[string]any:
		calls := make([]di.Call, 0, len(v))
		for _, method := range sortedKeys(v) {
			call, err := parseCall(method, v[method])
			if err != nil {
				return nil, err
			}
			calls = append(calls, call)
		}
		return calls, nil
	}
	return nil, fmt.Errorf("expected a list or a map, got %T", raw)
}

// parseCall 转换单个方法调用；参数不是列表或 map 时视为空
func parseCall(method string, raw any) (di.Call, error) {
	call := di.Call{Method: method}
	switch raw.(type) {
	case []any, map[string]any, map[any]any:
		args, err := ParseArgs(raw)
		if err != nil {
			return call, fmt.Errorf("%s: %w", method, err)
		}
		call.Args = args
	}
	return call, nil
}

// section 返回配置节；不存在时返回 nil
func section(cfg config.Configuration, key string) (map[string]any, error) {
	raw := cfg.Raw(key)
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a map, got %T", key, raw)
	}
	return m, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
