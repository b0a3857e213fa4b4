package config

import (
	"slices"
	"strings"
	"sync"
)

// pathCache 缓存配置键的切分结果。
// 键支持 ":" 和 "." 两种分隔符，空片段被忽略，"a::b" 与 "a.b" 等价。
type pathCache struct {
	segments sync.Map // string -> []string
}

// split 返回 path 的片段。结果是副本，调用方可以修改。
func (c *pathCache) split(path string) []string {
	if v, ok := c.segments.Load(path); ok {
		return slices.Clone(v.([]string))
	}

	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == ':' || r == '.'
	})
	c.segments.Store(path, parts)
	return slices.Clone(parts)
}

var globalPathCache = &pathCache{}
