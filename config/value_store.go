package config

import "sync/atomic"

// valueStore 保存构建完成的配置树，读取无锁。
// Load 与 Lookup 返回共享数据，调用方不得修改；需要可修改的数据时使用 Snapshot。
type valueStore struct {
	data atomic.Pointer[map[string]any]
}

func newValueStore(data map[string]any) *valueStore {
	s := &valueStore{}
	s.Store(data)
	return s
}

// Load 返回当前配置树
func (s *valueStore) Load() map[string]any {
	if p := s.data.Load(); p != nil {
		return *p
	}
	return nil
}

// Snapshot 返回当前配置树的深拷贝
func (s *valueStore) Snapshot() map[string]any {
	return deepCopy(s.Load()).(map[string]any)
}

// Lookup 按路径片段逐层查找，中间节点不是 map 时返回 false
func (s *valueStore) Lookup(segments []string) (any, bool) {
	current := any(s.Load())
	for _, part := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

// Store 原子替换配置树，nil 视为空配置
func (s *valueStore) Store(data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	s.data.Store(&data)
}
