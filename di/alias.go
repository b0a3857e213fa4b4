package di

import (
	"maps"

	"github.com/gocrud/container/logging"
)

// SetAlias 为服务设置别名，覆盖同名的旧别名。
// 创建时不检查目标是否存在，悬空的别名在解引用时才会失败。
func (c *Container) SetAlias(alias, serviceID string) error {
	if alias == serviceID {
		return newError(msgAliasSelf)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.aliases[alias] = serviceID
	c.logger.Debug("alias set",
		logging.Field{Key: "alias", Value: alias},
		logging.Field{Key: "id", Value: serviceID})
	return nil
}

// RemoveAlias 删除别名
func (c *Container) RemoveAlias(alias string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.aliases, alias)
}

// HasAlias 判断别名是否存在
func (c *Container) HasAlias(alias string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.aliases[alias]
	return ok
}

// Aliases 返回别名表的快照
func (c *Container) Aliases() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.aliases)
}

// ServiceIDFromAlias 返回别名指向的服务 ID，别名不存在时返回 def
func (c *Container) ServiceIDFromAlias(alias, def string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id, ok := c.aliases[alias]; ok {
		return id
	}
	return def
}

// resolveAlias 只解析一层别名。调用方必须持有锁。
func (c *Container) resolveAlias(id string) string {
	if target, ok := c.aliases[id]; ok {
		return target
	}
	return id
}
