package loader

import (
	"fmt"

	"github.com/gocrud/container/config"
	"github.com/gocrud/container/di"
)

// BindSection 把配置节绑定为 *T 并以 id 放入容器
func BindSection[T any](cfg config.Configuration, c *di.Container, id, section string) (*T, error) {
	settings, err := config.Load[T](cfg, section)
	if err != nil {
		return nil, fmt.Errorf("config: failed to bind section '%s': %w", section, err)
	}
	if err := c.Set(id, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
