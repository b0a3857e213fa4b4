// Package web 提供可在定义中按名称构建的 Gin 引擎与 Web 主机，
// 以及只读的容器诊断路由。
//
//	services:
//	  http.engine:
//	    class: gin.Engine
//	    args: {mode: debug}
//	    calls:
//	      - MountInspector: {prefix: /_di, container: {ref: this}}
//	  http.host:
//	    class: web.Host
//	    args: {engine: {ref: http.engine}, port: 8080, logger: {ref: logger}}
package web

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/container/di"
	"github.com/gocrud/container/logging"
)

const (
	// TypeEngine 是 *gin.Engine 的类型名
	TypeEngine = "gin.Engine"
	// TypeHost 是 *Host 的类型名
	TypeHost = "web.Host"
)

// NewEngine 创建带 panic 恢复中间件的 Gin 引擎
func NewEngine(mode string) (*gin.Engine, error) {
	switch mode {
	case "":
		mode = gin.ReleaseMode
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return nil, fmt.Errorf("unknown gin mode %q", mode)
	}
	gin.SetMode(mode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	return engine, nil
}

// Register 注册 gin.Engine 与 web.Host 类型
func Register(types *di.TypeRegistry) error {
	engine := di.NewFunc(NewEngine, di.Optional("mode", gin.ReleaseMode))

	mount := &di.Method{
		Name:   "MountInspector",
		Params: []di.Param{di.Optional("prefix", "/_di"), di.Required("container")},
		Invoke: func(instance any, args []any) error {
			c, ok := args[1].(*di.Container)
			if !ok {
				return fmt.Errorf("container must be *di.Container, got %T", args[1])
			}
			prefix := fmt.Sprint(args[0])
			Mount(instance.(*gin.Engine).Group(prefix), c)
			return nil
		},
	}

	if err := types.Register(di.NewTypeSpec(TypeEngine, engine, mount)); err != nil {
		return err
	}

	host := di.NewFunc(
		func(engine *gin.Engine, port int, logger logging.Logger) (*Host, error) {
			if engine == nil {
				return nil, fmt.Errorf("web host requires an engine")
			}
			return NewHost(engine, port, logger), nil
		},
		di.Required("engine"),
		di.Optional("port", 8080),
		di.Optional("logger", nil),
	)
	return types.Register(di.NewTypeSpec(TypeHost, host))
}
