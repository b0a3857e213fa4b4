package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/container/logging"
)

// Host Web 主机
type Host struct {
	port   int
	engine *gin.Engine
	logger logging.Logger

	mu        sync.RWMutex
	server    *http.Server
	addr      string
	ready     chan struct{}
	readyOnce sync.Once
}

// NewHost 创建 Web 主机，port 为 0 时随机选择端口
func NewHost(engine *gin.Engine, port int, logger logging.Logger) *Host {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Host{
		port:   port,
		engine: engine,
		logger: logger.WithCategory("web"),
		ready:  make(chan struct{}),
	}
}

// Engine 返回底层 Gin 引擎
func (h *Host) Engine() *gin.Engine {
	return h.engine
}

// Address 获取监听地址 (e.g., "[::]:50234")
// 仅在 Start 后有效
func (h *Host) Address() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.addr
}

// Ready 在第一次开始监听后关闭
func (h *Host) Ready() <-chan struct{} {
	return h.ready
}

// Start 启动 Web 主机
// 注意：此方法会阻塞，直到服务退出。Stop 之后可以再次 Start。
func (h *Host) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", h.port)
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", addr, err)
	}

	server := &http.Server{Handler: h.engine}
	h.mu.Lock()
	h.server = server
	h.addr = ln.Addr().String()
	h.mu.Unlock()
	h.readyOnce.Do(func() { close(h.ready) })

	h.logger.Info("Web host started", logging.Field{Key: "address", Value: ln.Addr().String()})

	// Serve 会一直阻塞直到 Shutdown 被调用或发生错误
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Error("Web host error", logging.Field{Key: "error", Value: err.Error()})
		return err
	}
	return nil
}

// Stop 停止 Web 主机
func (h *Host) Stop(ctx context.Context) error {
	h.mu.RLock()
	server := h.server
	h.mu.RUnlock()
	if server == nil {
		return nil
	}

	h.logger.Info("Stopping web host")

	if err := server.Shutdown(ctx); err != nil {
		h.logger.Error("Failed to shutdown web host gracefully",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	h.logger.Info("Web host stopped")
	return nil
}
