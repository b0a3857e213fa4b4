// Package hosting 并发启动和停止容器中的托管服务。
package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocrud/container/di"
	"github.com/gocrud/container/logging"
)

// HostedService 托管服务接口
// 管理器会在独立的 goroutine 中调用 Start
type HostedService interface {
	// Start 启动服务。该方法应阻塞执行，直到 context 被取消或发生错误。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭逻辑。
	Stop(ctx context.Context) error
}

// BackgroundStarter 是 Start 立即返回、在后台运行的服务，例如 cron.Scheduler
type BackgroundStarter interface {
	Start()
	Stop(ctx context.Context) error
}

// Adapt 把 HostedService 或 BackgroundStarter 转换为 HostedService
func Adapt(v any) (HostedService, error) {
	switch s := v.(type) {
	case HostedService:
		return s, nil
	case BackgroundStarter:
		return &background{svc: s, stopped: make(chan struct{})}, nil
	default:
		return nil, fmt.Errorf("%T is not a hosted service", v)
	}
}

type background struct {
	svc     BackgroundStarter
	once    sync.Once
	stopped chan struct{}
}

func (b *background) Start(ctx context.Context) error {
	b.svc.Start()
	select {
	case <-ctx.Done():
	case <-b.stopped:
	}
	return nil
}

func (b *background) Stop(ctx context.Context) error {
	b.once.Do(func() { close(b.stopped) })
	return b.svc.Stop(ctx)
}

type namedService struct {
	name string
	svc  HostedService
}

// HostedServiceManager 托管服务管理器
type HostedServiceManager struct {
	services []namedService
	logger   logging.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewHostedServiceManager 创建托管服务管理器
func NewHostedServiceManager(logger logging.Logger) *HostedServiceManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HostedServiceManager{
		logger: logger.WithCategory("hosting"),
	}
}

// Add 添加托管服务
func (m *HostedServiceManager) Add(name string, service HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, namedService{name: name, svc: service})
}

// AddFromContainer 从容器解析服务并添加，ids 可以是别名
func (m *HostedServiceManager) AddFromContainer(c *di.Container, ids ...string) error {
	for _, id := range ids {
		v, err := c.Get(id)
		if err != nil {
			return err
		}
		svc, err := Adapt(v)
		if err != nil {
			return fmt.Errorf("service %q: %w", id, err)
		}
		m.Add(id, svc)
	}
	return nil
}

// Len 返回托管服务数量
func (m *HostedServiceManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.services)
}

// StartAll 启动所有托管服务，每个服务在独立的 goroutine 中启动。
// 返回的通道接收 Start 返回的错误（context 取消除外）。
func (m *HostedServiceManager) StartAll(ctx context.Context) <-chan error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errCh := make(chan error, len(m.services))

	m.logger.Info(fmt.Sprintf("Starting %d hosted services", len(m.services)))

	for _, s := range m.services {
		m.wg.Add(1)
		go func(s namedService) {
			defer m.wg.Done()

			m.logger.Debug(fmt.Sprintf("Starting hosted service '%s'", s.name))

			if err := s.svc.Start(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					m.logger.Debug(fmt.Sprintf("Hosted service '%s' stopped (context done)", s.name))
					return
				}
				m.logger.Error(fmt.Sprintf("Hosted service '%s' error", s.name),
					logging.Field{Key: "error", Value: err.Error()})
				errCh <- fmt.Errorf("hosted service '%s': %w", s.name, err)
				return
			}

			m.logger.Debug(fmt.Sprintf("Hosted service '%s' completed", s.name))
		}(s)
	}

	return errCh
}

// StopAll 反向并发停止所有托管服务，返回所有 Stop 错误
func (m *HostedServiceManager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.logger.Info(fmt.Sprintf("Stopping %d hosted services", len(m.services)))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := len(m.services) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(s namedService) {
			defer wg.Done()

			if err := s.svc.Stop(ctx); err != nil {
				m.logger.Error(fmt.Sprintf("Failed to stop hosted service '%s'", s.name),
					logging.Field{Key: "error", Value: err.Error()})
				mu.Lock()
				errs = append(errs, fmt.Errorf("hosted service '%s': %w", s.name, err))
				mu.Unlock()
				return
			}
			m.logger.Debug(fmt.Sprintf("Hosted service '%s' stopped", s.name))
		}(m.services[i])
	}
	wg.Wait()

	m.logger.Info("All hosted services stopped")
	return errors.Join(errs...)
}

// Wait 等待所有 Start 返回
func (m *HostedServiceManager) Wait() {
	m.wg.Wait()
}
