package container

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocrud/container/di"
	"github.com/gocrud/container/hosting"
	"github.com/gocrud/container/logging"
)

// ShutdownTimeout 是 Run 优雅关闭的超时时间
var ShutdownTimeout = 5 * time.Second

// Run 启动容器中 hosted 指定的托管服务（如 web.Host、cron.Scheduler），
// 阻塞直到 ctx 取消、收到退出信号或某个服务出错，然后优雅关闭。
func Run(ctx context.Context, c *di.Container, hosted ...string) error {
	logger := logging.NewNopLogger()
	if c.Has(LoggerID) {
		if l, err := di.Resolve[logging.Logger](c, LoggerID); err == nil {
			logger = l
		}
	}

	manager := hosting.NewHostedServiceManager(logger)
	if err := manager.AddFromContainer(c, hosted...); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := manager.StartAll(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	stopErr := manager.StopAll(shutdownCtx)
	cancel()
	manager.Wait()

	if runErr != nil {
		return runErr
	}
	return stopErr
}
