// Package cron 提供可在定义中按名称构建的定时任务调度器。
//
//	services:
//	  scheduler:
//	    class: cron.Scheduler
//	    args: {seconds: true, location: Asia/Shanghai, logger: {ref: logger}}
//	    calls:
//	      - AddJob: {spec: "0 */5 * * * *", name: sync, job: {ref: jobs.sync}}
//	      - Start: []
package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gocrud/container/di"
	"github.com/gocrud/container/logging"
	"github.com/robfig/cron/v3"
)

// TypeScheduler 是 *Scheduler 的类型名
const TypeScheduler = "cron.Scheduler"

// Options 调度器配置选项
type Options struct {
	// Location 时区设置，默认 UTC
	Location string
	// EnableSeconds 是否启用秒级精度（默认分钟级）
	EnableSeconds bool
	// Logger 日志记录器，nil 时不输出
	Logger logging.Logger
	// EnableCronLogger 是否启用 cron 库的内部调度日志（默认 false）
	EnableCronLogger bool
}

// Scheduler 定时任务调度器，任务按名称管理
type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger
	mu     sync.RWMutex
	jobs   map[string]cron.EntryID
}

// NewScheduler 创建调度器
func NewScheduler(opts Options) (*Scheduler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	location := time.UTC
	if opts.Location != "" {
		loc, err := time.LoadLocation(opts.Location)
		if err != nil {
			return nil, fmt.Errorf("invalid cron location %q: %w", opts.Location, err)
		}
		location = loc
	}

	cronOpts := []cron.Option{cron.WithLocation(location)}
	if opts.EnableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}
	cronOpts = append(cronOpts, cron.WithChain(
		cron.Recover(newCronLogger(logger)),
	))
	if opts.EnableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	return &Scheduler{
		cron:   cron.New(cronOpts...),
		logger: logger.WithCategory("cron"),
		jobs:   make(map[string]cron.EntryID),
	}, nil
}

// AddJob 添加定时任务。
// spec: cron 表达式，如 "0 */5 * * * *" (每5分钟，需启用秒级) 或 "@every 1h"
// job: func()、func() error 或 cron.Job
func (s *Scheduler) AddJob(spec, name string, job any) error {
	run, err := jobFunc(job)
	if err != nil {
		return fmt.Errorf("cron job '%s': %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron job '%s' already registered", name)
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug(fmt.Sprintf("Cron job '%s' started", name))
		if err := run(); err != nil {
			s.logger.Error(fmt.Sprintf("Cron job '%s' failed", name),
				logging.Field{Key: "error", Value: err.Error()})
			return
		}
		s.logger.Debug(fmt.Sprintf("Cron job '%s' completed", name))
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job '%s': %w", name, err)
	}

	s.jobs[name] = entryID
	s.logger.Info(fmt.Sprintf("Cron job '%s' registered with spec '%s'", name, spec))
	return nil
}

// RemoveJob 移除定时任务
func (s *Scheduler) RemoveJob(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.jobs[name]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, name)
		s.logger.Info(fmt.Sprintf("Cron job '%s' removed", name))
	}
}

// Jobs 返回已注册的任务名称（已排序）
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next 返回任务的下次执行时间
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.RLock()
	entryID, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return time.Time{}, false
	}
	return s.cron.Entry(entryID).Next, true
}

// Start 在后台启动调度
func (s *Scheduler) Start() {
	s.logger.Info(fmt.Sprintf("Scheduler starting with %d jobs", len(s.Jobs())))
	s.cron.Start()
}

// Stop 停止调度并等待运行中的任务结束或 ctx 超时
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("Scheduler stopping")

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func jobFunc(job any) (func() error, error) {
	switch j := job.(type) {
	case func():
		return func() error { j(); return nil }, nil
	case func() error:
		return j, nil
	case cron.Job:
		return func() error { j.Run(); return nil }, nil
	case nil:
		return nil, fmt.Errorf("job is required")
	default:
		return nil, fmt.Errorf("unsupported job type %T", job)
	}
}

// Register 注册 cron.Scheduler 类型
func Register(types *di.TypeRegistry) error {
	ctor := di.NewFunc(
		func(seconds bool, location string, logger logging.Logger) (*Scheduler, error) {
			return NewScheduler(Options{
				EnableSeconds: seconds,
				Location:      location,
				Logger:        logger,
			})
		},
		di.Optional("seconds", false),
		di.Optional("location", "UTC"),
		di.Optional("logger", nil),
	)

	addJob := &di.Method{
		Name:   "AddJob",
		Params: []di.Param{di.Required("spec"), di.Required("name"), di.Required("job")},
		Invoke: func(instance any, args []any) error {
			spec, ok := args[0].(string)
			if !ok {
				return fmt.Errorf("cron spec must be a string, got %T", args[0])
			}
			name := fmt.Sprint(args[1])
			return instance.(*Scheduler).AddJob(spec, name, args[2])
		},
	}

	start := &di.Method{
		Name: "Start",
		Invoke: func(instance any, _ []any) error {
			instance.(*Scheduler).Start()
			return nil
		},
	}

	return types.Register(di.NewTypeSpec(TypeScheduler, ctor, addJob, start))
}
