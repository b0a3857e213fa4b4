// Package container 组装配置、日志、类型注册表与服务容器。
//
//	c, err := container.NewBuilder().
//		ConfigureConfiguration(func(b *config.ConfigurationBuilder) {
//			b.AddYamlFile("services.yaml").AddEnvironmentVariables("APP_")
//		}).
//		AddTypes(func(types *di.TypeRegistry) error {
//			return types.Register(di.NewTypeSpec("Mailer", di.NewFunc(NewMailer, di.Required("host"))))
//		}).
//		Build()
package container

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gocrud/container/config"
	"github.com/gocrud/container/cron"
	"github.com/gocrud/container/database"
	"github.com/gocrud/container/di"
	"github.com/gocrud/container/etcd"
	"github.com/gocrud/container/loader"
	"github.com/gocrud/container/logging"
	"github.com/gocrud/container/mongodb"
	"github.com/gocrud/container/redis"
	"github.com/gocrud/container/web"
)

// 容器中预先注册的服务 ID
const (
	ConfigID        = "config"
	LoggerID        = "logger"
	LoggerFactoryID = "logger.factory"
)

// SectionLogging 是日志配置节，结构见 logging.Options
const SectionLogging = "logging"

// Catalog 注册内置的基础设施类型：redis.Client、gorm.DB、mongo.Client、
// mgo.Client、etcd.Client、cron.Scheduler、gin.Engine、web.Host
func Catalog(types *di.TypeRegistry) error {
	for _, register := range []func(*di.TypeRegistry) error{
		redis.Register,
		database.Register,
		mongodb.Register,
		etcd.Register,
		cron.Register,
		web.Register,
	} {
		if err := register(types); err != nil {
			return err
		}
	}
	return nil
}

// Builder 容器构建器
type Builder struct {
	configBuilder  *config.ConfigurationBuilder
	loggingBuilder *logging.LoggingBuilder
	typeRegistrars []func(*di.TypeRegistry) error
	logOutput      io.Writer
	catalog        bool
	mu             sync.Mutex
}

// NewBuilder 创建容器构建器，默认包含内置类型
func NewBuilder() *Builder {
	return &Builder{
		configBuilder:  config.NewConfigurationBuilder(),
		loggingBuilder: logging.NewLoggingBuilder(),
		logOutput:      os.Stdout,
		catalog:        true,
	}
}

// ConfigureConfiguration 配置配置系统
func (b *Builder) ConfigureConfiguration(configure func(*config.ConfigurationBuilder)) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.configBuilder)
	}
	return b
}

// ConfigureLogging 配置日志系统
func (b *Builder) ConfigureLogging(configure func(*logging.LoggingBuilder)) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.loggingBuilder)
	}
	return b
}

// UseLogOutput 设置 logging 配置节所添加的控制台输出，默认 os.Stdout
func (b *Builder) UseLogOutput(w io.Writer) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logOutput = w
	return b
}

// WithoutCatalog 不注册内置类型
func (b *Builder) WithoutCatalog() *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalog = false
	return b
}

// AddTypes 添加类型注册函数，在 Build 时按添加顺序执行
func (b *Builder) AddTypes(registrars ...func(*di.TypeRegistry) error) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.typeRegistrars = append(b.typeRegistrars, registrars...)
	return b
}

// Build 构建配置、日志和类型注册表，创建容器并加载配置中的服务。
//
// 配置注册为 "config"，日志注册为 "logger"，日志工厂注册为 "logger.factory"。
// 配置中的 services 可以通过 {ref: logger} 等引用它们。
func (b *Builder) Build() (*di.Container, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg, err := b.configBuilder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build configuration: %w", err)
	}

	if cfg.Raw(SectionLogging) != nil {
		opts, err := config.Load[logging.Options](cfg, SectionLogging)
		if err != nil {
			return nil, fmt.Errorf("invalid %s section: %w", SectionLogging, err)
		}
		if err := b.loggingBuilder.Configure(opts, b.logOutput); err != nil {
			return nil, fmt.Errorf("invalid %s section: %w", SectionLogging, err)
		}
	}

	loggerFactory := b.loggingBuilder.Build()
	logger := loggerFactory.CreateLogger("container")

	types := di.NewTypeRegistry()
	if b.catalog {
		if err := Catalog(types); err != nil {
			return nil, err
		}
	}
	for _, register := range b.typeRegistrars {
		if err := register(types); err != nil {
			return nil, fmt.Errorf("failed to register types: %w", err)
		}
	}

	c := di.NewContainer(
		di.WithTypes(types),
		di.WithLogger(logger),
		di.WithValues(map[string]any{
			ConfigID:        cfg,
			LoggerID:        logger,
			LoggerFactoryID: loggerFactory,
		}),
	)

	if err := loader.Load(cfg, c); err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}

	logger.Info("Container built",
		logging.Field{Key: "services", Value: len(c.IDs())},
		logging.Field{Key: "types", Value: len(types.Names())})
	return c, nil
}
