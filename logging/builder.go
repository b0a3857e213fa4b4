package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Options 是配置文件中 logging 节的结构
type Options struct {
	Level     string `json:"level"`
	Format    string `json:"format"` // text | json
	Color     bool   `json:"color"`
	Timestamp *bool  `json:"timestamp"`
}

// LoggingBuilder 日志构建器
type LoggingBuilder struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewLoggingBuilder 创建日志构建器
func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{
		minimumLevel: LogLevelInfo,
	}
}

// SetMinimumLevel 设置最小日志级别
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minimumLevel = level
	return b
}

// AddProvider 添加日志提供者
func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers = append(b.providers, provider)
	return b
}

// AddConsole 添加控制台日志，默认带颜色的文本格式
func (b *LoggingBuilder) AddConsole(options ...ConsoleLoggerOptions) *LoggingBuilder {
	opts := ConsoleLoggerOptions{
		Formatter: &TextFormatter{
			IncludeTimestamp: true,
			TimestampFormat:  "2006-01-02 15:04:05",
			ColorOutput:      true,
		},
		Output: os.Stdout,
	}
	if len(options) > 0 {
		opts = options[0]
	}
	return b.AddProvider(NewConsoleLoggerProvider(opts))
}

// Configure 按配置设置级别并添加控制台输出
func (b *LoggingBuilder) Configure(opts Options, output io.Writer) error {
	level, err := ParseLogLevel(opts.Level)
	if err != nil {
		return err
	}

	var formatter Formatter
	switch opts.Format {
	case "", "text":
		tf := NewTextFormatter()
		tf.ColorOutput = opts.Color
		if opts.Timestamp != nil {
			tf.IncludeTimestamp = *opts.Timestamp
		}
		formatter = tf
	case "json":
		formatter = NewJsonFormatter()
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}

	b.SetMinimumLevel(level)
	b.AddConsole(ConsoleLoggerOptions{Formatter: formatter, Output: output})
	return nil
}

// Build 构建日志工厂
func (b *LoggingBuilder) Build() LoggerFactory {
	b.mu.RLock()
	defer b.mu.RUnlock()

	factory := &loggerFactory{
		minimumLevel: b.minimumLevel,
	}
	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}
	return factory
}
