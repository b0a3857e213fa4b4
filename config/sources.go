package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// JsonFileSource JSON 文件配置源
type JsonFileSource struct {
	Path     string
	Optional bool
}

func (s *JsonFileSource) Name() string {
	return fmt.Sprintf("JsonFile(%s)", s.Path)
}

func (s *JsonFileSource) Load() (map[string]any, error) {
	data, err := readFile(s.Path, s.Optional)
	if data == nil || err != nil {
		return emptyOr(err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return result, nil
}

// YamlFileSource YAML 文件配置源
type YamlFileSource struct {
	Path     string
	Optional bool
}

func (s *YamlFileSource) Name() string {
	return fmt.Sprintf("YamlFile(%s)", s.Path)
}

func (s *YamlFileSource) Load() (map[string]any, error) {
	data, err := readFile(s.Path, s.Optional)
	if data == nil || err != nil {
		return emptyOr(err)
	}

	var result map[string]any
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return result, nil
}

// TomlFileSource TOML 文件配置源
type TomlFileSource struct {
	Path     string
	Optional bool
}

func (s *TomlFileSource) Name() string {
	return fmt.Sprintf("TomlFile(%s)", s.Path)
}

func (s *TomlFileSource) Load() (map[string]any, error) {
	data, err := readFile(s.Path, s.Optional)
	if data == nil || err != nil {
		return emptyOr(err)
	}

	var result map[string]any
	if _, err := toml.Decode(string(data), &result); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return result, nil
}

// DotEnvFileSource .env 文件配置源
type DotEnvFileSource struct {
	Path     string
	Prefix   string
	Optional bool
}

func (s *DotEnvFileSource) Name() string {
	return fmt.Sprintf("DotEnvFile(%s)", s.Path)
}

func (s *DotEnvFileSource) Load() (map[string]any, error) {
	vars, err := godotenv.Read(s.Path)
	if err != nil {
		if s.Optional && errors.Is(err, os.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, err
	}
	return envToMap(vars, s.Prefix), nil
}

// EnvironmentVariableSource 环境变量配置源。
// 去掉前缀后转为小写，"_" 作为层级分隔符：APP_REDIS_ADDR -> redis:addr
type EnvironmentVariableSource struct {
	Prefix string
}

func (s *EnvironmentVariableSource) Name() string {
	return fmt.Sprintf("EnvironmentVariables(%s)", s.Prefix)
}

func (s *EnvironmentVariableSource) Load() (map[string]any, error) {
	vars := make(map[string]string)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if ok {
			vars[key] = value
		}
	}
	return envToMap(vars, s.Prefix), nil
}

// InMemorySource 内存配置源
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string {
	return "InMemory"
}

func (s *InMemorySource) Load() (map[string]any, error) {
	return deepCopy(s.Data).(map[string]any), nil
}

// failedSource 在 Build 时报告添加配置源时发生的错误
type failedSource struct {
	name string
	err  error
}

func (s *failedSource) Name() string                  { return s.name }
func (s *failedSource) Load() (map[string]any, error) { return nil, s.err }

func fileSource(path string, optional bool) (ConfigurationSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return &JsonFileSource{Path: path, Optional: optional}, nil
	case ".yaml", ".yml":
		return &YamlFileSource{Path: path, Optional: optional}, nil
	case ".toml":
		return &TomlFileSource{Path: path, Optional: optional}, nil
	case ".env":
		return &DotEnvFileSource{Path: path, Optional: optional}, nil
	}
	return nil, fmt.Errorf("unsupported config file %q", path)
}

// readFile 读取文件；可选文件不存在时返回 nil, nil
func readFile(path string, optional bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func emptyOr(err error) (map[string]any, error) {
	if err != nil {
		return nil, err
	}
	return make(map[string]any), nil
}

func envToMap(vars map[string]string, prefix string) map[string]any {
	result := make(map[string]any)
	for key, value := range vars {
		if prefix != "" {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			key = strings.TrimPrefix(key, prefix)
		}
		key = strings.ToLower(strings.Trim(key, "_"))
		if key == "" {
			continue
		}
		setNestedValue(result, strings.ReplaceAll(key, "_", ":"), value)
	}
	return result
}

// setNestedValue 按 "a:b:c" 设置嵌套值，字符串会尝试转为整数、浮点数或布尔值
func setNestedValue(data map[string]any, path string, value any) {
	parts := strings.Split(path, ":")
	current := data

	for _, part := range parts[:len(parts)-1] {
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		m, ok := current[part].(map[string]any)
		if !ok {
			return
		}
		current = m
	}

	if s, ok := value.(string); ok {
		value = parseScalar(s)
	}
	current[parts[len(parts)-1]] = value
}

func parseScalar(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
