package xresilconf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置格式。
type Format string

// 支持的配置格式
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// document 配置文件的顶层结构。
type document struct {
	Default    Profile            `koanf:"default"`
	Operations map[string]Profile `koanf:"operations"`
}

// Registry 弹性策略档案注册表
//
// Registry 创建后只读，可在多个 goroutine 间并发使用。
type Registry struct {
	defaults   Profile
	operations map[string]Profile
}

// NewRegistry 从已解析的档案构建注册表。
// defaults 的零值字段先用 DefaultProfile 填充。
func NewRegistry(defaults Profile, operations map[string]Profile) *Registry {
	ops := make(map[string]Profile, len(operations))
	for key, p := range operations {
		ops[key] = p
	}
	return &Registry{
		defaults:   DefaultProfile().merge(defaults),
		operations: ops,
	}
}

// Load 从配置文件加载注册表，根据扩展名识别格式（.yaml/.yml/.json）。
func Load(path string) (*Registry, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return LoadBytes(data, format)
}

// LoadBytes 从字节数据加载注册表，需显式指定格式。
// 空数据返回只含默认档案的注册表。
func LoadBytes(data []byte, format Format) (*Registry, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := koanf.New(".")
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	var doc document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	r := NewRegistry(doc.Default, doc.Operations)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Default 返回默认档案。
func (r *Registry) Default() Profile {
	return r.defaults
}

// Profile 返回操作 key 的有效档案：命名档案叠加在默认档案之上，
// 零值字段继承默认值。未知 key 返回默认档案。
func (r *Registry) Profile(key string) Profile {
	override, ok := r.operations[key]
	if !ok {
		return r.defaults
	}
	return r.defaults.merge(override)
}

// Keys 返回显式配置了档案的操作 key，按字典序排列。
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.operations))
	for key := range r.operations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Validate 校验默认档案与每个操作的有效档案。
func (r *Registry) Validate() error {
	if err := r.defaults.Validate(); err != nil {
		return fmt.Errorf("default profile: %w", err)
	}
	for _, key := range r.Keys() {
		if err := r.Profile(key).Validate(); err != nil {
			return fmt.Errorf("operation %q: %w", key, err)
		}
	}
	return nil
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}
