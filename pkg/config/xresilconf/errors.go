package xresilconf

import "errors"

// 配置加载与校验错误
var (
	// ErrEmptyPath 配置文件路径为空
	ErrEmptyPath = errors.New("xresilconf: config path cannot be empty")

	// ErrUnsupportedFormat 不支持的配置格式
	ErrUnsupportedFormat = errors.New("xresilconf: unsupported config format")

	// ErrLoadFailed 配置读取失败
	ErrLoadFailed = errors.New("xresilconf: failed to load config")

	// ErrParseFailed 配置解析失败
	ErrParseFailed = errors.New("xresilconf: failed to parse config")

	// ErrInvalidProfile 档案字段取值非法
	ErrInvalidProfile = errors.New("xresilconf: invalid profile")
)
