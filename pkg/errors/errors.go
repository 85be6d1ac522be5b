package errors

import "errors"

// ── 跨层共享错误 ──

var (
	// ErrUnsupportedDocument 文档扩展名不是 .txt / .pdf
	ErrUnsupportedDocument = errors.New("不支持的文档格式，仅支持 .txt 与 .pdf")
	// ErrCacheMiss 解析缓存未命中
	ErrCacheMiss = errors.New("解析缓存未命中")
	// ErrStorageDisabled 未启用数据库时调用了持久化功能
	ErrStorageDisabled = errors.New("未启用数据库存储")
)
