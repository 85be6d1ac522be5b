package model

import "time"

// ReportRun 一次报表生成 / 导入批次 — 对应 report_runs
type ReportRun struct {
	RunID             string    `gorm:"type:uuid;primaryKey"       json:"run_id"`
	MinDate           time.Time `gorm:"type:date;not null"         json:"min_date"`
	MaxDate           time.Time `gorm:"type:date;not null"         json:"max_date"`
	DocumentCount     int       `gorm:"not null"                   json:"document_count"`
	ShiftCount        int       `gorm:"not null"                   json:"shift_count"`
	SwapCount         int       `gorm:"not null"                   json:"swap_count"`
	DuplicatesDropped int       `gorm:"not null;default:0"         json:"duplicates_dropped"`
	BaseModel

	// 关联
	Shifts []ShiftEntry `gorm:"foreignKey:RunID;references:RunID" json:"shifts,omitempty"`
	Swaps  []SwapRecord `gorm:"foreignKey:RunID;references:RunID" json:"swaps,omitempty"`
}

// TableName 指定表名
func (ReportRun) TableName() string { return "report_runs" }
