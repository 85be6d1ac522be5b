package dto

// ── 报表模块 DTO ──

// PaginationRequest 分页查询参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Normalize 填充默认值
func (p *PaginationRequest) Normalize() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
}

// Offset 分页偏移量
func (p *PaginationRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ── 响应 ──

// RankItem 排名条目（工时取整）
type RankItem struct {
	Name  string `json:"name"`
	Hours int    `json:"hours"`
}

// WeekRanking 单周排名
type WeekRanking struct {
	WeekStart string     `json:"week_start"`
	Ranking   []RankItem `json:"ranking"`
}

// PayPeriodRanking 单个发薪周期排名
type PayPeriodRanking struct {
	Index     int        `json:"index"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Ranking   []RankItem `json:"ranking"`
}

// DayTotalResponse 单日总工时
type DayTotalResponse struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// SwapResponse 换班记录
type SwapResponse struct {
	Date             string `json:"date"`
	Period           string `json:"period"`
	StartTime        string `json:"start"`
	EndTime          string `json:"end"`
	OriginalEmployee string `json:"original_employee"`
	CoveringEmployee string `json:"covering_employee"`
	Reason           string `json:"reason"`
	ReasonRaw        string `json:"reason_raw,omitempty"`
	Notes            string `json:"notes,omitempty"`
	ShiftCode        string `json:"shift_code"`
	SourceFile       string `json:"source_file"`
}

// DocumentStatsResponse 单文档解析统计
type DocumentStatsResponse struct {
	SourceFile     string         `json:"source_file"`
	Forwarded      int            `json:"forwarded"`
	Extracted      int            `json:"extracted"`
	DateAnchors    int            `json:"date_anchors"`
	InvalidAnchors int            `json:"invalid_anchors"`
	AdminLines     int            `json:"admin_lines"`
	Skipped        map[string]int `json:"skipped,omitempty"`
	Swaps          int            `json:"swaps"`
	SwapDropped    map[string]int `json:"swap_dropped,omitempty"`
	Cached         bool           `json:"cached"`
	Error          string         `json:"error,omitempty"`
}

// SummaryResponse 报表摘要
type SummaryResponse struct {
	MinDate           string                  `json:"min_date"`
	MaxDate           string                  `json:"max_date"`
	ShiftCount        int                     `json:"shift_count"`
	SwapCount         int                     `json:"swap_count"`
	DuplicatesDropped int                     `json:"duplicates_dropped"`
	People            []string                `json:"people"`
	AllTime           []RankItem              `json:"all_time"`
	Weeks             []WeekRanking           `json:"weeks"`
	PayPeriods        []PayPeriodRanking      `json:"pay_periods"`
	BusiestDay        *DayTotalResponse       `json:"busiest_day,omitempty"`
	Swaps             []SwapResponse          `json:"swaps"`
	Documents         []DocumentStatsResponse `json:"documents"`
}

// HeatmapResponse 人 × 周 工时矩阵
type HeatmapResponse struct {
	People []string    `json:"people"`
	Weeks  []string    `json:"weeks"`
	Values [][]float64 `json:"values"`
}

// ReportRunResponse 已入库的报表批次
type ReportRunResponse struct {
	RunID             string `json:"run_id"`
	MinDate           string `json:"min_date"`
	MaxDate           string `json:"max_date"`
	DocumentCount     int    `json:"document_count"`
	ShiftCount        int    `json:"shift_count"`
	SwapCount         int    `json:"swap_count"`
	DuplicatesDropped int    `json:"duplicates_dropped"`
	CreatedAt         string `json:"created_at"`
}

// ShiftResponse 已入库的班次
type ShiftResponse struct {
	PersonName     string  `json:"person_name"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start"`
	EndTime        string  `json:"end"`
	ShiftCode      string  `json:"shift_code"`
	Period         string  `json:"period"`
	Hours          float64 `json:"hours"`
	IsCoverage     bool    `json:"is_coverage"`
	PayPeriodIndex int     `json:"pay_period_index"`
	SourceFile     string  `json:"source_file"`
}

// ReportRunDetailResponse 批次详情
type ReportRunDetailResponse struct {
	ReportRunResponse
	Shifts []ShiftResponse `json:"shifts"`
	Swaps  []SwapResponse  `json:"swaps"`
}
