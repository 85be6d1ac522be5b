package service

import (
	"math"
	"sort"
	"time"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
)

// ── 周期汇总 ──────────────────────────────────────────────
//
// 对合并后的数据集做纯聚合：按周 / 发薪周期 / 全部时间统计每人工时，
// 按日统计所有人总工时。空数据集一律返回空结果。
//
// 排名规则：先按姓名升序分组，再按整数工时降序稳定排序，
// 工时相同者保持姓名升序。
// ─────────────────────────────────────────────────────────────

// RankEntry 排名条目
type RankEntry struct {
	Name  string `json:"name"`
	Hours int    `json:"hours"`
}

// DayTotal 单日总工时
type DayTotal struct {
	Date  time.Time `json:"date"`
	Hours float64   `json:"hours"`
}

// PersonWeekHours 某人某周工时
type PersonWeekHours struct {
	Name      string    `json:"name"`
	WeekStart time.Time `json:"week_start"`
	Hours     float64   `json:"hours"`
}

// PersonPeriodHours 某人某发薪周期工时
type PersonPeriodHours struct {
	Name           string  `json:"name"`
	PayPeriodIndex int     `json:"pay_period_index"`
	Hours          float64 `json:"hours"`
}

// People 数据集中出现的所有人（姓名升序）
func People(ds *Dataset) []string {
	if ds.Empty() {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, e := range ds.Entries {
		if !seen[e.PersonName] {
			seen[e.PersonName] = true
			names = append(names, e.PersonName)
		}
	}
	sort.Strings(names)
	return names
}

// Weeks 数据集中出现的所有周起始日（升序）
func Weeks(ds *Dataset) []time.Time {
	if ds.Empty() {
		return nil
	}
	seen := make(map[time.Time]bool)
	var weeks []time.Time
	for _, e := range ds.Entries {
		if !seen[e.WeekStart] {
			seen[e.WeekStart] = true
			weeks = append(weeks, e.WeekStart)
		}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	return weeks
}

// PayPeriods 数据集中出现的所有发薪周期序号（升序）
func PayPeriods(ds *Dataset) []int {
	if ds.Empty() {
		return nil
	}
	seen := make(map[int]bool)
	var idx []int
	for _, e := range ds.Entries {
		if !seen[e.PayPeriodIndex] {
			seen[e.PayPeriodIndex] = true
			idx = append(idx, e.PayPeriodIndex)
		}
	}
	sort.Ints(idx)
	return idx
}

// WeeklyHours 每人每周工时，按 (姓名, 周) 升序
func WeeklyHours(ds *Dataset) []PersonWeekHours {
	if ds.Empty() {
		return nil
	}
	type key struct {
		name string
		week time.Time
	}
	sums := make(map[key]float64)
	for _, e := range ds.Entries {
		sums[key{e.PersonName, e.WeekStart}] += e.Hours
	}

	out := make([]PersonWeekHours, 0, len(sums))
	for k, v := range sums {
		out = append(out, PersonWeekHours{Name: k.name, WeekStart: k.week, Hours: round1(v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].WeekStart.Before(out[j].WeekStart)
	})
	return out
}

// PeriodHours 每人每发薪周期工时，按 (姓名, 周期) 升序
func PeriodHours(ds *Dataset) []PersonPeriodHours {
	if ds.Empty() {
		return nil
	}
	type key struct {
		name string
		idx  int
	}
	sums := make(map[key]float64)
	for _, e := range ds.Entries {
		sums[key{e.PersonName, e.PayPeriodIndex}] += e.Hours
	}

	out := make([]PersonPeriodHours, 0, len(sums))
	for k, v := range sums {
		out = append(out, PersonPeriodHours{Name: k.name, PayPeriodIndex: k.idx, Hours: round1(v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].PayPeriodIndex < out[j].PayPeriodIndex
	})
	return out
}

// RankWeek 指定周的工时排名
func RankWeek(ds *Dataset, weekStart time.Time) []RankEntry {
	week := civilDate(weekStart)
	return rankBy(ds, func(e *model.ShiftEntry) bool { return e.WeekStart.Equal(week) })
}

// RankPayPeriod 指定发薪周期的工时排名
func RankPayPeriod(ds *Dataset, idx int) []RankEntry {
	return rankBy(ds, func(e *model.ShiftEntry) bool { return e.PayPeriodIndex == idx })
}

// RankAllTime 全部时间的工时排名
func RankAllTime(ds *Dataset) []RankEntry {
	return rankBy(ds, func(*model.ShiftEntry) bool { return true })
}

func rankBy(ds *Dataset, keep func(e *model.ShiftEntry) bool) []RankEntry {
	if ds.Empty() {
		return []RankEntry{}
	}
	sums := make(map[string]float64)
	for i := range ds.Entries {
		if keep(&ds.Entries[i]) {
			sums[ds.Entries[i].PersonName] += ds.Entries[i].Hours
		}
	}

	names := make([]string, 0, len(sums))
	for n := range sums {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]RankEntry, 0, len(names))
	for _, n := range names {
		out = append(out, RankEntry{Name: n, Hours: int(math.Round(sums[n]))})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hours > out[j].Hours })
	return out
}

// DailyTotals 每天所有人总工时，按日期升序
func DailyTotals(ds *Dataset) []DayTotal {
	if ds.Empty() {
		return []DayTotal{}
	}
	sums := make(map[time.Time]float64)
	for _, e := range ds.Entries {
		sums[e.Date] += e.Hours
	}
	out := make([]DayTotal, 0, len(sums))
	for d, h := range sums {
		out = append(out, DayTotal{Date: d, Hours: round1(h)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// BusiestDay 总工时最高的一天；并列时取最早日期，空数据集返回 false
func BusiestDay(ds *Dataset) (DayTotal, bool) {
	var best DayTotal
	found := false
	for _, d := range DailyTotals(ds) {
		if !found || d.Hours > best.Hours {
			best = d
			found = true
		}
	}
	return best, found
}
