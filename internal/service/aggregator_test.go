package service

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
)

// sampleDataset 两周、三人：
//
//	Smith  01-06 D101 8h    01-13 D102 7.5h
//	Doe    01-06 E201 8h    01-07 E201 8h
//	Brown  01-13 N301 8h    01-14 N301 4.6h
func sampleDataset() *Dataset {
	return datasetOf(
		entry("Smith, John", date(2025, 1, 6), "D101", 8, "a.txt"),
		entry("Smith, John", date(2025, 1, 13), "D102", 7.5, "a.txt"),
		entry("Doe, Jane", date(2025, 1, 6), "E201", 8, "a.txt"),
		entry("Doe, Jane", date(2025, 1, 7), "E201", 8, "a.txt"),
		entry("Brown, Alex", date(2025, 1, 13), "N301", 8, "a.txt"),
		entry("Brown, Alex", date(2025, 1, 14), "N301", 4.6, "a.txt"),
	)
}

func datasetOf(entries ...model.ShiftEntry) *Dataset {
	c := NewConsolidator(newTestClassifier(), config.DedupModeSlot, zap.NewNop())
	return c.Consolidate([]ScheduleFrame{{Entries: entries}}, nil)
}

func TestAggregator_EmptyDataset(t *testing.T) {
	for _, ds := range []*Dataset{nil, {}} {
		if got := RankAllTime(ds); len(got) != 0 {
			t.Errorf("空数据集排名应为空，实际 %v", got)
		}
		if got := DailyTotals(ds); len(got) != 0 {
			t.Errorf("空数据集日汇总应为空，实际 %v", got)
		}
		if _, ok := BusiestDay(ds); ok {
			t.Error("空数据集不应有最忙日")
		}
		if People(ds) != nil || Weeks(ds) != nil || PayPeriods(ds) != nil {
			t.Error("空数据集维度应为 nil")
		}
	}
}

func TestRankAllTime_TiesByName(t *testing.T) {
	want := []RankEntry{
		{Name: "Doe, Jane", Hours: 16},
		{Name: "Smith, John", Hours: 16}, // 15.5 四舍五入
		{Name: "Brown, Alex", Hours: 13},
	}
	if diff := cmp.Diff(want, RankAllTime(sampleDataset())); diff != "" {
		t.Errorf("全部时间排名不符 (-want +got):\n%s", diff)
	}
}

func TestRankWeekAndPayPeriod(t *testing.T) {
	ds := sampleDataset()

	week1 := []RankEntry{{Name: "Doe, Jane", Hours: 16}, {Name: "Smith, John", Hours: 8}}
	week2 := []RankEntry{{Name: "Brown, Alex", Hours: 13}, {Name: "Smith, John", Hours: 8}}

	tests := []struct {
		name string
		got  []RankEntry
		want []RankEntry
	}{
		{"第一周", RankWeek(ds, date(2025, 1, 6)), week1},
		{"周内任意时刻", RankWeek(ds, time.Date(2025, 1, 6, 13, 30, 0, 0, time.UTC)), week1},
		{"第二周", RankWeek(ds, date(2025, 1, 13)), week2},
		{"无数据的周", RankWeek(ds, date(2025, 2, 3)), []RankEntry{}},
		{"周期 -1", RankPayPeriod(ds, -1), week1},
		{"周期 0", RankPayPeriod(ds, 0), week2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("排名不符 (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWeeklyAndPeriodHours(t *testing.T) {
	ds := sampleDataset()

	wantWeekly := []PersonWeekHours{
		{Name: "Brown, Alex", WeekStart: date(2025, 1, 13), Hours: 12.6},
		{Name: "Doe, Jane", WeekStart: date(2025, 1, 6), Hours: 16},
		{Name: "Smith, John", WeekStart: date(2025, 1, 6), Hours: 8},
		{Name: "Smith, John", WeekStart: date(2025, 1, 13), Hours: 7.5},
	}
	if diff := cmp.Diff(wantWeekly, WeeklyHours(ds)); diff != "" {
		t.Errorf("周工时不符 (-want +got):\n%s", diff)
	}

	wantPeriod := []PersonPeriodHours{
		{Name: "Brown, Alex", PayPeriodIndex: 0, Hours: 12.6},
		{Name: "Doe, Jane", PayPeriodIndex: -1, Hours: 16},
		{Name: "Smith, John", PayPeriodIndex: -1, Hours: 8},
		{Name: "Smith, John", PayPeriodIndex: 0, Hours: 7.5},
	}
	if diff := cmp.Diff(wantPeriod, PeriodHours(ds)); diff != "" {
		t.Errorf("周期工时不符 (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]int{-1, 0}, PayPeriods(ds)); diff != "" {
		t.Errorf("周期序号不符:\n%s", diff)
	}
}

func TestDailyTotalsAndBusiestDay(t *testing.T) {
	ds := sampleDataset()

	want := []DayTotal{
		{Date: date(2025, 1, 6), Hours: 16},
		{Date: date(2025, 1, 7), Hours: 8},
		{Date: date(2025, 1, 13), Hours: 15.5},
		{Date: date(2025, 1, 14), Hours: 4.6},
	}
	if diff := cmp.Diff(want, DailyTotals(ds)); diff != "" {
		t.Errorf("日汇总不符 (-want +got):\n%s", diff)
	}

	day, ok := BusiestDay(ds)
	if !ok || !day.Date.Equal(date(2025, 1, 6)) || day.Hours != 16 {
		t.Errorf("最忙日不符: %+v", day)
	}
}

func TestBusiestDay_TieTakesEarliest(t *testing.T) {
	ds := datasetOf(
		entry("Doe, Jane", date(2025, 1, 9), "D101", 8, "a.txt"),
		entry("Smith, John", date(2025, 1, 8), "D101", 8, "a.txt"),
	)
	day, ok := BusiestDay(ds)
	if !ok || !day.Date.Equal(date(2025, 1, 8)) {
		t.Errorf("并列时应取最早日期，实际 %s", day.Date.Format(config.DateLayout))
	}
}

func TestBuildHeatmap(t *testing.T) {
	m := BuildHeatmap(sampleDataset())

	if diff := cmp.Diff([]string{"Brown, Alex", "Doe, Jane", "Smith, John"}, m.People); diff != "" {
		t.Errorf("行不符:\n%s", diff)
	}
	if diff := cmp.Diff([]time.Time{date(2025, 1, 6), date(2025, 1, 13)}, m.Weeks); diff != "" {
		t.Errorf("列不符:\n%s", diff)
	}
	want := [][]float64{
		{0, 12.6},
		{16, 0},
		{8, 7.5},
	}
	if diff := cmp.Diff(want, m.Values); diff != "" {
		t.Errorf("矩阵不符 (-want +got):\n%s", diff)
	}
}

func TestBuildHeatmap_Empty(t *testing.T) {
	m := BuildHeatmap(&Dataset{})
	if len(m.People) != 0 || len(m.Weeks) != 0 || len(m.Values) != 0 {
		t.Errorf("空数据集应得到空矩阵: %+v", m)
	}
}
