package service

import "time"

// HeatmapMatrix 人 × 周 工时矩阵，交给外部可视化组件渲染
//
// Values[i][j] 为 People[i] 在 Weeks[j] 当周的工时（1 位小数），无记录为 0。
type HeatmapMatrix struct {
	People []string
	Weeks  []time.Time
	Values [][]float64
}

// BuildHeatmap 透视合并数据集；人按姓名升序，周按日期升序
func BuildHeatmap(ds *Dataset) *HeatmapMatrix {
	m := &HeatmapMatrix{People: People(ds), Weeks: Weeks(ds)}

	row := make(map[string]int, len(m.People))
	for i, p := range m.People {
		row[p] = i
	}
	col := make(map[time.Time]int, len(m.Weeks))
	for j, w := range m.Weeks {
		col[w] = j
	}

	m.Values = make([][]float64, len(m.People))
	for i := range m.Values {
		m.Values[i] = make([]float64, len(m.Weeks))
	}
	for _, wh := range WeeklyHours(ds) {
		m.Values[row[wh.Name]][col[wh.WeekStart]] = wh.Hours
	}
	return m
}
