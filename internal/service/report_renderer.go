package service

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
)

// ── 报表渲染 ──────────────────────────────────────────────
//
// 两级工作簿：
//   - "Weekly Totals"：每人一行（姓名升序）× 每周一列（日期升序），单元格为四舍五入后的周工时；
//     周所在发薪周期序号为奇数的列整列（人员行范围）填充底色；表头与数据单元格均为细边框
//   - 每人一张明细表 "First Last"：每个班次一行，列 Date / ShiftCode / Period / Hours / Start / End；
//     发薪周期序号为奇数的行整行填充底色；每个发薪周期最后一行加中等粗下边框
//
// 每次渲染都从空白工作簿重建，写盘时整体替换目标文件。
// ─────────────────────────────────────────────────────────────

const (
	rollupSheetName = "Weekly Totals"
	maxSheetNameLen = 31
	shadeColor      = "#D9E1F2"
	headerColor     = "#4472C4"
)

var detailHeaders = []string{"Date", "ShiftCode", "Period", "Hours", "Start", "End"}

// ReportRenderer 工作簿渲染器（无状态）
type ReportRenderer struct {
	filePrefix string
}

// NewReportRenderer 创建渲染器，filePrefix 为输出文件名前缀（默认 ARGX）
func NewReportRenderer(filePrefix string) *ReportRenderer {
	if filePrefix == "" {
		filePrefix = "ARGX"
	}
	return &ReportRenderer{filePrefix: filePrefix}
}

// FileName ARGX_<最早班次日期>.xlsx
func (r *ReportRenderer) FileName(ds *Dataset) string {
	return fmt.Sprintf("%s_%s.xlsx", r.filePrefix, ds.MinDate().Format(config.DateLayout))
}

// reportStyles 渲染用到的样式 ID
type reportStyles struct {
	header    int
	plain     int
	shaded    int
	plainEnd  int // 发薪周期末行
	shadedEnd int
}

// Render 构建完整工作簿；调用方负责 Close
func (r *ReportRenderer) Render(ds *Dataset) (*excelize.File, error) {
	if ds.Empty() {
		return nil, ErrNoValidShifts
	}

	f := excelize.NewFile()
	styles, err := newReportStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", rollupSheetName); err != nil {
		f.Close()
		return nil, err
	}
	if err := r.writeRollup(f, ds, styles); err != nil {
		f.Close()
		return nil, err
	}

	used := map[string]bool{rollupSheetName: true}
	for _, person := range People(ds) {
		sheet := uniqueSheetName(sheetNameFor(person), used)
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, err
		}
		if err := r.writeDetail(f, sheet, personEntries(ds, person), styles); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// RenderToBuffer 渲染并写入内存
func (r *ReportRenderer) RenderToBuffer(ds *Dataset) (*bytes.Buffer, string, error) {
	f, err := r.Render(ds)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReportGenerateFail, err)
	}
	return buf, r.FileName(ds), nil
}

// WriteFile 渲染并写入 dir，先写临时文件再替换目标，返回目标路径
func (r *ReportRenderer) WriteFile(ds *Dataset, dir string) (string, error) {
	buf, name, err := r.RenderToBuffer(ds)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	target := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, ".argx-*.xlsx")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return target, nil
}

// ═══════════════════════════════════════════════════════════
// Weekly Totals
// ═══════════════════════════════════════════════════════════

func (r *ReportRenderer) writeRollup(f *excelize.File, ds *Dataset, st reportStyles) error {
	sheet := rollupSheetName
	people := People(ds)
	weeks := Weeks(ds)

	hours := make(map[string]float64)
	for _, wh := range WeeklyHours(ds) {
		hours[wh.Name+"|"+wh.WeekStart.Format(config.DateLayout)] = wh.Hours
	}
	// 发薪周期锚点为周一且长 14 天，同一周内条目的周期序号一致
	weekPeriod := make(map[string]int)
	for _, e := range ds.Entries {
		k := e.WeekStart.Format(config.DateLayout)
		if _, ok := weekPeriod[k]; !ok {
			weekPeriod[k] = e.PayPeriodIndex
		}
	}

	f.SetColWidth(sheet, "A", "A", 24)
	if len(weeks) > 0 {
		f.SetColWidth(sheet, colName(1), colName(len(weeks)), 12)
	}

	// 表头
	f.SetCellValue(sheet, cell("A", 1), "Employee")
	f.SetCellStyle(sheet, cell("A", 1), cell("A", 1), st.header)
	for j, w := range weeks {
		c := cell(colName(1+j), 1)
		f.SetCellValue(sheet, c, w.Format(config.DateLayout))
		f.SetCellStyle(sheet, c, c, st.header)
	}

	// 数据行
	for i, p := range people {
		row := 2 + i
		f.SetCellValue(sheet, cell("A", row), p)
		f.SetCellStyle(sheet, cell("A", row), cell("A", row), st.plain)
		for j, w := range weeks {
			k := w.Format(config.DateLayout)
			c := cell(colName(1+j), row)
			f.SetCellValue(sheet, c, int(math.Round(hours[p+"|"+k])))
		}
	}

	// 奇数发薪周期的周列整列填充
	lastRow := 1 + len(people)
	for j, w := range weeks {
		style := st.plain
		if weekPeriod[w.Format(config.DateLayout)]%2 != 0 {
			style = st.shaded
		}
		col := colName(1 + j)
		if err := f.SetCellStyle(sheet, cell(col, 2), cell(col, lastRow), style); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: false, XSplit: 1, YSplit: 1, TopLeftCell: "B2", ActivePane: "bottomRight"})
}

// ═══════════════════════════════════════════════════════════
// 个人明细
// ═══════════════════════════════════════════════════════════

func (r *ReportRenderer) writeDetail(f *excelize.File, sheet string, entries []model.ShiftEntry, st reportStyles) error {
	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "B", 14)
	f.SetColWidth(sheet, "C", "F", 10)

	for j, h := range detailHeaders {
		c := cell(colName(j), 1)
		f.SetCellValue(sheet, c, h)
		f.SetCellStyle(sheet, c, c, st.header)
	}

	lastCol := colName(len(detailHeaders) - 1)
	for i, e := range entries {
		row := 2 + i
		values := []interface{}{
			e.Date.Format(config.DateLayout),
			e.ShiftCode,
			string(e.Period),
			e.Hours,
			e.StartTime,
			e.EndTime,
		}
		for j, v := range values {
			f.SetCellValue(sheet, cell(colName(j), row), v)
		}

		shaded := e.PayPeriodIndex%2 != 0
		periodEnd := i == len(entries)-1 || entries[i+1].PayPeriodIndex != e.PayPeriodIndex
		style := st.plain
		switch {
		case shaded && periodEnd:
			style = st.shadedEnd
		case shaded:
			style = st.shaded
		case periodEnd:
			style = st.plainEnd
		}
		if err := f.SetCellStyle(sheet, cell("A", row), cell(lastCol, row), style); err != nil {
			return err
		}
	}
	return nil
}

// personEntries 某人的全部班次，按日期 → 开始时间 → 班次代码排序
func personEntries(ds *Dataset, person string) []model.ShiftEntry {
	var out []model.ShiftEntry
	for _, e := range ds.Entries {
		if e.PersonName == person {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ShiftCode < out[j].ShiftCode
	})
	return out
}

// ── 样式 ──

func newReportStyles(f *excelize.File) (reportStyles, error) {
	var st reportStyles
	var err error

	thin := borders(1, 1)
	thinMediumBottom := borders(1, 2)
	shade := excelize.Fill{Type: "pattern", Color: []string{shadeColor}, Pattern: 1}

	if st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thin,
	}); err != nil {
		return st, err
	}
	if st.plain, err = f.NewStyle(&excelize.Style{Border: thin}); err != nil {
		return st, err
	}
	if st.shaded, err = f.NewStyle(&excelize.Style{Border: thin, Fill: shade}); err != nil {
		return st, err
	}
	if st.plainEnd, err = f.NewStyle(&excelize.Style{Border: thinMediumBottom}); err != nil {
		return st, err
	}
	if st.shadedEnd, err = f.NewStyle(&excelize.Style{Border: thinMediumBottom, Fill: shade}); err != nil {
		return st, err
	}
	return st, nil
}

// borders 四边边框；bottom 单独指定线型（1=thin，2=medium）
func borders(style, bottom int) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: style},
		{Type: "top", Color: "000000", Style: style},
		{Type: "right", Color: "000000", Style: style},
		{Type: "bottom", Color: "000000", Style: bottom},
	}
}

// ── 工作表命名 ──

// sheetNameFor "Last, First" → "First Last"，去掉 Excel 不允许的字符并截断到 31 字符
func sheetNameFor(person string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return -1
		}
		return r
	}, displayName(person))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Unnamed"
	}
	if runes := []rune(name); len(runes) > maxSheetNameLen {
		name = string(runes[:maxSheetNameLen])
	}
	return name
}

func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)] || used[candidate]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		runes := []rune(name)
		if len(runes)+len(suffix) > maxSheetNameLen {
			runes = runes[:maxSheetNameLen-len(suffix)]
		}
		candidate = string(runes) + suffix
	}
	used[candidate] = true
	used[strings.ToLower(candidate)] = true
	return candidate
}

// ── 辅助函数 ──

// colName 0 起始列号 → 列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
