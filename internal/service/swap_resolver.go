package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
)

// ── 换班解析器 ──────────────────────────────────────────────
//
// 扫描文档原始文本中的 "Exceptions <Period> Unit:" 区块（至 "Scheduled Shifts"
// 或下一个区块为止），从 Off / On / Relief 行推导换班记录：
//
//   - Off 行：被移出班次的员工 + HH:MM - HH:MM 时间窗 + 原因 [+ 行内 Relief: Last, First]
//   - 无行内接替人时，在同一区块的 On / Relief 行中找时间窗完全一致、
//     且本区块尚未被分配的接替人；找不到则为 Vacant
//   - 未被匹配的 "On: ... Covering Vacant" 行单独生成 original=Vacant 的记录
//   - 每条记录须在本文档 ScheduleFrame 中找到接替人当日的班次，否则丢弃；
//     班次代码与时段以该班次为准
//
// 已分配接替人集合仅在单文档、单区块内有效。
// ─────────────────────────────────────────────────────────────

const blockTerminator = "Scheduled Shifts"

var exceptionAnchors = []struct {
	marker string
	period model.Period
}{
	{"Exceptions Day Unit:", model.PeriodDay},
	{"Exceptions Evening Unit:", model.PeriodEvening},
	{"Exceptions Night Unit:", model.PeriodNight},
}

var (
	windowPattern       = regexp.MustCompile(`(\d{1,2}:\d{2})\s*-\s*(\d{1,2}:\d{2})`)
	inlineReliefPattern = regexp.MustCompile(`Relief:\s*([^,]+,\s*\S+)`)
)

var noteSuffixes = map[string]bool{"N": true, "P": true, "PN": true, "C": true}

// reasonRules 按顺序做子串匹配
var reasonRules = []struct {
	needle string
	reason model.SwapReason
}{
	{"sick", model.ReasonSickLeave},
	{"vacation", model.ReasonVacation},
	{"stat", model.ReasonStatHoliday},
	{"cancel", model.ReasonShiftCancellation},
	{"leave", model.ReasonLeaveOfAbsence},
	{"covering vacant", model.ReasonCoveringVacant},
}

// SwapDropReason 候选换班被丢弃的原因
type SwapDropReason string

const (
	DropNoEmployee    SwapDropReason = "no_employee"
	DropNoWindow      SwapDropReason = "no_window"
	DropNoDate        SwapDropReason = "no_date"
	DropVacantCoverer SwapDropReason = "vacant_coverer"
	DropNotScheduled  SwapDropReason = "coverer_not_scheduled"
)

// SwapResolution 单文档换班解析结果
type SwapResolution struct {
	Swaps   []model.SwapRecord
	Dropped map[SwapDropReason]int
	// Coverage 被确认为接替班次的 personShiftKey 集合
	Coverage map[string]bool
}

type blockLine struct {
	text string
	date *time.Time
}

type exceptionBlock struct {
	period model.Period
	lines  []blockLine
}

type swapCandidate struct {
	date      *time.Time
	start     string
	end       string
	original  string
	covering  string
	reasonRaw string
	notes     string
}

// SwapResolver 换班解析器
type SwapResolver struct {
	roster *Roster
}

// NewSwapResolver 创建换班解析器
func NewSwapResolver(roster *Roster) *SwapResolver {
	return &SwapResolver{roster: roster}
}

// Resolve 解析文档文本中的全部例外区块，并以 frame 校验
func (r *SwapResolver) Resolve(text string, frame ScheduleFrame) SwapResolution {
	res := SwapResolution{
		Dropped:  make(map[SwapDropReason]int),
		Coverage: make(map[string]bool),
	}

	for _, block := range splitExceptionBlocks(text) {
		for _, cand := range r.resolveBlock(block, res.Dropped) {
			swap, entry, reason := validateSwap(cand, frame)
			if reason != "" {
				res.Dropped[reason]++
				continue
			}
			swap.SourceFile = frame.SourceFile
			res.Swaps = append(res.Swaps, swap)
			res.Coverage[personShiftKey(entry)] = true
		}
	}
	return res
}

// splitExceptionBlocks 切分例外区块；同时跟踪日期游标，区块内每行携带当时的日期
func splitExceptionBlocks(text string) []exceptionBlock {
	var blocks []exceptionBlock
	var cur *exceptionBlock
	var cursor *time.Time

	closeBlock := func() {
		if cur != nil {
			blocks = append(blocks, *cur)
			cur = nil
		}
	}

	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if strings.Contains(line, dateAnchorPhrase) {
			if d, ok := parseDateAnchor(line); ok {
				cursor = &d
			}
			continue
		}

		if period, rest, ok := matchExceptionAnchor(line); ok {
			closeBlock()
			cur = &exceptionBlock{period: period}
			if rest != "" {
				cur.lines = append(cur.lines, blockLine{text: rest, date: cursor})
			}
			continue
		}

		if strings.Contains(line, blockTerminator) {
			closeBlock()
			continue
		}

		if cur != nil {
			cur.lines = append(cur.lines, blockLine{text: line, date: cursor})
		}
	}
	closeBlock()
	return blocks
}

func matchExceptionAnchor(line string) (model.Period, string, bool) {
	for _, a := range exceptionAnchors {
		if idx := strings.Index(line, a.marker); idx >= 0 {
			return a.period, strings.TrimSpace(line[idx+len(a.marker):]), true
		}
	}
	return "", "", false
}

// resolveBlock 处理单个区块，返回候选换班（未经 frame 校验）
func (r *SwapResolver) resolveBlock(block exceptionBlock, dropped map[SwapDropReason]int) []swapCandidate {
	var out []swapCandidate
	used := make(map[string]bool)  // 已分配的接替人
	consumed := make(map[int]bool) // 已被 Off 行匹配的 On/Relief 行

	for _, bl := range block.lines {
		if !strings.HasPrefix(bl.text, "Off:") {
			continue
		}

		head := bl.text
		reliefIdx := strings.Index(bl.text, "Relief:")
		if reliefIdx >= 0 {
			head = bl.text[:reliefIdx]
		}

		original, ok := r.roster.MatchEmployee(head)
		if !ok {
			dropped[DropNoEmployee]++
			continue
		}
		start, end, winEnd, ok := findWindow(head)
		if !ok {
			dropped[DropNoWindow]++
			continue
		}

		covering := ""
		if m := inlineReliefPattern.FindStringSubmatch(bl.text); m != nil {
			covering = normalizeName(m[1])
			used[covering] = true
			// 同一接替人、同一时间窗的 On/Relief 行描述的是同一次接替
			for j, other := range block.lines {
				if consumed[j] || !isCoverLine(other.text) {
					continue
				}
				ws, we, _, ok := findWindow(other.text)
				if !ok || ws != start || we != end {
					continue
				}
				if emp, ok := r.roster.MatchEmployee(other.text); ok && emp == covering {
					consumed[j] = true
				}
			}
		} else {
			for j, other := range block.lines {
				if consumed[j] || !isCoverLine(other.text) {
					continue
				}
				ws, we, _, ok := findWindow(other.text)
				if !ok || ws != start || we != end {
					continue
				}
				emp, ok := r.roster.MatchEmployee(other.text)
				if !ok || used[emp] {
					continue
				}
				covering = emp
				used[emp] = true
				consumed[j] = true
				break
			}
		}
		if covering == "" {
			covering = model.Vacant
		}

		reasonRaw, notes := splitReason(strings.Replace(head[winEnd:], original, "", 1))
		out = append(out, swapCandidate{
			date:      bl.date,
			start:     start,
			end:       end,
			original:  original,
			covering:  covering,
			reasonRaw: reasonRaw,
			notes:     notes,
		})
	}

	// 未被匹配的 Covering Vacant 行
	for j, bl := range block.lines {
		if consumed[j] || !strings.HasPrefix(bl.text, "On:") ||
			!strings.Contains(strings.ToLower(bl.text), "covering vacant") {
			continue
		}
		emp, ok := r.roster.MatchEmployee(bl.text)
		if !ok {
			dropped[DropNoEmployee]++
			continue
		}
		start, end, winEnd, ok := findWindow(bl.text)
		if !ok {
			dropped[DropNoWindow]++
			continue
		}
		consumed[j] = true
		reasonRaw, notes := splitReason(strings.Replace(bl.text[winEnd:], emp, "", 1))
		out = append(out, swapCandidate{
			date:      bl.date,
			start:     start,
			end:       end,
			original:  model.Vacant,
			covering:  emp,
			reasonRaw: reasonRaw,
			notes:     notes,
		})
	}
	return out
}

func isCoverLine(text string) bool {
	return strings.HasPrefix(text, "On:") || strings.HasPrefix(text, "Relief:")
}

// findWindow 提取第一个 HH:MM - HH:MM 时间窗，返回规范化后的起止时间与匹配结束位置
func findWindow(text string) (string, string, int, bool) {
	loc := windowPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", "", 0, false
	}
	start, err := parseClock(text[loc[2]:loc[3]])
	if err != nil {
		return "", "", 0, false
	}
	end, err := parseClock(text[loc[4]:loc[5]])
	if err != nil {
		return "", "", 0, false
	}
	return formatClock(start), formatClock(end), loc[1], true
}

// splitReason 去掉分隔符并拆出末尾的备注代码（N / P / PN / C）
func splitReason(segment string) (string, string) {
	fields := strings.Fields(strings.Trim(segment, " \t-:;,"))
	notes := ""
	if n := len(fields); n > 0 && noteSuffixes[fields[n-1]] {
		notes = fields[n-1]
		fields = fields[:n-1]
	}
	return strings.Trim(strings.Join(fields, " "), " -:;,"), notes
}

// NormalizeReason 自由文本原因 → 固定类别
func NormalizeReason(raw string) model.SwapReason {
	lower := strings.ToLower(raw)
	for _, rule := range reasonRules {
		if strings.Contains(lower, rule.needle) {
			return rule.reason
		}
	}
	return model.ReasonOther
}

// validateSwap 接替人必须在当日 frame 中有班次；优先时间窗一致的那一条
func validateSwap(c swapCandidate, frame ScheduleFrame) (model.SwapRecord, *model.ShiftEntry, SwapDropReason) {
	if c.covering == model.Vacant {
		return model.SwapRecord{}, nil, DropVacantCoverer
	}
	if c.date == nil {
		return model.SwapRecord{}, nil, DropNoDate
	}
	date := civilDate(*c.date)

	var match *model.ShiftEntry
	for i := range frame.Entries {
		e := &frame.Entries[i]
		if e.PersonName != c.covering || !e.Date.Equal(date) {
			continue
		}
		if e.StartTime == c.start && e.EndTime == c.end {
			match = e
			break
		}
		if match == nil {
			match = e
		}
	}
	if match == nil {
		return model.SwapRecord{}, nil, DropNotScheduled
	}

	return model.SwapRecord{
		Date:             date,
		Period:           match.Period,
		StartTime:        c.start,
		EndTime:          c.end,
		OriginalEmployee: c.original,
		CoveringEmployee: c.covering,
		ReasonRaw:        c.reasonRaw,
		Reason:           NormalizeReason(c.reasonRaw),
		Notes:            c.notes,
		ShiftCode:        match.ShiftCode,
	}, match, ""
}

// [自证通过] internal/service/swap_resolver.go
