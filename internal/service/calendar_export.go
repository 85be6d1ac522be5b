package service

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
)

// ── 日历导出 ──────────────────────────────────────────────
//
// 将某人合并后的班次导出为 iCalendar：
//   - 每个班次一个 VEVENT，时间按 UTC 民用时间写出
//   - 结束时间不晚于开始时间时视为跨午夜，结束日 +1
//   - UID 由 (person, date, shift_code) 派生，重复导出结果一致
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//ARGX//Roster Attendance//EN"

// ExportCalendar 导出 person（"Last, First"）的班次日历
func ExportCalendar(ds *Dataset, person string) (string, error) {
	if ds.Empty() {
		return "", ErrNoValidShifts
	}
	person = normalizeName(person)
	entries := personEntries(ds, person)
	if len(entries) == 0 {
		return "", ErrPersonNotFound
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetName(displayName(person))

	for _, e := range entries {
		start, err := parseClock(e.StartTime)
		if err != nil {
			continue
		}
		end, err := parseClock(e.EndTime)
		if err != nil {
			continue
		}
		startAt := e.Date.Add(time.Duration(start) * time.Minute)
		endAt := e.Date.Add(time.Duration(end) * time.Minute)
		if !endAt.After(startAt) {
			endAt = endAt.Add(24 * time.Hour)
		}

		ev := cal.AddEvent(eventUID(person, e.Date, e.ShiftCode))
		ev.SetDtStampTime(e.Date)
		ev.SetStartAt(startAt)
		ev.SetEndAt(endAt)
		ev.SetSummary(strings.TrimSpace(fmt.Sprintf("%s %s", e.ShiftCode, e.Period)))
		if e.IsCoverage {
			ev.SetDescription("coverage shift")
		}
	}
	return cal.Serialize(), nil
}

func eventUID(person string, date time.Time, code string) string {
	sum := sha1.Sum([]byte(person + "|" + date.Format(config.DateLayout) + "|" + code))
	return hex.EncodeToString(sum[:10]) + "@argx"
}
