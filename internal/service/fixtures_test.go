package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
)

// ── 测试辅助 ──

var testAnchor = time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestRoster() *Roster {
	return NewRoster([]string{"Smith, John", "Doe, Jane", "Brown, Alex"}, nil)
}

func newTestClassifier() *Classifier {
	return NewClassifier([]string{"313"}, testAnchor)
}

func newTestRosterConfig(mode string) *config.RosterConfig {
	return &config.RosterConfig{
		AnchorDate:     "2025-01-13",
		AlwaysDayCodes: []string{"313"},
		FilterByRoster: true,
		DedupMode:      mode,
	}
}

func newTestPipeline(cache DocumentCache) *Pipeline {
	return NewPipeline(newTestRoster(), newTestRosterConfig(config.DedupModeSlot), 2, cache, zap.NewNop())
}

// 第一份排班：2025-01-06 发布，无例外区块
const docJan06 = `Inventory Services Weekly Schedule 06/Jan/2025
D101 07:00 15:00 Smith, John
E201 15:00 23:00 Doe, Jane
Inventory Services Weekly Schedule 07/Jan/2025
D101 07:00 15:00 Smith, John
N301 23:00 07:00 Brown, Alex
`

// 第二份排班：2025-01-13 重新下发 01-07 的夜班，并包含一对 Off → Relief
const docJan13 = `Inventory Services Weekly Schedule 07/Jan/2025
N301 23:00 07:00 Brown, Alex
Inventory Services Weekly Schedule 13/Jan/2025
Exceptions Day Unit:
Off: Smith, John 07:00 - 15:00 Sick Relief: Doe, Jane
Scheduled Shifts
D101 07:00 15:00 Doe, Jane
E201 15:00 23:00 Brown, Alex
`

func twoDocuments() []SourceDocument {
	return []SourceDocument{
		{Name: "roster_2025-01-06.txt", Text: docJan06},
		{Name: "roster_2025-01-13.txt", Text: docJan13},
	}
}

func newTestConfig() *config.Config {
	return &config.Config{
		Roster: *newTestRosterConfig(config.DedupModeSlot),
		Report: config.ReportConfig{FilePrefix: "ARGX", Workers: 2},
	}
}

func staticRoster() (*Roster, error) { return newTestRoster(), nil }
