package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/dto"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
)

// ── 报表模块业务错误 ──

var (
	ErrNoDocuments        = errors.New("未提供任何排班文档")
	ErrNoValidShifts      = errors.New("未找到有效班次")
	ErrPersonNotFound     = errors.New("数据集中没有该员工的班次")
	ErrReportGenerateFail = errors.New("生成报表文件失败")
)

// RosterLoader 每次生成报表时加载一次名册；返回值在本次运行期间只读
type RosterLoader func() (*Roster, error)

// FileRosterLoader 从 roster.roster_file / roster.employees_file 加载
func FileRosterLoader(cfg *config.RosterConfig) RosterLoader {
	return func() (*Roster, error) {
		return LoadRoster(cfg.RosterFile, cfg.EmployeesFile)
	}
}

// ReportService 报表业务接口
//
// 设计说明：
//   - 每次调用都从文档重新构建数据集，服务自身不保存任何运行期状态
//   - 工作簿以 bytes.Buffer 返回，由 Handler / CLI 决定写响应还是写盘
//   - 聚合、渲染、热力图只读同一份合并后的数据集
type ReportService interface {
	// BuildReport 解析并合并文档
	BuildReport(ctx context.Context, docs []SourceDocument) (*Report, error)
	// ExportWorkbook 生成 xlsx 工作簿
	ExportWorkbook(ctx context.Context, docs []SourceDocument) (*bytes.Buffer, string, error)
	// Summary 排名、最忙日、换班记录与解析统计
	Summary(ctx context.Context, docs []SourceDocument) (*dto.SummaryResponse, error)
	// Heatmap 人 × 周 工时矩阵
	Heatmap(ctx context.Context, docs []SourceDocument) (*dto.HeatmapResponse, error)
	// ExportCalendar 某人的班次日历（.ics）
	ExportCalendar(ctx context.Context, docs []SourceDocument, person string) (string, string, error)
}

type reportService struct {
	cfg        *config.Config
	loadRoster RosterLoader
	cache      DocumentCache
	renderer   *ReportRenderer
	logger     *zap.Logger
}

// NewReportService 创建 ReportService 实例；cache 可为 nil
func NewReportService(cfg *config.Config, loadRoster RosterLoader, cache DocumentCache, logger *zap.Logger) ReportService {
	return &reportService{
		cfg:        cfg,
		loadRoster: loadRoster,
		cache:      cache,
		renderer:   NewReportRenderer(cfg.Report.FilePrefix),
		logger:     logger,
	}
}

// newPipeline 加载名册并组装流水线
func newPipeline(cfg *config.Config, loadRoster RosterLoader, cache DocumentCache, logger *zap.Logger) (*Pipeline, error) {
	roster, err := loadRoster()
	if err != nil {
		return nil, err
	}
	fields := []zap.Field{
		zap.Int("names", roster.Size()),
		zap.Int("employees", len(roster.Employees())),
		zap.String("fingerprint", roster.Fingerprint()),
	}
	if roster.Size() == 0 {
		logger.Warn("名册为空，启用名册过滤时所有班次行都会被丢弃", fields...)
	} else {
		logger.Debug("名册已加载", fields...)
	}
	return NewPipeline(roster, &cfg.Roster, cfg.Report.Workers, cache, logger), nil
}

func (s *reportService) BuildReport(ctx context.Context, docs []SourceDocument) (*Report, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	p, err := newPipeline(s.cfg, s.loadRoster, s.cache, s.logger)
	if err != nil {
		s.logger.Error("加载名册失败", zap.Error(err))
		return nil, err
	}
	return p.Run(ctx, docs)
}

// ═══════════════════════════════════════════════════════════
// ExportWorkbook — 两级工作簿
// ═══════════════════════════════════════════════════════════

func (s *reportService) ExportWorkbook(ctx context.Context, docs []SourceDocument) (*bytes.Buffer, string, error) {
	report, err := s.BuildReport(ctx, docs)
	if err != nil {
		return nil, "", err
	}

	buf, filename, err := s.renderer.RenderToBuffer(report.Dataset)
	if err != nil {
		s.logger.Error("生成工作簿失败", zap.Error(err))
		if errors.Is(err, ErrNoValidShifts) || errors.Is(err, ErrReportGenerateFail) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: %v", ErrReportGenerateFail, err)
	}

	s.logger.Info("工作簿生成成功",
		zap.String("filename", filename),
		zap.Int("people", len(People(report.Dataset))),
		zap.Int("shifts", len(report.Dataset.Entries)),
	)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// Summary
// ═══════════════════════════════════════════════════════════

func (s *reportService) Summary(ctx context.Context, docs []SourceDocument) (*dto.SummaryResponse, error) {
	report, err := s.BuildReport(ctx, docs)
	if err != nil {
		return nil, err
	}
	return buildSummary(ctx, report, s.cfg.Roster.Anchor())
}

// buildSummary 各项聚合互不依赖，并行计算后组装
func buildSummary(ctx context.Context, report *Report, anchor time.Time) (*dto.SummaryResponse, error) {
	ds := report.Dataset
	resp := &dto.SummaryResponse{
		MinDate:           ds.MinDate().Format(config.DateLayout),
		MaxDate:           ds.MaxDate().Format(config.DateLayout),
		ShiftCount:        len(ds.Entries),
		SwapCount:         len(ds.Swaps),
		DuplicatesDropped: len(ds.Dropped),
		People:            People(ds),
		Swaps:             toSwapResponses(ds.Swaps),
		Documents:         toDocumentStats(report.Documents),
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp.AllTime = toRankItems(RankAllTime(ds))
		return nil
	})
	g.Go(func() error {
		weeks := Weeks(ds)
		resp.Weeks = make([]dto.WeekRanking, 0, len(weeks))
		for _, w := range weeks {
			resp.Weeks = append(resp.Weeks, dto.WeekRanking{
				WeekStart: w.Format(config.DateLayout),
				Ranking:   toRankItems(RankWeek(ds, w)),
			})
		}
		return nil
	})
	g.Go(func() error {
		periods := PayPeriods(ds)
		resp.PayPeriods = make([]dto.PayPeriodRanking, 0, len(periods))
		for _, idx := range periods {
			start := anchor.AddDate(0, 0, idx*payPeriodDays)
			resp.PayPeriods = append(resp.PayPeriods, dto.PayPeriodRanking{
				Index:     idx,
				StartDate: start.Format(config.DateLayout),
				EndDate:   start.AddDate(0, 0, payPeriodDays-1).Format(config.DateLayout),
				Ranking:   toRankItems(RankPayPeriod(ds, idx)),
			})
		}
		return nil
	})
	g.Go(func() error {
		if day, ok := BusiestDay(ds); ok {
			resp.BusiestDay = &dto.DayTotalResponse{Date: day.Date.Format(config.DateLayout), Hours: day.Hours}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resp, nil
}

// ═══════════════════════════════════════════════════════════
// Heatmap / Calendar
// ═══════════════════════════════════════════════════════════

func (s *reportService) Heatmap(ctx context.Context, docs []SourceDocument) (*dto.HeatmapResponse, error) {
	report, err := s.BuildReport(ctx, docs)
	if err != nil {
		return nil, err
	}
	return toHeatmapResponse(BuildHeatmap(report.Dataset)), nil
}

func (s *reportService) ExportCalendar(ctx context.Context, docs []SourceDocument, person string) (string, string, error) {
	report, err := s.BuildReport(ctx, docs)
	if err != nil {
		return "", "", err
	}
	body, err := ExportCalendar(report.Dataset, person)
	if err != nil {
		return "", "", err
	}
	filename := fmt.Sprintf("%s_%s.ics", s.renderer.filePrefix, sheetNameFor(normalizeName(person)))
	return body, filename, nil
}

// ── 转换函数 ──

func toRankItems(entries []RankEntry) []dto.RankItem {
	out := make([]dto.RankItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.RankItem{Name: e.Name, Hours: e.Hours})
	}
	return out
}

func toSwapResponses(swaps []model.SwapRecord) []dto.SwapResponse {
	out := make([]dto.SwapResponse, 0, len(swaps))
	for _, s := range swaps {
		out = append(out, toSwapResponse(&s))
	}
	return out
}

func toSwapResponse(s *model.SwapRecord) dto.SwapResponse {
	return dto.SwapResponse{
		Date:             s.Date.Format(config.DateLayout),
		Period:           string(s.Period),
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		OriginalEmployee: s.OriginalEmployee,
		CoveringEmployee: s.CoveringEmployee,
		Reason:           string(s.Reason),
		ReasonRaw:        s.ReasonRaw,
		Notes:            s.Notes,
		ShiftCode:        s.ShiftCode,
		SourceFile:       s.SourceFile,
	}
}

func toDocumentStats(results []DocumentResult) []dto.DocumentStatsResponse {
	out := make([]dto.DocumentStatsResponse, 0, len(results))
	for _, r := range results {
		item := dto.DocumentStatsResponse{
			SourceFile:     r.SourceFile,
			Forwarded:      r.Stats.Forwarded,
			Extracted:      r.Stats.Extracted,
			DateAnchors:    r.Stats.DateAnchors,
			InvalidAnchors: r.Stats.InvalidAnchors,
			AdminLines:     r.Stats.AdminLines,
			Swaps:          len(r.Swaps),
			Cached:         r.Cached,
		}
		if len(r.Stats.Skipped) > 0 {
			item.Skipped = make(map[string]int, len(r.Stats.Skipped))
			for k, v := range r.Stats.Skipped {
				item.Skipped[string(k)] = v
			}
		}
		if len(r.SwapDropped) > 0 {
			item.SwapDropped = make(map[string]int, len(r.SwapDropped))
			for k, v := range r.SwapDropped {
				item.SwapDropped[string(k)] = v
			}
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out = append(out, item)
	}
	return out
}

func toHeatmapResponse(m *HeatmapMatrix) *dto.HeatmapResponse {
	resp := &dto.HeatmapResponse{
		People: m.People,
		Weeks:  make([]string, 0, len(m.Weeks)),
		Values: m.Values,
	}
	if resp.People == nil {
		resp.People = []string{}
	}
	if resp.Values == nil {
		resp.Values = [][]float64{}
	}
	for _, w := range m.Weeks {
		resp.Weeks = append(resp.Weeks, w.Format(config.DateLayout))
	}
	return resp
}
