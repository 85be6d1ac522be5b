package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/dto"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/repository"
	apperrors "github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/errors"
)

// ── 入库模块业务错误 ──

var ErrReportRunNotFound = errors.New("报表批次不存在")

// ImportService 报表入库业务接口
//
// 入库按个人班次行存储，因此总是使用 person 去重模式（与 roster.dedup_mode 无关），
// 被丢弃的重复行逐条写日志。repo 为 nil（未启用数据库）时所有方法返回 ErrStorageDisabled。
type ImportService interface {
	Import(ctx context.Context, docs []SourceDocument) (*dto.ReportRunResponse, error)
	ListRuns(ctx context.Context, req *dto.PaginationRequest) ([]dto.ReportRunResponse, int64, error)
	GetRun(ctx context.Context, runID string) (*dto.ReportRunDetailResponse, error)
	ListRunShifts(ctx context.Context, runID, person string) ([]dto.ShiftResponse, error)
}

type importService struct {
	cfg        *config.Config
	repo       *repository.Repository
	loadRoster RosterLoader
	cache      DocumentCache
	logger     *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(cfg *config.Config, repo *repository.Repository, loadRoster RosterLoader, cache DocumentCache, logger *zap.Logger) ImportService {
	return &importService{cfg: cfg, repo: repo, loadRoster: loadRoster, cache: cache, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Import — 解析 → person 模式合并 → 单事务写入
// ═══════════════════════════════════════════════════════════

func (s *importService) Import(ctx context.Context, docs []SourceDocument) (*dto.ReportRunResponse, error) {
	if s.repo == nil {
		return nil, apperrors.ErrStorageDisabled
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	p, err := newPipeline(s.cfg, s.loadRoster, s.cache, s.logger)
	if err != nil {
		s.logger.Error("加载名册失败", zap.Error(err))
		return nil, err
	}
	report, err := p.Run(ctx, docs)
	if err != nil && !errors.Is(err, ErrNoValidShifts) {
		return nil, err
	}

	frames := make([]ScheduleFrame, 0, len(report.Documents))
	var swaps []model.SwapRecord
	for _, r := range report.Documents {
		if r.Err != nil {
			continue
		}
		frames = append(frames, r.Frame)
		swaps = append(swaps, r.Swaps...)
	}
	ds := p.Consolidator().WithMode(config.DedupModePerson).Consolidate(frames, swaps)
	if ds.Empty() {
		return nil, ErrNoValidShifts
	}

	shifts := make([]model.ShiftEntry, len(ds.Entries))
	copy(shifts, ds.Entries)
	records := make([]model.SwapRecord, len(ds.Swaps))
	copy(records, ds.Swaps)

	run := &model.ReportRun{
		RunID:             uuid.New().String(),
		MinDate:           ds.MinDate(),
		MaxDate:           ds.MaxDate(),
		DocumentCount:     len(docs),
		ShiftCount:        len(shifts),
		SwapCount:         len(records),
		DuplicatesDropped: len(ds.Dropped),
	}
	if err := s.repo.ReportRun.CreateWithRecords(ctx, run, shifts, records); err != nil {
		s.logger.Error("写入报表批次失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("报表批次入库成功",
		zap.String("run_id", run.RunID),
		zap.Int("shifts", run.ShiftCount),
		zap.Int("swaps", run.SwapCount),
		zap.Int("duplicates_dropped", run.DuplicatesDropped),
	)
	resp := toReportRunResponse(run)
	return &resp, nil
}

// ═══════════════════════════════════════════════════════════
// 查询
// ═══════════════════════════════════════════════════════════

func (s *importService) ListRuns(ctx context.Context, req *dto.PaginationRequest) ([]dto.ReportRunResponse, int64, error) {
	if s.repo == nil {
		return nil, 0, apperrors.ErrStorageDisabled
	}
	req.Normalize()

	runs, total, err := s.repo.ReportRun.List(ctx, req.Offset(), req.PageSize)
	if err != nil {
		s.logger.Error("查询报表批次列表失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.ReportRunResponse, 0, len(runs))
	for i := range runs {
		list = append(list, toReportRunResponse(&runs[i]))
	}
	return list, total, nil
}

func (s *importService) GetRun(ctx context.Context, runID string) (*dto.ReportRunDetailResponse, error) {
	if s.repo == nil {
		return nil, apperrors.ErrStorageDisabled
	}
	run, err := s.repo.ReportRun.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportRunNotFound
		}
		s.logger.Error("查询报表批次失败", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}

	return &dto.ReportRunDetailResponse{
		ReportRunResponse: toReportRunResponse(run),
		Shifts:            toShiftResponses(run.Shifts),
		Swaps:             toSwapResponses(run.Swaps),
	}, nil
}

// ListRunShifts 已入库批次中某人的班次，按日期与开始时间排序
func (s *importService) ListRunShifts(ctx context.Context, runID, person string) ([]dto.ShiftResponse, error) {
	if s.repo == nil {
		return nil, apperrors.ErrStorageDisabled
	}
	shifts, err := s.repo.ReportRun.ListShiftsByPerson(ctx, runID, normalizeName(person))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportRunNotFound
		}
		s.logger.Error("查询批次个人班次失败", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}
	if len(shifts) == 0 {
		return nil, ErrPersonNotFound
	}
	return toShiftResponses(shifts), nil
}

func toShiftResponses(entries []model.ShiftEntry) []dto.ShiftResponse {
	out := make([]dto.ShiftResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ShiftResponse{
			PersonName:     e.PersonName,
			Date:           e.Date.Format(config.DateLayout),
			StartTime:      e.StartTime,
			EndTime:        e.EndTime,
			ShiftCode:      e.ShiftCode,
			Period:         string(e.Period),
			Hours:          e.Hours,
			IsCoverage:     e.IsCoverage,
			PayPeriodIndex: e.PayPeriodIndex,
			SourceFile:     e.SourceFile,
		})
	}
	return out
}

func toReportRunResponse(run *model.ReportRun) dto.ReportRunResponse {
	resp := dto.ReportRunResponse{
		RunID:             run.RunID,
		MinDate:           run.MinDate.Format(config.DateLayout),
		MaxDate:           run.MaxDate.Format(config.DateLayout),
		DocumentCount:     run.DocumentCount,
		ShiftCount:        run.ShiftCount,
		SwapCount:         run.SwapCount,
		DuplicatesDropped: run.DuplicatesDropped,
	}
	if !run.CreatedAt.IsZero() {
		resp.CreatedAt = run.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}
