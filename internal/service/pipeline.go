package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/model"
	apperrors "github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/errors"
)

// ── 解析流水线 ──────────────────────────────────────────────
//
// 文档之间没有依赖：每个文档一个 goroutine（上限 report.workers），
// 依次执行 页面扫描 → 班次提取 → 换班解析，全部完成后单线程合并。
//
//   - 单个文档 panic 或出错只让该文档产出 0 条记录，不影响其他文档
//   - 可选解析缓存：key = sha256(文本) + 文件名 + 名册指纹 + 锚点日期 + 过滤开关 + 固定日班代码
//   - 缓存读写失败一律降级为直接解析
// ─────────────────────────────────────────────────────────────

const parseCachePrefix = "argx:parse:"

// DocumentCache 单文档解析结果缓存（pkg/redis.Client 实现）
type DocumentCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, v interface{}) error
}

// DocumentResult 单文档解析结果
type DocumentResult struct {
	SourceFile  string                 `json:"source_file"`
	Frame       ScheduleFrame          `json:"frame"`
	Swaps       []model.SwapRecord     `json:"swaps"`
	Stats       ParseStats             `json:"stats"`
	SwapDropped map[SwapDropReason]int `json:"swap_dropped,omitempty"`
	Cached      bool                   `json:"-"`
	Err         error                  `json:"-"`
}

// Report 一次流水线运行的产物；Dataset 构建后只读
type Report struct {
	Dataset   *Dataset
	Documents []DocumentResult
}

// Pipeline 报表流水线
type Pipeline struct {
	roster         *Roster
	classifier     *Classifier
	extractor      *ShiftExtractor
	resolver       *SwapResolver
	consolidator   *Consolidator
	filterByRoster bool
	alwaysDay      string
	workers        int
	cache          DocumentCache
	logger         *zap.Logger
}

// NewPipeline 按配置组装流水线；名册在本次运行期间只读
func NewPipeline(roster *Roster, cfg *config.RosterConfig, workers int, cache DocumentCache, logger *zap.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	classifier := NewClassifier(cfg.AlwaysDayCodes, cfg.Anchor())
	return &Pipeline{
		roster:         roster,
		classifier:     classifier,
		extractor:      NewShiftExtractor(roster, classifier, cfg.FilterByRoster),
		resolver:       NewSwapResolver(roster),
		consolidator:   NewConsolidator(classifier, cfg.DedupMode, logger),
		filterByRoster: cfg.FilterByRoster,
		alwaysDay:      strings.Join(cfg.AlwaysDayCodes, ","),
		workers:        workers,
		cache:          cache,
		logger:         logger,
	}
}

// Classifier 流水线使用的分类器
func (p *Pipeline) Classifier() *Classifier { return p.classifier }

// Consolidator 流水线使用的合并器
func (p *Pipeline) Consolidator() *Consolidator { return p.consolidator }

// Run 并行解析所有文档并合并
//
// 合并结果为空时仍返回 Report（含各文档统计）以及 ErrNoValidShifts。
func (p *Pipeline) Run(ctx context.Context, docs []SourceDocument) (*Report, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	results := make([]DocumentResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range docs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processCached(gctx, docs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	frames := make([]ScheduleFrame, 0, len(results))
	var swaps []model.SwapRecord
	for _, r := range results {
		if r.Err != nil {
			p.logger.Warn("文档解析失败，按 0 条记录处理",
				zap.String("source_file", r.SourceFile), zap.Error(r.Err))
			continue
		}
		frames = append(frames, r.Frame)
		swaps = append(swaps, r.Swaps...)
	}

	report := &Report{
		Dataset:   p.consolidator.Consolidate(frames, swaps),
		Documents: results,
	}
	p.logger.Info("报表数据集构建完成",
		zap.Int("documents", len(docs)),
		zap.Int("shifts", len(report.Dataset.Entries)),
		zap.Int("swaps", len(report.Dataset.Swaps)),
	)
	if report.Dataset.Empty() {
		return report, ErrNoValidShifts
	}
	return report, nil
}

func (p *Pipeline) processCached(ctx context.Context, doc SourceDocument) DocumentResult {
	if p.cache == nil {
		return p.ProcessDocument(doc)
	}

	key := p.cacheKey(doc)
	var cached DocumentResult
	err := p.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		cached.Cached = true
		return cached
	case !errors.Is(err, apperrors.ErrCacheMiss):
		p.logger.Warn("读取解析缓存失败，降级为直接解析", zap.String("source_file", doc.Name), zap.Error(err))
	}

	res := p.ProcessDocument(doc)
	if res.Err == nil {
		if err := p.cache.SetJSON(ctx, key, res); err != nil {
			p.logger.Warn("写入解析缓存失败", zap.String("source_file", doc.Name), zap.Error(err))
		}
	}
	return res
}

// ProcessDocument 解析单个文档；panic 被转换为 Err，结果不含任何记录
func (p *Pipeline) ProcessDocument(doc SourceDocument) (res DocumentResult) {
	defer func() {
		if r := recover(); r != nil {
			res = DocumentResult{
				SourceFile: doc.Name,
				Err:        fmt.Errorf("解析文档 %s 时发生 panic: %v", doc.Name, r),
			}
		}
	}()

	frame, _, stats := p.extractor.BuildFrame(doc.Text, doc.Name)
	resolution := p.resolver.Resolve(doc.Text, frame)

	// 接替班次打标，不改动 frame 原切片
	tagged := make([]model.ShiftEntry, len(frame.Entries))
	copy(tagged, frame.Entries)
	for i := range tagged {
		if resolution.Coverage[personShiftKey(&tagged[i])] {
			tagged[i].IsCoverage = true
		}
	}
	frame.Entries = tagged

	p.logger.Debug("文档解析完成",
		zap.String("source_file", doc.Name),
		zap.Int("extracted", stats.Extracted),
		zap.Int("forwarded", stats.Forwarded),
		zap.Int("swaps", len(resolution.Swaps)),
	)

	return DocumentResult{
		SourceFile:  doc.Name,
		Frame:       frame,
		Swaps:       resolution.Swaps,
		Stats:       stats,
		SwapDropped: resolution.Dropped,
	}
}

func (p *Pipeline) cacheKey(doc SourceDocument) string {
	sum := sha256.Sum256([]byte(doc.Text))
	return parseCachePrefix + hex.EncodeToString(sum[:]) +
		":" + doc.Name +
		":" + p.roster.Fingerprint() +
		":" + p.classifier.Anchor().Format(config.DateLayout) +
		":" + strconv.FormatBool(p.filterByRoster) +
		":" + p.alwaysDay
}
