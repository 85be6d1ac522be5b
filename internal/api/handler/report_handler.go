package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/dto"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/service"
	apperrors "github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/errors"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/response"
)

const (
	uploadField     = "files"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ReportHandler 报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
	importSvc service.ImportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, importSvc service.ImportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, importSvc: importSvc}
}

// Workbook 生成并下载 xlsx 工作簿
// POST /api/v1/reports/workbook  (multipart: files)
func (h *ReportHandler) Workbook(c *gin.Context) {
	docs, ok := h.readDocuments(c)
	if !ok {
		return
	}

	buf, filename, err := h.reportSvc.ExportWorkbook(c.Request.Context(), docs)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}

// Summary 排名与统计
// POST /api/v1/reports/summary
func (h *ReportHandler) Summary(c *gin.Context) {
	docs, ok := h.readDocuments(c)
	if !ok {
		return
	}

	summary, err := h.reportSvc.Summary(c.Request.Context(), docs)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OK(c, summary)
}

// Heatmap 人 × 周 工时矩阵
// POST /api/v1/reports/heatmap
func (h *ReportHandler) Heatmap(c *gin.Context) {
	docs, ok := h.readDocuments(c)
	if !ok {
		return
	}

	matrix, err := h.reportSvc.Heatmap(c.Request.Context(), docs)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OK(c, matrix)
}

// Calendar 某人的班次日历
// POST /api/v1/reports/calendar?person=Last, First
func (h *ReportHandler) Calendar(c *gin.Context) {
	person := c.Query("person")
	if person == "" {
		response.BadRequest(c, 10001, "person 不能为空")
		return
	}
	docs, ok := h.readDocuments(c)
	if !ok {
		return
	}

	body, filename, err := h.reportSvc.ExportCalendar(c.Request.Context(), docs, person)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Attachment(c, filename, icsContentType, []byte(body))
}

// Import 解析并入库
// POST /api/v1/reports/import
func (h *ReportHandler) Import(c *gin.Context) {
	docs, ok := h.readDocuments(c)
	if !ok {
		return
	}

	run, err := h.importSvc.Import(c.Request.Context(), docs)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.Created(c, run)
}

// ListRuns 已入库批次列表
// GET /api/v1/reports/runs
func (h *ReportHandler) ListRuns(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	page.Normalize()

	runs, total, err := h.importSvc.ListRuns(c.Request.Context(), &page)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OKPage(c, runs, total, page.Page, page.PageSize)
}

// GetRun 批次详情
// GET /api/v1/reports/runs/:id
func (h *ReportHandler) GetRun(c *gin.Context) {
	run, err := h.importSvc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OK(c, run)
}

// RunShifts 批次中某人的班次
// GET /api/v1/reports/runs/:id/shifts?person=Last, First
func (h *ReportHandler) RunShifts(c *gin.Context) {
	person := c.Query("person")
	if person == "" {
		response.BadRequest(c, 10001, "person 不能为空")
		return
	}

	shifts, err := h.importSvc.ListRunShifts(c.Request.Context(), c.Param("id"), person)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OK(c, shifts)
}

// ── 辅助函数 ──

// readDocuments 读取 multipart 中的全部 files；失败时已写出错误响应
func (h *ReportHandler) readDocuments(c *gin.Context) ([]service.SourceDocument, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.TooLarge(c)
			return nil, false
		}
		response.BadRequest(c, 10001, "请以 multipart/form-data 上传 files")
		return nil, false
	}

	headers := form.File[uploadField]
	if len(headers) == 0 {
		response.BadRequest(c, 17001, "未提供任何排班文档")
		return nil, false
	}

	docs := make([]service.SourceDocument, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, 10001, fmt.Sprintf("读取文件 %s 失败", fh.Filename))
			return nil, false
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			response.BadRequest(c, 10001, fmt.Sprintf("读取文件 %s 失败", fh.Filename))
			return nil, false
		}

		doc, err := service.LoadDocumentBytes(fh.Filename, data)
		if err != nil {
			if errors.Is(err, apperrors.ErrUnsupportedDocument) {
				response.BadRequest(c, 17002, "不支持的文档格式，仅支持 .txt 与 .pdf")
			} else {
				response.ErrorWithDetails(c, http.StatusBadRequest, 17002, "文档无法解析", err.Error())
			}
			return nil, false
		}
		docs = append(docs, doc)
	}
	return docs, true
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoDocuments):
		response.BadRequest(c, 17001, "未提供任何排班文档")
	case errors.Is(err, service.ErrNoValidShifts):
		response.Unprocessable(c, 17003, "未找到有效班次")
	case errors.Is(err, service.ErrPersonNotFound):
		response.NotFound(c, 17004, "数据集中没有该员工的班次")
	case errors.Is(err, apperrors.ErrStorageDisabled):
		response.Unavailable(c, 17005, "未启用数据库存储")
	case errors.Is(err, service.ErrReportRunNotFound):
		response.NotFound(c, 17006, "报表批次不存在")
	case errors.Is(err, service.ErrRosterFileInvalid):
		response.ErrorWithDetails(c, http.StatusInternalServerError, 17007, "名册配置无效", err.Error())
	default:
		response.InternalError(c)
	}
}
