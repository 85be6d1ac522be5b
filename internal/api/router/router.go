package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/api/handler"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/api/middleware"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/redis"
)

const uploadRateWindow = time.Minute

// Setup 初始化并返回 Gin 路由引擎；rdb、db 均可为 nil
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(rdb, db))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		reports := v1.Group("/reports")
		{
			// 上传类接口：限制请求体大小 + 按 IP 限流
			upload := reports.Group("")
			upload.Use(middleware.BodyLimit(cfg.Server.MaxUploadBytes))
			upload.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit, uploadRateWindow))
			{
				upload.POST("/workbook", h.Report.Workbook)
				upload.POST("/summary", h.Report.Summary)
				upload.POST("/heatmap", h.Report.Heatmap)
				upload.POST("/calendar", h.Report.Calendar)
				upload.POST("/import", h.Report.Import)
			}

			reports.GET("/runs", h.Report.ListRuns)
			reports.GET("/runs/:id", h.Report.GetRun)
			reports.GET("/runs/:id/shifts", h.Report.RunShifts)
		}
	}

	return r
}

// healthCheck 依赖未启用时标记为 disabled，不影响整体状态
func healthCheck(rdb *redis.Client, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := gin.H{"database": "disabled", "redis": "disabled"}

		if db != nil {
			deps["database"] = "ok"
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				deps["database"] = "down"
				status = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			deps["redis"] = "ok"
			if err := rdb.Ping(ctx); err != nil {
				// Redis 只用于缓存和限流，不可用时降级
				deps["redis"] = "down"
			}
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "dependencies": deps})
	}
}
