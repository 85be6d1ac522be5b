package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/response"
)

// BodyLimit 上传大小限制（server.max_upload_bytes）
// 声明的 Content-Length 超限时直接拒绝；未声明时由 MaxBytesReader 在读取时截断，
// Handler 解析 multipart 遇到 *http.MaxBytesError 时返回 413
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.TooLarge(c)
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
