// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"autopen-api/internal/interfaces/http/dto"
	"autopen-api/pkg/errors"
	"autopen-api/pkg/logger"
)

// respondError 统一错误出口：业务错误按 AppError 的 HTTP 状态码返回，
// 其余错误记录日志并返回 500。
func respondError(c *gin.Context, err error, fallback string) {
	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
			Code:    appErr.HTTPStatus,
			Message: appErr.Message,
			Error: &dto.ErrorDetail{
				ErrorCode: string(appErr.Code),
				Details:   appErr.Detail,
			},
			TraceID: c.GetString("trace_id"),
		})
		return
	}
	logger.Error(c.Request.Context(), fallback, err, "path", c.Request.URL.Path)
	dto.InternalError(c, fallback)
}
