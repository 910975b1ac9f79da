package node

import (
	"context"
	"errors"
	"strings"

	apperrors "autopen-api/pkg/errors"
)

// ClassifyLLMError 将 LLM 调用错误归类为统一错误码。
// 认证类错误不可重试；其余按瞬时错误处理。
func ClassifyLLMError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if IsAuthError(err) {
		return apperrors.ErrLLMAuthFailed.WithError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.ErrLLMCallFailed.WithDetail("request timed out").WithError(err)
	}
	return apperrors.ErrLLMCallFailed.WithError(err)
}

// IsAuthError 判断是否为提供商认证/配额类错误
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"):
		return true
	case strings.Contains(msg, "403"):
		return true
	case strings.Contains(msg, "invalid api key"):
		return true
	case strings.Contains(msg, "invalid_api_key"):
		return true
	case strings.Contains(msg, "incorrect api key"):
		return true
	case strings.Contains(msg, "unauthorized"):
		return true
	case strings.Contains(msg, "authentication"):
		return true
	case strings.Contains(msg, "insufficient_quota"):
		return true
	default:
		return false
	}
}

// IsRetryable 判断错误是否值得重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsAuthError(err) {
		return false
	}
	if apperrors.IsCode(err, apperrors.CodeLLMAuthFailed) {
		return false
	}
	if apperrors.IsCode(err, apperrors.CodeLLMEmptyResult) {
		return false
	}
	return true
}
