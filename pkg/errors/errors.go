// Package errors 提供统一的错误定义
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeUnauthorized       ErrorCode = "1002"
	CodeForbidden          ErrorCode = "1003"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 认证授权错误 (2xxx)
	CodeTokenExpired     ErrorCode = "2001"
	CodeTokenInvalid     ErrorCode = "2002"
	CodeTokenMissing     ErrorCode = "2003"
	CodePermissionDenied ErrorCode = "2004"

	// 资源错误 (3xxx)
	CodeProjectNotFound   ErrorCode = "3001"
	CodeBrainDumpNotFound ErrorCode = "3002"
	CodeIdeaNotFound      ErrorCode = "3003"
	CodeEbookNotFound     ErrorCode = "3004"
	CodeChapterNotFound   ErrorCode = "3005"
	CodeLinkNotFound      ErrorCode = "3006"
	CodeFileNotFound      ErrorCode = "3007"
	CodeJobNotFound       ErrorCode = "3008"

	// 业务错误 (4xxx)
	CodeValidationFailed    ErrorCode = "4001"
	CodeInsufficientContent ErrorCode = "4002"
	CodeStepNotAllowed      ErrorCode = "4003"
	CodeChapterGenerating   ErrorCode = "4004"
	CodeLastChapter         ErrorCode = "4005"
	CodeGenerationFailed    ErrorCode = "4006"
	CodeEbookNotReady       ErrorCode = "4007"
	CodeResumeTokenInvalid  ErrorCode = "4008"

	// 外部服务错误 (5xxx)
	CodeDatabaseError     ErrorCode = "5001"
	CodeCacheError        ErrorCode = "5002"
	CodeStorageError      ErrorCode = "5003"
	CodeLLMAuthFailed     ErrorCode = "5004"
	CodeLLMEmptyResult    ErrorCode = "5005"
	CodeLLMCallFailed     ErrorCode = "5006"
	CodeTranscriptFailed  ErrorCode = "5007"
	CodeTranscriptTimeout ErrorCode = "5008"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeValidationFailed, CodeInsufficientContent, CodeResumeTokenInvalid:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired, CodeTokenInvalid, CodeTokenMissing:
		return http.StatusUnauthorized
	case CodeForbidden, CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound, CodeProjectNotFound, CodeBrainDumpNotFound, CodeIdeaNotFound,
		CodeEbookNotFound, CodeChapterNotFound, CodeLinkNotFound, CodeFileNotFound, CodeJobNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeChapterGenerating:
		return http.StatusConflict
	case CodeStepNotAllowed, CodeLastChapter, CodeEbookNotReady:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeLLMAuthFailed:
		return http.StatusBadGateway
	case CodeTranscriptTimeout:
		return http.StatusGatewayTimeout
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrTokenExpired = New(CodeTokenExpired, "token expired")
	ErrTokenInvalid = New(CodeTokenInvalid, "token invalid")
	ErrTokenMissing = New(CodeTokenMissing, "token missing")

	ErrProjectNotFound   = New(CodeProjectNotFound, "project not found")
	ErrBrainDumpNotFound = New(CodeBrainDumpNotFound, "brain dump not found")
	ErrIdeaNotFound      = New(CodeIdeaNotFound, "idea not found")
	ErrEbookNotFound     = New(CodeEbookNotFound, "ebook not found")
	ErrChapterNotFound   = New(CodeChapterNotFound, "chapter not found")
	ErrLinkNotFound      = New(CodeLinkNotFound, "link not found")
	ErrJobNotFound       = New(CodeJobNotFound, "job not found")

	ErrValidationFailed    = New(CodeValidationFailed, "validation failed")
	ErrInsufficientContent = New(CodeInsufficientContent, "brain dump content below minimum")
	ErrStepNotAllowed      = New(CodeStepNotAllowed, "workflow step transition not allowed")
	ErrChapterGenerating   = New(CodeChapterGenerating, "chapter generation already in progress")
	ErrLastChapter         = New(CodeLastChapter, "an ebook must keep at least one chapter")
	ErrGenerationFailed    = New(CodeGenerationFailed, "content generation failed")
	ErrEbookNotReady       = New(CodeEbookNotReady, "ebook has ungenerated chapters")
	ErrResumeTokenInvalid  = New(CodeResumeTokenInvalid, "resume payload invalid")

	ErrLLMAuthFailed     = New(CodeLLMAuthFailed, "LLM provider authentication failed")
	ErrLLMEmptyResult    = New(CodeLLMEmptyResult, "LLM returned empty result")
	ErrLLMCallFailed     = New(CodeLLMCallFailed, "LLM call failed")
	ErrTranscriptFailed  = New(CodeTranscriptFailed, "transcript extraction failed")
	ErrTranscriptTimeout = New(CodeTranscriptTimeout, "transcript extraction timed out")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// IsCode 检查错误是否携带指定错误码
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
