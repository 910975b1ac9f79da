package service

import "context"

// ExtractedFile 文件文本抽取结果
type ExtractedFile struct {
	Text string
	// Truncated 原文超出抽取上限时为 true
	Truncated bool
}

// FileTextExtractor 文件文本抽取端口。
// 实现方约定：在调用方的 deadline 内返回，失败返回带错误码的 error，
// 对无法解析的内容返回空文本而不是 panic。
type FileTextExtractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (*ExtractedFile, error)
}
