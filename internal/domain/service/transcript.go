package service

import "context"

// TranscriptResult 字幕抓取结果
type TranscriptResult struct {
	Title        string
	Transcript   string
	ThumbnailURL string
}

// TranscriptFetcher 字幕抓取端口
// 实现方约定：失败返回带错误码的 error，永不 panic；
// 上下文取消或超时视为抓取失败
type TranscriptFetcher interface {
	Fetch(ctx context.Context, url, linkType string) (*TranscriptResult, error)
}
