package ingestion

import (
	"context"

	"golang.org/x/sync/singleflight"

	"autopen-api/internal/domain/service"
)

// FetchRegistry 抓取去重：相同内容键的并发抓取合并为一次底层调用，
// 各调用方拿到同一份结果。两条 URL 指向同一视频时只抓取一次。
type FetchRegistry struct {
	fetcher service.TranscriptFetcher
	group   singleflight.Group
}

// NewFetchRegistry 创建抓取去重器
func NewFetchRegistry(fetcher service.TranscriptFetcher) *FetchRegistry {
	return &FetchRegistry{fetcher: fetcher}
}

// Fetch 抓取字幕；按内容键合并重复请求
func (r *FetchRegistry) Fetch(ctx context.Context, url, linkType string) (*service.TranscriptResult, error) {
	key := ContentKey(url)
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.fetcher.Fetch(ctx, url, linkType)
	})
	if err != nil {
		return nil, err
	}
	return v.(*service.TranscriptResult), nil
}
