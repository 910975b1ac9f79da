package ingestion_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"autopen-api/internal/application/ingestion"
	"autopen-api/internal/domain/service"
)

type countingFetcher struct {
	calls atomic.Int32
	gate  chan struct{}
}

func (f *countingFetcher) Fetch(ctx context.Context, url, linkType string) (*service.TranscriptResult, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	return &service.TranscriptResult{Title: "Video", Transcript: "text"}, nil
}

func TestFetchRegistryDeduplicatesSameVideo(t *testing.T) {
	fetcher := &countingFetcher{gate: make(chan struct{})}
	registry := ingestion.NewFetchRegistry(fetcher)

	// 同一视频的两种链接形态共享一个内容键
	urls := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}

	var wg sync.WaitGroup
	results := make([]*service.TranscriptResult, len(urls))
	errs := make([]error, len(urls))
	for i, u := range urls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = registry.Fetch(context.Background(), u, "youtube")
		}()
	}

	// 等并发请求都挂到在途抓取上再放行
	time.Sleep(100 * time.Millisecond)
	close(fetcher.gate)
	wg.Wait()

	for i := range urls {
		if errs[i] != nil {
			t.Fatalf("fetch %d: %v", i, errs[i])
		}
		if results[i] == nil || results[i].Transcript != "text" {
			t.Fatalf("fetch %d returned %+v", i, results[i])
		}
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("fetcher called %d times, want 1", got)
	}
}

func TestFetchRegistryDistinctKeysFetchSeparately(t *testing.T) {
	fetcher := &countingFetcher{}
	registry := ingestion.NewFetchRegistry(fetcher)
	ctx := context.Background()

	if _, err := registry.Fetch(ctx, "https://example.com/a", "webpage"); err != nil {
		t.Fatalf("fetch a: %v", err)
	}
	if _, err := registry.Fetch(ctx, "https://example.com/b", "webpage"); err != nil {
		t.Fatalf("fetch b: %v", err)
	}
	if got := fetcher.calls.Load(); got != 2 {
		t.Fatalf("fetcher called %d times, want 2", got)
	}
}
