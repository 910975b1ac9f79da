// Package ingestion 提供外部内容摄取客户端
package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"autopen-api/internal/config"
	"autopen-api/internal/domain/service"
	apperrors "autopen-api/pkg/errors"
	"autopen-api/pkg/metrics"
)

var tracer = otel.Tracer("ingestion")

// 单次响应体上限，防止异常服务拖垮内存
const maxResponseBytes = 4 << 20

// TranscriptClient 调用外部字幕抽取服务
type TranscriptClient struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewTranscriptClient 创建字幕抓取客户端
func NewTranscriptClient(cfg *config.IngestionConfig) *TranscriptClient {
	timeout := cfg.TranscriptTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TranscriptClient{
		endpoint: cfg.TranscriptEndpoint,
		timeout:  timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type transcriptResponse struct {
	Title        string `json:"title"`
	Transcript   string `json:"transcript"`
	ThumbnailURL string `json:"thumbnail_url"`
	Error        string `json:"error,omitempty"`
}

// Fetch 抓取链接字幕；超时与取消都归类为抓取失败
func (c *TranscriptClient) Fetch(ctx context.Context, target, linkType string) (*service.TranscriptResult, error) {
	ctx, span := tracer.Start(ctx, "ingestion.TranscriptClient.Fetch",
		trace.WithAttributes(
			attribute.String("link.url", target),
			attribute.String("link.type", linkType),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s?url=%s&type=%s",
		c.endpoint, url.QueryEscape(target), url.QueryEscape(linkType))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.ErrTranscriptFailed.WithError(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.TranscriptFetchTotal.WithLabelValues(linkType, "timeout").Inc()
			return nil, apperrors.ErrTranscriptTimeout.WithError(err)
		}
		metrics.TranscriptFetchTotal.WithLabelValues(linkType, "error").Inc()
		return nil, apperrors.ErrTranscriptFailed.WithError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		span.RecordError(err)
		metrics.TranscriptFetchTotal.WithLabelValues(linkType, "error").Inc()
		return nil, apperrors.ErrTranscriptFailed.WithError(err)
	}

	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		metrics.TranscriptFetchTotal.WithLabelValues(linkType, "error").Inc()
		return nil, apperrors.ErrTranscriptFailed.WithDetail(
			fmt.Sprintf("transcript service returned status %d", resp.StatusCode))
	}

	var parsed transcriptResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		span.RecordError(err)
		metrics.TranscriptFetchTotal.WithLabelValues(linkType, "error").Inc()
		return nil, apperrors.ErrTranscriptFailed.WithDetail("malformed transcript response").WithError(err)
	}
	if parsed.Error != "" {
		metrics.TranscriptFetchTotal.WithLabelValues(linkType, "error").Inc()
		return nil, apperrors.ErrTranscriptFailed.WithDetail(parsed.Error)
	}
	if parsed.Transcript == "" {
		metrics.TranscriptFetchTotal.WithLabelValues(linkType, "empty").Inc()
		return nil, apperrors.ErrTranscriptFailed.WithDetail("empty transcript")
	}

	metrics.TranscriptFetchTotal.WithLabelValues(linkType, "success").Inc()
	return &service.TranscriptResult{
		Title:        parsed.Title,
		Transcript:   parsed.Transcript,
		ThumbnailURL: parsed.ThumbnailURL,
	}, nil
}
