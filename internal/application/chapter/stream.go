package chapter

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"autopen-api/internal/domain/entity"
	apperrors "autopen-api/pkg/errors"
	"autopen-api/pkg/logger"
	"autopen-api/pkg/metrics"
)

// StreamSession 流式生成会话。
// 持有章节锁直到 Finish 被调用；Reader 消费完毕后必须 Finish 恰好一次。
type StreamSession struct {
	Reader *schema.StreamReader[*schema.Message]

	svc      *Service
	chapter  *entity.Chapter
	snapshot entity.GenerationSnapshot
	finished bool
}

// Finish 结束流式会话并落库。
// content 非空且 err 为 nil 时章节完成生成；否则回滚到生成前的状态。
func (ss *StreamSession) Finish(ctx context.Context, content string, streamErr error) error {
	if ss.finished {
		return nil
	}
	ss.finished = true
	defer ss.svc.locks.Unlock(ss.chapter.ID)

	content = strings.TrimSpace(content)
	if streamErr != nil || content == "" {
		ss.chapter.FailGeneration(ss.snapshot)
		if err := ss.svc.chapters.Update(ctx, ss.chapter); err != nil {
			logger.Error(ctx, "failed to reset chapter after stream failure", err, "chapter_id", ss.chapter.ID)
			return err
		}
		metrics.ChapterGenerationTotal.WithLabelValues("error").Inc()
		if streamErr != nil {
			return streamErr
		}
		return apperrors.ErrLLMEmptyResult.WithDetail("stream produced no content")
	}

	ss.chapter.CompleteGeneration(content)
	if err := ss.svc.chapters.Update(ctx, ss.chapter); err != nil {
		return err
	}
	metrics.ChapterGenerationTotal.WithLabelValues("success").Inc()
	metrics.ChapterWordCount.WithLabelValues("stream").Observe(float64(ss.chapter.WordCount))
	return nil
}
