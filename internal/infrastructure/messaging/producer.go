// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// 消息类型
const (
	TypeEbookBatchGen     = "ebook_batch_gen"
	TypeBrainDumpAnalysis = "braindump_analysis"
)

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishBatchGenJob 发布批量章节生成任务
func (p *Producer) PublishBatchGenJob(ctx context.Context, job *BatchGenJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, TypeEbookBatchGen, job.ProjectID, job)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, StreamEbookGen, msg)
}

// PublishAnalysisJob 发布脑暴分析任务
func (p *Producer) PublishAnalysisJob(ctx context.Context, job *AnalysisJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, TypeBrainDumpAnalysis, job.ProjectID, job)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, StreamAnalysis, msg)
}

// BatchGenJobMessage 批量章节生成任务消息
type BatchGenJobMessage struct {
	JobID     string `json:"job_id"`
	ProjectID string `json:"project_id"`
	EbookID   string `json:"ebook_id"`
}

// AnalysisJobMessage 脑暴分析任务消息
type AnalysisJobMessage struct {
	JobID       string `json:"job_id"`
	ProjectID   string `json:"project_id"`
	BrainDumpID string `json:"brain_dump_id"`
}
