package chapter

import (
	"context"
	"encoding/json"

	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	"autopen-api/internal/infrastructure/messaging"
	apperrors "autopen-api/pkg/errors"
	"autopen-api/pkg/logger"
)

// batchJobParams 批量生成任务参数快照
type batchJobParams struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// BatchRunner 批量生成的异步编排：任务落库 + 消息投递 + worker 消费
type BatchRunner struct {
	svc      *Service
	jobs     repository.JobRepository
	ebooks   repository.EbookRepository
	producer *messaging.Producer
}

// NewBatchRunner 创建批量生成编排器
func NewBatchRunner(svc *Service, jobs repository.JobRepository, ebooks repository.EbookRepository, producer *messaging.Producer) *BatchRunner {
	return &BatchRunner{svc: svc, jobs: jobs, ebooks: ebooks, producer: producer}
}

// Enqueue 创建批量生成任务并投递消息
func (r *BatchRunner) Enqueue(ctx context.Context, ebookID string, opts *GenerateOptions) (*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "chapter.BatchRunner.Enqueue")
	defer span.End()

	ebook, err := r.ebooks.GetByID(ctx, ebookID)
	if err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &GenerateOptions{}
	}
	params, err := json.Marshal(batchJobParams{Provider: opts.Provider, Model: opts.Model})
	if err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}

	job := entity.NewGenerationJob(ebook.ProjectID, entity.JobTypeEbookBatchGen, params)
	job.EbookID = ebook.ID
	if err := r.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if _, err := r.producer.PublishBatchGenJob(ctx, &messaging.BatchGenJobMessage{
		JobID:     job.ID,
		ProjectID: ebook.ProjectID,
		EbookID:   ebook.ID,
	}); err != nil {
		job.Fail("failed to enqueue batch generation message")
		if uerr := r.jobs.Update(ctx, job); uerr != nil {
			logger.Error(ctx, "failed to mark unenqueued job failed", uerr, "job_id", job.ID)
		}
		return nil, err
	}

	return job, nil
}

// Process worker 侧的批量生成入口。
// 章节失败中止批量并落任务失败；已生成章节保持不变，
// 重试时从剩余 pending 章节继续。
func (r *BatchRunner) Process(ctx context.Context, msg *messaging.BatchGenJobMessage) error {
	ctx, span := tracer.Start(ctx, "chapter.BatchRunner.Process")
	defer span.End()

	job, err := r.jobs.GetByID(ctx, msg.JobID)
	if err != nil {
		return err
	}
	if job.Status == entity.JobStatusCompleted || job.Status == entity.JobStatusCancelled {
		return nil
	}

	var params batchJobParams
	if len(job.InputParams) > 0 {
		if err := json.Unmarshal(job.InputParams, &params); err != nil {
			logger.Warn(ctx, "ignoring malformed job params", "job_id", job.ID, "error", err)
		}
	}

	job.Start()
	if err := r.jobs.Update(ctx, job); err != nil {
		return err
	}

	progress := func(done, total int) {
		if total == 0 {
			return
		}
		if err := r.jobs.UpdateProgress(ctx, job.ID, done*100/total); err != nil {
			logger.Warn(ctx, "failed to update job progress", "job_id", job.ID, "error", err)
		}
	}

	result, err := r.svc.generateAllPending(ctx, msg.EbookID, &GenerateOptions{
		Provider: params.Provider,
		Model:    params.Model,
	}, progress)
	if err != nil {
		job.Fail(err.Error())
		_ = r.jobs.Update(ctx, job)
		return err
	}

	if result.Err != nil {
		job.Fail("chapter " + result.FailedChapterID + ": " + result.Err.Error())
		if uerr := r.jobs.Update(ctx, job); uerr != nil {
			logger.Error(ctx, "failed to persist job failure", uerr, "job_id", job.ID)
		}
		// 可重试失败交给消息层退避重试，从剩余章节续跑
		if apperrors.IsCode(result.Err, apperrors.CodeLLMAuthFailed) {
			return nil
		}
		return result.Err
	}

	summary, _ := json.Marshal(map[string]any{
		"generated": len(result.Generated),
	})
	job.Complete(summary)
	return r.jobs.Update(ctx, job)
}
