package braindump

import (
	"context"
	"encoding/json"

	"autopen-api/internal/domain/entity"
	"autopen-api/internal/infrastructure/messaging"
	"autopen-api/internal/workflow/node"
	apperrors "autopen-api/pkg/errors"
	"autopen-api/pkg/logger"
)

// analysisJobParams 异步分析任务的输入参数快照
type analysisJobParams struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// EnqueueAnalysis 创建分析任务并投递到消息流，由 worker 异步执行
func (s *Service) EnqueueAnalysis(ctx context.Context, projectID, ownerID string, opts *AnalyzeOptions) (*entity.GenerationJob, error) {
	ctx, span := tracer.Start(ctx, "braindump.Service.EnqueueAnalysis")
	defer span.End()

	project, err := s.projects.GetByIDForOwner(ctx, projectID, ownerID)
	if err != nil {
		return nil, err
	}

	dump, err := s.dumps.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	files, err := s.dumps.ListFiles(ctx, dump.ID)
	if err != nil {
		return nil, err
	}
	links, err := s.dumps.ListLinks(ctx, dump.ID)
	if err != nil {
		return nil, err
	}
	// 入队前先做最小内容校验，避免产生注定失败的任务
	if err := s.checkMinimumContent(dump, files, links); err != nil {
		return nil, err
	}

	if opts == nil {
		opts = &AnalyzeOptions{}
	}
	params, err := json.Marshal(analysisJobParams{Provider: opts.Provider, Model: opts.Model})
	if err != nil {
		return nil, apperrors.ErrInternalError.WithError(err)
	}

	job := entity.NewGenerationJob(project.ID, entity.JobTypeBrainDumpAnalysis, params)
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if _, err := s.producer.PublishAnalysisJob(ctx, &messaging.AnalysisJobMessage{
		JobID:       job.ID,
		ProjectID:   project.ID,
		BrainDumpID: dump.ID,
	}); err != nil {
		job.Fail("failed to enqueue analysis message")
		if uerr := s.jobs.Update(ctx, job); uerr != nil {
			logger.Error(ctx, "failed to mark unenqueued job failed", uerr, "job_id", job.ID)
		}
		return nil, err
	}

	return job, nil
}

// ProcessAnalysisJob worker 侧的分析任务入口。
// 返回的 error 决定消息重试：认证失败等不可重试错误落任务状态后吞掉。
func (s *Service) ProcessAnalysisJob(ctx context.Context, msg *messaging.AnalysisJobMessage) error {
	ctx, span := tracer.Start(ctx, "braindump.Service.ProcessAnalysisJob")
	defer span.End()

	job, err := s.jobs.GetByID(ctx, msg.JobID)
	if err != nil {
		return err
	}
	if job.Status == entity.JobStatusCompleted || job.Status == entity.JobStatusCancelled {
		return nil
	}

	project, err := s.projects.GetByID(ctx, msg.ProjectID)
	if err != nil {
		job.Fail(err.Error())
		_ = s.jobs.Update(ctx, job)
		return nil
	}

	var params analysisJobParams
	if len(job.InputParams) > 0 {
		if err := json.Unmarshal(job.InputParams, &params); err != nil {
			logger.Warn(ctx, "ignoring malformed job params", "job_id", job.ID, "error", err)
		}
	}

	job.Start()
	if err := s.jobs.Update(ctx, job); err != nil {
		return err
	}

	progress := func(p int) {
		if err := s.jobs.UpdateProgress(ctx, job.ID, p); err != nil {
			logger.Warn(ctx, "failed to update job progress", "job_id", job.ID, "error", err)
		}
	}

	result, err := s.analyzeProject(ctx, project, &AnalyzeOptions{
		Provider: params.Provider,
		Model:    params.Model,
	}, progress)
	if err != nil {
		job.Fail(err.Error())
		if uerr := s.jobs.Update(ctx, job); uerr != nil {
			logger.Error(ctx, "failed to persist job failure", uerr, "job_id", job.ID)
		}
		if node.IsRetryable(err) {
			return err
		}
		return nil
	}

	summary, _ := json.Marshal(map[string]any{
		"idea_count": len(result.Ideas),
		"degraded":   result.Degraded,
	})
	job.Complete(summary)
	return s.jobs.Update(ctx, job)
}
