package repository

import (
	"context"

	"autopen-api/internal/domain/entity"
)

// JobFilter 任务过滤条件
type JobFilter struct {
	JobType entity.JobType
	Status  entity.JobStatus
}

// JobRepository 生成任务仓储接口
type JobRepository interface {
	// Create 创建任务
	Create(ctx context.Context, job *entity.GenerationJob) error

	// GetByID 根据 ID 获取任务
	GetByID(ctx context.Context, id string) (*entity.GenerationJob, error)

	// Update 更新任务
	Update(ctx context.Context, job *entity.GenerationJob) error

	// ListByProject 获取项目任务列表
	ListByProject(ctx context.Context, projectID string, filter *JobFilter, pagination Pagination) (*PagedResult[*entity.GenerationJob], error)

	// UpdateStatus 更新任务状态
	UpdateStatus(ctx context.Context, id string, status entity.JobStatus) error

	// UpdateProgress 更新任务进度（0-100）
	UpdateProgress(ctx context.Context, id string, progress int) error

	// GetLatestByType 获取项目指定类型的最新任务
	GetLatestByType(ctx context.Context, projectID string, jobType entity.JobType) (*entity.GenerationJob, error)
}
