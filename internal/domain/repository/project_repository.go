// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"autopen-api/internal/domain/entity"
)

// ProjectFilter 项目过滤条件
type ProjectFilter struct {
	Status entity.ProjectStatus
	Search string
}

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// Create 创建项目
	Create(ctx context.Context, project *entity.Project) error

	// GetByID 根据 ID 获取项目
	GetByID(ctx context.Context, id string) (*entity.Project, error)

	// GetByIDForOwner 根据 ID 获取属于指定用户的项目
	GetByIDForOwner(ctx context.Context, id, ownerID string) (*entity.Project, error)

	// Update 更新项目
	Update(ctx context.Context, project *entity.Project) error

	// Delete 删除项目
	Delete(ctx context.Context, id string) error

	// ListByOwner 获取用户项目列表
	ListByOwner(ctx context.Context, ownerID string, filter *ProjectFilter, pagination Pagination) (*PagedResult[*entity.Project], error)

	// UpdateStep 更新项目当前步骤
	UpdateStep(ctx context.Context, id, step string) error
}
