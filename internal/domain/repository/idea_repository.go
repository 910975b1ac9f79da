package repository

import (
	"context"

	"autopen-api/internal/domain/entity"
)

// IdeaRepository 创意仓储接口
type IdeaRepository interface {
	// Create 创建创意
	Create(ctx context.Context, idea *entity.Idea) error

	// CreateBatch 批量创建创意
	CreateBatch(ctx context.Context, ideas []*entity.Idea) error

	// GetByID 根据 ID 获取创意
	GetByID(ctx context.Context, id string) (*entity.Idea, error)

	// ListByProject 获取项目的全部创意
	ListByProject(ctx context.Context, projectID string) ([]*entity.Idea, error)

	// MarkSelected 将指定创意标记为选中，并清除项目内其他创意的选中标记
	MarkSelected(ctx context.Context, projectID, ideaID string) error

	// DeleteByProject 删除项目的全部创意
	DeleteByProject(ctx context.Context, projectID string) error
}
