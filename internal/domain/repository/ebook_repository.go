package repository

import (
	"context"

	"autopen-api/internal/domain/entity"
)

// EbookRepository 电子书仓储接口
type EbookRepository interface {
	// Create 创建电子书
	Create(ctx context.Context, ebook *entity.Ebook) error

	// GetByID 根据 ID 获取电子书
	GetByID(ctx context.Context, id string) (*entity.Ebook, error)

	// GetByProject 获取项目的电子书
	GetByProject(ctx context.Context, projectID string) (*entity.Ebook, error)

	// Update 更新电子书
	Update(ctx context.Context, ebook *entity.Ebook) error

	// Delete 删除电子书及其章节
	Delete(ctx context.Context, id string) error
}
