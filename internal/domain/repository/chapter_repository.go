package repository

import (
	"context"

	"autopen-api/internal/domain/entity"
)

// ChapterRepository 章节仓储接口
type ChapterRepository interface {
	// Create 创建章节
	Create(ctx context.Context, chapter *entity.Chapter) error

	// GetByID 根据 ID 获取章节
	GetByID(ctx context.Context, id string) (*entity.Chapter, error)

	// Update 更新章节
	Update(ctx context.Context, chapter *entity.Chapter) error

	// Delete 删除章节
	Delete(ctx context.Context, id string) error

	// ListByEbook 获取电子书章节列表（按序号升序）
	ListByEbook(ctx context.Context, ebookID string) ([]*entity.Chapter, error)

	// ListByEbookAndStatus 按状态获取电子书章节列表（按序号升序）
	ListByEbookAndStatus(ctx context.Context, ebookID string, status entity.ChapterStatus) ([]*entity.Chapter, error)

	// UpdateContent 更新章节内容
	UpdateContent(ctx context.Context, id, content string) error

	// UpdateStatus 更新章节状态
	UpdateStatus(ctx context.Context, id string, status entity.ChapterStatus) error

	// GetNextOrderIndex 获取下一个章节序号
	GetNextOrderIndex(ctx context.Context, ebookID string) (int, error)

	// CountByEbook 统计电子书章节总数
	CountByEbook(ctx context.Context, ebookID string) (int64, error)

	// CountByStatus 按状态统计电子书章节数
	CountByStatus(ctx context.Context, ebookID string, status entity.ChapterStatus) (int64, error)
}
