package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"autopen-api/internal/domain/entity"
	apperrors "autopen-api/pkg/errors"
)

// ChapterRepository 章节仓储实现
type ChapterRepository struct {
	client *Client
}

// NewChapterRepository 创建章节仓储
func NewChapterRepository(client *Client) *ChapterRepository {
	return &ChapterRepository{client: client}
}

// Create 创建章节
func (r *ChapterRepository) Create(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(chapter).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取章节
func (r *ChapterRepository) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapter entity.Chapter
	if err := db.First(&chapter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChapterNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// Update 更新章节
func (r *ChapterRepository) Update(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(chapter).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return nil
}

// Delete 删除章节
func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Delete(&entity.Chapter{}, "id = ?", id)
	if result.Error != nil {
		span.RecordError(result.Error)
		return fmt.Errorf("failed to delete chapter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrChapterNotFound
	}
	return nil
}

// ListByEbook 获取电子书章节列表（按序号升序）
func (r *ChapterRepository) ListByEbook(ctx context.Context, ebookID string) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByEbook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Where("ebook_id = ?", ebookID).Order("order_index ASC").Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// ListByEbookAndStatus 按状态获取电子书章节列表（按序号升序）
func (r *ChapterRepository) ListByEbookAndStatus(ctx context.Context, ebookID string, status entity.ChapterStatus) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByEbookAndStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var chapters []*entity.Chapter
	if err := db.Where("ebook_id = ? AND status = ?", ebookID, status).
		Order("order_index ASC").Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters by status: %w", err)
	}
	return chapters, nil
}

// UpdateContent 更新章节内容
func (r *ChapterRepository) UpdateContent(ctx context.Context, id, content string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.UpdateContent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.Chapter{}).Where("id = ?", id).Update("content", content)
	if result.Error != nil {
		span.RecordError(result.Error)
		return fmt.Errorf("failed to update chapter content: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrChapterNotFound
	}
	return nil
}

// UpdateStatus 更新章节状态
func (r *ChapterRepository) UpdateStatus(ctx context.Context, id string, status entity.ChapterStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.UpdateStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.Chapter{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		span.RecordError(result.Error)
		return fmt.Errorf("failed to update chapter status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrChapterNotFound
	}
	return nil
}

// GetNextOrderIndex 获取下一个章节序号
func (r *ChapterRepository) GetNextOrderIndex(ctx context.Context, ebookID string) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetNextOrderIndex")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var max *int
	if err := db.Model(&entity.Chapter{}).
		Where("ebook_id = ?", ebookID).
		Select("MAX(order_index)").
		Scan(&max).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get next order index: %w", err)
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

// CountByEbook 统计电子书章节总数
func (r *ChapterRepository) CountByEbook(ctx context.Context, ebookID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.CountByEbook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Chapter{}).Where("ebook_id = ?", ebookID).Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return count, nil
}

// CountByStatus 按状态统计电子书章节数
func (r *ChapterRepository) CountByStatus(ctx context.Context, ebookID string, status entity.ChapterStatus) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.CountByStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	if err := db.Model(&entity.Chapter{}).
		Where("ebook_id = ? AND status = ?", ebookID, status).
		Count(&count).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count chapters by status: %w", err)
	}
	return count, nil
}
