package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"autopen-api/internal/domain/entity"
	apperrors "autopen-api/pkg/errors"
)

// EbookRepository 电子书仓储实现
type EbookRepository struct {
	client *Client
}

// NewEbookRepository 创建电子书仓储
func NewEbookRepository(client *Client) *EbookRepository {
	return &EbookRepository{client: client}
}

// Create 创建电子书
func (r *EbookRepository) Create(ctx context.Context, ebook *entity.Ebook) error {
	ctx, span := tracer.Start(ctx, "postgres.EbookRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(ebook).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create ebook: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取电子书
func (r *EbookRepository) GetByID(ctx context.Context, id string) (*entity.Ebook, error) {
	ctx, span := tracer.Start(ctx, "postgres.EbookRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var ebook entity.Ebook
	if err := db.First(&ebook, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEbookNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get ebook: %w", err)
	}
	return &ebook, nil
}

// GetByProject 获取项目的电子书
func (r *EbookRepository) GetByProject(ctx context.Context, projectID string) (*entity.Ebook, error) {
	ctx, span := tracer.Start(ctx, "postgres.EbookRepository.GetByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var ebook entity.Ebook
	if err := db.First(&ebook, "project_id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEbookNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get ebook: %w", err)
	}
	return &ebook, nil
}

// Update 更新电子书
func (r *EbookRepository) Update(ctx context.Context, ebook *entity.Ebook) error {
	ctx, span := tracer.Start(ctx, "postgres.EbookRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(ebook).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update ebook: %w", err)
	}
	return nil
}

// Delete 删除电子书及其章节
func (r *EbookRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.EbookRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Chapter{}, "ebook_id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete ebook chapters: %w", err)
	}
	if err := db.Delete(&entity.Ebook{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete ebook: %w", err)
	}
	return nil
}
