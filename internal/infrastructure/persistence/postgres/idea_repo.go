package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"autopen-api/internal/domain/entity"
	apperrors "autopen-api/pkg/errors"
)

// IdeaRepository 创意仓储实现
type IdeaRepository struct {
	client *Client
}

// NewIdeaRepository 创建创意仓储
func NewIdeaRepository(client *Client) *IdeaRepository {
	return &IdeaRepository{client: client}
}

// Create 创建创意
func (r *IdeaRepository) Create(ctx context.Context, idea *entity.Idea) error {
	ctx, span := tracer.Start(ctx, "postgres.IdeaRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(idea).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create idea: %w", err)
	}
	return nil
}

// CreateBatch 批量创建创意
func (r *IdeaRepository) CreateBatch(ctx context.Context, ideas []*entity.Idea) error {
	ctx, span := tracer.Start(ctx, "postgres.IdeaRepository.CreateBatch")
	defer span.End()

	if len(ideas) == 0 {
		return nil
	}
	db := getDB(ctx, r.client.db)
	if err := db.Create(&ideas).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create ideas: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取创意
func (r *IdeaRepository) GetByID(ctx context.Context, id string) (*entity.Idea, error) {
	ctx, span := tracer.Start(ctx, "postgres.IdeaRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var idea entity.Idea
	if err := db.First(&idea, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIdeaNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get idea: %w", err)
	}
	return &idea, nil
}

// ListByProject 获取项目的全部创意
func (r *IdeaRepository) ListByProject(ctx context.Context, projectID string) ([]*entity.Idea, error) {
	ctx, span := tracer.Start(ctx, "postgres.IdeaRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var ideas []*entity.Idea
	if err := db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&ideas).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	return ideas, nil
}

// MarkSelected 将指定创意标记为选中，并清除项目内其他创意的选中标记
func (r *IdeaRepository) MarkSelected(ctx context.Context, projectID, ideaID string) error {
	ctx, span := tracer.Start(ctx, "postgres.IdeaRepository.MarkSelected")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Idea{}).
		Where("project_id = ?", projectID).
		Update("selected", false).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to clear idea selection: %w", err)
	}

	result := db.Model(&entity.Idea{}).
		Where("id = ? AND project_id = ?", ideaID, projectID).
		Update("selected", true)
	if result.Error != nil {
		span.RecordError(result.Error)
		return fmt.Errorf("failed to mark idea selected: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrIdeaNotFound
	}
	return nil
}

// DeleteByProject 删除项目的全部创意
func (r *IdeaRepository) DeleteByProject(ctx context.Context, projectID string) error {
	ctx, span := tracer.Start(ctx, "postgres.IdeaRepository.DeleteByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Idea{}, "project_id = ?", projectID).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete ideas: %w", err)
	}
	return nil
}
