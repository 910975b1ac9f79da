package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"autopen-api/internal/domain/entity"
	apperrors "autopen-api/pkg/errors"
)

// BrainDumpRepository 脑暴素材仓储实现
type BrainDumpRepository struct {
	client *Client
}

// NewBrainDumpRepository 创建脑暴素材仓储
func NewBrainDumpRepository(client *Client) *BrainDumpRepository {
	return &BrainDumpRepository{client: client}
}

// Create 创建脑暴素材
func (r *BrainDumpRepository) Create(ctx context.Context, dump *entity.BrainDump) error {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(dump).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create brain dump: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取脑暴素材
func (r *BrainDumpRepository) GetByID(ctx context.Context, id string) (*entity.BrainDump, error) {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var dump entity.BrainDump
	if err := db.First(&dump, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBrainDumpNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get brain dump: %w", err)
	}
	return &dump, nil
}

// GetByProject 获取项目的脑暴素材
func (r *BrainDumpRepository) GetByProject(ctx context.Context, projectID string) (*entity.BrainDump, error) {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.GetByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var dump entity.BrainDump
	if err := db.First(&dump, "project_id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBrainDumpNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get brain dump: %w", err)
	}
	return &dump, nil
}

// Update 更新脑暴素材
func (r *BrainDumpRepository) Update(ctx context.Context, dump *entity.BrainDump) error {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(dump).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update brain dump: %w", err)
	}
	return nil
}

// CreateFile 新增附件文件
func (r *BrainDumpRepository) CreateFile(ctx context.Context, file *entity.BrainDumpFile) error {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.CreateFile")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(file).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create brain dump file: %w", err)
	}
	return nil
}

// GetFileByID 根据 ID 获取附件文件
func (r *BrainDumpRepository) GetFileByID(ctx context.Context, id string) (*entity.BrainDumpFile, error) {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.GetFileByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var file entity.BrainDumpFile
	if err := db.First(&file, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeFileNotFound, "file not found")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get brain dump file: %w", err)
	}
	return &file, nil
}

// ListFiles 获取脑暴素材的全部附件文件
func (r *BrainDumpRepository) ListFiles(ctx context.Context, brainDumpID string) ([]*entity.BrainDumpFile, error) {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.ListFiles")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var files []*entity.BrainDumpFile
	if err := db.Where("brain_dump_id = ?", brainDumpID).Order("created_at ASC").Find(&files).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list brain dump files: %w", err)
	}
	return files, nil
}

// DeleteFile 删除附件文件
func (r *BrainDumpRepository) DeleteFile(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.DeleteFile")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Delete(&entity.BrainDumpFile{}, "id = ?", id)
	if result.Error != nil {
		span.RecordError(result.Error)
		return fmt.Errorf("failed to delete brain dump file: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeFileNotFound, "file not found")
	}
	return nil
}

// CreateLink 新增附件链接
func (r *BrainDumpRepository) CreateLink(ctx context.Context, link *entity.BrainDumpLink) error {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.CreateLink")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(link).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create brain dump link: %w", err)
	}
	return nil
}

// GetLinkByID 根据 ID 获取附件链接
func (r *BrainDumpRepository) GetLinkByID(ctx context.Context, id string) (*entity.BrainDumpLink, error) {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.GetLinkByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var link entity.BrainDumpLink
	if err := db.First(&link, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLinkNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get brain dump link: %w", err)
	}
	return &link, nil
}

// ListLinks 获取脑暴素材的全部附件链接
func (r *BrainDumpRepository) ListLinks(ctx context.Context, brainDumpID string) ([]*entity.BrainDumpLink, error) {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.ListLinks")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var links []*entity.BrainDumpLink
	if err := db.Where("brain_dump_id = ?", brainDumpID).Order("created_at ASC").Find(&links).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list brain dump links: %w", err)
	}
	return links, nil
}

// UpdateLink 更新附件链接
func (r *BrainDumpRepository) UpdateLink(ctx context.Context, link *entity.BrainDumpLink) error {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.UpdateLink")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(link).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update brain dump link: %w", err)
	}
	return nil
}

// DeleteLink 删除附件链接
func (r *BrainDumpRepository) DeleteLink(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.BrainDumpRepository.DeleteLink")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Delete(&entity.BrainDumpLink{}, "id = ?", id)
	if result.Error != nil {
		span.RecordError(result.Error)
		return fmt.Errorf("failed to delete brain dump link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrLinkNotFound
	}
	return nil
}
