package repository

import (
	"context"

	"autopen-api/internal/domain/entity"
)

// BrainDumpRepository 脑暴素材仓储接口
type BrainDumpRepository interface {
	// Create 创建脑暴素材
	Create(ctx context.Context, dump *entity.BrainDump) error

	// GetByID 根据 ID 获取脑暴素材
	GetByID(ctx context.Context, id string) (*entity.BrainDump, error)

	// GetByProject 获取项目的脑暴素材
	GetByProject(ctx context.Context, projectID string) (*entity.BrainDump, error)

	// Update 更新脑暴素材
	Update(ctx context.Context, dump *entity.BrainDump) error

	// CreateFile 新增附件文件
	CreateFile(ctx context.Context, file *entity.BrainDumpFile) error

	// GetFileByID 根据 ID 获取附件文件
	GetFileByID(ctx context.Context, id string) (*entity.BrainDumpFile, error)

	// ListFiles 获取脑暴素材的全部附件文件
	ListFiles(ctx context.Context, brainDumpID string) ([]*entity.BrainDumpFile, error)

	// DeleteFile 删除附件文件
	DeleteFile(ctx context.Context, id string) error

	// CreateLink 新增附件链接
	CreateLink(ctx context.Context, link *entity.BrainDumpLink) error

	// GetLinkByID 根据 ID 获取附件链接
	GetLinkByID(ctx context.Context, id string) (*entity.BrainDumpLink, error)

	// ListLinks 获取脑暴素材的全部附件链接
	ListLinks(ctx context.Context, brainDumpID string) ([]*entity.BrainDumpLink, error)

	// UpdateLink 更新附件链接
	UpdateLink(ctx context.Context, link *entity.BrainDumpLink) error

	// DeleteLink 删除附件链接
	DeleteLink(ctx context.Context, id string) error
}
