// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"autopen-api/internal/domain/entity"
)

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description" binding:"max=5000"`
}

// ToProjectEntity 转换为领域实体
func (r *CreateProjectRequest) ToProjectEntity(ownerID string) *entity.Project {
	return entity.NewProject(ownerID, r.Title, r.Description)
}

// UpdateProjectRequest 更新项目请求
type UpdateProjectRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=5000"`
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CurrentStep string    `json:"current_step"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectListResponse 项目列表响应
type ProjectListResponse struct {
	Projects []*ProjectResponse `json:"projects"`
}

// ToProjectResponse 将领域实体转换为响应 DTO
func ToProjectResponse(p *entity.Project) *ProjectResponse {
	if p == nil {
		return nil
	}
	return &ProjectResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		Status:      string(p.Status),
		CurrentStep: p.CurrentStep,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProjectListResponse 将领域实体列表转换为列表响应
func ToProjectListResponse(projects []*entity.Project) *ProjectListResponse {
	items := make([]*ProjectResponse, 0, len(projects))
	for _, p := range projects {
		items = append(items, ToProjectResponse(p))
	}
	return &ProjectListResponse{Projects: items}
}
