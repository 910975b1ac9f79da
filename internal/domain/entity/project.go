// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
)

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusArchived   ProjectStatus = "archived"
)

// Project 创作项目实体，一个项目对应一次完整的电子书创作会话
type Project struct {
	ID          string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID     string        `json:"owner_id,omitempty" gorm:"type:uuid;index"`
	Title       string        `json:"title" gorm:"type:varchar(255);not null"`
	Description string        `json:"description,omitempty" gorm:"type:text"`
	Status      ProjectStatus `json:"status" gorm:"type:varchar(50);default:'draft'"`
	CurrentStep string        `json:"current_step" gorm:"type:varchar(50);default:'creator'"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// NewProject 创建新项目
func NewProject(ownerID, title, description string) *Project {
	now := time.Now()
	return &Project{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Status:      ProjectStatusDraft,
		CurrentStep: "creator",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ValidateTitle 校验项目标题，标题不能为空
func (p *Project) ValidateTitle() bool {
	return strings.TrimSpace(p.Title) != ""
}

// IsEditable 检查项目是否可编辑
func (p *Project) IsEditable() bool {
	return p.Status == ProjectStatusDraft || p.Status == ProjectStatusInProgress
}

// MarkInProgress 标记项目进入创作
func (p *Project) MarkInProgress() {
	p.Status = ProjectStatusInProgress
	p.UpdatedAt = time.Now()
}

// MarkCompleted 标记项目完成
func (p *Project) MarkCompleted() {
	p.Status = ProjectStatusCompleted
	p.UpdatedAt = time.Now()
}
