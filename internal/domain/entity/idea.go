package entity

import (
	"encoding/json"
	"time"

	apperrors "autopen-api/pkg/errors"
)

// Idea 电子书创意
// AI 生成与用户自定义创意共用同一实体；生成后不可修改
type Idea struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID   string    `json:"project_id" gorm:"type:uuid;index;not null"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	// SourceData 生成该创意时的分析上下文快照
	SourceData json.RawMessage `json:"source_data,omitempty" gorm:"type:jsonb"`
	IsCustom   bool            `json:"is_custom" gorm:"default:false"`
	Selected   bool            `json:"selected" gorm:"default:false"`
	CreatedAt  time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Idea) TableName() string {
	return "ideas"
}

// NewIdea 创建 AI 生成的创意
func NewIdea(projectID, title, description string) *Idea {
	return &Idea{
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		IsCustom:    false,
		CreatedAt:   time.Now(),
	}
}

// NewCustomIdea 创建用户自定义创意，校验标题与描述的最小长度
func NewCustomIdea(projectID, title, description string) (*Idea, error) {
	if len(title) < 5 {
		return nil, apperrors.ErrValidationFailed.WithDetail("idea title must be at least 5 characters")
	}
	if len(description) < 20 {
		return nil, apperrors.ErrValidationFailed.WithDetail("idea description must be at least 20 characters")
	}
	return &Idea{
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		IsCustom:    true,
		CreatedAt:   time.Now(),
	}, nil
}
