package entity

import "time"

// EbookStatus 电子书状态
type EbookStatus string

const (
	EbookStatusDraft      EbookStatus = "draft"
	EbookStatusInProgress EbookStatus = "in_progress"
	EbookStatusComplete   EbookStatus = "complete"
)

// Ebook 电子书实体，由选中的创意生成，持有章节大纲
type Ebook struct {
	ID          string      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID   string      `json:"project_id" gorm:"type:uuid;index;not null"`
	IdeaID      string      `json:"idea_id" gorm:"type:uuid;index"`
	Title       string      `json:"title" gorm:"type:varchar(255);not null"`
	Description string      `json:"description,omitempty" gorm:"type:text"`
	Status      EbookStatus `json:"status" gorm:"type:varchar(50);default:'draft'"`
	FinalizedAt *time.Time  `json:"finalized_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Ebook) TableName() string {
	return "ebooks"
}

// NewEbook 从创意创建电子书
func NewEbook(projectID, ideaID, title, description string) *Ebook {
	now := time.Now()
	return &Ebook{
		ProjectID:   projectID,
		IdeaID:      ideaID,
		Title:       title,
		Description: description,
		Status:      EbookStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkInProgress 标记写作中
func (e *Ebook) MarkInProgress() {
	if e.Status == EbookStatusDraft {
		e.Status = EbookStatusInProgress
		e.UpdatedAt = time.Now()
	}
}

// Finalize 定稿；幂等，重复调用不改变定稿时间
func (e *Ebook) Finalize() {
	if e.Status == EbookStatusComplete {
		return
	}
	now := time.Now()
	e.Status = EbookStatusComplete
	e.FinalizedAt = &now
	e.UpdatedAt = now
}

// IsComplete 检查是否已定稿
func (e *Ebook) IsComplete() bool {
	return e.Status == EbookStatusComplete
}
