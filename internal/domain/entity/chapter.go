package entity

import "time"

// ChapterStatus 章节状态
type ChapterStatus string

const (
	ChapterStatusPending    ChapterStatus = "pending"
	ChapterStatusGenerating ChapterStatus = "generating"
	ChapterStatusGenerated  ChapterStatus = "generated"
)

// Chapter 章节实体
// 不变式：Content 非空当且仅当 status == generated
type Chapter struct {
	ID          string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EbookID     string        `json:"ebook_id" gorm:"type:uuid;index;not null"`
	Title       string        `json:"title" gorm:"type:varchar(255);not null"`
	Summary     string        `json:"summary,omitempty" gorm:"type:text"`
	Content     *string       `json:"content,omitempty" gorm:"type:text"`
	Status      ChapterStatus `json:"status" gorm:"type:varchar(50);default:'pending'"`
	OrderIndex  int           `json:"order_index" gorm:"index;not null"`
	WordCount   int           `json:"word_count" gorm:"default:0"`
	GeneratedAt *time.Time    `json:"generated_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// NewChapter 创建待生成章节
func NewChapter(ebookID, title, summary string, orderIndex int) *Chapter {
	now := time.Now()
	return &Chapter{
		EbookID:    ebookID,
		Title:      title,
		Summary:    summary,
		Status:     ChapterStatusPending,
		OrderIndex: orderIndex,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewManualChapter 创建带内容的手工章节，直接进入 generated 状态
func NewManualChapter(ebookID, title, content string, orderIndex int) *Chapter {
	now := time.Now()
	c := &Chapter{
		EbookID:    ebookID,
		Title:      title,
		Status:     ChapterStatusGenerated,
		OrderIndex: orderIndex,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	c.setContent(content, now)
	return c
}

// GenerationSnapshot 进入生成前的章节快照，生成失败时用于回滚
type GenerationSnapshot struct {
	Status      ChapterStatus
	Content     *string
	WordCount   int
	GeneratedAt *time.Time
}

// StartGenerating 进入生成中状态，返回进入前的快照
func (c *Chapter) StartGenerating() GenerationSnapshot {
	snap := GenerationSnapshot{
		Status:      c.Status,
		Content:     c.Content,
		WordCount:   c.WordCount,
		GeneratedAt: c.GeneratedAt,
	}
	c.Status = ChapterStatusGenerating
	c.UpdatedAt = time.Now()
	return snap
}

// CompleteGeneration 写入生成内容并进入 generated 状态
func (c *Chapter) CompleteGeneration(content string) {
	now := time.Now()
	c.Status = ChapterStatusGenerated
	c.GeneratedAt = &now
	c.setContent(content, now)
}

// FailGeneration 生成失败回滚到进入生成前的快照；
// 首次生成回到 pending，重新生成保留原有内容与 generated 状态
func (c *Chapter) FailGeneration(snap GenerationSnapshot) {
	c.Status = snap.Status
	c.Content = snap.Content
	c.WordCount = snap.WordCount
	c.GeneratedAt = snap.GeneratedAt
	c.UpdatedAt = time.Now()
}

// UpdateContent 用户编辑内容；编辑后章节视为 generated
func (c *Chapter) UpdateContent(content string) {
	now := time.Now()
	c.Status = ChapterStatusGenerated
	if c.GeneratedAt == nil {
		c.GeneratedAt = &now
	}
	c.setContent(content, now)
}

// IsGenerated 检查是否已生成
func (c *Chapter) IsGenerated() bool {
	return c.Status == ChapterStatusGenerated
}

// IsGenerating 检查是否生成中
func (c *Chapter) IsGenerating() bool {
	return c.Status == ChapterStatusGenerating
}

func (c *Chapter) setContent(content string, at time.Time) {
	c.Content = &content
	c.WordCount = countWords(content)
	c.UpdatedAt = at
}
