// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"autopen-api/internal/application/chapter"
	"autopen-api/internal/domain/entity"
)

// EbookResponse 电子书响应
type EbookResponse struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	IdeaID      string     `json:"idea_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ChapterResponse 章节响应
type ChapterResponse struct {
	ID          string     `json:"id"`
	EbookID     string     `json:"ebook_id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	Content     *string    `json:"content,omitempty"`
	Status      string     `json:"status"`
	OrderIndex  int        `json:"order_index"`
	WordCount   int        `json:"word_count"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ChapterListResponse 章节列表响应
type ChapterListResponse struct {
	Chapters []*ChapterResponse `json:"chapters"`
}

// EbookDetailResponse 电子书详情响应，附带章节列表
type EbookDetailResponse struct {
	Ebook    *EbookResponse     `json:"ebook"`
	Chapters []*ChapterResponse `json:"chapters"`
}

// EditChapterRequest 编辑章节请求
type EditChapterRequest struct {
	Content string `json:"content" binding:"required"`
}

// AddChapterRequest 新增章节请求
type AddChapterRequest struct {
	Title    string `json:"title" binding:"required,max=255"`
	Mode     string `json:"mode" binding:"required,oneof=manual ai"`
	Provider string `json:"provider,omitempty" binding:"max=32"`
	Model    string `json:"model,omitempty" binding:"max=64"`
}

// GenerateChapterRequest 章节生成请求
type GenerateChapterRequest struct {
	Provider string `json:"provider,omitempty" binding:"max=32"`
	Model    string `json:"model,omitempty" binding:"max=64"`
}

// GenerateAllRequest 批量生成请求
type GenerateAllRequest struct {
	Provider string `json:"provider,omitempty" binding:"max=32"`
	Model    string `json:"model,omitempty" binding:"max=64"`
	// Async 为 true 时入队后台任务，立即返回任务信息
	Async bool `json:"async,omitempty"`
}

// ProgressResponse 生成进度响应
type ProgressResponse struct {
	Total        int64   `json:"total"`
	Completed    int64   `json:"completed"`
	Percent      float64 `json:"percent"`
	AllGenerated bool    `json:"all_generated"`
}

// BatchGenResponse 同步批量生成响应
type BatchGenResponse struct {
	Generated       []*ChapterResponse `json:"generated"`
	FailedChapterID string             `json:"failed_chapter_id,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// ToEbookResponse 将电子书实体转换为响应 DTO
func ToEbookResponse(e *entity.Ebook) *EbookResponse {
	if e == nil {
		return nil
	}
	return &EbookResponse{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		IdeaID:      e.IdeaID,
		Title:       e.Title,
		Description: e.Description,
		Status:      string(e.Status),
		FinalizedAt: e.FinalizedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ToChapterResponse 将章节实体转换为响应 DTO
func ToChapterResponse(ch *entity.Chapter) *ChapterResponse {
	if ch == nil {
		return nil
	}
	return &ChapterResponse{
		ID:          ch.ID,
		EbookID:     ch.EbookID,
		Title:       ch.Title,
		Summary:     ch.Summary,
		Content:     ch.Content,
		Status:      string(ch.Status),
		OrderIndex:  ch.OrderIndex,
		WordCount:   ch.WordCount,
		GeneratedAt: ch.GeneratedAt,
		UpdatedAt:   ch.UpdatedAt,
	}
}

// ToChapterListResponse 将章节实体列表转换为列表响应
func ToChapterListResponse(chapters []*entity.Chapter) *ChapterListResponse {
	items := make([]*ChapterResponse, 0, len(chapters))
	for _, ch := range chapters {
		items = append(items, ToChapterResponse(ch))
	}
	return &ChapterListResponse{Chapters: items}
}

// ToProgressResponse 将生成进度转换为响应 DTO
func ToProgressResponse(p *chapter.Progress) *ProgressResponse {
	if p == nil {
		return nil
	}
	return &ProgressResponse{
		Total:        p.Total,
		Completed:    p.Completed,
		Percent:      p.Percent,
		AllGenerated: p.AllGenerated,
	}
}

// ToBatchGenResponse 将批量生成结果转换为响应 DTO
func ToBatchGenResponse(r *chapter.BatchResult) *BatchGenResponse {
	if r == nil {
		return nil
	}
	resp := &BatchGenResponse{
		Generated:       make([]*ChapterResponse, 0, len(r.Generated)),
		FailedChapterID: r.FailedChapterID,
	}
	for _, ch := range r.Generated {
		resp.Generated = append(resp.Generated, ToChapterResponse(ch))
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}
