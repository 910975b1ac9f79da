// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"autopen-api/internal/domain/entity"
)

// SaveBrainDumpRequest 保存素材正文请求
type SaveBrainDumpRequest struct {
	Content string `json:"content"`
}

// AddLinkRequest 添加素材链接请求
type AddLinkRequest struct {
	URL string `json:"url" binding:"required,max=2048"`
}

// AnalyzeRequest 素材分析请求
type AnalyzeRequest struct {
	Provider string `json:"provider,omitempty" binding:"max=32"`
	Model    string `json:"model,omitempty" binding:"max=64"`
	// Async 为 true 时入队后台任务，立即返回任务信息
	Async bool `json:"async,omitempty"`
}

// AnalyzedTopicResponse 分析主题响应
type AnalyzedTopicResponse struct {
	Title     string   `json:"title"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// AnalyzedContentResponse 分析结果响应
type AnalyzedContentResponse struct {
	Summary  string                  `json:"summary,omitempty"`
	Topics   []AnalyzedTopicResponse `json:"topics"`
	Degraded bool                    `json:"degraded,omitempty"`
}

// BrainDumpFileResponse 素材文件响应
type BrainDumpFileResponse struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	FileSize  int64     `json:"file_size"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

// BrainDumpLinkResponse 素材链接响应
type BrainDumpLinkResponse struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	Title            string    `json:"title,omitempty"`
	LinkType         string    `json:"link_type"`
	ThumbnailURL     string    `json:"thumbnail_url,omitempty"`
	TranscriptStatus string    `json:"transcript_status"`
	TranscriptError  string    `json:"transcript_error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// BrainDumpResponse 素材响应
type BrainDumpResponse struct {
	ID              string                   `json:"id"`
	ProjectID       string                   `json:"project_id"`
	RawContent      string                   `json:"raw_content,omitempty"`
	AnalyzedContent *AnalyzedContentResponse `json:"analyzed_content,omitempty"`
	Status          string                   `json:"status"`
	WordCount       int                      `json:"word_count"`
	Files           []*BrainDumpFileResponse `json:"files"`
	Links           []*BrainDumpLinkResponse `json:"links"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// IdeaResponse 电子书构思响应
type IdeaResponse struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsCustom    bool      `json:"is_custom"`
	Selected    bool      `json:"selected"`
	CreatedAt   time.Time `json:"created_at"`
}

// IdeaListResponse 构思列表响应
type IdeaListResponse struct {
	Ideas []*IdeaResponse `json:"ideas"`
}

// AnalyzeResponse 同步分析响应
type AnalyzeResponse struct {
	BrainDump *BrainDumpResponse `json:"brain_dump"`
	Ideas     []*IdeaResponse    `json:"ideas"`
	Degraded  bool               `json:"degraded,omitempty"`
}

// ToAnalyzedContentResponse 将分析结果转换为响应 DTO
func ToAnalyzedContentResponse(a *entity.AnalyzedContent) *AnalyzedContentResponse {
	if a == nil {
		return nil
	}
	topics := make([]AnalyzedTopicResponse, 0, len(a.Topics))
	for _, t := range a.Topics {
		topics = append(topics, AnalyzedTopicResponse{
			Title:     t.Title,
			KeyPoints: t.KeyPoints,
		})
	}
	return &AnalyzedContentResponse{
		Summary:  a.Summary,
		Topics:   topics,
		Degraded: a.Degraded,
	}
}

// ToBrainDumpFileResponse 将素材文件实体转换为响应 DTO
func ToBrainDumpFileResponse(f *entity.BrainDumpFile) *BrainDumpFileResponse {
	if f == nil {
		return nil
	}
	return &BrainDumpFileResponse{
		ID:        f.ID,
		FileName:  f.FileName,
		FileSize:  f.FileSize,
		FileType:  string(f.FileType),
		CreatedAt: f.CreatedAt,
	}
}

// ToBrainDumpLinkResponse 将素材链接实体转换为响应 DTO
func ToBrainDumpLinkResponse(l *entity.BrainDumpLink) *BrainDumpLinkResponse {
	if l == nil {
		return nil
	}
	return &BrainDumpLinkResponse{
		ID:               l.ID,
		URL:              l.URL,
		Title:            l.Title,
		LinkType:         string(l.LinkType),
		ThumbnailURL:     l.ThumbnailURL,
		TranscriptStatus: string(l.TranscriptStatus),
		TranscriptError:  l.TranscriptError,
		CreatedAt:        l.CreatedAt,
	}
}

// ToBrainDumpResponse 组装素材响应，附带文件与链接列表
func ToBrainDumpResponse(d *entity.BrainDump, files []*entity.BrainDumpFile, links []*entity.BrainDumpLink) *BrainDumpResponse {
	if d == nil {
		return nil
	}
	fileItems := make([]*BrainDumpFileResponse, 0, len(files))
	for _, f := range files {
		fileItems = append(fileItems, ToBrainDumpFileResponse(f))
	}
	linkItems := make([]*BrainDumpLinkResponse, 0, len(links))
	for _, l := range links {
		linkItems = append(linkItems, ToBrainDumpLinkResponse(l))
	}
	return &BrainDumpResponse{
		ID:              d.ID,
		ProjectID:       d.ProjectID,
		RawContent:      d.RawContent,
		AnalyzedContent: ToAnalyzedContentResponse(d.AnalyzedContent),
		Status:          string(d.Status),
		WordCount:       d.WordCount(),
		Files:           fileItems,
		Links:           linkItems,
		UpdatedAt:       d.UpdatedAt,
	}
}

// ToIdeaResponse 将构思实体转换为响应 DTO
func ToIdeaResponse(i *entity.Idea) *IdeaResponse {
	if i == nil {
		return nil
	}
	return &IdeaResponse{
		ID:          i.ID,
		ProjectID:   i.ProjectID,
		Title:       i.Title,
		Description: i.Description,
		IsCustom:    i.IsCustom,
		Selected:    i.Selected,
		CreatedAt:   i.CreatedAt,
	}
}

// ToIdeaListResponse 将构思实体列表转换为列表响应
func ToIdeaListResponse(ideas []*entity.Idea) *IdeaListResponse {
	items := make([]*IdeaResponse, 0, len(ideas))
	for _, i := range ideas {
		items = append(items, ToIdeaResponse(i))
	}
	return &IdeaListResponse{Ideas: items}
}
