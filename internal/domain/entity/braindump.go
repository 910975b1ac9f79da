// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
	"unicode"
)

// BrainDumpStatus 脑暴素材状态
type BrainDumpStatus string

const (
	BrainDumpStatusEmpty     BrainDumpStatus = "empty"
	BrainDumpStatusSaved     BrainDumpStatus = "saved"
	BrainDumpStatusAnalyzing BrainDumpStatus = "analyzing"
	BrainDumpStatusAnalyzed  BrainDumpStatus = "analyzed"
)

// AnalyzedTopic 分析出的主题
type AnalyzedTopic struct {
	Title     string   `json:"title"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// AnalyzedContent 分析结果：主题与要点的结构化集合
type AnalyzedContent struct {
	Summary  string          `json:"summary,omitempty"`
	Topics   []AnalyzedTopic `json:"topics"`
	Degraded bool            `json:"degraded,omitempty"`
}

// BrainDump 脑暴素材实体，承载进入结构化生成前的全部原始输入
type BrainDump struct {
	ID              string           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID       string           `json:"project_id" gorm:"type:uuid;index;not null"`
	RawContent      string           `json:"raw_content,omitempty" gorm:"type:text"`
	AnalyzedContent *AnalyzedContent `json:"analyzed_content,omitempty" gorm:"type:jsonb;serializer:json"`
	Status          BrainDumpStatus  `json:"status" gorm:"type:varchar(50);default:'empty'"`
	CreatedAt       time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (BrainDump) TableName() string {
	return "brain_dumps"
}

// NewBrainDump 创建脑暴素材
func NewBrainDump(projectID string) *BrainDump {
	now := time.Now()
	return &BrainDump{
		ProjectID: projectID,
		Status:    BrainDumpStatusEmpty,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SaveContent 保存原始内容
func (b *BrainDump) SaveContent(content string) {
	b.RawContent = content
	if strings.TrimSpace(content) == "" {
		b.Status = BrainDumpStatusEmpty
	} else {
		b.Status = BrainDumpStatusSaved
	}
	b.UpdatedAt = time.Now()
}

// StartAnalysis 进入分析中状态
func (b *BrainDump) StartAnalysis() {
	b.Status = BrainDumpStatusAnalyzing
	b.UpdatedAt = time.Now()
}

// CompleteAnalysis 写入分析结果
// 不变式：analyzed_content 非空当且仅当 status == analyzed
func (b *BrainDump) CompleteAnalysis(result *AnalyzedContent) {
	b.AnalyzedContent = result
	b.Status = BrainDumpStatusAnalyzed
	b.UpdatedAt = time.Now()
}

// RevertToSaved 分析失败时回退到已保存状态
func (b *BrainDump) RevertToSaved() {
	b.AnalyzedContent = nil
	if strings.TrimSpace(b.RawContent) == "" {
		b.Status = BrainDumpStatusEmpty
	} else {
		b.Status = BrainDumpStatusSaved
	}
	b.UpdatedAt = time.Now()
}

// IsAnalyzed 检查是否已完成分析
func (b *BrainDump) IsAnalyzed() bool {
	return b.Status == BrainDumpStatusAnalyzed
}

// WordCount 统计原始内容的词数
func (b *BrainDump) WordCount() int {
	return countWords(b.RawContent)
}

// countWords 以空白分词统计词数
func countWords(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

// FileType 附件文件类型
type FileType string

const (
	FileTypeDocument FileType = "document"
	FileTypeImage    FileType = "image"
)

// BrainDumpFile 脑暴附件文件
type BrainDumpFile struct {
	ID            string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BrainDumpID   string    `json:"brain_dump_id" gorm:"type:uuid;index;not null"`
	FileName      string    `json:"file_name" gorm:"type:varchar(255);not null"`
	FileSize      int64     `json:"file_size"`
	FileType      FileType  `json:"file_type" gorm:"type:varchar(20)"`
	ExtractedText string    `json:"extracted_text,omitempty" gorm:"type:text"`
	StorageKey    string    `json:"storage_key,omitempty" gorm:"type:varchar(512)"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (BrainDumpFile) TableName() string {
	return "brain_dump_files"
}

// LinkType 链接类型
type LinkType string

const (
	LinkTypeWebpage LinkType = "webpage"
	LinkTypeYouTube LinkType = "youtube"
)

// TranscriptStatus 字幕抓取状态
type TranscriptStatus string

const (
	TranscriptStatusLoading TranscriptStatus = "loading"
	TranscriptStatusFetched TranscriptStatus = "fetched"
	TranscriptStatusFailed  TranscriptStatus = "failed"
)

// BrainDumpLink 脑暴附件链接
// 生命周期：创建即 loading，随后恰好一次转移到 fetched 或 failed
type BrainDumpLink struct {
	ID               string           `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BrainDumpID      string           `json:"brain_dump_id" gorm:"type:uuid;index;not null"`
	URL              string           `json:"url" gorm:"type:varchar(2048);not null"`
	Title            string           `json:"title,omitempty" gorm:"type:varchar(255)"`
	LinkType         LinkType         `json:"link_type" gorm:"type:varchar(20)"`
	ThumbnailURL     string           `json:"thumbnail_url,omitempty" gorm:"type:varchar(2048)"`
	Transcript       string           `json:"transcript,omitempty" gorm:"type:text"`
	TranscriptStatus TranscriptStatus `json:"transcript_status" gorm:"type:varchar(20);default:'loading'"`
	TranscriptError  string           `json:"transcript_error,omitempty" gorm:"type:text"`
	CreatedAt        time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (BrainDumpLink) TableName() string {
	return "brain_dump_links"
}

// NewBrainDumpLink 创建链接附件，初始为 loading 状态
func NewBrainDumpLink(brainDumpID, url string, linkType LinkType) *BrainDumpLink {
	now := time.Now()
	return &BrainDumpLink{
		BrainDumpID:      brainDumpID,
		URL:              url,
		LinkType:         linkType,
		TranscriptStatus: TranscriptStatusLoading,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IsLoading 检查字幕是否仍在抓取中
func (l *BrainDumpLink) IsLoading() bool {
	return l.TranscriptStatus == TranscriptStatusLoading
}

// MarkFetched 写入抓取到的字幕；仅在 loading 状态下生效
func (l *BrainDumpLink) MarkFetched(transcript string) bool {
	if l.TranscriptStatus != TranscriptStatusLoading {
		return false
	}
	l.Transcript = transcript
	l.TranscriptError = ""
	l.TranscriptStatus = TranscriptStatusFetched
	l.UpdatedAt = time.Now()
	return true
}

// MarkFailed 标记抓取失败；仅在 loading 状态下生效
func (l *BrainDumpLink) MarkFailed(reason string) bool {
	if l.TranscriptStatus != TranscriptStatusLoading {
		return false
	}
	l.Transcript = ""
	l.TranscriptError = reason
	l.TranscriptStatus = TranscriptStatusFailed
	l.UpdatedAt = time.Now()
	return true
}
