// Package export 实现电子书的文档组装与导出
package export

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"autopen-api/internal/domain/entity"
	"autopen-api/internal/domain/repository"
	redisstore "autopen-api/internal/infrastructure/persistence/redis"
	apperrors "autopen-api/pkg/errors"
	"autopen-api/pkg/metrics"
)

var tracer = otel.Tracer("export")

// Format 导出格式
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatEPUB     Format = "epub"
)

// Document 组装完成的导出文档
type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

// DocumentRenderer 富格式渲染端口。
// markdown 之外的格式（PDF、EPUB）由外部协作方渲染。
type DocumentRenderer interface {
	Render(ctx context.Context, markdown []byte, format Format) (*Document, error)
}

// exportCacheTTL 渲染结果缓存时长
const exportCacheTTL = 10 * time.Minute

// Assembler 导出组装器
type Assembler struct {
	ebooks   repository.EbookRepository
	chapters repository.ChapterRepository
	renderer DocumentRenderer
	cache    *redisstore.Cache
}

// NewAssembler 创建导出组装器；renderer 与 cache 均可为 nil
func NewAssembler(ebooks repository.EbookRepository, chapters repository.ChapterRepository, renderer DocumentRenderer, cache *redisstore.Cache) *Assembler {
	return &Assembler{ebooks: ebooks, chapters: chapters, renderer: renderer, cache: cache}
}

// Export 导出电子书。
// 存在未生成章节时拒绝导出；章节按 order_index 升序组装。
func (a *Assembler) Export(ctx context.Context, ebookID string, format Format) (*Document, error) {
	ctx, span := tracer.Start(ctx, "export.Assembler.Export")
	defer span.End()

	if format == "" {
		format = FormatMarkdown
	}

	ebook, err := a.ebooks.GetByID(ctx, ebookID)
	if err != nil {
		return nil, err
	}

	chapters, err := a.chapters.ListByEbook(ctx, ebookID)
	if err != nil {
		return nil, err
	}
	if len(chapters) == 0 {
		metrics.ExportTotal.WithLabelValues(string(format), "rejected").Inc()
		return nil, apperrors.ErrEbookNotReady.WithDetail("ebook has no chapters")
	}
	for _, ch := range chapters {
		if !ch.IsGenerated() {
			metrics.ExportTotal.WithLabelValues(string(format), "rejected").Inc()
			return nil, apperrors.ErrEbookNotReady.WithDetail("chapter not generated: " + ch.Title)
		}
	}

	if a.cache == nil {
		return a.assemble(ctx, ebook, chapters, format)
	}

	key := redisstore.BuildExportKey(ebook.ProjectID, ebookID, string(format), contentVersion(ebook, chapters))
	raw, err := a.cache.GetOrLoadSafe(ctx, key, exportCacheTTL, func() (interface{}, error) {
		return a.assemble(ctx, ebook, chapters, format)
	})
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// assemble 组装并按需渲染导出文档
func (a *Assembler) assemble(ctx context.Context, ebook *entity.Ebook, chapters []*entity.Chapter, format Format) (*Document, error) {
	markdown := AssembleMarkdown(ebook, chapters)

	switch format {
	case FormatMarkdown:
		metrics.ExportTotal.WithLabelValues(string(FormatMarkdown), "success").Inc()
		return &Document{
			FileName:    safeFileName(ebook.Title) + ".md",
			ContentType: "text/markdown; charset=utf-8",
			Data:        markdown,
		}, nil

	case FormatPDF, FormatEPUB:
		if a.renderer == nil {
			metrics.ExportTotal.WithLabelValues(string(format), "unsupported").Inc()
			return nil, apperrors.ErrValidationFailed.WithDetail("format not available: " + string(format))
		}
		doc, err := a.renderer.Render(ctx, markdown, format)
		if err != nil {
			metrics.ExportTotal.WithLabelValues(string(format), "error").Inc()
			return nil, err
		}
		metrics.ExportTotal.WithLabelValues(string(format), "success").Inc()
		return doc, nil

	default:
		return nil, apperrors.ErrValidationFailed.WithDetail("unknown export format: " + string(format))
	}
}

// AssembleMarkdown 组装 markdown 文档：标题页、描述、逐章正文
func AssembleMarkdown(ebook *entity.Ebook, chapters []*entity.Chapter) []byte {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(ebook.Title)
	b.WriteString("\n")
	if strings.TrimSpace(ebook.Description) != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(ebook.Description))
		b.WriteString("\n")
	}

	for _, ch := range chapters {
		b.WriteString("\n## ")
		b.WriteString(ch.Title)
		b.WriteString("\n\n")
		if ch.Content != nil {
			b.WriteString(strings.TrimSpace(*ch.Content))
			b.WriteString("\n")
		}
	}

	return []byte(b.String())
}

// contentVersion 取电子书与章节中最晚的修改时间作为内容版本号
func contentVersion(ebook *entity.Ebook, chapters []*entity.Chapter) int64 {
	latest := ebook.UpdatedAt
	for _, ch := range chapters {
		if ch.UpdatedAt.After(latest) {
			latest = ch.UpdatedAt
		}
	}
	return latest.Unix()
}

// safeFileName 把标题转成安全的文件名
func safeFileName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "ebook"
	}
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		return "ebook"
	}
	return strings.ToLower(name)
}
