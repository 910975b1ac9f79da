package ingestion

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"autopen-api/internal/domain/service"
)

// 单文件抽取文本上限（字符数）
const maxExtractedRunes = 100_000

// 可直接按文本读取的扩展名
var plainTextExts = map[string]bool{
	".txt": true, ".md": true, ".markdown": true,
	".csv": true, ".json": true, ".html": true, ".htm": true,
}

// PlainTextExtractor 纯文本抽取器：文本类文件直接读取，
// 其余类型（图片、二进制文档）返回空文本交由调用方忽略。
type PlainTextExtractor struct{}

// NewPlainTextExtractor 创建纯文本抽取器
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract 抽取文件文本
func (e *PlainTextExtractor) Extract(ctx context.Context, fileName string, data []byte) (*service.ExtractedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !plainTextExts[ext] || !utf8.Valid(data) {
		return &service.ExtractedFile{}, nil
	}

	text := strings.TrimSpace(string(data))
	runes := []rune(text)
	if len(runes) > maxExtractedRunes {
		return &service.ExtractedFile{
			Text:      string(runes[:maxExtractedRunes]),
			Truncated: true,
		}, nil
	}
	return &service.ExtractedFile{Text: text}, nil
}
