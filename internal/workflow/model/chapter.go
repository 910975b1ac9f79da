package model

// ChapterGenerateInput 章节内容生成的模型输入
type ChapterGenerateInput struct {
	EbookTitle       string
	EbookDescription string

	ChapterTitle   string
	ChapterSummary string

	PreviousChapters []PreviousChapter

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// PreviousChapter 已生成章节的上下文片段，按 order_index 升序传入
type PreviousChapter struct {
	Title   string
	Content string
}

// ChapterGenerateOutput 章节内容生成产出
type ChapterGenerateOutput struct {
	Content string
	Meta    LLMUsageMeta
}
