package model

// StructureGenerateInput 电子书结构生成的模型输入
type StructureGenerateInput struct {
	ProjectTitle    string
	IdeaTitle       string
	IdeaDescription string
	AnalysisSummary string
	ChapterCount    int

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// GeneratedChapterOutline 模型产出的单个章节大纲
type GeneratedChapterOutline struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// StructureGenerateOutput 电子书结构生成的结构化产出
type StructureGenerateOutput struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Chapters    []GeneratedChapterOutline `json:"chapters"`
	Meta        LLMUsageMeta              `json:"-"`
}
