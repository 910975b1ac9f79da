package model

// IdeaGenerateInput 创意生成的模型输入
type IdeaGenerateInput struct {
	ProjectTitle    string
	AnalysisSummary string
	Topics          []AnalysisTopic
	IdeaCount       int

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// GeneratedIdea 模型产出的单个创意
type GeneratedIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// IdeaGenerateOutput 创意生成的结构化产出
type IdeaGenerateOutput struct {
	Ideas []GeneratedIdea `json:"ideas"`
	Meta  LLMUsageMeta    `json:"-"`
}
