package model

// AnalysisInput 脑暴素材分析的模型输入
type AnalysisInput struct {
	ProjectTitle string
	RawContent   string
	Attachments  []SourceAttachment

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}

// AnalysisTopic 分析产出的单个主题
type AnalysisTopic struct {
	Title     string   `json:"title"`
	KeyPoints []string `json:"key_points"`
}

// AnalysisOutput 脑暴素材分析的结构化产出
type AnalysisOutput struct {
	Summary string          `json:"summary"`
	Topics  []AnalysisTopic `json:"topics"`
	Meta    LLMUsageMeta    `json:"-"`
}
