package model

import "time"

// SourceAttachment 随素材一并送入模型的附加文本
type SourceAttachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// LLMUsageMeta LLM 调用的使用统计
type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Temperature      float64
	GeneratedAt      time.Time
}
