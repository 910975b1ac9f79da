package node

import (
	"strings"

	wfmodel "autopen-api/internal/workflow/model"
)

// BuildAttachmentsBlock 将附加材料拼接为提示词片段
func BuildAttachmentsBlock(attachments []wfmodel.SourceAttachment) string {
	if len(attachments) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(attachments))
	for _, a := range attachments {
		name := strings.TrimSpace(a.Name)
		content := strings.TrimSpace(a.Content)
		if content == "" {
			continue
		}
		if name == "" {
			name = "attachment"
		}
		lines = append(lines, "## "+name+"\n"+content)
	}
	if len(lines) == 0 {
		return "(none)"
	}
	return strings.Join(lines, "\n\n")
}

// BuildTopicsBlock 将分析主题拼接为提示词片段
func BuildTopicsBlock(topics []wfmodel.AnalysisTopic) string {
	if len(topics) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(topics))
	for _, t := range topics {
		line := "- " + strings.TrimSpace(t.Title)
		for _, p := range t.KeyPoints {
			if strings.TrimSpace(p) == "" {
				continue
			}
			line += "\n  - " + strings.TrimSpace(p)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
